package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/tally/internal/encoding"
	"github.com/MrJamesThe3rd/tally/internal/estimate/form"
)

// Header names of an estimate export. Matching ignores case and surrounding
// spaces.
const (
	ColType         = "Type"
	ColClaim        = "Claim"
	ColClient       = "Client"
	ColTask         = "Task"
	ColDateReceived = "Date Received"
	ColTimeReceived = "Time Received"
	ColDateReturned = "Date Returned"
	ColTimeReturned = "Time Returned"
	ColAmount       = "Amount"
	ColStatus       = "Status"
)

var requiredCols = []string{ColType, ColClaim, ColClient, ColTask, ColDateReceived, ColTimeReceived}

var delimiters = []rune{',', ';', '\t'}

var (
	dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006"}
	timeLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}
)

// Row is one parsed data row. Line is its 1-based record number in the file.
type Row struct {
	Line int
	Form form.Form
}

// Parser reads estimate CSV exports. Leading title or summary lines are
// skipped until a row holding every required header is found.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]Row, error) {
	utf8r, charset, err := enc.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	slog.Debug("decoding estimate csv", "charset", charset)

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	for _, comma := range delimiters {
		rows, err := readAll(data, comma)
		if err != nil {
			continue
		}

		cols, headerIdx, ok := detectHeader(rows)
		if !ok {
			continue
		}

		return parseRows(cols, rows[headerIdx+1:], headerIdx+1), nil
	}

	return nil, fmt.Errorf("no estimate header found: expected columns %s", strings.Join(requiredCols, ", "))
}

func readAll(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func (c colIndex) get(row []string, name string) string {
	idx, ok := c[strings.ToLower(name)]
	if !ok {
		return ""
	}

	return cellValue(row, idx)
}

func detectHeader(rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		if hasAll(cols) {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func hasAll(cols colIndex) bool {
	for _, name := range requiredCols {
		if _, ok := cols[strings.ToLower(name)]; !ok {
			return false
		}
	}

	return true
}

// parseRows builds forms from data rows. Blank rows and footers without a
// claim number are skipped; anything else is kept for validation.
func parseRows(cols colIndex, rows [][]string, headerRowNum int) []Row {
	var out []Row

	for i, row := range rows {
		claim := cols.get(row, ColClaim)
		if claim == "" {
			continue
		}

		f := form.New()
		f.ClaimNumber = claim
		f.ClientName = cols.get(row, ColClient)
		f.TaskNumber = cols.get(row, ColTask)
		f.DateReceived = normalizeDate(cols.get(row, ColDateReceived))
		f.TimeReceived = normalizeTime(cols.get(row, ColTimeReceived))
		f.DateReturned = normalizeDate(cols.get(row, ColDateReturned))
		f.TimeReturned = normalizeTime(cols.get(row, ColTimeReturned))
		f.FinalAmount = cols.get(row, ColAmount)

		if t := cols.get(row, ColType); t != "" {
			f.EstimateType = titleCase(t)
		}

		if s := cols.get(row, ColStatus); s != "" {
			f.Status = titleCase(s)
		}

		out = append(out, Row{Line: headerRowNum + i + 1, Form: f})
	}

	return out
}

// normalizeDate rewrites recognised layouts as YYYY-MM-DD and leaves anything
// else for validation to reject.
func normalizeDate(s string) string {
	return normalize(s, dateLayouts, "2006-01-02")
}

func normalizeTime(s string) string {
	return normalize(s, timeLayouts, "15:04")
}

func normalize(s string, layouts []string, out string) string {
	if s == "" {
		return ""
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(out)
		}
	}

	return s
}

// titleCase maps "in progress" or "FINAL" to the canonical spelling.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}

	return strings.Join(words, " ")
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
