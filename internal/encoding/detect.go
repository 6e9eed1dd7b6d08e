// Package encoding converts uploaded spreadsheet exports to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Charset names the encoding a reader was decoded from.
type Charset string

const (
	UTF8        Charset = "UTF-8"
	UTF16LE     Charset = "UTF-16LE"
	UTF16BE     Charset = "UTF-16BE"
	Windows1252 Charset = "windows-1252"
)

const (
	sniffSize = 8 << 10
	// chardet guesses below this confidence are ignored.
	minConfidence = 40
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode returns a UTF-8 view of r and the charset it was read as. A
// byte order mark wins, then valid UTF-8, then a confident chardet guess.
// Anything else is read as Windows-1252, which is what spreadsheet tools
// write by default.
func Decode(r io.Reader) (io.Reader, Charset, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		_, _ = br.Discard(len(bomUTF8))
		return br, UTF8, nil
	case bytes.HasPrefix(buf, bomUTF16LE):
		return decoded(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)), UTF16LE, nil
	case bytes.HasPrefix(buf, bomUTF16BE):
		return decoded(br, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)), UTF16BE, nil
	}

	if validUTF8Prefix(buf) {
		return br, UTF8, nil
	}

	if res, err := chardet.NewTextDetector().DetectBest(buf); err == nil && res.Confidence >= minConfidence {
		if res.Charset == string(UTF8) {
			return br, UTF8, nil
		}

		if enc, err := htmlindex.Get(res.Charset); err == nil {
			name, _ := htmlindex.Name(enc)
			return decoded(br, enc), Charset(name), nil
		}
	}

	return decoded(br, charmap.Windows1252), Windows1252, nil
}

func decoded(r io.Reader, enc encoding.Encoding) io.Reader {
	return transform.NewReader(r, enc.NewDecoder())
}

// validUTF8Prefix is utf8.Valid that tolerates a rune cut off at the end
// of the sniffed window.
func validUTF8Prefix(buf []byte) bool {
	if utf8.Valid(buf) {
		return true
	}

	for i := 1; i < utf8.UTFMax && i <= len(buf); i++ {
		tail := buf[len(buf)-i:]
		if utf8.RuneStart(tail[0]) && !utf8.FullRune(tail) {
			return utf8.Valid(buf[:len(buf)-i])
		}
	}

	return false
}

