package estimate

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var ErrInvalidAmount = errors.New("invalid amount")

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

var usdPrinter = message.NewPrinter(language.AmericanEnglish)

// ParseCents turns amount text such as "$1,234.50" or "100" into cents.
// Every character other than digits, '.' and '-' is dropped first; text
// with nothing left is zero.
func ParseCents(text string) (int64, error) {
	clean := nonNumeric.ReplaceAllString(text, "")
	if clean == "" {
		return 0, nil
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}

	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

// FormatUSD formats cents as US dollars, e.g. 123450 -> "$1,234.50".
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	dollars := decimal.New(cents, -2).InexactFloat64()

	return sign + "$" + usdPrinter.Sprintf("%v", number.Decimal(dollars, number.Scale(2)))
}

// FormatAmountText normalises typed amount text into dollars, as done when an
// amount field loses focus. Empty text stays empty; malformed text is
// reported with ok=false and returned unchanged.
func FormatAmountText(text string) (formatted string, ok bool) {
	if text == "" {
		return "", true
	}

	cents, err := ParseCents(text)
	if err != nil {
		return text, false
	}

	return FormatUSD(cents), true
}
