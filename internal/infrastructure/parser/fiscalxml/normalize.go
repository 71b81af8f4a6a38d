package fiscalxml

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CleanText collapses whitespace runs and trims. Blank input is absent.
func CleanText(raw string) *string {
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// ParseDecimal reads a number that may use a comma as decimal separator.
// When a comma is present, dots are treated as thousands separators.
// Unparsable input yields an invalid NullDecimal rather than an error.
func ParseDecimal(raw *string) decimal.NullDecimal {
	if raw == nil {
		return decimal.NullDecimal{}
	}
	s := strings.TrimSpace(*raw)
	if s == "" {
		return decimal.NullDecimal{}
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

var offsetSuffix = regexp.MustCompile(`(?:[+-]\d{2}:\d{2}|Z)$`)

var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp drops a trailing UTC offset without converting and returns
// the wall-clock time in a zone-less form.
func ParseTimestamp(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	s := offsetSuffix.ReplaceAllString(strings.TrimSpace(*raw), "")
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseSequence(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
