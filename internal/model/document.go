package model

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	docDateRe = regexp.MustCompile(`(?i)от\s+(\d{1,2})\.(\d{1,2})\.(\d{4})`)
	isoDateRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	timeTail  = regexp.MustCompile(`\s+\d{1,2}:\d{2}(:\d{2})?\s*$`)
	spaces    = strings.NewReplacer(" ", "", " ", "", " ", "")
)

// ParseDocumentDate extracts the movement date from a document reference
// string such as "ПОПО-000527 от 03.01.2026 19:00:00" or
// "... от 25.01.2026". An ISO yyyy-mm-dd substring is accepted as a
// fallback. Returns false when no parseable date is present.
func ParseDocumentDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if m := docDateRe.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(y, mo, d); ok {
			return t, true
		}
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		d, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(y, mo, d); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func makeDate(y, mo, d int) (time.Time, bool) {
	if y < 1 || mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// Reject rollover such as 31.02.
	if t.Day() != d || t.Month() != time.Month(mo) {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDocument strips a trailing time-of-day from a document
// reference so the same document exported from different reports compares
// equal: "ПОПО-000527 от 03.01.2026 19:00:00" -> "ПОПО-000527 от 03.01.2026".
func NormalizeDocument(doc string) string {
	s := strings.TrimSpace(doc)
	return strings.TrimSpace(timeTail.ReplaceAllString(s, ""))
}

// ParseQuantity coerces a spreadsheet cell into a decimal quantity.
// Thousands spaces (including non-breaking ones) are removed and a
// decimal comma is accepted. Returns false for empty or non-numeric cells.
func ParseQuantity(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, false
	}
	s = spaces.Replace(s)
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
