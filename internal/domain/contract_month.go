// Package domain defines the core value objects and record types shared by
// the cache, query, calendar, and market layers: contract months, SQ date
// and holiday-trading records, cache metadata, and trading sessions.
package domain

import (
	"fmt"
	"regexp"
)

// ContractMonth identifies a futures/options expiry cycle by (year, month).
// It is a comparable value type, so it can be used directly as a map key.
// Ordering is chronological: year first, then month.
type ContractMonth struct {
	Year  int
	Month int
}

var (
	japaneseMonthRe = regexp.MustCompile(`^(\d{2,4})年(\d{1,2})月限$`)
	yyyymmRe        = regexp.MustCompile(`^(\d{4})(\d{2})$`)
	yyyyDashMMRe    = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
)

// NewContractMonth validates year >= 0 and month in [1, 12].
func NewContractMonth(year, month int) (ContractMonth, error) {
	if year < 0 {
		return ContractMonth{}, fmt.Errorf("contract month year must be non-negative, got %d", year)
	}
	if month < 1 || month > 12 {
		return ContractMonth{}, fmt.Errorf("contract month must be between 1 and 12, got %d", month)
	}
	return ContractMonth{Year: year, Month: month}, nil
}

// ParseContractMonth parses a contract month from its Japanese form
// ("26年3月限", "2026年3月限"), YYYYMM ("202603"), or YYYY-MM ("2026-03").
// Two-digit years are interpreted as 20xx.
func ParseContractMonth(text string) (ContractMonth, error) {
	if m := japaneseMonthRe.FindStringSubmatch(text); m != nil {
		year := atoi(m[1])
		if year < 100 {
			year += 2000
		}
		return newOrParseError(year, atoi(m[2]), text)
	}
	if m := yyyymmRe.FindStringSubmatch(text); m != nil {
		return newOrParseError(atoi(m[1]), atoi(m[2]), text)
	}
	if m := yyyyDashMMRe.FindStringSubmatch(text); m != nil {
		return newOrParseError(atoi(m[1]), atoi(m[2]), text)
	}
	return ContractMonth{}, &ContractMonthParseError{Input: text}
}

func newOrParseError(year, month int, text string) (ContractMonth, error) {
	cm, err := NewContractMonth(year, month)
	if err != nil {
		return ContractMonth{}, &ContractMonthParseError{Input: text}
	}
	return cm, nil
}

// atoi converts digit-only input already validated by a regexp; it never
// sees non-numeric text.
func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// YYYYMM returns the compact form used as the cache key, e.g. "202603".
// The year is zero-padded so every valid contract month round-trips
// through ParseContractMonth (year 26 serializes as "002603", not "2603").
func (cm ContractMonth) YYYYMM() string {
	return fmt.Sprintf("%04d%02d", cm.Year, cm.Month)
}

// Japanese returns the JPX display form, e.g. "2026年3月限".
func (cm ContractMonth) Japanese() string {
	return fmt.Sprintf("%d年%d月限", cm.Year, cm.Month)
}

func (cm ContractMonth) String() string { return cm.Japanese() }

// Compare orders chronologically: -1 if cm is earlier than other, 0 if
// equal, +1 if later.
func (cm ContractMonth) Compare(other ContractMonth) int {
	switch {
	case cm.Year != other.Year:
		if cm.Year < other.Year {
			return -1
		}
		return 1
	case cm.Month != other.Month:
		if cm.Month < other.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Before reports whether cm is chronologically earlier than other.
func (cm ContractMonth) Before(other ContractMonth) bool {
	return cm.Compare(other) < 0
}
