package jpx

import (
	"fmt"
	"time"

	"marketsched/internal/domain"
)

// maxSearchDays bounds forward/backward business-day searches. It is a
// defensive limit against corrupted or pathologically sparse cache data,
// not a business rule: no real market closes for a year.
const maxSearchDays = 365

// Calendar is the business-day and SQ-date resolution engine. All holiday
// knowledge comes from the cached JPX data via DataQuery; nothing is
// hardcoded.
type Calendar struct {
	query *DataQuery
}

// NewCalendar creates a calendar over the given query layer.
func NewCalendar(query *DataQuery) *Calendar {
	return &Calendar{query: query}
}

// IsBusinessDay applies the business-day predicate in order: weekends are
// never business days; a holiday with trading enabled is; a non-trading
// holiday is not; every other weekday is.
func (c *Calendar) IsBusinessDay(d time.Time) (bool, error) {
	if domain.IsWeekend(d) {
		return false, nil
	}
	trading, err := c.query.IsHolidayTradingDay(d)
	if err != nil {
		return false, err
	}
	if trading {
		return true, nil
	}
	holidays, err := c.query.NonTradingHolidays()
	if err != nil {
		return false, err
	}
	if _, closed := holidays[domain.DateKey(d)]; closed {
		return false, nil
	}
	return true, nil
}

// NextBusinessDay returns the first business day strictly after d.
func (c *Calendar) NextBusinessDay(d time.Time) (time.Time, error) {
	return c.searchBusinessDay(d, 1)
}

// PreviousBusinessDay returns the first business day strictly before d.
func (c *Calendar) PreviousBusinessDay(d time.Time) (time.Time, error) {
	return c.searchBusinessDay(d, -1)
}

func (c *Calendar) searchBusinessDay(d time.Time, step int) (time.Time, error) {
	current := d
	for i := 0; i < maxSearchDays; i++ {
		current = current.AddDate(0, 0, step)
		ok, err := c.IsBusinessDay(current)
		if err != nil {
			return time.Time{}, err
		}
		if ok {
			return current, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: no business day within %d days of %s",
		domain.ErrSearchExhausted, maxSearchDays, domain.DateKey(d))
}

// BusinessDays returns every business day in [start, end] ascending. The
// bounds are calendar dates: clock times on the inputs are discarded
// before they are compared, so two instants on the same day always span
// that one day. A start date after the end date yields an empty result,
// not an error.
func (c *Calendar) BusinessDays(start, end time.Time) ([]time.Time, error) {
	first, last := domain.DateOf(start), domain.DateOf(end)
	if first.After(last) {
		return nil, nil
	}
	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		ok, err := c.IsBusinessDay(d)
		if err != nil {
			return nil, err
		}
		if ok {
			days = append(days, d)
		}
	}
	return days, nil
}

// CountBusinessDays is defined as the length of BusinessDays, so the two
// can never disagree.
func (c *Calendar) CountBusinessDays(start, end time.Time) (int, error) {
	days, err := c.BusinessDays(start, end)
	if err != nil {
		return 0, err
	}
	return len(days), nil
}

// SQDate returns the SQ date for the contract period. A period the cache
// has no record for is a hard SQDataNotFoundError: the caller asked about
// a specific period, so "no idea" is not a useful answer.
func (c *Calendar) SQDate(year, month int) (time.Time, error) {
	sq, found, err := c.query.SQDate(year, month)
	if err != nil {
		return time.Time{}, err
	}
	if !found {
		return time.Time{}, &domain.SQDataNotFoundError{Year: year, Month: month}
	}
	return sq, nil
}

// IsSQDate reports whether d equals its period's SQ date. When the period
// has no data at all the SQDataNotFoundError propagates: "no data" and
// "not an SQ date" are distinct outcomes, and collapsing the former into
// false would hide data-availability problems from callers.
func (c *Calendar) IsSQDate(d time.Time) (bool, error) {
	sq, err := c.SQDate(d.Year(), int(d.Month()))
	if err != nil {
		return false, err
	}
	return domain.SameDate(sq, d), nil
}

// SQDatesForYear returns the year's SQ dates ascending. Zero results at
// this level are treated as a data-availability failure, unlike the raw
// query layer's empty-list answer.
func (c *Calendar) SQDatesForYear(year int) ([]time.Time, error) {
	dates, err := c.query.SQDatesForYear(year)
	if err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, &domain.SQDataNotFoundError{Year: year, Month: 1}
	}
	return dates, nil
}
