// Package jpx implements the JPX index derivatives market: the typed query
// layer over the reference-data cache, the business-day calendar engine,
// the day/night session windows, the Market facade, and the fetcher that
// pulls SQ-date and holiday-trading spreadsheets from the JPX website.
package jpx

import (
	"fmt"
	"sort"
	"time"

	"marketsched/internal/cache"
	"marketsched/internal/domain"
)

// DataQuery answers the point and range lookups the calendar engine needs.
// It is the layer that separates "cache empty" (domain.ErrCacheNotAvailable,
// a hard failure fixed by fetching) from "no record for this query" (a valid
// negative answer).
type DataQuery struct {
	store cache.Store
}

// NewDataQuery creates a query layer over the given store.
func NewDataQuery(store cache.Store) *DataQuery {
	return &DataQuery{store: store}
}

func (q *DataQuery) readSQDates() ([]domain.SQDateRecord, error) {
	records, ok, err := q.store.ReadSQDates()
	if err != nil {
		return nil, fmt.Errorf("reading %s cache: %w", domain.KindSQDates, err)
	}
	if !ok {
		return nil, domain.ErrCacheNotAvailable
	}
	return records, nil
}

func (q *DataQuery) readHolidays() ([]domain.HolidayTradingRecord, error) {
	records, ok, err := q.store.ReadHolidayTrading()
	if err != nil {
		return nil, fmt.Errorf("reading %s cache: %w", domain.KindHolidayTrading, err)
	}
	if !ok {
		return nil, domain.ErrCacheNotAvailable
	}
	return records, nil
}

// SQDate returns the SQ date for (year, month). found=false with a nil
// error means the cache has data but no record for that period — a valid
// answer, distinct from the cache being absent.
func (q *DataQuery) SQDate(year, month int) (time.Time, bool, error) {
	target, err := domain.NewContractMonth(year, month)
	if err != nil {
		return time.Time{}, false, err
	}
	records, err := q.readSQDates()
	if err != nil {
		return time.Time{}, false, err
	}
	for _, r := range records {
		if r.ContractMonth == target {
			return r.SQDate, true, nil
		}
	}
	return time.Time{}, false, nil
}

// SQDatesForYear returns all SQ dates whose contract month falls in the
// given year, ascending. An empty result is not an error at this layer.
func (q *DataQuery) SQDatesForYear(year int) ([]time.Time, error) {
	records, err := q.readSQDates()
	if err != nil {
		return nil, err
	}
	var dates []time.Time
	for _, r := range records {
		if r.ContractMonth.Year == year {
			dates = append(dates, r.SQDate)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// IsHolidayTradingDay reports whether d has a holiday record with trading
// enabled.
func (q *DataQuery) IsHolidayTradingDay(d time.Time) (bool, error) {
	records, err := q.readHolidays()
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if domain.SameDate(r.Date, d) && r.IsTrading {
			return true, nil
		}
	}
	return false, nil
}

// NonTradingHolidays returns the set of holiday dates without trading,
// keyed by domain.DateKey.
func (q *DataQuery) NonTradingHolidays() (map[string]struct{}, error) {
	records, err := q.readHolidays()
	if err != nil {
		return nil, err
	}
	holidays := make(map[string]struct{})
	for _, r := range records {
		if !r.IsTrading {
			holidays[domain.DateKey(r.Date)] = struct{}{}
		}
	}
	return holidays, nil
}
