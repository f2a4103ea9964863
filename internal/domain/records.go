package domain

import "time"

// DataKind identifies one cached record set.
type DataKind string

const (
	// KindSQDates is the settlement-date (SQ) record set.
	KindSQDates DataKind = "sq_dates"
	// KindHolidayTrading is the holiday trading-exception record set.
	KindHolidayTrading DataKind = "holiday_trading"
)

// AllDataKinds lists every cached data kind in a stable order.
func AllDataKinds() []DataKind {
	return []DataKind{KindSQDates, KindHolidayTrading}
}

// Valid reports whether k names a known data kind.
func (k DataKind) Valid() bool {
	return k == KindSQDates || k == KindHolidayTrading
}

// SQDateRecord holds one contract period's settlement resolution as
// published by JPX. SQDate is normally the day after LastTradingDay, but
// that is not enforced here. Records are created by the fetcher, persisted
// to the cache, and never mutated afterwards.
type SQDateRecord struct {
	ContractMonth   ContractMonth
	LastTradingDay  time.Time
	SQDate          time.Time
	ProductCategory string
}

// HolidayTradingRecord marks one calendar holiday's trading status.
// IsTrading means the exchange exceptionally runs trading that day.
// IsConfirmed distinguishes final from tentative statuses; the calendar
// engine does not currently treat them differently, but the field is
// preserved for future policy changes.
type HolidayTradingRecord struct {
	Date        time.Time
	HolidayName string
	IsTrading   bool
	IsConfirmed bool
}
