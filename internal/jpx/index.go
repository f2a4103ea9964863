package jpx

import (
	"time"

	"marketsched/internal/cache"
	"marketsched/internal/domain"
	"marketsched/internal/market"
)

// MarketID is the registry identifier for the JPX index derivatives market.
const MarketID = "jpx-index"

const marketName = "JPX Index Futures & Options"

// Index is the JPX index derivatives market. It composes the calendar
// engine with the session windows and pins all session resolution to
// Asia/Tokyo regardless of the caller's zone.
type Index struct {
	calendar *Calendar
	tz       *time.Location
}

var _ market.Market = (*Index)(nil)

// NewIndex creates the JPX index market over the given cache store.
// It fails only if the Asia/Tokyo zone data is unavailable.
func NewIndex(store cache.Store) (*Index, error) {
	tz, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return nil, err
	}
	return &Index{
		calendar: NewCalendar(NewDataQuery(store)),
		tz:       tz,
	}, nil
}

// ID returns the registry identifier.
func (m *Index) ID() string { return MarketID }

// Name returns the human-readable market name.
func (m *Index) Name() string { return marketName }

// Timezone returns the market's local zone, Asia/Tokyo.
func (m *Index) Timezone() *time.Location { return m.tz }

// ---------------------------------------------------------------------------
// Business days
// ---------------------------------------------------------------------------

func (m *Index) IsBusinessDay(d time.Time) (bool, error) {
	return m.calendar.IsBusinessDay(d)
}

func (m *Index) NextBusinessDay(d time.Time) (time.Time, error) {
	return m.calendar.NextBusinessDay(d)
}

func (m *Index) PreviousBusinessDay(d time.Time) (time.Time, error) {
	return m.calendar.PreviousBusinessDay(d)
}

func (m *Index) BusinessDays(start, end time.Time) ([]time.Time, error) {
	return m.calendar.BusinessDays(start, end)
}

func (m *Index) CountBusinessDays(start, end time.Time) (int, error) {
	return m.calendar.CountBusinessDays(start, end)
}

// ---------------------------------------------------------------------------
// SQ dates
// ---------------------------------------------------------------------------

func (m *Index) SQDate(year, month int) (time.Time, error) {
	return m.calendar.SQDate(year, month)
}

func (m *Index) IsSQDate(d time.Time) (bool, error) {
	return m.calendar.IsSQDate(d)
}

func (m *Index) SQDatesForYear(year int) ([]time.Time, error) {
	return m.calendar.SQDatesForYear(year)
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// Session classifies the instant t against the market's trading windows.
// t is converted to Asia/Tokyo first, so a caller in any zone gets the
// same answer for the same instant.
func (m *Index) Session(t time.Time) domain.TradingSession {
	return sessionAt(t.In(m.tz))
}

// SessionNow classifies the current instant.
func (m *Index) SessionNow() domain.TradingSession {
	return m.Session(time.Now())
}

// IsTradingHours reports whether t falls in the day or night session.
func (m *Index) IsTradingHours(t time.Time) bool {
	return m.Session(t).IsTrading()
}
