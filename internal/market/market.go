// Package market defines the contract every market implementation satisfies
// and a registry mapping market IDs to constructors. New markets plug in by
// supplying their own data source and session schedule; nothing here is
// market-specific.
package market

import (
	"time"

	"marketsched/internal/domain"
)

// Market is the facade contract: identity plus calendar and session
// queries. Date arguments are calendar dates (time-of-day ignored);
// session arguments are instants converted to the market's own timezone
// before classification.
type Market interface {
	// ID returns the unique market identifier, e.g. "jpx-index".
	ID() string

	// Name returns the human-readable market name.
	Name() string

	// Timezone returns the market's native timezone.
	Timezone() *time.Location

	// IsBusinessDay reports whether d is a trading day: a weekday that is
	// either not a listed holiday or a holiday with trading enabled.
	IsBusinessDay(d time.Time) (bool, error)

	// NextBusinessDay returns the first business day strictly after d.
	NextBusinessDay(d time.Time) (time.Time, error)

	// PreviousBusinessDay returns the first business day strictly before d.
	PreviousBusinessDay(d time.Time) (time.Time, error)

	// BusinessDays returns all business days in [start, end] ascending;
	// empty when start > end.
	BusinessDays(start, end time.Time) ([]time.Time, error)

	// CountBusinessDays returns len(BusinessDays(start, end)).
	CountBusinessDays(start, end time.Time) (int, error)

	// SQDate returns the SQ date for the contract period, failing with
	// domain.SQDataNotFoundError when the period has no cached record.
	SQDate(year, month int) (time.Time, error)

	// IsSQDate reports whether d is an SQ date. When no data exists for
	// d's period at all, the SQDataNotFoundError propagates rather than
	// being reported as false.
	IsSQDate(d time.Time) (bool, error)

	// SQDatesForYear returns the year's SQ dates ascending, failing with
	// domain.SQDataNotFoundError when the year has none.
	SQDatesForYear(year int) ([]time.Time, error)

	// Session classifies the instant into DAY, NIGHT, or CLOSED after
	// converting it to the market's timezone. It is independent of
	// business-day status.
	Session(t time.Time) domain.TradingSession

	// SessionNow classifies the current instant.
	SessionNow() domain.TradingSession

	// IsTradingHours reports Session(t) != CLOSED. It deliberately ignores
	// business-day status; combine with IsBusinessDay for "is the market
	// actually open".
	IsTradingHours(t time.Time) bool
}
