package jpx

import (
	"time"

	"marketsched/internal/domain"
)

// JPX index derivatives trading hours (JST), per the exchange's published
// schedule:
//
//	Day session:   08:45:00 - 15:45:00 (inclusive on both ends)
//	Night session: 17:00:00 - 06:00:00 next day (wraps midnight)
//
// The gaps (06:00-08:45 and 15:45-17:00, exclusive of the session
// boundaries they touch) are CLOSED. Boundaries hold at full clock
// precision: 15:45:00 is still DAY, 15:45:01 is already CLOSED.
const (
	dayStartSecond   = (8*60 + 45) * 60
	dayEndSecond     = (15*60 + 45) * 60
	nightStartSecond = 17 * 60 * 60
	nightEndSecond   = 6 * 60 * 60
)

// sessionAt classifies a local JST instant. The overnight wrap is the
// disjunction t >= 17:00 || t < 06:00 — it cannot be a simple range test
// because the window's start is later than its end.
func sessionAt(t time.Time) domain.TradingSession {
	second := (t.Hour()*60+t.Minute())*60 + t.Second()
	switch {
	case second >= dayStartSecond && second <= dayEndSecond:
		return domain.SessionDay
	case second >= nightStartSecond || second < nightEndSecond:
		return domain.SessionNight
	default:
		return domain.SessionClosed
	}
}
