package domain

// TradingSession classifies an instant into the market's trading cycle.
// DAY and NIGHT are trading states; CLOSED covers the gap windows.
// Sessions are computed per query and have no persistent identity.
type TradingSession string

const (
	SessionDay    TradingSession = "day"
	SessionNight  TradingSession = "night"
	SessionClosed TradingSession = "closed"
)

// IsTrading reports whether the session allows trading.
func (s TradingSession) IsTrading() bool {
	return s == SessionDay || s == SessionNight
}
