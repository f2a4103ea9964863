package httpapi

import "marketsched/internal/domain"

// MarketInfo describes one registered market.
type MarketInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// MarketsResponse lists the registered markets.
type MarketsResponse struct {
	Markets []MarketInfo `json:"markets"`
}

// BusinessDayResponse answers a single-date business-day query.
type BusinessDayResponse struct {
	Market        string `json:"market"`
	Date          string `json:"date"`
	IsBusinessDay bool   `json:"is_business_day"`
}

// BusinessDayRangeResponse lists the business days in an inclusive range.
type BusinessDayRangeResponse struct {
	Market string   `json:"market"`
	Start  string   `json:"start"`
	End    string   `json:"end"`
	Days   []string `json:"days"`
	Count  int      `json:"count"`
}

// AdjacentBusinessDayResponse answers next/previous business-day queries.
type AdjacentBusinessDayResponse struct {
	Market      string `json:"market"`
	From        string `json:"from"`
	BusinessDay string `json:"business_day"`
}

// SQDateResponse answers a single contract period's SQ-date query.
type SQDateResponse struct {
	Market string `json:"market"`
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	SQDate string `json:"sq_date"`
}

// SQYearResponse lists a year's SQ dates ascending.
type SQYearResponse struct {
	Market  string   `json:"market"`
	Year    int      `json:"year"`
	SQDates []string `json:"sq_dates"`
}

// SessionResponse classifies an instant against the market's sessions.
type SessionResponse struct {
	Market    string `json:"market"`
	At        string `json:"at"`
	Session   string `json:"session"`
	IsTrading bool   `json:"is_trading"`
}

// CacheStatusResponse reports the cache snapshot per data kind.
type CacheStatusResponse struct {
	Entries map[string]domain.CacheInfo `json:"entries"`
}
