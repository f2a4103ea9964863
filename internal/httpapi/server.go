// Package httpapi serves the market calendar over HTTP: business-day and
// SQ-date lookups, session classification, and cache status.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"marketsched/internal/domain"
	"marketsched/pkg/marketsched"
)

// Server serves the calendar API backed by a marketsched Service.
type Server struct {
	svc *marketsched.Service
	log *slog.Logger
}

// NewServer creates an API server over the given service.
func NewServer(svc *marketsched.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/markets", s.handleMarkets)
	mux.HandleFunc("GET /api/markets/{market}/business-days", s.handleBusinessDayRange)
	mux.HandleFunc("GET /api/markets/{market}/business-days/{date}", s.handleBusinessDay)
	mux.HandleFunc("GET /api/markets/{market}/next-business-day/{date}", s.handleNextBusinessDay)
	mux.HandleFunc("GET /api/markets/{market}/previous-business-day/{date}", s.handlePreviousBusinessDay)
	mux.HandleFunc("GET /api/markets/{market}/sq-dates/{year}", s.handleSQYear)
	mux.HandleFunc("GET /api/markets/{market}/sq-dates/{year}/{month}", s.handleSQDate)
	mux.HandleFunc("GET /api/markets/{market}/session", s.handleSession)
	mux.HandleFunc("GET /api/cache/status", s.handleCacheStatus)
}

// Handler returns an http.Handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logMiddleware(mux)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP statuses: unknown markets
// and missing SQ periods are 404, bad input is 400, an unfetched cache is
// 503 (the server works, the data is not there yet), everything else 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		notFound   *domain.MarketNotFoundError
		sqNotFound *domain.SQDataNotFoundError
		parseErr   *domain.ContractMonthParseError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &sqNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &parseErr), errors.Is(err, domain.ErrTimezoneRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCacheNotAvailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	ids := s.svc.AvailableMarkets()
	markets := make([]MarketInfo, 0, len(ids))
	for _, id := range ids {
		m, err := s.svc.Market(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		markets = append(markets, MarketInfo{
			ID:       m.ID(),
			Name:     m.Name(),
			Timezone: m.Timezone().String(),
		})
	}
	writeJSON(w, MarketsResponse{Markets: markets})
}

func (s *Server) handleBusinessDay(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Market(r.PathValue("market"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := domain.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ok, err := m.IsBusinessDay(date)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, BusinessDayResponse{
		Market:        m.ID(),
		Date:          domain.DateKey(date),
		IsBusinessDay: ok,
	})
}

func (s *Server) handleBusinessDayRange(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Market(r.PathValue("market"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	start, err := domain.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := domain.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}
	days, err := m.BusinessDays(start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	keys := make([]string, 0, len(days))
	for _, d := range days {
		keys = append(keys, domain.DateKey(d))
	}
	writeJSON(w, BusinessDayRangeResponse{
		Market: m.ID(),
		Start:  domain.DateKey(start),
		End:    domain.DateKey(end),
		Days:   keys,
		Count:  len(keys),
	})
}

func (s *Server) handleNextBusinessDay(w http.ResponseWriter, r *http.Request) {
	s.handleAdjacentBusinessDay(w, r, true)
}

func (s *Server) handlePreviousBusinessDay(w http.ResponseWriter, r *http.Request) {
	s.handleAdjacentBusinessDay(w, r, false)
}

func (s *Server) handleAdjacentBusinessDay(w http.ResponseWriter, r *http.Request, forward bool) {
	m, err := s.svc.Market(r.PathValue("market"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	date, err := domain.ParseDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var result time.Time
	if forward {
		result, err = m.NextBusinessDay(date)
	} else {
		result, err = m.PreviousBusinessDay(date)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, AdjacentBusinessDayResponse{
		Market:      m.ID(),
		From:        domain.DateKey(date),
		BusinessDay: domain.DateKey(result),
	})
}

func (s *Server) handleSQDate(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Market(r.PathValue("market"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}
	sq, err := m.SQDate(year, month)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, SQDateResponse{
		Market: m.ID(),
		Year:   year,
		Month:  month,
		SQDate: domain.DateKey(sq),
	})
}

func (s *Server) handleSQYear(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Market(r.PathValue("market"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	dates, err := m.SQDatesForYear(year)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, domain.DateKey(d))
	}
	writeJSON(w, SQYearResponse{Market: m.ID(), Year: year, SQDates: keys})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Market(r.PathValue("market"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err = domain.ParseDateTime(raw)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}
	session := m.Session(at)
	writeJSON(w, SessionResponse{
		Market:    m.ID(),
		At:        at.Format(time.RFC3339),
		Session:   string(session),
		IsTrading: session.IsTrading(),
	})
}

func (s *Server) handleCacheStatus(w http.ResponseWriter, r *http.Request) {
	entries := make(map[string]domain.CacheInfo)
	for kind, info := range s.svc.CacheStatus() {
		entries[string(kind)] = info
	}
	writeJSON(w, CacheStatusResponse{Entries: entries})
}
