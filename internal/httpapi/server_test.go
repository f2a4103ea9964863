package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketsched/internal/cache"
	"marketsched/internal/config"
	"marketsched/internal/domain"
	"marketsched/pkg/marketsched"
)

// newTestServer seeds a parquet cache, wires a Service over it, and returns
// a running test server. When seed is false the cache stays empty.
func newTestServer(t *testing.T, seed bool) *httptest.Server {
	t.Helper()
	dir := t.TempDir()

	if seed {
		store := cache.NewParquetStore(dir)
		now := time.Now().UTC()

		sqDates := []domain.SQDateRecord{
			{
				ContractMonth:   domain.ContractMonth{Year: 2026, Month: 3},
				LastTradingDay:  domain.Date(2026, time.March, 12),
				SQDate:          domain.Date(2026, time.March, 13),
				ProductCategory: "index_futures_options",
			},
			{
				ContractMonth:   domain.ContractMonth{Year: 2026, Month: 6},
				LastTradingDay:  domain.Date(2026, time.June, 11),
				SQDate:          domain.Date(2026, time.June, 12),
				ProductCategory: "index_futures_options",
			},
		}
		meta, err := domain.NewCacheMetadata(domain.KindSQDates, "https://example.test/sq.xlsx",
			now, now.Add(time.Hour), cache.SchemaVersion, len(sqDates))
		if err != nil {
			t.Fatalf("metadata: %v", err)
		}
		if err := store.WriteSQDates(sqDates, meta); err != nil {
			t.Fatalf("WriteSQDates: %v", err)
		}

		holidays := []domain.HolidayTradingRecord{
			{Date: domain.Date(2026, time.February, 11), HolidayName: "建国記念の日", IsTrading: false, IsConfirmed: true},
			{Date: domain.Date(2026, time.February, 23), HolidayName: "天皇誕生日", IsTrading: true, IsConfirmed: true},
		}
		meta, err = domain.NewCacheMetadata(domain.KindHolidayTrading, "https://example.test/holiday.xlsx",
			now, now.Add(time.Hour), cache.SchemaVersion, len(holidays))
		if err != nil {
			t.Fatalf("metadata: %v", err)
		}
		if err := store.WriteHolidayTrading(holidays, meta); err != nil {
			t.Fatalf("WriteHolidayTrading: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Cache.Dir = dir
	cfg.Cache.Backend = "parquet"

	svc, err := marketsched.New(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("marketsched.New: %v", err)
	}
	srv := httptest.NewServer(NewServer(svc, slog.New(slog.DiscardHandler)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
}

func TestMarketsEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	var resp MarketsResponse
	getJSON(t, srv.URL+"/api/markets", http.StatusOK, &resp)
	if len(resp.Markets) != 1 {
		t.Fatalf("got %d markets", len(resp.Markets))
	}
	m := resp.Markets[0]
	if m.ID != "jpx-index" || m.Timezone != "Asia/Tokyo" {
		t.Errorf("market = %+v", m)
	}
}

func TestBusinessDayEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	cases := []struct {
		date string
		want bool
	}{
		{"2026-02-06", true},
		{"2026-02-07", false},
		{"2026-02-11", false},
		{"2026-02-23", true},
	}
	for _, tc := range cases {
		var resp BusinessDayResponse
		getJSON(t, srv.URL+"/api/markets/jpx-index/business-days/"+tc.date, http.StatusOK, &resp)
		if resp.IsBusinessDay != tc.want {
			t.Errorf("%s: is_business_day = %v, want %v", tc.date, resp.IsBusinessDay, tc.want)
		}
	}

	getJSON(t, srv.URL+"/api/markets/jpx-index/business-days/not-a-date", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/markets/nope/business-days/2026-02-06", http.StatusNotFound, nil)
}

func TestBusinessDayRangeEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	var resp BusinessDayRangeResponse
	getJSON(t, srv.URL+"/api/markets/jpx-index/business-days?start=2026-02-02&end=2026-02-08", http.StatusOK, &resp)
	if resp.Count != 5 || len(resp.Days) != 5 {
		t.Errorf("count = %d, days = %v", resp.Count, resp.Days)
	}
	if resp.Days[0] != "2026-02-02" || resp.Days[4] != "2026-02-06" {
		t.Errorf("days = %v", resp.Days)
	}

	getJSON(t, srv.URL+"/api/markets/jpx-index/business-days?start=bad&end=2026-02-08", http.StatusBadRequest, nil)
}

func TestAdjacentBusinessDayEndpoints(t *testing.T) {
	srv := newTestServer(t, true)

	var resp AdjacentBusinessDayResponse
	getJSON(t, srv.URL+"/api/markets/jpx-index/next-business-day/2026-02-06", http.StatusOK, &resp)
	if resp.BusinessDay != "2026-02-09" {
		t.Errorf("next = %s", resp.BusinessDay)
	}

	getJSON(t, srv.URL+"/api/markets/jpx-index/previous-business-day/2026-02-09", http.StatusOK, &resp)
	if resp.BusinessDay != "2026-02-06" {
		t.Errorf("previous = %s", resp.BusinessDay)
	}
}

func TestSQDateEndpoints(t *testing.T) {
	srv := newTestServer(t, true)

	var resp SQDateResponse
	getJSON(t, srv.URL+"/api/markets/jpx-index/sq-dates/2026/3", http.StatusOK, &resp)
	if resp.SQDate != "2026-03-13" {
		t.Errorf("sq_date = %s", resp.SQDate)
	}

	// A period the cache has no record for is a 404, not an empty body.
	getJSON(t, srv.URL+"/api/markets/jpx-index/sq-dates/2026/4", http.StatusNotFound, nil)
	getJSON(t, srv.URL+"/api/markets/jpx-index/sq-dates/2026/13", http.StatusBadRequest, nil)

	var yearResp SQYearResponse
	getJSON(t, srv.URL+"/api/markets/jpx-index/sq-dates/2026", http.StatusOK, &yearResp)
	if len(yearResp.SQDates) != 2 || yearResp.SQDates[0] != "2026-03-13" {
		t.Errorf("sq_dates = %v", yearResp.SQDates)
	}
	getJSON(t, srv.URL+"/api/markets/jpx-index/sq-dates/2025", http.StatusNotFound, nil)
}

func TestSessionEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	var resp SessionResponse
	getJSON(t, srv.URL+"/api/markets/jpx-index/session?at=2026-02-06T10:00:00%2B09:00", http.StatusOK, &resp)
	if resp.Session != string(domain.SessionDay) || !resp.IsTrading {
		t.Errorf("session = %+v", resp)
	}

	getJSON(t, srv.URL+"/api/markets/jpx-index/session?at=2026-02-06T16:00:00%2B09:00", http.StatusOK, &resp)
	if resp.Session != string(domain.SessionClosed) || resp.IsTrading {
		t.Errorf("session = %+v", resp)
	}

	// A timestamp without an offset is rejected rather than guessed at.
	getJSON(t, srv.URL+"/api/markets/jpx-index/session?at=2026-02-06T10:00:00", http.StatusBadRequest, nil)

	// No "at" uses the current instant.
	getJSON(t, srv.URL+"/api/markets/jpx-index/session", http.StatusOK, &resp)
	if resp.Session == "" {
		t.Error("empty session for current instant")
	}
}

func TestCacheStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	var resp CacheStatusResponse
	getJSON(t, srv.URL+"/api/cache/status", http.StatusOK, &resp)
	if len(resp.Entries) != 2 {
		t.Fatalf("entries = %v", resp.Entries)
	}
	for kind, info := range resp.Entries {
		if !info.IsValid {
			t.Errorf("%s not valid", kind)
		}
	}
}

func TestEmptyCacheIsServiceUnavailable(t *testing.T) {
	srv := newTestServer(t, false)

	getJSON(t, srv.URL+"/api/markets/jpx-index/business-days/2026-02-06", http.StatusServiceUnavailable, nil)

	// Cache status still answers, just marked invalid.
	var resp CacheStatusResponse
	getJSON(t, srv.URL+"/api/cache/status", http.StatusOK, &resp)
	for kind, info := range resp.Entries {
		if info.IsValid {
			t.Errorf("%s valid on empty cache", kind)
		}
	}
}
