package cmd

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"marketsched/internal/cache"
	"marketsched/internal/domain"
	"marketsched/internal/jpx"
)

// seedCacheDir writes a valid parquet cache and points the CLI at it via
// the environment override, so commands run without a config file.
func seedCacheDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	store := cache.NewParquetStore(dir)
	now := time.Now().UTC()

	sqDates := []domain.SQDateRecord{
		{
			ContractMonth:   domain.ContractMonth{Year: 2026, Month: 3},
			LastTradingDay:  domain.Date(2026, time.March, 12),
			SQDate:          domain.Date(2026, time.March, 13),
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
	}
	meta, err = domain.NewCacheMetadata(domain.KindHolidayTrading, "https://example.test/holiday.xlsx",
		now, now.Add(time.Hour), cache.SchemaVersion, len(holidays))
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if err := store.WriteHolidayTrading(holidays, meta); err != nil {
		t.Fatalf("WriteHolidayTrading: %v", err)
	}

	t.Setenv("MKS_CACHE_DIR", dir)
	t.Setenv("MKS_CACHE_BACKEND", "parquet")

	flagConfig = ""
	flagMarket = jpx.MarketID
	flagFormat = "json"
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	runErr := fn()
	os.Stdout = orig
	w.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	if runErr != nil {
		t.Fatalf("command failed: %v\noutput: %s", runErr, out)
	}
	return string(out)
}

func TestBDIsCommand(t *testing.T) {
	seedCacheDir(t)

	out := captureStdout(t, func() error {
		return runBDIs(nil, []string{"2026-02-06"})
	})
	var result struct {
		Market        string `json:"market"`
		Date          string `json:"date"`
		IsBusinessDay bool   `json:"is_business_day"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out)
	}
	if !result.IsBusinessDay || result.Date != "2026-02-06" || result.Market != jpx.MarketID {
		t.Errorf("result = %+v", result)
	}

	out = captureStdout(t, func() error {
		return runBDIs(nil, []string{"2026-02-11"})
	})
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if result.IsBusinessDay {
		t.Error("holiday reported as business day")
	}
}

func TestBDIsCommandRejectsBadDate(t *testing.T) {
	seedCacheDir(t)
	if err := runBDIs(nil, []string{"02/06/2026"}); err == nil {
		t.Error("bad date accepted")
	}
}

func TestBDListCommand(t *testing.T) {
	seedCacheDir(t)
	bdStart, bdEnd = "2026-02-09", "2026-02-13"

	out := captureStdout(t, func() error {
		return runBDList(nil, nil)
	})
	var result struct {
		Days  []string `json:"days"`
		Count int      `json:"count"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out)
	}
	// The 11th is a non-trading holiday.
	if result.Count != 4 || len(result.Days) != 4 {
		t.Errorf("result = %+v", result)
	}
}

func TestBDListCommandTableFormat(t *testing.T) {
	seedCacheDir(t)
	flagFormat = "table"
	bdStart, bdEnd = "2026-02-02", "2026-02-03"

	out := captureStdout(t, func() error {
		return runBDList(nil, nil)
	})
	if !strings.Contains(out, "DATE") || !strings.Contains(out, "2026-02-02") {
		t.Errorf("table output = %q", out)
	}
}

func TestSQGetCommand(t *testing.T) {
	seedCacheDir(t)

	out := captureStdout(t, func() error {
		return runSQGet(nil, []string{"2026", "3"})
	})
	var result struct {
		ContractMonth string `json:"contract_month"`
		SQDate        string `json:"sq_date"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out)
	}
	if result.ContractMonth != "202603" || result.SQDate != "2026-03-13" {
		t.Errorf("result = %+v", result)
	}

	if err := runSQGet(nil, []string{"2026", "4"}); err == nil {
		t.Error("missing period did not error")
	}
}

func TestSQIsCommand(t *testing.T) {
	seedCacheDir(t)

	out := captureStdout(t, func() error {
		return runSQIs(nil, []string{"2026-03-13"})
	})
	var result struct {
		IsSQDate bool `json:"is_sq_date"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if !result.IsSQDate {
		t.Error("SQ date not recognized")
	}
}

func TestSessionAtCommand(t *testing.T) {
	seedCacheDir(t)

	out := captureStdout(t, func() error {
		return runSessionAt(nil, []string{"2026-02-06T10:00:00+09:00"})
	})
	var result struct {
		Session   string `json:"session"`
		IsTrading bool   `json:"is_trading"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if result.Session != string(domain.SessionDay) || !result.IsTrading {
		t.Errorf("result = %+v", result)
	}

	// Offset-less datetimes are rejected.
	if err := runSessionAt(nil, []string{"2026-02-06T10:00:00"}); err == nil {
		t.Error("naive datetime accepted")
	}
}

func TestCacheStatusCommand(t *testing.T) {
	seedCacheDir(t)

	out := captureStdout(t, func() error {
		return runCacheStatus(nil, nil)
	})
	var result map[string]domain.CacheInfo
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, out)
	}
	for _, kind := range domain.AllDataKinds() {
		info, ok := result[string(kind)]
		if !ok || !info.IsValid {
			t.Errorf("%s missing or invalid: %+v", kind, info)
		}
	}
}

func TestCacheClearCommand(t *testing.T) {
	seedCacheDir(t)

	captureStdout(t, func() error {
		return runCacheClear(nil, []string{string(domain.KindSQDates)})
	})
	out := captureStdout(t, func() error {
		return runCacheStatus(nil, nil)
	})
	var result map[string]domain.CacheInfo
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	if result[string(domain.KindSQDates)].IsValid {
		t.Error("sq_dates still valid after clear")
	}
	if !result[string(domain.KindHolidayTrading)].IsValid {
		t.Error("holiday_trading cleared by mistake")
	}

	if err := runCacheClear(nil, []string{"bogus"}); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := NewRootCommand("test")
	for _, name := range []string{"bd", "sq", "session", "cache", "serve"} {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
