package jpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"marketsched/internal/domain"
)

// buildWorkbook renders rows into an xlsx blob, starting at row startRow so
// tests can exercise header discovery below the first row.
func buildWorkbook(t *testing.T, startRow int, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		row := row
		cell := fmt.Sprintf("A%d", startRow+i)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow(%s): %v", cell, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func testFetcher(t *testing.T, handler http.Handler) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewFetcher(FetcherConfig{
		BaseURL:           srv.URL,
		SQDatesPath:       "/sq/%d.xlsx",
		HolidayTradingURL: srv.URL + "/holiday.xlsx",
		MaxRetries:        1,
		RatePerMinute:     6000,
	}, slog.New(slog.DiscardHandler))
}

func TestFetchSQDates(t *testing.T) {
	// Header sits on the third row, below a title row, as in the real
	// spreadsheet. Futures rows carry "-" in the exercise column and must
	// be skipped; only the Nikkei 225 option rows count.
	workbook := buildWorkbook(t, 2, [][]any{
		{"指数先物・オプション取引 取引最終日一覧"},
		{"商品", "限月取引", "取引最終日", "権利行使日"},
		{"日経225先物", "2026年3月限", "2026-03-12", "-"},
		{"日経225オプション", "2026年6月限", "2026-06-11", "2026-06-12"},
		{"日経225オプション", "2026年3月限", "2026-03-12", "2026-03-13"},
		{"日経225オプション", "2026年4月限", "", ""},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/sq/2026.xlsx", func(w http.ResponseWriter, r *http.Request) {
		w.Write(workbook)
	})
	fetcher := testFetcher(t, mux)

	records, err := fetcher.FetchSQDates(context.Background(), []int{2026})
	if err != nil {
		t.Fatalf("FetchSQDates: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Sorted by contract month, so March precedes June.
	first := records[0]
	if first.ContractMonth.YYYYMM() != "202603" {
		t.Errorf("first contract month = %s", first.ContractMonth.YYYYMM())
	}
	if !domain.SameDate(first.SQDate, domain.Date(2026, time.March, 13)) {
		t.Errorf("first SQ date = %s", domain.DateKey(first.SQDate))
	}
	if !domain.SameDate(first.LastTradingDay, domain.Date(2026, time.March, 12)) {
		t.Errorf("first last trading day = %s", domain.DateKey(first.LastTradingDay))
	}
	if records[1].ContractMonth.YYYYMM() != "202606" {
		t.Errorf("second contract month = %s", records[1].ContractMonth.YYYYMM())
	}
}

func TestFetchSQDatesNoRecords(t *testing.T) {
	// Header present but every row filtered out: the layout is intact yet
	// yields nothing, which is reported as a format problem.
	workbook := buildWorkbook(t, 1, [][]any{
		{"商品", "限月取引", "取引最終日", "権利行使日"},
		{"日経225先物", "2026年3月限", "2026-03-12", "-"},
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/sq/2026.xlsx", func(w http.ResponseWriter, r *http.Request) {
		w.Write(workbook)
	})
	fetcher := testFetcher(t, mux)

	_, err := fetcher.FetchSQDates(context.Background(), []int{2026})
	var formatErr *domain.FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("err = %v, want FormatError", err)
	}
}

func TestFetchSQDatesMissingColumns(t *testing.T) {
	workbook := buildWorkbook(t, 1, [][]any{
		{"商品", "限月取引"},
		{"日経225オプション", "2026年3月限"},
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/sq/2026.xlsx", func(w http.ResponseWriter, r *http.Request) {
		w.Write(workbook)
	})
	fetcher := testFetcher(t, mux)

	_, err := fetcher.FetchSQDates(context.Background(), []int{2026})
	var formatErr *domain.FormatError
	if !errors.As(err, &formatErr) {
		t.Errorf("err = %v, want FormatError", err)
	}
}

func TestFetchHolidayTrading(t *testing.T) {
	workbook := buildWorkbook(t, 1, [][]any{
		{"祝日取引の対象日", "名称", "実施有無"},
		{"2026-02-23", "天皇誕生日", "実施する"},
		{"2026-02-11", "建国記念の日", "実施しない"},
		{"", "", ""},
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/holiday.xlsx", func(w http.ResponseWriter, r *http.Request) {
		w.Write(workbook)
	})
	fetcher := testFetcher(t, mux)

	records, err := fetcher.FetchHolidayTrading(context.Background())
	if err != nil {
		t.Fatalf("FetchHolidayTrading: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Sorted by date: the 11th before the 23rd.
	if !domain.SameDate(records[0].Date, domain.Date(2026, time.February, 11)) {
		t.Errorf("first date = %s", domain.DateKey(records[0].Date))
	}
	if records[0].IsTrading {
		t.Error("実施しない parsed as trading")
	}
	if !records[1].IsTrading {
		t.Error("実施する parsed as non-trading")
	}
	for _, r := range records {
		if !r.IsConfirmed {
			t.Errorf("record %s not confirmed", domain.DateKey(r.Date))
		}
	}
}

func TestFetchErrorOnHTTPFailure(t *testing.T) {
	fetcher := testFetcher(t, http.NotFoundHandler())

	_, err := fetcher.FetchSQDates(context.Background(), []int{2026})
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("err = %v, want FetchError", err)
	}
	if fetchErr.URL == "" {
		t.Error("FetchError carries no URL")
	}

	_, err = fetcher.FetchHolidayTrading(context.Background())
	if !errors.As(err, &fetchErr) {
		t.Errorf("holiday err = %v, want FetchError", err)
	}
}

func TestSQDatesURLs(t *testing.T) {
	fetcher := NewFetcher(FetcherConfig{}, slog.New(slog.DiscardHandler))

	urls := fetcher.SQDatesURLs([]int{2026, 2027})
	if len(urls) != 2 {
		t.Fatalf("got %d urls", len(urls))
	}
	want := DefaultBaseURL + "/derivatives/rules/last-trading-day/tvdivq0000004gz8-att/2026_indexfutures_options_1_j.xlsx"
	if urls[0] != want {
		t.Errorf("urls[0] = %q, want %q", urls[0], want)
	}
	if fetcher.HolidayTradingURL() != DefaultHolidayTradingURL {
		t.Errorf("HolidayTradingURL = %q", fetcher.HolidayTradingURL())
	}
}
