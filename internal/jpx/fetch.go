package jpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"marketsched/internal/domain"
	"marketsched/internal/util"
)

// Default download endpoints. JPX publishes one SQ-date spreadsheet per
// calendar year and a single rolling holiday-trading spreadsheet.
const (
	DefaultBaseURL           = "https://www.jpx.co.jp"
	DefaultSQDatesPath       = "/derivatives/rules/last-trading-day/tvdivq0000004gz8-att/%d_indexfutures_options_1_j.xlsx"
	DefaultHolidayTradingURL = "https://www.jpx.co.jp/derivatives/rules/holidaytrading/nlsgeu000006hweb-att/nlsgeu000006jgee.xlsx"
)

// Column headers the spreadsheets must carry. The header row is not at a
// fixed position, so it is discovered by scanning the first few rows for a
// row containing all required columns.
var (
	sqDatesRequiredColumns = []string{"商品", "限月取引", "取引最終日", "権利行使日"}
	holidayRequiredColumns = []string{"祝日取引の対象日", "名称", "実施有無"}
)

// Only the Nikkei 225 option rows carry an exercise (SQ) date; futures rows
// show "-" in that column.
const sqDateProduct = "日経225オプション"

// headerScanRows bounds the header discovery scan.
const headerScanRows = 10

// FetcherConfig carries the tunable parts of the fetcher. Zero values fall
// back to production defaults.
type FetcherConfig struct {
	BaseURL           string
	SQDatesPath       string
	HolidayTradingURL string
	Timeout           time.Duration
	MaxRetries        int
	RatePerMinute     int
}

func (c FetcherConfig) withDefaults() FetcherConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.SQDatesPath == "" {
		c.SQDatesPath = DefaultSQDatesPath
	}
	if c.HolidayTradingURL == "" {
		c.HolidayTradingURL = DefaultHolidayTradingURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = 30
	}
	return c
}

// Fetcher downloads and parses the JPX reference spreadsheets. Downloads are
// rate limited and retried with backoff; the JPX website is a shared public
// resource, not an API built for polling.
type Fetcher struct {
	cfg     FetcherConfig
	client  *http.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewFetcher creates a fetcher with the given configuration.
func NewFetcher(cfg FetcherConfig, log *slog.Logger) *Fetcher {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: util.NewRateLimiter(cfg.RatePerMinute),
		log:     log,
	}
}

// SQDatesURL returns the download URL for one year's SQ-date spreadsheet.
func (f *Fetcher) SQDatesURL(year int) string {
	return f.cfg.BaseURL + fmt.Sprintf(f.cfg.SQDatesPath, year)
}

// SQDatesURLs returns the download URLs for the given years, for provenance
// recording in cache metadata.
func (f *Fetcher) SQDatesURLs(years []int) []string {
	urls := make([]string, 0, len(years))
	for _, year := range years {
		urls = append(urls, f.SQDatesURL(year))
	}
	return urls
}

// HolidayTradingURL returns the holiday-trading spreadsheet URL.
func (f *Fetcher) HolidayTradingURL() string {
	return f.cfg.HolidayTradingURL
}

// FetchSQDates downloads the per-year SQ-date spreadsheets and returns the
// extracted records sorted by contract month. Zero records across all years
// is a FormatError: it means the spreadsheet layout changed, not that there
// is genuinely nothing scheduled.
func (f *Fetcher) FetchSQDates(ctx context.Context, years []int) ([]domain.SQDateRecord, error) {
	var all []domain.SQDateRecord
	for _, year := range years {
		url := f.SQDatesURL(year)
		data, err := f.download(ctx, url)
		if err != nil {
			return nil, err
		}
		records, err := parseSQDatesWorkbook(data)
		if err != nil {
			return nil, err
		}
		f.log.Info("fetched SQ dates", "year", year, "records", len(records))
		all = append(all, records...)
	}
	if len(all) == 0 {
		return nil, &domain.FormatError{Details: "no SQ date records found in the data"}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ContractMonth.Before(all[j].ContractMonth)
	})
	return all, nil
}

// FetchHolidayTrading downloads the holiday-trading spreadsheet and returns
// the extracted records sorted by date.
func (f *Fetcher) FetchHolidayTrading(ctx context.Context) ([]domain.HolidayTradingRecord, error) {
	data, err := f.download(ctx, f.cfg.HolidayTradingURL)
	if err != nil {
		return nil, err
	}
	records, err := parseHolidayTradingWorkbook(data)
	if err != nil {
		return nil, err
	}
	f.log.Info("fetched holiday trading data", "records", len(records))
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	err := util.Retry(ctx, f.cfg.MaxRetries, time.Second, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %s", resp.Status)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, &domain.FetchError{URL: url, Err: err}
	}
	f.log.Debug("downloaded spreadsheet", "url", url, "bytes", len(body))
	return body, nil
}

// ---------------------------------------------------------------------------
// Workbook parsing
// ---------------------------------------------------------------------------

func parseSQDatesWorkbook(data []byte) ([]domain.SQDateRecord, error) {
	rows, err := workbookRows(data)
	if err != nil {
		return nil, err
	}
	headerIdx, columns := findHeaderRow(rows, sqDatesRequiredColumns)
	if headerIdx < 0 {
		return nil, &domain.FormatError{
			Details: fmt.Sprintf("required columns not found: %s", strings.Join(sqDatesRequiredColumns, ", ")),
		}
	}

	var records []domain.SQDateRecord
	for _, row := range rows[headerIdx+1:] {
		product := cellAt(row, columns["商品"])
		exercise := cellAt(row, columns["権利行使日"])

		// Futures rows have no exercise date; only the option rows do.
		if product != sqDateProduct {
			continue
		}
		if exercise == "" || exercise == "-" {
			continue
		}

		cm, ok := parseCellContractMonth(cellAt(row, columns["限月取引"]))
		if !ok {
			continue
		}
		lastTradingDay, ok := parseCellDate(cellAt(row, columns["取引最終日"]))
		if !ok {
			continue
		}
		sqDate, ok := parseCellDate(exercise)
		if !ok {
			continue
		}

		records = append(records, domain.SQDateRecord{
			ContractMonth:   cm,
			LastTradingDay:  lastTradingDay,
			SQDate:          sqDate,
			ProductCategory: "index_futures_options",
		})
	}
	return records, nil
}

func parseHolidayTradingWorkbook(data []byte) ([]domain.HolidayTradingRecord, error) {
	rows, err := workbookRows(data)
	if err != nil {
		return nil, err
	}
	headerIdx, columns := findHeaderRow(rows, holidayRequiredColumns)
	if headerIdx < 0 {
		return nil, &domain.FormatError{
			Details: fmt.Sprintf("required columns not found: %s", strings.Join(holidayRequiredColumns, ", ")),
		}
	}

	var records []domain.HolidayTradingRecord
	for _, row := range rows[headerIdx+1:] {
		rawDate := cellAt(row, columns["祝日取引の対象日"])
		name := cellAt(row, columns["名称"])
		if rawDate == "" || name == "" {
			continue
		}
		date, ok := parseCellDate(rawDate)
		if !ok {
			continue
		}
		records = append(records, domain.HolidayTradingRecord{
			Date:        date,
			HolidayName: name,
			IsTrading:   cellAt(row, columns["実施有無"]) == "実施する",
			// The official spreadsheet only lists decided statuses.
			IsConfirmed: true,
		})
	}
	return records, nil
}

// workbookRows opens an xlsx blob and returns the first sheet's rows.
func workbookRows(data []byte) ([][]string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &domain.FormatError{Details: fmt.Sprintf("cannot open workbook: %v", err)}
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.FormatError{Details: "workbook has no worksheets"}
	}
	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, &domain.FormatError{Details: fmt.Sprintf("cannot read worksheet %q: %v", sheets[0], err)}
	}
	return rows, nil
}

// findHeaderRow scans the first headerScanRows rows for one containing every
// required column, returning its index and a column-name-to-index map. A
// negative index means no row qualified.
func findHeaderRow(rows [][]string, required []string) (int, map[string]int) {
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		columns := make(map[string]int)
		for col, value := range rows[i] {
			value = strings.TrimSpace(value)
			for _, name := range required {
				if value == name {
					columns[name] = col
				}
			}
		}
		if len(columns) == len(required) {
			return i, columns
		}
	}
	return -1, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// cellDateLayouts covers the formats a date cell renders to: ISO and slash
// forms for explicit text cells, m-d-yy for unformatted serial dates, and
// the Japanese long form some sheets use.
var cellDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"01-02-06",
	"1-2-06",
	"2006年1月2日",
}

func parseCellDate(s string) (time.Time, bool) {
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.DateOf(t), true
		}
	}
	return time.Time{}, false
}

// parseCellContractMonth accepts either a contract-month form ("2026年3月限",
// "202603") or a date cell pointing at any day in the contract month.
func parseCellContractMonth(s string) (domain.ContractMonth, bool) {
	if s == "" {
		return domain.ContractMonth{}, false
	}
	if cm, err := domain.ParseContractMonth(s); err == nil {
		return cm, true
	}
	if t, ok := parseCellDate(s); ok {
		cm, err := domain.NewContractMonth(t.Year(), int(t.Month()))
		if err != nil {
			return domain.ContractMonth{}, false
		}
		return cm, true
	}
	return domain.ContractMonth{}, false
}
