package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"marketsched/internal/domain"
)

// Compile-time interface check.
var _ Store = (*ParquetStore)(nil)

// metadataKey is the key under which CacheMetadata is stored in the Parquet
// file's key-value footer metadata. Reading it only touches the footer, so
// validity checks never scan the row data.
const metadataKey = "marketsched_metadata"

// ParquetStore implements Store with one Parquet file per data kind under
// CacheDir. Writes go to a temp file and are renamed into place, so a
// reader never observes a partial write.
type ParquetStore struct {
	CacheDir string
}

// NewParquetStore creates a ParquetStore rooted at the given directory.
// The directory is created on first write.
func NewParquetStore(cacheDir string) *ParquetStore {
	return &ParquetStore{CacheDir: cacheDir}
}

// ---------------------------------------------------------------------------
// Parquet row types (on-disk schema)
// ---------------------------------------------------------------------------

// sqDateRow is the Parquet schema for SQ date records. Dates are stored as
// "YYYY-MM-DD" strings and contract months as "YYYYMM" keys, matching the
// source data's canonical forms so round-trips are exact.
type sqDateRow struct {
	ContractMonth   string `parquet:"contract_month"`
	LastTradingDay  string `parquet:"last_trading_day"`
	SQDate          string `parquet:"sq_date"`
	ProductCategory string `parquet:"product_category"`
}

// holidayRow is the Parquet schema for holiday trading records.
type holidayRow struct {
	Date        string `parquet:"date"`
	HolidayName string `parquet:"holiday_name"`
	IsTrading   bool   `parquet:"is_trading"`
	IsConfirmed bool   `parquet:"is_confirmed"`
}

func (s *ParquetStore) path(kind domain.DataKind) string {
	return filepath.Join(s.CacheDir, string(kind)+".parquet")
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// WriteSQDates persists the SQ date record set with its metadata.
func (s *ParquetStore) WriteSQDates(records []domain.SQDateRecord, meta domain.CacheMetadata) error {
	if err := checkWrite(domain.KindSQDates, meta, len(records)); err != nil {
		return err
	}

	rows := make([]sqDateRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, sqDateRow{
			ContractMonth:   r.ContractMonth.YYYYMM(),
			LastTradingDay:  domain.DateKey(r.LastTradingDay),
			SQDate:          domain.DateKey(r.SQDate),
			ProductCategory: r.ProductCategory,
		})
	}
	return writeParquetFile(s.path(domain.KindSQDates), rows, meta)
}

// WriteHolidayTrading persists the holiday trading record set with its
// metadata, rejecting duplicate dates.
func (s *ParquetStore) WriteHolidayTrading(records []domain.HolidayTradingRecord, meta domain.CacheMetadata) error {
	if err := checkWrite(domain.KindHolidayTrading, meta, len(records)); err != nil {
		return err
	}
	if err := checkHolidayDuplicates(records); err != nil {
		return err
	}

	rows := make([]holidayRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, holidayRow{
			Date:        domain.DateKey(r.Date),
			HolidayName: r.HolidayName,
			IsTrading:   r.IsTrading,
			IsConfirmed: r.IsConfirmed,
		})
	}
	return writeParquetFile(s.path(domain.KindHolidayTrading), rows, meta)
}

// writeParquetFile writes rows plus footer metadata to a temp file and
// renames it over the target, keeping the records/metadata pair atomic.
func writeParquetFile[T any](path string, rows []T, meta domain.CacheMetadata) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding cache metadata: %w", err)
	}

	tmp := path + ".tmp"
	if err := parquet.WriteFile(tmp, rows, parquet.KeyValueMetadata(metadataKey, string(metaJSON))); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// ReadSQDates returns the cached SQ date records, ok=false when the kind
// has never been written or was cleared. Expiry is not consulted.
func (s *ParquetStore) ReadSQDates() ([]domain.SQDateRecord, bool, error) {
	rows, ok, err := readParquetFile[sqDateRow](s.path(domain.KindSQDates))
	if err != nil || !ok {
		return nil, ok, err
	}

	records := make([]domain.SQDateRecord, 0, len(rows))
	for _, row := range rows {
		cm, err := domain.ParseContractMonth(row.ContractMonth)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt sq_dates cache: %w", err)
		}
		ltd, err := domain.ParseDate(row.LastTradingDay)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt sq_dates cache: %w", err)
		}
		sq, err := domain.ParseDate(row.SQDate)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt sq_dates cache: %w", err)
		}
		records = append(records, domain.SQDateRecord{
			ContractMonth:   cm,
			LastTradingDay:  ltd,
			SQDate:          sq,
			ProductCategory: row.ProductCategory,
		})
	}
	return records, true, nil
}

// ReadHolidayTrading returns the cached holiday records, ok=false when
// absent.
func (s *ParquetStore) ReadHolidayTrading() ([]domain.HolidayTradingRecord, bool, error) {
	rows, ok, err := readParquetFile[holidayRow](s.path(domain.KindHolidayTrading))
	if err != nil || !ok {
		return nil, ok, err
	}

	records := make([]domain.HolidayTradingRecord, 0, len(rows))
	for _, row := range rows {
		d, err := domain.ParseDate(row.Date)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt holiday_trading cache: %w", err)
		}
		records = append(records, domain.HolidayTradingRecord{
			Date:        d,
			HolidayName: row.HolidayName,
			IsTrading:   row.IsTrading,
			IsConfirmed: row.IsConfirmed,
		})
	}
	return records, true, nil
}

func readParquetFile[T any](path string) ([]T, bool, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, true, nil
}

// readMetadata reads only the file footer; nil means the entry is absent.
func (s *ParquetStore) readMetadata(kind domain.DataKind) (*domain.CacheMetadata, error) {
	path := s.path(kind)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("reading parquet footer of %s: %w", path, err)
	}

	raw, ok := pf.Lookup(metadataKey)
	if !ok {
		return nil, nil
	}
	var meta domain.CacheMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decoding cache metadata of %s: %w", path, err)
	}
	return &meta, nil
}

// ---------------------------------------------------------------------------
// Validity, info, clearing
// ---------------------------------------------------------------------------

// IsValid reports whether metadata exists and now (UTC) is before the
// expiry. Read errors count as invalid.
func (s *ParquetStore) IsValid(kind domain.DataKind) bool {
	meta, err := s.readMetadata(kind)
	if err != nil || meta == nil {
		return false
	}
	return !meta.Expired(time.Now())
}

// Info returns the cache snapshot for one kind.
func (s *ParquetStore) Info(kind domain.DataKind) domain.CacheInfo {
	path := s.path(kind)
	meta, err := s.readMetadata(kind)
	if err != nil || meta == nil {
		return domain.AbsentCacheInfo(kind, path)
	}
	return domain.NewCacheInfo(kind, path, !meta.Expired(time.Now()), meta.FetchedAt, meta.ExpiresAt, meta.RecordCount)
}

// Clear removes the file for one kind; missing files are a no-op.
func (s *ParquetStore) Clear(kind domain.DataKind) error {
	if err := os.Remove(s.path(kind)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing %s cache: %w", kind, err)
	}
	return nil
}

// ClearAll removes every stored kind.
func (s *ParquetStore) ClearAll() error {
	for _, kind := range domain.AllDataKinds() {
		if err := s.Clear(kind); err != nil {
			return err
		}
	}
	return nil
}
