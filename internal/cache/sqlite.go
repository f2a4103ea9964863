package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"marketsched/internal/domain"
)

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store backed by a single SQLite database. Each
// kind's records and metadata are replaced inside one transaction, which
// gives the same no-partial-write guarantee as the Parquet backend's
// rename.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_metadata (
	data_kind      TEXT PRIMARY KEY,
	source_url     TEXT NOT NULL,
	fetched_at     TEXT NOT NULL,
	expires_at     TEXT NOT NULL,
	schema_version INTEGER NOT NULL,
	record_count   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sq_dates (
	contract_month   TEXT PRIMARY KEY,
	last_trading_day TEXT NOT NULL,
	sq_date          TEXT NOT NULL,
	product_category TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS holiday_trading (
	date         TEXT PRIMARY KEY,
	holiday_name TEXT NOT NULL,
	is_trading   INTEGER NOT NULL,
	is_confirmed INTEGER NOT NULL
);`

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dbPath, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// WriteSQDates replaces the SQ date table and its metadata row in one
// transaction.
func (s *SQLiteStore) WriteSQDates(records []domain.SQDateRecord, meta domain.CacheMetadata) error {
	if err := checkWrite(domain.KindSQDates, meta, len(records)); err != nil {
		return err
	}

	return s.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM sq_dates`); err != nil {
			return err
		}
		for _, r := range records {
			_, err := tx.Exec(
				`INSERT INTO sq_dates (contract_month, last_trading_day, sq_date, product_category) VALUES (?, ?, ?, ?)`,
				r.ContractMonth.YYYYMM(), domain.DateKey(r.LastTradingDay), domain.DateKey(r.SQDate), r.ProductCategory,
			)
			if err != nil {
				return err
			}
		}
		return upsertMetadata(tx, meta)
	})
}

// WriteHolidayTrading replaces the holiday table and its metadata row in
// one transaction, rejecting duplicate dates.
func (s *SQLiteStore) WriteHolidayTrading(records []domain.HolidayTradingRecord, meta domain.CacheMetadata) error {
	if err := checkWrite(domain.KindHolidayTrading, meta, len(records)); err != nil {
		return err
	}
	if err := checkHolidayDuplicates(records); err != nil {
		return err
	}

	return s.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM holiday_trading`); err != nil {
			return err
		}
		for _, r := range records {
			_, err := tx.Exec(
				`INSERT INTO holiday_trading (date, holiday_name, is_trading, is_confirmed) VALUES (?, ?, ?, ?)`,
				domain.DateKey(r.Date), r.HolidayName, boolToInt(r.IsTrading), boolToInt(r.IsConfirmed),
			)
			if err != nil {
				return err
			}
		}
		return upsertMetadata(tx, meta)
	})
}

func (s *SQLiteStore) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting cache transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache write: %w", err)
	}
	return nil
}

func upsertMetadata(tx *sql.Tx, meta domain.CacheMetadata) error {
	_, err := tx.Exec(
		`INSERT OR REPLACE INTO cache_metadata (data_kind, source_url, fetched_at, expires_at, schema_version, record_count)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(meta.DataKind), meta.SourceURL,
		meta.FetchedAt.UTC().Format(time.RFC3339Nano), meta.ExpiresAt.UTC().Format(time.RFC3339Nano),
		meta.SchemaVersion, meta.RecordCount,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

// ReadSQDates returns the cached SQ records; absent when no metadata row
// exists for the kind.
func (s *SQLiteStore) ReadSQDates() ([]domain.SQDateRecord, bool, error) {
	meta, err := s.readMetadata(domain.KindSQDates)
	if err != nil {
		return nil, false, err
	}
	if meta == nil {
		return nil, false, nil
	}

	rows, err := s.db.Query(`SELECT contract_month, last_trading_day, sq_date, product_category FROM sq_dates ORDER BY contract_month`)
	if err != nil {
		return nil, true, fmt.Errorf("reading sq_dates: %w", err)
	}
	defer rows.Close()

	var records []domain.SQDateRecord
	for rows.Next() {
		var cmStr, ltdStr, sqStr, category string
		if err := rows.Scan(&cmStr, &ltdStr, &sqStr, &category); err != nil {
			return nil, true, err
		}
		cm, err := domain.ParseContractMonth(cmStr)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt sq_dates cache: %w", err)
		}
		ltd, err := domain.ParseDate(ltdStr)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt sq_dates cache: %w", err)
		}
		sq, err := domain.ParseDate(sqStr)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt sq_dates cache: %w", err)
		}
		records = append(records, domain.SQDateRecord{
			ContractMonth:   cm,
			LastTradingDay:  ltd,
			SQDate:          sq,
			ProductCategory: category,
		})
	}
	return records, true, rows.Err()
}

// ReadHolidayTrading returns the cached holiday records; absent when no
// metadata row exists for the kind.
func (s *SQLiteStore) ReadHolidayTrading() ([]domain.HolidayTradingRecord, bool, error) {
	meta, err := s.readMetadata(domain.KindHolidayTrading)
	if err != nil {
		return nil, false, err
	}
	if meta == nil {
		return nil, false, nil
	}

	rows, err := s.db.Query(`SELECT date, holiday_name, is_trading, is_confirmed FROM holiday_trading ORDER BY date`)
	if err != nil {
		return nil, true, fmt.Errorf("reading holiday_trading: %w", err)
	}
	defer rows.Close()

	var records []domain.HolidayTradingRecord
	for rows.Next() {
		var dateStr, name string
		var trading, confirmed int
		if err := rows.Scan(&dateStr, &name, &trading, &confirmed); err != nil {
			return nil, true, err
		}
		d, err := domain.ParseDate(dateStr)
		if err != nil {
			return nil, true, fmt.Errorf("corrupt holiday_trading cache: %w", err)
		}
		records = append(records, domain.HolidayTradingRecord{
			Date:        d,
			HolidayName: name,
			IsTrading:   trading != 0,
			IsConfirmed: confirmed != 0,
		})
	}
	return records, true, rows.Err()
}

func (s *SQLiteStore) readMetadata(kind domain.DataKind) (*domain.CacheMetadata, error) {
	row := s.db.QueryRow(
		`SELECT source_url, fetched_at, expires_at, schema_version, record_count FROM cache_metadata WHERE data_kind = ?`,
		string(kind),
	)

	var sourceURL, fetchedStr, expiresStr string
	var version, count int
	if err := row.Scan(&sourceURL, &fetchedStr, &expiresStr, &version, &count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache metadata for %s: %w", kind, err)
	}

	fetchedAt, err := time.Parse(time.RFC3339Nano, fetchedStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache metadata for %s: %w", kind, err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, expiresStr)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache metadata for %s: %w", kind, err)
	}

	return &domain.CacheMetadata{
		DataKind:      kind,
		SourceURL:     sourceURL,
		FetchedAt:     fetchedAt,
		ExpiresAt:     expiresAt,
		SchemaVersion: version,
		RecordCount:   count,
	}, nil
}

// ---------------------------------------------------------------------------
// Validity, info, clearing
// ---------------------------------------------------------------------------

// IsValid reports whether metadata exists and now (UTC) is before expiry.
func (s *SQLiteStore) IsValid(kind domain.DataKind) bool {
	meta, err := s.readMetadata(kind)
	if err != nil || meta == nil {
		return false
	}
	return !meta.Expired(time.Now())
}

// Info returns the cache snapshot for one kind.
func (s *SQLiteStore) Info(kind domain.DataKind) domain.CacheInfo {
	meta, err := s.readMetadata(kind)
	if err != nil || meta == nil {
		return domain.AbsentCacheInfo(kind, s.path)
	}
	return domain.NewCacheInfo(kind, s.path, !meta.Expired(time.Now()), meta.FetchedAt, meta.ExpiresAt, meta.RecordCount)
}

// Clear removes one kind's records and metadata; a kind with no data is a
// no-op.
func (s *SQLiteStore) Clear(kind domain.DataKind) error {
	table := tableFor(kind)
	if table == "" {
		return fmt.Errorf("unknown data kind %q", kind)
	}
	return s.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM cache_metadata WHERE data_kind = ?`, string(kind))
		return err
	})
}

// ClearAll removes every stored kind.
func (s *SQLiteStore) ClearAll() error {
	for _, kind := range domain.AllDataKinds() {
		if err := s.Clear(kind); err != nil {
			return err
		}
	}
	return nil
}

func tableFor(kind domain.DataKind) string {
	switch kind {
	case domain.KindSQDates:
		return "sq_dates"
	case domain.KindHolidayTrading:
		return "holiday_trading"
	default:
		return ""
	}
}
