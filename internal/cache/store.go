// Package cache implements the time-boxed local store for JPX reference
// data. Two backends are provided: Parquet files (default) and SQLite.
// Each data kind is persisted together with its CacheMetadata so a reader
// can never observe records without metadata or vice versa.
package cache

import (
	"fmt"

	"marketsched/internal/domain"
)

// SchemaVersion is the current on-disk record schema version.
const SchemaVersion = 1

// Store is the durable reference-data store keyed by data kind.
//
// Read methods report absence (never written, or cleared) through the ok
// return instead of an error, and do not consult expiry: freshness is the
// caller's decision via IsValid/Info, evaluated per call.
type Store interface {
	// WriteSQDates atomically replaces the SQ date record set and its
	// metadata. Fails with domain.ErrSchemaMismatch when the metadata does
	// not describe this kind or this record set.
	WriteSQDates(records []domain.SQDateRecord, meta domain.CacheMetadata) error

	// WriteHolidayTrading atomically replaces the holiday-trading record
	// set and its metadata. Duplicate records for the same date are
	// rejected with a domain.FormatError.
	WriteHolidayTrading(records []domain.HolidayTradingRecord, meta domain.CacheMetadata) error

	// ReadSQDates returns the cached SQ date records, ok=false if absent.
	ReadSQDates() ([]domain.SQDateRecord, bool, error)

	// ReadHolidayTrading returns the cached holiday records, ok=false if
	// absent.
	ReadHolidayTrading() ([]domain.HolidayTradingRecord, bool, error)

	// IsValid reports whether metadata exists for the kind and the entry
	// has not expired (compared in UTC at call time).
	IsValid(kind domain.DataKind) bool

	// Info returns the snapshot for one kind. All optional fields are
	// absent together when no data exists.
	Info(kind domain.DataKind) domain.CacheInfo

	// Clear removes one kind. Clearing a kind with no data is a no-op.
	Clear(kind domain.DataKind) error

	// ClearAll removes every stored kind.
	ClearAll() error
}

// checkWrite validates the kind/metadata pairing and the record count
// before any backend touches durable storage.
func checkWrite(kind domain.DataKind, meta domain.CacheMetadata, recordCount int) error {
	if meta.DataKind != kind {
		return fmt.Errorf("%w: writing %s with metadata for %s", domain.ErrSchemaMismatch, kind, meta.DataKind)
	}
	if err := meta.Validate(); err != nil {
		return fmt.Errorf("invalid cache metadata for %s: %w", kind, err)
	}
	if meta.RecordCount != recordCount {
		return fmt.Errorf("%w: metadata record_count=%d but %d records given", domain.ErrSchemaMismatch, meta.RecordCount, recordCount)
	}
	return nil
}

// checkHolidayDuplicates rejects record sets that carry more than one entry
// for the same date. There is no documented tie-break upstream, so silent
// precedence would be a latent bug; ingestion fails fast instead.
func checkHolidayDuplicates(records []domain.HolidayTradingRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := domain.DateKey(r.Date)
		if _, dup := seen[key]; dup {
			return &domain.FormatError{Details: fmt.Sprintf("duplicate holiday trading record for %s", key)}
		}
		seen[key] = struct{}{}
	}
	return nil
}
