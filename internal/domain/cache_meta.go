package domain

import (
	"fmt"
	"time"
)

// CacheMetadata describes one cached record set: when it was fetched, when
// it expires, and what it contains. It is persisted alongside the records
// and read back without scanning them.
type CacheMetadata struct {
	DataKind      DataKind  `json:"data_kind"`
	SourceURL     string    `json:"source_url"`
	FetchedAt     time.Time `json:"fetched_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	SchemaVersion int       `json:"schema_version"`
	RecordCount   int       `json:"record_count"`
}

// NewCacheMetadata builds and validates metadata in one step.
func NewCacheMetadata(kind DataKind, sourceURL string, fetchedAt, expiresAt time.Time, schemaVersion, recordCount int) (CacheMetadata, error) {
	m := CacheMetadata{
		DataKind:      kind,
		SourceURL:     sourceURL,
		FetchedAt:     fetchedAt,
		ExpiresAt:     expiresAt,
		SchemaVersion: schemaVersion,
		RecordCount:   recordCount,
	}
	if err := m.Validate(); err != nil {
		return CacheMetadata{}, err
	}
	return m, nil
}

// Validate enforces the metadata invariants: a known data kind, expiry
// strictly after fetch, schema version >= 1, record count >= 0.
func (m CacheMetadata) Validate() error {
	if !m.DataKind.Valid() {
		return fmt.Errorf("unknown data kind %q", m.DataKind)
	}
	if m.FetchedAt.IsZero() || m.ExpiresAt.IsZero() {
		return fmt.Errorf("fetched_at and expires_at must be set")
	}
	if !m.ExpiresAt.After(m.FetchedAt) {
		return fmt.Errorf("expires_at must be after fetched_at (fetched %s, expires %s)",
			m.FetchedAt.Format(time.RFC3339), m.ExpiresAt.Format(time.RFC3339))
	}
	if m.SchemaVersion < 1 {
		return fmt.Errorf("schema_version must be >= 1, got %d", m.SchemaVersion)
	}
	if m.RecordCount < 0 {
		return fmt.Errorf("record_count must be non-negative, got %d", m.RecordCount)
	}
	return nil
}

// Expired reports whether the metadata is past its expiry at the given
// instant. The comparison happens in UTC.
func (m CacheMetadata) Expired(now time.Time) bool {
	return !now.UTC().Before(m.ExpiresAt.UTC())
}

// CacheInfo is the user-facing snapshot of one cache entry's state. The
// optional fields are either all set or all nil; the constructors below are
// the only way to build one, so a partially populated snapshot cannot
// exist.
type CacheInfo struct {
	DataKind    DataKind   `json:"data_kind"`
	Path        string     `json:"path"`
	IsValid     bool       `json:"is_valid"`
	FetchedAt   *time.Time `json:"fetched_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	RecordCount *int       `json:"record_count"`
}

// NewCacheInfo builds a snapshot for an entry that has metadata.
func NewCacheInfo(kind DataKind, path string, isValid bool, fetchedAt, expiresAt time.Time, recordCount int) CacheInfo {
	return CacheInfo{
		DataKind:    kind,
		Path:        path,
		IsValid:     isValid,
		FetchedAt:   &fetchedAt,
		ExpiresAt:   &expiresAt,
		RecordCount: &recordCount,
	}
}

// AbsentCacheInfo builds the snapshot for a kind with no cached data.
func AbsentCacheInfo(kind DataKind, path string) CacheInfo {
	return CacheInfo{DataKind: kind, Path: path, IsValid: false}
}
