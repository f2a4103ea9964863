package domain

import (
	"testing"
	"time"
)

func TestNewCacheMetadata(t *testing.T) {
	now := time.Now().UTC()

	m, err := NewCacheMetadata(KindSQDates, "https://example.com/a.xlsx", now, now.Add(24*time.Hour), 1, 12)
	if err != nil {
		t.Fatalf("valid metadata rejected: %v", err)
	}
	if m.Expired(now) {
		t.Error("fresh metadata should not be expired")
	}
	if !m.Expired(now.Add(25 * time.Hour)) {
		t.Error("metadata past expires_at should be expired")
	}
	// Boundary: expiry is exclusive, now == expires_at counts as expired.
	if !m.Expired(now.Add(24 * time.Hour)) {
		t.Error("metadata at exactly expires_at should be expired")
	}
}

func TestCacheMetadataValidation(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name      string
		kind      DataKind
		fetched   time.Time
		expires   time.Time
		version   int
		count     int
	}{
		{"expires equal to fetched", KindSQDates, now, now, 1, 0},
		{"expires before fetched", KindSQDates, now, now.Add(-time.Hour), 1, 0},
		{"schema version zero", KindSQDates, now, now.Add(time.Hour), 0, 0},
		{"negative record count", KindSQDates, now, now.Add(time.Hour), 1, -1},
		{"unknown kind", DataKind("bogus"), now, now.Add(time.Hour), 1, 0},
	}
	for _, c := range cases {
		if _, err := NewCacheMetadata(c.kind, "u", c.fetched, c.expires, c.version, c.count); err == nil {
			t.Errorf("%s: should be rejected", c.name)
		}
	}
}

func TestCacheInfoConsistency(t *testing.T) {
	now := time.Now().UTC()

	info := NewCacheInfo(KindSQDates, "/tmp/sq_dates.parquet", true, now, now.Add(time.Hour), 10)
	if info.FetchedAt == nil || info.ExpiresAt == nil || info.RecordCount == nil {
		t.Error("populated CacheInfo must carry all optional fields")
	}

	absent := AbsentCacheInfo(KindHolidayTrading, "/tmp/holiday_trading.parquet")
	if absent.IsValid {
		t.Error("absent entry must not be valid")
	}
	if absent.FetchedAt != nil || absent.ExpiresAt != nil || absent.RecordCount != nil {
		t.Error("absent CacheInfo must have all optional fields nil")
	}
}
