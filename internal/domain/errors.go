package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the module. Callers match them with
// errors.Is after any amount of fmt.Errorf("%w") wrapping.
var (
	// ErrCacheNotAvailable means a data kind has never been cached (or was
	// cleared). It is recoverable by running a cache update.
	ErrCacheNotAvailable = errors.New("cache data is not available; run `mks cache update`")

	// ErrSearchExhausted means a bounded business-day search hit its step
	// limit, which indicates corrupted or pathologically sparse cache data.
	ErrSearchExhausted = errors.New("business day search exhausted")

	// ErrTimezoneRequired means a datetime was supplied without an explicit
	// UTC offset. No local-timezone fallback is attempted.
	ErrTimezoneRequired = errors.New("timezone offset is required")

	// ErrSchemaMismatch means a cache write was attempted with metadata that
	// does not describe the record set being written. It indicates a caller
	// bug, not bad external data.
	ErrSchemaMismatch = errors.New("cache metadata does not match record set")
)

// MarketNotFoundError reports a lookup for an unregistered market ID.
type MarketNotFoundError struct {
	ID string
}

func (e *MarketNotFoundError) Error() string {
	return fmt.Sprintf("market %q not found", e.ID)
}

// MarketAlreadyRegisteredError reports a duplicate market registration.
type MarketAlreadyRegisteredError struct {
	ID string
}

func (e *MarketAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("market %q is already registered", e.ID)
}

// ContractMonthParseError reports text that could not be parsed as a
// contract month.
type ContractMonthParseError struct {
	Input string
}

func (e *ContractMonthParseError) Error() string {
	return fmt.Sprintf("cannot parse contract month from %q (supported: 26年3月限, 2026年3月限, 202603, 2026-03)", e.Input)
}

// SQDataNotFoundError means cached SQ data exists but has no record for the
// requested period. Distinct from ErrCacheNotAvailable.
type SQDataNotFoundError struct {
	Year  int
	Month int
}

func (e *SQDataNotFoundError) Error() string {
	return fmt.Sprintf("SQ date data not found for %d/%02d; run `mks cache update`", e.Year, e.Month)
}

// FetchError reports a network failure while downloading reference data.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FormatError reports fetched or ingested data with an unexpected shape,
// including duplicate records that the store refuses to accept.
type FormatError struct {
	Details string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid data format: %s", e.Details)
}
