// Package marketsched is the public entry point: it wires configuration,
// the cache store, the JPX fetcher, and the market registry into a Service
// and exposes business-day, SQ-date, session, and cache operations.
package marketsched

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"marketsched/internal/cache"
	"marketsched/internal/config"
	"marketsched/internal/domain"
	"marketsched/internal/jpx"
	"marketsched/internal/market"
	"marketsched/internal/util"
)

// Service owns the wired components. All dependencies are passed in
// explicitly at construction; nothing is registered or initialized as an
// import side effect.
type Service struct {
	cfg      *config.Config
	log      *slog.Logger
	store    cache.Store
	fetcher  *jpx.Fetcher
	registry *market.Registry
	expiry   time.Duration
}

// New builds a Service from the given configuration. The cache backend is
// selected by cfg.Cache.Backend, and every known market is registered with
// the registry here.
func New(cfg *config.Config, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = util.NewLogger(cfg.Logging.Level)
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	fetcher := jpx.NewFetcher(jpx.FetcherConfig{
		BaseURL:           cfg.Fetch.BaseURL,
		SQDatesPath:       cfg.Fetch.SQDatesPath,
		HolidayTradingURL: cfg.Fetch.HolidayURL,
		Timeout:           time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		MaxRetries:        cfg.Fetch.MaxRetries,
		RatePerMinute:     cfg.Fetch.RateLimitPerMin,
	}, log)

	registry := market.NewRegistry()
	if err := registry.Register(jpx.MarketID, func() (market.Market, error) {
		return jpx.NewIndex(store)
	}); err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		log:      log,
		store:    store,
		fetcher:  fetcher,
		registry: registry,
		expiry:   time.Duration(cfg.Cache.ExpiryHours) * time.Hour,
	}, nil
}

func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "sqlite":
		return cache.NewSQLiteStore(cfg.Cache.SQLitePath)
	case "parquet", "":
		return cache.NewParquetStore(cfg.Cache.Dir), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Market resolves a registered market by ID.
func (s *Service) Market(id string) (market.Market, error) {
	return s.registry.Get(id)
}

// AvailableMarkets lists the registered market IDs in sorted order.
func (s *Service) AvailableMarkets() []string {
	return s.registry.Available()
}

// Config returns the effective configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// ---------------------------------------------------------------------------
// Cache lifecycle
// ---------------------------------------------------------------------------

// UpdateOptions controls a cache update run.
type UpdateOptions struct {
	// Force refetches even when the cached entry is still valid.
	Force bool
	// Years selects the SQ-date spreadsheets to download. Empty means the
	// current and the next calendar year (UTC).
	Years []int
}

// UpdateCache fetches and stores any data kind that is absent, expired, or
// forced, and returns the post-update snapshot per kind. Kinds that are
// still valid are skipped unless Force is set.
func (s *Service) UpdateCache(ctx context.Context, opts UpdateOptions) (map[domain.DataKind]domain.CacheInfo, error) {
	years := opts.Years
	if len(years) == 0 {
		year := time.Now().UTC().Year()
		years = []int{year, year + 1}
	}

	if opts.Force || !s.store.IsValid(domain.KindSQDates) {
		if err := s.updateSQDates(ctx, years); err != nil {
			return nil, err
		}
	} else {
		s.log.Debug("cache still valid, skipping", "kind", domain.KindSQDates)
	}

	if opts.Force || !s.store.IsValid(domain.KindHolidayTrading) {
		if err := s.updateHolidayTrading(ctx); err != nil {
			return nil, err
		}
	} else {
		s.log.Debug("cache still valid, skipping", "kind", domain.KindHolidayTrading)
	}

	return s.CacheStatus(), nil
}

func (s *Service) updateSQDates(ctx context.Context, years []int) error {
	records, err := s.fetcher.FetchSQDates(ctx, years)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	meta, err := domain.NewCacheMetadata(
		domain.KindSQDates,
		strings.Join(s.fetcher.SQDatesURLs(years), " "),
		now, now.Add(s.expiry),
		cache.SchemaVersion, len(records),
	)
	if err != nil {
		return err
	}
	if err := s.store.WriteSQDates(records, meta); err != nil {
		return err
	}
	s.log.Info("cache updated", "kind", domain.KindSQDates, "records", len(records), "expires_at", meta.ExpiresAt)
	return nil
}

func (s *Service) updateHolidayTrading(ctx context.Context) error {
	records, err := s.fetcher.FetchHolidayTrading(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	meta, err := domain.NewCacheMetadata(
		domain.KindHolidayTrading,
		s.fetcher.HolidayTradingURL(),
		now, now.Add(s.expiry),
		cache.SchemaVersion, len(records),
	)
	if err != nil {
		return err
	}
	if err := s.store.WriteHolidayTrading(records, meta); err != nil {
		return err
	}
	s.log.Info("cache updated", "kind", domain.KindHolidayTrading, "records", len(records), "expires_at", meta.ExpiresAt)
	return nil
}

// CacheStatus returns the current snapshot for every data kind.
func (s *Service) CacheStatus() map[domain.DataKind]domain.CacheInfo {
	status := make(map[domain.DataKind]domain.CacheInfo, len(domain.AllDataKinds()))
	for _, kind := range domain.AllDataKinds() {
		status[kind] = s.store.Info(kind)
	}
	return status
}

// ClearCache removes one data kind from the cache.
func (s *Service) ClearCache(kind domain.DataKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown data kind %q", kind)
	}
	if err := s.store.Clear(kind); err != nil {
		return err
	}
	s.log.Info("cache cleared", "kind", kind)
	return nil
}

// ClearAllCaches removes every data kind from the cache.
func (s *Service) ClearAllCaches() error {
	if err := s.store.ClearAll(); err != nil {
		return err
	}
	s.log.Info("cache cleared", "kind", "all")
	return nil
}
