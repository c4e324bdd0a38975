package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/omerorhan/stay-pricing/internal/engine"
	"github.com/omerorhan/stay-pricing/internal/storage"
)

var (
	ErrNotInitialized = errors.New("service not initialized - call Initialize() first")
	ErrStaleInventory = errors.New("inventory snapshot is missing or expired")
)

// PricingService is a self-managing service that keeps the inventory catalog fresh and prices quotes
// against it
type PricingService struct {
	redisCache  storage.Cache
	memCache    *storage.MemoryCatalog
	source      InventorySource
	distributed *DistributedDataManager
	opts        *ServiceOptions
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	initialized bool
	now         func() time.Time
}

// ServiceOptions provides configuration for the pricing service
type ServiceOptions struct {
	RedisAddr                string          `json:"redisAddr"`
	InventoryRefreshInterval time.Duration   `json:"inventoryRefreshInterval"`
	FetchTimeout             time.Duration   `json:"fetchTimeout"`
	EnableLogging            bool            `json:"enableLogging"`
	Logger                   *slog.Logger    `json:"-"`
	InventoryBaseUrl         string          `json:"inventoryBaseUrl"`
	InventoryBasicAuth       string          `json:"inventoryBasicAuth"`
	Source                   InventorySource `json:"-"`
	Distributed              bool            `json:"distributed"`
	PodID                    string          `json:"podId"`
	SyncInterval             time.Duration   `json:"syncInterval"`
	LeaderTTL                time.Duration   `json:"leaderTTL"`
	BatchConcurrency         int             `json:"batchConcurrency"`
}

// DefaultServiceOptions returns sensible default options
func DefaultServiceOptions() *ServiceOptions {
	return &ServiceOptions{
		RedisAddr:                "tcp://localhost:6379",
		InventoryRefreshInterval: defaultRefreshInterval,
		FetchTimeout:             defaultFetchTimeout,
		EnableLogging:            true,
		SyncInterval:             defaultSyncInterval,
		LeaderTTL:                defaultLeaderTTL,
		BatchConcurrency:         8,
	}
}

// NewPricingService creates a new self-managing pricing service
func NewPricingService(options ...ServiceOption) (*PricingService, error) {
	opts := DefaultServiceOptions()

	// Apply options
	for _, option := range options {
		option(opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Distributed && opts.PodID == "" {
		opts.PodID = newPodID()
	}

	source := opts.Source
	if source == nil {
		if opts.InventoryBaseUrl == "" {
			return nil, errors.New("no inventory source: set WithInventoryBaseUrl or WithInventorySource")
		}
		source = newHTTPSource(opts.InventoryBaseUrl, opts.InventoryBasicAuth, opts.FetchTimeout)
	}

	// Create Redis cache
	redisCache, err := storage.NewRedisCache(opts.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis cache: %w", err)
	}

	memCache := storage.NewMemoryCatalog()
	ctx, cancel := context.WithCancel(context.Background())

	service := &PricingService{
		redisCache: redisCache,
		memCache:   memCache,
		source:     source,
		opts:       opts,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}

	if opts.Distributed {
		service.distributed = NewDistributedDataManager(redisCache, memCache, source, opts)
	}

	return service, nil
}

// ServiceOption is a function that configures service options
type ServiceOption func(*ServiceOptions)

// WithInventoryBaseUrl sets the inventory store API and its basic auth pair ("user:password")
func WithInventoryBaseUrl(url, auth string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.InventoryBaseUrl = url
		opts.InventoryBasicAuth = auth
	}
}

// WithInventorySource replaces the HTTP source, e.g. with a storage.PostgresSource
func WithInventorySource(source InventorySource) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Source = source
	}
}

// WithRedisConfig sets Redis configuration
func WithRedisConfig(addr string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.RedisAddr = addr
	}
}

func WithInventoryRefreshInterval(interval time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.InventoryRefreshInterval = interval
	}
}

func WithFetchTimeout(timeout time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.FetchTimeout = timeout
	}
}

// WithLogging enables/disables logging
func WithLogging(enabled bool) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.EnableLogging = enabled
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Logger = logger
	}
}

// WithDistributed coordinates refreshes across pods through a Redis leader lock. An empty podID
// generates one.
func WithDistributed(podID string) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Distributed = true
		opts.PodID = podID
	}
}

func WithSyncInterval(interval time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.SyncInterval = interval
	}
}

func WithLeaderTTL(ttl time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.LeaderTTL = ttl
	}
}

// WithBatchConcurrency bounds how many quotes of one batch are priced at once
func WithBatchConcurrency(n int) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.BatchConcurrency = n
	}
}

// Initialize restores the catalog and starts keeping it fresh
func (ps *PricingService) Initialize() error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.initialized {
		return nil
	}

	ps.log("🚀 Initializing Pricing Service...")

	if err := ps.initializeCatalogFromRedis(); err != nil {
		ps.warn("⚠️ Warning: Failed to initialize catalog from Redis: %v", err)
	}

	if ps.distributed != nil {
		if err := ps.distributed.Start(); err != nil {
			return fmt.Errorf("failed to start distributed manager: %w", err)
		}
	} else {
		ps.startScheduler()
	}

	ps.initialized = true
	ps.log("✅ Pricing Service initialized successfully")
	return nil
}

func (ps *PricingService) initializeCatalogFromRedis() error {
	backup, err := ps.redisCache.GetInventoryBackup()
	needsRefresh := true

	if err != nil {
		ps.warn("⚠️ Warning: Failed to load backup from Redis: %v", err)
	} else if backup != nil {
		ps.log("✅ Loaded backup from Redis (revision: %d)", backup.Revision)
		needsRefresh = false

		validUntil, err := parseValidUntil(backup.ValidUntilDate)
		if err != nil || validUntil.Before(ps.now().UTC()) {
			ps.log("⏰ Backup data has expired (validUntil: %s), will force refresh", backup.ValidUntilDate)
			needsRefresh = true
		}
	}

	if needsRefresh {
		// Followers wait for the leader instead of hitting the source themselves.
		if ps.distributed != nil {
			return nil
		}
		return ps.refreshInventory()
	}

	if err := ps.memCache.DumpInventory(backup); err != nil {
		return err
	}

	ps.log("📊 Catalog initialization completed")
	return nil
}

func (ps *PricingService) startScheduler() {
	ps.wg.Add(1)
	go ps.inventoryRefreshScheduler()
}

func (ps *PricingService) inventoryRefreshScheduler() {
	defer ps.wg.Done()

	jitteredInterval := addJitter(ps.opts.InventoryRefreshInterval, refreshJitter)
	ticker := time.NewTicker(jitteredInterval)
	defer ticker.Stop()

	ps.log("🔄 Inventory refresh scheduler started (base interval: %v, jittered: %v)", ps.opts.InventoryRefreshInterval, jitteredInterval)

	for {
		select {
		case <-ps.ctx.Done():
			ps.log("🛑 Inventory refresh scheduler stopped")
			return
		case <-ticker.C:
			delay := time.Duration(rand.Int63n(int64(jitteredInterval/20) + 1))
			select {
			case <-ps.ctx.Done():
				return
			case <-time.After(delay):
			}
			if err := ps.refreshInventory(); err != nil {
				ps.warn("❌ Failed to refresh inventory: %v", err)
			}
		}
	}
}

func (ps *PricingService) refreshInventory() error {
	if !ps.shouldRefreshInventory() {
		ps.log("⏭️ Skipping inventory refresh - current data valid until next refresh")
		return nil
	}

	ps.log("🔄 Refreshing inventory...")

	ctx, cancel := context.WithTimeout(ps.ctx, ps.opts.FetchTimeout)
	defer cancel()

	envelope, err := ps.source.FetchInventory(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch inventory: %w", err)
	}

	if err := ps.hydrateInventory(envelope); err != nil {
		return fmt.Errorf("failed to hydrate inventory: %w", err)
	}

	ps.log("✅ Inventory refreshed successfully (revision: %d)", envelope.Revision)
	return nil
}

// shouldRefreshInventory reports whether the snapshot expires before the next refresh. It also pulls
// a newer revision from Redis into memory when another pod already refreshed.
func (ps *PricingService) shouldRefreshInventory() bool {
	envelope, err := ps.redisCache.GetInventoryBackup()
	if err != nil {
		ps.warn("⚠️ Failed to get inventory backup from Redis: %v - refresh needed", err)
		return true
	}
	if envelope == nil {
		ps.log("🔄 No inventory backup found in Redis - refresh needed")
		return true
	}

	_, memoryRevision, _ := ps.memCache.GetInventoryMetadata()
	if envelope.Revision > memoryRevision {
		ps.log("🔄 Redis has newer revision (%d > %d) - syncing memory catalog", envelope.Revision, memoryRevision)
		if err := ps.memCache.DumpInventory(envelope); err != nil {
			ps.warn("⚠️ Failed to sync memory catalog from Redis: %v", err)
		}
	}

	validUntil, err := parseValidUntil(envelope.ValidUntilDate)
	if err != nil {
		ps.warn("⚠️ %v - refresh needed", err)
		return true
	}

	interval := ps.opts.InventoryRefreshInterval
	safeNextRefresh := ps.now().UTC().Add(interval).Add(time.Duration(float64(interval) * refreshJitter))

	willExpire := validUntil.Before(safeNextRefresh)
	if willExpire {
		ps.log("⏰ Inventory (rev:%d) expires at %v, next refresh at %v (with buffer) - refresh needed",
			envelope.Revision, validUntil.Format(time.RFC3339), safeNextRefresh.Format(time.RFC3339))
	}
	return willExpire
}

// hydrateInventory publishes the snapshot to Redis and loads it into memory. A Redis failure only
// costs the other pods their shortcut; memory is authoritative for this pod.
func (ps *PricingService) hydrateInventory(envelope *InventoryEnvelope) error {
	if envelope == nil || !envelope.IsSuccessful {
		return errors.New("bad inventory envelope or unsuccessful")
	}

	if err := ps.memCache.DumpInventory(envelope); err != nil {
		return fmt.Errorf("failed to process data in memory catalog: %w", err)
	}

	if err := ps.redisCache.SetInventoryBackup(envelope); err != nil {
		ps.warn("Warning: failed to store backup in Redis: %v", err)
	} else {
		version := &storage.DataVersion{
			InventoryRevision: envelope.Revision,
			LastUpdated:       ps.now().UTC(),
			LastUpdatedBy:     ps.opts.PodID,
		}
		if err := ps.redisCache.SetDataVersion(version); err != nil {
			ps.warn("Warning: failed to store data version in Redis: %v", err)
		}
	}

	ps.log("✅ Stored backup in Redis and loaded %d rates, %d contracts in memory",
		len(envelope.Rates), len(envelope.Contracts))
	return nil
}

// Quote prices one request against the current catalog
func (ps *PricingService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if !ps.isInitialized() {
		return nil, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.CategoryID == "" {
		return nil, &engine.InvalidInputError{Field: "category_id", Reason: "is required"}
	}
	if req.ContractID == "" {
		return nil, &engine.InvalidInputError{Field: "contract_id", Reason: "is required"}
	}

	now := ps.now().UTC()
	validUntil, revision, hasData := ps.memCache.GetInventoryMetadata()
	if !hasData || validUntil.Before(now) {
		return nil, fmt.Errorf("%w: revision %d valid until %v", ErrStaleInventory, revision, validUntil)
	}

	econ, err := ps.memCache.GetContract(req.ContractID)
	if err != nil {
		return nil, err
	}
	rates, err := ps.memCache.GetRates(req.CategoryID, req.ContractID)
	if err != nil {
		return nil, err
	}

	breakdown, err := engine.Quote(req.Request, rates.Rates, econ)
	if err != nil {
		return nil, err
	}

	return &QuoteResponse{
		QuoteID:    uuid.NewString(),
		CategoryID: req.CategoryID,
		ContractID: req.ContractID,
		Breakdown:  breakdown,
		RevisionId: rates.RevisionNumber,
		ValidUntil: rates.ValidUntil,
		QuotedAt:   now,
		Explain:    explainBreakdown(req.Request, breakdown),
	}, nil
}

// QuoteBatch prices every request concurrently. Results keep the input order and each carries its own
// error; one failing request does not affect the others.
func (ps *PricingService) QuoteBatch(ctx context.Context, reqs []QuoteRequest) []BatchResult {
	results := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	if ps.opts.BatchConcurrency > 0 {
		g.SetLimit(ps.opts.BatchConcurrency)
	}

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			quote, err := ps.Quote(gctx, req)
			results[i] = BatchResult{Index: i, Quote: quote, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// RevisionInfo reports the loaded snapshot for health checks
func (ps *PricingService) RevisionInfo() (*RevisionInfo, error) {
	if !ps.isInitialized() {
		return nil, ErrNotInitialized
	}

	validUntil, revision, hasData := ps.memCache.GetInventoryMetadata()
	if !hasData {
		return nil, ErrStaleInventory
	}

	untilExpiry := validUntil.Sub(ps.now().UTC())
	return &RevisionInfo{
		Revision:        revision,
		ValidUntil:      validUntil,
		LastRefresh:     ps.memCache.GetLastRefresh(),
		IsValid:         untilExpiry > 0,
		TimeUntilExpiry: untilExpiry,
	}, nil
}

func (ps *PricingService) Stats() CatalogStats {
	return ps.memCache.Stats()
}

// IsLeader reports whether this pod refreshes for the cluster. Without distribution every pod does.
func (ps *PricingService) IsLeader() bool {
	if ps.distributed == nil {
		return true
	}
	return ps.distributed.IsLeader()
}

// Stop gracefully shuts down the service
func (ps *PricingService) Stop() {
	ps.log("🛑 Stopping Pricing Service...")

	ps.cancel()
	ps.wg.Wait()

	if ps.distributed != nil {
		ps.distributed.Stop()
	}

	ps.redisCache.Close()

	ps.log("✅ Pricing Service stopped")
}

func (ps *PricingService) isInitialized() bool {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.initialized
}

func (ps *PricingService) log(format string, args ...any) {
	if ps.opts.EnableLogging {
		ps.opts.Logger.Info(fmt.Sprintf(format, args...), "component", "PricingService")
	}
}

func (ps *PricingService) warn(format string, args ...any) {
	if ps.opts.EnableLogging {
		ps.opts.Logger.Warn(fmt.Sprintf(format, args...), "component", "PricingService")
	}
}
