package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/omerorhan/stay-pricing/internal/storage"
)

// DistributedDataManager handles distributed inventory updates across multiple pods. One pod holds the
// Redis leader lock and refreshes from the source; the others follow the published DataVersion.
type DistributedDataManager struct {
	redisCache      storage.Cache
	memCache        *storage.MemoryCatalog
	source          InventorySource
	podID           string
	isLeader        bool
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	leaderCancel    context.CancelFunc
	wg              sync.WaitGroup
	refreshInterval time.Duration
	fetchTimeout    time.Duration
	syncInterval    time.Duration
	lockTTL         time.Duration
	logger          *slog.Logger
	logging         bool
	started         bool
	startMu         sync.Mutex
	now             func() time.Time
}

// NewDistributedDataManager creates a new distributed data manager
func NewDistributedDataManager(redisCache storage.Cache, memCache *storage.MemoryCatalog, source InventorySource, opts *ServiceOptions) *DistributedDataManager {
	podID := opts.PodID
	if podID == "" {
		podID = newPodID()
	}

	ctx, cancel := context.WithCancel(context.Background())

	refreshInterval := opts.InventoryRefreshInterval
	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}
	syncInterval := opts.SyncInterval
	if syncInterval <= 0 {
		syncInterval = defaultSyncInterval
	}
	lockTTL := opts.LeaderTTL
	if lockTTL <= 0 {
		lockTTL = defaultLeaderTTL
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DistributedDataManager{
		redisCache:      redisCache,
		memCache:        memCache,
		source:          source,
		podID:           podID,
		refreshInterval: refreshInterval,
		fetchTimeout:    fetchTimeout,
		syncInterval:    syncInterval,
		lockTTL:         lockTTL,
		logger:          logger,
		logging:         opts.EnableLogging,
		ctx:             ctx,
		cancel:          cancel,
		now:             time.Now,
	}
}

// Start begins the distributed data management
func (ddm *DistributedDataManager) Start() error {
	ddm.startMu.Lock()
	defer ddm.startMu.Unlock()

	if ddm.started {
		return fmt.Errorf("distributed data manager already started")
	}

	ddm.log("🚀 Starting Distributed Data Manager (Pod ID: %s)", ddm.podID)

	ddm.wg.Add(1)
	go ddm.mainLoop()

	ddm.started = true
	ddm.log("✅ Distributed Data Manager started")
	return nil
}

// Stop gracefully shuts down the distributed data manager
func (ddm *DistributedDataManager) Stop() {
	ddm.log("🛑 Stopping Distributed Data Manager...")

	ddm.cancel()

	// Wait for goroutines with timeout to prevent infinite blocking
	done := make(chan struct{})
	go func() {
		ddm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		ddm.log("✅ All goroutines stopped gracefully")
	case <-time.After(10 * time.Second):
		ddm.warn("⚠️ Timeout waiting for goroutines to stop")
	}

	ddm.mu.Lock()
	wasLeader := ddm.isLeader
	ddm.isLeader = false
	ddm.mu.Unlock()

	if wasLeader {
		ddm.releaseLeadership()
	}

	ddm.log("✅ Distributed Data Manager stopped")
}

// IsLeader returns whether this pod is currently the leader
func (ddm *DistributedDataManager) IsLeader() bool {
	ddm.mu.RLock()
	defer ddm.mu.RUnlock()
	return ddm.isLeader
}

func (ddm *DistributedDataManager) PodID() string {
	return ddm.podID
}

// nextRefresh is the earlier of expiry minus expiryLead and the last refresh plus the interval, never
// in the past.
func (ddm *DistributedDataManager) nextRefresh() time.Time {
	now := ddm.now().UTC()

	validUntil, _, hasData := ddm.memCache.GetInventoryMetadata()
	if !hasData {
		return now
	}

	next := ddm.memCache.GetLastRefresh().Add(ddm.refreshInterval)
	if !validUntil.IsZero() {
		if beforeExpiry := validUntil.Add(-expiryLead); beforeExpiry.Before(next) {
			next = beforeExpiry
		}
	}

	if next.Before(now) {
		return now
	}
	return next
}

func (ddm *DistributedDataManager) mainLoop() {
	defer ddm.wg.Done()

	// Renew well inside the TTL so a slow tick doesn't drop the lock
	leaderTicker := time.NewTicker(ddm.lockTTL / 3)
	defer leaderTicker.Stop()

	syncTicker := time.NewTicker(ddm.syncInterval)
	defer syncTicker.Stop()

	// Initial sync from Redis
	ddm.syncFromRedis()

	ddm.performLeaderElection()

	for {
		select {
		case <-ddm.ctx.Done():
			return
		case <-leaderTicker.C:
			ddm.performLeaderElection()
		case <-syncTicker.C:
			// Leaders update data themselves
			if !ddm.IsLeader() && ddm.needsDataSync() {
				ddm.syncFromRedis()
			}
		}
	}
}

// performLeaderElection renews or acquires the lock. Losing it cancels the refresh loop it started.
func (ddm *DistributedDataManager) performLeaderElection() {
	ddm.mu.Lock()
	defer ddm.mu.Unlock()

	if ddm.isLeader {
		renewed, err := ddm.redisCache.RenewLeadership(ddm.podID, ddm.lockTTL)
		if err != nil {
			ddm.warn("⚠️ Failed to renew leadership: %v", err)
		}
		if err != nil || !renewed {
			ddm.log("👑 Leadership lost, becoming follower")
			ddm.stepDownLocked()
		}
		return
	}

	acquired, err := ddm.redisCache.AcquireLeaderLock(ddm.podID, ddm.lockTTL)
	if err != nil {
		ddm.warn("⚠️ Failed to acquire leadership: %v", err)
		return
	}
	if !acquired {
		return
	}

	ddm.log("👑 Became leader! Starting data refresh loop")
	ddm.isLeader = true

	leaderCtx, cancel := context.WithCancel(ddm.ctx)
	ddm.leaderCancel = cancel

	ddm.wg.Add(1)
	go ddm.leaderDataRefreshLoop(leaderCtx)
}

func (ddm *DistributedDataManager) stepDownLocked() {
	ddm.isLeader = false
	if ddm.leaderCancel != nil {
		ddm.leaderCancel()
		ddm.leaderCancel = nil
	}
}

// leaderDataRefreshLoop runs only while ctx, scoped to one term of leadership, is alive
func (ddm *DistributedDataManager) leaderDataRefreshLoop(ctx context.Context) {
	defer ddm.wg.Done()

	justRefreshed := false
	for {
		next := ddm.nextRefresh()
		wait := next.Sub(ddm.now().UTC())
		if wait <= 0 && justRefreshed {
			// A snapshot that expires within expiryLead would otherwise refresh in a tight loop
			wait = ddm.syncInterval
			next = ddm.now().UTC().Add(wait)
		}
		if wait > 0 {
			ddm.log("⏰ Next refresh in %v (at %v)", wait, next.Format("2006-01-02 15:04:05 UTC"))

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				ddm.log("👑 No longer leader, stopping data refresh")
				return
			case <-timer.C:
			}
		}

		if ctx.Err() != nil {
			return
		}

		if err := ddm.refreshFromSource(ctx); err != nil {
			ddm.warn("❌ Failed to refresh inventory: %v", err)

			// Back off so a failing source isn't hammered on every loop
			select {
			case <-ctx.Done():
				return
			case <-time.After(addJitter(ddm.syncInterval, refreshJitter)):
			}
			justRefreshed = false
			continue
		}
		justRefreshed = true
		ddm.log("✅ Inventory refreshed successfully")
	}
}

// refreshFromSource fetches a snapshot and publishes it: memory first, then the Redis backup, then the
// version that tells followers to sync.
func (ddm *DistributedDataManager) refreshFromSource(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, ddm.fetchTimeout)
	defer cancel()

	envelope, err := ddm.source.FetchInventory(fetchCtx)
	if err != nil {
		return fmt.Errorf("failed to fetch inventory: %w", err)
	}
	if envelope == nil || !envelope.IsSuccessful {
		return fmt.Errorf("bad inventory envelope or unsuccessful")
	}

	if err := ddm.memCache.DumpInventory(envelope); err != nil {
		return fmt.Errorf("failed to load inventory into memory: %w", err)
	}

	if err := ddm.redisCache.SetInventoryBackup(envelope); err != nil {
		return fmt.Errorf("failed to store inventory in Redis: %w", err)
	}

	version := &storage.DataVersion{
		InventoryRevision: envelope.Revision,
		LastUpdated:       ddm.now().UTC(),
		LastUpdatedBy:     ddm.podID,
	}
	if err := ddm.redisCache.SetDataVersion(version); err != nil {
		return fmt.Errorf("failed to update Redis data version: %w", err)
	}

	ddm.log("📝 Updated Redis inventory version: %d", version.InventoryRevision)
	return nil
}

// needsDataSync compares the published DataVersion with the local revision
func (ddm *DistributedDataManager) needsDataSync() bool {
	version, err := ddm.redisCache.GetDataVersion()
	if err != nil {
		ddm.warn("⚠️ Failed to get current data version: %v", err)
		return false
	}
	if version == nil {
		return false
	}

	_, localRevision, hasData := ddm.memCache.GetInventoryMetadata()
	if !hasData {
		return true
	}
	return version.InventoryRevision > localRevision
}

// syncFromRedis loads the backup into memory when it is newer than what this pod holds
func (ddm *DistributedDataManager) syncFromRedis() {
	envelope, err := ddm.redisCache.GetInventoryBackup()
	if err != nil {
		ddm.warn("⚠️ Failed to get inventory from Redis for sync: %v", err)
		return
	}
	if envelope == nil {
		ddm.log("📝 No inventory found in Redis, skipping sync")
		return
	}

	_, localRevision, _ := ddm.memCache.GetInventoryMetadata()
	if envelope.Revision <= localRevision {
		return
	}

	if err := ddm.memCache.DumpInventory(envelope); err != nil {
		ddm.warn("⚠️ Failed to sync inventory to memory catalog: %v", err)
		return
	}

	ddm.log("✅ Inventory synced from Redis to memory catalog (revision: %d)", envelope.Revision)
}

func (ddm *DistributedDataManager) releaseLeadership() {
	if err := ddm.redisCache.ReleaseLeaderLock(ddm.podID); err != nil {
		ddm.warn("⚠️ Failed to release leadership: %v", err)
	} else {
		ddm.log("👑 Leadership released")
	}
}

func (ddm *DistributedDataManager) log(format string, args ...any) {
	if ddm.logging {
		ddm.logger.Info(fmt.Sprintf(format, args...), "component", "DistributedManager", "pod", ddm.podID)
	}
}

func (ddm *DistributedDataManager) warn(format string, args ...any) {
	if ddm.logging {
		ddm.logger.Warn(fmt.Sprintf(format, args...), "component", "DistributedManager", "pod", ddm.podID)
	}
}
