package service

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/omerorhan/stay-pricing/internal/storage"
)

const testLeaderLockKey = "pricing:leader_lock"

func newTestManager(t *testing.T, mr *miniredis.Miniredis, src InventorySource, podID string) *DistributedDataManager {
	t.Helper()
	opts := DefaultServiceOptions()
	opts.EnableLogging = false
	opts.PodID = podID
	opts.LeaderTTL = 300 * time.Millisecond
	opts.SyncInterval = 50 * time.Millisecond
	opts.InventoryRefreshInterval = time.Hour

	return NewDistributedDataManager(newTestRedisCache(t, mr), storage.NewMemoryCatalog(), src, opts)
}

func TestDistributedDataManager_LeaderElection(t *testing.T) {
	mr := miniredis.RunT(t)
	src := &fakeSource{envelope: testEnvelope(5, time.Now().Add(24*time.Hour))}

	// Two managers with their own catalogs simulate two pods
	manager1 := newTestManager(t, mr, src, "pod-1")
	manager2 := newTestManager(t, mr, src, "pod-2")

	if err := manager1.Start(); err != nil {
		t.Fatalf("Failed to start manager1: %v", err)
	}
	defer manager1.Stop()
	if err := manager2.Start(); err != nil {
		t.Fatalf("Failed to start manager2: %v", err)
	}
	defer manager2.Stop()

	if err := manager1.Start(); err == nil {
		t.Error("second Start() succeeded, want error")
	}

	eventually(t, 2*time.Second, func() bool {
		return manager1.IsLeader() != manager2.IsLeader()
	}, "exactly one manager leads")

	// The leader fetches, the follower picks the revision up from Redis
	for _, m := range []*DistributedDataManager{manager1, manager2} {
		eventually(t, 2*time.Second, func() bool {
			_, rev, _ := m.memCache.GetInventoryMetadata()
			return rev == 5
		}, m.PodID()+" loads revision 5")
	}

	if calls := src.Calls(); calls != 1 {
		t.Errorf("source fetched %d times, want 1 by the leader only", calls)
	}

	leader, err := mr.Get(testLeaderLockKey)
	if err != nil {
		t.Fatalf("leader lock missing: %v", err)
	}
	if (leader == "pod-1") != manager1.IsLeader() {
		t.Errorf("lock held by %q but manager1.IsLeader() = %v", leader, manager1.IsLeader())
	}
}

func TestDistributedDataManager_Failover(t *testing.T) {
	mr := miniredis.RunT(t)
	src := &fakeSource{envelope: testEnvelope(5, time.Now().Add(24*time.Hour))}

	leader := newTestManager(t, mr, src, "pod-1")
	if err := leader.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	eventually(t, time.Second, leader.IsLeader, "pod-1 becomes leader")

	follower := newTestManager(t, mr, src, "pod-2")
	if err := follower.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer follower.Stop()

	leader.Stop()
	if leader.IsLeader() {
		t.Error("stopped manager still reports leadership")
	}

	eventually(t, 2*time.Second, follower.IsLeader, "pod-2 takes over after pod-1 releases the lock")
}

func TestDistributedDataManager_LosesLeadership(t *testing.T) {
	mr := miniredis.RunT(t)
	src := &fakeSource{envelope: testEnvelope(5, time.Now().Add(24*time.Hour))}

	ddm := newTestManager(t, mr, src, "pod-1")
	defer ddm.Stop()

	ddm.performLeaderElection()
	if !ddm.IsLeader() {
		t.Fatal("performLeaderElection() on a free lock did not acquire it")
	}

	// Another pod grabbed the lock while this one was paused
	mr.Set(testLeaderLockKey, "pod-2")

	ddm.performLeaderElection()
	if ddm.IsLeader() {
		t.Error("IsLeader() = true after the lock moved to pod-2")
	}
	ddm.mu.RLock()
	cancelled := ddm.leaderCancel == nil
	ddm.mu.RUnlock()
	if !cancelled {
		t.Error("leader refresh loop was not cancelled on step down")
	}

	// Stop must not release a lock this pod no longer holds
	ddm.Stop()
	if got, _ := mr.Get(testLeaderLockKey); got != "pod-2" {
		t.Errorf("leader lock = %q after Stop, want pod-2", got)
	}
}

func TestDistributedDataManager_NextRefresh(t *testing.T) {
	tests := []struct {
		name       string
		validUntil time.Duration
		expected   time.Duration
	}{
		{name: "interval comes first", validUntil: 24 * time.Hour, expected: time.Hour},
		{name: "expiry lead comes first", validUntil: 30 * time.Minute, expected: 30*time.Minute - expiryLead},
		{name: "already inside the expiry lead", validUntil: 5 * time.Minute, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddm := newTestManager(t, miniredis.RunT(t), &fakeSource{}, "pod-1")

			now := time.Now().UTC()
			if got := ddm.nextRefresh(); got.Sub(now) > time.Second {
				t.Fatalf("nextRefresh() without data = %v, want now", got)
			}

			if err := ddm.memCache.DumpInventory(testEnvelope(1, now.Add(tt.validUntil))); err != nil {
				t.Fatalf("DumpInventory() error = %v", err)
			}

			got := ddm.nextRefresh().Sub(now)
			// validUntil is serialized with second precision
			if diff := got - tt.expected; diff < -2*time.Second || diff > 2*time.Second {
				t.Errorf("nextRefresh() = now+%v, want now+%v", got, tt.expected)
			}
		})
	}
}

func TestDistributedDataManager_NeedsDataSync(t *testing.T) {
	mr := miniredis.RunT(t)
	ddm := newTestManager(t, mr, &fakeSource{}, "pod-1")
	cache := newTestRedisCache(t, mr)

	if ddm.needsDataSync() {
		t.Error("needsDataSync() = true without a published version")
	}

	if err := cache.SetDataVersion(&storage.DataVersion{InventoryRevision: 3, LastUpdated: time.Now().UTC(), LastUpdatedBy: "pod-2"}); err != nil {
		t.Fatalf("SetDataVersion() error = %v", err)
	}
	if !ddm.needsDataSync() {
		t.Error("needsDataSync() = false with an empty catalog")
	}

	if err := ddm.memCache.DumpInventory(testEnvelope(3, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("DumpInventory() error = %v", err)
	}
	if ddm.needsDataSync() {
		t.Error("needsDataSync() = true at the published revision")
	}

	if err := cache.SetInventoryBackup(testEnvelope(4, time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("SetInventoryBackup() error = %v", err)
	}
	if err := cache.SetDataVersion(&storage.DataVersion{InventoryRevision: 4, LastUpdated: time.Now().UTC(), LastUpdatedBy: "pod-2"}); err != nil {
		t.Fatalf("SetDataVersion() error = %v", err)
	}
	if !ddm.needsDataSync() {
		t.Fatal("needsDataSync() = false behind the published revision")
	}

	ddm.syncFromRedis()
	if _, rev, _ := ddm.memCache.GetInventoryMetadata(); rev != 4 {
		t.Errorf("revision after syncFromRedis() = %d, want 4", rev)
	}
}

func TestDistributedDataManager_RefreshFromSource(t *testing.T) {
	mr := miniredis.RunT(t)
	src := &fakeSource{envelope: testEnvelope(9, time.Now().Add(24*time.Hour))}
	ddm := newTestManager(t, mr, src, "pod-1")

	if err := ddm.refreshFromSource(ddm.ctx); err != nil {
		t.Fatalf("refreshFromSource() error = %v", err)
	}

	cache := newTestRedisCache(t, mr)
	version, err := cache.GetDataVersion()
	if err != nil || version == nil {
		t.Fatalf("GetDataVersion() = (%v, %v)", version, err)
	}
	if version.InventoryRevision != 9 || version.LastUpdatedBy != "pod-1" {
		t.Errorf("data version = %+v, want revision 9 by pod-1", version)
	}

	bad := testEnvelope(10, time.Now().Add(time.Hour))
	bad.IsSuccessful = false
	src.set(bad)
	if err := ddm.refreshFromSource(ddm.ctx); err == nil {
		t.Error("refreshFromSource() with an unsuccessful envelope succeeded, want error")
	}
	if _, rev, _ := ddm.memCache.GetInventoryMetadata(); rev != 9 {
		t.Errorf("revision = %d after a failed refresh, want 9 kept", rev)
	}
}
