package storage

import (
	"time"
)

// Cache defines the shared store the pods coordinate through
type Cache interface {
	SetInventoryBackup(envelope *InventoryEnvelope) error
	GetInventoryBackup() (*InventoryEnvelope, error)

	SetDataVersion(version *DataVersion) error
	GetDataVersion() (*DataVersion, error)

	AcquireLeaderLock(podID string, ttl time.Duration) (bool, error)
	RenewLeadership(podID string, ttl time.Duration) (bool, error)
	ReleaseLeaderLock(podID string) error

	Close() error
}

type CacheOptions struct {
	DefaultTTL time.Duration
}

func DefaultCacheOptions() *CacheOptions {
	return &CacheOptions{
		DefaultTTL: 24 * time.Hour,
	}
}
