package service

import (
	"time"

	"github.com/omerorhan/stay-pricing/internal/storage"
)

// InventorySnapshotPath is served by the inventory store and returns an InventoryEnvelope.
const InventorySnapshotPath = "/api/v1/inventory/snapshot"

const (
	defaultRefreshInterval = 15 * time.Minute
	defaultSyncInterval    = 5 * time.Second
	defaultLeaderTTL       = 2 * time.Minute
	defaultFetchTimeout    = 30 * time.Second

	// Leaders refresh this long before the snapshot expires.
	expiryLead = 10 * time.Minute

	refreshJitter = 0.1
)

// Use types from storage package for consistency
type InventoryEnvelope = storage.InventoryEnvelope
type RevisionInfo = storage.RevisionInfo
type CatalogStats = storage.CatalogStats
