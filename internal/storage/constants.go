package storage

const (
	// ValidUntilLayout is the timestamp format of InventoryEnvelope.ValidUntilDate (UTC, no zone).
	ValidUntilLayout = "2006-01-02T15:04:05"

	inventoryBackupKey = "pricing:inventory_backup"

	// Data versioning keys
	dataVersionKey = "pricing:data_version"
	leaderLockKey  = "pricing:leader_lock"
)
