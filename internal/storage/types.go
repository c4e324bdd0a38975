package storage

import (
	"time"

	"github.com/omerorhan/stay-pricing/internal/engine"
)

// InventoryEnvelope is the snapshot the inventory store publishes: every rate record and contract the
// service may quote from, stamped with a revision and an expiry.
type InventoryEnvelope struct {
	Revision       int                        `json:"revision"`
	ValidUntilDate string                     `json:"validUntilDate"`
	Rates          []engine.RateRecord        `json:"rates"`
	Contracts      []engine.ContractEconomics `json:"contracts"`
	IsSuccessful   bool                       `json:"isSuccessful"`
	Error          any                        `json:"error"`
}

// CategoryRates is what the catalog holds for one category.
type CategoryRates struct {
	Rates          []engine.RateRecord
	ValidUntil     time.Time
	RevisionNumber int
}

// CatalogStats summarizes the loaded snapshot.
type CatalogStats struct {
	Revision    int       `json:"revision"`
	Categories  int       `json:"categories"`
	Rates       int       `json:"rates"`
	Contracts   int       `json:"contracts"`
	ValidUntil  time.Time `json:"validUntil"`
	LastRefresh time.Time `json:"lastRefresh"`
}

// DataVersion tracks the version of data in Redis for change detection
type DataVersion struct {
	InventoryRevision int       `json:"inventory_revision"`
	LastUpdated       time.Time `json:"last_updated"`
	LastUpdatedBy     string    `json:"last_updated_by"` // Pod ID that last updated
}

// RevisionInfo provides revision metadata for monitoring and health checks
type RevisionInfo struct {
	Revision        int           `json:"revision"`
	ValidUntil      time.Time     `json:"validUntil"`
	LastRefresh     time.Time     `json:"lastRefresh"`
	IsValid         bool          `json:"isValid"`
	TimeUntilExpiry time.Duration `json:"timeUntilExpiry"`
}
