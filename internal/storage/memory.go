package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/omerorhan/stay-pricing/internal/engine"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownContract = errors.New("unknown contract")
)

type inventory struct {
	rev           int
	validUntilUTC time.Time
	byCategory    map[string][]engine.RateRecord
	contracts     map[string]engine.ContractEconomics
	rateCount     int
	lastRefreshed time.Time
}

// MemoryCatalog holds the current inventory snapshot for lock-light reads on the quote path
type MemoryCatalog struct {
	mu        sync.RWMutex
	inventory inventory
}

// NewMemoryCatalog creates an empty catalog
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		inventory: inventory{
			byCategory: make(map[string][]engine.RateRecord),
			contracts:  make(map[string]engine.ContractEconomics),
		},
	}
}

// DumpInventory replaces the catalog with the envelope's contents. A rejected envelope leaves the
// previous snapshot in place.
func (mc *MemoryCatalog) DumpInventory(envelope *InventoryEnvelope) error {
	if envelope == nil || !envelope.IsSuccessful {
		return fmt.Errorf("invalid inventory envelope")
	}

	validUntil, err := time.Parse(ValidUntilLayout, envelope.ValidUntilDate)
	if err != nil {
		return fmt.Errorf("failed to parse validUntilDate: %w", err)
	}

	byCategory := make(map[string][]engine.RateRecord)
	for _, r := range envelope.Rates {
		if r.CategoryID == "" {
			return fmt.Errorf("rate %s has no category", r.ID)
		}
		byCategory[r.CategoryID] = append(byCategory[r.CategoryID], r)
	}

	contracts := make(map[string]engine.ContractEconomics, len(envelope.Contracts))
	for _, c := range envelope.Contracts {
		if _, dup := contracts[c.ContractID]; dup {
			return fmt.Errorf("duplicate contract %s", c.ContractID)
		}
		contracts[c.ContractID] = c
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.inventory = inventory{
		rev:           envelope.Revision,
		validUntilUTC: validUntil,
		byCategory:    byCategory,
		contracts:     contracts,
		rateCount:     len(envelope.Rates),
		lastRefreshed: time.Now().UTC(),
	}

	return nil
}

// GetRates returns a copy of the category's rate records. A non-empty contractID keeps that contract's
// records plus the ones bound to no contract.
func (mc *MemoryCatalog) GetRates(categoryID, contractID string) (CategoryRates, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	all, found := mc.inventory.byCategory[categoryID]
	if !found {
		return CategoryRates{}, fmt.Errorf("%w: %s", ErrUnknownCategory, categoryID)
	}

	rates := make([]engine.RateRecord, 0, len(all))
	for _, r := range all {
		if contractID == "" || r.ContractID == "" || r.ContractID == contractID {
			rates = append(rates, r)
		}
	}

	return CategoryRates{
		Rates:          rates,
		ValidUntil:     mc.inventory.validUntilUTC,
		RevisionNumber: mc.inventory.rev,
	}, nil
}

func (mc *MemoryCatalog) GetContract(contractID string) (engine.ContractEconomics, error) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	c, ok := mc.inventory.contracts[contractID]
	if !ok {
		return engine.ContractEconomics{}, fmt.Errorf("%w: %s", ErrUnknownContract, contractID)
	}
	return c, nil
}

// GetInventoryMetadata returns validity, revision and whether any snapshot was loaded.
func (mc *MemoryCatalog) GetInventoryMetadata() (time.Time, int, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.inventory.validUntilUTC, mc.inventory.rev, mc.inventory.rev != 0
}

func (mc *MemoryCatalog) GetLastRefresh() time.Time {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return mc.inventory.lastRefreshed
}

func (mc *MemoryCatalog) Stats() CatalogStats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	return CatalogStats{
		Revision:    mc.inventory.rev,
		Categories:  len(mc.inventory.byCategory),
		Rates:       mc.inventory.rateCount,
		Contracts:   len(mc.inventory.contracts),
		ValidUntil:  mc.inventory.validUntilUTC,
		LastRefresh: mc.inventory.lastRefreshed,
	}
}
