package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"

	"github.com/omerorhan/stay-pricing/internal/engine"
	"github.com/omerorhan/stay-pricing/internal/storage"
)

func day(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func testEnvelope(revision int, validUntil time.Time) *InventoryEnvelope {
	return &InventoryEnvelope{
		IsSuccessful:   true,
		Revision:       revision,
		ValidUntilDate: validUntil.UTC().Format(storage.ValidUntilLayout),
		Rates: []engine.RateRecord{
			{
				ID:         "deluxe-winter",
				CategoryID: "deluxe",
				ContractID: "hotel-a",
				BaseRate:   decimal.NewFromInt(100),
				Currency:   "EUR",
				ValidFrom:  day(2025, time.January, 1),
				ValidTo:    day(2025, time.April, 1),
				Active:     true,
			},
			{
				ID:         "deluxe-winter-b2b",
				CategoryID: "deluxe",
				ContractID: "hotel-b",
				BaseRate:   decimal.NewFromInt(90),
				Currency:   "EUR",
				ValidFrom:  day(2025, time.January, 1),
				ValidTo:    day(2025, time.April, 1),
				Active:     true,
			},
			{
				ID:         "museum-day",
				CategoryID: "museum",
				BaseRate:   decimal.NewFromInt(25),
				Currency:   "EUR",
				ValidFrom:  day(2025, time.January, 1),
				ValidTo:    day(2026, time.January, 1),
				Active:     true,
			},
		},
		Contracts: []engine.ContractEconomics{
			{
				ContractID:              "hotel-a",
				SupplierCommissionRate:  decimal.RequireFromString("0.15"),
				CustomerVatRate:         decimal.NewFromInt(5),
				DefaultMarkupPercentage: decimal.RequireFromString("0.6"),
				Fees: []engine.Fee{
					{Code: engine.FeeCodeCityTax, Mode: engine.FeePerPersonPerNight, Amount: decimal.NewFromInt(10), Payable: engine.PayableProperty},
				},
			},
			{ContractID: "hotel-b", DefaultMarkupPercentage: decimal.RequireFromString("0.2")},
		},
	}
}

// fakeSource serves a fixed envelope and counts fetches.
type fakeSource struct {
	mu       sync.Mutex
	envelope *InventoryEnvelope
	err      error
	calls    int
}

func (f *fakeSource) FetchInventory(ctx context.Context) (*InventoryEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.envelope == nil {
		return nil, errors.New("no envelope")
	}
	copied := *f.envelope
	return &copied, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeSource) set(envelope *InventoryEnvelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envelope = envelope
}

func newTestRedisCache(t *testing.T, mr *miniredis.Miniredis) *storage.RedisCache {
	t.Helper()
	cache, err := storage.NewRedisCache("tcp://" + mr.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

// newTestService returns an uninitialized service backed by a fresh miniredis.
func newTestService(t *testing.T, src InventorySource, options ...ServiceOption) (*PricingService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	base := []ServiceOption{
		WithRedisConfig("tcp://" + mr.Addr()),
		WithInventorySource(src),
		WithLogging(false),
	}
	ps, err := NewPricingService(append(base, options...)...)
	if err != nil {
		t.Fatalf("NewPricingService() error = %v", err)
	}
	return ps, mr
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func stay(category, contract string, start, end civil.Date, adults int) QuoteRequest {
	return QuoteRequest{
		CategoryID: category,
		ContractID: contract,
		Request: engine.Request{
			Kind:      engine.KindStay,
			StartDate: start,
			EndDate:   end,
			Party:     engine.Party{Adults: adults},
			Channel:   engine.ChannelWeb,
		},
	}
}

func ticket(category, contract string, event civil.Date, qty int) QuoteRequest {
	return QuoteRequest{
		CategoryID: category,
		ContractID: contract,
		Request: engine.Request{
			Kind:      engine.KindTicket,
			EventDate: event,
			Quantity:  qty,
			Channel:   engine.ChannelWeb,
			AgeBand:   engine.AgeBandAdult,
		},
	}
}
