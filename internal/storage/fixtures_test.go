package storage

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/omerorhan/stay-pricing/internal/engine"
)

func testEnvelope(revision int, validUntil time.Time) *InventoryEnvelope {
	return &InventoryEnvelope{
		IsSuccessful:   true,
		Revision:       revision,
		ValidUntilDate: validUntil.UTC().Format(ValidUntilLayout),
		Rates: []engine.RateRecord{
			{
				ID:         "deluxe-winter",
				CategoryID: "deluxe",
				ContractID: "hotel-a",
				BaseRate:   decimal.NewFromInt(100),
				Currency:   "EUR",
				ValidFrom:  civil.Date{Year: 2025, Month: time.January, Day: 1},
				ValidTo:    civil.Date{Year: 2025, Month: time.April, Day: 1},
				Active:     true,
			},
			{
				ID:         "deluxe-winter-b2b",
				CategoryID: "deluxe",
				ContractID: "hotel-b",
				BaseRate:   decimal.NewFromInt(90),
				Currency:   "EUR",
				ValidFrom:  civil.Date{Year: 2025, Month: time.January, Day: 1},
				ValidTo:    civil.Date{Year: 2025, Month: time.April, Day: 1},
				Active:     true,
			},
			{
				ID:         "museum-day",
				CategoryID: "museum",
				BaseRate:   decimal.NewFromInt(25),
				Currency:   "EUR",
				ValidFrom:  civil.Date{Year: 2025, Month: time.January, Day: 1},
				ValidTo:    civil.Date{Year: 2026, Month: time.January, Day: 1},
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
