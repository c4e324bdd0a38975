package engine

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPricePeriod_Scenarios(t *testing.T) {
	winter := rate("winter", "100", day(2025, 1, 1), day(2025, 3, 1))

	tests := []struct {
		name      string
		nights    int
		earlyBird string
		group     string
		expected  map[string]string
	}{
		{
			name:   "markup only over two nights",
			nights: 2,
			expected: map[string]string{
				"MarkedUpRate": "160",
				"Subtotal":     "320",
				"Total":        "320",
			},
		},
		{
			name:      "early bird then group discount",
			nights:    1,
			earlyBird: "10",
			group:     "5",
			expected: map[string]string{
				"MarkedUpRate":       "160",
				"AfterEarlyBird":     "144",
				"AfterGroupDiscount": "136.8",
				"Subtotal":           "136.8",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := stayRequest(day(2025, 1, 5), day(2025, 1, 5+tt.nights), 2)
			if tt.earlyBird != "" {
				req.EarlyBirdDiscountPct = dec(tt.earlyBird)
			}
			if tt.group != "" {
				req.GroupDiscountPct = dec(tt.group)
			}
			period := RatePeriod{Kind: KindStay, StartDate: req.StartDate, EndDate: req.EndDate, NightsOrUnits: tt.nights, Rate: winter}

			got, err := PricePeriod(period, markupOnly("0.6"), req)
			if err != nil {
				t.Fatalf("PricePeriod() error = %v", err)
			}

			fields := map[string]decimal.Decimal{
				"MarkedUpRate":       got.MarkedUpRate,
				"AfterEarlyBird":     got.AfterEarlyBird,
				"AfterGroupDiscount": got.AfterGroupDiscount,
				"Subtotal":           got.Subtotal,
				"Total":              got.Total,
			}
			for field, want := range tt.expected {
				assertDecimal(t, field, fields[field], want)
			}
		})
	}
}

func TestPricePeriod_RateMarkupOverridesContract(t *testing.T) {
	r := rate("winter", "100", day(2025, 1, 1), day(2025, 3, 1))
	r.MarkupPercentage = decPtr("0.25")
	req := stayRequest(day(2025, 1, 5), day(2025, 1, 6), 1)
	period := RatePeriod{Kind: KindStay, NightsOrUnits: 1, Rate: r}

	got, err := PricePeriod(period, markupOnly("0.6"), req)
	if err != nil {
		t.Fatalf("PricePeriod() error = %v", err)
	}
	assertDecimal(t, "MarkedUpRate", got.MarkedUpRate, "125")
}

func TestPricePeriod_FeesAndTaxes(t *testing.T) {
	r := rate("winter", "100", day(2025, 1, 1), day(2025, 3, 1))
	econ := ContractEconomics{
		ContractID:             "c-1",
		SupplierCommissionRate: dec("0.15"),
		SupplierVatRate:        dec("0.2"),
		CustomerVatRate:        dec("5"),
		ServiceFeePerUnit:      dec("10"),
		Fees: []Fee{
			{Code: FeeCodeCityTax, Mode: FeePerPersonPerNight, Amount: dec("10"), Payable: PayableProperty},
			{Code: "booking", Mode: FeeFixed, Amount: dec("4"), Payable: PayableUs},
		},
	}
	req := stayRequest(day(2025, 1, 5), day(2025, 1, 8), 2)
	period := RatePeriod{Kind: KindStay, NightsOrUnits: 3, Rate: r}

	got, err := PricePeriod(period, econ, req)
	if err != nil {
		t.Fatalf("PricePeriod() error = %v", err)
	}

	assertDecimal(t, "Subtotal", got.Subtotal, "300")
	// service fee 10*3 plus fixed booking fee 4
	assertDecimal(t, "FeesIncluded", got.FeesIncluded, "34")
	// city tax 10*2*3
	assertDecimal(t, "FeesAtProperty", got.FeesAtProperty, "60")
	assertDecimal(t, "Commission", got.Commission, "45")
	assertDecimal(t, "SupplierVat", got.SupplierVat, "9")
	// (300+34) * 5%
	assertDecimal(t, "CustomerVat", got.CustomerVat, "16.7")
	assertDecimal(t, "Total", got.Total, "350.7")

	if len(got.Fees) != 3 {
		t.Fatalf("fee lines = %d, want 3", len(got.Fees))
	}
	if got.Fees[0].Code != FeeCodeServiceFee {
		t.Errorf("first fee line = %q, want implicit %q", got.Fees[0].Code, FeeCodeServiceFee)
	}
}

func TestPeriodFees_Modes(t *testing.T) {
	r := rate("winter", "100", day(2025, 1, 1), day(2025, 3, 1))

	tests := []struct {
		name     string
		fee      Fee
		period   RatePeriod
		req      Request
		expected string
		charged  bool
	}{
		{
			name:     "per unit on stay",
			fee:      Fee{Code: "linen", Mode: FeePerUnit, Amount: dec("3"), Payable: PayableUs},
			period:   RatePeriod{Kind: KindStay, NightsOrUnits: 4, Rate: r},
			req:      stayRequest(day(2025, 1, 5), day(2025, 1, 9), 2),
			expected: "12",
			charged:  true,
		},
		{
			name:     "per person on first period",
			fee:      Fee{Code: "welcome", Mode: FeePerPerson, Amount: dec("5"), Payable: PayableUs},
			period:   RatePeriod{Index: 0, Kind: KindStay, NightsOrUnits: 2, Rate: r},
			req:      stayRequest(day(2025, 1, 5), day(2025, 1, 7), 3),
			expected: "15",
			charged:  true,
		},
		{
			name:    "per person skipped after first period",
			fee:     Fee{Code: "welcome", Mode: FeePerPerson, Amount: dec("5"), Payable: PayableUs},
			period:  RatePeriod{Index: 1, Kind: KindStay, NightsOrUnits: 2, Rate: r},
			req:     stayRequest(day(2025, 1, 5), day(2025, 1, 7), 3),
			charged: false,
		},
		{
			name:     "per room per night",
			fee:      Fee{Code: FeeCodeResortFee, Mode: FeePerRoomPerNight, Amount: dec("7.5"), Payable: PayableProperty},
			period:   RatePeriod{Kind: KindStay, NightsOrUnits: 2, Rate: r},
			req:      stayRequest(day(2025, 1, 5), day(2025, 1, 7), 2),
			expected: "15",
			charged:  true,
		},
		{
			name:     "percent of rate",
			fee:      Fee{Code: "cleaning", Mode: FeePercentOfRate, Amount: dec("2.5"), Payable: PayableUs},
			period:   RatePeriod{Kind: KindStay, NightsOrUnits: 2, Rate: r},
			req:      stayRequest(day(2025, 1, 5), day(2025, 1, 7), 2),
			expected: "5",
			charged:  true,
		},
		{
			name:     "per night on ticket counts one night",
			fee:      Fee{Code: "venue", Mode: FeePerNight, Amount: dec("2"), Payable: PayableUs},
			period:   RatePeriod{Kind: KindTicket, NightsOrUnits: 4, Rate: r},
			req:      ticketRequest(day(2025, 1, 5), 4, AgeBandAdult),
			expected: "2",
			charged:  true,
		},
		{
			name:     "per person on ticket without party uses quantity",
			fee:      Fee{Code: "cloakroom", Mode: FeePerPerson, Amount: dec("1.5"), Payable: PayableProperty},
			period:   RatePeriod{Kind: KindTicket, NightsOrUnits: 4, Rate: r},
			req:      ticketRequest(day(2025, 1, 5), 4, AgeBandAdult),
			expected: "6",
			charged:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subtotal := r.BaseRate.Mul(dec("2"))
			lines := periodFees(tt.period, ContractEconomics{Fees: []Fee{tt.fee}}, tt.req, subtotal)
			if !tt.charged {
				if len(lines) != 0 {
					t.Errorf("periodFees() = %v, want no lines", lines)
				}
				return
			}
			if len(lines) != 1 {
				t.Fatalf("periodFees() returned %d lines, want 1", len(lines))
			}
			assertDecimal(t, tt.fee.Code, lines[0].Amount, tt.expected)
		})
	}
}

func TestPricePeriod_Ticket(t *testing.T) {
	r := rate("season", "40", day(2025, 5, 1), day(2025, 10, 1))
	req := ticketRequest(day(2025, 7, 1), 3, AgeBandChild)
	req.Channel = ChannelBoxOffice
	period := RatePeriod{Kind: KindTicket, NightsOrUnits: 3, Rate: r}

	got, err := PricePeriod(period, markupOnly("0.5"), req)
	if err != nil {
		t.Fatalf("PricePeriod() error = %v", err)
	}

	// 40 * 0.5 child, * 1.5 markup, * 1.05 box office
	assertDecimal(t, "BaseRate", got.BaseRate, "40")
	assertDecimal(t, "RoomOrUnitRate", got.RoomOrUnitRate, "20")
	assertDecimal(t, "MarkedUpRate", got.MarkedUpRate, "30")
	assertDecimal(t, "ChannelAdjustedRate", got.ChannelAdjustedRate, "31.5")
	assertDecimal(t, "Subtotal", got.Subtotal, "94.5")
}

func TestPricePeriod_Monotonic(t *testing.T) {
	r := rate("winter", "100", day(2025, 1, 1), day(2025, 3, 1))
	econ := ContractEconomics{DefaultMarkupPercentage: dec("0.3"), CustomerVatRate: dec("10"), ServiceFeePerUnit: dec("5")}
	period := RatePeriod{Kind: KindStay, NightsOrUnits: 2, Rate: r}

	prev := dec("-1")
	for _, pct := range []string{"100", "50", "20", "5", "0"} {
		req := stayRequest(day(2025, 1, 5), day(2025, 1, 7), 2)
		req.GroupDiscountPct = dec(pct)

		got, err := PricePeriod(period, econ, req)
		if err != nil {
			t.Fatalf("PricePeriod(group %s%%) error = %v", pct, err)
		}
		if got.Total.LessThan(prev) {
			t.Errorf("total %s at group %s%% is below total %s at a larger discount", got.Total, pct, prev)
		}
		prev = got.Total
	}
}

func TestPricePeriod_Errors(t *testing.T) {
	r := rate("winter", "100", day(2025, 1, 1), day(2025, 3, 1))
	period := RatePeriod{Kind: KindStay, NightsOrUnits: 1, Rate: r}
	base := stayRequest(day(2025, 1, 5), day(2025, 1, 6), 1)

	tests := []struct {
		name   string
		mutate func(*Request, *ContractEconomics, *RatePeriod)
		target error
	}{
		{
			name:   "unknown channel",
			mutate: func(req *Request, _ *ContractEconomics, _ *RatePeriod) { req.Channel = "telepathy" },
			target: ErrUnknownEnumValue,
		},
		{
			name:   "discount above 100",
			mutate: func(req *Request, _ *ContractEconomics, _ *RatePeriod) { req.EarlyBirdDiscountPct = dec("120") },
			target: ErrInvalidPricingInput,
		},
		{
			name:   "negative group discount",
			mutate: func(req *Request, _ *ContractEconomics, _ *RatePeriod) { req.GroupDiscountPct = dec("-5") },
			target: ErrInvalidPricingInput,
		},
		{
			name:   "markup as percentage points",
			mutate: func(_ *Request, econ *ContractEconomics, _ *RatePeriod) { econ.DefaultMarkupPercentage = dec("60") },
			target: ErrInvalidPricingInput,
		},
		{
			name:   "vat above 100",
			mutate: func(_ *Request, econ *ContractEconomics, _ *RatePeriod) { econ.CustomerVatRate = dec("150") },
			target: ErrInvalidPricingInput,
		},
		{
			name: "unknown fee mode",
			mutate: func(_ *Request, econ *ContractEconomics, _ *RatePeriod) {
				econ.Fees = []Fee{{Code: "x", Mode: "per_galaxy", Payable: PayableUs}}
			},
			target: ErrUnknownEnumValue,
		},
		{
			name:   "negative base rate",
			mutate: func(_ *Request, _ *ContractEconomics, p *RatePeriod) { p.Rate.BaseRate = dec("-1") },
			target: ErrInvalidPricingInput,
		},
		{
			name:   "empty period",
			mutate: func(_ *Request, _ *ContractEconomics, p *RatePeriod) { p.NightsOrUnits = 0 },
			target: ErrInvalidPricingInput,
		},
		{
			name:   "stay without guests",
			mutate: func(req *Request, _ *ContractEconomics, _ *RatePeriod) { req.Party = Party{} },
			target: ErrInvalidPricingInput,
		},
		{
			name: "ticket with unknown age band",
			mutate: func(req *Request, _ *ContractEconomics, p *RatePeriod) {
				*req = ticketRequest(day(2025, 1, 5), 1, "toddler")
				p.Kind = KindTicket
			},
			target: ErrUnknownEnumValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, econ, p := base, markupOnly("0.6"), period
			tt.mutate(&req, &econ, &p)

			_, err := PricePeriod(p, econ, req)
			if !errors.Is(err, tt.target) {
				t.Errorf("PricePeriod() error = %v, want %v", err, tt.target)
			}
		})
	}
}
