package engine

import (
	"github.com/shopspring/decimal"
)

// PricePeriod prices one rate period. The step order is fixed; reordering changes results.
func PricePeriod(period RatePeriod, econ ContractEconomics, req Request) (PeriodPrice, error) {
	if err := ValidateRate(period.Rate); err != nil {
		return PeriodPrice{}, err
	}
	if err := ValidateEconomics(econ); err != nil {
		return PeriodPrice{}, err
	}
	if err := ValidateRequest(req); err != nil {
		return PeriodPrice{}, err
	}
	if period.NightsOrUnits < 1 {
		return PeriodPrice{}, invalid("period", "must cover at least one night or unit")
	}

	base := period.Rate.BaseRate
	unitRate := base
	if period.Kind == KindTicket {
		aged, err := ApplyAgeBand(base, req.AgeBand)
		if err != nil {
			return PeriodPrice{}, err
		}
		unitRate = aged
	}

	// 1. room or unit rate
	roomOrUnitRate := unitRate.Add(req.AddOnCost)

	// 2. markup, rate level overrides the contract default
	markup := econ.DefaultMarkupPercentage
	if period.Rate.MarkupPercentage != nil {
		markup = *period.Rate.MarkupPercentage
	}
	markedUp := roomOrUnitRate.Mul(one.Add(markup))

	channelAdjusted, err := ApplyChannelAdjustment(markedUp, req.Channel)
	if err != nil {
		return PeriodPrice{}, err
	}

	// 3-4. discounts, early bird first
	afterEarlyBird := channelAdjusted.Mul(one.Sub(fromPercent(req.EarlyBirdDiscountPct)))
	afterGroup := afterEarlyBird.Mul(one.Sub(fromPercent(req.GroupDiscountPct)))
	if afterGroup.IsNegative() {
		return PeriodPrice{}, invalid("after_group_discount", "is negative")
	}

	// 5.
	units := decimal.NewFromInt(int64(period.NightsOrUnits))
	subtotal := afterGroup.Mul(units)

	// 6.
	lines := periodFees(period, econ, req, subtotal)
	feesIncluded := decimal.Zero
	feesAtProperty := decimal.Zero
	for _, l := range lines {
		if l.Payable == PayableUs {
			feesIncluded = feesIncluded.Add(l.Amount)
		} else {
			feesAtProperty = feesAtProperty.Add(l.Amount)
		}
	}

	// 7.
	commission := subtotal.Mul(econ.SupplierCommissionRate)
	supplierVat := commission.Mul(econ.SupplierVatRate)

	// 8.
	customerVat := fromPercent(subtotal.Add(feesIncluded).Mul(econ.CustomerVatRate))

	// 9.
	total := subtotal.Add(feesIncluded).Add(customerVat)

	return PeriodPrice{
		Period:              period,
		BaseRate:            base,
		AddOnCost:           req.AddOnCost,
		RoomOrUnitRate:      roomOrUnitRate,
		MarkedUpRate:        markedUp,
		ChannelAdjustedRate: channelAdjusted,
		AfterEarlyBird:      afterEarlyBird,
		AfterGroupDiscount:  afterGroup,
		Subtotal:            subtotal,
		FeesIncluded:        feesIncluded,
		FeesAtProperty:      feesAtProperty,
		Fees:                lines,
		Commission:          commission,
		SupplierVat:         supplierVat,
		CustomerVat:         customerVat,
		Total:               total,
	}, nil
}

// periodFees itemizes the contract fees for one period. Per-person and fixed fees are charged once per
// quote, in the first period.
func periodFees(period RatePeriod, econ ContractEconomics, req Request, subtotal decimal.Decimal) []FeeLine {
	nights := decimal.NewFromInt(int64(period.nights()))
	units := decimal.NewFromInt(int64(period.NightsOrUnits))
	guests := decimal.NewFromInt(int64(req.guests()))
	first := period.Index == 0

	lines := make([]FeeLine, 0, len(econ.Fees)+1)
	if econ.ServiceFeePerUnit.IsPositive() {
		lines = append(lines, FeeLine{
			Code:    FeeCodeServiceFee,
			Mode:    FeePerUnit,
			Payable: PayableUs,
			Amount:  econ.ServiceFeePerUnit.Mul(units),
		})
	}

	for _, f := range econ.Fees {
		var amount decimal.Decimal
		switch f.Mode {
		case FeePerUnit:
			amount = f.Amount.Mul(units)
		case FeePerPerson:
			if !first {
				continue
			}
			amount = f.Amount.Mul(guests)
		case FeePerNight, FeePerRoomPerNight:
			amount = f.Amount.Mul(nights)
		case FeePerPersonPerNight:
			amount = f.Amount.Mul(guests).Mul(nights)
		case FeePercentOfRate:
			amount = fromPercent(subtotal.Mul(f.Amount))
		case FeeFixed:
			if !first {
				continue
			}
			amount = f.Amount
		}
		lines = append(lines, FeeLine{Code: f.Code, Mode: f.Mode, Payable: f.Payable, Amount: amount})
	}
	return lines
}
