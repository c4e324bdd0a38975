package engine

import (
	"github.com/shopspring/decimal"
)

// Aggregate sums period results into a breakdown. Rate fields are night-weighted averages for display
// only; totals come from the per-period sums.
func Aggregate(prices []PeriodPrice) (PriceBreakdown, error) {
	if len(prices) == 0 {
		return PriceBreakdown{}, invalid("periods", "must not be empty")
	}

	b := PriceBreakdown{
		Currency: prices[0].Period.Rate.Currency,
		Fees:     []FeeLine{},
		Periods:  make([]PeriodPrice, len(prices)),
	}
	copy(b.Periods, prices)

	var (
		weighted   rateSums
		totalUnits int64
		feeIndex   = map[feeKey]int{}
	)

	for _, p := range prices {
		if p.Period.Rate.Currency != b.Currency {
			return PriceBreakdown{}, invalid("periods", "mix currencies "+b.Currency+" and "+p.Period.Rate.Currency)
		}
		if p.Period.NightsOrUnits < 1 {
			return PriceBreakdown{}, invalid("periods", "must cover at least one night or unit")
		}
		n := int64(p.Period.NightsOrUnits)
		totalUnits += n
		weighted.add(p, decimal.NewFromInt(n))

		b.Subtotal = b.Subtotal.Add(p.Subtotal)
		b.FeesIncluded = b.FeesIncluded.Add(p.FeesIncluded)
		b.FeesAtProperty = b.FeesAtProperty.Add(p.FeesAtProperty)
		b.TaxesAndFees.CustomerVat = b.TaxesAndFees.CustomerVat.Add(p.CustomerVat)
		b.SupplierSide.Commission = b.SupplierSide.Commission.Add(p.Commission)
		b.SupplierSide.SupplierVat = b.SupplierSide.SupplierVat.Add(p.SupplierVat)
		b.Total = b.Total.Add(p.Total)

		for _, l := range p.Fees {
			switch l.Code {
			case FeeCodeCityTax:
				b.TaxesAndFees.CityTax = b.TaxesAndFees.CityTax.Add(l.Amount)
			case FeeCodeResortFee:
				b.TaxesAndFees.ResortFee = b.TaxesAndFees.ResortFee.Add(l.Amount)
			default:
				b.TaxesAndFees.ServiceFees = b.TaxesAndFees.ServiceFees.Add(l.Amount)
			}

			k := feeKey{l.Code, l.Mode, l.Payable}
			if i, ok := feeIndex[k]; ok {
				b.Fees[i].Amount = b.Fees[i].Amount.Add(l.Amount)
				continue
			}
			feeIndex[k] = len(b.Fees)
			b.Fees = append(b.Fees, l)
		}
	}

	b.NightsOrUnits = int(totalUnits)
	weighted.averageInto(&b, decimal.NewFromInt(totalUnits))

	supplierCost := b.SupplierSide.Commission.Add(b.SupplierSide.SupplierVat)
	b.MarginEstimate = b.Total.Sub(supplierCost)

	return b, nil
}

type feeKey struct {
	code    string
	mode    FeeMode
	payable Payable
}

type rateSums struct {
	base, addOn, markedUp, channel, earlyBird, group decimal.Decimal
}

func (s *rateSums) add(p PeriodPrice, n decimal.Decimal) {
	s.base = s.base.Add(p.BaseRate.Mul(n))
	s.addOn = s.addOn.Add(p.AddOnCost.Mul(n))
	s.markedUp = s.markedUp.Add(p.MarkedUpRate.Mul(n))
	s.channel = s.channel.Add(p.ChannelAdjustedRate.Mul(n))
	s.earlyBird = s.earlyBird.Add(p.AfterEarlyBird.Mul(n))
	s.group = s.group.Add(p.AfterGroupDiscount.Mul(n))
}

func (s *rateSums) averageInto(b *PriceBreakdown, units decimal.Decimal) {
	b.BaseRate = s.base.Div(units)
	b.BoardOrAddOnCost = s.addOn.Div(units)
	b.MarkedUpRate = s.markedUp.Div(units)
	b.ChannelAdjustedRate = s.channel.Div(units)
	b.AfterEarlyBird = s.earlyBird.Div(units)
	b.AfterGroupDiscount = s.group.Div(units)
}

// Rounded returns a copy with every amount rounded to places for display.
func (b PriceBreakdown) Rounded(places int32) PriceBreakdown {
	r := b
	for _, d := range []*decimal.Decimal{
		&r.BaseRate, &r.BoardOrAddOnCost, &r.MarkedUpRate, &r.ChannelAdjustedRate, &r.AfterEarlyBird,
		&r.AfterGroupDiscount, &r.Subtotal, &r.FeesIncluded, &r.FeesAtProperty,
		&r.TaxesAndFees.CityTax, &r.TaxesAndFees.ResortFee, &r.TaxesAndFees.CustomerVat,
		&r.TaxesAndFees.ServiceFees, &r.SupplierSide.Commission, &r.SupplierSide.SupplierVat,
		&r.Total, &r.MarginEstimate,
	} {
		*d = d.Round(places)
	}

	r.Fees = make([]FeeLine, len(b.Fees))
	for i, l := range b.Fees {
		l.Amount = l.Amount.Round(places)
		r.Fees[i] = l
	}

	r.Periods = make([]PeriodPrice, len(b.Periods))
	for i, p := range b.Periods {
		r.Periods[i] = p.rounded(places)
	}
	return r
}

func (p PeriodPrice) rounded(places int32) PeriodPrice {
	r := p
	for _, d := range []*decimal.Decimal{
		&r.BaseRate, &r.AddOnCost, &r.RoomOrUnitRate, &r.MarkedUpRate, &r.ChannelAdjustedRate,
		&r.AfterEarlyBird, &r.AfterGroupDiscount, &r.Subtotal, &r.FeesIncluded, &r.FeesAtProperty,
		&r.Commission, &r.SupplierVat, &r.CustomerVat, &r.Total,
	} {
		*d = d.Round(places)
	}
	r.Fees = make([]FeeLine, len(p.Fees))
	for i, l := range p.Fees {
		l.Amount = l.Amount.Round(places)
		r.Fees[i] = l
	}
	return r
}
