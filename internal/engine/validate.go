package engine

import (
	"github.com/shopspring/decimal"
)

func inUnitRange(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(one)
}

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && !d.GreaterThan(hundred)
}

// ValidateEconomics checks every contract field against its unit convention.
func ValidateEconomics(econ ContractEconomics) error {
	if !inUnitRange(econ.SupplierCommissionRate) {
		return invalid("supplier_commission_rate", "must be a fraction in [0,1]")
	}
	if !inUnitRange(econ.SupplierVatRate) {
		return invalid("supplier_vat_rate", "must be a fraction in [0,1]")
	}
	if !inPercentRange(econ.CustomerVatRate) {
		return invalid("customer_vat_rate", "must be in percentage points [0,100]")
	}
	if !inUnitRange(econ.DefaultMarkupPercentage) {
		return invalid("default_markup_percentage", "must be a fraction in [0,1]")
	}
	if econ.ServiceFeePerUnit.IsNegative() {
		return invalid("service_fee_per_unit", "must not be negative")
	}
	for _, f := range econ.Fees {
		if !validFeeMode(f.Mode) {
			return &UnknownEnumError{Kind: "fee mode", Value: string(f.Mode)}
		}
		if !validPayable(f.Payable) {
			return &UnknownEnumError{Kind: "fee payable", Value: string(f.Payable)}
		}
		if f.Amount.IsNegative() {
			return invalid("fee "+f.Code, "amount must not be negative")
		}
		if f.Mode == FeePercentOfRate && f.Amount.GreaterThan(hundred) {
			return invalid("fee "+f.Code, "percent_of_rate must be in percentage points [0,100]")
		}
	}
	return nil
}

// ValidateRate checks a single rate record.
func ValidateRate(r RateRecord) error {
	if r.BaseRate.IsNegative() {
		return invalid("rate "+r.ID, "base_rate must not be negative")
	}
	if r.Currency == "" {
		return invalid("rate "+r.ID, "currency is required")
	}
	if !r.ValidFrom.Before(r.ValidTo) {
		return invalid("rate "+r.ID, "valid_from must be before valid_to")
	}
	if r.MarkupPercentage != nil && !inUnitRange(*r.MarkupPercentage) {
		return invalid("rate "+r.ID, "markup_percentage must be a fraction in [0,1]")
	}
	return nil
}

// ValidateRequest checks the request shape and enum values. Dates are checked by the resolver.
func ValidateRequest(req Request) error {
	if _, err := ChannelCoefficient(req.Channel); err != nil {
		return err
	}

	switch req.Kind {
	case KindStay:
		if req.Party.Total() < 1 {
			return invalid("party", "must include at least one guest")
		}
	case KindTicket:
		if _, err := AgeBandMultiplier(req.AgeBand); err != nil {
			return err
		}
		if req.Quantity < 1 {
			return invalid("quantity", "must be at least 1")
		}
	default:
		return &UnknownEnumError{Kind: "request kind", Value: string(req.Kind)}
	}

	if req.Party.Adults < 0 || req.Party.Children < 0 {
		return invalid("party", "counts must not be negative")
	}
	if req.AddOnCost.IsNegative() {
		return invalid("add_on_cost", "must not be negative")
	}
	if !inPercentRange(req.EarlyBirdDiscountPct) {
		return invalid("early_bird_discount_pct", "must be in percentage points [0,100]")
	}
	if !inPercentRange(req.GroupDiscountPct) {
		return invalid("group_discount_pct", "must be in percentage points [0,100]")
	}
	return nil
}
