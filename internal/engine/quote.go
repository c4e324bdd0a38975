// Package engine prices stays and tickets from rate records and contract economics.
//
// Every function is pure: no I/O, no logging, no shared mutable state. Inputs are validated at the
// boundary and rejected with typed errors instead of being coerced to defaults.
package engine

// Quote runs the full pipeline: validate, resolve rate periods, price each period, aggregate.
// Only the records the resolver selects are validated in full.
func Quote(req Request, rates []RateRecord, econ ContractEconomics) (PriceBreakdown, error) {
	if err := ValidateRequest(req); err != nil {
		return PriceBreakdown{}, err
	}
	if err := ValidateEconomics(econ); err != nil {
		return PriceBreakdown{}, err
	}

	var periods []RatePeriod
	switch req.Kind {
	case KindStay:
		ps, err := ResolvePeriods(DateRange{Start: req.StartDate, End: req.EndDate}, rates, req.SelectedRateID)
		if err != nil {
			return PriceBreakdown{}, err
		}
		periods = ps
	case KindTicket:
		p, err := ResolveTicket(req.EventDate, req.Quantity, rates, req.SelectedRateID)
		if err != nil {
			return PriceBreakdown{}, err
		}
		periods = []RatePeriod{p}
	}

	prices := make([]PeriodPrice, 0, len(periods))
	for _, p := range periods {
		pp, err := PricePeriod(p, econ, req)
		if err != nil {
			return PriceBreakdown{}, err
		}
		prices = append(prices, pp)
	}

	return Aggregate(prices)
}
