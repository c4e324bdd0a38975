package engine

import (
	"sort"
	"strconv"

	"cloud.google.com/go/civil"
)

// MaxStayNights bounds a single stay quote.
const MaxStayNights = 366

// ResolvePeriods partitions the stay into contiguous periods, each governed by one rate record.
//
// For every night the candidates are the active records whose window contains the night and whose
// weekdays enable it. selectedRateID wins when it is a candidate, otherwise the narrowest window wins;
// a tie on the narrowest window is reported as an AmbiguousRateError.
func ResolvePeriods(stay DateRange, rates []RateRecord, selectedRateID string) ([]RatePeriod, error) {
	if !stay.Start.IsValid() || !stay.End.IsValid() {
		return nil, invalid("stay", "has an invalid date")
	}
	if !stay.Start.Before(stay.End) {
		return nil, invalid("stay", "must end after it starts")
	}
	if stay.Nights() > MaxStayNights {
		return nil, invalid("stay", "must not exceed "+strconv.Itoa(MaxStayNights)+" nights")
	}
	for i := range rates {
		if rates[i].Active && !rates[i].ValidFrom.Before(rates[i].ValidTo) {
			return nil, invalid("rate "+rates[i].ID, "valid_from must be before valid_to")
		}
	}

	var periods []RatePeriod
	current := -1
	for d := stay.Start; d.Before(stay.End); d = d.AddDays(1) {
		idx, err := selectRate(d, rates, selectedRateID)
		if err != nil {
			return nil, err
		}
		if idx == current {
			last := &periods[len(periods)-1]
			last.EndDate = d.AddDays(1)
			last.NightsOrUnits++
			continue
		}
		periods = append(periods, RatePeriod{
			Index:         len(periods),
			Kind:          KindStay,
			StartDate:     d,
			EndDate:       d.AddDays(1),
			NightsOrUnits: 1,
			Rate:          rates[idx],
		})
		current = idx
	}

	return periods, nil
}

// ResolveTicket selects the rate for a single event date and returns one period of quantity units.
func ResolveTicket(eventDate civil.Date, quantity int, rates []RateRecord, selectedRateID string) (RatePeriod, error) {
	if !eventDate.IsValid() {
		return RatePeriod{}, invalid("event_date", "is not a valid date")
	}
	if quantity < 1 {
		return RatePeriod{}, invalid("quantity", "must be at least 1")
	}
	for i := range rates {
		if rates[i].Active && !rates[i].ValidFrom.Before(rates[i].ValidTo) {
			return RatePeriod{}, invalid("rate "+rates[i].ID, "valid_from must be before valid_to")
		}
	}

	idx, err := selectRate(eventDate, rates, selectedRateID)
	if err != nil {
		return RatePeriod{}, err
	}
	return RatePeriod{
		Index:         0,
		Kind:          KindTicket,
		StartDate:     eventDate,
		EndDate:       eventDate.AddDays(1),
		NightsOrUnits: quantity,
		Rate:          rates[idx],
	}, nil
}

// selectRate returns the index of the record governing d.
func selectRate(d civil.Date, rates []RateRecord, selectedRateID string) (int, error) {
	var candidates []int
	for i, r := range rates {
		if r.Active && r.Contains(d) && r.AppliesOn(d) {
			candidates = append(candidates, i)
		}
	}

	switch len(candidates) {
	case 0:
		return -1, &NoApplicableRateError{Date: d}
	case 1:
		return candidates[0], nil
	}

	if selectedRateID != "" {
		for _, i := range candidates {
			if rates[i].ID == selectedRateID {
				return i, nil
			}
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return rates[candidates[a]].WindowDays() < rates[candidates[b]].WindowDays()
	})
	narrowest := rates[candidates[0]].WindowDays()
	if rates[candidates[1]].WindowDays() > narrowest {
		return candidates[0], nil
	}

	var ids []string
	for _, i := range candidates {
		if rates[i].WindowDays() == narrowest {
			ids = append(ids, rates[i].ID)
		}
	}
	sort.Strings(ids)
	return -1, &AmbiguousRateError{Date: d, RateIDs: ids}
}
