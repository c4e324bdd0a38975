package engine

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

type Channel string

const (
	ChannelWeb       Channel = "web"
	ChannelB2B       Channel = "b2b"
	ChannelInternal  Channel = "internal"
	ChannelBoxOffice Channel = "box_office"
	ChannelReseller  Channel = "reseller"
)

type AgeBand string

const (
	AgeBandAdult   AgeBand = "adult"
	AgeBandChild   AgeBand = "child"
	AgeBandSenior  AgeBand = "senior"
	AgeBandStudent AgeBand = "student"
	AgeBandInfant  AgeBand = "infant"
)

type FeeMode string

const (
	FeePerUnit           FeeMode = "per_unit"
	FeePerPerson         FeeMode = "per_person"
	FeePerNight          FeeMode = "per_night"
	FeePerPersonPerNight FeeMode = "per_person_per_night"
	FeePerRoomPerNight   FeeMode = "per_room_per_night"
	FeePercentOfRate     FeeMode = "percent_of_rate"
	FeeFixed             FeeMode = "fixed"
)

type Payable string

const (
	PayableUs       Payable = "us"
	PayableProperty Payable = "property"
)

type Kind string

const (
	KindStay   Kind = "stay"
	KindTicket Kind = "ticket"
)

// Fee codes with a dedicated slot in TaxesAndFees. Any other code is a service fee.
const (
	FeeCodeCityTax    = "city_tax"
	FeeCodeResortFee  = "resort_fee"
	FeeCodeServiceFee = "service_fee"
)

// RateRecord is one priced offering for a category over the half-open window [ValidFrom, ValidTo).
// MarkupPercentage is a fraction (0.6 = 60%) and overrides the contract default when set.
// An empty DaysOfWeek enables every weekday.
type RateRecord struct {
	ID               string           `json:"id"`
	CategoryID       string           `json:"category_id"`
	ContractID       string           `json:"contract_id,omitempty"`
	BaseRate         decimal.Decimal  `json:"base_rate"`
	Currency         string           `json:"currency"`
	ValidFrom        civil.Date       `json:"valid_from"`
	ValidTo          civil.Date       `json:"valid_to"`
	MarkupPercentage *decimal.Decimal `json:"markup_percentage,omitempty"`
	DaysOfWeek       []time.Weekday   `json:"days_of_week,omitempty"`
	Active           bool             `json:"active"`
}

// Contains reports whether d falls inside the record's validity window.
func (r RateRecord) Contains(d civil.Date) bool {
	return !d.Before(r.ValidFrom) && d.Before(r.ValidTo)
}

// AppliesOn reports whether the record is enabled on the weekday of d.
func (r RateRecord) AppliesOn(d civil.Date) bool {
	if len(r.DaysOfWeek) == 0 {
		return true
	}
	wd := d.In(time.UTC).Weekday()
	for _, w := range r.DaysOfWeek {
		if w == wd {
			return true
		}
	}
	return false
}

// WindowDays is the width of the validity window in days.
func (r RateRecord) WindowDays() int {
	return r.ValidTo.DaysSince(r.ValidFrom)
}

type Fee struct {
	Code    string          `json:"code"`
	Mode    FeeMode         `json:"mode"`
	Amount  decimal.Decimal `json:"amount"`
	Payable Payable         `json:"payable"`
}

// ContractEconomics carries the supplier-side terms of a contract.
//
// SupplierCommissionRate, SupplierVatRate and DefaultMarkupPercentage are fractions in [0,1].
// CustomerVatRate is in percentage points (5 = 5%). ServiceFeePerUnit is a flat amount charged per
// night or ticket and payable to us.
type ContractEconomics struct {
	ContractID              string          `json:"contract_id"`
	SupplierCommissionRate  decimal.Decimal `json:"supplier_commission_rate"`
	SupplierVatRate         decimal.Decimal `json:"supplier_vat_rate"`
	CustomerVatRate         decimal.Decimal `json:"customer_vat_rate"`
	DefaultMarkupPercentage decimal.Decimal `json:"default_markup_percentage"`
	ServiceFeePerUnit       decimal.Decimal `json:"service_fee_per_unit"`
	Fees                    []Fee           `json:"fees,omitempty"`
}

type Party struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
}

func (p Party) Total() int { return p.Adults + p.Children }

// Request is the pricing query for either a stay (StartDate/EndDate) or a ticket (EventDate/Quantity).
// Discounts are in percentage points. AgeBand is required for tickets and ignored for stays.
type Request struct {
	Kind                 Kind            `json:"kind"`
	StartDate            civil.Date      `json:"start_date"`
	EndDate              civil.Date      `json:"end_date"`
	EventDate            civil.Date      `json:"event_date"`
	Quantity             int             `json:"quantity"`
	Party                Party           `json:"party"`
	Channel              Channel         `json:"channel"`
	AgeBand              AgeBand         `json:"age_band,omitempty"`
	AddOnCost            decimal.Decimal `json:"add_on_cost"`
	GroupDiscountPct     decimal.Decimal `json:"group_discount_pct"`
	EarlyBirdDiscountPct decimal.Decimal `json:"early_bird_discount_pct"`
	SelectedRateID       string          `json:"selected_rate_id,omitempty"`
}

// guests is the headcount used by per-person fees.
func (r Request) guests() int {
	if r.Kind == KindTicket && r.Party.Total() == 0 {
		return r.Quantity
	}
	return r.Party.Total()
}

// DateRange is a half-open range of nights [Start, End).
type DateRange struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

func (dr DateRange) Nights() int { return dr.End.DaysSince(dr.Start) }

// RatePeriod is a run of consecutive nights (or one ticket date) governed by a single rate record.
type RatePeriod struct {
	Index         int        `json:"index"`
	Kind          Kind       `json:"kind"`
	StartDate     civil.Date `json:"start_date"`
	EndDate       civil.Date `json:"end_date"`
	NightsOrUnits int        `json:"nights_or_units"`
	Rate          RateRecord `json:"rate"`
}

// nights is the night count used by per-night fees; a ticket date counts as one.
func (p RatePeriod) nights() int {
	if p.Kind == KindTicket {
		return 1
	}
	return p.NightsOrUnits
}

type FeeLine struct {
	Code    string          `json:"code"`
	Mode    FeeMode         `json:"mode"`
	Payable Payable         `json:"payable"`
	Amount  decimal.Decimal `json:"amount"`
}

type TaxesAndFees struct {
	CityTax     decimal.Decimal `json:"city_tax"`
	ResortFee   decimal.Decimal `json:"resort_fee"`
	CustomerVat decimal.Decimal `json:"customer_vat"`
	ServiceFees decimal.Decimal `json:"service_fees"`
}

type SupplierSide struct {
	Commission  decimal.Decimal `json:"commission"`
	SupplierVat decimal.Decimal `json:"supplier_vat"`
}

// PeriodPrice is the priced result of one RatePeriod. Rate fields are per night or per unit.
type PeriodPrice struct {
	Period              RatePeriod      `json:"period"`
	BaseRate            decimal.Decimal `json:"base_rate"`
	AddOnCost           decimal.Decimal `json:"add_on_cost"`
	RoomOrUnitRate      decimal.Decimal `json:"room_or_unit_rate"`
	MarkedUpRate        decimal.Decimal `json:"marked_up_rate"`
	ChannelAdjustedRate decimal.Decimal `json:"channel_adjusted_rate"`
	AfterEarlyBird      decimal.Decimal `json:"after_early_bird"`
	AfterGroupDiscount  decimal.Decimal `json:"after_group_discount"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	FeesIncluded        decimal.Decimal `json:"fees_included"`
	FeesAtProperty      decimal.Decimal `json:"fees_at_property"`
	Fees                []FeeLine       `json:"fees"`
	Commission          decimal.Decimal `json:"commission"`
	SupplierVat         decimal.Decimal `json:"supplier_vat"`
	CustomerVat         decimal.Decimal `json:"customer_vat"`
	Total               decimal.Decimal `json:"total"`
}

// PriceBreakdown is the stay or ticket level result. The per-unit rate fields are night-weighted
// averages for display; every amount is summed from the periods.
type PriceBreakdown struct {
	Currency            string          `json:"currency"`
	NightsOrUnits       int             `json:"nights_or_units"`
	BaseRate            decimal.Decimal `json:"base_rate"`
	BoardOrAddOnCost    decimal.Decimal `json:"board_or_add_on_cost"`
	MarkedUpRate        decimal.Decimal `json:"marked_up_rate"`
	ChannelAdjustedRate decimal.Decimal `json:"channel_adjusted_rate"`
	AfterEarlyBird      decimal.Decimal `json:"after_early_bird"`
	AfterGroupDiscount  decimal.Decimal `json:"after_group_discount"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	FeesIncluded        decimal.Decimal `json:"fees_included"`
	FeesAtProperty      decimal.Decimal `json:"fees_at_property"`
	TaxesAndFees        TaxesAndFees    `json:"taxes_and_fees"`
	SupplierSide        SupplierSide    `json:"supplier_side"`
	Total               decimal.Decimal `json:"total"`
	MarginEstimate      decimal.Decimal `json:"margin_estimate"`
	Fees                []FeeLine       `json:"fees"`
	Periods             []PeriodPrice   `json:"periods"`
}
