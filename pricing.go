// Package pricing quotes multi-night stays and event tickets across sales channels. A Client keeps
// an inventory snapshot fresh in the background; the pure pricing steps are re-exported for callers
// that bring their own rate records.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/omerorhan/stay-pricing/internal/engine"
	"github.com/omerorhan/stay-pricing/internal/service"
	"github.com/omerorhan/stay-pricing/internal/storage"
)

// Client provides a clean public API for the pricing service
type Client struct {
	service *service.PricingService
}

// NewClient creates a new pricing service client
func NewClient(options ...ServiceOption) (*Client, error) {
	svc, err := service.NewPricingService(options...)
	if err != nil {
		return nil, err
	}

	return &Client{
		service: svc,
	}, nil
}

// Initialize starts the pricing service
func (c *Client) Initialize() error {
	return c.service.Initialize()
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	return c.service.Quote(ctx, req)
}

func (c *Client) QuoteBatch(ctx context.Context, reqs []QuoteRequest) []BatchResult {
	return c.service.QuoteBatch(ctx, reqs)
}

func (c *Client) RevisionInfo() (*RevisionInfo, error) {
	return c.service.RevisionInfo()
}

// Stop gracefully shuts down the service
func (c *Client) Stop() error {
	c.service.Stop()
	return nil
}

// Service options (re-exported for convenience)
type ServiceOption = service.ServiceOption

// Re-export service options for clean API
var (
	WithInventoryBaseUrl         = service.WithInventoryBaseUrl
	WithInventorySource          = service.WithInventorySource
	WithRedisConfig              = service.WithRedisConfig
	WithInventoryRefreshInterval = service.WithInventoryRefreshInterval
	WithFetchTimeout             = service.WithFetchTimeout
	WithLogging                  = service.WithLogging
	WithLogger                   = service.WithLogger
	WithDistributed              = service.WithDistributed
	WithSyncInterval             = service.WithSyncInterval
	WithLeaderTTL                = service.WithLeaderTTL
	WithBatchConcurrency         = service.WithBatchConcurrency
)

// Re-export common types for convenience
type (
	QuoteRequest      = service.QuoteRequest
	QuoteResponse     = service.QuoteResponse
	BatchResult       = service.BatchResult
	RevisionInfo      = service.RevisionInfo
	InventorySource   = service.InventorySource
	InventoryEnvelope = storage.InventoryEnvelope

	Request           = engine.Request
	RateRecord        = engine.RateRecord
	ContractEconomics = engine.ContractEconomics
	Fee               = engine.Fee
	DateRange         = engine.DateRange
	RatePeriod        = engine.RatePeriod
	PeriodPrice       = engine.PeriodPrice
	PriceBreakdown    = engine.PriceBreakdown
	Party             = engine.Party
	Channel           = engine.Channel
	AgeBand           = engine.AgeBand
)

const (
	KindStay   = engine.KindStay
	KindTicket = engine.KindTicket

	ChannelWeb       = engine.ChannelWeb
	ChannelB2B       = engine.ChannelB2B
	ChannelInternal  = engine.ChannelInternal
	ChannelBoxOffice = engine.ChannelBoxOffice
	ChannelReseller  = engine.ChannelReseller

	AgeBandAdult   = engine.AgeBandAdult
	AgeBandChild   = engine.AgeBandChild
	AgeBandSenior  = engine.AgeBandSenior
	AgeBandStudent = engine.AgeBandStudent
	AgeBandInfant  = engine.AgeBandInfant

	FeePerUnit           = engine.FeePerUnit
	FeePerPerson         = engine.FeePerPerson
	FeePerNight          = engine.FeePerNight
	FeePerPersonPerNight = engine.FeePerPersonPerNight
	FeePerRoomPerNight   = engine.FeePerRoomPerNight
	FeePercentOfRate     = engine.FeePercentOfRate
	FeeFixed             = engine.FeeFixed

	PayableUs       = engine.PayableUs
	PayableProperty = engine.PayableProperty

	FeeCodeCityTax   = engine.FeeCodeCityTax
	FeeCodeResortFee = engine.FeeCodeResortFee
)

var (
	ErrNotInitialized         = service.ErrNotInitialized
	ErrStaleInventory         = service.ErrStaleInventory
	ErrUnknownCategory        = storage.ErrUnknownCategory
	ErrUnknownContract        = storage.ErrUnknownContract
	ErrNoApplicableRate       = engine.ErrNoApplicableRate
	ErrAmbiguousRateSelection = engine.ErrAmbiguousRateSelection
	ErrInvalidPricingInput    = engine.ErrInvalidPricingInput
	ErrUnknownEnumValue       = engine.ErrUnknownEnumValue
)

// PriceQuote resolves and prices req against rates without any snapshot or background refresh.
func PriceQuote(req Request, rates []RateRecord, econ ContractEconomics) (PriceBreakdown, error) {
	return engine.Quote(req, rates, econ)
}

func ResolvePeriods(dr DateRange, rates []RateRecord, selectedRateID string) ([]RatePeriod, error) {
	return engine.ResolvePeriods(dr, rates, selectedRateID)
}

func PricePeriod(period RatePeriod, econ ContractEconomics, req Request) (PeriodPrice, error) {
	return engine.PricePeriod(period, econ, req)
}

func Aggregate(prices []PeriodPrice) (PriceBreakdown, error) {
	return engine.Aggregate(prices)
}

func ApplyChannelAdjustment(rate decimal.Decimal, ch Channel) (decimal.Decimal, error) {
	return engine.ApplyChannelAdjustment(rate, ch)
}
