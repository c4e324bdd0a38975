package service

import (
	"time"

	"github.com/omerorhan/stay-pricing/internal/engine"
)

type QuoteResponse struct {
	QuoteID    string                `json:"quote_id"`
	CategoryID string                `json:"category_id"`
	ContractID string                `json:"contract_id"`
	Breakdown  engine.PriceBreakdown `json:"breakdown"`
	RevisionId int                   `json:"revision_id"`
	ValidUntil time.Time             `json:"valid_until"`
	QuotedAt   time.Time             `json:"quoted_at"`
	Explain    string                `json:"explain"`
}

// BatchResult carries either a quote or the error for the request at Index.
type BatchResult struct {
	Index int            `json:"index"`
	Quote *QuoteResponse `json:"quote,omitempty"`
	Err   error          `json:"-"`
}
