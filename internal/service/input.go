package service

import (
	"github.com/omerorhan/stay-pricing/internal/engine"
)

// QuoteRequest prices Request against one category's rates under one contract.
type QuoteRequest struct {
	CategoryID string `json:"category_id"`
	ContractID string `json:"contract_id"`
	engine.Request
}
