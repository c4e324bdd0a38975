package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/omerorhan/stay-pricing/internal/engine"
	"github.com/omerorhan/stay-pricing/internal/service"
	"github.com/omerorhan/stay-pricing/internal/storage"
)

const (
	QuotePath  = "/v1/quote"
	QuotesPath = "/v1/quotes"
	HealthPath = "/v1/health"

	maxRoundPlaces = 8
	maxBatchSize   = 100
)

// Quoter is the part of the pricing service the HTTP layer needs.
type Quoter interface {
	Quote(ctx context.Context, req service.QuoteRequest) (*service.QuoteResponse, error)
	QuoteBatch(ctx context.Context, reqs []service.QuoteRequest) []service.BatchResult
	RevisionInfo() (*service.RevisionInfo, error)
}

type Handler struct {
	quoter  Quoter
	logger  *slog.Logger
	timeout time.Duration
}

func New(quoter Quoter, logger *slog.Logger, timeout time.Duration) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{quoter: quoter, logger: logger, timeout: timeout}
}

// Handle routes a request; it is the fasthttp.RequestHandler of the server.
func (h *Handler) Handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case QuotePath:
		h.handleQuote(ctx)
	case QuotesPath:
		h.handleBatch(ctx)
	case HealthPath:
		h.handleHealth(ctx)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "not_found", "No route for "+string(ctx.Path()))
	}
}

func (h *Handler) handleQuote(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	places, ok := roundPlaces(ctx)
	if !ok {
		return
	}

	var req service.QuoteRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	quote, err := h.quoter.Quote(reqCtx, req)
	if err != nil {
		status, code := classify(err)
		h.logFailure(req, status, err)
		writeError(ctx, status, code, err.Error())
		return
	}

	writeJSON(ctx, fasthttp.StatusOK, rounded(quote, places))
}

type batchRequest struct {
	Requests []service.QuoteRequest `json:"requests"`
}

type batchItem struct {
	Index int                    `json:"index"`
	Quote *service.QuoteResponse `json:"quote,omitempty"`
	Error *ErrorResponse         `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

func (h *Handler) handleBatch(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	places, ok := roundPlaces(ctx)
	if !ok {
		return
	}

	var req batchRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Requests) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_body", "At least one request is required")
		return
	}
	if len(req.Requests) > maxBatchSize {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_body", "At most "+strconv.Itoa(maxBatchSize)+" requests per batch")
		return
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	results := h.quoter.QuoteBatch(reqCtx, req.Requests)

	resp := batchResponse{Results: make([]batchItem, len(results))}
	for i, r := range results {
		item := batchItem{Index: r.Index}
		if r.Err != nil {
			status, code := classify(r.Err)
			h.logFailure(req.Requests[r.Index], status, r.Err)
			item.Error = &ErrorResponse{Status: status, Message: r.Err.Error(), Code: code}
		} else {
			item.Quote = rounded(r.Quote, places)
		}
		resp.Results[i] = item
	}

	writeJSON(ctx, fasthttp.StatusOK, resp)
}

func (h *Handler) handleHealth(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	info, err := h.quoter.RevisionInfo()
	if err != nil {
		writeError(ctx, fasthttp.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	if !info.IsValid {
		writeJSON(ctx, fasthttp.StatusServiceUnavailable, info)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, info)
}

func (h *Handler) logFailure(req service.QuoteRequest, status int, err error) {
	level := slog.LevelInfo
	if status >= fasthttp.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(context.Background(), level, "quote failed",
		"category_id", req.CategoryID,
		"contract_id", req.ContractID,
		"kind", req.Kind,
		"status", status,
		"error", err)
}

// roundPlaces reads ?round=N. Without it amounts keep full precision.
func roundPlaces(ctx *fasthttp.RequestCtx) (int32, bool) {
	raw := ctx.QueryArgs().Peek("round")
	if raw == nil {
		return -1, true
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 || n > maxRoundPlaces {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid_round",
			"round must be an integer between 0 and "+strconv.Itoa(maxRoundPlaces))
		return 0, false
	}
	return int32(n), true
}

func rounded(q *service.QuoteResponse, places int32) *service.QuoteResponse {
	if q == nil || places < 0 {
		return q
	}
	out := *q
	out.Breakdown = q.Breakdown.Rounded(places)
	return &out
}

// classify maps a pricing error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrUnknownEnumValue):
		return fasthttp.StatusBadRequest, "unknown_enum_value"
	case errors.Is(err, engine.ErrInvalidPricingInput):
		return fasthttp.StatusBadRequest, "invalid_pricing_input"
	case errors.Is(err, storage.ErrUnknownCategory):
		return fasthttp.StatusNotFound, "unknown_category"
	case errors.Is(err, storage.ErrUnknownContract):
		return fasthttp.StatusNotFound, "unknown_contract"
	case errors.Is(err, engine.ErrAmbiguousRateSelection):
		return fasthttp.StatusConflict, "ambiguous_rate_selection"
	case errors.Is(err, engine.ErrNoApplicableRate):
		return fasthttp.StatusUnprocessableEntity, "no_applicable_rate"
	case errors.Is(err, service.ErrNotInitialized), errors.Is(err, service.ErrStaleInventory):
		return fasthttp.StatusServiceUnavailable, "inventory_unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fasthttp.StatusGatewayTimeout, "timeout"
	default:
		return fasthttp.StatusInternalServerError, "internal"
	}
}
