package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
)

// InventorySource produces the current inventory snapshot.
type InventorySource interface {
	FetchInventory(ctx context.Context) (*InventoryEnvelope, error)
}

// httpSource pulls the snapshot from the inventory store's HTTP API.
type httpSource struct {
	baseURL string
	auth    string
	client  *http.Client
}

func newHTTPSource(baseURL, auth string, timeout time.Duration) *httpSource {
	return &httpSource{
		baseURL: baseURL,
		auth:    auth,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *httpSource) FetchInventory(ctx context.Context) (*InventoryEnvelope, error) {
	url := s.baseURL + InventorySnapshotPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if user, pass, ok := parseBasicAuthPair(s.auth); ok {
		req.SetBasicAuth(user, pass)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read inventory body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("inventory http %d: %s", resp.StatusCode, string(b))
	}

	var env InventoryEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	if !env.IsSuccessful {
		return nil, fmt.Errorf("inventory store reported failure: %v", env.Error)
	}
	return &env, nil
}
