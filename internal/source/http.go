package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/muandane/opcachestat/internal/bytecode"
)

// HTTP fetches the status from an endpoint that echoes
// json_encode(opcache_get_status()).
type HTTP struct {
	url    string
	client *http.Client
}

func NewHTTP(url string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{url: url, client: client}
}

func (h *HTTP) Status(ctx context.Context) (*bytecode.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching status from %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching status from %s: unexpected status %s", h.url, resp.Status)
	}

	body, err := readStatus(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading status from %s: %w", h.url, err)
	}
	return bytecode.ParseStatus(body)
}
