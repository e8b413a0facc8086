// Package fx fetches foreign-exchange quotes from the external rate
// service. A failed quote must never crash the caller; the cart clears
// its converted total instead of showing a stale one.
package fx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrQuoteUnavailable = errors.New("exchange rate unavailable")

// Client looks up the conversion rate from a base currency to a quote
// currency.
type Client interface {
	Quote(ctx context.Context, base, symbol string) (decimal.Decimal, error)
}

type httpClient struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a quote client against an exchangerate.host-style API.
func NewClient(baseURL string, client *http.Client) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type quoteResponse struct {
	Success bool                       `json:"success"`
	Rates   map[string]decimal.Decimal `json:"rates"`
}

func (c *httpClient) Quote(ctx context.Context, base, symbol string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("base", base)
	query.Set("symbols", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build quote request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decimal.Zero, fmt.Errorf("%w: rate service returned %d", ErrQuoteUnavailable, resp.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrQuoteUnavailable, err)
	}

	rate, ok := body.Rates[symbol]
	if !body.Success || !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s rate in response", ErrQuoteUnavailable, symbol)
	}

	return rate, nil
}
