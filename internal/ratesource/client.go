// Package ratesource fetches currency exchange rates from the configured
// quote provider. Rates are read fresh on every call; the refresh job is
// the only consumer and runs daily.
package ratesource

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	internal "github.com/wytlabs/cardops/internal"
)

// Source yields the conversion rate from one currency into another.
type Source interface {
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

type Config struct {
	QuoteURL string
	APIKey   string
	Timeout  time.Duration
}

type Client struct {
	quoteURL   string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		quoteURL:   config.QuoteURL,
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type quoteResponse struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Rate decimal.Decimal `json:"rate"`
}

// Rate returns how many units of `to` one unit of `from` buys. Same
// currency is always 1 without a provider round-trip.
func (c *Client) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	endpoint, err := url.Parse(c.quoteURL)
	if err != nil {
		return decimal.Zero, internal.NewExternalError("invalid quote provider URL", internal.ErrCodeRateLookupFailed, err)
	}
	query := endpoint.Query()
	query.Set("from", from)
	query.Set("to", to)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return decimal.Zero, internal.NewExternalError("failed to build rate request", internal.ErrCodeRateLookupFailed, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, internal.NewExternalError("rate provider unreachable", internal.ErrCodeRateLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, internal.NewExternalError(
			fmt.Sprintf("rate provider returned status %d", resp.StatusCode),
			internal.ErrCodeRateLookupFailed, nil)
	}

	var quote quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return decimal.Zero, internal.NewExternalError("failed to decode rate response", internal.ErrCodeRateLookupFailed, err)
	}
	if !quote.Rate.IsPositive() {
		return decimal.Zero, internal.NewExternalError("rate provider returned a non-positive rate", internal.ErrCodeRateLookupFailed, nil)
	}

	c.logger.Debug("rate fetched", "from", from, "to", to, "rate", quote.Rate)
	return quote.Rate, nil
}
