package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const marketSnapshotPath = "/snapshot"

// MarketOptions parameterise the market-API client.
type MarketOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// MarketClient fetches the hierarchical instrument snapshot.
type MarketClient struct {
	opts    MarketOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewMarketClient constructs a market feed client.
func NewMarketClient(opts MarketOptions, logger zerolog.Logger) *MarketClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &MarketClient{
		opts:    opts,
		logger:  logger.With().Str("component", "market_feed").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// FetchMarket retrieves and decodes the instrument snapshot.
func (c *MarketClient) FetchMarket(ctx context.Context) (*MarketSnapshot, error) {
	if c.baseURL == "" {
		return nil, errors.New("market feed base url not configured")
	}

	payload, err := c.get(ctx, c.baseURL+marketSnapshotPath)
	if err != nil {
		return nil, err
	}

	var snap MarketSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("decode market snapshot: %w", err)
	}

	c.logger.Debug().
		Int("assets", len(snap.Assets)).
		Int("warehouse", len(snap.Warehouse)).
		Int("funds", len(snap.Funds)).
		Msg("market snapshot fetched")
	return &snap, nil
}

func (c *MarketClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}
	return payload, nil
}

var _ MarketFetcher = (*MarketClient)(nil)
