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

const ratesPath = "/rates/latest"

// RatesOptions parameterise the rates client.
type RatesOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// RatesClient fetches the ounce and cash-dollar scalars.
type RatesClient struct {
	opts    RatesOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewRatesClient constructs a rates client.
func NewRatesClient(opts RatesOptions, logger zerolog.Logger) *RatesClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &RatesClient{
		opts:    opts,
		logger:  logger.With().Str("component", "rates_feed").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// FetchRates retrieves the driving scalars. A zero ounce or dollar value is
// rejected here so the valuation never divides by a silent zero input.
func (c *RatesClient) FetchRates(ctx context.Context) (Rates, error) {
	if c.baseURL == "" {
		return Rates{}, errors.New("rates feed base url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+ratesPath, nil)
	if err != nil {
		return Rates{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(c.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Rates{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Rates{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Rates{}, parseHTTPError(resp.StatusCode, payload)
	}

	var rates Rates
	if err := json.Unmarshal(payload, &rates); err != nil {
		return Rates{}, fmt.Errorf("decode rates: %w", err)
	}

	if rates.GoldOunceUSD.IsZero() {
		return Rates{}, errors.New("rates feed returned zero ounce price")
	}
	if rates.DollarPrice.IsZero() {
		return Rates{}, errors.New("rates feed returned zero dollar price")
	}

	c.logger.Debug().
		Str("gold_ounce_usd", rates.GoldOunceUSD.String()).
		Str("dollar_price", rates.DollarPrice.String()).
		Msg("rates fetched")
	return rates, nil
}

var _ RatesFetcher = (*RatesClient)(nil)
