package feed

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const terminalWatchPath = "/fund/watch"

// Terminal rows come over the wire as one line per symbol, fields joined by
// commas, rows by semicolons. Empty rows are dropped.
const (
	terminalRowSep   = ";"
	terminalFieldSep = ","
)

// TerminalOptions parameterise the trading-terminal client.
type TerminalOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TerminalClient fetches the flat positional fund rows.
type TerminalClient struct {
	opts    TerminalOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewTerminalClient constructs a terminal feed client.
func NewTerminalClient(opts TerminalOptions, logger zerolog.Logger) *TerminalClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &TerminalClient{
		opts:    opts,
		logger:  logger.With().Str("component", "terminal_feed").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// FetchTerminal retrieves the raw fund rows. Only positional splitting happens
// here; field interpretation is left to the fund package.
func (c *TerminalClient) FetchTerminal(ctx context.Context) ([][]string, error) {
	if c.baseURL == "" {
		return nil, errors.New("terminal feed base url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+terminalWatchPath, nil)
	if err != nil {
		return nil, err
	}
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

	rows := SplitTerminalPayload(string(payload))
	c.logger.Debug().Int("rows", len(rows)).Msg("terminal snapshot fetched")
	return rows, nil
}

// SplitTerminalPayload splits the raw terminal body into positional rows.
func SplitTerminalPayload(body string) [][]string {
	rawRows := strings.Split(body, terminalRowSep)
	rows := make([][]string, 0, len(rawRows))
	for _, raw := range rawRows {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		rows = append(rows, strings.Split(raw, terminalFieldSep))
	}
	return rows
}

var _ TerminalFetcher = (*TerminalClient)(nil)
