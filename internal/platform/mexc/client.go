// Package mexc is the REST client for the MEXC contract kline endpoint.
package mexc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/klinechart/internal/domain"
)

// DefaultEndpoint is the contract kline root; the symbol is appended as a
// path segment.
const DefaultEndpoint = "https://contract.mexc.com/api/v1/contract/kline"

// KlineRequest bounds a single kline query.
type KlineRequest struct {
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
}

// Client issues kline requests. It never retries.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Client for the given endpoint. A zero timeout leaves
// the request bounded only by its context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BuildURL returns the query URL for req. Start and end are expressed in whole
// epoch seconds.
func (c *Client) BuildURL(req KlineRequest) (string, error) {
	if req.Symbol == "" {
		return "", fmt.Errorf("mexc: build url: symbol is required")
	}
	u, err := url.Parse(c.endpoint + "/" + url.PathEscape(req.Symbol))
	if err != nil {
		return "", fmt.Errorf("mexc: build url: %w", err)
	}

	params := url.Values{}
	params.Set("interval", req.Interval)
	params.Set("start", strconv.FormatInt(epochSeconds(req.Start), 10))
	params.Set("end", strconv.FormatInt(epochSeconds(req.End), 10))
	u.RawQuery = params.Encode()

	return u.String(), nil
}

// FetchKlines issues one GET and returns the decoded snapshot with its raw
// body. A body reporting success=false or a non-zero code yields
// domain.ErrAPIContract.
func (c *Client) FetchKlines(ctx context.Context, req KlineRequest) (domain.Snapshot, error) {
	u, err := c.BuildURL(req)
	if err != nil {
		return domain.Snapshot{}, err
	}

	body, err := c.doGet(ctx, u)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("mexc: fetch klines %s: %w", req.Symbol, err)
	}

	snap, err := domain.DecodeSnapshot(body)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("mexc: fetch klines %s: %w", req.Symbol, err)
	}
	if err := snap.CheckEnvelope(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("mexc: fetch klines %s: %w", req.Symbol, err)
	}
	return snap, nil
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	if len(bodyStr) > 512 {
		bodyStr = bodyStr[:512]
	}
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// epochSeconds drops sub-second precision.
func epochSeconds(t time.Time) int64 {
	return t.Unix()
}
