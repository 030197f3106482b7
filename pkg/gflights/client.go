// Package gflights provides a client for a Google Flights proxy API that
// returns one-way cash fares.
package gflights

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the cash fare lookup operations.
type Client interface {
	// Flights returns one-way fares for a route, date and seat class,
	// cheapest first.
	Flights(ctx context.Context, req FlightsRequest) (*FlightsResponse, error)
}

// FlightsRequest describes one fare lookup.
type FlightsRequest struct {
	From string
	To   string
	Date string // YYYY-MM-DD
	Seat string // economy, premium-economy, business, first
}

// FlightsResponse holds the fare list. The first flight is the cheapest by
// API contract.
type FlightsResponse struct {
	Flights []Flight `json:"flights"`
}

// Flight is one priced itinerary. Price and times come back as display
// strings ("$1,234", "6:00 PM") and are parsed downstream.
type Flight struct {
	Name      string `json:"name"` // operating flight designator, e.g. "DL 1"
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Price     string `json:"price"`
	Stops     int    `json:"stops"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Google Flights proxy client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://api.flightproxy.dev/v1",
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Flights(ctx context.Context, req FlightsRequest) (*FlightsResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gflights: rate limiter wait")
	}

	q := url.Values{}
	q.Set("from", req.From)
	q.Set("to", req.To)
	q.Set("date", req.Date)
	q.Set("seat", req.Seat)
	q.Set("trip", "one-way")
	q.Set("adults", "1")
	reqURL := fmt.Sprintf("%s/flights?%s", c.baseURL, q.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "gflights: create request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "gflights: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "gflights: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("gflights: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var result FlightsResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "gflights: unmarshal response")
	}

	return &result, nil
}
