// Package pointsyeah provides a client for the PointsYeah award search API.
package pointsyeah

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the PointsYeah search operations.
type Client interface {
	// Search submits an award search and polls until results are ready.
	Search(ctx context.Context, req SearchRequest) ([]Result, error)
}

// SearchRequest describes one award search.
type SearchRequest struct {
	Origins      []string `json:"departure"`
	Destinations []string `json:"arrival"`
	DepartDate   string   `json:"depart_date"`
	ReturnDate   string   `json:"depart_date_sec,omitempty"`
	Multiday     bool     `json:"multiday"`
	Cabins       []string `json:"cabins,omitempty"`
	Adults       int      `json:"adults"`
	Alliances    []string `json:"alliances,omitempty"`
	Banks        []string `json:"banks,omitempty"` // transfer-partner currencies
}

// Result is one award row. A row may carry several bookable route options in
// different cabins for the same program/date/route.
type Result struct {
	Program   string        `json:"program"`
	Date      string        `json:"date"`
	Departure string        `json:"departure"`
	Arrival   string        `json:"arrival"`
	Routes    []RouteOption `json:"routes"`
}

// RouteOption is one bookable option within a result row.
type RouteOption struct {
	Payment  Payment   `json:"payment"`
	Segments []Segment `json:"segments"`
}

// Payment holds the award cost for a route option.
type Payment struct {
	Cabin    string  `json:"cabin"`
	Miles    int     `json:"miles"`
	Tax      float64 `json:"tax"`
	Currency string  `json:"currency"`
	Seats    int     `json:"seats"`
}

// Segment is one flight leg.
type Segment struct {
	FlightNumber string `json:"flight_number"`
	DepartsAt    string `json:"departs_at"`
	ArrivesAt    string `json:"arrives_at"`
}

type submitResponse struct {
	Success bool `json:"success"`
	Data    struct {
		SearchID string `json:"search_id"`
	} `json:"data"`
}

type fetchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Status string   `json:"status"`
		Result []Result `json:"result"`
	} `json:"data"`
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

// WithPollInterval sets the fetch_result polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.pollInterval = d
	}
}

type httpClient struct {
	baseURL      string
	token        string
	pollInterval time.Duration
	maxPolls     int
	http         *http.Client
}

// NewClient creates a PointsYeah client authenticated with the given bearer
// token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		baseURL:      "https://api.pointsyeah.com",
		token:        token,
		pollInterval: 2 * time.Second,
		maxPolls:     30,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) ([]Result, error) {
	if req.Adults <= 0 {
		req.Adults = 1
	}
	if len(req.Cabins) == 0 {
		req.Cabins = []string{"Economy", "Premium Economy", "Business", "First"}
	}
	req.Multiday = req.ReturnDate != "" && req.ReturnDate != req.DepartDate

	searchID, err := c.submit(ctx, req)
	if err != nil {
		return nil, err
	}

	// The search runs asynchronously server-side; poll until it settles.
	var all []Result
	for poll := 0; poll < c.maxPolls; poll++ {
		fr, err := c.fetchResult(ctx, searchID)
		if err != nil {
			return nil, err
		}
		if len(fr.Data.Result) > 0 {
			all = append(all, fr.Data.Result...)
		}
		if fr.Data.Status == "done" {
			return all, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}

	return all, nil
}

func (c *httpClient) submit(ctx context.Context, req SearchRequest) (string, error) {
	body, statusCode, err := c.post(ctx, c.baseURL+"/api/v2/flight/search/submit", req)
	if err != nil {
		return "", eris.Wrap(err, "pointsyeah: submit search")
	}
	if statusCode != http.StatusOK {
		return "", eris.Errorf("pointsyeah: submit unexpected status %d: %s", statusCode, string(body))
	}

	var sr submitResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return "", eris.Wrap(err, "pointsyeah: unmarshal submit response")
	}
	if !sr.Success || sr.Data.SearchID == "" {
		return "", eris.Errorf("pointsyeah: submit rejected: %s", string(body))
	}
	return sr.Data.SearchID, nil
}

func (c *httpClient) fetchResult(ctx context.Context, searchID string) (*fetchResponse, error) {
	payload := map[string]string{"search_id": searchID}
	body, statusCode, err := c.post(ctx, c.baseURL+"/api/v2/flight/search/fetch_result", payload)
	if err != nil {
		return nil, eris.Wrap(err, "pointsyeah: fetch_result")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("pointsyeah: fetch_result unexpected status %d: %s", statusCode, string(body))
	}

	var fr fetchResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, eris.Wrap(err, "pointsyeah: unmarshal fetch_result")
	}
	return &fr, nil
}

func (c *httpClient) post(ctx context.Context, reqURL string, payload any) ([]byte, int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, eris.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return nil, 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "read response body")
	}
	return body, resp.StatusCode, nil
}
