// Package seatsaero provides a client for the seats.aero availability API.
package seatsaero

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
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client defines the seats.aero search operations.
type Client interface {
	// Search runs an availability search and resolves per-route trip detail
	// for every availability the search returns.
	Search(ctx context.Context, req SearchRequest) ([]Availability, error)
}

// SearchRequest describes one availability search.
type SearchRequest struct {
	Origins      []string
	Destinations []string
	Date         string // YYYY-MM-DD
	Days         int    // additional days searched after Date
	MinSeats     int
	MaxFees      int
}

// Availability is one dated availability entry with its resolved trips.
type Availability struct {
	ID      string
	Date    string
	Program string
	Trips   []Trip
}

// Trip is a single bookable award itinerary.
type Trip struct {
	OriginAirport       string `json:"OriginAirport"`
	DestinationAirport  string `json:"DestinationAirport"`
	FlightNumbers       string `json:"FlightNumbers"`
	DepartsAt           string `json:"DepartsAt"`
	ArrivesAt           string `json:"ArrivesAt"`
	Cabin               string `json:"Cabin"`
	MileageCost         int    `json:"MileageCost"`
	TotalTaxes          int    `json:"TotalTaxes"` // minor units
	TaxesCurrency       string `json:"TaxesCurrency"`
	TaxesCurrencySymbol string `json:"TaxesCurrencySymbol"`
	RemainingSeats      int    `json:"RemainingSeats"`
	Stops               int    `json:"Stops"`
}

// searchResponse is the /_api/search_partial payload.
type searchResponse struct {
	Metadata []struct {
		ID   string `json:"id"`
		Date string `json:"date"`
	} `json:"metadata"`
}

// enrichmentResponse is the /_api/enrichment_modern payload.
type enrichmentResponse struct {
	Source string `json:"source"`
	Trips  []Trip `json:"trips"`
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

// WithRateLimit overrides the per-request rate limit.
func WithRateLimit(perSec float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

type httpClient struct {
	baseURL   string
	cookie    string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a seats.aero client. The cookie is the session cookie the
// site hands out; it may be empty for anonymous searches.
func NewClient(cookie string, opts ...Option) Client {
	c := &httpClient{
		baseURL:   "https://seats.aero",
		cookie:    cookie,
		userAgent: "points-cli/1.0",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) ([]Availability, error) {
	sr, err := c.searchPartial(ctx, req)
	if err != nil {
		return nil, err
	}

	availabilities := make([]Availability, 0, len(sr.Metadata))
	for _, item := range sr.Metadata {
		er, err := c.enrichment(ctx, item.ID, req)
		if err != nil {
			// One availability failing to resolve should not sink the rest.
			zap.L().Warn("seatsaero: enrichment failed",
				zap.String("id", item.ID),
				zap.Error(err),
			)
			continue
		}
		if len(er.Trips) == 0 {
			continue
		}
		availabilities = append(availabilities, Availability{
			ID:      item.ID,
			Date:    item.Date,
			Program: er.Source,
			Trips:   er.Trips,
		})
	}

	return availabilities, nil
}

func (c *httpClient) searchPartial(ctx context.Context, req SearchRequest) (*searchResponse, error) {
	q := c.searchQuery(req)
	reqURL := fmt.Sprintf("%s/_api/search_partial?%s", c.baseURL, q.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrap(err, "seatsaero: search_partial")
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, eris.Wrap(err, "seatsaero: unmarshal search_partial")
	}
	return &sr, nil
}

func (c *httpClient) enrichment(ctx context.Context, id string, req SearchRequest) (*enrichmentResponse, error) {
	q := c.searchQuery(req)
	q.Set("m", "1")
	reqURL := fmt.Sprintf("%s/_api/enrichment_modern/%s?%s", c.baseURL, url.PathEscape(id), q.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrap(err, "seatsaero: enrichment_modern")
	}

	var er enrichmentResponse
	if err := json.Unmarshal(body, &er); err != nil {
		return nil, eris.Wrap(err, "seatsaero: unmarshal enrichment_modern")
	}
	return &er, nil
}

func (c *httpClient) searchQuery(req SearchRequest) url.Values {
	minSeats := req.MinSeats
	if minSeats <= 0 {
		minSeats = 1
	}
	maxFees := req.MaxFees
	if maxFees <= 0 {
		maxFees = 40000
	}

	q := url.Values{}
	q.Set("min_seats", fmt.Sprint(minSeats))
	q.Set("applicable_cabin", "any")
	q.Set("max_fees", fmt.Sprint(maxFees))
	q.Set("disable_live_filtering", "false")
	q.Set("date", req.Date)
	q.Set("origins", strings.Join(req.Origins, ","))
	q.Set("destinations", strings.Join(req.Destinations, ","))
	if req.Days > 0 {
		q.Set("additional_days_num", fmt.Sprint(req.Days))
	}
	return q
}

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// get issues a rate-limited GET with exponential backoff on transient
// failures and returns the response body.
func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if c.cookie != "" {
			req.Header.Set("Cookie", c.cookie)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, lastErr
}
