// Package amadeus provides a client for the Amadeus flight offers API.
package amadeus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the Amadeus operations this tool uses.
type Client interface {
	// FlightOffers returns one-way priced offers for a route and date.
	FlightOffers(ctx context.Context, req OffersRequest) ([]Offer, error)
}

// OffersRequest describes one flight offers search.
type OffersRequest struct {
	Origin       string
	Destination  string
	Date         string // YYYY-MM-DD
	TravelClass  string // ECONOMY, PREMIUM_ECONOMY, BUSINESS, FIRST
	CurrencyCode string
	Max          int
}

// Offer is one priced flight offer.
type Offer struct {
	Price       OfferPrice  `json:"price"`
	Itineraries []Itinerary `json:"itineraries"`
}

// OfferPrice is the offer's total price.
type OfferPrice struct {
	GrandTotal string `json:"grandTotal"`
	Currency   string `json:"currency"`
}

// Itinerary is one direction of travel.
type Itinerary struct {
	Segments []OfferSegment `json:"segments"`
}

// OfferSegment is one flight leg of an itinerary.
type OfferSegment struct {
	CarrierCode string        `json:"carrierCode"`
	Number      string        `json:"number"`
	Departure   SegmentTiming `json:"departure"`
	Arrival     SegmentTiming `json:"arrival"`
}

// SegmentTiming is an airport/time pair.
type SegmentTiming struct {
	IataCode string `json:"iataCode"`
	At       string `json:"at"` // ISO-8601, no zone
}

type offersResponse struct {
	Data []Offer `json:"data"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
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
	baseURL      string
	clientID     string
	clientSecret string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates an Amadeus client using OAuth client-credentials auth.
func NewClient(clientID, clientSecret string, opts ...Option) Client {
	c := &httpClient{
		baseURL:      "https://api.amadeus.com",
		clientID:     clientID,
		clientSecret: clientSecret,
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

// token returns a cached access token, refreshing it when near expiry.
func (c *httpClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "amadeus: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "amadeus: token request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "amadeus: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("amadeus: token unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", eris.Wrap(err, "amadeus: unmarshal token response")
	}

	c.accessToken = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

func (c *httpClient) FlightOffers(ctx context.Context, req OffersRequest) ([]Offer, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	if req.CurrencyCode == "" {
		req.CurrencyCode = "USD"
	}
	if req.Max <= 0 {
		req.Max = 20
	}

	q := url.Values{}
	q.Set("originLocationCode", req.Origin)
	q.Set("destinationLocationCode", req.Destination)
	q.Set("departureDate", req.Date)
	q.Set("adults", "1")
	q.Set("currencyCode", req.CurrencyCode)
	q.Set("max", strconv.Itoa(req.Max))
	if req.TravelClass != "" {
		q.Set("travelClass", req.TravelClass)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v2/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "amadeus: create offers request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "amadeus: offers request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "amadeus: read offers response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("amadeus: offers unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var or offersResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return nil, eris.Wrap(err, "amadeus: unmarshal offers response")
	}

	return or.Data, nil
}
