// Package snapp fetches passenger price documents from Snapp.
package snapp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"rideprice/internal/fare"
	"rideprice/internal/httpx"
	"rideprice/internal/provider"
)

const baseURL = "https://app.snapp.taxi"

// Client is a client for the Snapp new-price API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient httpx.Doer
	// header contains additional headers to be sent with each request.
	header http.Header
}

// Option is a configuration option for the Snapp client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.Doer) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new Snapp client. The token is the passenger bearer
// token issued by the Snapp web app.
func NewClient(token string, options ...Option) (*Client, error) {
	var client = &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	if token != "" {
		client.header.Set("Authorization", "Bearer "+token)
	}
	for _, option := range options {
		option(client)
	}
	return client, nil
}

type point struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type priceRequest struct {
	Points      []*point `json:"points"`
	Waiting     *string  `json:"waiting"`
	RoundTrip   bool     `json:"round_trip"`
	VoucherCode *string  `json:"voucher_code"`
}

func toPoint(l provider.Location) *point {
	return &point{
		Lat: strconv.FormatFloat(l.Latitude, 'f', -1, 64),
		Lng: strconv.FormatFloat(l.Longitude, 'f', -1, 64),
	}
}

// Provider returns fare.Snapp.
func (c *Client) Provider() fare.Provider { return fare.Snapp }

// Fetch requests the price list for a ride and returns the raw response document.
func (c *Client) Fetch(ctx context.Context, q provider.Query) ([]byte, error) {
	// Snapp always expects three points; the last is an optional second destination.
	payload := priceRequest{Points: []*point{toPoint(q.Origin), toPoint(q.Destination), nil}}
	if q.WaitingMinutes > 0 {
		w := strconv.Itoa(q.WaitingMinutes) + "m"
		payload.Waiting = &w
	}
	url := c.baseURL + "/api/api-base/v2/passenger/newprice/s/6/0"
	b, err := httpx.PostJSON(ctx, c.httpClient, url, c.header, payload)
	if err != nil {
		return nil, fmt.Errorf("snapp newprice: %w", err)
	}
	return b, nil
}
