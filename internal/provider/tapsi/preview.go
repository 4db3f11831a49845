package tapsi

import (
	"context"
	"fmt"

	"rideprice/internal/fare"
	"rideprice/internal/httpx"
	"rideprice/internal/provider"
)

type point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type previewRequest struct {
	Origin       point   `json:"origin"`
	Destinations []point `json:"destinations"`
	HasReturn    bool    `json:"hasReturn"`
	WaitingTime  int     `json:"waitingTime"`
	Gateway      string  `json:"gateway"`
	InitiatedVia string  `json:"initiatedVia"`
}

// Provider implements provider.Client.
func (c *Client) Provider() fare.Provider { return fare.Tapsi }

// Fetch requests a ride preview and returns the raw response document.
func (c *Client) Fetch(ctx context.Context, q provider.Query) ([]byte, error) {
	payload := previewRequest{
		Origin:       point(q.Origin),
		Destinations: []point{point(q.Destination)},
		WaitingTime:  q.WaitingMinutes,
		Gateway:      "CAB",
		InitiatedVia: "WEB",
	}
	url := fmt.Sprintf("%s/api/v3/ride/preview", c.baseURL)
	b, err := httpx.PostJSON(ctx, c.httpClient, url, c.header, payload)
	if err != nil {
		return nil, fmt.Errorf("tapsi preview: %w", err)
	}
	return b, nil
}
