package coalesce

import (
	"bytes"
	"context"

	"golang.org/x/sync/singleflight"

	"rideprice/internal/fare"
	"rideprice/internal/provider"
)

// Client shares one upstream call between concurrent fetches of the same query.
// Nothing is cached once the call returns.
type Client struct {
	C provider.Client

	sf singleflight.Group
}

func New(c provider.Client) *Client { return &Client{C: c} }

func (c *Client) Provider() fare.Provider { return c.C.Provider() }

// Fetch runs under the context of whichever caller started the shared call.
func (c *Client) Fetch(ctx context.Context, q provider.Query) ([]byte, error) {
	v, err, _ := c.sf.Do(q.Key(), func() (any, error) {
		return c.C.Fetch(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	// every caller gets its own copy
	return bytes.Clone(v.([]byte)), nil
}
