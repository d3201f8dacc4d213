package venue

import (
	"context"
	"fmt"
	"net/url"

	"tradebridge/internal/model"
)

// Portfolio fetches the account snapshot for the given client.
func (c *Client) Portfolio(ctx context.Context, clientID string) (*model.Portfolio, error) {
	if clientID == "" {
		return nil, errRequired("client_id")
	}

	query := url.Values{}
	query.Set("client_id", clientID)

	var resp PortfolioResponse
	if err := c.get(ctx, "/v1/portfolio", query, &resp); err != nil {
		return nil, fmt.Errorf("get portfolio: %w", err)
	}

	p := resp.Portfolio.ToModel()
	return &p, nil
}
