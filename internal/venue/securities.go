package venue

import (
	"context"
	"fmt"
	"net/url"

	"tradebridge/internal/model"
)

// SecuritiesFilter narrows a reference-data fetch. Zero fields match all.
type SecuritiesFilter struct {
	Board   string
	Seccode string
}

// Securities fetches reference data for instruments matching the filter.
func (c *Client) Securities(ctx context.Context, filter SecuritiesFilter) ([]model.Security, error) {
	query := url.Values{}
	if filter.Board != "" {
		query.Set("board", filter.Board)
	}
	if filter.Seccode != "" {
		query.Set("seccode", filter.Seccode)
	}

	var resp SecuritiesResponse
	if err := c.get(ctx, "/v1/securities", query, &resp); err != nil {
		return nil, fmt.Errorf("get securities: %w", err)
	}

	securities := make([]model.Security, 0, len(resp.Securities))
	for _, s := range resp.Securities {
		securities = append(securities, s.ToModel())
	}

	return securities, nil
}
