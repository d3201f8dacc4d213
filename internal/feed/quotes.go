package feed

import (
	"context"
	"fmt"
	"net/url"

	"tradebridge/internal/model"
	"tradebridge/internal/venue"
)

// quotesResponse from GET /v1/quotes
type quotesResponse struct {
	Quotes []wireQuote `json:"quotes"`
}

// wireQuote is one top-of-book record as the feed sends it. Prices are
// decimal strings.
type wireQuote struct {
	Board     string `json:"board"`
	Seccode   string `json:"seccode"`
	Last      string `json:"last"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	Change    string `json:"change"`
	Volume    int64  `json:"volume"`
	UpdatedAt string `json:"updated_at"`
}

func (q wireQuote) toModel() model.Quote {
	return model.Quote{
		Board:     q.Board,
		Seccode:   q.Seccode,
		Last:      venue.ParseDecimal(q.Last),
		Bid:       venue.ParseDecimal(q.Bid),
		Ask:       venue.ParseDecimal(q.Ask),
		Change:    venue.ParseDecimal(q.Change),
		Volume:    q.Volume,
		UpdatedAt: venue.ParseTime(q.UpdatedAt),
	}
}

// Quotes fetches the current top-of-book for every security on a board.
func (c *Client) Quotes(ctx context.Context, board string) ([]model.Quote, error) {
	query := url.Values{}
	query.Set("board", board)

	var resp quotesResponse
	if err := c.get(ctx, "/v1/quotes", query, &resp); err != nil {
		return nil, fmt.Errorf("get quotes for %s: %w", board, err)
	}

	quotes := make([]model.Quote, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		quotes = append(quotes, q.toModel())
	}
	return quotes, nil
}
