package venue

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"tradebridge/internal/model"
)

var validTimeframes = map[string]bool{
	"M1":  true,
	"M5":  true,
	"M15": true,
	"H1":  true,
	"D1":  true,
	"W1":  true,
}

// CandlesRequest describes a history fetch for one instrument.
type CandlesRequest struct {
	Board     string
	Seccode   string
	Timeframe string    // One of M1, M5, M15, H1, D1, W1
	From      time.Time // Optional range start
	To        time.Time // Optional range end
	Count     int       // Optional bar limit, gateway default when 0
}

func (r CandlesRequest) validate() error {
	if r.Board == "" {
		return errRequired("board")
	}
	if r.Seccode == "" {
		return errRequired("seccode")
	}
	if !validTimeframes[r.Timeframe] {
		return &ValidationError{Field: "timeframe", Reason: "must be one of M1, M5, M15, H1, D1, W1"}
	}
	if r.Count < 0 {
		return &ValidationError{Field: "count", Reason: "must not be negative"}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return &ValidationError{Field: "to", Reason: "must not precede from"}
	}
	return nil
}

// Candles fetches OHLCV history for one instrument.
func (c *Client) Candles(ctx context.Context, req CandlesRequest) ([]model.Candle, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("board", req.Board)
	query.Set("seccode", req.Seccode)
	query.Set("timeframe", req.Timeframe)
	if !req.From.IsZero() {
		query.Set("from", req.From.UTC().Format(time.RFC3339))
	}
	if !req.To.IsZero() {
		query.Set("to", req.To.UTC().Format(time.RFC3339))
	}
	if req.Count > 0 {
		query.Set("count", strconv.Itoa(req.Count))
	}

	var resp CandlesResponse
	if err := c.get(ctx, "/v1/candles", query, &resp); err != nil {
		return nil, fmt.Errorf("get candles %s:%s: %w", req.Board, req.Seccode, err)
	}

	candles := make([]model.Candle, 0, len(resp.Candles))
	for _, b := range resp.Candles {
		candles = append(candles, b.ToModel(req.Board, req.Seccode, req.Timeframe))
	}

	return candles, nil
}
