package venue

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"tradebridge/internal/model"
)

// NewStopOrderRequest describes a conditional order to place.
type NewStopOrderRequest struct {
	ClientID     string
	Board        string
	Seccode      string
	Side         model.Side
	Quantity     int64           // Lots
	TriggerPrice decimal.Decimal // Activation threshold
	Price        decimal.Decimal // Limit price once triggered, zero means market
}

func (r NewStopOrderRequest) validate() error {
	if r.ClientID == "" {
		return errRequired("client_id")
	}
	if r.Board == "" {
		return errRequired("board")
	}
	if r.Seccode == "" {
		return errRequired("seccode")
	}
	if r.Side != model.SideBuy && r.Side != model.SideSell {
		return &ValidationError{Field: "side", Reason: `must be "buy" or "sell"`}
	}
	if r.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if !r.TriggerPrice.IsPositive() {
		return &ValidationError{Field: "trigger_price", Reason: "must be positive"}
	}
	if r.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

type placeStopOrderPayload struct {
	ClientID     string `json:"client_id"`
	Board        string `json:"board"`
	Seccode      string `json:"seccode"`
	Side         string `json:"side"`
	Quantity     int64  `json:"quantity"`
	TriggerPrice string `json:"trigger_price"`
	Price        string `json:"price,omitempty"`
}

// StopOrders fetches the client's resting stop orders.
func (c *Client) StopOrders(ctx context.Context, clientID string) ([]model.StopOrder, error) {
	if clientID == "" {
		return nil, errRequired("client_id")
	}

	query := url.Values{}
	query.Set("client_id", clientID)

	var resp StopOrdersResponse
	if err := c.get(ctx, "/v1/stop-orders", query, &resp); err != nil {
		return nil, fmt.Errorf("get stop orders: %w", err)
	}

	orders := make([]model.StopOrder, 0, len(resp.StopOrders))
	for _, o := range resp.StopOrders {
		orders = append(orders, o.ToModel())
	}

	return orders, nil
}

// PlaceStopOrder submits a new stop order and returns its gateway id.
func (c *Client) PlaceStopOrder(ctx context.Context, req NewStopOrderRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	payload := placeStopOrderPayload{
		ClientID:     req.ClientID,
		Board:        req.Board,
		Seccode:      req.Seccode,
		Side:         string(req.Side),
		Quantity:     req.Quantity,
		TriggerPrice: req.TriggerPrice.String(),
	}
	if !req.Price.IsZero() {
		payload.Price = req.Price.String()
	}

	var resp PlaceStopOrderResponse
	if err := c.post(ctx, "/v1/stop-orders", payload, &resp); err != nil {
		return "", fmt.Errorf("place stop order: %w", err)
	}

	return resp.StopID, nil
}

// CancelStopOrder asks the gateway to withdraw a resting stop order.
func (c *Client) CancelStopOrder(ctx context.Context, clientID, stopID string) error {
	if clientID == "" {
		return errRequired("client_id")
	}
	if stopID == "" {
		return errRequired("stop_id")
	}

	query := url.Values{}
	query.Set("client_id", clientID)

	if err := c.del(ctx, "/v1/stop-orders/"+stopID, query); err != nil {
		return fmt.Errorf("cancel stop order %s: %w", stopID, err)
	}

	return nil
}
