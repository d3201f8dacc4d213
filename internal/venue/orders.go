package venue

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"tradebridge/internal/model"
)

// NewOrderRequest describes an order to place.
type NewOrderRequest struct {
	ClientID string
	Board    string
	Seccode  string
	Side     model.Side
	Quantity int64           // Lots
	Price    decimal.Decimal // Zero means a market order
}

func (r NewOrderRequest) validate() error {
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
	if r.Price.IsNegative() {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	return nil
}

// OrderRef identifies an order accepted by the gateway.
type OrderRef struct {
	TransactionID string // Gateway transaction id
	OrderNo       string // Venue order number, may lag the transaction id
}

type placeOrderPayload struct {
	ClientID string `json:"client_id"`
	Board    string `json:"board"`
	Seccode  string `json:"seccode"`
	Side     string `json:"side"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price,omitempty"`
}

// Orders fetches the client's orders for the current session.
func (c *Client) Orders(ctx context.Context, clientID string) ([]model.Order, error) {
	if clientID == "" {
		return nil, errRequired("client_id")
	}

	query := url.Values{}
	query.Set("client_id", clientID)

	var resp OrdersResponse
	if err := c.get(ctx, "/v1/orders", query, &resp); err != nil {
		return nil, fmt.Errorf("get orders: %w", err)
	}

	orders := make([]model.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, o.ToModel())
	}

	return orders, nil
}

// PlaceOrder submits a new order and returns its gateway reference.
func (c *Client) PlaceOrder(ctx context.Context, req NewOrderRequest) (*OrderRef, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	payload := placeOrderPayload{
		ClientID: req.ClientID,
		Board:    req.Board,
		Seccode:  req.Seccode,
		Side:     string(req.Side),
		Quantity: req.Quantity,
	}
	if !req.Price.IsZero() {
		payload.Price = req.Price.String()
	}

	var resp PlaceOrderResponse
	if err := c.post(ctx, "/v1/orders", payload, &resp); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}

	return &OrderRef{TransactionID: resp.TransactionID, OrderNo: resp.OrderNo}, nil
}

// CancelOrder asks the gateway to withdraw an active order.
func (c *Client) CancelOrder(ctx context.Context, clientID, orderNo string) error {
	if clientID == "" {
		return errRequired("client_id")
	}
	if orderNo == "" {
		return errRequired("order_no")
	}

	query := url.Values{}
	query.Set("client_id", clientID)

	if err := c.del(ctx, "/v1/orders/"+orderNo, query); err != nil {
		return fmt.Errorf("cancel order %s: %w", orderNo, err)
	}

	return nil
}
