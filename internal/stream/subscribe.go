package stream

import (
	"fmt"
	"sort"
)

// SubscribeOrderBook records and requests depth-of-market updates for one
// instrument. Intent is recorded before the write is attempted, so even if
// the write fails the subscription is replayed on the next reconnect.
func (c *Client) SubscribeOrderBook(board, seccode string) error {
	if board == "" || seccode == "" {
		return fmt.Errorf("%w: board and seccode are required", ErrInvalidArgument)
	}

	cmd := Command{
		Op:      opSubscribe,
		Kind:    kindOrderBook,
		Board:   board,
		Seccode: seccode,
		Depth:   c.cfg.OrderBookDepth,
	}
	c.registry.put(OrderBookKey(board, seccode), cmd)
	return c.writer.write(cmd)
}

// UnsubscribeOrderBook removes the recorded subscription and asks the
// gateway to stop sending the book. The key is gone from replay even if
// the write fails.
func (c *Client) UnsubscribeOrderBook(board, seccode string) error {
	if board == "" || seccode == "" {
		return fmt.Errorf("%w: board and seccode are required", ErrInvalidArgument)
	}

	c.registry.remove(OrderBookKey(board, seccode))
	return c.writer.write(Command{
		Op:      opUnsubscribe,
		Kind:    kindOrderBook,
		Board:   board,
		Seccode: seccode,
	})
}

// SubscribeOrderTrade records and requests own-order and own-trade events
// for a set of brokerage client accounts. Later calls with the same set
// overwrite the recorded entry.
func (c *Client) SubscribeOrderTrade(req OrderTradeRequest) error {
	ids, err := normalizeClientIDs(req.ClientIDs)
	if err != nil {
		return err
	}

	cmd := Command{
		Op:            opSubscribe,
		Kind:          kindOrderTrade,
		ClientIDs:     ids,
		IncludeTrades: req.IncludeTrades,
		IncludeOrders: req.IncludeOrders,
	}
	c.registry.put(OrderTradeKey(ids), cmd)
	return c.writer.write(cmd)
}

// UnsubscribeOrderTrade removes the recorded subscription for the client
// id set and notifies the gateway.
func (c *Client) UnsubscribeOrderTrade(clientIDs []string) error {
	ids, err := normalizeClientIDs(clientIDs)
	if err != nil {
		return err
	}

	c.registry.remove(OrderTradeKey(ids))
	return c.writer.write(Command{
		Op:        opUnsubscribe,
		Kind:      kindOrderTrade,
		ClientIDs: ids,
	})
}

// SendKeepAlive writes one keepalive frame. The caller owns the cadence;
// a failed send triggers the reconnector like any other write.
func (c *Client) SendKeepAlive() error {
	return c.writer.write(Command{Op: opKeepAlive})
}

// normalizeClientIDs validates and returns a sorted copy.
func normalizeClientIDs(clientIDs []string) ([]string, error) {
	if len(clientIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one client id is required", ErrInvalidArgument)
	}
	for _, id := range clientIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty client id", ErrInvalidArgument)
		}
	}
	ids := make([]string, len(clientIDs))
	copy(ids, clientIDs)
	sort.Strings(ids)
	return ids, nil
}
