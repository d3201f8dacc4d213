package publish

import (
	"encoding/json"
	"time"

	"tradebridge/internal/model"
)

// Event kinds as they appear in message keys.
const (
	KindOrderBook = "orderbook"
	KindTrade     = "trade"
	KindOrder     = "order"
	KindQuote     = "quote"
)

// Event is one outbound record. The message key on the topic is
// Kind + ":" + Subject.
type Event struct {
	Kind    string
	Subject string // BOARD:SECCODE of the instrument
	Payload []byte // JSON body
}

type levelPayload struct {
	Price string `json:"price"`
	Qty   int64  `json:"qty"`
}

func toLevels(levels []model.BookLevel) []levelPayload {
	result := make([]levelPayload, len(levels))
	for i, l := range levels {
		result[i] = levelPayload{Price: l.Price.String(), Qty: l.Quantity}
	}
	return result
}

type bookPayload struct {
	Board      string         `json:"board"`
	Seccode    string         `json:"seccode"`
	ExchangeTS int64          `json:"exchange_ts"`
	ReceivedAt int64          `json:"received_at"`
	Bids       []levelPayload `json:"bids"`
	Asks       []levelPayload `json:"asks"`
}

// BookEvent wraps an order book snapshot for publication.
func BookEvent(book model.OrderBook) Event {
	payload, _ := json.Marshal(bookPayload{
		Board:      book.Board,
		Seccode:    book.Seccode,
		ExchangeTS: book.ExchangeTS,
		ReceivedAt: book.ReceivedAt,
		Bids:       toLevels(book.Bids),
		Asks:       toLevels(book.Asks),
	})
	return Event{Kind: KindOrderBook, Subject: book.Instrument().String(), Payload: payload}
}

type tradePayload struct {
	ExecID     string `json:"exec_id"`
	TradeNo    int64  `json:"trade_no"`
	OrderNo    string `json:"order_no"`
	Board      string `json:"board"`
	Seccode    string `json:"seccode"`
	Side       string `json:"side"`
	Price      string `json:"price"`
	Quantity   int64  `json:"quantity"`
	Value      string `json:"value"`
	ExchangeTS int64  `json:"exchange_ts"`
}

// TradeEvent wraps an own-trade execution for publication.
func TradeEvent(trade model.TradeEvent) Event {
	payload, _ := json.Marshal(tradePayload{
		ExecID:     trade.ExecID.String(),
		TradeNo:    trade.TradeNo,
		OrderNo:    trade.OrderNo,
		Board:      trade.Board,
		Seccode:    trade.Seccode,
		Side:       string(trade.Side),
		Price:      trade.Price.String(),
		Quantity:   trade.Quantity,
		Value:      trade.Value.String(),
		ExchangeTS: trade.ExchangeTS,
	})
	inst := model.Instrument{Board: trade.Board, Seccode: trade.Seccode}
	return Event{Kind: KindTrade, Subject: inst.String(), Payload: payload}
}

type orderPayload struct {
	OrderNo    string `json:"order_no"`
	Board      string `json:"board"`
	Seccode    string `json:"seccode"`
	Side       string `json:"side"`
	Status     string `json:"status"`
	Price      string `json:"price"`
	Quantity   int64  `json:"quantity"`
	Balance    int64  `json:"balance"`
	ExchangeTS int64  `json:"exchange_ts"`
}

// OrderEvent wraps an own-order state change for publication.
func OrderEvent(event model.OrderEvent) Event {
	payload, _ := json.Marshal(orderPayload{
		OrderNo:    event.OrderNo,
		Board:      event.Board,
		Seccode:    event.Seccode,
		Side:       string(event.Side),
		Status:     event.Status,
		Price:      event.Price.String(),
		Quantity:   event.Quantity,
		Balance:    event.Balance,
		ExchangeTS: event.ExchangeTS,
	})
	inst := model.Instrument{Board: event.Board, Seccode: event.Seccode}
	return Event{Kind: KindOrder, Subject: inst.String(), Payload: payload}
}

type quotePayload struct {
	Board     string `json:"board"`
	Seccode   string `json:"seccode"`
	Last      string `json:"last"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	Change    string `json:"change"`
	Volume    int64  `json:"volume"`
	UpdatedAt string `json:"updated_at"`
}

// QuoteEvent wraps a feed quote for publication.
func QuoteEvent(quote model.Quote) Event {
	payload, _ := json.Marshal(quotePayload{
		Board:     quote.Board,
		Seccode:   quote.Seccode,
		Last:      quote.Last.String(),
		Bid:       quote.Bid.String(),
		Ask:       quote.Ask.String(),
		Change:    quote.Change.String(),
		Volume:    quote.Volume,
		UpdatedAt: quote.UpdatedAt.UTC().Format(time.RFC3339),
	})
	inst := model.Instrument{Board: quote.Board, Seccode: quote.Seccode}
	return Event{Kind: KindQuote, Subject: inst.String(), Payload: payload}
}
