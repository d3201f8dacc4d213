package venue

// PortfolioResponse from GET /v1/portfolio
type PortfolioResponse struct {
	Portfolio APIPortfolio `json:"portfolio"`
}

// APIPortfolio represents an account snapshot from the gateway.
type APIPortfolio struct {
	ClientID  string        `json:"client_id"`
	Currency  string        `json:"currency"`
	Equity    string        `json:"equity"`
	Cash      string        `json:"cash"`
	Positions []APIPosition `json:"positions"`
	UpdatedAt string        `json:"updated_at"`
}

// APIPosition represents one holding inside a portfolio.
type APIPosition struct {
	Board        string `json:"board"`
	Seccode      string `json:"seccode"`
	Quantity     int64  `json:"quantity"`
	AvgPrice     string `json:"avg_price"`
	CurrentPrice string `json:"current_price"`
	ProfitLoss   string `json:"profit_loss"`
}

// OrdersResponse from GET /v1/orders
type OrdersResponse struct {
	Orders []APIOrder `json:"orders"`
}

// APIOrder represents the client's own order from the gateway.
type APIOrder struct {
	OrderNo       string `json:"order_no"`
	TransactionID string `json:"transaction_id"`
	ClientID      string `json:"client_id"`
	Board         string `json:"board"`
	Seccode       string `json:"seccode"`
	Side          string `json:"side"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	Quantity      int64  `json:"quantity"`
	Balance       int64  `json:"balance"`
	PlacedAt      string `json:"placed_at"`
	UpdatedAt     string `json:"updated_at"`
}

// PlaceOrderResponse from POST /v1/orders
type PlaceOrderResponse struct {
	TransactionID string `json:"transaction_id"`
	OrderNo       string `json:"order_no"`
}

// StopOrdersResponse from GET /v1/stop-orders
type StopOrdersResponse struct {
	StopOrders []APIStopOrder `json:"stop_orders"`
}

// APIStopOrder represents a conditional order resting at the gateway.
type APIStopOrder struct {
	StopID        string `json:"stop_id"`
	ClientID      string `json:"client_id"`
	Board         string `json:"board"`
	Seccode       string `json:"seccode"`
	Side          string `json:"side"`
	Status        string `json:"status"`
	TriggerPrice  string `json:"trigger_price"`
	Price         string `json:"price"`
	Quantity      int64  `json:"quantity"`
	LinkedOrderNo string `json:"linked_order_no"`
	PlacedAt      string `json:"placed_at"`
}

// PlaceStopOrderResponse from POST /v1/stop-orders
type PlaceStopOrderResponse struct {
	StopID string `json:"stop_id"`
}

// SecuritiesResponse from GET /v1/securities
type SecuritiesResponse struct {
	Securities []APISecurity `json:"securities"`
}

// APISecurity represents a reference-data record from the gateway.
type APISecurity struct {
	Board     string `json:"board"`
	Seccode   string `json:"seccode"`
	ShortName string `json:"short_name"`
	Market    string `json:"market"`
	Currency  string `json:"currency"`
	LotSize   int    `json:"lot_size"`
	Decimals  int    `json:"decimals"`
	MinStep   string `json:"min_step"`
	Active    bool   `json:"active"`
}

// CandlesResponse from GET /v1/candles
type CandlesResponse struct {
	Candles []APICandle `json:"candles"`
}

// APICandle represents one OHLCV bar from the gateway.
type APICandle struct {
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
	Begin  string `json:"begin"`
}
