package venue

import (
	"time"

	"github.com/shopspring/decimal"

	"tradebridge/internal/model"
)

// ParseDecimal parses a decimal price string.
// Returns zero for empty or invalid input.
func ParseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Decimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}
	}

	return d
}

// ParseTime parses an ISO 8601 timestamp.
// Returns the zero time for empty or invalid input.
func ParseTime(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t
}

// ToModel converts an APIPortfolio to model.Portfolio.
func (p *APIPortfolio) ToModel() model.Portfolio {
	positions := make([]model.Position, 0, len(p.Positions))
	for _, pos := range p.Positions {
		positions = append(positions, pos.ToModel())
	}

	return model.Portfolio{
		ClientID:  p.ClientID,
		Currency:  p.Currency,
		Equity:    ParseDecimal(p.Equity),
		Cash:      ParseDecimal(p.Cash),
		Positions: positions,
		UpdatedAt: ParseTime(p.UpdatedAt),
	}
}

// ToModel converts an APIPosition to model.Position.
func (p *APIPosition) ToModel() model.Position {
	return model.Position{
		Board:      p.Board,
		Seccode:    p.Seccode,
		Quantity:   p.Quantity,
		AvgPrice:   ParseDecimal(p.AvgPrice),
		CurrentPx:  ParseDecimal(p.CurrentPrice),
		ProfitLoss: ParseDecimal(p.ProfitLoss),
	}
}

// ToModel converts an APIOrder to model.Order.
func (o *APIOrder) ToModel() model.Order {
	return model.Order{
		OrderNo:       o.OrderNo,
		TransactionID: o.TransactionID,
		ClientID:      o.ClientID,
		Board:         o.Board,
		Seccode:       o.Seccode,
		Side:          model.Side(o.Side),
		Status:        o.Status,
		Price:         ParseDecimal(o.Price),
		Quantity:      o.Quantity,
		Balance:       o.Balance,
		PlacedAt:      ParseTime(o.PlacedAt),
		UpdatedAt:     ParseTime(o.UpdatedAt),
	}
}

// ToModel converts an APIStopOrder to model.StopOrder.
func (o *APIStopOrder) ToModel() model.StopOrder {
	return model.StopOrder{
		StopID:        o.StopID,
		ClientID:      o.ClientID,
		Board:         o.Board,
		Seccode:       o.Seccode,
		Side:          model.Side(o.Side),
		Status:        o.Status,
		TriggerPrice:  ParseDecimal(o.TriggerPrice),
		Price:         ParseDecimal(o.Price),
		Quantity:      o.Quantity,
		LinkedOrderNo: o.LinkedOrderNo,
		PlacedAt:      ParseTime(o.PlacedAt),
	}
}

// ToModel converts an APISecurity to model.Security.
func (s *APISecurity) ToModel() model.Security {
	return model.Security{
		Board:     s.Board,
		Seccode:   s.Seccode,
		ShortName: s.ShortName,
		Market:    s.Market,
		Currency:  s.Currency,
		LotSize:   s.LotSize,
		Decimals:  s.Decimals,
		MinStep:   ParseDecimal(s.MinStep),
		Active:    s.Active,
	}
}

// ToModel converts an APICandle to model.Candle. Board, seccode and
// timeframe come from the request, not the wire record.
func (c *APICandle) ToModel(board, seccode, timeframe string) model.Candle {
	return model.Candle{
		Board:     board,
		Seccode:   seccode,
		Timeframe: timeframe,
		Open:      ParseDecimal(c.Open),
		High:      ParseDecimal(c.High),
		Low:       ParseDecimal(c.Low),
		Close:     ParseDecimal(c.Close),
		Volume:    c.Volume,
		Begin:     ParseTime(c.Begin),
	}
}
