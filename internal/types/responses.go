package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeResponse represents a booked trade version as returned by the API
type TradeResponse struct {
	TradeID      string             `json:"trade_id"`
	Version      int                `json:"version"`
	Active       bool               `json:"active"`
	Status       string             `json:"status"`
	TradeDate    time.Time          `json:"trade_date"`
	StartDate    time.Time          `json:"start_date"`
	MaturityDate time.Time          `json:"maturity_date"`
	Legs         []TradeLegResponse `json:"legs,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// TradeLegResponse represents one leg of a booked trade
type TradeLegResponse struct {
	LegID      string          `json:"leg_id"`
	Notional   decimal.Decimal `json:"notional"`
	Rate       decimal.Decimal `json:"rate"`
	LegType    string          `json:"leg_type"`
	PayReceive string          `json:"pay_receive"`
	IndexName  string          `json:"index_name,omitempty"`
	Schedule   string          `json:"calculation_schedule"`
}

// CashflowResponse represents a generated settlement event for a leg
type CashflowResponse struct {
	CashflowID string          `json:"cashflow_id"`
	LegID      string          `json:"leg_id"`
	ValueDate  time.Time       `json:"value_date"`
	Amount     decimal.Decimal `json:"amount"`
	PayReceive string          `json:"pay_receive"`
	Status     string          `json:"status"`
}
