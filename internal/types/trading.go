package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSubmission is the flat record a trade enters the system as. Dates and
// the rate are pointers so that absent fields stay distinguishable from zero
// values; the validators report on missing ones instead of the binder.
type TradeSubmission struct {
	TradeID          string               `json:"trade_id,omitempty"`
	TradeDate        *time.Time           `json:"trade_date"`
	StartDate        *time.Time           `json:"start_date"`
	MaturityDate     *time.Time           `json:"maturity_date"`
	BookID           *uint                `json:"book_id,omitempty"`
	BookName         string               `json:"book_name,omitempty"`
	CounterpartyID   *uint                `json:"counterparty_id,omitempty"`
	CounterpartyName string               `json:"counterparty_name,omitempty"`
	TradeStatus      string               `json:"trade_status,omitempty"`
	Legs             []TradeLegSubmission `json:"legs"`
}

// TradeLegSubmission is one leg of a submission. Enum fields arrive as plain
// strings and are parsed into closed variants during validation.
type TradeLegSubmission struct {
	Notional   decimal.Decimal  `json:"notional"`
	Rate       *decimal.Decimal `json:"rate,omitempty"`
	LegType    string           `json:"leg_type"`
	PayReceive string           `json:"pay_receive"`
	IndexName  string           `json:"index_name,omitempty"`
	Schedule   string           `json:"calculation_schedule"`
}
