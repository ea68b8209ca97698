package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Status is the lifecycle tag carried by a trade version.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusAmended    Status = "AMENDED"
	StatusCancelled  Status = "CANCELLED"
	StatusTerminated Status = "TERMINATED"
	StatusSuperseded Status = "SUPERSEDED"
)

// IsTerminal reports whether the status ends the trade's life. Terminal
// versions carry no regenerated schedule unless the caller asks for one.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusTerminated
}

// ParseStatus resolves a submitted status name to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(StatusNew):
		return StatusNew, nil
	case string(StatusAmended):
		return StatusAmended, nil
	case string(StatusCancelled):
		return StatusCancelled, nil
	case string(StatusTerminated):
		return StatusTerminated, nil
	case string(StatusSuperseded):
		return StatusSuperseded, nil
	}
	return "", fmt.Errorf("unknown trade status %q", s)
}

// LegType distinguishes fixed-rate legs from index-linked floating legs.
type LegType string

const (
	LegTypeFixed    LegType = "Fixed"
	LegTypeFloating LegType = "Floating"
)

// ParseLegType resolves a submitted leg type, ignoring case.
func ParseLegType(s string) (LegType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return LegTypeFixed, nil
	case "floating":
		return LegTypeFloating, nil
	}
	return "", fmt.Errorf("unknown leg type %q", s)
}

// PayReceive marks which side of the trade a leg sits on.
type PayReceive string

const (
	Pay     PayReceive = "Pay"
	Receive PayReceive = "Receive"
)

// ParsePayReceive resolves a submitted pay/receive flag, ignoring case.
func ParsePayReceive(s string) (PayReceive, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pay":
		return Pay, nil
	case "receive":
		return Receive, nil
	}
	return "", fmt.Errorf("unknown pay/receive flag %q", s)
}

// Frequency is the periodicity of a leg's calculation schedule.
type Frequency string

const (
	Monthly    Frequency = "Monthly"
	Quarterly  Frequency = "Quarterly"
	SemiAnnual Frequency = "SemiAnnual"
	Annual     Frequency = "Annual"
)

// Months returns the schedule step in calendar months.
func (f Frequency) Months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case SemiAnnual:
		return 6
	case Annual:
		return 12
	}
	return 0
}

// ParseFrequency resolves a submitted schedule name, ignoring case.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monthly":
		return Monthly, nil
	case "quarterly":
		return Quarterly, nil
	case "semiannual", "semi-annual":
		return SemiAnnual, nil
	case "annual":
		return Annual, nil
	}
	return "", fmt.Errorf("unknown calculation schedule %q", s)
}

// Trade is one immutable version of a booked trade. The business key is
// TradeID; amendment appends a new row with Version+1 and deactivates the
// previous one. At most one row per TradeID is active at any time.
type Trade struct {
	gorm.Model     `json:"-"`
	TradeID        string     `gorm:"index" json:"trade_id"`
	Version        int        `json:"version"`
	Active         bool       `json:"active"`
	Status         Status     `json:"status"`
	TradeDate      time.Time  `json:"trade_date"`
	StartDate      time.Time  `json:"start_date"`
	MaturityDate   time.Time  `json:"maturity_date"`
	BookID         uint       `json:"book_id"`
	CounterpartyID uint       `json:"counterparty_id"`
	Legs           []TradeLeg `gorm:"-" json:"legs,omitempty"`
}

// TradeLeg is one side of a two-legged trade, owned by a single trade
// version (TradeVersionID is the surrogate key of that version's row).
type TradeLeg struct {
	gorm.Model     `json:"-"`
	LegID          string          `gorm:"uniqueIndex" json:"leg_id"`
	TradeVersionID uint            `gorm:"index" json:"-"`
	TradeID        string          `json:"trade_id"`
	Notional       decimal.Decimal `gorm:"type:decimal(20,4)" json:"notional"`
	Rate           decimal.Decimal `gorm:"type:decimal(12,8)" json:"rate"`
	LegType        LegType         `json:"leg_type"`
	PayReceive     PayReceive      `json:"pay_receive"`
	IndexName      string          `json:"index_name,omitempty"`
	Schedule       Frequency       `json:"calculation_schedule"`
}

// Cashflow statuses, driven by the settlement processor.
const (
	CashflowProjected = "PROJECTED"
	CashflowSettling  = "SETTLING"
	CashflowSettled   = "SETTLED"
)

// Cashflow is a single dated settlement obligation derived from a leg's
// schedule. Rows are generated, never user-edited.
type Cashflow struct {
	gorm.Model `json:"-"`
	CashflowID string          `gorm:"uniqueIndex" json:"cashflow_id"`
	LegID      string          `gorm:"index" json:"leg_id"`
	ValueDate  time.Time       `json:"value_date"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4)" json:"amount"`
	PayReceive PayReceive      `json:"pay_receive"`
	Status     string          `json:"status"` // PROJECTED, SETTLING, SETTLED
}
