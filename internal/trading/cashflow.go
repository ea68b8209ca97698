package trading

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashflowStore persists generated cashflows.
type CashflowStore interface {
	SaveCashflow(cashflow *Cashflow) error
}

var twelve = decimal.NewFromInt(12)

// CashflowGenerator derives the periodic settlement events for one leg. It
// persists each cashflow through the store as it is produced, one call per
// period.
type CashflowGenerator struct {
	cashflows CashflowStore
}

func NewCashflowGenerator(store CashflowStore) *CashflowGenerator {
	return &CashflowGenerator{cashflows: store}
}

// Generate emits one cashflow per schedule step strictly between the start
// and maturity boundaries; the boundary dates themselves are never emitted.
// A 12 month monthly schedule therefore produces 11 cashflows. Each amount
// is flat simple interest: notional * rate * stepMonths/12, using the leg's
// stored rate regardless of leg type.
func (g *CashflowGenerator) Generate(leg *TradeLeg, start, maturity time.Time) ([]Cashflow, error) {
	stepMonths := leg.Schedule.Months()
	if stepMonths == 0 {
		return nil, fmt.Errorf("leg %s has no calculation schedule", leg.LegID)
	}

	periods := wholeMonthsBetween(start, maturity) / stepMonths
	amount := leg.Notional.
		Mul(leg.Rate).
		Mul(decimal.NewFromInt(int64(stepMonths))).
		Div(twelve).
		Round(4)

	var flows []Cashflow
	for step := 1; step <= periods; step++ {
		valueDate := start.AddDate(0, step*stepMonths, 0)
		if !valueDate.Before(maturity) {
			break
		}

		flow := Cashflow{
			CashflowID: "CF_" + uuid.New().String(),
			LegID:      leg.LegID,
			ValueDate:  valueDate,
			Amount:     amount,
			PayReceive: leg.PayReceive,
			Status:     CashflowProjected,
		}
		if err := g.cashflows.SaveCashflow(&flow); err != nil {
			return nil, err
		}
		flows = append(flows, flow)
	}

	return flows, nil
}

// wholeMonthsBetween returns the whole number of calendar months from start
// to end, zero if end precedes start.
func wholeMonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	for months > 0 && start.AddDate(0, months, 0).After(end) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
