package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tobijimoh/trade-capture-system/internal/refdata"
	"github.com/Tobijimoh/trade-capture-system/internal/types"
)

// maxTradeDateAge is how far in the past a trade date may sit at submission.
const maxTradeDateAge = 30

// ValidationResult accumulates business rule failures for one submission.
// It is an in-memory verdict only and is never persisted.
type ValidationResult struct {
	valid  bool
	errors []string
}

// OK returns a valid, error-free result.
func OK() ValidationResult {
	return ValidationResult{valid: true}
}

// Invalid returns an invalid result seeded with one message.
func Invalid(message string) ValidationResult {
	r := ValidationResult{valid: false}
	r.AddError(message)
	return r
}

// AddError marks the result invalid and appends the message. Blank messages
// are ignored.
func (r *ValidationResult) AddError(message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	r.valid = false
	r.errors = append(r.errors, message)
}

// Merge appends the other result's errors; the receiver stays invalid if
// either side was.
func (r *ValidationResult) Merge(other ValidationResult) {
	if other.valid {
		return
	}
	r.valid = false
	r.errors = append(r.errors, other.errors...)
}

// IsValid reports whether no rule failed.
func (r ValidationResult) IsValid() bool {
	return r.valid
}

// Errors returns the accumulated messages in the order they were added.
func (r ValidationResult) Errors() []string {
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// BookLookup resolves trading books from reference data.
type BookLookup interface {
	FindBookByID(id uint) (*refdata.Book, error)
	FindBookByName(name string) (*refdata.Book, error)
}

// CounterpartyLookup resolves counterparties from reference data.
type CounterpartyLookup interface {
	FindCounterpartyByID(id uint) (*refdata.Counterparty, error)
	FindCounterpartyByName(name string) (*refdata.Counterparty, error)
}

// StatusLookup resolves trade status names from reference data.
type StatusLookup interface {
	FindTradeStatusByName(name string) (*refdata.TradeStatus, error)
}

// TradeValidator applies the booking business rules. Rules accumulate into
// one ValidationResult; only the leg count check short-circuits, because
// indexed access to leg A and leg B is unsafe without it.
type TradeValidator struct {
	books          BookLookup
	counterparties CounterpartyLookup
	now            func() time.Time
}

// NewTradeValidator builds a validator over the given reference data lookups.
// A nil clock defaults to time.Now; tests inject a fixed one so the trade
// date staleness rule is deterministic.
func NewTradeValidator(books BookLookup, counterparties CounterpartyLookup, clock func() time.Time) *TradeValidator {
	if clock == nil {
		clock = time.Now
	}
	return &TradeValidator{
		books:          books,
		counterparties: counterparties,
		now:            clock,
	}
}

// ValidateTradeBusinessRules checks trade-level date ordering, trade date
// staleness and reference data existence. Lookup failures are infrastructure
// errors and are returned separately from the verdict.
func (v *TradeValidator) ValidateTradeBusinessRules(sub *types.TradeSubmission) (ValidationResult, error) {
	vr := OK()

	tradeDate := sub.TradeDate
	startDate := sub.StartDate
	maturity := sub.MaturityDate

	// Date rules
	if maturity != nil && startDate != nil && maturity.Before(*startDate) {
		vr.AddError("Maturity date cannot be before start date")
	}
	if maturity != nil && tradeDate != nil && maturity.Before(*tradeDate) {
		vr.AddError("Maturity date cannot be before trade date")
	}
	if startDate != nil && tradeDate != nil && startDate.Before(*tradeDate) {
		vr.AddError("Start date cannot be before trade date")
	}
	if tradeDate != nil {
		days := int(v.now().Sub(*tradeDate).Hours() / 24)
		if days > maxTradeDateAge {
			vr.AddError("Trade date cannot be more than 30 days in the past")
		}
	}

	// Reference data must exist and be active (book)
	if sub.BookID != nil {
		book, err := v.books.FindBookByID(*sub.BookID)
		if err != nil {
			return vr, err
		}
		switch {
		case book == nil:
			vr.AddError("Book does not exist")
		case !book.Active:
			vr.AddError("Book is not active")
		}
	} else if sub.BookName != "" {
		book, err := v.books.FindBookByName(sub.BookName)
		if err != nil {
			return vr, err
		}
		switch {
		case book == nil:
			vr.AddError("Book does not exist")
		case !book.Active:
			vr.AddError("Book is not active")
		}
	}

	// Reference data must exist and be active (counterparty)
	if sub.CounterpartyID != nil {
		cp, err := v.counterparties.FindCounterpartyByID(*sub.CounterpartyID)
		if err != nil {
			return vr, err
		}
		switch {
		case cp == nil:
			vr.AddError("Counterparty does not exist")
		case !cp.Active:
			vr.AddError("Counterparty is not active")
		}
	} else if sub.CounterpartyName != "" {
		cp, err := v.counterparties.FindCounterpartyByName(sub.CounterpartyName)
		if err != nil {
			return vr, err
		}
		switch {
		case cp == nil:
			vr.AddError("Counterparty does not exist")
		case !cp.Active:
			vr.AddError("Counterparty is not active")
		}
	}

	return vr, nil
}

// legLabels name the two legs in error messages.
var legLabels = [2]string{"A", "B"}

// ValidateTradeLegConsistency checks the cross-leg structural rules. The leg
// count check alone returns immediately; everything after it assumes exactly
// two legs.
func (v *TradeValidator) ValidateTradeLegConsistency(legs []types.TradeLegSubmission, sub *types.TradeSubmission) ValidationResult {
	vr := OK()
	if len(legs) != 2 {
		vr.AddError("Trade must have exactly 2 legs")
		return vr
	}

	if sub.MaturityDate == nil {
		vr.AddError("Trade maturity date must be defined")
	}

	// Opposite pay/receive flags
	flagA, errA := ParsePayReceive(legs[0].PayReceive)
	flagB, errB := ParsePayReceive(legs[1].PayReceive)
	if legs[0].PayReceive == "" || legs[1].PayReceive == "" {
		vr.AddError("Both legs must have pay/receive flags")
	} else if errA != nil || errB != nil {
		vr.AddError("Legs must have a pay/receive flag of Pay or Receive")
	} else if flagA == flagB {
		vr.AddError("Legs must have opposite pay/receive flags")
	}

	// Floating requires an index, fixed requires a rate
	for i, leg := range legs {
		label := legLabels[i]

		if leg.Notional.IsNegative() {
			vr.AddError(fmt.Sprintf("Leg %s notional cannot be negative", label))
		}

		legType, err := ParseLegType(leg.LegType)
		if err != nil {
			vr.AddError(fmt.Sprintf("Leg %s has an unknown leg type", label))
			continue
		}
		if legType == LegTypeFloating && leg.IndexName == "" {
			vr.AddError(fmt.Sprintf("Floating leg %s must have an index specified", label))
		}
		if legType == LegTypeFixed && leg.Rate == nil {
			vr.AddError(fmt.Sprintf("Fixed leg %s must have a valid rate", label))
		}

		if _, err := ParseFrequency(leg.Schedule); err != nil {
			vr.AddError(fmt.Sprintf("Leg %s has an unknown calculation schedule", label))
		}
	}

	return vr
}
