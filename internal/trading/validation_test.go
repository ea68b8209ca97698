package trading

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_Accumulation(t *testing.T) {
	vr := OK()
	assert.True(t, vr.IsValid())
	assert.Empty(t, vr.Errors())

	vr.AddError("first failure")
	assert.False(t, vr.IsValid())

	vr.AddError("   ") // blank messages are ignored
	vr.AddError("second failure")
	assert.Equal(t, []string{"first failure", "second failure"}, vr.Errors())
}

func TestValidationResult_Merge(t *testing.T) {
	vr := OK()
	vr.Merge(OK())
	assert.True(t, vr.IsValid())

	vr.Merge(Invalid("leg failure"))
	assert.False(t, vr.IsValid())
	assert.Equal(t, []string{"leg failure"}, vr.Errors())

	// Merging a valid result into an invalid one keeps it invalid
	vr.Merge(OK())
	assert.False(t, vr.IsValid())
}

func newTestValidator(ref *fakeRefData) *TradeValidator {
	return NewTradeValidator(ref, ref, fixedClock)
}

func activeRefData() *fakeRefData {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	return ref
}

func TestBusinessRules_ValidSubmission(t *testing.T) {
	v := newTestValidator(activeRefData())

	vr, err := v.ValidateTradeBusinessRules(validSubmission())
	require.NoError(t, err)
	assert.True(t, vr.IsValid())
}

func TestBusinessRules_DateOrdering(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.StartDate = datePtr(2025, 1, 10)

	vr, err := v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.False(t, vr.IsValid())
	assert.Contains(t, vr.Errors(), "Start date cannot be before trade date")
}

func TestBusinessRules_MaturityBeforeEverything(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.MaturityDate = datePtr(2025, 1, 1) // before start and trade dates

	vr, err := v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Maturity date cannot be before start date")
	assert.Contains(t, vr.Errors(), "Maturity date cannot be before trade date")
}

func TestBusinessRules_StaleTradeDate(t *testing.T) {
	v := newTestValidator(activeRefData())

	// Clock is pinned at 2025-01-20; 31 days earlier is stale
	sub := validSubmission()
	sub.TradeDate = datePtr(2024, 12, 20)
	sub.StartDate = datePtr(2025, 1, 17)

	vr, err := v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Trade date cannot be more than 30 days in the past")

	// Exactly 30 days old is still acceptable
	sub.TradeDate = datePtr(2024, 12, 21)
	vr, err = v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.NotContains(t, vr.Errors(), "Trade date cannot be more than 30 days in the past")
}

func TestBusinessRules_MissingDatesAreTolerated(t *testing.T) {
	v := newTestValidator(activeRefData())

	// Date ordering rules only fire when both operands are present; the leg
	// consistency validator reports the missing maturity
	sub := validSubmission()
	sub.MaturityDate = nil

	vr, err := v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.True(t, vr.IsValid())
}

func TestBusinessRules_BookResolution(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(7, "DormantBook", false)
	ref.addCounterparty(1, "Counterparty1", true)
	v := newTestValidator(ref)

	sub := validSubmission()
	sub.BookName = "DormantBook"

	vr, err := v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Book is not active")

	sub.BookName = "MissingBook"
	vr, err = v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Book does not exist")

	// Resolution by id takes precedence over name
	bookID := uint(7)
	sub.BookID = &bookID
	sub.BookName = "MissingBook"
	vr, err = v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Book is not active")
	assert.NotContains(t, vr.Errors(), "Book does not exist")
}

func TestBusinessRules_CounterpartyResolution(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(9, "DormantCP", false)
	v := newTestValidator(ref)

	sub := validSubmission()
	sub.CounterpartyName = "DormantCP"

	vr, err := v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Counterparty is not active")

	sub.CounterpartyName = "NoSuchCP"
	vr, err = v.ValidateTradeBusinessRules(sub)
	require.NoError(t, err)
	assert.Contains(t, vr.Errors(), "Counterparty does not exist")
}

func TestLegConsistency_LegCountShortCircuits(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.MaturityDate = nil // would normally add another error
	legs := sub.Legs[:1]

	vr := v.ValidateTradeLegConsistency(legs, sub)
	assert.False(t, vr.IsValid())
	assert.Equal(t, []string{"Trade must have exactly 2 legs"}, vr.Errors())
}

func TestLegConsistency_OppositeFlags(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.Legs[0].PayReceive = "Pay"
	sub.Legs[1].PayReceive = "Pay"

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Legs must have opposite pay/receive flags")

	// Opposite flags pass that check regardless of letter case
	sub.Legs[0].PayReceive = "PAY"
	sub.Legs[1].PayReceive = "receive"
	vr = v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.NotContains(t, vr.Errors(), "Legs must have opposite pay/receive flags")
}

func TestLegConsistency_MissingFlags(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.Legs[0].PayReceive = ""

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Both legs must have pay/receive flags")
}

func TestLegConsistency_MissingMaturity(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.MaturityDate = nil

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Trade maturity date must be defined")
}

func TestLegConsistency_FloatingRequiresIndex(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.Legs[1].IndexName = ""

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Floating leg B must have an index specified")
}

func TestLegConsistency_FixedRequiresRate(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.Legs[0].Rate = nil

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Fixed leg A must have a valid rate")
}

func TestLegConsistency_NegativeNotional(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.Legs[0].Notional = decimal.NewFromInt(-100)

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Leg A notional cannot be negative")
}

func TestLegConsistency_UnknownEnumLiterals(t *testing.T) {
	v := newTestValidator(activeRefData())

	sub := validSubmission()
	sub.Legs[0].LegType = "Swaption"
	sub.Legs[1].Schedule = "Fortnightly"

	vr := v.ValidateTradeLegConsistency(sub.Legs, sub)
	assert.Contains(t, vr.Errors(), "Leg A has an unknown leg type")
	assert.Contains(t, vr.Errors(), "Leg B has an unknown calculation schedule")
}

func TestParseEnums(t *testing.T) {
	legType, err := ParseLegType("floating")
	require.NoError(t, err)
	assert.Equal(t, LegTypeFloating, legType)

	_, err = ParseLegType("bermudan")
	assert.Error(t, err)

	flag, err := ParsePayReceive("RECEIVE")
	require.NoError(t, err)
	assert.Equal(t, Receive, flag)

	freq, err := ParseFrequency("semi-annual")
	require.NoError(t, err)
	assert.Equal(t, SemiAnnual, freq)
	assert.Equal(t, 6, freq.Months())

	status, err := ParseStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)
	assert.True(t, status.IsTerminal())
	assert.False(t, StatusAmended.IsTerminal())
}
