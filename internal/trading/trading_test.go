package trading

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Tobijimoh/trade-capture-system/internal/refdata"
	"github.com/Tobijimoh/trade-capture-system/internal/types"
)

// fakeRefData implements the reference data lookups over in-memory maps.
type fakeRefData struct {
	books    map[string]*refdata.Book
	cps      map[string]*refdata.Counterparty
	statuses map[string]*refdata.TradeStatus
}

func newFakeRefData() *fakeRefData {
	f := &fakeRefData{
		books:    make(map[string]*refdata.Book),
		cps:      make(map[string]*refdata.Counterparty),
		statuses: make(map[string]*refdata.TradeStatus),
	}
	for i, name := range []string{"NEW", "AMENDED", "CANCELLED", "TERMINATED", "SUPERSEDED"} {
		f.statuses[name] = &refdata.TradeStatus{ID: uint(i + 1), Status: name}
	}
	return f
}

func (f *fakeRefData) addBook(id uint, name string, active bool) {
	f.books[name] = &refdata.Book{ID: id, Name: name, Active: active}
}

func (f *fakeRefData) addCounterparty(id uint, name string, active bool) {
	f.cps[name] = &refdata.Counterparty{ID: id, Name: name, Active: active}
}

func (f *fakeRefData) FindBookByID(id uint) (*refdata.Book, error) {
	for _, b := range f.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeRefData) FindBookByName(name string) (*refdata.Book, error) {
	return f.books[name], nil
}

func (f *fakeRefData) FindCounterpartyByID(id uint) (*refdata.Counterparty, error) {
	for _, cp := range f.cps {
		if cp.ID == id {
			return cp, nil
		}
	}
	return nil, nil
}

func (f *fakeRefData) FindCounterpartyByName(name string) (*refdata.Counterparty, error) {
	return f.cps[name], nil
}

func (f *fakeRefData) FindTradeStatusByName(name string) (*refdata.TradeStatus, error) {
	return f.statuses[name], nil
}

// fakeStore implements Store in memory and counts every write.
type fakeStore struct {
	nextID       uint
	active       map[string]*Trade
	created      []*Trade
	superseded   []*Trade
	legs         []*TradeLeg
	cashflows    []*Cashflow
	supersedeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID: 1,
		active: make(map[string]*Trade),
	}
}

// seedActive installs an existing active trade version with two legs.
func (f *fakeStore) seedActive(tradeID string, version int) *Trade {
	trade := &Trade{
		Model:        gorm.Model{ID: f.nextID},
		TradeID:      tradeID,
		Version:      version,
		Active:       true,
		Status:       StatusNew,
		TradeDate:    date(2025, 1, 15),
		StartDate:    date(2025, 1, 17),
		MaturityDate: date(2026, 1, 17),
	}
	f.nextID++
	f.active[tradeID] = trade

	for i, flag := range []PayReceive{Pay, Receive} {
		f.legs = append(f.legs, &TradeLeg{
			LegID:          fmt.Sprintf("LEG_seed_%s_%d", tradeID, i),
			TradeVersionID: trade.ID,
			TradeID:        tradeID,
			Notional:       decimal.NewFromInt(1_000_000),
			Rate:           decimal.NewFromFloat(0.05),
			LegType:        LegTypeFixed,
			PayReceive:     flag,
			Schedule:       Monthly,
		})
	}
	return trade
}

func (f *fakeStore) tradeWrites() int {
	return len(f.created) + len(f.superseded)
}

func (f *fakeStore) CreateTrade(trade *Trade) error {
	trade.ID = f.nextID
	f.nextID++
	f.created = append(f.created, trade)
	if trade.Active {
		f.active[trade.TradeID] = trade
	}
	return nil
}

func (f *fakeStore) SupersedeTrade(trade *Trade) error {
	if f.supersedeErr != nil {
		return f.supersedeErr
	}
	current, ok := f.active[trade.TradeID]
	if !ok || current.Version != trade.Version {
		return ErrVersionConflict
	}
	trade.Active = false
	trade.Status = StatusSuperseded
	delete(f.active, trade.TradeID)
	f.superseded = append(f.superseded, trade)
	return nil
}

func (f *fakeStore) FindActiveTradeByTradeID(tradeID string) (*Trade, error) {
	trade, ok := f.active[tradeID]
	if !ok {
		return nil, nil
	}
	copied := *trade
	return &copied, nil
}

func (f *fakeStore) SaveTradeLeg(leg *TradeLeg) error {
	if leg.LegID == "" {
		leg.LegID = fmt.Sprintf("LEG_%d", len(f.legs)+1)
	}
	f.legs = append(f.legs, leg)
	return nil
}

func (f *fakeStore) FindLegsByTradeVersionID(versionID uint) ([]TradeLeg, error) {
	var out []TradeLeg
	for _, leg := range f.legs {
		if leg.TradeVersionID == versionID {
			out = append(out, *leg)
		}
	}
	return out, nil
}

func (f *fakeStore) SaveCashflow(cashflow *Cashflow) error {
	f.cashflows = append(f.cashflows, cashflow)
	return nil
}

func (f *fakeStore) FindCashflowsByLegID(legID string) ([]Cashflow, error) {
	var out []Cashflow
	for _, flow := range f.cashflows {
		if flow.LegID == legID {
			out = append(out, *flow)
		}
	}
	return out, nil
}

func (f *fakeStore) InTransaction(fn func(Store) error) error {
	return fn(f)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

// fixedClock pins "now" so the trade date staleness rule is deterministic.
func fixedClock() time.Time {
	return date(2025, 1, 20)
}

func validSubmission() *types.TradeSubmission {
	fixedRate := decimal.NewFromFloat(0.05)
	floatRate := decimal.Zero

	return &types.TradeSubmission{
		TradeID:          "T-100001",
		TradeDate:        datePtr(2025, 1, 15),
		StartDate:        datePtr(2025, 1, 17),
		MaturityDate:     datePtr(2026, 1, 17),
		BookName:         "Book1",
		CounterpartyName: "Counterparty1",
		TradeStatus:      "NEW",
		Legs: []types.TradeLegSubmission{
			{
				Notional:   decimal.NewFromInt(1_000_000),
				Rate:       &fixedRate,
				LegType:    "Fixed",
				PayReceive: "Pay",
				Schedule:   "Monthly",
			},
			{
				Notional:   decimal.NewFromInt(1_000_000),
				Rate:       &floatRate,
				LegType:    "Floating",
				PayReceive: "Receive",
				IndexName:  "SOFR",
				Schedule:   "Monthly",
			},
		},
	}
}

func newTestService(store *fakeStore, ref *fakeRefData) *Service {
	return NewServiceWith(store, ref, ref, ref, fixedClock)
}

func TestCreateTrade_Success(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	service := newTestService(store, ref)

	trade, err := service.CreateTrade(validSubmission())
	require.NoError(t, err)

	assert.Equal(t, "T-100001", trade.TradeID)
	assert.Equal(t, 1, trade.Version)
	assert.True(t, trade.Active)
	assert.Equal(t, StatusNew, trade.Status)
	assert.Len(t, trade.Legs, 2)

	require.Len(t, store.created, 1)
	require.Len(t, store.legs, 2)

	// Cashflow generation ran for each leg
	for _, leg := range trade.Legs {
		flows, err := store.FindCashflowsByLegID(leg.LegID)
		require.NoError(t, err)
		assert.NotEmpty(t, flows)
	}
}

func TestCreateTrade_GeneratesTradeIDWhenAbsent(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	service := newTestService(newFakeStore(), ref)

	sub := validSubmission()
	sub.TradeID = ""

	trade, err := service.CreateTrade(sub)
	require.NoError(t, err)
	assert.NotEmpty(t, trade.TradeID)
	assert.Contains(t, trade.TradeID, "TRD_")
}

func TestCreateTrade_InvalidLegCount_NoPersistence(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	service := newTestService(store, ref)

	sub := validSubmission()
	sub.Legs = sub.Legs[:1]

	_, err := service.CreateTrade(sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly 2 legs")

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	assert.Zero(t, store.tradeWrites())
	assert.Empty(t, store.legs)
	assert.Empty(t, store.cashflows)
}

func TestCreateTrade_InvalidDates_ShouldFail(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	service := newTestService(store, ref)

	sub := validSubmission()
	sub.StartDate = datePtr(2025, 1, 10) // before trade date

	_, err := service.CreateTrade(sub)
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Messages, "Start date cannot be before trade date")
	assert.Zero(t, store.tradeWrites())
}

func TestCreateTrade_InactiveBook_ShouldFail(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", false)
	ref.addCounterparty(1, "Counterparty1", true)
	service := newTestService(newFakeStore(), ref)

	_, err := service.CreateTrade(validSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Book is not active")
}

func TestCreateTrade_AccumulatesAllFailures(t *testing.T) {
	ref := newFakeRefData()
	ref.addCounterparty(1, "Counterparty1", true)
	service := newTestService(newFakeStore(), ref)

	sub := validSubmission()
	sub.StartDate = datePtr(2025, 1, 10) // before trade date
	sub.Legs[1].PayReceive = "Pay"       // same flag on both legs
	sub.BookName = "NoSuchBook"          // unknown book

	_, err := service.CreateTrade(sub)
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Messages, "Start date cannot be before trade date")
	assert.Contains(t, vErr.Messages, "Book does not exist")
	assert.Contains(t, vErr.Messages, "Legs must have opposite pay/receive flags")
}

func TestAmendTrade_Success(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	store.seedActive("T-100001", 1)
	service := newTestService(store, ref)

	sub := validSubmission()
	sub.TradeStatus = "AMENDED"

	amended, err := service.AmendTrade("T-100001", sub)
	require.NoError(t, err)

	assert.Equal(t, "T-100001", amended.TradeID)
	assert.Equal(t, 2, amended.Version)
	assert.True(t, amended.Active)
	assert.Equal(t, StatusAmended, amended.Status)

	// Exactly two trade writes: old deactivated, new inserted
	assert.Equal(t, 2, store.tradeWrites())
	require.Len(t, store.superseded, 1)
	assert.False(t, store.superseded[0].Active)
	assert.Equal(t, StatusSuperseded, store.superseded[0].Status)
}

func TestAmendTrade_TradeNotFound(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	service := newTestService(store, ref)

	_, err := service.AmendTrade("T-999", validSubmission())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTradeNotFound))
	assert.Zero(t, store.tradeWrites())
}

func TestAmendTrade_VersionConflict(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	store.seedActive("T-100001", 1)
	store.supersedeErr = ErrVersionConflict
	service := newTestService(store, ref)

	_, err := service.AmendTrade("T-100001", validSubmission())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVersionConflict))
	assert.Empty(t, store.created)
}

func TestAmendTrade_RejectsInvalidSubmission(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	store.seedActive("T-100001", 1)
	service := newTestService(store, ref)

	sub := validSubmission()
	sub.Legs[0].PayReceive = "Receive" // both legs receive

	_, err := service.AmendTrade("T-100001", sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opposite pay/receive flags")
	assert.Zero(t, store.tradeWrites())
}

func TestGetTradeByID_Found(t *testing.T) {
	store := newFakeStore()
	store.seedActive("T-100001", 1)
	service := newTestService(store, newFakeRefData())

	trade, err := service.GetTradeByID("T-100001")
	require.NoError(t, err)
	assert.Equal(t, "T-100001", trade.TradeID)
	assert.Len(t, trade.Legs, 2)
}

func TestGetTradeByID_NotFound(t *testing.T) {
	service := newTestService(newFakeStore(), newFakeRefData())

	_, err := service.GetTradeByID("T-999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTradeNotFound))
}

func TestCancelTrade_DropsRemainingCashflows(t *testing.T) {
	store := newFakeStore()
	store.seedActive("T-100001", 1)
	service := newTestService(store, newFakeRefData())

	cancelled, err := service.CancelTrade("T-100001", DropRemainingCashflows)
	require.NoError(t, err)

	assert.Equal(t, 2, cancelled.Version)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.True(t, cancelled.Active)
	assert.Equal(t, 2, store.tradeWrites())
	assert.Len(t, cancelled.Legs, 2)
	assert.Empty(t, store.cashflows)
}

func TestCancelTrade_RetainsCashflowsOnRequest(t *testing.T) {
	store := newFakeStore()
	store.seedActive("T-100001", 1)
	service := newTestService(store, newFakeRefData())

	cancelled, err := service.CancelTrade("T-100001", RetainRemainingCashflows)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.NotEmpty(t, store.cashflows)
}

func TestTerminateTrade_NotFound(t *testing.T) {
	service := newTestService(newFakeStore(), newFakeRefData())

	_, err := service.TerminateTrade("T-999", DropRemainingCashflows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTradeNotFound))
}

func TestGetTradeCashflows(t *testing.T) {
	ref := newFakeRefData()
	ref.addBook(1, "Book1", true)
	ref.addCounterparty(1, "Counterparty1", true)
	store := newFakeStore()
	service := newTestService(store, ref)

	trade, err := service.CreateTrade(validSubmission())
	require.NoError(t, err)

	flows, err := service.GetTradeCashflows(trade.TradeID)
	require.NoError(t, err)
	require.Len(t, flows, 2)
	for _, legFlows := range flows {
		assert.NotEmpty(t, legFlows)
	}
}
