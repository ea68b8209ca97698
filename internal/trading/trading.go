package trading

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Tobijimoh/trade-capture-system/internal/refdata"
	"github.com/Tobijimoh/trade-capture-system/internal/types"
	"github.com/Tobijimoh/trade-capture-system/pkg/response"
)

// CancellationPolicy decides what happens to the schedule when a trade is
// cancelled or terminated: the terminal version can be written with no
// remaining cashflows, or keep a regenerated schedule for reporting.
type CancellationPolicy int

const (
	DropRemainingCashflows CancellationPolicy = iota
	RetainRemainingCashflows
)

// Service orchestrates the trade lifecycle: creation, amendment, cancellation
// and termination, always as append-only versions of the same trade id.
type Service struct {
	store     Store
	validator *TradeValidator
	books     BookLookup
	cps       CounterpartyLookup
	statuses  StatusLookup
}

// NewService creates a trading service over a gorm connection and the
// reference data service's database.
func NewService(gormDB *gorm.DB, ref *refdata.Database) *Service {
	return NewServiceWith(NewDatabase(gormDB), ref, ref, ref, nil)
}

// NewServiceWith wires the service from explicit collaborators. Tests use it
// to substitute fakes and a fixed clock.
func NewServiceWith(store Store, books BookLookup, cps CounterpartyLookup, statuses StatusLookup, clock func() time.Time) *Service {
	return &Service{
		store:     store,
		validator: NewTradeValidator(books, cps, clock),
		books:     books,
		cps:       cps,
		statuses:  statuses,
	}
}

// CreateTrade validates and books a new trade at version 1. Nothing is
// persisted when validation fails; on success the trade, both legs and the
// generated cashflows commit as one unit.
func (s *Service) CreateTrade(sub *types.TradeSubmission) (*Trade, error) {
	logger := log.With().
		Str("service", "trading").
		Str("trade_id", sub.TradeID).
		Logger()

	if err := s.validate(sub); err != nil {
		logger.Info().Err(err).Msg("trade submission rejected")
		return nil, err
	}

	book, cp, status, err := s.resolveReferences(sub, StatusNew)
	if err != nil {
		return nil, err
	}

	tradeID := sub.TradeID
	if tradeID == "" {
		tradeID = "TRD_" + uuid.New().String()
	}

	legs, err := buildLegs(sub.Legs, tradeID)
	if err != nil {
		return nil, err
	}

	trade := &Trade{
		TradeID:        tradeID,
		Version:        1,
		Active:         true,
		Status:         status,
		TradeDate:      *sub.TradeDate,
		StartDate:      *sub.StartDate,
		MaturityDate:   *sub.MaturityDate,
		BookID:         book.ID,
		CounterpartyID: cp.ID,
	}

	err = s.store.InTransaction(func(tx Store) error {
		return persistVersion(tx, trade, legs, !status.IsTerminal())
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to persist trade")
		return nil, err
	}

	logger.Info().
		Str("trade_id", trade.TradeID).
		Int("version", trade.Version).
		Str("status", string(trade.Status)).
		Msg("trade booked")

	return trade, nil
}

// AmendTrade replaces the active version of a trade with a new one built
// from the submission. The old version is retired with a compare-and-swap on
// (trade_id, version); exactly two trade writes occur per amendment.
func (s *Service) AmendTrade(tradeID string, sub *types.TradeSubmission) (*Trade, error) {
	logger := log.With().
		Str("service", "trading").
		Str("trade_id", tradeID).
		Logger()

	current, err := s.store.FindActiveTradeByTradeID(tradeID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}

	if err := s.validate(sub); err != nil {
		logger.Info().Err(err).Msg("amendment rejected")
		return nil, err
	}

	book, cp, status, err := s.resolveReferences(sub, StatusAmended)
	if err != nil {
		return nil, err
	}

	legs, err := buildLegs(sub.Legs, tradeID)
	if err != nil {
		return nil, err
	}

	amended := &Trade{
		TradeID:        tradeID,
		Version:        current.Version + 1,
		Active:         true,
		Status:         status,
		TradeDate:      *sub.TradeDate,
		StartDate:      *sub.StartDate,
		MaturityDate:   *sub.MaturityDate,
		BookID:         book.ID,
		CounterpartyID: cp.ID,
	}

	err = s.store.InTransaction(func(tx Store) error {
		if err := tx.SupersedeTrade(current); err != nil {
			return err
		}
		return persistVersion(tx, amended, legs, !status.IsTerminal())
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to amend trade")
		return nil, err
	}

	logger.Info().
		Int("version", amended.Version).
		Str("status", string(amended.Status)).
		Msg("trade amended")

	return amended, nil
}

// CancelTrade retires the active version and books a CANCELLED version in
// its place. The policy decides whether the terminal version keeps a
// regenerated schedule.
func (s *Service) CancelTrade(tradeID string, policy CancellationPolicy) (*Trade, error) {
	return s.closeTrade(tradeID, StatusCancelled, policy)
}

// TerminateTrade retires the active version and books a TERMINATED version.
func (s *Service) TerminateTrade(tradeID string, policy CancellationPolicy) (*Trade, error) {
	return s.closeTrade(tradeID, StatusTerminated, policy)
}

// closeTrade is the shared supersede-and-replace path for terminal statuses.
// The replacement carries the current version's economics, so the validators
// are not re-run.
func (s *Service) closeTrade(tradeID string, status Status, policy CancellationPolicy) (*Trade, error) {
	logger := log.With().
		Str("service", "trading").
		Str("trade_id", tradeID).
		Str("status", string(status)).
		Logger()

	current, err := s.store.FindActiveTradeByTradeID(tradeID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}

	currentLegs, err := s.store.FindLegsByTradeVersionID(current.ID)
	if err != nil {
		return nil, err
	}

	closed := &Trade{
		TradeID:        tradeID,
		Version:        current.Version + 1,
		Active:         true,
		Status:         status,
		TradeDate:      current.TradeDate,
		StartDate:      current.StartDate,
		MaturityDate:   current.MaturityDate,
		BookID:         current.BookID,
		CounterpartyID: current.CounterpartyID,
	}

	legs := make([]TradeLeg, len(currentLegs))
	for i, leg := range currentLegs {
		legs[i] = TradeLeg{
			TradeID:    tradeID,
			Notional:   leg.Notional,
			Rate:       leg.Rate,
			LegType:    leg.LegType,
			PayReceive: leg.PayReceive,
			IndexName:  leg.IndexName,
			Schedule:   leg.Schedule,
		}
	}

	err = s.store.InTransaction(func(tx Store) error {
		if err := tx.SupersedeTrade(current); err != nil {
			return err
		}
		return persistVersion(tx, closed, legs, policy == RetainRemainingCashflows)
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to close trade")
		return nil, err
	}

	logger.Info().Int("version", closed.Version).Msg("trade closed")
	return closed, nil
}

// GetTradeByID returns the current active version of a trade with its legs.
// Superseded versions are never returned.
func (s *Service) GetTradeByID(tradeID string) (*Trade, error) {
	trade, err := s.store.FindActiveTradeByTradeID(tradeID)
	if err != nil {
		return nil, err
	}
	if trade == nil {
		return nil, fmt.Errorf("%w: %s", ErrTradeNotFound, tradeID)
	}

	legs, err := s.store.FindLegsByTradeVersionID(trade.ID)
	if err != nil {
		return nil, err
	}
	trade.Legs = legs
	return trade, nil
}

// GetTradeCashflows returns the generated schedule of the active version,
// keyed by leg.
func (s *Service) GetTradeCashflows(tradeID string) (map[string][]Cashflow, error) {
	trade, err := s.GetTradeByID(tradeID)
	if err != nil {
		return nil, err
	}

	flows := make(map[string][]Cashflow, len(trade.Legs))
	for _, leg := range trade.Legs {
		legFlows, err := s.store.FindCashflowsByLegID(leg.LegID)
		if err != nil {
			return nil, err
		}
		flows[leg.LegID] = legFlows
	}
	return flows, nil
}

// validate runs both validators and merges their verdicts; the submission
// fails as a whole with every broken rule reported at once.
func (s *Service) validate(sub *types.TradeSubmission) error {
	vr, err := s.validator.ValidateTradeBusinessRules(sub)
	if err != nil {
		return err
	}
	legVR := s.validator.ValidateTradeLegConsistency(sub.Legs, sub)
	vr.Merge(legVR)

	// The validators tolerate absent dates so each rule reports
	// independently; booking itself needs all three.
	if sub.TradeDate == nil {
		vr.AddError("Trade date must be defined")
	}
	if sub.StartDate == nil {
		vr.AddError("Start date must be defined")
	}

	if !vr.IsValid() {
		return NewValidationError(vr)
	}
	return nil
}

// resolveReferences re-resolves book, counterparty and status after
// validation. The validators already checked existence, but the rows could
// have changed underneath; an unresolvable reference here still fails the
// operation before anything is persisted.
func (s *Service) resolveReferences(sub *types.TradeSubmission, defaultStatus Status) (*refdata.Book, *refdata.Counterparty, Status, error) {
	var (
		book *refdata.Book
		err  error
	)
	if sub.BookID != nil {
		book, err = s.books.FindBookByID(*sub.BookID)
	} else {
		book, err = s.books.FindBookByName(sub.BookName)
	}
	if err != nil {
		return nil, nil, "", err
	}
	if book == nil {
		return nil, nil, "", &ValidationError{Messages: []string{"Book not found"}}
	}

	var cp *refdata.Counterparty
	if sub.CounterpartyID != nil {
		cp, err = s.cps.FindCounterpartyByID(*sub.CounterpartyID)
	} else {
		cp, err = s.cps.FindCounterpartyByName(sub.CounterpartyName)
	}
	if err != nil {
		return nil, nil, "", err
	}
	if cp == nil {
		return nil, nil, "", &ValidationError{Messages: []string{"Counterparty not found"}}
	}

	statusName := sub.TradeStatus
	if statusName == "" {
		statusName = string(defaultStatus)
	}
	statusRef, err := s.statuses.FindTradeStatusByName(statusName)
	if err != nil {
		return nil, nil, "", err
	}
	if statusRef == nil {
		return nil, nil, "", &ValidationError{Messages: []string{"Trade status not found"}}
	}

	status, err := ParseStatus(statusRef.Status)
	if err != nil {
		return nil, nil, "", &ValidationError{Messages: []string{err.Error()}}
	}

	return book, cp, status, nil
}

// buildLegs converts validated leg submissions into leg entities. The
// validators already vetted the enum literals, so parse failures here mean
// the submission bypassed validation.
func buildLegs(subs []types.TradeLegSubmission, tradeID string) ([]TradeLeg, error) {
	legs := make([]TradeLeg, len(subs))
	for i, ls := range subs {
		legType, err := ParseLegType(ls.LegType)
		if err != nil {
			return nil, &ValidationError{Messages: []string{err.Error()}}
		}
		flag, err := ParsePayReceive(ls.PayReceive)
		if err != nil {
			return nil, &ValidationError{Messages: []string{err.Error()}}
		}
		schedule, err := ParseFrequency(ls.Schedule)
		if err != nil {
			return nil, &ValidationError{Messages: []string{err.Error()}}
		}

		leg := TradeLeg{
			TradeID:    tradeID,
			Notional:   ls.Notional,
			LegType:    legType,
			PayReceive: flag,
			IndexName:  ls.IndexName,
			Schedule:   schedule,
		}
		if ls.Rate != nil {
			leg.Rate = *ls.Rate
		}
		legs[i] = leg
	}
	return legs, nil
}

// persistVersion writes one trade version, its legs and, when generate is
// set, the cashflow schedule of each leg. Callers run it inside a
// transaction so the version commits whole or not at all.
func persistVersion(tx Store, trade *Trade, legs []TradeLeg, generate bool) error {
	if err := tx.CreateTrade(trade); err != nil {
		return err
	}

	generator := NewCashflowGenerator(tx)
	for i := range legs {
		legs[i].TradeVersionID = trade.ID
		if err := tx.SaveTradeLeg(&legs[i]); err != nil {
			return err
		}
		if generate {
			if _, err := generator.Generate(&legs[i], trade.StartDate, trade.MaturityDate); err != nil {
				return err
			}
		}
	}

	trade.Legs = legs
	return nil
}

// GinHandlers contains HTTP handlers for trade lifecycle endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trade endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateTradeHandler handles POST requests to book new trades
func (h *GinHandlers) CreateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub types.TradeSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.CreateTrade(&sub)
		if err != nil {
			handleTradeError(c, err)
			return
		}

		response.Success(c, toTradeResponse(trade))
	}
}

// AmendTradeHandler handles PUT requests to amend the active trade version
func (h *GinHandlers) AmendTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tradeID := c.Param("trade_id")

		var sub types.TradeSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.AmendTrade(tradeID, &sub)
		if err != nil {
			handleTradeError(c, err)
			return
		}

		response.Success(c, toTradeResponse(trade))
	}
}

// CancelTradeHandler handles POST requests to cancel a trade. The
// retain_cashflows query flag keeps the schedule on the cancelled version.
func (h *GinHandlers) CancelTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trade, err := h.service.CancelTrade(c.Param("trade_id"), policyFromQuery(c))
		if err != nil {
			handleTradeError(c, err)
			return
		}
		response.Success(c, toTradeResponse(trade))
	}
}

// TerminateTradeHandler handles POST requests to terminate a trade early
func (h *GinHandlers) TerminateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trade, err := h.service.TerminateTrade(c.Param("trade_id"), policyFromQuery(c))
		if err != nil {
			handleTradeError(c, err)
			return
		}
		response.Success(c, toTradeResponse(trade))
	}
}

// GetTradeHandler handles GET requests for the active version of a trade
func (h *GinHandlers) GetTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trade, err := h.service.GetTradeByID(c.Param("trade_id"))
		if err != nil {
			handleTradeError(c, err)
			return
		}
		response.Success(c, toTradeResponse(trade))
	}
}

// GetTradeCashflowsHandler handles GET requests for the generated schedule
func (h *GinHandlers) GetTradeCashflowsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		flows, err := h.service.GetTradeCashflows(c.Param("trade_id"))
		if err != nil {
			handleTradeError(c, err)
			return
		}

		out := make(map[string][]types.CashflowResponse, len(flows))
		for legID, legFlows := range flows {
			responses := make([]types.CashflowResponse, len(legFlows))
			for i, f := range legFlows {
				responses[i] = types.CashflowResponse{
					CashflowID: f.CashflowID,
					LegID:      f.LegID,
					ValueDate:  f.ValueDate,
					Amount:     f.Amount,
					PayReceive: string(f.PayReceive),
					Status:     f.Status,
				}
			}
			out[legID] = responses
		}
		response.Success(c, out)
	}
}

func policyFromQuery(c *gin.Context) CancellationPolicy {
	if c.Query("retain_cashflows") == "true" {
		return RetainRemainingCashflows
	}
	return DropRemainingCashflows
}

func handleTradeError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		response.ValidationFailed(c, vErr.Error())
	case errors.Is(err, ErrTradeNotFound):
		response.NotFound(c, "Trade not found")
	case errors.Is(err, ErrVersionConflict):
		response.Conflict(c, "Trade was amended concurrently, please retry")
	default:
		response.InternalError(c, err.Error())
	}
}

func toTradeResponse(t *Trade) types.TradeResponse {
	legs := make([]types.TradeLegResponse, len(t.Legs))
	for i, leg := range t.Legs {
		legs[i] = types.TradeLegResponse{
			LegID:      leg.LegID,
			Notional:   leg.Notional,
			Rate:       leg.Rate,
			LegType:    string(leg.LegType),
			PayReceive: string(leg.PayReceive),
			IndexName:  leg.IndexName,
			Schedule:   string(leg.Schedule),
		}
	}

	return types.TradeResponse{
		TradeID:      t.TradeID,
		Version:      t.Version,
		Active:       t.Active,
		Status:       string(t.Status),
		TradeDate:    t.TradeDate,
		StartDate:    t.StartDate,
		MaturityDate: t.MaturityDate,
		Legs:         legs,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
