package settlement

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Tobijimoh/trade-capture-system/internal/trading"
)

// Processor walks due cashflows through PROJECTED -> SETTLING -> SETTLED as
// their value dates pass. It is the only writer of cashflow statuses.
type Processor struct {
	db           *Database
	processDelay time.Duration
	now          func() time.Time
}

func NewProcessor(gormDB *gorm.DB) *Processor {
	return &Processor{
		db:           NewDatabase(gormDB),
		processDelay: 5 * time.Minute,
		now:          time.Now,
	}
}

// Start begins the settlement processing loop
func (p *Processor) Start(ctx context.Context) {
	logger := log.With().Str("component", "settlement_processor").Logger()
	logger.Info().Msg("starting settlement processor")

	ticker := time.NewTicker(p.processDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down settlement processor")
			return
		case <-ticker.C:
			if err := p.ProcessDueCashflows(); err != nil {
				logger.Error().Err(err).Msg("failed to process due cashflows")
			}
		}
	}
}

// ProcessDueCashflows advances every due cashflow one step. Exposed so the
// loop body can be driven directly in tests.
func (p *Processor) ProcessDueCashflows() error {
	logger := log.With().Str("component", "settlement_processor").Logger()

	flows, err := p.db.GetDueCashflows(p.now())
	if err != nil {
		return err
	}

	logger.Info().Int("due_count", len(flows)).Msg("processing due cashflows")

	for _, flow := range flows {
		switch flow.Status {
		case trading.CashflowProjected:
			flow.Status = trading.CashflowSettling
			logger.Info().
				Str("cashflow_id", flow.CashflowID).
				Time("value_date", flow.ValueDate).
				Msg("initiating cashflow settlement")

		case trading.CashflowSettling:
			flow.Status = trading.CashflowSettled
			logger.Info().
				Str("cashflow_id", flow.CashflowID).
				Str("amount", flow.Amount.String()).
				Msg("cashflow settled")
		}

		if err := p.db.UpdateCashflow(&flow); err != nil {
			logger.Error().
				Err(err).
				Str("cashflow_id", flow.CashflowID).
				Msg("failed to update cashflow status")
			continue
		}
	}

	return nil
}
