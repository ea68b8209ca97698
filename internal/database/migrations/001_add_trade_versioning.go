package migrations

import (
	"gorm.io/gorm"
)

// AddTradeVersioning creates the indexes backing the versioning protocol.
// The partial unique index is the hard guarantee that at most one version
// per trade id is active, whatever races the service layer loses.
func AddTradeVersioning(db *gorm.DB) error {
	indexes := []string{
		// One active version per trade id, enforced by the database
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_trades_single_active
		 ON trades(trade_id) WHERE active = 1 AND deleted_at IS NULL`,

		// Version history is unique per trade id
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_trades_trade_id_version
		 ON trades(trade_id, version)`,

		// Status filtering for back-office queries
		`CREATE INDEX IF NOT EXISTS idx_trades_status
		 ON trades(status)`,

		// Cashflow lookups by value date drive the settlement processor
		`CREATE INDEX IF NOT EXISTS idx_cashflows_value_date_status
		 ON cashflows(value_date, status)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
