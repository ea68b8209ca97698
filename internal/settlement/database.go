package settlement

import (
	"time"

	"gorm.io/gorm"

	"github.com/Tobijimoh/trade-capture-system/internal/trading"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// GetDueCashflows returns unsettled cashflows whose value date has been
// reached, restricted to legs of currently active trade versions. Cashflows
// of superseded versions are never settled.
func (d *Database) GetDueCashflows(asOf time.Time) ([]trading.Cashflow, error) {
	activeVersions := d.db.Model(&trading.Trade{}).
		Select("id").
		Where("active = ?", true)

	activeLegs := d.db.Model(&trading.TradeLeg{}).
		Select("leg_id").
		Where("trade_version_id IN (?)", activeVersions)

	var flows []trading.Cashflow
	err := d.db.
		Where("value_date <= ?", asOf).
		Where("status IN ?", []string{trading.CashflowProjected, trading.CashflowSettling}).
		Where("leg_id IN (?)", activeLegs).
		Order("value_date").
		Find(&flows).Error
	if err != nil {
		return nil, err
	}
	return flows, nil
}

// UpdateCashflow persists a status transition on a cashflow.
func (d *Database) UpdateCashflow(flow *trading.Cashflow) error {
	return d.db.Save(flow).Error
}
