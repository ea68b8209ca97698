package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Tobijimoh/trade-capture-system/internal/database/migrations"
	"github.com/Tobijimoh/trade-capture-system/internal/refdata"
	"github.com/Tobijimoh/trade-capture-system/internal/trading"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(path string) (*gorm.DB, error) {
	if path == "" {
		path = "trades.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&refdata.Book{},
		&refdata.Counterparty{},
		&refdata.TradeStatus{},
		&trading.Trade{},
		&trading.TradeLeg{},
		&trading.Cashflow{},
	)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddTradeVersioning(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
