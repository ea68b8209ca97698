package trading

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the persistence contract the lifecycle service runs against. The
// gorm-backed Database below implements it; tests substitute fakes.
type Store interface {
	CreateTrade(trade *Trade) error
	SupersedeTrade(trade *Trade) error
	FindActiveTradeByTradeID(tradeID string) (*Trade, error)
	SaveTradeLeg(leg *TradeLeg) error
	FindLegsByTradeVersionID(versionID uint) ([]TradeLeg, error)
	SaveCashflow(cashflow *Cashflow) error
	FindCashflowsByLegID(legID string) ([]Cashflow, error)
	InTransaction(fn func(Store) error) error
}

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// InTransaction runs fn against a transaction-bound store. All writes inside
// fn commit together or roll back together.
func (d *Database) InTransaction(fn func(Store) error) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Database{db: tx})
	})
}

func (d *Database) CreateTrade(trade *Trade) error {
	return d.db.Create(trade).Error
}

// SupersedeTrade deactivates the given trade version with a conditional
// write on (trade_id, version, active). If no row matches, a concurrent
// amendment already retired this version and ErrVersionConflict is returned.
func (d *Database) SupersedeTrade(trade *Trade) error {
	result := d.db.Model(&Trade{}).
		Where("trade_id = ? AND version = ? AND active = ?", trade.TradeID, trade.Version, true).
		Updates(map[string]interface{}{"active": false, "status": StatusSuperseded})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	trade.Active = false
	trade.Status = StatusSuperseded
	return nil
}

func (d *Database) FindActiveTradeByTradeID(tradeID string) (*Trade, error) {
	var trade Trade
	if err := d.db.Where("trade_id = ? AND active = ?", tradeID, true).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

// SaveTradeLeg persists a leg, assigning a leg id when none is set.
func (d *Database) SaveTradeLeg(leg *TradeLeg) error {
	if leg.LegID == "" {
		leg.LegID = "LEG_" + uuid.New().String()
	}
	return d.db.Create(leg).Error
}

func (d *Database) FindLegsByTradeVersionID(versionID uint) ([]TradeLeg, error) {
	var legs []TradeLeg
	if err := d.db.Where("trade_version_id = ?", versionID).Order("id").Find(&legs).Error; err != nil {
		return nil, err
	}
	return legs, nil
}

func (d *Database) SaveCashflow(cashflow *Cashflow) error {
	if cashflow.CashflowID == "" {
		cashflow.CashflowID = "CF_" + uuid.New().String()
	}
	return d.db.Create(cashflow).Error
}

func (d *Database) FindCashflowsByLegID(legID string) ([]Cashflow, error) {
	var flows []Cashflow
	if err := d.db.Where("leg_id = ?", legID).Order("value_date").Find(&flows).Error; err != nil {
		return nil, err
	}
	return flows, nil
}
