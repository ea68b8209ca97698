package refdata

import (
	"errors"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) FindBookByID(id uint) (*Book, error) {
	var book Book
	if err := d.db.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (d *Database) FindBookByName(name string) (*Book, error) {
	var book Book
	if err := d.db.Where("name = ?", name).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (d *Database) CreateBook(book *Book) error {
	return d.db.Create(book).Error
}

func (d *Database) ListBooks() ([]Book, error) {
	var books []Book
	if err := d.db.Order("name").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// DeactivateBook flags a book inactive; its trades remain untouched.
func (d *Database) DeactivateBook(id uint) error {
	return d.db.Model(&Book{}).Where("id = ?", id).Update("active", false).Error
}

func (d *Database) FindCounterpartyByID(id uint) (*Counterparty, error) {
	var cp Counterparty
	if err := d.db.First(&cp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cp, nil
}

func (d *Database) FindCounterpartyByName(name string) (*Counterparty, error) {
	var cp Counterparty
	if err := d.db.Where("name = ?", name).First(&cp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cp, nil
}

func (d *Database) CreateCounterparty(cp *Counterparty) error {
	return d.db.Create(cp).Error
}

func (d *Database) ListCounterparties() ([]Counterparty, error) {
	var cps []Counterparty
	if err := d.db.Order("name").Find(&cps).Error; err != nil {
		return nil, err
	}
	return cps, nil
}

func (d *Database) DeactivateCounterparty(id uint) error {
	return d.db.Model(&Counterparty{}).Where("id = ?", id).Update("active", false).Error
}

func (d *Database) FindTradeStatusByName(name string) (*TradeStatus, error) {
	var status TradeStatus
	if err := d.db.Where("status = ?", name).First(&status).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

func (d *Database) ListTradeStatuses() ([]TradeStatus, error) {
	var statuses []TradeStatus
	if err := d.db.Order("id").Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

// SeedTradeStatuses inserts the lifecycle status rows the booking engine
// resolves against. Existing rows are left alone.
func (d *Database) SeedTradeStatuses() error {
	statuses := []TradeStatus{
		{Status: "NEW", Description: "Newly booked trade"},
		{Status: "AMENDED", Description: "Current version produced by amendment"},
		{Status: "CANCELLED", Description: "Cancelled before maturity"},
		{Status: "TERMINATED", Description: "Terminated early"},
		{Status: "SUPERSEDED", Description: "Replaced by a later version"},
	}
	for _, s := range statuses {
		existing, err := d.FindTradeStatusByName(s.Status)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := d.db.Create(&s).Error; err != nil {
			return err
		}
	}
	return nil
}
