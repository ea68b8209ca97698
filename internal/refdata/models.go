package refdata

import "time"

// Book is a trading book that owns booked trades. Inactive books cannot
// receive new trades.
type Book struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	Name       string    `gorm:"uniqueIndex" json:"name"`
	CostCentre string    `json:"cost_centre,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Counterparty is the other side of a booked trade.
type Counterparty struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Name      string    `gorm:"uniqueIndex" json:"name"`
	LEI       string    `json:"lei,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeStatus is a reference row for a lifecycle status name.
type TradeStatus struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Status      string    `gorm:"uniqueIndex" json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
