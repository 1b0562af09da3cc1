package domain

import (
	"time"
)

// InvestorHolding is confirmed ownership created at settlement. Rows are
// append-only: created exclusively inside the settlement transaction and
// never updated or deleted. This is a par-value settlement, so
// acquisition_price equals quantity_held.
type InvestorHolding struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WalletAddress    string    `gorm:"column:wallet_address;size:42;index:ix_investor_holdings_wallet_note;not null" json:"wallet_address"`
	NoteID           int64     `gorm:"column:note_id;index:ix_investor_holdings_wallet_note;not null" json:"note_id"`
	QuantityHeld     int64     `gorm:"column:quantity_held;not null" json:"quantity_held"`
	AcquisitionPrice int64     `gorm:"column:acquisition_price;not null" json:"acquisition_price"`
	AcquiredAt       time.Time `gorm:"column:acquired_at;not null" json:"acquired_at"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (InvestorHolding) TableName() string {
	return "investor_holdings"
}
