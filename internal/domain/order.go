package domain

import (
	"time"
)

// OrderStatus tracks an investment order. pending is the only
// non-terminal state; once an order leaves pending it never returns.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderFilled    OrderStatus = "filled"
	OrderCancelled OrderStatus = "cancelled"
	OrderRejected  OrderStatus = "rejected"
)

// Order is an investor's request to subscribe to an offering. Amounts are
// integer cents and must be an exact multiple of the note's minimum
// subscription. Status is mutated only by the settlement engine
// (pending -> filled/rejected) or a cancellation path.
type Order struct {
	ID             int64       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	InvestorWallet string      `gorm:"column:investor_wallet;size:42;index;not null" json:"investor_wallet"`
	NoteID         int64       `gorm:"column:note_id;index:ix_orders_note_status;not null" json:"note_id"`
	Amount         int64       `gorm:"column:amount;not null" json:"amount"`
	Status         OrderStatus `gorm:"column:status;type:varchar(20);default:'pending';index:ix_orders_note_status" json:"status"`
	CreatedAt      time.Time   `gorm:"column:created_at" json:"created_at"`
	FilledAt       *time.Time  `gorm:"column:filled_at" json:"filled_at"`
	RequestID      *string     `gorm:"column:request_id;size:255" json:"request_id"`
}

func (Order) TableName() string {
	return "orders"
}
