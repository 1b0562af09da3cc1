package domain

import (
	"time"
)

// Currency a note is denominated in.
type Currency string

const (
	CurrencyUSD  Currency = "USD"
	CurrencyUSDC Currency = "USDC"
)

// ValidCurrency reports whether s is a supported currency code.
func ValidCurrency(s string) bool {
	switch Currency(s) {
	case CurrencyUSD, CurrencyUSDC:
		return true
	}
	return false
}

// OfferingStatus tracks a note's settlement lifecycle. Transitions are
// open -> settled (via the settlement engine) or open -> closed (withdrawn
// before any order); settled and closed are terminal.
type OfferingStatus string

const (
	OfferingOpen    OfferingStatus = "open"
	OfferingClosed  OfferingStatus = "closed"
	OfferingSettled OfferingStatus = "settled"
)

// NoteOffering is an issued note available for subscription. Financial
// terms (amount, rate, min subscription) are immutable once created;
// offering_status is mutated only by the settlement engine once orders
// exist.
type NoteOffering struct {
	ID                    int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ISIN                  string         `gorm:"column:isin;size:12;uniqueIndex;not null" json:"isin"`
	WalletAddress         string         `gorm:"column:wallet_address;size:42;index;not null" json:"wallet_address"`
	Amount                int64          `gorm:"column:amount;not null" json:"amount"`
	InterestRateBps       int64          `gorm:"column:interest_rate_bps;not null" json:"interest_rate_bps"`
	Currency              Currency       `gorm:"column:currency;type:varchar(10);not null" json:"currency"`
	MinSubscriptionAmount int64          `gorm:"column:min_subscription_amount;not null" json:"min_subscription_amount"`
	MaturityDate          time.Time      `gorm:"column:maturity_date;not null" json:"maturity_date"`
	OfferingStatus        OfferingStatus `gorm:"column:offering_status;type:varchar(20);default:'open';index" json:"offering_status"`
	SmartContractAddress  *string        `gorm:"column:smart_contract_address;size:42" json:"smart_contract_address"`
	RiskScore             *string        `gorm:"column:risk_score;size:10" json:"risk_score"`
	IssuedAt              time.Time      `gorm:"column:issued_at;not null" json:"issued_at"`
	CreatedAt             time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (NoteOffering) TableName() string {
	return "note_issuances"
}
