package domain

import (
	"time"
)

// InvestorTier classifies the investor for eligibility rules.
type InvestorTier string

const (
	TierRetail        InvestorTier = "retail"
	TierAccredited    InvestorTier = "accredited"
	TierInstitutional InvestorTier = "institutional"
)

// ValidInvestorTier reports whether s is a known tier.
func ValidInvestorTier(s string) bool {
	switch InvestorTier(s) {
	case TierRetail, TierAccredited, TierInstitutional:
		return true
	}
	return false
}

// WalletVerification is the KYC record for an investor wallet. Addresses
// are stored lowercase.
type WalletVerification struct {
	WalletAddress string        `gorm:"column:wallet_address;size:42;primaryKey" json:"wallet_address"`
	IsVerified    bool          `gorm:"column:is_verified;not null;default:false" json:"is_verified"`
	InvestorTier  *InvestorTier `gorm:"column:investor_tier;type:varchar(20)" json:"investor_tier"`
	Jurisdiction  *string       `gorm:"column:jurisdiction;size:10" json:"jurisdiction"`
	VerifiedBy    *string       `gorm:"column:verified_by;size:255" json:"verified_by"`
	CreatedAt     time.Time     `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"column:updated_at" json:"updated_at"`
}

func (WalletVerification) TableName() string {
	return "wallet_verifications"
}
