package domain

import (
	"time"
)

// Collateral asset types and statuses.
type AssetType string

const (
	AssetCash        AssetType = "cash"
	AssetReceivables AssetType = "receivables"
	AssetInventory   AssetType = "inventory"
)

type CollateralStatus string

const (
	CollateralActive     CollateralStatus = "active"
	CollateralLiquidated CollateralStatus = "liquidated"
)

// CollateralAsset is the first layer of the protection waterfall.
type CollateralAsset struct {
	ID             int64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID         int64            `gorm:"column:note_id;index;not null" json:"note_id"`
	AssetType      AssetType        `gorm:"column:asset_type;type:varchar(20);not null" json:"asset_type"`
	Description    *string          `gorm:"column:description;size:500" json:"description"`
	ValuationCents int64            `gorm:"column:valuation_cents;not null" json:"valuation_cents"`
	Status         CollateralStatus `gorm:"column:status;type:varchar(20);default:'active'" json:"status"`
	CreatedAt      time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (CollateralAsset) TableName() string {
	return "collateral_assets"
}

type GuarantorType string

const (
	GuarantorPersonal      GuarantorType = "personal"
	GuarantorBank          GuarantorType = "bank"
	GuarantorSBA           GuarantorType = "sba"
	GuarantorInsurancePool GuarantorType = "insurance_pool"
)

type EnforcementStatus string

const (
	EnforcementActive    EnforcementStatus = "active"
	EnforcementTriggered EnforcementStatus = "triggered"
)

// Guarantee is the second layer of the protection waterfall; coverage is a
// percentage of the note's face value.
type Guarantee struct {
	ID                int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID            int64             `gorm:"column:note_id;index;not null" json:"note_id"`
	GuarantorType     GuarantorType     `gorm:"column:guarantor_type;type:varchar(20);not null" json:"guarantor_type"`
	GuarantorName     string            `gorm:"column:guarantor_name;size:255;not null" json:"guarantor_name"`
	CoveragePercent   int64             `gorm:"column:coverage_percent;not null" json:"coverage_percent"`
	EnforcementStatus EnforcementStatus `gorm:"column:enforcement_status;type:varchar(20);default:'active'" json:"enforcement_status"`
	CreatedAt         time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at" json:"updated_at"`
}

func (Guarantee) TableName() string {
	return "guarantees"
}

// InsurancePoolContribution is the last layer of the protection waterfall.
type InsurancePoolContribution struct {
	ID               int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID           int64     `gorm:"column:note_id;index;not null" json:"note_id"`
	AmountCents      int64     `gorm:"column:amount_cents;not null" json:"amount_cents"`
	ContributionDate time.Time `gorm:"column:contribution_date;not null" json:"contribution_date"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
}

func (InsurancePoolContribution) TableName() string {
	return "insurance_pool_contributions"
}
