package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Compliance audit actions.
const (
	AuditCheckStatus = "check_status"
	AuditVerify      = "verify"
	AuditUnverify    = "unverify"
)

// ComplianceAuditLog records every compliance action against a wallet for
// regulatory traceability.
type ComplianceAuditLog struct {
	ID            int64          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	WalletAddress string         `gorm:"column:wallet_address;size:42;index;not null" json:"wallet_address"`
	Action        string         `gorm:"column:action;size:50;not null" json:"action"`
	PerformedBy   *string        `gorm:"column:performed_by;size:255" json:"performed_by"`
	RequestID     *string        `gorm:"column:request_id;size:255;index" json:"request_id"`
	Timestamp     time.Time      `gorm:"column:timestamp;not null" json:"timestamp"`
	Metadata      datatypes.JSON `gorm:"column:metadata" json:"metadata"`
}

func (ComplianceAuditLog) TableName() string {
	return "compliance_audit_logs"
}
