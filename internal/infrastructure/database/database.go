package database

import (
	"micropaper-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Open opens a GORM DB from DSN. PreferSimpleProtocol disables prepared
// statement caching to avoid 42P05 ("prepared statement already exists")
// when running behind connection poolers (PgBouncer, Supabase, Render).
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
}

// LockForUpdate adds SELECT ... FOR UPDATE on dialects that support it.
// SQLite (used by the tests) has a single writer and no row locks, so the
// clause is skipped there rather than producing invalid SQL.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// LockForShare adds SELECT ... FOR SHARE where supported. Order creation
// takes a share lock on the note row so concurrent order inserts proceed
// in parallel while an in-flight settlement (FOR UPDATE) excludes them.
func LockForShare(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "SHARE"})
	}
	return tx
}

// AutoMigrate runs migrations for every settlement-layer model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.WalletVerification{},
		&domain.NoteOffering{},
		&domain.Order{},
		&domain.InvestorHolding{},
		&domain.ComplianceAuditLog{},
		&domain.CollateralAsset{},
		&domain.Guarantee{},
		&domain.InsurancePoolContribution{},
	)
}
