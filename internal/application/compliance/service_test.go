package compliance

import (
	"context"
	"testing"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/pkg/apperror"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupComplianceTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func strPtr(s string) *string { return &s }

const testWallet = "0x1234567890abcdef1234567890abcdef12345678"

func TestVerifyUnverifyRoundTrip(t *testing.T) {
	svc, _ := setupComplianceTest(t)
	ctx := context.Background()

	verified, err := svc.CheckStatus(ctx, testWallet, nil)
	require.NoError(t, err)
	assert.False(t, verified)

	wallet, err := svc.Verify(ctx, testWallet, VerifyParams{
		InvestorTier: strPtr("accredited"),
		Jurisdiction: strPtr("us"),
		PerformedBy:  strPtr("admin:test"),
	})
	require.NoError(t, err)
	assert.True(t, wallet.IsVerified)
	require.NotNil(t, wallet.InvestorTier)
	assert.Equal(t, domain.TierAccredited, *wallet.InvestorTier)
	require.NotNil(t, wallet.Jurisdiction)
	assert.Equal(t, "US", *wallet.Jurisdiction) // normalized uppercase

	verified, err = svc.CheckStatus(ctx, testWallet, nil)
	require.NoError(t, err)
	assert.True(t, verified)

	_, err = svc.Unverify(ctx, testWallet, VerifyParams{PerformedBy: strPtr("admin:test")})
	require.NoError(t, err)

	verified, err = svc.CheckStatus(ctx, testWallet, nil)
	require.NoError(t, err)
	assert.False(t, verified)
}

func TestVerify_NormalizesAddressCase(t *testing.T) {
	svc, db := setupComplianceTest(t)

	mixed := "0x1234567890ABCDEF1234567890abcdef12345678"
	_, err := svc.Verify(context.Background(), mixed, VerifyParams{})
	require.NoError(t, err)

	var wallet domain.WalletVerification
	require.NoError(t, db.Where("wallet_address = ?", testWallet).First(&wallet).Error)
	assert.True(t, wallet.IsVerified)
}

func TestVerify_RejectsInvalidInput(t *testing.T) {
	svc, _ := setupComplianceTest(t)

	_, err := svc.Verify(context.Background(), "0x123", VerifyParams{})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))

	_, err = svc.Verify(context.Background(), testWallet, VerifyParams{InvestorTier: strPtr("whale")})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}

func TestEligibility_USRetailBlocked(t *testing.T) {
	retail := domain.TierRetail
	accredited := domain.TierAccredited
	us := "US"
	de := "DE"

	assert.False(t, Eligible(&retail, &us))
	assert.True(t, Eligible(&accredited, &us))
	assert.True(t, Eligible(&retail, &de))
	// Missing attributes default to eligible.
	assert.True(t, Eligible(nil, &us))
	assert.True(t, Eligible(&retail, nil))
	assert.True(t, Eligible(nil, nil))
}

func TestIsEligible_PersistedWallet(t *testing.T) {
	svc, _ := setupComplianceTest(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, testWallet, VerifyParams{
		InvestorTier: strPtr("retail"),
		Jurisdiction: strPtr("US"),
	})
	require.NoError(t, err)

	eligible, err := svc.IsEligible(ctx, testWallet)
	require.NoError(t, err)
	assert.False(t, eligible)

	// Unknown wallets are never eligible (they are also unverified).
	eligible, err = svc.IsEligible(ctx, "0x9999999999999999999999999999999999999999")
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestListVerifiedAndStats(t *testing.T) {
	svc, _ := setupComplianceTest(t)
	ctx := context.Background()

	wallets := []string{
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		"0xcccccccccccccccccccccccccccccccccccccccc",
	}
	for _, w := range wallets {
		_, err := svc.Verify(ctx, w, VerifyParams{})
		require.NoError(t, err)
	}
	_, err := svc.Unverify(ctx, wallets[2], VerifyParams{})
	require.NoError(t, err)

	verified, total, err := svc.ListVerified(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, verified, 2)
	assert.Equal(t, wallets[0], verified[0].WalletAddress)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats["total_wallets"])
	assert.Equal(t, int64(2), stats["verified_wallets"])
	assert.Equal(t, int64(1), stats["unverified_wallets"])
}

func TestAuditTrailWritten(t *testing.T) {
	svc, db := setupComplianceTest(t)
	ctx := context.Background()

	rid := "req-audit"
	_, err := svc.Verify(ctx, testWallet, VerifyParams{RequestID: &rid})
	require.NoError(t, err)
	_, err = svc.CheckStatus(ctx, testWallet, &rid)
	require.NoError(t, err)

	var entries []domain.ComplianceAuditLog
	require.NoError(t, db.Order("id ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditVerify, entries[0].Action)
	assert.Equal(t, domain.AuditCheckStatus, entries[1].Action)
	require.NotNil(t, entries[1].RequestID)
	assert.Equal(t, "req-audit", *entries[1].RequestID)
}
