package holdings

import (
	"context"
	"testing"
	"time"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/pkg/apperror"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHoldingsTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	return &Service{DB: db}, db
}

func seedNote(t *testing.T, db *gorm.DB, isin string) *domain.NoteOffering {
	t.Helper()
	note := &domain.NoteOffering{
		ISIN:                  isin,
		WalletAddress:         "0x1111111111111111111111111111111111111111",
		Amount:                1_000_000,
		InterestRateBps:       500,
		Currency:              domain.CurrencyUSD,
		MinSubscriptionAmount: 10_000,
		MaturityDate:          time.Now().UTC().AddDate(0, 0, 90),
		OfferingStatus:        domain.OfferingSettled,
		IssuedAt:              time.Now().UTC(),
	}
	require.NoError(t, db.Create(note).Error)
	return note
}

const (
	holderA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	holderB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func TestCreateHoldings_EmptyIsNoop(t *testing.T) {
	_, db := setupHoldingsTest(t)

	created, err := CreateHoldings(db, nil)
	require.NoError(t, err)
	assert.Nil(t, created)
}

func TestCreateHoldingsAndList(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	note := seedNote(t, db, "USMOCK111111")
	other := seedNote(t, db, "USMOCK222222")
	acquiredAt := time.Now().UTC()

	created, err := CreateHoldings(db, []Spec{
		{WalletAddress: holderA, NoteID: note.ID, QuantityCents: 600_000, PriceCents: 600_000, AcquiredAt: acquiredAt},
		{WalletAddress: holderB, NoteID: note.ID, QuantityCents: 400_000, PriceCents: 400_000, AcquiredAt: acquiredAt},
		{WalletAddress: holderA, NoteID: other.ID, QuantityCents: 100_000, PriceCents: 100_000, AcquiredAt: acquiredAt},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.NotZero(t, created[0].ID)

	all, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "USMOCK111111", all[0].ISIN)
	assert.Equal(t, int64(500), all[0].InterestRateBps)

	wallet := holderA
	byWallet, err := svc.List(context.Background(), Filter{WalletAddress: &wallet})
	require.NoError(t, err)
	require.Len(t, byWallet, 2)

	byNote, err := svc.List(context.Background(), Filter{NoteID: &other.ID})
	require.NoError(t, err)
	require.Len(t, byNote, 1)
	assert.Equal(t, holderA, byNote[0].WalletAddress)
}

func TestList_ComputesYieldPerHolding(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	note := seedNote(t, db, "USMOCK333333")

	_, err := CreateHoldings(db, []Spec{
		{WalletAddress: holderA, NoteID: note.ID, QuantityCents: 500_000, PriceCents: 500_000, AcquiredAt: time.Now().UTC()},
	})
	require.NoError(t, err)

	rows, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Yield is on the held quantity, not the note's full principal.
	require.NotNil(t, rows[0].MaturityValueCents)
	assert.Greater(t, *rows[0].MaturityValueCents, int64(500_000))
	assert.Less(t, *rows[0].MaturityValueCents, int64(1_000_000))
	require.NotNil(t, rows[0].APY)
}

func TestList_NormalizesWalletFilter(t *testing.T) {
	svc, db := setupHoldingsTest(t)
	note := seedNote(t, db, "USMOCK444444")

	_, err := CreateHoldings(db, []Spec{
		{WalletAddress: holderA, NoteID: note.ID, QuantityCents: 100_000, PriceCents: 100_000, AcquiredAt: time.Now().UTC()},
	})
	require.NoError(t, err)

	mixed := "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	rows, err := svc.List(context.Background(), Filter{WalletAddress: &mixed})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestList_InvalidWalletFilter(t *testing.T) {
	svc, _ := setupHoldingsTest(t)

	bad := "0x123"
	_, err := svc.List(context.Background(), Filter{WalletAddress: &bad})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidInput, apperror.KindOf(err))
}
