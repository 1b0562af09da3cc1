package holdings

import (
	"context"
	"time"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/pkg/apperror"
	"micropaper-backend/internal/pkg/validation"
	"micropaper-backend/internal/pkg/yieldcalc"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service is the read side of the holdings ledger. Holdings are created
// exclusively by the settlement engine (CreateHoldings); there is no
// update or delete path.
type Service struct {
	DB *gorm.DB
}

// Spec describes one holding to create at settlement.
type Spec struct {
	WalletAddress string
	NoteID        int64
	QuantityCents int64
	PriceCents    int64
	AcquiredAt    time.Time
}

// HoldingWithYield is a holding joined with its note and enriched with
// recomputed returns (quantity projected to the note's maturity).
type HoldingWithYield struct {
	domain.InvestorHolding
	ISIN               string    `json:"isin"`
	MaturityDate       time.Time `json:"maturity_date"`
	InterestRateBps    int64     `json:"interest_rate_bps"`
	MaturityValueCents *int64    `json:"maturity_value_cents"`
	APY                *float64  `json:"apy"`
}

// Filter narrows the holdings listing.
type Filter struct {
	WalletAddress *string
	NoteID        *int64
}

// CreateHoldings bulk-inserts holdings inside the settlement transaction.
// Must only be called with the settlement engine's tx.
func CreateHoldings(tx *gorm.DB, specs []Spec) ([]domain.InvestorHolding, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	rows := make([]domain.InvestorHolding, len(specs))
	for i, spec := range specs {
		rows[i] = domain.InvestorHolding{
			WalletAddress:    spec.WalletAddress,
			NoteID:           spec.NoteID,
			QuantityHeld:     spec.QuantityCents,
			AcquisitionPrice: spec.PriceCents,
			AcquiredAt:       spec.AcquiredAt,
		}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to create holdings", err)
	}
	return rows, nil
}

// List returns holdings (optionally filtered by wallet and/or note), each
// enriched with yield computed from the linked note's rate and remaining
// term. Yield is derived on read, never stored.
func (s *Service) List(ctx context.Context, filter Filter) ([]HoldingWithYield, error) {
	q := s.DB.WithContext(ctx).Model(&domain.InvestorHolding{}).
		Select("investor_holdings.*, note_issuances.isin, note_issuances.maturity_date, note_issuances.interest_rate_bps").
		Joins("JOIN note_issuances ON note_issuances.id = investor_holdings.note_id")

	if filter.WalletAddress != nil && *filter.WalletAddress != "" {
		addr := validation.NormalizeWalletAddress(*filter.WalletAddress)
		if !validation.IsValidWalletAddress(addr) {
			return nil, apperror.New(apperror.KindInvalidInput, "Invalid Ethereum wallet address format")
		}
		q = q.Where("investor_holdings.wallet_address = ?", addr)
	}
	if filter.NoteID != nil {
		q = q.Where("investor_holdings.note_id = ?", *filter.NoteID)
	}

	var rows []HoldingWithYield
	if err := q.Order("investor_holdings.id ASC").Scan(&rows).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to list holdings", err)
	}

	now := time.Now().UTC()
	for i := range rows {
		mv, apy, err := yieldcalc.FromRate(rows[i].QuantityHeld, rows[i].InterestRateBps, now, rows[i].MaturityDate)
		if err != nil {
			log.Warn().Err(err).Int64("holding_id", rows[i].ID).Msg("yield calculation failed for holding")
			continue
		}
		rows[i].MaturityValueCents = &mv
		rows[i].APY = &apy
	}
	return rows, nil
}
