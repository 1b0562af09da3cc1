package offerings

import (
	"context"
	"strings"
	"time"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/pkg/apperror"
	"micropaper-backend/internal/pkg/yieldcalc"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service is the read-side directory over open note offerings.
type Service struct {
	DB *gorm.DB
}

// Filters narrows the open-offering listing.
type Filters struct {
	Currency   *string
	MinRateBps *int64
	MaxRateBps *int64
}

// OfferingWithYield is an open offering enriched with computed returns.
// Yield figures are recomputed on every read, never stored.
type OfferingWithYield struct {
	domain.NoteOffering
	MaturityValueCents *int64   `json:"maturity_value_cents"`
	APY                *float64 `json:"apy"`
}

// ListOpen returns open offerings matching the filters, ordered by note id
// ascending so pagination is stable while new notes are issued.
func (s *Service) ListOpen(ctx context.Context, filters Filters, page, limit int) ([]OfferingWithYield, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	q := s.DB.WithContext(ctx).Model(&domain.NoteOffering{}).
		Where("offering_status = ?", domain.OfferingOpen)

	if filters.Currency != nil && *filters.Currency != "" {
		cur := strings.ToUpper(*filters.Currency)
		if !domain.ValidCurrency(cur) {
			return nil, 0, apperror.Newf(apperror.KindInvalidInput, "unsupported currency %q", cur)
		}
		q = q.Where("currency = ?", cur)
	}
	if filters.MinRateBps != nil {
		q = q.Where("interest_rate_bps >= ?", *filters.MinRateBps)
	}
	if filters.MaxRateBps != nil {
		q = q.Where("interest_rate_bps <= ?", *filters.MaxRateBps)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, "failed to count offerings", err)
	}

	var notes []domain.NoteOffering
	if err := q.Order("id ASC").Offset((page - 1) * limit).Limit(limit).Find(&notes).Error; err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, "failed to list offerings", err)
	}

	now := time.Now().UTC()
	out := make([]OfferingWithYield, len(notes))
	for i, note := range notes {
		out[i] = OfferingWithYield{NoteOffering: note}
		mv, apy, err := yieldcalc.FromRate(note.Amount, note.InterestRateBps, now, note.MaturityDate)
		if err != nil {
			// A single bad row must not break the listing; its yield
			// fields stay null.
			log.Warn().Err(err).Int64("note_id", note.ID).Msg("yield calculation failed for offering")
			continue
		}
		out[i].MaturityValueCents = &mv
		out[i].APY = &apy
	}
	return out, total, nil
}
