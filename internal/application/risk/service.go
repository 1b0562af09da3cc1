package risk

import (
	"context"
	"errors"
	"fmt"
	"math"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/pkg/apperror"

	"gorm.io/gorm"
)

// Service computes the investor protection waterfall for a note. In a
// default scenario protection applies in order: collateral, then
// guarantees, then the insurance pool.
type Service struct {
	DB *gorm.DB
}

// Protection is the waterfall breakdown for one note.
type Protection struct {
	NoteID             int64   `json:"note_id"`
	FaceValue          int64   `json:"face_value"`
	CollateralCoverage int64   `json:"collateral_coverage"`
	GuaranteeCoverage  int64   `json:"guarantee_coverage"`
	InsurancePoolClaim int64   `json:"insurance_pool_claim"`
	UncoveredExposure  int64   `json:"uncovered_exposure"`
	ProtectionPercent  float64 `json:"protection_percent"`
	ProtectionSummary  string  `json:"protection_summary"`
}

// ProtectionWaterfall aggregates the note's active protection layers and
// the residual exposure after applying them in waterfall order.
func (s *Service) ProtectionWaterfall(ctx context.Context, noteID int64) (*Protection, error) {
	var note domain.NoteOffering
	if err := s.DB.WithContext(ctx).Where("id = ?", noteID).First(&note).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Newf(apperror.KindNotFound, "Note with ID %d not found", noteID)
		}
		return nil, apperror.Wrap(apperror.KindStorage, "failed to load note", err)
	}
	faceValue := note.Amount

	var collateral int64
	if err := s.DB.WithContext(ctx).Model(&domain.CollateralAsset{}).
		Where("note_id = ? AND status = ?", noteID, domain.CollateralActive).
		Select("COALESCE(SUM(valuation_cents), 0)").Scan(&collateral).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to sum collateral", err)
	}

	var guarantees []domain.Guarantee
	if err := s.DB.WithContext(ctx).
		Where("note_id = ? AND enforcement_status = ?", noteID, domain.EnforcementActive).
		Find(&guarantees).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to load guarantees", err)
	}
	var guaranteeCoverage int64
	for _, g := range guarantees {
		guaranteeCoverage += faceValue * g.CoveragePercent / 100
	}
	// Combined guarantees cannot cover more than the face value.
	if guaranteeCoverage > faceValue {
		guaranteeCoverage = faceValue
	}

	var insurance int64
	if err := s.DB.WithContext(ctx).Model(&domain.InsurancePoolContribution{}).
		Where("note_id = ?", noteID).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&insurance).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to sum insurance contributions", err)
	}

	remaining := faceValue - collateral
	if remaining < 0 {
		remaining = 0
	}
	remaining -= guaranteeCoverage
	if remaining < 0 {
		remaining = 0
	}
	uncovered := remaining - insurance
	if uncovered < 0 {
		uncovered = 0
	}

	protectionPercent := 0.0
	if faceValue > 0 {
		protectionPercent = float64(faceValue-uncovered) / float64(faceValue) * 100
	}

	return &Protection{
		NoteID:             noteID,
		FaceValue:          faceValue,
		CollateralCoverage: collateral,
		GuaranteeCoverage:  guaranteeCoverage,
		InsurancePoolClaim: insurance,
		UncoveredExposure:  uncovered,
		ProtectionPercent:  roundTwo(protectionPercent),
		ProtectionSummary:  fmt.Sprintf("%.0f%% Secured", protectionPercent),
	}, nil
}

func roundTwo(f float64) float64 {
	return math.Round(f*100) / 100
}
