package custodian

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/pkg/apperror"
	"micropaper-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service simulates the custodian issuing traditional notes. The
// settlement engine only ever reads the rows this service creates.
type Service struct {
	DB *gorm.DB
}

// IssueParams describes a note to issue. Amounts are integer cents, the
// rate is in basis points.
type IssueParams struct {
	WalletAddress         string
	Amount                int64
	InterestRateBps       int64
	Currency              string
	MinSubscriptionAmount int64
	MaturityDate          time.Time
	SmartContractAddress  *string
	RiskScore             *string
}

// IssueNote creates an open NoteOffering with a generated mock ISIN.
func (s *Service) IssueNote(ctx context.Context, params IssueParams) (*domain.NoteOffering, error) {
	addr := validation.NormalizeWalletAddress(params.WalletAddress)
	if !validation.IsValidWalletAddress(addr) {
		return nil, apperror.New(apperror.KindInvalidInput, "Invalid Ethereum wallet address format")
	}
	if params.Amount <= 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "amount must be a positive number of cents")
	}
	if params.InterestRateBps < 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "interest rate cannot be negative")
	}
	if !domain.ValidCurrency(params.Currency) {
		return nil, apperror.Newf(apperror.KindInvalidInput, "unsupported currency %q", params.Currency)
	}
	if params.MinSubscriptionAmount <= 0 {
		return nil, apperror.New(apperror.KindInvalidInput, "minimum subscription amount must be positive")
	}
	now := time.Now().UTC()
	if !params.MaturityDate.After(now) {
		return nil, apperror.New(apperror.KindInvalidInput, "maturity date must be in the future")
	}

	note := domain.NoteOffering{
		WalletAddress:         addr,
		Amount:                params.Amount,
		InterestRateBps:       params.InterestRateBps,
		Currency:              domain.Currency(params.Currency),
		MinSubscriptionAmount: params.MinSubscriptionAmount,
		MaturityDate:          params.MaturityDate.UTC(),
		OfferingStatus:        domain.OfferingOpen,
		SmartContractAddress:  params.SmartContractAddress,
		RiskScore:             params.RiskScore,
		IssuedAt:              now,
	}

	// The mock ISIN space is small enough to collide against the unique
	// index; regenerate and retry instead of surfacing a storage error.
	var err error
	for attempt := 0; attempt < maxISINAttempts; attempt++ {
		note.ISIN = newISIN()
		err = s.DB.WithContext(ctx).Create(&note).Error
		if err == nil {
			break
		}
		if !isDuplicateISIN(err) {
			return nil, apperror.Wrap(apperror.KindStorage, "failed to persist note issuance", err)
		}
		note.ID = 0
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to allocate a unique ISIN", err)
	}

	log.Info().Int64("note_id", note.ID).Str("isin", note.ISIN).Int64("amount", note.Amount).Msg("note issued")
	return &note, nil
}

// GetNote loads a note by id.
func (s *Service) GetNote(ctx context.Context, noteID int64) (*domain.NoteOffering, error) {
	var note domain.NoteOffering
	err := s.DB.WithContext(ctx).Where("id = ?", noteID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Newf(apperror.KindNotFound, "Note with ID %d not found", noteID)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to load note", err)
	}
	return &note, nil
}

// ListNotes returns all issued notes, newest first, paginated.
func (s *Service) ListNotes(ctx context.Context, page, limit int) ([]domain.NoteOffering, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&domain.NoteOffering{}).Count(&total).Error; err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, "failed to count notes", err)
	}

	var notes []domain.NoteOffering
	if err := s.DB.WithContext(ctx).
		Order("issued_at DESC, id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notes).Error; err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, "failed to list notes", err)
	}
	return notes, total, nil
}

// CloseOffering withdraws an open offering (open -> closed). Only allowed
// while the note has no orders at all; once investors have subscribed the
// only way out of open is settlement.
func (s *Service) CloseOffering(ctx context.Context, noteID int64) (*domain.NoteOffering, error) {
	var note domain.NoteOffering
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Exclusive lock so withdrawal serializes against order creation
		// (share lock on the same row): either the count below sees the
		// new order, or the order sees the closed status.
		if err := database.LockForUpdate(tx).Where("id = ?", noteID).First(&note).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Newf(apperror.KindNotFound, "Note with ID %d not found", noteID)
			}
			return apperror.Wrap(apperror.KindStorage, "failed to load note", err)
		}
		if note.OfferingStatus != domain.OfferingOpen {
			return apperror.Newf(apperror.KindOfferingNotOpen, "Note offering is not open (status: %s)", note.OfferingStatus)
		}

		var orderCount int64
		if err := tx.Model(&domain.Order{}).Where("note_id = ?", noteID).Count(&orderCount).Error; err != nil {
			return apperror.Wrap(apperror.KindStorage, "failed to count orders", err)
		}
		if orderCount > 0 {
			return apperror.Newf(apperror.KindInvalidInput, "cannot withdraw offering: %d order(s) already placed", orderCount)
		}

		note.OfferingStatus = domain.OfferingClosed
		if err := tx.Model(&domain.NoteOffering{}).Where("id = ?", noteID).
			Update("offering_status", domain.OfferingClosed).Error; err != nil {
			return apperror.Wrap(apperror.KindStorage, "failed to close offering", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("note_id", noteID).Msg("offering withdrawn")
	return &note, nil
}

// GenerateISIN produces a mock ISIN following the ISO 6166 shape:
// country code + "MOCK" + 5 digits + check digit.
func GenerateISIN() string {
	return fmt.Sprintf("USMOCK%05d%d", rand.Intn(90000)+10000, rand.Intn(10))
}

const maxISINAttempts = 5

var newISIN = GenerateISIN

func isDuplicateISIN(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Not every dialect translates constraint violations.
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
