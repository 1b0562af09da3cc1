package orders

import (
	"context"
	"errors"
	"time"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/pkg/apperror"
	"micropaper-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// WalletVerifier is the external compliance collaborator. Results are
// authoritative for a single order-creation call and never cached.
type WalletVerifier interface {
	IsVerified(ctx context.Context, walletAddress string) (bool, error)
	IsEligible(ctx context.Context, walletAddress string) (bool, error)
}

// Service owns the order-creation write path. Status transitions out of
// pending belong to the settlement engine.
type Service struct {
	DB       *gorm.DB
	Verifier WalletVerifier
}

// Create validates and persists a pending investment order. All
// preconditions are checked before any write:
//  1. wallet KYC-verified and eligible (compliance collaborator)
//  2. note exists and is open
//  3. amount is a positive exact multiple of the note's minimum subscription
//
// The note row is share-locked for the duration of the insert, so an order
// can never slip in between a settlement's aggregation and its commit: it
// either lands before the settlement reads pending orders, or it observes
// the settled status and is rejected here.
func (s *Service) Create(ctx context.Context, walletAddress string, noteID, amountCents int64, requestID *string) (*domain.Order, error) {
	addr := validation.NormalizeWalletAddress(walletAddress)
	if !validation.IsValidWalletAddress(addr) {
		return nil, apperror.New(apperror.KindInvalidInput, "Invalid Ethereum wallet address format")
	}

	verified, err := s.Verifier.IsVerified(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, apperror.New(apperror.KindCompliance, "Investor wallet must be verified (KYC'd) to place orders")
	}
	eligible, err := s.Verifier.IsEligible(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, apperror.New(apperror.KindCompliance, "Investor is not eligible to invest in this offering")
	}

	var order domain.Order
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note domain.NoteOffering
		if err := database.LockForShare(tx).Where("id = ?", noteID).First(&note).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Newf(apperror.KindNotFound, "Note with ID %d not found", noteID)
			}
			return apperror.Wrap(apperror.KindStorage, "failed to load note", err)
		}
		if note.OfferingStatus != domain.OfferingOpen {
			return apperror.Newf(apperror.KindOfferingNotOpen, "Note offering is not open for investment (status: %s)", note.OfferingStatus)
		}
		if amountCents <= 0 {
			return apperror.New(apperror.KindInvalidAmount, "Investment amount must be positive")
		}
		if amountCents < note.MinSubscriptionAmount {
			return apperror.Newf(apperror.KindInvalidAmount, "Investment amount must be at least %d cents", note.MinSubscriptionAmount).
				WithDetails(map[string]interface{}{"min_subscription_amount": note.MinSubscriptionAmount})
		}
		if amountCents%note.MinSubscriptionAmount != 0 {
			return apperror.Newf(apperror.KindInvalidAmount, "Investment amount must be a multiple of %d cents", note.MinSubscriptionAmount).
				WithDetails(map[string]interface{}{"min_subscription_amount": note.MinSubscriptionAmount})
		}

		order = domain.Order{
			InvestorWallet: addr,
			NoteID:         noteID,
			Amount:         amountCents,
			Status:         domain.OrderPending,
			RequestID:      requestID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return apperror.Wrap(apperror.KindStorage, "failed to persist order", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int64("order_id", order.ID).Int64("note_id", noteID).Int64("amount", amountCents).Msg("investment order created")
	return &order, nil
}

// ListPendingForNote runs a fresh query each call; orders can be created
// concurrently, so the result is a snapshot, not a restartable cursor.
func (s *Service) ListPendingForNote(ctx context.Context, noteID int64) ([]domain.Order, error) {
	var pending []domain.Order
	if err := s.DB.WithContext(ctx).
		Where("note_id = ? AND status = ?", noteID, domain.OrderPending).
		Order("created_at ASC, id ASC").
		Find(&pending).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to list pending orders", err)
	}
	return pending, nil
}

// MarkFilled batch-transitions orders to filled. Called only by the
// settlement engine inside its transaction.
func MarkFilled(tx *gorm.DB, orderIDs []int64, filledAt time.Time) error {
	if len(orderIDs) == 0 {
		return nil
	}
	res := tx.Model(&domain.Order{}).
		Where("id IN ? AND status = ?", orderIDs, domain.OrderPending).
		Updates(map[string]interface{}{"status": domain.OrderFilled, "filled_at": filledAt})
	if res.Error != nil {
		return apperror.Wrap(apperror.KindStorage, "failed to mark orders filled", res.Error)
	}
	if res.RowsAffected != int64(len(orderIDs)) {
		return apperror.Newf(apperror.KindStorage, "expected to fill %d orders, filled %d", len(orderIDs), res.RowsAffected)
	}
	return nil
}

// MarkRejected batch-transitions orders to rejected (over-subscription
// overflow). Called only by the settlement engine inside its transaction.
func MarkRejected(tx *gorm.DB, orderIDs []int64) error {
	if len(orderIDs) == 0 {
		return nil
	}
	res := tx.Model(&domain.Order{}).
		Where("id IN ? AND status = ?", orderIDs, domain.OrderPending).
		Update("status", domain.OrderRejected)
	if res.Error != nil {
		return apperror.Wrap(apperror.KindStorage, "failed to mark orders rejected", res.Error)
	}
	if res.RowsAffected != int64(len(orderIDs)) {
		return apperror.Newf(apperror.KindStorage, "expected to reject %d orders, rejected %d", len(orderIDs), res.RowsAffected)
	}
	return nil
}
