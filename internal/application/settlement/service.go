package settlement

import (
	"context"
	"errors"
	"time"

	"micropaper-backend/internal/application/holdings"
	"micropaper-backend/internal/application/orders"
	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/pkg/apperror"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// DefaultTxTimeout bounds the settlement transaction; on expiry the
// transaction rolls back in full and the caller gets a retryable error.
const DefaultTxTimeout = 10 * time.Second

// Service is the settlement engine. It exclusively owns the write paths
// for holdings, for order status transitions out of pending, and for the
// note's offering_status once orders exist.
type Service struct {
	DB        *gorm.DB
	TxTimeout time.Duration
}

// Report summarizes a committed settlement.
type Report struct {
	NoteID          int64                 `json:"note_id"`
	NoteStatus      domain.OfferingStatus `json:"note_status"`
	TotalOffering   int64                 `json:"total_offering"`
	TotalSubscribed int64                 `json:"total_subscribed"`
	TotalSettled    int64                 `json:"total_settled"`
	OrdersFilled    int                   `json:"orders_filled"`
	OrdersRejected  int                   `json:"orders_rejected"`
	HoldingIDs      []int64               `json:"holding_ids"`
	SettledAt       time.Time             `json:"settled_at"`
	PerformedBy     string                `json:"performed_by"`
}

// Settle converts every pending order for a fully subscribed note into a
// holding and closes the offering, atomically. The note row is locked FOR
// UPDATE for the whole read-aggregate-write sequence, so a concurrent
// Settle for the same note blocks and then fails with AlreadySettled, and
// a concurrent order creation (share lock) waits and then sees the
// terminal status.
//
// Allocation is first-come-first-served: pending orders are filled in
// creation order until the running total first reaches the note's
// principal; any later pending orders are marked rejected in the same
// transaction rather than over-allocating beyond the principal.
func (s *Service) Settle(ctx context.Context, noteID int64, performedBy string) (*Report, error) {
	timeout := s.TxTimeout
	if timeout <= 0 {
		timeout = DefaultTxTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var report Report
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note domain.NoteOffering
		if err := database.LockForUpdate(tx).Where("id = ?", noteID).First(&note).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.Newf(apperror.KindNotFound, "Note with ID %d not found", noteID)
			}
			return apperror.Wrap(apperror.KindStorage, "failed to load note", err)
		}
		if note.OfferingStatus != domain.OfferingOpen {
			return apperror.Newf(apperror.KindAlreadySettled, "Note is not open for settlement (status: %s)", note.OfferingStatus)
		}

		var pending []domain.Order
		if err := tx.Where("note_id = ? AND status = ?", noteID, domain.OrderPending).
			Order("created_at ASC, id ASC").
			Find(&pending).Error; err != nil {
			return apperror.Wrap(apperror.KindStorage, "failed to load pending orders", err)
		}
		if len(pending) == 0 {
			return apperror.Newf(apperror.KindNoPendingOrders, "Note %d has no pending orders to settle", noteID)
		}

		var totalSubscribed int64
		for _, o := range pending {
			totalSubscribed += o.Amount
		}
		if totalSubscribed < note.Amount {
			shortfall := note.Amount - totalSubscribed
			return apperror.Newf(apperror.KindUnderSubscribed,
				"Note is not fully subscribed. Total subscribed: %d cents, Required: %d cents", totalSubscribed, note.Amount).
				WithDetails(map[string]interface{}{
					"total_subscribed": totalSubscribed,
					"required":         note.Amount,
					"shortfall":        shortfall,
				})
		}

		// FIFO allocation up to the principal; the crossing order is
		// included in full (no proration), everything after it is rejected.
		var fill, reject []domain.Order
		var running int64
		for _, o := range pending {
			if running >= note.Amount {
				reject = append(reject, o)
				continue
			}
			fill = append(fill, o)
			running += o.Amount
		}

		settledAt := time.Now().UTC()

		specs := make([]holdings.Spec, len(fill))
		fillIDs := make([]int64, len(fill))
		var totalSettled int64
		for i, o := range fill {
			specs[i] = holdings.Spec{
				WalletAddress: o.InvestorWallet,
				NoteID:        note.ID,
				QuantityCents: o.Amount,
				PriceCents:    o.Amount, // par-value settlement
				AcquiredAt:    settledAt,
			}
			fillIDs[i] = o.ID
			totalSettled += o.Amount
		}

		created, err := holdings.CreateHoldings(tx, specs)
		if err != nil {
			return err
		}
		if err := orders.MarkFilled(tx, fillIDs, settledAt); err != nil {
			return err
		}

		rejectIDs := make([]int64, len(reject))
		for i, o := range reject {
			rejectIDs[i] = o.ID
		}
		if err := orders.MarkRejected(tx, rejectIDs); err != nil {
			return err
		}

		if err := tx.Model(&domain.NoteOffering{}).Where("id = ?", note.ID).
			Update("offering_status", domain.OfferingSettled).Error; err != nil {
			return apperror.Wrap(apperror.KindStorage, "failed to mark note settled", err)
		}

		holdingIDs := make([]int64, len(created))
		for i, h := range created {
			holdingIDs[i] = h.ID
		}
		report = Report{
			NoteID:          note.ID,
			NoteStatus:      domain.OfferingSettled,
			TotalOffering:   note.Amount,
			TotalSubscribed: totalSubscribed,
			TotalSettled:    totalSettled,
			OrdersFilled:    len(fill),
			OrdersRejected:  len(reject),
			HoldingIDs:      holdingIDs,
			SettledAt:       settledAt,
			PerformedBy:     performedBy,
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil && apperror.KindOf(err) == apperror.KindStorage {
			return nil, apperror.Wrap(apperror.KindStorage, "settlement transaction timed out; no changes were applied", err)
		}
		return nil, err
	}

	log.Info().
		Int64("note_id", report.NoteID).
		Int("orders_filled", report.OrdersFilled).
		Int("orders_rejected", report.OrdersRejected).
		Int64("total_settled", report.TotalSettled).
		Str("performed_by", performedBy).
		Msg("note settled")
	return &report, nil
}
