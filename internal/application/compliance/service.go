package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/pkg/apperror"
	"micropaper-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the persistent wallet verification registry. It replaces the
// in-memory demo registry: verification state survives restarts and is
// injectable behind the orders.WalletVerifier interface for testing.
type Service struct {
	DB *gorm.DB
}

// VerifyParams carries the optional regulatory attributes set at
// verification time.
type VerifyParams struct {
	InvestorTier *string
	Jurisdiction *string
	PerformedBy  *string
	RequestID    *string
}

// CheckStatus returns whether the wallet is KYC-verified and appends an
// audit row. Unknown wallets are reported unverified rather than erroring.
func (s *Service) CheckStatus(ctx context.Context, walletAddress string, requestID *string) (bool, error) {
	addr, err := normalizeAddress(walletAddress)
	if err != nil {
		return false, err
	}

	var wallet domain.WalletVerification
	verified := false
	err = s.DB.WithContext(ctx).Where("wallet_address = ?", addr).First(&wallet).Error
	switch {
	case err == nil:
		verified = wallet.IsVerified
	case errors.Is(err, gorm.ErrRecordNotFound):
		// unknown wallet: unverified
	default:
		return false, apperror.Wrap(apperror.KindStorage, "failed to look up wallet verification", err)
	}

	s.audit(ctx, addr, domain.AuditCheckStatus, nil, requestID, map[string]interface{}{
		"is_verified": verified,
	})
	return verified, nil
}

// Verify marks a wallet verified, upserting the registry row. Tier and
// jurisdiction are recorded when provided so eligibility rules can apply
// at order time.
func (s *Service) Verify(ctx context.Context, walletAddress string, params VerifyParams) (*domain.WalletVerification, error) {
	addr, err := normalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	if params.InvestorTier != nil && !domain.ValidInvestorTier(*params.InvestorTier) {
		return nil, apperror.Newf(apperror.KindInvalidInput, "unknown investor tier %q", *params.InvestorTier)
	}

	wallet, err := s.upsert(ctx, addr, true, params)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, addr, domain.AuditVerify, params.PerformedBy, params.RequestID, map[string]interface{}{
		"investor_tier": params.InvestorTier,
		"jurisdiction":  params.Jurisdiction,
	})
	return wallet, nil
}

// Unverify revokes a wallet's verified status.
func (s *Service) Unverify(ctx context.Context, walletAddress string, params VerifyParams) (*domain.WalletVerification, error) {
	addr, err := normalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	wallet, err := s.upsert(ctx, addr, false, params)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, addr, domain.AuditUnverify, params.PerformedBy, params.RequestID, nil)
	return wallet, nil
}

// ListVerified returns verified wallets, paginated, ordered by address for
// stable pages.
func (s *Service) ListVerified(ctx context.Context, page, limit int) ([]domain.WalletVerification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	q := s.DB.WithContext(ctx).Model(&domain.WalletVerification{}).Where("is_verified = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, "failed to count verified wallets", err)
	}

	var wallets []domain.WalletVerification
	if err := q.Order("wallet_address ASC").Offset((page - 1) * limit).Limit(limit).Find(&wallets).Error; err != nil {
		return nil, 0, apperror.Wrap(apperror.KindStorage, "failed to list verified wallets", err)
	}
	return wallets, total, nil
}

// Stats returns registry totals for the compliance dashboard.
func (s *Service) Stats(ctx context.Context) (map[string]int64, error) {
	var total, verified int64
	if err := s.DB.WithContext(ctx).Model(&domain.WalletVerification{}).Count(&total).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to count wallets", err)
	}
	if err := s.DB.WithContext(ctx).Model(&domain.WalletVerification{}).Where("is_verified = ?", true).Count(&verified).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to count verified wallets", err)
	}
	return map[string]int64{
		"total_wallets":      total,
		"verified_wallets":   verified,
		"unverified_wallets": total - verified,
	}, nil
}

// IsVerified implements the wallet verifier consumed by order creation.
// The result is authoritative at call time and never cached.
func (s *Service) IsVerified(ctx context.Context, walletAddress string) (bool, error) {
	var wallet domain.WalletVerification
	err := s.DB.WithContext(ctx).Where("wallet_address = ?", strings.ToLower(walletAddress)).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperror.Wrap(apperror.KindStorage, "failed to look up wallet verification", err)
	}
	return wallet.IsVerified, nil
}

// IsEligible applies the jurisdiction/tier rule: US retail investors are
// blocked (SEC rules); wallets without tier or jurisdiction default to
// eligible for backward compatibility with pre-existing registrations.
func (s *Service) IsEligible(ctx context.Context, walletAddress string) (bool, error) {
	var wallet domain.WalletVerification
	err := s.DB.WithContext(ctx).Where("wallet_address = ?", strings.ToLower(walletAddress)).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperror.Wrap(apperror.KindStorage, "failed to look up wallet verification", err)
	}
	return Eligible(wallet.InvestorTier, wallet.Jurisdiction), nil
}

// Eligible is the pure tier/jurisdiction rule.
func Eligible(tier *domain.InvestorTier, jurisdiction *string) bool {
	if tier == nil || jurisdiction == nil {
		return true
	}
	if strings.ToUpper(*jurisdiction) == "US" && *tier == domain.TierRetail {
		return false
	}
	return true
}

func (s *Service) upsert(ctx context.Context, addr string, verified bool, params VerifyParams) (*domain.WalletVerification, error) {
	var wallet domain.WalletVerification
	err := s.DB.WithContext(ctx).Where("wallet_address = ?", addr).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = domain.WalletVerification{WalletAddress: addr}
	} else if err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to look up wallet verification", err)
	}

	wallet.IsVerified = verified
	wallet.VerifiedBy = params.PerformedBy
	if params.InvestorTier != nil {
		tier := domain.InvestorTier(strings.ToLower(*params.InvestorTier))
		wallet.InvestorTier = &tier
	}
	if params.Jurisdiction != nil {
		j := strings.ToUpper(*params.Jurisdiction)
		wallet.Jurisdiction = &j
	}
	wallet.UpdatedAt = time.Now().UTC()

	if err := s.DB.WithContext(ctx).Save(&wallet).Error; err != nil {
		return nil, apperror.Wrap(apperror.KindStorage, "failed to save wallet verification", err)
	}
	return &wallet, nil
}

// audit is best-effort: a failed audit write is logged but never fails the
// compliance operation itself.
func (s *Service) audit(ctx context.Context, addr, action string, performedBy, requestID *string, metadata map[string]interface{}) {
	entry := domain.ComplianceAuditLog{
		WalletAddress: addr,
		Action:        action,
		PerformedBy:   performedBy,
		RequestID:     requestID,
		Timestamp:     time.Now().UTC(),
	}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			entry.Metadata = datatypes.JSON(b)
		}
	}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Warn().Err(err).Str("wallet", addr).Str("action", action).Msg("compliance audit write failed")
	}
}

func normalizeAddress(walletAddress string) (string, error) {
	addr := validation.NormalizeWalletAddress(walletAddress)
	if !validation.IsValidWalletAddress(addr) {
		return "", apperror.New(apperror.KindInvalidInput, "Invalid Ethereum wallet address format")
	}
	return addr, nil
}
