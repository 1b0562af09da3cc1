package compliance

import (
	compsvc "micropaper-backend/internal/application/compliance"
	"micropaper-backend/internal/middleware"
	"micropaper-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *compsvc.Service
}

// GET /api/v1/compliance/:wallet_address — verification status lookup.
func (h *Handlers) CheckStatus(c *fiber.Ctx) error {
	requestID := requestIDPtr(c)
	verified, err := h.Service.CheckStatus(c.Context(), c.Params("wallet_address"), requestID)
	if err != nil {
		return err
	}
	return response.Success(c, "Wallet status fetched", fiber.Map{
		"wallet_address": c.Params("wallet_address"),
		"is_verified":    verified,
	}, nil)
}

// POST /api/v1/compliance/verify/:wallet_address — admin only.
func (h *Handlers) Verify(c *fiber.Ctx) error {
	var body struct {
		InvestorTier *string `json:"investor_tier"`
		Jurisdiction *string `json:"jurisdiction"`
		PerformedBy  *string `json:"performed_by"`
	}
	// Body is optional; tier/jurisdiction default to unset.
	_ = c.BodyParser(&body)

	wallet, err := h.Service.Verify(c.Context(), c.Params("wallet_address"), compsvc.VerifyParams{
		InvestorTier: body.InvestorTier,
		Jurisdiction: body.Jurisdiction,
		PerformedBy:  body.PerformedBy,
		RequestID:    requestIDPtr(c),
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Wallet verified", wallet, nil)
}

// POST /api/v1/compliance/unverify/:wallet_address — admin only.
func (h *Handlers) Unverify(c *fiber.Ctx) error {
	var body struct {
		PerformedBy *string `json:"performed_by"`
	}
	_ = c.BodyParser(&body)

	wallet, err := h.Service.Unverify(c.Context(), c.Params("wallet_address"), compsvc.VerifyParams{
		PerformedBy: body.PerformedBy,
		RequestID:   requestIDPtr(c),
	})
	if err != nil {
		return err
	}
	return response.Success(c, "Wallet verification revoked", wallet, nil)
}

// GET /api/v1/compliance/verified — paginated verified wallets.
func (h *Handlers) ListVerified(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 100)

	wallets, total, err := h.Service.ListVerified(c.Context(), page, limit)
	if err != nil {
		return err
	}
	return response.Success(c, "Verified wallets fetched", wallets, response.Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: int64(page*limit) < total,
	})
}

// GET /api/v1/compliance/stats — registry totals.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	stats, err := h.Service.Stats(c.Context())
	if err != nil {
		return err
	}
	return response.Success(c, "Compliance stats fetched", stats, nil)
}

func requestIDPtr(c *fiber.Ctx) *string {
	if id := middleware.GetRequestID(c); id != "" {
		return &id
	}
	return nil
}
