package custodian

import (
	"strconv"
	"time"

	custsvc "micropaper-backend/internal/application/custodian"
	risksvc "micropaper-backend/internal/application/risk"
	"micropaper-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *custsvc.Service
	Risk    *risksvc.Service
}

// POST /api/v1/custodian/issue — simulates the custodian issuing a note
// when a token is minted.
func (h *Handlers) IssueNote(c *fiber.Ctx) error {
	var body struct {
		WalletAddress         string  `json:"wallet_address"`
		Amount                int64   `json:"amount"`
		InterestRateBps       int64   `json:"interest_rate_bps"`
		Currency              string  `json:"currency"`
		MinSubscriptionAmount int64   `json:"min_subscription_amount"`
		MaturityDate          string  `json:"maturity_date"`
		SmartContractAddress  *string `json:"smart_contract_address"`
		RiskScore             *string `json:"risk_score"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if body.WalletAddress == "" || body.Amount == 0 || body.MaturityDate == "" {
		return response.Error(c, "wallet_address, amount and maturity_date are required", fiber.StatusBadRequest, nil)
	}
	maturity, err := time.Parse(time.RFC3339, body.MaturityDate)
	if err != nil {
		return response.Error(c, "maturity_date must be an RFC 3339 timestamp", fiber.StatusBadRequest, nil)
	}
	if body.Currency == "" {
		body.Currency = "USD"
	}
	if body.MinSubscriptionAmount == 0 {
		body.MinSubscriptionAmount = 10000
	}

	note, err := h.Service.IssueNote(c.Context(), custsvc.IssueParams{
		WalletAddress:         body.WalletAddress,
		Amount:                body.Amount,
		InterestRateBps:       body.InterestRateBps,
		Currency:              body.Currency,
		MinSubscriptionAmount: body.MinSubscriptionAmount,
		MaturityDate:          maturity,
		SmartContractAddress:  body.SmartContractAddress,
		RiskScore:             body.RiskScore,
	})
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Note issued successfully", note, nil)
}

// GET /api/v1/custodian/notes — all issued notes, newest first.
func (h *Handlers) ListNotes(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 100)

	notes, total, err := h.Service.ListNotes(c.Context(), page, limit)
	if err != nil {
		return err
	}
	return response.Success(c, "Notes fetched successfully", notes, response.Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: int64(page*limit) < total,
	})
}

// GET /api/v1/custodian/notes/:id
func (h *Handlers) GetNote(c *fiber.Ctx) error {
	noteID, err := parseNoteID(c)
	if err != nil {
		return err
	}
	note, err := h.Service.GetNote(c.Context(), noteID)
	if err != nil {
		return err
	}
	return response.Success(c, "Note fetched successfully", note, nil)
}

// POST /api/v1/custodian/notes/:id/close — withdraw an open offering
// before any order has been placed. Admin only.
func (h *Handlers) CloseOffering(c *fiber.Ctx) error {
	noteID, err := parseNoteID(c)
	if err != nil {
		return err
	}
	note, err := h.Service.CloseOffering(c.Context(), noteID)
	if err != nil {
		return err
	}
	return response.Success(c, "Offering withdrawn", note, nil)
}

// GET /api/v1/custodian/notes/:id/protection — risk waterfall breakdown.
func (h *Handlers) GetProtection(c *fiber.Ctx) error {
	noteID, err := parseNoteID(c)
	if err != nil {
		return err
	}
	protection, err := h.Risk.ProtectionWaterfall(c.Context(), noteID)
	if err != nil {
		return err
	}
	return response.Success(c, "Protection waterfall fetched", protection, nil)
}

func parseNoteID(c *fiber.Ctx) (int64, error) {
	noteID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "note id must be an integer")
	}
	return noteID, nil
}
