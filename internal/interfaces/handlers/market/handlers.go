package market

import (
	"strconv"

	holdsvc "micropaper-backend/internal/application/holdings"
	offersvc "micropaper-backend/internal/application/offerings"
	ordersvc "micropaper-backend/internal/application/orders"
	settlesvc "micropaper-backend/internal/application/settlement"
	"micropaper-backend/internal/middleware"
	"micropaper-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Offerings  *offersvc.Service
	Orders     *ordersvc.Service
	Holdings   *holdsvc.Service
	Settlement *settlesvc.Service
}

// GET /api/v1/market/offerings — open offerings with computed yield,
// filterable by currency and rate range, paginated.
func (h *Handlers) GetOfferings(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 100)

	var filters offersvc.Filters
	if cur := c.Query("currency"); cur != "" {
		filters.Currency = &cur
	}
	if v := c.Query("minRateBps"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return response.Error(c, "minRateBps must be an integer", fiber.StatusBadRequest, nil)
		}
		filters.MinRateBps = &n
	}
	if v := c.Query("maxRateBps"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return response.Error(c, "maxRateBps must be an integer", fiber.StatusBadRequest, nil)
		}
		filters.MaxRateBps = &n
	}

	offerings, total, err := h.Offerings.ListOpen(c.Context(), filters, page, limit)
	if err != nil {
		return err
	}

	return response.Success(c, "Offerings fetched successfully", offerings, response.Pagination{
		Total:   total,
		Page:    page,
		Limit:   limit,
		HasMore: int64(page*limit) < total,
	})
}

// POST /api/v1/market/invest — creates a pending order. The investor
// wallet comes from the X-Investor-Wallet header.
func (h *Handlers) CreateOrder(c *fiber.Ctx) error {
	wallet := c.Get("X-Investor-Wallet")
	if wallet == "" {
		return response.Error(c, "X-Investor-Wallet header is required", fiber.StatusBadRequest, nil)
	}

	var body struct {
		NoteID int64 `json:"note_id"`
		Amount int64 `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	if body.NoteID == 0 {
		return response.Error(c, "note_id is required", fiber.StatusBadRequest, nil)
	}

	var requestID *string
	if id := middleware.GetRequestID(c); id != "" {
		requestID = &id
	}

	order, err := h.Orders.Create(c.Context(), wallet, body.NoteID, body.Amount, requestID)
	if err != nil {
		return err
	}
	return response.SuccessCreated(c, "Investment order created", order, nil)
}

// POST /api/v1/market/settle/:note_id — admin only; runs the settlement
// engine and returns its report.
func (h *Handlers) SettleNote(c *fiber.Ctx) error {
	noteID, err := strconv.ParseInt(c.Params("note_id"), 10, 64)
	if err != nil {
		return response.Error(c, "note_id must be an integer", fiber.StatusBadRequest, nil)
	}

	performedBy := "admin"
	if id := middleware.GetRequestID(c); id != "" {
		performedBy = "admin:" + id
	}

	report, err := h.Settlement.Settle(c.Context(), noteID, performedBy)
	if err != nil {
		return err
	}
	return response.Success(c, "Note settled successfully", report, nil)
}

// GET /api/v1/market/holdings — holdings with recomputed yield, optionally
// filtered by walletAddress and/or noteId.
func (h *Handlers) GetHoldings(c *fiber.Ctx) error {
	var filter holdsvc.Filter
	if w := c.Query("walletAddress"); w != "" {
		filter.WalletAddress = &w
	}
	if v := c.Query("noteId"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return response.Error(c, "noteId must be an integer", fiber.StatusBadRequest, nil)
		}
		filter.NoteID = &n
	}

	rows, err := h.Holdings.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return response.Success(c, "Holdings fetched successfully", rows, nil)
}
