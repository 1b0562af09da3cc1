package custodian

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	custsvc "micropaper-backend/internal/application/custodian"
	risksvc "micropaper-backend/internal/application/risk"
	"micropaper-backend/internal/domain"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCustodianApp(t *testing.T) (*fiber.App, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	h := &Handlers{Service: &custsvc.Service{DB: db}, Risk: &risksvc.Service{DB: db}}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(middleware.RequestID())
	app.Post("/custodian/issue", h.IssueNote)
	app.Get("/custodian/notes", h.ListNotes)
	app.Get("/custodian/notes/:id", h.GetNote)
	app.Post("/custodian/notes/:id/close", h.CloseOffering)
	app.Get("/custodian/notes/:id/protection", h.GetProtection)
	return app, db
}

func jsonReq(t *testing.T, app *fiber.App, method, target string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func issueBody() map[string]interface{} {
	return map[string]interface{}{
		"wallet_address":    "0x1111111111111111111111111111111111111111",
		"amount":            1_000_000,
		"interest_rate_bps": 500,
		"maturity_date":     time.Now().UTC().AddDate(0, 0, 90).Format(time.RFC3339),
	}
}

func TestIssueNote_Defaults(t *testing.T) {
	app, _ := setupCustodianApp(t)

	status, body := jsonReq(t, app, "POST", "/custodian/issue", issueBody())
	require.Equal(t, 201, status)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "open", data["offering_status"])
	assert.Equal(t, "USD", data["currency"])
	assert.EqualValues(t, 10_000, data["min_subscription_amount"])
	assert.Regexp(t, `^USMOCK\d{6}$`, data["isin"])
}

func TestIssueNote_MissingFields(t *testing.T) {
	app, _ := setupCustodianApp(t)

	status, _ := jsonReq(t, app, "POST", "/custodian/issue", map[string]interface{}{})
	assert.Equal(t, 400, status)
}

func TestIssueNote_BadMaturityFormat(t *testing.T) {
	app, _ := setupCustodianApp(t)

	b := issueBody()
	b["maturity_date"] = "2026-12-31" // date only, not RFC 3339
	status, _ := jsonReq(t, app, "POST", "/custodian/issue", b)
	assert.Equal(t, 400, status)
}

func TestGetNote_NotFound(t *testing.T) {
	app, _ := setupCustodianApp(t)

	status, body := jsonReq(t, app, "GET", "/custodian/notes/999", nil)
	assert.Equal(t, 404, status)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "not_found", errObj["kind"])
}

func TestGetNote_BadID(t *testing.T) {
	app, _ := setupCustodianApp(t)

	status, _ := jsonReq(t, app, "GET", "/custodian/notes/abc", nil)
	assert.Equal(t, 400, status)
}

func TestListNotes(t *testing.T) {
	app, _ := setupCustodianApp(t)

	for i := 0; i < 3; i++ {
		status, _ := jsonReq(t, app, "POST", "/custodian/issue", issueBody())
		require.Equal(t, 201, status)
	}

	status, body := jsonReq(t, app, "GET", "/custodian/notes?limit=2", nil)
	require.Equal(t, 200, status)
	list := body["data"].([]interface{})
	assert.Len(t, list, 2)
	meta := body["metadata"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["total"])
	assert.Equal(t, true, meta["has_more"])
}

func TestCloseOffering_Flow(t *testing.T) {
	app, _ := setupCustodianApp(t)

	status, body := jsonReq(t, app, "POST", "/custodian/issue", issueBody())
	require.Equal(t, 201, status)
	noteID := int64(body["data"].(map[string]interface{})["id"].(float64))

	status, body = jsonReq(t, app, "POST", fmt.Sprintf("/custodian/notes/%d/close", noteID), nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "closed", data["offering_status"])

	status, body = jsonReq(t, app, "POST", fmt.Sprintf("/custodian/notes/%d/close", noteID), nil)
	assert.Equal(t, 400, status)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "offering_not_open", errObj["kind"])
}

func TestGetProtection(t *testing.T) {
	app, db := setupCustodianApp(t)

	status, body := jsonReq(t, app, "POST", "/custodian/issue", issueBody())
	require.Equal(t, 201, status)
	noteID := int64(body["data"].(map[string]interface{})["id"].(float64))

	require.NoError(t, db.Create(&domain.CollateralAsset{
		NoteID: noteID, AssetType: domain.AssetCash, ValuationCents: 500_000, Status: domain.CollateralActive,
	}).Error)

	status, body = jsonReq(t, app, "GET", fmt.Sprintf("/custodian/notes/%d/protection", noteID), nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 500_000, data["collateral_coverage"])
	assert.EqualValues(t, 500_000, data["uncovered_exposure"])
	assert.Equal(t, "50% Secured", data["protection_summary"])
}
