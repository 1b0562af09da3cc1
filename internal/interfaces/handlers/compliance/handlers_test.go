package compliance

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	compsvc "micropaper-backend/internal/application/compliance"
	"micropaper-backend/internal/infrastructure/database"
	"micropaper-backend/internal/middleware"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWallet = "0x1234567890abcdef1234567890abcdef12345678"

func setupComplianceApp(t *testing.T) *fiber.App {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	h := &Handlers{Service: &compsvc.Service{DB: db}}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(middleware.RequestID())
	app.Get("/compliance/stats", h.Stats)
	app.Get("/compliance/verified", h.ListVerified)
	app.Post("/compliance/verify/:wallet_address", h.Verify)
	app.Post("/compliance/unverify/:wallet_address", h.Unverify)
	app.Get("/compliance/:wallet_address", h.CheckStatus)
	return app
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

func TestCheckStatus_UnknownWalletUnverified(t *testing.T) {
	app := setupComplianceApp(t)

	status, body := jsonReq(t, app, "GET", "/compliance/"+testWallet, nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["is_verified"])
}

func TestVerifyThenCheckStatus(t *testing.T) {
	app := setupComplianceApp(t)

	status, body := jsonReq(t, app, "POST", "/compliance/verify/"+testWallet,
		map[string]interface{}{"investor_tier": "accredited", "jurisdiction": "US"})
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_verified"])
	assert.Equal(t, "accredited", data["investor_tier"])

	status, body = jsonReq(t, app, "GET", "/compliance/"+testWallet, nil)
	require.Equal(t, 200, status)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, true, data["is_verified"])
}

func TestVerify_InvalidWallet(t *testing.T) {
	app := setupComplianceApp(t)

	status, body := jsonReq(t, app, "POST", "/compliance/verify/not-a-wallet", nil)
	assert.Equal(t, 400, status)
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "invalid_input", errObj["kind"])
}

func TestUnverify(t *testing.T) {
	app := setupComplianceApp(t)

	status, _ := jsonReq(t, app, "POST", "/compliance/verify/"+testWallet, nil)
	require.Equal(t, 200, status)

	status, body := jsonReq(t, app, "POST", "/compliance/unverify/"+testWallet, nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, false, data["is_verified"])
}

func TestStatsAndListVerified(t *testing.T) {
	app := setupComplianceApp(t)

	wallets := []string{
		"0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	for _, w := range wallets {
		status, _ := jsonReq(t, app, "POST", "/compliance/verify/"+w, nil)
		require.Equal(t, 200, status)
	}

	status, body := jsonReq(t, app, "GET", "/compliance/stats", nil)
	require.Equal(t, 200, status)
	data := body["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["total_wallets"])
	assert.EqualValues(t, 2, data["verified_wallets"])

	status, body = jsonReq(t, app, "GET", "/compliance/verified?limit=1", nil)
	require.Equal(t, 200, status)
	list := body["data"].([]interface{})
	require.Len(t, list, 1)
	meta := body["metadata"].(map[string]interface{})
	assert.EqualValues(t, 2, meta["total"])
	assert.Equal(t, true, meta["has_more"])
}
