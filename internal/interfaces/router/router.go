package router

import (
	compsvc "micropaper-backend/internal/application/compliance"
	custsvc "micropaper-backend/internal/application/custodian"
	holdsvc "micropaper-backend/internal/application/holdings"
	offersvc "micropaper-backend/internal/application/offerings"
	ordersvc "micropaper-backend/internal/application/orders"
	risksvc "micropaper-backend/internal/application/risk"
	settlesvc "micropaper-backend/internal/application/settlement"
	"micropaper-backend/internal/config"
	"micropaper-backend/internal/infrastructure/database"
	comphandler "micropaper-backend/internal/interfaces/handlers/compliance"
	custhandler "micropaper-backend/internal/interfaces/handlers/custodian"
	healthhandler "micropaper-backend/internal/interfaces/handlers/health"
	markethandler "micropaper-backend/internal/interfaces/handlers/market"
	"micropaper-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and routes.
// DB and Redis may come back nil when not configured (e.g. tests build
// their own app around the handlers instead).
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))
	app.Use(middleware.RequestID())
	app.Use(middleware.RouteLogger())

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
		app.Use(middleware.HealthMarker(rdb))
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	healthHandlers := &healthhandler.Handlers{Rdb: rdb, DB: &gormDBPinger{db: db}}
	app.Get("/", healthHandlers.Dashboard)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/errors", healthHandlers.Errors)
	app.Get("/health/reset", middleware.RequireAdminKey(cfg.AdminKey), healthHandlers.Reset)

	if db != nil {
		complianceService := &compsvc.Service{DB: db}
		custodianService := &custsvc.Service{DB: db}
		riskService := &risksvc.Service{DB: db}

		marketHandlers := &markethandler.Handlers{
			Offerings:  &offersvc.Service{DB: db},
			Orders:     &ordersvc.Service{DB: db, Verifier: complianceService},
			Holdings:   &holdsvc.Service{DB: db},
			Settlement: &settlesvc.Service{DB: db, TxTimeout: cfg.SettleTimeout},
		}
		complianceHandlers := &comphandler.Handlers{Service: complianceService}
		custodianHandlers := &custhandler.Handlers{Service: custodianService, Risk: riskService}

		apiKey := middleware.RequireAPIKey(cfg.APIKey)
		adminKey := middleware.RequireAdminKey(cfg.AdminKey)

		marketGroup := app.Group("/api/v1/market", apiKey)
		marketGroup.Get("/offerings", marketHandlers.GetOfferings)
		marketGroup.Post("/invest", marketHandlers.CreateOrder)
		marketGroup.Post("/settle/:note_id", adminKey, marketHandlers.SettleNote)
		marketGroup.Get("/holdings", marketHandlers.GetHoldings)

		complianceGroup := app.Group("/api/v1/compliance", apiKey)
		complianceGroup.Get("/stats", complianceHandlers.Stats)
		complianceGroup.Get("/verified", complianceHandlers.ListVerified)
		complianceGroup.Post("/verify/:wallet_address", adminKey, complianceHandlers.Verify)
		complianceGroup.Post("/unverify/:wallet_address", adminKey, complianceHandlers.Unverify)
		complianceGroup.Get("/:wallet_address", complianceHandlers.CheckStatus)

		custodianGroup := app.Group("/api/v1/custodian", apiKey)
		custodianGroup.Post("/issue", custodianHandlers.IssueNote)
		custodianGroup.Get("/notes", custodianHandlers.ListNotes)
		custodianGroup.Get("/notes/:id", custodianHandlers.GetNote)
		custodianGroup.Post("/notes/:id/close", adminKey, custodianHandlers.CloseOffering)
		custodianGroup.Get("/notes/:id/protection", custodianHandlers.GetProtection)
	}

	return app, db, rdb, nil
}
