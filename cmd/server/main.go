package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pagwall/gateway-settlement/internal/batch"
	"github.com/pagwall/gateway-settlement/internal/config"
	"github.com/pagwall/gateway-settlement/internal/database"
	"github.com/pagwall/gateway-settlement/internal/fees"
	"github.com/pagwall/gateway-settlement/internal/gateway"
	"github.com/pagwall/gateway-settlement/internal/handler"
	"github.com/pagwall/gateway-settlement/internal/ingestion"
	"github.com/pagwall/gateway-settlement/internal/middleware"
	"github.com/pagwall/gateway-settlement/internal/reconciliation"
	"github.com/pagwall/gateway-settlement/internal/repository"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		if err := database.SeedData(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("failed to seed data")
		}
	}

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	healthHandler := handler.NewHealthHandler(pool)
	router.GET("/health", healthHandler.Health)

	setupAPIRoutes(router, pool, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, pool *pgxpool.Pool, cfg *config.Config) {
	storeRepo := repository.NewStoreRepository(pool)
	rawRepo := repository.NewRawTransactionRepository(pool)
	settlementRepo := repository.NewSettlementRepository(pool)
	paramRepo := repository.NewParameterRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	errorRepo := repository.NewErrorLedgerRepository(pool)

	paymentRouter := gateway.NewRouter(storeRepo,
		gateway.NewPinbankClient(cfg.PinbankBaseURL, cfg.PinbankAPIKey, cfg.AcquirerTimeout),
		gateway.NewOwnClient(cfg.OwnBaseURL, cfg.OwnAPIKey, cfg.AcquirerTimeout),
	)

	feeEngine := fees.NewEngine(storeRepo, paramRepo, ledgerRepo, errorRepo)
	pipeline := ingestion.NewPipeline(rawRepo, storeRepo, feeEngine)
	reconEngine := reconciliation.NewEngine(settlementRepo, ledgerRepo)

	jobs := &batch.Jobs{
		Credentials: storeRepo,
		Clients: []ingestion.IngestClient{
			ingestion.NewPinbankIngestClient(cfg.PinbankBaseURL, cfg.PinbankAPIKey, cfg.AcquirerTimeout),
			ingestion.NewOwnIngestClient(cfg.OwnBaseURL, cfg.OwnAPIKey, cfg.AcquirerTimeout),
		},
		Pipeline:        pipeline,
		Records:         rawRepo,
		Fees:            feeEngine,
		Reconciler:      reconEngine,
		RetentionMinAge: cfg.RetentionMinAge,
	}
	orchestrator := batch.NewOrchestrator(batch.NewAdvisoryLock(pool))

	paymentHandler := handler.NewPaymentHandler(paymentRouter)
	jobHandler := handler.NewJobHandler(orchestrator, jobs, cfg.BatchDefaultLimit)
	ledgerHandler := handler.NewLedgerHandler(ledgerRepo, errorRepo)
	parameterHandler := handler.NewParameterHandler(storeRepo, paramRepo)

	api := router.Group("/api/v1")
	{
		api.POST("/payments/charge", paymentHandler.Charge)
		api.POST("/payments/refund", paymentHandler.Refund)
		api.POST("/jobs/:type/run", jobHandler.Run)
		api.GET("/stores/:id/ledger", ledgerHandler.ListByStore)
		api.GET("/stores/:id/ledger/summary", ledgerHandler.Summary)
		api.GET("/stores/:id/parameters", parameterHandler.List)
		api.GET("/ledger/errors", ledgerHandler.ListErrors)
	}
}
