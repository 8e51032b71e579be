package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/credflow/credflow/internal/api/http"
	"github.com/credflow/credflow/internal/application/audit"
	"github.com/credflow/credflow/internal/application/commission"
	"github.com/credflow/credflow/internal/application/dispute"
	"github.com/credflow/credflow/internal/application/lifecycle"
	"github.com/credflow/credflow/internal/application/payout"
	"github.com/credflow/credflow/internal/config"
	"github.com/credflow/credflow/internal/domain/ledger"
	"github.com/credflow/credflow/internal/domain/loan"
	"github.com/credflow/credflow/internal/domain/notification"
	"github.com/credflow/credflow/internal/infrastructure/events"
	"github.com/credflow/credflow/internal/infrastructure/postgres"
	"github.com/credflow/credflow/internal/infrastructure/recordstore"
	"github.com/credflow/credflow/internal/infrastructure/sse"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, "internal/migrations"); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories; the loan book can live in the external record store,
	// the ledger and audit trail are always local.
	var loanRepo loan.Repository
	var historyRepo loan.HistoryRepository
	if cfg.StoreBackend == config.StoreRecordStore {
		store := recordstore.NewClient(cfg.RecordStoreURL, cfg.RecordStoreAPIKey)
		loanRepo = recordstore.NewLoanRepository(store)
		historyRepo = recordstore.NewHistoryRepository(store)
	} else {
		loanRepo = postgres.NewLoanRepository(pool)
		historyRepo = postgres.NewHistoryRepository(pool)
	}
	ledgerRepo := postgres.NewLedgerRepository(pool)
	rateRepo := postgres.NewRateRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	// infrastructure
	sseHub := sse.NewHub()
	defer sseHub.Stop()

	dispatchers := events.MultiDispatcher{events.NewSSEDispatcher(sseHub, logger)}
	var kafkaDispatcher *events.KafkaDispatcher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaDispatcher = events.NewKafkaDispatcher(cfg.KafkaBrokers, logger)
		dispatchers = append(dispatchers, kafkaDispatcher)
		defer func() { _ = kafkaDispatcher.Close() }()
	}
	var dispatcher notification.Dispatcher = dispatchers

	// services
	calc := ledger.NewCalculator(cfg.DefaultCommissionRate)
	auditSvc := audit.NewService(auditRepo, logger, []byte(cfg.AuditSigningKey))
	lifecycleSvc := lifecycle.NewService(loanRepo, historyRepo, ledgerRepo, rateRepo, calc, auditSvc, dispatcher, logger)
	disputeSvc := dispute.NewService(ledgerRepo, auditSvc, logger)
	payoutSvc := payout.NewService(ledgerRepo, auditSvc, dispatcher, logger)
	commissionSvc := commission.NewService(ledgerRepo, rateRepo, calc, auditSvc, logger)

	// API server
	apiServer := httpapi.NewServer(lifecycleSvc, disputeSvc, payoutSvc, commissionSvc, auditSvc, sseHub, []byte(cfg.TokenSecret), cfg.RequestTimeout)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("store", cfg.StoreBackend).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
