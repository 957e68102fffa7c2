package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/LavaJover/shvark-swap-service/internal/clock"
	"github.com/LavaJover/shvark-swap-service/internal/config"
	"github.com/LavaJover/shvark-swap-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-swap-service/internal/domain"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postactions"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/providers"
	"github.com/LavaJover/shvark-swap-service/internal/infrastructure/vault"
	"github.com/LavaJover/shvark-swap-service/internal/usecase"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/payment"
	"github.com/LavaJover/shvark-swap-service/internal/usecase/registry"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)
	if err := migrate.RunMigrations(db, cfg.Platform.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Audit sinks: kafka stream plus postgres replay log
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	kafkaPublisher := kafka.NewKafkaPublisher(brokers)
	defer kafkaPublisher.Close()
	audit := domain.MultiAuditRecorder{kafkaPublisher, logger.NewPGAuditLogger(db)}

	// Init provider repo
	providerRepo := repository.NewDefaultProviderRepository(db)
	// Init policy store
	policyStore := repository.NewPGPolicyStore(db)
	// Init ledger store
	ledgerStore := postgres.NewPGLedgerStore(db)
	// Init fee vault
	feeVault := vault.NewLedgerVault(cfg.Platform.VaultAddress)

	// Remote capability resolvers
	providerResolver := providers.NewRouteResolver(cfg.ProviderRoutes)
	postActionResolver := postactions.NewRouteResolver(cfg.PostActionRoutes)

	// One guard serializes registry mutations and payments alike
	guard := usecase.NewEntryGuard()
	swapMetrics := metrics.NewSwapMetrics()
	clk := clock.NewSystem()

	// Init provider registry usecase
	providerRegistry := registry.NewDefaultProviderRegistry(
		providerRepo,
		policyStore,
		providerResolver,
		audit,
		guard,
		clk,
		swapMetrics,
	)
	// Init payment usecase
	paymentUsecase := payment.NewDefaultPaymentUsecase(
		ledgerStore,
		providerRegistry,
		providerResolver,
		policyStore,
		feeVault,
		postActionResolver,
		audit,
		guard,
		clk,
		swapMetrics,
		cfg.Platform.OrchestratorAddress,
	)

	registryHandler := handlers.NewRegistryHandler(providerRegistry)
	paymentHandler := handlers.NewPaymentHandler(paymentUsecase)
	statusHandler := handlers.NewStatusHandler(cfg.Env, policyStore)

	mux := handlers.NewRouter(registryHandler, paymentHandler, statusHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	log.Printf("HTTP server started on %s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("failed to serve: %v\n", err)
	}
}
