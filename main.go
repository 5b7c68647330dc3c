package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/conclave-dao/conclave/ai"
	"github.com/conclave-dao/conclave/api"
	"github.com/conclave-dao/conclave/api/handlers"
	"github.com/conclave-dao/conclave/chain"
	"github.com/conclave-dao/conclave/communication"
	"github.com/conclave-dao/conclave/config"
	"github.com/conclave-dao/conclave/consensus"
	"github.com/conclave-dao/conclave/core"
	"github.com/conclave-dao/conclave/execution"
	"github.com/conclave-dao/conclave/insights"
	"github.com/conclave-dao/conclave/orchestrator"
	"github.com/conclave-dao/conclave/registry"
	"github.com/conclave-dao/conclave/storage"
	"github.com/conclave-dao/conclave/utils"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Change feed. Embedded NATS keeps single-node deployments
	// self-contained; point NATS_URL at a cluster otherwise.
	natsURL := cfg.NATSURL
	if cfg.EmbedNATS {
		port := cfg.NATSPort
		if port == 0 {
			port = utils.FindAvailablePort(4222)
		}
		srv, url, err := core.StartEmbeddedServer(port)
		if err != nil {
			logger.Fatal("embedded nats failed", zap.Error(err))
		}
		defer srv.Shutdown()
		natsURL = url
	}

	broker, err := core.NewBroker(natsURL)
	if err != nil {
		logger.Fatal("nats connect failed", zap.Error(err))
	}
	defer broker.Close()

	store, err := storage.Open(cfg.DatabaseDSN, broker, logger)
	if err != nil {
		logger.Fatal("storage open failed", zap.Error(err))
	}

	hub := communication.NewHub(logger)
	defer hub.Close()

	forums := communication.NewService(store, hub, logger)
	generator := ai.NewOpenAIGenerator(cfg.OpenAIKey, cfg.OpenAIModel, logger)
	researcher := ai.NewResearcher(cfg.SerpAPIKey, generator, logger)
	reg := registry.New()
	clock := core.SystemClock{}

	custody := chain.NewKeyCustody()
	ledger := chain.NewLedger(cfg.ChainID, 0.001, logger)

	cons := consensus.NewManager(store, forums, logger)
	coordinator := execution.NewCoordinator(execution.Config{
		ChainID:         cfg.ChainID,
		MinBalance:      cfg.MinBalance,
		FundingInterval: cfg.FundingInterval,
		FundingAttempts: cfg.FundingMaxAttempts,
	}, store, forums, &chain.LocalPayloadFetcher{Store: store}, custody, ledger, ledger, clock, logger)

	debate := orchestrator.NewDebateManager(orchestrator.DebateConfig{
		MaxRounds: cfg.DebateMaxRounds,
		Delay:     cfg.DebateDelay,
	}, store, forums, researcher, clock, logger)

	orch := orchestrator.New(orchestrator.Config{
		Gate: orchestrator.GateLimits{
			MinInterval:     cfg.MinInterval,
			MaxAutoMessages: cfg.MaxAutoMessages,
		},
		DedupTTL: cfg.DedupTTL,
	}, store, forums, reg, debate, cons, coordinator, broker, hub, clock, logger)

	if err := orch.Start(ctx); err != nil {
		logger.Fatal("orchestrator start failed", zap.Error(err))
	}
	defer orch.Stop()

	h := &handlers.Handler{
		Store:        store,
		Forums:       forums,
		Registry:     reg,
		Orchestrator: orch,
		Custody:      custody,
		Ledger:       ledger,
		Generator:    generator,
		Insights:     insights.NewExtractor(store, generator, logger),
		Hub:          hub,
		Logger:       logger,
	}

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.NewServer(h),
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}
