package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harborquant/xvenue-arb/internal/broker"
	"github.com/harborquant/xvenue-arb/internal/detect"
	"github.com/harborquant/xvenue-arb/internal/engine"
	"github.com/harborquant/xvenue-arb/internal/matcher"
	"github.com/harborquant/xvenue-arb/internal/notify"
	"github.com/harborquant/xvenue-arb/internal/report"
	"github.com/harborquant/xvenue-arb/internal/risk"
	"github.com/harborquant/xvenue-arb/internal/source"
	"github.com/harborquant/xvenue-arb/internal/validate"
	"github.com/harborquant/xvenue-arb/pkg/cache"
	"github.com/harborquant/xvenue-arb/pkg/config"
	"github.com/harborquant/xvenue-arb/pkg/healthprobe"
	"github.com/harborquant/xvenue-arb/pkg/httpserver"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the arbitrage engine",
	Long: `Runs the cross-venue arbitrage engine, which will each iteration:
1. Pull a market snapshot from every configured MarketSource
2. Run the detector suite against that snapshot
3. Validate and risk-gate every candidate opportunity
4. Simulate fills against the paper broker
5. Notify and write an incremental report

Use --seed to load a JSON market snapshot instead of an empty fixture.`,
	RunE: runEngine,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("seed", "s", "", "Path to a JSON market snapshot to feed the fixture source")
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	seedPath, _ := cmd.Flags().GetString("seed")
	markets, err := loadSeedMarkets(seedPath)
	if err != nil {
		return fmt.Errorf("load seed markets: %w", err)
	}

	eng, cleanup, err := buildEngine(cfg, logger, markets)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer cleanup()

	health := healthprobe.New()
	srv := httpserver.New(&httpserver.Config{Port: cfg.HTTPPort, Logger: logger, HealthChecker: health})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if srvErr := srv.Start(); srvErr != nil {
			logger.Error("http server stopped", zap.Error(srvErr))
		}
	}()
	health.SetReady(true)

	runErr := eng.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("http server shutdown error", zap.Error(shutdownErr))
	}

	if runErr != nil && runErr != context.Canceled {
		return fmt.Errorf("run engine: %w", runErr)
	}
	return nil
}

func loadSeedMarkets(path string) ([]types.Market, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var markets []types.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return markets, nil
}

// buildEngine wires every subsystem from config. The returned cleanup
// closes whatever durable handles (sqlite ledger, postgres pool) were
// opened along the way.
func buildEngine(cfg *config.Config, logger *zap.Logger, seedMarkets []types.Market) (*engine.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	detectCfg := detect.Config{
		ParityThreshold:      cfg.DetectParityThreshold,
		FeeBPS:               cfg.BrokerTakerFeeBPS,
		SlippageBPS:          cfg.BrokerSlippageBPS,
		ExclusiveSumEpsilon:  cfg.DetectExclusiveSumEpsilon,
		LadderMinGap:         cfg.DetectLadderMinGap,
		DuplicatePriceDiff:   cfg.DetectDuplicatePriceDiff,
		DuplicateSimilarity:  cfg.DetectDuplicateSimilarity,
		TimeLagWindow:        cfg.DetectTimeLagWindow,
		TimeLagJumpBPS:       cfg.DetectTimeLagJumpBPS,
		ConsistencyTolerance: cfg.DetectConsistencyTolerance,
	}

	embedCache, err := buildEmbeddingCache(logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build embedding cache: %w", err)
	}
	closers = append(closers, embedCache.Close)

	duplicateSimilarity := matcher.SemanticSimilarity{
		Embedder: matcher.HashEmbedder{},
		Cache:    embedCache,
		Logger:   logger,
	}

	pureDetectors := []detect.Detector{
		detect.ParityDetector{Cfg: detectCfg},
		detect.ExclusiveSumDetector{Cfg: detectCfg},
		detect.LadderDetector{Cfg: detectCfg},
		detect.DuplicateDetector{Cfg: detectCfg, Similarity: duplicateSimilarity},
		detect.ConsistencyDetector{Cfg: detectCfg},
		detect.CompositeDetector{Cfg: detectCfg},
	}
	timeLag := detect.NewTimeLagDetector(detectCfg)

	riskCfg := risk.Config{
		ShortSellingAvailable: cfg.RiskShortSellingAvailable,
		DuplicateEnabled:      cfg.RiskDuplicateEnabled,
		MinNetEdge:            cfg.RiskMinNetEdge,
		MinGrossEdge:          cfg.RiskMinGrossEdge,
		MinBuyPrice:           cfg.RiskMinBuyPrice,
		MinLiquidityMultiple:  cfg.RiskMinLiquidityMultiple,
		MinExpiryHours:        cfg.RiskMinExpiryHours,
		MaxOpenPositions:      cfg.RiskMaxOpenPositions,
		Cooldown:              cfg.RiskCooldown,
		DailyLossLimitUSD:     cfg.RiskDailyLossLimitUSD,
		MaxAllocationPerMkt:   cfg.RiskMaxAllocationPerMkt,
	}
	gate := risk.NewGate(riskCfg, logger)

	var ledger *broker.SQLiteLedger
	if cfg.BrokerLedgerPath != "" {
		var err error
		ledger, err = broker.OpenSQLiteLedger(cfg.BrokerLedgerPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open broker ledger: %w", err)
		}
		closers = append(closers, func() { _ = ledger.Close() })
	}

	brokerCfg := broker.Config{
		InitialCash: cfg.BrokerStartingCashUSD,
		FeeBPS:      cfg.BrokerTakerFeeBPS,
		SlippageBPS: cfg.BrokerSlippageBPS,
		DepthFrac:   cfg.BrokerMaxDepthFrac,
	}
	pb := broker.New(brokerCfg, ledger)

	reporter, err := report.NewReporter(cfg.EngineReportDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open reporter: %w", err)
	}
	traceLog, err := report.NewTraceLog(cfg.EngineReportDir)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("open trace log: %w", err)
	}

	var pgMirror *report.PostgresMirror
	if cfg.StorageMode == "postgres" {
		db, dbErr := report.OpenPostgres(report.PostgresConfig{
			Host: cfg.PostgresHost, Port: cfg.PostgresPort, User: cfg.PostgresUser,
			Password: cfg.PostgresPass, Database: cfg.PostgresDB, SSLMode: cfg.PostgresSSL,
		})
		if dbErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("open postgres mirror: %w", dbErr)
		}
		closers = append(closers, func() { _ = db.Close() })
		pgMirror = report.NewPostgresMirror(db)
		if schemaErr := pgMirror.EnsureSchema(); schemaErr != nil {
			cleanup()
			return nil, nil, fmt.Errorf("ensure postgres schema: %w", schemaErr)
		}
	}

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build notifier: %w", err)
	}

	eng := &engine.Engine{
		Sources:         []source.MarketSource{source.Static{Markets: seedMarkets}},
		PureDetectors:   pureDetectors,
		TimeLag:         timeLag,
		DualVenueMode:   true,
		Validator:       validate.Validator{},
		Gate:            gate,
		Broker:          pb,
		Reporter:        reporter,
		TraceLog:        traceLog,
		PostgresMirror:  pgMirror,
		Notifier:        notifier,
		Logger:          logger,
		RefreshInterval: cfg.EngineRefreshInterval,
		Iterations:      cfg.EngineIterations,
		ExternalTimeout: cfg.EngineExternalTimeout,
	}

	return eng, cleanup, nil
}

// buildEmbeddingCache opens the read-through cache backing the duplicate
// detector's semantic similarity pass: keys are the embedded question text,
// values are the embedding vectors.
func buildEmbeddingCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max distinct questions in a snapshot
		MaxCost:     1000,  // maximum 1000 cached embedding vectors
		BufferItems: 64,
		Logger:      logger,
	})
}

func buildNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, error) {
	switch cfg.NotifyMode {
	case "telegram":
		return notify.NewTelegram(cfg.TelegramBotToken, splitChatIDs(cfg.TelegramChatIDsRaw), logger)
	default:
		return &notify.Log{Logger: logger}, nil
	}
}

// splitChatIDs parses a comma-separated list of Telegram chat ids without
// pulling in strconv/strings for what is a tiny, fixed-format field.
func splitChatIDs(raw string) []int64 {
	var ids []int64
	var current int64
	var has, negative bool
	flush := func() {
		if has {
			if negative {
				current = -current
			}
			ids = append(ids, current)
		}
		current, has, negative = 0, false, false
	}
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			current = current*10 + int64(r-'0')
			has = true
		case r == '-':
			negative = true
		case r == ',':
			flush()
		}
	}
	flush()
	return ids
}
