package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, grouped the way the engine's
// subsystems consume it.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Venue A/B (credential placeholders only — the core never dials out)
	VenueAEndpoint string
	VenueAAPIKey   string
	VenueBEndpoint string
	VenueBAPIKey   string

	// Filter — which markets the engine even considers
	FilterMaxMarketDuration time.Duration // 0 = unlimited
	FilterMinLiquidity      float64

	// Detectors
	DetectParityThreshold      float64
	DetectExclusiveSumEpsilon  float64
	DetectLadderMinGap         float64
	DetectDuplicatePriceDiff   float64
	DetectTimeLagWindow        time.Duration
	DetectTimeLagJumpBPS       float64
	DetectConsistencyTolerance float64
	DetectDuplicateSimilarity  float64

	// Risk gate
	RiskMinNetEdge            float64
	RiskMinGrossEdge          float64 // 0 = not enforced
	RiskMaxExposureUSD        float64
	RiskMaxOpenPositions      int
	RiskCooldown              time.Duration
	RiskDailyLossLimitUSD     float64
	RiskDuplicateEnabled      bool
	RiskMinBuyPrice           float64
	RiskMinLiquidityMultiple  float64
	RiskMinExpiryHours        float64
	RiskMaxAllocationPerMkt   float64
	RiskShortSellingAvailable bool

	// Broker (paper execution)
	BrokerStartingCashUSD float64
	BrokerTakerFeeBPS     float64
	BrokerSlippageBPS     float64
	BrokerMaxDepthFrac    float64
	BrokerLedgerPath      string // empty disables the sqlite ledger

	// Engine
	EngineRefreshInterval  time.Duration
	EngineIterations       int // 0 = run until cancelled
	EngineExternalTimeout  time.Duration
	EngineReportDir        string

	// Storage / reporting
	StorageMode  string // "postgres" or "file"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string

	// Notification
	NotifyMode         string // "log" or "telegram"
	TelegramBotToken   string
	TelegramChatIDsRaw string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		VenueAEndpoint: getEnvOrDefault("VENUE_A_ENDPOINT", ""),
		VenueAAPIKey:   os.Getenv("VENUE_A_API_KEY"),
		VenueBEndpoint: getEnvOrDefault("VENUE_B_ENDPOINT", ""),
		VenueBAPIKey:   os.Getenv("VENUE_B_API_KEY"),

		FilterMaxMarketDuration: getDurationOrDefault("FILTER_MAX_MARKET_DURATION", 0),
		FilterMinLiquidity:      getFloat64OrDefault("FILTER_MIN_LIQUIDITY", 0),

		DetectParityThreshold:      getFloat64OrDefault("DETECT_PARITY_THRESHOLD", 0.995),
		DetectExclusiveSumEpsilon:  getFloat64OrDefault("DETECT_EXCLUSIVE_SUM_EPSILON", 0.01),
		DetectLadderMinGap:         getFloat64OrDefault("DETECT_LADDER_MIN_GAP", 0.005),
		DetectDuplicatePriceDiff:   getFloat64OrDefault("DETECT_DUPLICATE_PRICE_DIFF", 0.02),
		DetectTimeLagWindow:        getDurationOrDefault("DETECT_TIMELAG_WINDOW", 5*time.Second),
		DetectTimeLagJumpBPS:       getFloat64OrDefault("DETECT_TIMELAG_JUMP_BPS", 300),
		DetectConsistencyTolerance: getFloat64OrDefault("DETECT_CONSISTENCY_TOLERANCE", 0.01),
		DetectDuplicateSimilarity:  getFloat64OrDefault("DETECT_DUPLICATE_SIMILARITY", 0.85),

		RiskMinNetEdge:            getFloat64OrDefault("RISK_MIN_NET_EDGE", 0.01),
		RiskMinGrossEdge:          getFloat64OrDefault("RISK_MIN_GROSS_EDGE", 0.0),
		RiskMaxExposureUSD:        getFloat64OrDefault("RISK_MAX_EXPOSURE_USD", 500.0),
		RiskMaxOpenPositions:      getIntOrDefault("RISK_MAX_OPEN_POSITIONS", 10),
		RiskCooldown:              getDurationOrDefault("RISK_COOLDOWN", 0),
		RiskDailyLossLimitUSD:     getFloat64OrDefault("RISK_DAILY_LOSS_LIMIT_USD", 100.0),
		RiskDuplicateEnabled:      getBoolOrDefault("RISK_DUPLICATE_ENABLED", true),
		RiskMinBuyPrice:           getFloat64OrDefault("RISK_MIN_BUY_PRICE", 0.01),
		RiskMinLiquidityMultiple:  getFloat64OrDefault("RISK_MIN_LIQUIDITY_MULTIPLE", 2.0),
		RiskMinExpiryHours:        getFloat64OrDefault("RISK_MIN_EXPIRY_HOURS", 1.0),
		RiskMaxAllocationPerMkt:   getFloat64OrDefault("RISK_MAX_ALLOCATION_PER_MARKET", 0.2),
		RiskShortSellingAvailable: getBoolOrDefault("RISK_SHORT_SELLING_AVAILABLE", true),

		BrokerStartingCashUSD: getFloat64OrDefault("BROKER_STARTING_CASH_USD", 10000.0),
		BrokerTakerFeeBPS:     getFloat64OrDefault("BROKER_TAKER_FEE_BPS", 100),
		BrokerSlippageBPS:     getFloat64OrDefault("BROKER_SLIPPAGE_BPS", 25),
		BrokerMaxDepthFrac:    getFloat64OrDefault("BROKER_MAX_DEPTH_FRAC", 0.5),
		BrokerLedgerPath:      getEnvOrDefault("BROKER_LEDGER_PATH", "./data/broker.db"),

		EngineRefreshInterval: getDurationOrDefault("ENGINE_REFRESH_INTERVAL", 30*time.Second),
		EngineIterations:      getIntOrDefault("ENGINE_ITERATIONS", 0),
		EngineExternalTimeout: getDurationOrDefault("ENGINE_EXTERNAL_TIMEOUT", 10*time.Second),
		EngineReportDir:       getEnvOrDefault("ENGINE_REPORT_DIR", "./data"),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "file"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "arb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "arb123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "arb_trace"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),

		NotifyMode:         getEnvOrDefault("NOTIFY_MODE", "log"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatIDsRaw: os.Getenv("TELEGRAM_CHAT_IDS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are self-consistent. Called
// once at startup; never on the hot path.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}

	if c.DetectParityThreshold <= 0 || c.DetectParityThreshold >= 1.0 {
		return fmt.Errorf("DETECT_PARITY_THRESHOLD must be between 0 and 1.0, got %f", c.DetectParityThreshold)
	}

	if c.RiskMaxExposureUSD <= 0 {
		return fmt.Errorf("RISK_MAX_EXPOSURE_USD must be positive, got %f", c.RiskMaxExposureUSD)
	}

	if c.RiskMaxOpenPositions < 1 {
		return fmt.Errorf("RISK_MAX_OPEN_POSITIONS must be at least 1, got %d", c.RiskMaxOpenPositions)
	}

	if c.RiskMaxAllocationPerMkt <= 0 || c.RiskMaxAllocationPerMkt > 1.0 {
		return fmt.Errorf("RISK_MAX_ALLOCATION_PER_MARKET must be in (0, 1.0], got %f", c.RiskMaxAllocationPerMkt)
	}

	if c.BrokerStartingCashUSD <= 0 {
		return fmt.Errorf("BROKER_STARTING_CASH_USD must be positive, got %f", c.BrokerStartingCashUSD)
	}

	if c.BrokerMaxDepthFrac <= 0 || c.BrokerMaxDepthFrac > 1.0 {
		return fmt.Errorf("BROKER_MAX_DEPTH_FRAC must be in (0, 1.0], got %f", c.BrokerMaxDepthFrac)
	}

	if c.EngineRefreshInterval <= 0 {
		return fmt.Errorf("ENGINE_REFRESH_INTERVAL must be positive, got %s", c.EngineRefreshInterval)
	}

	if c.EngineIterations < 0 {
		return fmt.Errorf("ENGINE_ITERATIONS must be non-negative (0 = unbounded), got %d", c.EngineIterations)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "file" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'file', got %q", c.StorageMode)
	}

	if c.NotifyMode != "log" && c.NotifyMode != "telegram" {
		return fmt.Errorf("NOTIFY_MODE must be 'log' or 'telegram', got %q", c.NotifyMode)
	}

	if c.NotifyMode == "telegram" && c.TelegramBotToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required when NOTIFY_MODE=telegram")
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}
