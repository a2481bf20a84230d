package risk

import "time"

// Config holds the ten ordered thresholds the gate enforces, decoupled from
// pkg/config so this package has no dependency on the application's env
// loader — callers map the loaded configuration onto this struct once at
// startup.
type Config struct {
	ShortSellingAvailable bool
	DuplicateEnabled      bool

	MinNetEdge   float64
	MinGrossEdge float64 // 0 disables the check

	MinBuyPrice          float64
	MinLiquidityMultiple float64
	MinExpiryHours       float64

	MaxOpenPositions    int
	Cooldown            time.Duration
	DailyLossLimitUSD   float64
	MaxAllocationPerMkt float64 // fraction of total equity
}
