package broker

// Config holds the paper-execution parameters that drive fill simulation.
type Config struct {
	InitialCash  float64
	FeeBPS       float64
	SlippageBPS  float64
	DepthFrac    float64 // fraction of a market's liquidity assumed fillable per action
	PriceEpsilon float64 // floor applied to limit_price when deriving max fillable quantity
}
