package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harborquant/xvenue-arb/internal/broker"
	"github.com/harborquant/xvenue-arb/internal/detect"
	"github.com/harborquant/xvenue-arb/internal/report"
	"github.com/harborquant/xvenue-arb/internal/risk"
	"github.com/harborquant/xvenue-arb/internal/source"
	"github.com/harborquant/xvenue-arb/internal/validate"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// fixedDetector always returns the same canned opportunities, regardless
// of the market snapshot it is handed.
type fixedDetector struct {
	name string
	opps []types.Opportunity
}

func (f fixedDetector) Name() types.OpportunityType   { return types.OpportunityType(f.name) }
func (f fixedDetector) Detect([]types.Market) []types.Opportunity { return f.opps }

type panicDetector struct{}

func (panicDetector) Name() types.OpportunityType { return "panic_detector" }
func (panicDetector) Detect([]types.Market) []types.Opportunity {
	panic("boom")
}

func dualVenueMarkets() []types.Market {
	return []types.Market{
		{ID: "a1", Venue: types.VenueA, Liquidity: 1000, Outcomes: []types.Outcome{
			{ID: "yes", Label: "Yes", Price: 0.40, Liquidity: 1000},
			{ID: "no", Label: "No", Price: 0.60, Liquidity: 1000},
		}},
		{ID: "b1", Venue: types.VenueB, Liquidity: 1000, Outcomes: []types.Outcome{
			{ID: "yes", Label: "Yes", Price: 0.55, Liquidity: 1000},
			{ID: "no", Label: "No", Price: 0.45, Liquidity: 1000},
		}},
	}
}

func dualVenueOpportunity() types.Opportunity {
	actions := []types.TradeAction{
		{MarketID: "a1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Buy, Amount: 10, LimitPrice: 0.40},
		{MarketID: "b1", OutcomeID: "yes", Venue: types.VenueB, Side: types.Buy, Amount: 10, LimitPrice: 0.55},
	}
	return types.NewOpportunity(types.Parity, []string{"a1", "b1"}, "test opportunity", 0.05, actions, nil, time.Now())
}

func newTestEngine(t *testing.T, detector fixedDetector) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()

	reporter, err := report.NewReporter(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}
	traceLog, err := report.NewTraceLog(dir)
	if err != nil {
		t.Fatalf("new trace log: %v", err)
	}

	b := broker.New(broker.Config{
		InitialCash: 10000,
		FeeBPS:      0,
		SlippageBPS: 0,
		DepthFrac:   1.0,
	}, nil)

	gate := risk.NewGate(risk.Config{
		ShortSellingAvailable: true,
		DuplicateEnabled:      true,
		MinNetEdge:            0,
		MinBuyPrice:           0.01,
		MinLiquidityMultiple:  0,
		MinExpiryHours:        0,
		MaxOpenPositions:      100,
		MaxAllocationPerMkt:   1.0,
	}, nil)

	return &Engine{
		Sources:         []source.MarketSource{source.Static{Markets: dualVenueMarkets()}},
		PureDetectors:   []detect.Detector{detector},
		DualVenueMode:   true,
		Validator:       validate.Validator{},
		Gate:            gate,
		Broker:          b,
		Reporter:        reporter,
		TraceLog:        traceLog,
		RefreshInterval: time.Millisecond,
		Iterations:      1,
		ExternalTimeout: time.Second,
	}, dir
}

func TestEngine_RunIterationApprovesAndExecutesOpportunity(t *testing.T) {
	detector := fixedDetector{name: "test", opps: []types.Opportunity{dualVenueOpportunity()}}
	e, dir := newTestEngine(t, detector)

	summary := e.RunIteration(context.Background())

	if summary.Detected != 1 {
		t.Fatalf("expected 1 detected opportunity, got %d", summary.Detected)
	}
	if summary.Approved != 1 {
		t.Fatalf("expected 1 approved opportunity, got %d", summary.Approved)
	}

	if len(e.Broker.Trades()) != 2 {
		t.Fatalf("expected 2 filled trades, got %d", len(e.Broker.Trades()))
	}

	if _, err := os.Stat(filepath.Join(dir, "execution_trace.jsonl")); err != nil {
		t.Fatalf("expected trace log to exist: %v", err)
	}
}

func TestEngine_DetectorPanicDoesNotAbortIteration(t *testing.T) {
	dir := t.TempDir()
	reporter, err := report.NewReporter(dir)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}

	b := broker.New(broker.Config{InitialCash: 10000, DepthFrac: 1.0}, nil)
	gate := risk.NewGate(risk.Config{ShortSellingAvailable: true, MaxOpenPositions: 100, MaxAllocationPerMkt: 1.0}, nil)

	opp := dualVenueOpportunity()
	e := &Engine{
		Sources: []source.MarketSource{source.Static{Markets: dualVenueMarkets()}},
		PureDetectors: []detect.Detector{
			panicDetector{},
			fixedDetector{name: "test", opps: []types.Opportunity{opp}},
		},
		DualVenueMode:   true,
		Validator:       validate.Validator{},
		Gate:            gate,
		Broker:          b,
		Reporter:        reporter,
		RefreshInterval: time.Millisecond,
		Iterations:      1,
		ExternalTimeout: time.Second,
	}

	summary := e.RunIteration(context.Background())
	if summary.Detected != 1 {
		t.Fatalf("expected the panicking detector to be isolated and the other to still report, got %d detected", summary.Detected)
	}
}

func TestEngine_RunStopsAfterConfiguredIterations(t *testing.T) {
	detector := fixedDetector{name: "test", opps: nil}
	e, _ := newTestEngine(t, detector)
	e.Iterations = 3

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if e.iteration != 3 {
		t.Fatalf("expected 3 iterations, got %d", e.iteration)
	}
}
