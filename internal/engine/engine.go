// Package engine orchestrates one polling iteration end to end: fetch,
// detect, validate, risk-gate, execute, notify, report. It is the only
// place that mutates broker state or time-lag history.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harborquant/xvenue-arb/internal/broker"
	"github.com/harborquant/xvenue-arb/internal/detect"
	"github.com/harborquant/xvenue-arb/internal/notify"
	"github.com/harborquant/xvenue-arb/internal/report"
	"github.com/harborquant/xvenue-arb/internal/risk"
	"github.com/harborquant/xvenue-arb/internal/source"
	"github.com/harborquant/xvenue-arb/internal/validate"
	"github.com/harborquant/xvenue-arb/pkg/types"
)

// IterationSummary is what one RunIteration call reports to the caller and
// to the Notifier.
type IterationSummary struct {
	Iteration int
	Markets   int
	Detected  int
	Approved  int
}

// Engine wires together every subsystem. Detector invocation fans out over
// an immutable market snapshot; broker state and time-lag history are
// touched only from this package's own goroutine.
type Engine struct {
	Sources       []source.MarketSource
	PureDetectors []detect.Detector
	TimeLag       *detect.TimeLagDetector

	DualVenueMode bool
	Validator     validate.Validator
	Gate          *risk.Gate
	Broker        *broker.Broker

	Reporter       *report.Reporter
	TraceLog       *report.TraceLog
	PostgresMirror *report.PostgresMirror

	Notifier notify.Notifier
	Logger   *zap.Logger

	RefreshInterval time.Duration
	Iterations      int // 0 = run until ctx is cancelled
	ExternalTimeout time.Duration

	iteration      int
	lastApprovalAt time.Time
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// RunIteration executes steps 1-5 of the iteration contract once.
func (e *Engine) RunIteration(ctx context.Context) IterationSummary {
	e.iteration++

	timeout := e.ExternalTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	markets := e.fetchMarkets(fetchCtx)
	marketLookup := buildLookup(markets)

	opportunities := e.detectAll(markets)
	sort.Slice(opportunities, func(i, j int) bool { return opportunities[i].ID < opportunities[j].ID })

	approved := make([]types.Opportunity, 0, len(opportunities))
	for _, opp := range opportunities {
		e.processOpportunity(opp, marketLookup, &approved)
	}

	e.notifySummary(len(markets), len(opportunities), len(approved))

	if e.Reporter != nil {
		if err := e.Reporter.Report(e.iteration, markets, opportunities, approved); err != nil {
			e.logger().Error("report write failed", zap.Error(err))
		}
	}

	return IterationSummary{
		Iteration: e.iteration,
		Markets:   len(markets),
		Detected:  len(opportunities),
		Approved:  len(approved),
	}
}

// Run loops RunIteration, sleeping RefreshInterval between calls, until
// Iterations is reached (0 means unbounded) or ctx is cancelled. A
// cancellation is only honored between iterations, never mid broker
// execution, so the reporter always flushes a complete iteration.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.RunIteration(ctx)

		if e.Iterations > 0 && e.iteration >= e.Iterations {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.RefreshInterval):
		}
	}
}

func (e *Engine) processOpportunity(opp types.Opportunity, marketLookup map[string]*types.Market, approved *[]types.Opportunity) {
	start := time.Now()

	allowed, reason, detail := e.approve(opp, marketLookup)

	trace := report.ExecutionTrace{
		TraceID:         opp.TraceID(),
		TimestampUTC:    time.Now().UTC(),
		OpportunityID:   opp.ID,
		Detector:        opp.Type,
		Markets:         opp.MarketIDs,
		PricesBefore:    pricesBefore(opp, marketLookup),
		IntendedActions: opp.Actions,
		RiskApproval:    report.RiskApproval{Allowed: allowed, Reason: string(reason)},
	}

	if !allowed {
		trace.Status = report.StatusCancelled
		trace.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
		e.appendTrace(trace)
		e.logger().Debug("opportunity rejected",
			zap.String("opportunity_id", opp.ID), zap.String("reason", string(reason)), zap.String("detail", detail))
		return
	}

	e.lastApprovalAt = time.Now()
	result := e.Broker.Execute(opp, marketLookup)
	*approved = append(*approved, opp)

	trace.Executions = result.Trades
	trace.RealizedPnL = result.RealizedPnL
	trace.LatencyMS = float64(time.Since(start).Microseconds()) / 1000
	if result.FullyFilled {
		trace.Status = report.StatusSuccess
	} else {
		trace.Status = report.StatusPartial
	}
	e.appendTrace(trace)
}

func (e *Engine) approve(opp types.Opportunity, marketLookup map[string]*types.Market) (bool, types.RejectReason, string) {
	if e.DualVenueMode {
		result := e.Validator.Validate(opp, marketLookup, e.Broker)
		if !result.Allowed {
			return false, result.Reason, result.Detail
		}
	}

	now := time.Now()
	ctx := risk.ApprovalContext{
		Markets:          marketLookup,
		Positions:        e.Broker,
		NonZeroPositions: e.Broker.NonZeroPositions(),
		Now:              now,
		LastApprovalAt:   e.lastApprovalAt,
	}
	if e.Broker != nil {
		ctx.TotalEquity = e.Broker.Equity(marketLookup)
		ctx.RealizedPnLToday = realizedPnLSince(e.Broker.Trades(), startOfDay(now))
	}

	decision := e.Gate.Approve(opp, ctx)
	return decision.Approved, decision.Reason, decision.Detail
}

func (e *Engine) appendTrace(trace report.ExecutionTrace) {
	if e.TraceLog != nil {
		if err := e.TraceLog.Append(trace); err != nil {
			e.logger().Error("trace log write failed", zap.Error(err))
		}
	}
	if e.PostgresMirror != nil {
		if err := e.PostgresMirror.Mirror(trace); err != nil {
			e.logger().Warn("postgres trace mirror failed", zap.Error(err))
		}
	}
}

func pricesBefore(opp types.Opportunity, marketLookup map[string]*types.Market) map[string]float64 {
	prices := make(map[string]float64, len(opp.Actions))
	for _, action := range opp.Actions {
		market := marketLookup[action.MarketID]
		if market == nil {
			continue
		}
		outcome := market.OutcomeByID(action.OutcomeID)
		if outcome == nil {
			continue
		}
		prices[action.MarketID+"|"+action.OutcomeID] = outcome.Price
	}
	return prices
}

func (e *Engine) notifySummary(markets, detected, approved int) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Send(fmt.Sprintf(
		"iteration %d: %d markets, %d opportunities detected, %d approved",
		e.iteration, markets, detected, approved,
	))
}

func (e *Engine) fetchMarkets(ctx context.Context) []types.Market {
	var mu sync.Mutex
	var all []types.Market

	var wg sync.WaitGroup
	for _, src := range e.Sources {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			markets, err := src.Fetch(ctx)
			if err != nil {
				e.logger().Warn("market source fetch failed", zap.Error(err))
				return
			}
			mu.Lock()
			all = append(all, markets...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return all
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func realizedPnLSince(trades []types.Trade, since time.Time) float64 {
	var total float64
	for _, t := range trades {
		if t.Timestamp.Before(since) {
			continue
		}
		total += t.RealizedPnL
	}
	return total
}

func buildLookup(markets []types.Market) map[string]*types.Market {
	lookup := make(map[string]*types.Market, len(markets))
	for i := range markets {
		lookup[markets[i].ID] = &markets[i]
	}
	return lookup
}

// detectAll fans the pure detectors out over the immutable snapshot, then
// runs the stateful time-lag detector afterward in this goroutine — the
// dedicated single-threaded step its internal history map requires.
func (e *Engine) detectAll(markets []types.Market) []types.Opportunity {
	var mu sync.Mutex
	var opportunities []types.Opportunity

	var g errgroup.Group
	for _, d := range e.PureDetectors {
		d := d
		g.Go(func() error {
			opps := e.invokeDetector(d, markets)
			mu.Lock()
			opportunities = append(opportunities, opps...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // invokeDetector never returns an error; panics are recovered inline

	if e.TimeLag != nil {
		opportunities = append(opportunities, e.invokeDetector(e.TimeLag, markets)...)
	}

	return opportunities
}

// invokeDetector isolates one detector: a panic is recovered, counted, and
// logged rather than aborting the iteration, per the detector-bug error
// class that must not silence the rest of the suite.
func (e *Engine) invokeDetector(d detect.Detector, markets []types.Market) (opps []types.Opportunity) {
	name := string(d.Name())

	timer := prometheus.NewTimer(detect.DetectionDurationSeconds.WithLabelValues(name))
	defer timer.ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			detect.DetectorPanicsTotal.WithLabelValues(name).Inc()
			e.logger().Error("detector panicked", zap.String("detector", name), zap.Any("panic", r))
			opps = nil
		}
	}()

	opps = d.Detect(markets)
	detect.OpportunitiesDetectedTotal.WithLabelValues(name).Add(float64(len(opps)))
	for _, o := range opps {
		detect.NetEdgeBPS.WithLabelValues(name).Observe(o.NetEdge * 10000)
	}
	return opps
}
