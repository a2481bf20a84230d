package broker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

func TestSQLiteLedger_RecordAndSumTrades(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ledger, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer ledger.Close()

	trades := []types.Trade{
		{ID: "t1", Timestamp: time.Now(), MarketID: "m1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Buy, AmountFilled: 5, Price: 0.4, RealizedPnL: -2.1},
		{ID: "t2", Timestamp: time.Now(), MarketID: "m1", OutcomeID: "yes", Venue: types.VenueA, Side: types.Sell, AmountFilled: 5, Price: 0.45, RealizedPnL: 2.2},
	}
	for _, tr := range trades {
		if err := ledger.RecordTrade(tr); err != nil {
			t.Fatalf("record trade: %v", err)
		}
	}

	total, err := ledger.CumulativeRealizedPnL()
	if err != nil {
		t.Fatalf("sum pnl: %v", err)
	}
	if total < 0.09 || total > 0.11 {
		t.Errorf("cumulative pnl = %f, want ~0.1", total)
	}
}

func TestSQLiteLedger_ReopenSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ledger, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := ledger.RecordTrade(types.Trade{ID: "t1", Timestamp: time.Now(), MarketID: "m1", RealizedPnL: 5}); err != nil {
		t.Fatalf("record trade: %v", err)
	}
	ledger.Close()

	reopened, err := OpenSQLiteLedger(path)
	if err != nil {
		t.Fatalf("reopen ledger: %v", err)
	}
	defer reopened.Close()

	total, err := reopened.CumulativeRealizedPnL()
	if err != nil {
		t.Fatalf("sum pnl: %v", err)
	}
	if total != 5 {
		t.Errorf("expected pnl to persist across reopen, got %f", total)
	}
}
