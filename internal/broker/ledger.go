package broker

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harborquant/xvenue-arb/pkg/types"
)

// SQLiteLedger mirrors every trade and equity sample to an on-disk
// database so a restarted engine can report cumulative P&L across process
// lifetimes, something the in-memory Broker alone cannot do.
type SQLiteLedger struct {
	db *sql.DB
}

// OpenSQLiteLedger opens (or creates) the ledger database at path and
// brings its schema up to date.
func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	l := &SQLiteLedger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return l, nil
}

// Close closes the underlying database handle.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

func (l *SQLiteLedger) migrate() error {
	var version int
	_ = l.db.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := l.db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS trades (
				id            TEXT PRIMARY KEY,
				timestamp     TEXT NOT NULL,
				market_id     TEXT NOT NULL,
				outcome_id    TEXT NOT NULL,
				venue         TEXT NOT NULL,
				side          TEXT NOT NULL,
				amount_filled REAL NOT NULL,
				price         REAL NOT NULL,
				fees          REAL NOT NULL,
				slippage      REAL NOT NULL,
				realized_pnl  REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

			CREATE TABLE IF NOT EXISTS equity_samples (
				at     TEXT NOT NULL PRIMARY KEY,
				equity REAL NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// RecordTrade appends a filled trade to the ledger.
func (l *SQLiteLedger) RecordTrade(t types.Trade) error {
	_, err := l.db.Exec(`
		INSERT INTO trades (id, timestamp, market_id, outcome_id, venue, side, amount_filled, price, fees, slippage, realized_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Timestamp.Format(time.RFC3339Nano), t.MarketID, t.OutcomeID, string(t.Venue), string(t.Side),
		t.AmountFilled, t.Price, t.Fees, t.Slippage, t.RealizedPnL)
	return err
}

// RecordEquitySample appends a mark-to-market sample to the ledger.
func (l *SQLiteLedger) RecordEquitySample(sample EquitySample) error {
	_, err := l.db.Exec(`INSERT OR REPLACE INTO equity_samples (at, equity) VALUES (?, ?)`,
		sample.At.Format(time.RFC3339Nano), sample.Equity)
	return err
}

// CumulativeRealizedPnL sums realized_pnl across every trade ever recorded,
// including trades from prior process lifetimes.
func (l *SQLiteLedger) CumulativeRealizedPnL() (float64, error) {
	var total sql.NullFloat64
	err := l.db.QueryRow(`SELECT SUM(realized_pnl) FROM trades`).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Float64, nil
}
