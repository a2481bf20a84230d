package report

import (
	"database/sql"
	"fmt"

	gojson "github.com/goccy/go-json"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresConfig names a database to mirror execution traces into. It is
// optional: the engine runs fully on the filesystem without one.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
}

func (c PostgresConfig) dsn() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// OpenPostgres dials the configured database via the pgx stdlib driver.
func OpenPostgres(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// PostgresMirror duplicates every execution trace into a Postgres table,
// in addition to the JSONL file TraceLog always writes. It is a mirror,
// not a replacement: the filesystem trace log remains authoritative.
type PostgresMirror struct {
	db *sql.DB
}

// NewPostgresMirror wraps an already-open database handle. Tests inject a
// sqlmock-backed *sql.DB here instead of a live connection.
func NewPostgresMirror(db *sql.DB) *PostgresMirror {
	return &PostgresMirror{db: db}
}

// EnsureSchema creates the mirror table if it does not already exist.
func (p *PostgresMirror) EnsureSchema() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS execution_traces (
			trace_id       TEXT PRIMARY KEY,
			opportunity_id TEXT NOT NULL,
			recorded_at    TIMESTAMPTZ NOT NULL,
			payload        JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure execution_traces schema: %w", err)
	}
	return nil
}

// Mirror inserts one execution trace as a JSON payload.
func (p *PostgresMirror) Mirror(trace ExecutionTrace) error {
	payload, err := gojson.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshal execution trace: %w", err)
	}

	_, err = p.db.Exec(
		`INSERT INTO execution_traces (trace_id, opportunity_id, recorded_at, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (trace_id) DO NOTHING`,
		trace.TraceID, trace.OpportunityID, trace.TimestampUTC, payload,
	)
	if err != nil {
		return fmt.Errorf("insert execution trace: %w", err)
	}
	return nil
}
