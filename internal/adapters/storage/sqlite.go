package storage

// sqlite.go: estado durable de polyarb en un único archivo SQLite.
//
// Tablas:
//   - `queue_items`: la cola de revisión. Nunca se borran filas; el id se asigna
//     como count+1 dentro de la misma transacción del INSERT.
//   - `execution_mode`: una sola fila (id = 1) con el modo de ejecución.
//   - `audit_log`: append-only, una fila por acción.
//   - `metrics`, `metrics_history`, `rate_timestamps`, `events`,
//     `pipeline_runs`, `alerts`: monitor, con históricos acotados.
//
// Conexión única (SetMaxOpenConns(1)): SQLite es single-writer y así toda
// transacción queda serializada dentro del proceso.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS queue_items (
    id            INTEGER PRIMARY KEY,
    status        TEXT    NOT NULL,
    market_a      TEXT    NOT NULL DEFAULT '',
    market_b      TEXT    NOT NULL DEFAULT '',
    market_a_id   TEXT    NOT NULL DEFAULT '',
    market_b_id   TEXT    NOT NULL DEFAULT '',
    min_cost      REAL    NOT NULL DEFAULT 0,
    profit_usd    REAL    NOT NULL DEFAULT 0,
    asset         TEXT    NOT NULL DEFAULT '',
    liquidity_usd REAL    NOT NULL DEFAULT 0,
    created_at    TEXT    NOT NULL,
    updated_at    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS execution_mode (
    id             INTEGER PRIMARY KEY CHECK (id = 1),
    execution_mode TEXT    NOT NULL,
    dry_run        INTEGER NOT NULL,
    trigger_mode   TEXT    NOT NULL,
    updated_at     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    id      TEXT PRIMARY KEY,
    at      TEXT NOT NULL,
    action  TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS metrics (
    id                  INTEGER PRIMARY KEY CHECK (id = 1),
    opportunities_count INTEGER NOT NULL DEFAULT 0,
    executions_count    INTEGER NOT NULL DEFAULT 0,
    executions_success  INTEGER NOT NULL DEFAULT 0,
    total_pnl           REAL    NOT NULL DEFAULT 0,
    peak_pnl            REAL    NOT NULL DEFAULT 0,
    avg_latency_ms      REAL    NOT NULL DEFAULT 0,
    updated_at          TEXT
);

CREATE TABLE IF NOT EXISTS metrics_history (
    at                  TEXT    NOT NULL,
    opportunities_count INTEGER NOT NULL,
    executions_count    INTEGER NOT NULL,
    total_pnl           REAL    NOT NULL,
    drawdown_pct        REAL    NOT NULL,
    avg_latency_ms      REAL    NOT NULL
);

CREATE TABLE IF NOT EXISTS rate_timestamps (
    kind TEXT NOT NULL,
    at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    at     TEXT NOT NULL,
    type   TEXT NOT NULL,
    detail TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
    run_id  TEXT NOT NULL,
    at      TEXT NOT NULL,
    status  TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS alerts (
    at        TEXT NOT NULL,
    metric    TEXT NOT NULL,
    threshold REAL NOT NULL,
    message   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_queue_status ON queue_items(status);
CREATE INDEX IF NOT EXISTS idx_audit_action ON audit_log(action);
CREATE INDEX IF NOT EXISTS idx_rate_kind_at ON rate_timestamps(kind, at);
`

// SQLiteStorage implementa QueueStore, ModeStore, AuditLog y MonitorStore
// usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// timeLayout tiene ancho fijo para que las comparaciones de texto en SQL
// respeten el orden cronológico.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// capTable deja solo las últimas keep filas (por rowid) de la tabla.
func capTable(ctx context.Context, exec interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, table string, keep int) error {
	_, err := exec.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE rowid NOT IN (SELECT rowid FROM `+table+` ORDER BY rowid DESC LIMIT ?)`,
		keep,
	)
	return err
}
