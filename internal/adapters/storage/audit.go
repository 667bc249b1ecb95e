package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// AppendAudit agrega una línea al log de auditoría.
func (s *SQLiteStorage) AppendAudit(ctx context.Context, action domain.AuditAction, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("storage.AppendAudit: marshal details: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, at, action, details) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), formatTime(s.now()), string(action), string(raw),
	)
	if err != nil {
		return fmt.Errorf("storage.AppendAudit %s: %w", action, err)
	}
	return nil
}

// ReadAudit devuelve hasta limit registros, los más recientes primero.
// action vacío devuelve todas las acciones.
func (s *SQLiteStorage) ReadAudit(ctx context.Context, limit int, action domain.AuditAction) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, at, action, details FROM audit_log`
	var args []any
	if action != "" {
		query += ` WHERE action = ?`
		args = append(args, string(action))
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ReadAudit: query: %w", err)
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		var (
			rec              domain.AuditRecord
			at, act, details string
		)
		if err := rows.Scan(&rec.ID, &at, &act, &details); err != nil {
			return nil, fmt.Errorf("storage.ReadAudit: scan row: %w", err)
		}
		rec.At = parseTime(at)
		rec.Action = domain.AuditAction(act)
		rec.Details = decodeDetails(details)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// decodeDetails nunca falla: un JSON corrupto se devuelve como mapa vacío.
func decodeDetails(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{}
	}
	return out
}
