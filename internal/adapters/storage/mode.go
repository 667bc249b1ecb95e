package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// LoadMode devuelve el modo guardado, o los defaults si la fila no existe.
func (s *SQLiteStorage) LoadMode(ctx context.Context) (domain.ModeState, error) {
	var (
		execMode, trigger string
		dryRun            int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT execution_mode, dry_run, trigger_mode FROM execution_mode WHERE id = 1`,
	).Scan(&execMode, &dryRun, &trigger)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultModeState(), nil
	}
	if err != nil {
		return domain.ModeState{}, fmt.Errorf("storage.LoadMode: %w", err)
	}

	state := domain.ModeState{
		ExecutionMode: domain.ExecutionMode(execMode),
		DryRun:        dryRun != 0,
		TriggerMode:   domain.ParseTriggerMode(trigger),
	}
	if _, err := domain.ParseExecutionMode(execMode); err != nil {
		state.ExecutionMode = domain.ExecutionPaper
	}
	return state, nil
}

// SaveMode reemplaza la única fila de modo.
func (s *SQLiteStorage) SaveMode(ctx context.Context, state domain.ModeState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO execution_mode (id, execution_mode, dry_run, trigger_mode, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			execution_mode = excluded.execution_mode,
			dry_run        = excluded.dry_run,
			trigger_mode   = excluded.trigger_mode,
			updated_at     = excluded.updated_at`,
		string(state.ExecutionMode), boolToInt(state.DryRun), string(state.TriggerMode), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveMode: %w", err)
	}
	return nil
}
