package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

const queueColumns = `id, status, market_a, market_b, market_a_id, market_b_id,
	min_cost, profit_usd, asset, liquidity_usd, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQueueItem(r rowScanner) (domain.QueueItem, error) {
	var (
		item             domain.QueueItem
		status, asset    string
		created, updated string
	)
	if err := r.Scan(
		&item.ID, &status, &item.MarketA, &item.MarketB, &item.MarketAID, &item.MarketBID,
		&item.MinCost, &item.ProfitUSD, &asset, &item.LiquidityUSD, &created, &updated,
	); err != nil {
		return domain.QueueItem{}, err
	}
	item.Status = domain.QueueStatus(status)
	item.Asset = domain.Asset(asset)
	item.CreatedAt = parseTime(created)
	item.UpdatedAt = parseTime(updated)
	return item, nil
}

// InsertQueueItem inserta un item pending con id = cantidad actual + 1.
// El conteo y el INSERT van en la misma transacción.
func (s *SQLiteStorage) InsertQueueItem(ctx context.Context, d domain.QueueDraft) (domain.QueueItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.InsertQueueItem: begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_items`).Scan(&count); err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.InsertQueueItem: count: %w", err)
	}

	now := s.now()
	item := domain.QueueItem{
		ID:           count + 1,
		Status:       domain.StatusPending,
		MarketA:      d.MarketA,
		MarketB:      d.MarketB,
		MarketAID:    d.MarketAID,
		MarketBID:    d.MarketBID,
		MinCost:      d.MinCost,
		ProfitUSD:    d.ProfitUSD,
		Asset:        d.Asset,
		LiquidityUSD: d.LiquidityUSD,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO queue_items (`+queueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, string(item.Status), item.MarketA, item.MarketB, item.MarketAID, item.MarketBID,
		item.MinCost, item.ProfitUSD, string(item.Asset), item.LiquidityUSD,
		formatTime(now), formatTime(now),
	); err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.InsertQueueItem: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.InsertQueueItem: commit: %w", err)
	}
	return item, nil
}

// GetQueueItem devuelve el item o domain.ErrNotFound.
func (s *SQLiteStorage) GetQueueItem(ctx context.Context, id int64) (domain.QueueItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanQueueItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QueueItem{}, fmt.Errorf("storage.GetQueueItem %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.GetQueueItem %d: %w", id, err)
	}
	return item, nil
}

// ListQueueItems devuelve los items ordenados por id.
func (s *SQLiteStorage) ListQueueItems(ctx context.Context, pendingOnly bool) ([]domain.QueueItem, error) {
	query := `SELECT ` + queueColumns + ` FROM queue_items`
	var args []any
	if pendingOnly {
		query += ` WHERE status = ?`
		args = append(args, string(domain.StatusPending))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage.ListQueueItems: query: %w", err)
	}
	defer rows.Close()

	items := []domain.QueueItem{}
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListQueueItems: scan row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// TransitionQueueItem hace compare-and-swap del estado: solo actualiza si el
// estado actual es from. Una transición ilegal o rancia devuelve
// domain.ErrNotFoundOrProcessed sin tocar la fila.
func (s *SQLiteStorage) TransitionQueueItem(ctx context.Context, id int64, from, to domain.QueueStatus) (domain.QueueItem, error) {
	if !domain.CanTransition(from, to) {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem %d %s->%s: %w", id, from, to, domain.ErrNotFoundOrProcessed)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), formatTime(s.now()), id, string(from),
	)
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem: update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem: rows affected: %w", err)
	}
	if n == 0 {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem %d %s->%s: %w", id, from, to, domain.ErrNotFoundOrProcessed)
	}

	item, err := scanQueueItem(tx.QueryRowContext(ctx, `SELECT `+queueColumns+` FROM queue_items WHERE id = ?`, id))
	if err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem: reload: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.QueueItem{}, fmt.Errorf("storage.TransitionQueueItem: commit: %w", err)
	}
	return item, nil
}
