package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

// InsertEntry appends one reward ledger row. The uniqueness constraint on
// idempotency_key is the authoritative duplicate guard; a constraint failure
// is surfaced as repository.ErrDuplicateKey so callers can treat it as an
// already-rewarded no-op.
func (r *SQLiteRepo) InsertEntry(ctx context.Context, e *models.RewardLedgerEntry) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("ledger entry is nil")
	}
	if e.IdempotencyKey == "" {
		return 0, fmt.Errorf("idempotency key is required")
	}
	if e.Created == 0 {
		e.Created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO reward_ledger (user_id, project_id, event_type, reward_amount, balance_after, idempotency_key, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.ProjectID, e.EventType, e.RewardAmount, e.BalanceAfter, e.IdempotencyKey, e.Created)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrDuplicateKey
		}
		return 0, err
	}

	return res.LastInsertId()
}

func scanLedgerEntry(row interface{ Scan(...any) error }) (*models.RewardLedgerEntry, error) {
	var e models.RewardLedgerEntry
	var projectID sql.NullInt64
	if err := row.Scan(&e.ID, &e.UserID, &projectID, &e.EventType, &e.RewardAmount, &e.BalanceAfter, &e.IdempotencyKey, &e.Created); err != nil {
		return nil, err
	}
	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}
	return &e, nil
}

func (r *SQLiteRepo) GetByKey(ctx context.Context, key string) (*models.RewardLedgerEntry, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, project_id, event_type, reward_amount, balance_after, idempotency_key, created FROM reward_ledger WHERE idempotency_key = ?`, key)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

func (r *SQLiteRepo) CountSince(ctx context.Context, userID int64, eventType string, since int64) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM reward_ledger WHERE user_id = ? AND event_type = ? AND created >= ?`, userID, eventType, since)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

// DeleteByKeyPrefix removes every ledger row for the user whose idempotency
// key starts with prefix. Rollback relies on this pattern match to delete the
// prompt and tag-bonus entries of a turn in one operation.
func (r *SQLiteRepo) DeleteByKeyPrefix(ctx context.Context, userID int64, prefix string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM reward_ledger WHERE user_id = ? AND idempotency_key LIKE ?`, userID, prefix+"%")
	return err
}

func (r *SQLiteRepo) ListLedgerByUser(ctx context.Context, userID int64, limit, offset int) ([]models.RewardLedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, project_id, event_type, reward_amount, balance_after, idempotency_key, created FROM reward_ledger WHERE user_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RewardLedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}
