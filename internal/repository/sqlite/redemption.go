package sqlite

import (
	"context"
	"fmt"

	"github.com/vamoapp/vamo/pkg/models"
)

func (r *SQLiteRepo) CreateRedemption(ctx context.Context, red *models.Redemption) (int64, error) {
	if red == nil {
		return 0, fmt.Errorf("redemption is nil")
	}
	if red.Status == "" {
		red.Status = models.RedemptionPending
	}
	if red.Created == 0 {
		red.Created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO redemptions (user_id, amount, status, reward_type, created) VALUES (?, ?, ?, ?, ?)`,
		red.UserID, red.Amount, red.Status, red.RewardType, red.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

// UpdateRedemptionStatus moves a redemption out of pending. Terminal states
// are never overwritten.
func (r *SQLiteRepo) UpdateRedemptionStatus(ctx context.Context, id int64, status string) error {
	_, err := r.conn.Exec(ctx, `UPDATE redemptions SET status = ? WHERE id = ? AND status = 'pending'`, status, id)
	return err
}

func (r *SQLiteRepo) ListRedemptions(ctx context.Context, userID int64, limit, offset int) ([]models.Redemption, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, amount, status, reward_type, created FROM redemptions WHERE user_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Redemption
	for rows.Next() {
		var red models.Redemption
		if err := rows.Scan(&red.ID, &red.UserID, &red.Amount, &red.Status, &red.RewardType, &red.Created); err != nil {
			return nil, err
		}
		out = append(out, red)
	}
	return out, rows.Err()
}
