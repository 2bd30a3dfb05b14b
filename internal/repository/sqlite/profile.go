package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vamoapp/vamo/pkg/models"
)

func (r *SQLiteRepo) CreateProfile(ctx context.Context, p *models.Profile) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("profile is nil")
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO profiles (user_id, pineapple_balance, is_admin, updated) VALUES (?, ?, ?, ?)`,
		p.UserID, p.PineappleBalance, p.IsAdmin, now())
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, pineapple_balance, is_admin, updated FROM profiles WHERE user_id = ?`, userID)
	var p models.Profile
	if err := row.Scan(&p.ID, &p.UserID, &p.PineappleBalance, &p.IsAdmin, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepo) UpdateBalance(ctx context.Context, userID, balance int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE profiles SET pineapple_balance = ?, updated = ? WHERE user_id = ?`, balance, now(), userID)
	return err
}
