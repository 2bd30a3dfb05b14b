package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vamoapp/vamo/pkg/models"
)

func (r *SQLiteRepo) CreateProject(ctx context.Context, p *models.Project) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("project is nil")
	}

	ts := now()
	res, err := r.conn.Exec(ctx, `INSERT INTO projects (user_id, name, description, url, progress_score, valuation_low, valuation_high, created, updated) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.URL, p.ProgressScore, p.ValuationLow, p.ValuationHigh, ts, ts)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	row := r.conn.QueryRow(ctx, `SELECT id, user_id, name, description, url, progress_score, valuation_low, valuation_high, created, updated FROM projects WHERE id = ?`, id)
	var p models.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.URL, &p.ProgressScore, &p.ValuationLow, &p.ValuationHigh, &p.Created, &p.Updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepo) ListProjectsByUser(ctx context.Context, userID int64) ([]models.Project, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, name, description, url, progress_score, valuation_low, valuation_high, created, updated FROM projects WHERE user_id = ? ORDER BY created DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.URL, &p.ProgressScore, &p.ValuationLow, &p.ValuationHigh, &p.Created, &p.Updated); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return fmt.Errorf("project is nil")
	}

	_, err := r.conn.Exec(ctx, `UPDATE projects SET name = ?, description = ?, url = ?, updated = ? WHERE id = ?`,
		p.Name, p.Description, p.URL, now(), p.ID)
	return err
}

func (r *SQLiteRepo) UpdateProgress(ctx context.Context, id, progress, valuationLow, valuationHigh int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE projects SET progress_score = ?, valuation_low = ?, valuation_high = ?, updated = ? WHERE id = ?`,
		progress, valuationLow, valuationHigh, now(), id)
	return err
}
