package sqlite

import (
	"context"
	"fmt"

	"github.com/vamoapp/vamo/pkg/models"
)

func (r *SQLiteRepo) CreateLink(ctx context.Context, l *models.ProjectLink) (int64, error) {
	if l == nil {
		return 0, fmt.Errorf("link is nil")
	}
	if l.Created == 0 {
		l.Created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO project_links (project_id, kind, url, created) VALUES (?, ?, ?, ?)`,
		l.ProjectID, l.Kind, l.URL, l.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) CountLinksByProject(ctx context.Context, projectID int64) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM project_links WHERE project_id = ?`, projectID)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) ListLinksByProject(ctx context.Context, projectID int64) ([]models.ProjectLink, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, project_id, kind, url, created FROM project_links WHERE project_id = ? ORDER BY created ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ProjectLink
	for rows.Next() {
		var l models.ProjectLink
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Kind, &l.URL, &l.Created); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
