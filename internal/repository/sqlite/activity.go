package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vamoapp/vamo/pkg/models"
)

func (r *SQLiteRepo) CreateEvent(ctx context.Context, e *models.ActivityEvent) (int64, error) {
	if e == nil {
		return 0, fmt.Errorf("activity event is nil")
	}
	if e.Created == 0 {
		e.Created = now()
	}

	var meta any
	if len(e.Metadata) > 0 {
		meta = string(e.Metadata)
	}
	res, err := r.conn.Exec(ctx, `INSERT INTO activity_events (user_id, project_id, event_type, description, metadata, created) VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.ProjectID, e.EventType, e.Description, meta, e.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func scanEvent(rows interface{ Scan(...any) error }) (*models.ActivityEvent, error) {
	var e models.ActivityEvent
	var projectID sql.NullInt64
	var meta sql.NullString
	if err := rows.Scan(&e.ID, &e.UserID, &projectID, &e.EventType, &e.Description, &meta, &e.Created); err != nil {
		return nil, err
	}
	if projectID.Valid {
		e.ProjectID = &projectID.Int64
	}
	if meta.Valid {
		e.Metadata = []byte(meta.String)
	}
	return &e, nil
}

func (r *SQLiteRepo) ListByProjectUser(ctx context.Context, userID, projectID int64) ([]models.ActivityEvent, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, project_id, event_type, description, metadata, created FROM activity_events WHERE user_id = ? AND project_id = ? ORDER BY created DESC, id DESC`, userID, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ListRecentByProject(ctx context.Context, projectID int64, limit int) ([]models.ActivityEvent, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, project_id, event_type, description, metadata, created FROM activity_events WHERE project_id = ? ORDER BY created DESC, id DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) ListActivities(ctx context.Context, userID int64, limit, offset int) ([]models.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT id, user_id, project_id, event_type, description, metadata, created FROM activity_events WHERE user_id = ? ORDER BY created DESC, id DESC LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ActivityEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountActivities(ctx context.Context, userID int64) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM activity_events WHERE user_id = ?`, userID)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) CountByProjectTypes(ctx context.Context, projectID int64, types []string) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(types)), ",")
	args := []any{projectID}
	for _, t := range types {
		args = append(args, t)
	}
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM activity_events WHERE project_id = ? AND event_type IN (`+placeholders+`)`, args...)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) DeleteEvents(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := r.conn.Exec(ctx, `DELETE FROM activity_events WHERE id IN (`+placeholders+`)`, args...)
	return err
}
