package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/vamoapp/vamo/pkg/models"
)

const messageCols = `id, project_id, role, content, tag, extracted_intent, pineapples_earned, created`

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	if err := row.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.Tag, &m.ExtractedIntent, &m.PineapplesEarned, &m.Created); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLiteRepo) CreateMessage(ctx context.Context, m *models.Message) (int64, error) {
	if m == nil {
		return 0, fmt.Errorf("message is nil")
	}
	if m.Created == 0 {
		m.Created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO messages (project_id, role, content, tag, extracted_intent, pineapples_earned, created) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ProjectID, m.Role, m.Content, m.Tag, m.ExtractedIntent, m.PineapplesEarned, m.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+messageCols+` FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *SQLiteRepo) ListRecent(ctx context.Context, projectID int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.conn.QueryRows(ctx, `SELECT `+messageCols+` FROM messages WHERE project_id = ? ORDER BY created DESC, id DESC LIMIT ?`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) CountUserMessagesSince(ctx context.Context, projectID, since int64) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE project_id = ? AND role = 'user' AND created >= ?`, projectID, since)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) CountMessagesByProject(ctx context.Context, projectID int64) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE project_id = ?`, projectID)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) FirstAssistantAfter(ctx context.Context, projectID, after int64) (*models.Message, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+messageCols+` FROM messages WHERE project_id = ? AND role = 'assistant' AND created > ? ORDER BY created ASC, id ASC LIMIT 1`, projectID, after)
	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

func (r *SQLiteRepo) UpdateContent(ctx context.Context, id int64, content, tag string) error {
	_, err := r.conn.Exec(ctx, `UPDATE messages SET content = ?, tag = ? WHERE id = ?`, content, tag, id)
	return err
}

func (r *SQLiteRepo) UpdateAssistantReply(ctx context.Context, id int64, content, intent, tag string) error {
	_, err := r.conn.Exec(ctx, `UPDATE messages SET content = ?, extracted_intent = ?, tag = ? WHERE id = ?`, content, intent, tag, id)
	return err
}

func (r *SQLiteRepo) UpdatePineapplesEarned(ctx context.Context, id, amount int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE messages SET pineapples_earned = ? WHERE id = ?`, amount, id)
	return err
}

func (r *SQLiteRepo) DeleteMessages(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := r.conn.Exec(ctx, `DELETE FROM messages WHERE id IN (`+placeholders+`)`, args...)
	return err
}
