package sqlite

import (
	"context"
	"fmt"

	"github.com/vamoapp/vamo/pkg/models"
)

func (r *SQLiteRepo) CreateOffer(ctx context.Context, o *models.Offer) (int64, error) {
	if o == nil {
		return 0, fmt.Errorf("offer is nil")
	}
	if o.Status == "" {
		o.Status = models.OfferActive
	}
	if o.Created == 0 {
		o.Created = now()
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO offers (project_id, user_id, offer_low, offer_high, reasoning, signals, status, expires_at, created) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ProjectID, o.UserID, o.OfferLow, o.OfferHigh, o.Reasoning, o.Signals, o.Status, o.ExpiresAt, o.Created)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) CountOffersSince(ctx context.Context, userID, since int64) (int64, error) {
	row := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE user_id = ? AND created >= ?`, userID, since)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

// ExpireActiveOffers marks prior active offers expired. Not atomic with the
// insert of a replacement offer; a concurrent request can race this.
func (r *SQLiteRepo) ExpireActiveOffers(ctx context.Context, projectID, userID int64) error {
	_, err := r.conn.Exec(ctx, `UPDATE offers SET status = 'expired' WHERE project_id = ? AND user_id = ? AND status = 'active'`, projectID, userID)
	return err
}

func (r *SQLiteRepo) ListOffersByProject(ctx context.Context, projectID int64) ([]models.Offer, error) {
	rows, err := r.conn.QueryRows(ctx, `SELECT id, project_id, user_id, offer_low, offer_high, reasoning, signals, status, expires_at, created FROM offers WHERE project_id = ? ORDER BY created DESC, id DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Offer
	for rows.Next() {
		var o models.Offer
		if err := rows.Scan(&o.ID, &o.ProjectID, &o.UserID, &o.OfferLow, &o.OfferHigh, &o.Reasoning, &o.Signals, &o.Status, &o.ExpiresAt, &o.Created); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
