package sqlite

import (
	"strings"
	"time"

	"log/slog"

	"github.com/vamoapp/vamo/internal/db"
	"github.com/vamoapp/vamo/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
type SQLiteRepo struct {
	conn   *db.DB
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.UserRepo = (*SQLiteRepo)(nil)
var _ repository.ProfileRepo = (*SQLiteRepo)(nil)
var _ repository.ProjectRepo = (*SQLiteRepo)(nil)
var _ repository.MessageRepo = (*SQLiteRepo)(nil)
var _ repository.ActivityRepo = (*SQLiteRepo)(nil)
var _ repository.LedgerRepo = (*SQLiteRepo)(nil)
var _ repository.RedemptionRepo = (*SQLiteRepo)(nil)
var _ repository.OfferRepo = (*SQLiteRepo)(nil)
var _ repository.LinkRepo = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteRepo{conn: conn, logger: logger}
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

// isUniqueViolation reports whether err is a sqlite uniqueness-constraint
// failure. modernc.org/sqlite surfaces these as plain errors carrying the
// constraint message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
