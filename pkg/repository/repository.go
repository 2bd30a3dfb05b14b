package repository

import (
	"context"
	"errors"

	"github.com/vamoapp/vamo/pkg/models"
)

// ErrDuplicateKey is returned by LedgerRepo.Insert when the idempotency key
// already exists. Callers treat it as "already rewarded", never as a failure.
var ErrDuplicateKey = errors.New("duplicate idempotency key")

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type ProfileRepo interface {
	CreateProfile(ctx context.Context, p *models.Profile) (int64, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateBalance(ctx context.Context, userID, balance int64) error
}

type ProjectRepo interface {
	CreateProject(ctx context.Context, p *models.Project) (int64, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjectsByUser(ctx context.Context, userID int64) ([]models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	UpdateProgress(ctx context.Context, id, progress, valuationLow, valuationHigh int64) error
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, m *models.Message) (int64, error)
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	// ListRecent returns the most recent messages of any role, newest first.
	ListRecent(ctx context.Context, projectID int64, limit int) ([]models.Message, error)
	CountUserMessagesSince(ctx context.Context, projectID, since int64) (int64, error)
	CountMessagesByProject(ctx context.Context, projectID int64) (int64, error)
	// FirstAssistantAfter returns the oldest assistant message strictly after
	// the given timestamp, or nil when none exists.
	FirstAssistantAfter(ctx context.Context, projectID, after int64) (*models.Message, error)
	UpdateContent(ctx context.Context, id int64, content, tag string) error
	UpdateAssistantReply(ctx context.Context, id int64, content, intent, tag string) error
	UpdatePineapplesEarned(ctx context.Context, id, amount int64) error
	DeleteMessages(ctx context.Context, ids ...int64) error
}

type ActivityRepo interface {
	CreateEvent(ctx context.Context, e *models.ActivityEvent) (int64, error)
	// ListByProjectUser returns every event for the pair; rollback filters the
	// result in memory by descriptor.
	ListByProjectUser(ctx context.Context, userID, projectID int64) ([]models.ActivityEvent, error)
	ListRecentByProject(ctx context.Context, projectID int64, limit int) ([]models.ActivityEvent, error)
	ListActivities(ctx context.Context, userID int64, limit, offset int) ([]models.ActivityEvent, error)
	CountActivities(ctx context.Context, userID int64) (int64, error)
	CountByProjectTypes(ctx context.Context, projectID int64, types []string) (int64, error)
	DeleteEvents(ctx context.Context, ids ...int64) error
}

type LedgerRepo interface {
	// InsertEntry returns ErrDuplicateKey when the idempotency key exists.
	InsertEntry(ctx context.Context, e *models.RewardLedgerEntry) (int64, error)
	GetByKey(ctx context.Context, key string) (*models.RewardLedgerEntry, error)
	CountSince(ctx context.Context, userID int64, eventType string, since int64) (int64, error)
	DeleteByKeyPrefix(ctx context.Context, userID int64, prefix string) error
	ListLedgerByUser(ctx context.Context, userID int64, limit, offset int) ([]models.RewardLedgerEntry, error)
}

type RedemptionRepo interface {
	CreateRedemption(ctx context.Context, r *models.Redemption) (int64, error)
	UpdateRedemptionStatus(ctx context.Context, id int64, status string) error
	ListRedemptions(ctx context.Context, userID int64, limit, offset int) ([]models.Redemption, error)
}

type OfferRepo interface {
	CreateOffer(ctx context.Context, o *models.Offer) (int64, error)
	CountOffersSince(ctx context.Context, userID, since int64) (int64, error)
	ExpireActiveOffers(ctx context.Context, projectID, userID int64) error
	ListOffersByProject(ctx context.Context, projectID int64) ([]models.Offer, error)
}

type LinkRepo interface {
	CreateLink(ctx context.Context, l *models.ProjectLink) (int64, error)
	CountLinksByProject(ctx context.Context, projectID int64) (int64, error)
	ListLinksByProject(ctx context.Context, projectID int64) ([]models.ProjectLink, error)
}
