package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

var (
	ErrBelowMinimum        = errors.New("amount below minimum redemption")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrProfileNotFound     = errors.New("profile not found")
)

// Service issues idempotency-keyed rewards and processes redemptions.
type Service struct {
	ledger      repository.LedgerRepo
	profiles    repository.ProfileRepo
	activity    repository.ActivityRepo
	redemptions repository.RedemptionRepo
	cfg         config.RewardsConfig
	logger      *slog.Logger
}

func NewService(ledger repository.LedgerRepo, profiles repository.ProfileRepo, activity repository.ActivityRepo, redemptions repository.RedemptionRepo, cfg config.RewardsConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{ledger: ledger, profiles: profiles, activity: activity, redemptions: redemptions, cfg: cfg, logger: logger}
}

// AwardResult reports what an award attempt did. Rewarded=false is a normal
// outcome (duplicate key, zero-reward event type, rate limit), never an error.
type AwardResult struct {
	Rewarded   bool   `json:"rewarded"`
	Amount     int64  `json:"amount"`
	NewBalance *int64 `json:"newBalance,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Award credits the scheduled amount for eventType exactly once per
// idempotency key. The application-level existence check is advisory; the
// store's uniqueness constraint is authoritative, and a conflict on insert is
// normalized to the same "already rewarded" outcome.
func (s *Service) Award(ctx context.Context, userID int64, projectID *int64, eventType, idempotencyKey string) (*AwardResult, error) {
	amount := s.cfg.Schedule[eventType]
	if amount <= 0 {
		return &AwardResult{Rewarded: false, Amount: 0, Message: fmt.Sprintf("event type %q carries no reward", eventType)}, nil
	}

	if existing, err := s.ledger.GetByKey(ctx, idempotencyKey); err == nil && existing != nil {
		return alreadyRewarded(existing), nil
	}

	since := time.Now().UTC().Add(-time.Hour).UnixMilli()
	count, err := s.ledger.CountSince(ctx, userID, eventType, since)
	if err != nil {
		return nil, fmt.Errorf("reward rate check: %w", err)
	}
	if count >= s.cfg.PromptsPerHour {
		return &AwardResult{Rewarded: false, Amount: 0, Message: "hourly reward limit reached"}, nil
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}

	newBalance := profile.PineappleBalance + amount
	entry := &models.RewardLedgerEntry{
		UserID:         userID,
		ProjectID:      projectID,
		EventType:      eventType,
		RewardAmount:   amount,
		BalanceAfter:   newBalance,
		IdempotencyKey: idempotencyKey,
	}
	if _, err := s.ledger.InsertEntry(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// lost the race; the conflict is a success signal
			if existing, gerr := s.ledger.GetByKey(ctx, idempotencyKey); gerr == nil && existing != nil {
				return alreadyRewarded(existing), nil
			}
			return &AwardResult{Rewarded: false, Amount: amount, Message: "already rewarded"}, nil
		}
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := s.profiles.UpdateBalance(ctx, userID, newBalance); err != nil {
		s.logger.Warn("credit balance failed", slog.Any("err", err))
	}
	event := &models.ActivityEvent{
		UserID:      userID,
		ProjectID:   projectID,
		EventType:   models.EventRewardEarned,
		Description: fmt.Sprintf("Earned %d pineapples (%s)", amount, eventType),
	}
	if _, err := s.activity.CreateEvent(ctx, event); err != nil {
		s.logger.Warn("record reward event failed", slog.Any("err", err))
	}

	return &AwardResult{Rewarded: true, Amount: amount, NewBalance: &newBalance}, nil
}

func alreadyRewarded(e *models.RewardLedgerEntry) *AwardResult {
	balance := e.BalanceAfter
	return &AwardResult{Rewarded: false, Amount: e.RewardAmount, NewBalance: &balance, Message: "already rewarded"}
}

// RedeemResult is the outcome of a successful redemption.
type RedeemResult struct {
	Redemption *models.Redemption `json:"redemption"`
	NewBalance int64              `json:"newBalance"`
}

// Redeem deducts the amount and records a pending redemption. The deduction
// happens first; if the redemption insert fails the original balance is
// restored best-effort (not transactionally). The negative ledger entry and
// activity event are audit writes and are not verified to succeed.
func (s *Service) Redeem(ctx context.Context, userID, amount int64, rewardType string) (*RedeemResult, error) {
	if amount < s.cfg.MinRedemption {
		return nil, fmt.Errorf("%w: minimum is %d", ErrBelowMinimum, s.cfg.MinRedemption)
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if profile.PineappleBalance < amount {
		return nil, fmt.Errorf("%w: balance is %d", ErrInsufficientBalance, profile.PineappleBalance)
	}

	newBalance := profile.PineappleBalance - amount
	if err := s.profiles.UpdateBalance(ctx, userID, newBalance); err != nil {
		return nil, fmt.Errorf("deduct balance: %w", err)
	}

	red := &models.Redemption{UserID: userID, Amount: amount, Status: models.RedemptionPending, RewardType: rewardType}
	id, err := s.redemptions.CreateRedemption(ctx, red)
	if err != nil {
		// best-effort compensating write; a failure here leaves the deduction in place
		if rerr := s.profiles.UpdateBalance(ctx, userID, profile.PineappleBalance); rerr != nil {
			s.logger.Error("restore balance after failed redemption insert", slog.Any("err", rerr))
		}
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	red.ID = id

	entry := &models.RewardLedgerEntry{
		UserID:         userID,
		EventType:      models.EventRedemption,
		RewardAmount:   -amount,
		BalanceAfter:   newBalance,
		IdempotencyKey: fmt.Sprintf("redemption-%d", id),
	}
	if _, err := s.ledger.InsertEntry(ctx, entry); err != nil {
		s.logger.Warn("record redemption ledger entry failed", slog.Any("err", err))
	}

	event := &models.ActivityEvent{
		UserID:      userID,
		EventType:   models.EventRedemption,
		Description: fmt.Sprintf("Redeemed %d pineapples (%s)", amount, rewardType),
	}
	if _, err := s.activity.CreateEvent(ctx, event); err != nil {
		s.logger.Warn("record redemption event failed", slog.Any("err", err))
	}

	return &RedeemResult{Redemption: red, NewBalance: newBalance}, nil
}
