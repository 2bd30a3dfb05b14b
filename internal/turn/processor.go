package turn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/repository"
)

// Sentinel errors mapped to HTTP statuses by the api package.
var (
	ErrRateLimited = errors.New("rate limited")
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("invalid input")
)

// Classifier is the adapter contract the processor depends on. It never
// returns an error; degraded output carries a fallback reply and a zero
// business update.
type Classifier interface {
	Classify(ctx context.Context, project *models.Project, history []models.Message, text string) *models.TurnAnalysis
}

// Repos bundles the record-store interfaces one turn touches.
type Repos struct {
	Projects repository.ProjectRepo
	Messages repository.MessageRepo
	Activity repository.ActivityRepo
	Ledger   repository.LedgerRepo
	Profiles repository.ProfileRepo
}

// Processor orchestrates one conversational turn and its compensating
// operations. Each request is an independent sequence of store calls with no
// in-process locking; idempotency keys on the ledger are the only
// concurrency guard (see DESIGN.md).
type Processor struct {
	repos      Repos
	classifier Classifier
	rewards    config.RewardsConfig
	history    int
	logger     *slog.Logger
}

func NewProcessor(repos Repos, classifier Classifier, rewards config.RewardsConfig, historyLimit int, logger *slog.Logger) *Processor {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{repos: repos, classifier: classifier, rewards: rewards, history: historyLimit, logger: logger}
}

// SubmitResult is what one forward turn produced.
type SubmitResult struct {
	AssistantMessage *models.Message       `json:"message"`
	PineapplesEarned int64                 `json:"pineapplesEarned"`
	Intent           string                `json:"intent"`
	BusinessUpdate   models.BusinessUpdate `json:"businessUpdate"`
}

// Submit runs the forward path for a new user message: rate limit, persist,
// classify, mutate progress, award rewards, and record the rollback
// descriptor. A failure after the user message is persisted leaves it in
// place; there is no automatic cleanup.
func (p *Processor) Submit(ctx context.Context, projectID, userID int64, text, tag string) (*SubmitResult, error) {
	project, err := p.ownedProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	since := hourAgo()
	count, err := p.repos.Messages.CountUserMessagesSince(ctx, projectID, since)
	if err != nil {
		return nil, fmt.Errorf("count recent messages: %w", err)
	}
	if count >= p.rewards.PromptsPerHour {
		return nil, fmt.Errorf("%w: %d prompts in the last hour, limit is %d", ErrRateLimited, count, p.rewards.PromptsPerHour)
	}

	userMsg := &models.Message{ProjectID: projectID, Role: models.RoleUser, Content: text, Tag: tag}
	userMsgID, err := p.repos.Messages.CreateMessage(ctx, userMsg)
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	userMsg.ID = userMsgID

	return p.forward(ctx, project, userID, userMsg, tag, 0, true)
}

// forward runs the turn from classification onward: context load,
// progress mutation, activity events, and (optionally) reward issuance. When
// assistantID is non-zero the existing assistant message is updated in place
// instead of a new one being inserted (the edit path).
func (p *Processor) forward(ctx context.Context, project *models.Project, userID int64, userMsg *models.Message, tag string, assistantID int64, award bool) (*SubmitResult, error) {
	history, err := p.repos.Messages.ListRecent(ctx, project.ID, p.history)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	// newest-first from the store; the model wants chronological order
	reverse(history)

	analysis := p.classifier.Classify(ctx, project, history, userMsg.Content)

	// the assistant message carries the submitted tag, else the derived intent
	effectiveTag := tag
	if effectiveTag == "" {
		effectiveTag = analysis.Intent
	}

	var assistant *models.Message
	if assistantID != 0 {
		if err := p.repos.Messages.UpdateAssistantReply(ctx, assistantID, analysis.Reply, analysis.Intent, effectiveTag); err != nil {
			return nil, fmt.Errorf("update assistant message: %w", err)
		}
		assistant, err = p.repos.Messages.GetMessage(ctx, assistantID)
		if err != nil || assistant == nil {
			return nil, fmt.Errorf("reload assistant message: %w", err)
		}
	} else {
		assistant = &models.Message{
			ProjectID:       project.ID,
			Role:            models.RoleAssistant,
			Content:         analysis.Reply,
			Tag:             effectiveTag,
			ExtractedIntent: analysis.Intent,
		}
		id, err := p.repos.Messages.CreateMessage(ctx, assistant)
		if err != nil {
			return nil, fmt.Errorf("persist assistant message: %w", err)
		}
		assistant.ID = id
	}

	newScore, progressDelta := applyProgress(project.ProgressScore, analysis.BusinessUpdate.ProgressDelta)
	newLow, newHigh := project.ValuationLow, project.ValuationHigh
	var lowDelta, highDelta int64
	if analysis.BusinessUpdate.ValuationAdjustment == models.ValuationUp {
		newLow, newHigh, lowDelta, highDelta = raiseValuation(project.ValuationLow, project.ValuationHigh, newScore)
	}
	if progressDelta != 0 || lowDelta != 0 || highDelta != 0 {
		if err := p.repos.Projects.UpdateProgress(ctx, project.ID, newScore, newLow, newHigh); err != nil {
			return nil, fmt.Errorf("apply progress: %w", err)
		}
	}

	desc := &models.RollbackDescriptor{
		UserMessageID:      userMsg.ID,
		AssistantMessageID: assistant.ID,
		ProgressDelta:      progressDelta,
		ValuationLowDelta:  lowDelta,
		ValuationHighDelta: highDelta,
	}
	promptEvent := &models.ActivityEvent{
		UserID:      userID,
		ProjectID:   &project.ID,
		EventType:   models.EventPrompt,
		Description: fmt.Sprintf("Logged an update (%s)", analysis.Intent),
		Metadata:    metadataWithRollback(desc),
	}
	if _, err := p.repos.Activity.CreateEvent(ctx, promptEvent); err != nil {
		return nil, fmt.Errorf("record prompt event: %w", err)
	}

	if analysis.BusinessUpdate.TractionSignal != nil {
		traction := &models.ActivityEvent{
			UserID:      userID,
			ProjectID:   &project.ID,
			EventType:   tractionEventType(analysis.Intent),
			Description: *analysis.BusinessUpdate.TractionSignal,
			// informational: rolls back as a pure delete, no numeric deltas
			Metadata: metadataWithRollback(&models.RollbackDescriptor{UserMessageID: userMsg.ID}),
		}
		if _, err := p.repos.Activity.CreateEvent(ctx, traction); err != nil {
			p.logger.Warn("record traction event failed", slog.Any("err", err))
		}
	}

	var earned int64
	if award {
		earned = p.issueRewards(ctx, project, userID, userMsg.ID, assistant.ID, tag)
		assistant.PineapplesEarned = earned
	}

	return &SubmitResult{
		AssistantMessage: assistant,
		PineapplesEarned: earned,
		Intent:           analysis.Intent,
		BusinessUpdate:   analysis.BusinessUpdate,
	}, nil
}

// issueRewards is the reward step of the forward path. It is gated by
// its own hourly counter over prompt-typed ledger rows, which can diverge
// from the message-count gate under concurrency; that divergence is
// intentional and preserved. Failures here never fail the turn.
func (p *Processor) issueRewards(ctx context.Context, project *models.Project, userID, userMsgID, assistantID int64, tag string) int64 {
	since := hourAgo()
	count, err := p.repos.Ledger.CountSince(ctx, userID, models.EventPrompt, since)
	if err != nil {
		p.logger.Warn("reward rate check failed", slog.Any("err", err))
		return 0
	}
	if count >= p.rewards.PromptsPerHour {
		p.logger.Info("reward rate limit reached, prompt not rewarded", slog.Int64("user_id", userID))
		return 0
	}

	profile, err := p.repos.Profiles.GetByUserID(ctx, userID)
	if err != nil || profile == nil {
		p.logger.Warn("load profile for reward failed", slog.Any("err", err))
		return 0
	}
	balance := profile.PineappleBalance

	var total int64
	promptAmount := p.rewards.Schedule[models.EventPrompt]
	if promptAmount > 0 {
		entry := &models.RewardLedgerEntry{
			UserID:         userID,
			ProjectID:      &project.ID,
			EventType:      models.EventPrompt,
			RewardAmount:   promptAmount,
			BalanceAfter:   balance + promptAmount,
			IdempotencyKey: fmt.Sprintf("%d-prompt", userMsgID),
		}
		switch _, err := p.repos.Ledger.InsertEntry(ctx, entry); {
		case err == nil:
			total += promptAmount
		case errors.Is(err, repository.ErrDuplicateKey):
			// already rewarded for this message; contributes 0
		default:
			p.logger.Warn("insert prompt reward failed", slog.Any("err", err))
		}
	}

	if isBonusTag(tag) {
		bonus := p.rewards.Schedule["tag_bonus"]
		if bonus > 0 {
			entry := &models.RewardLedgerEntry{
				UserID:         userID,
				ProjectID:      &project.ID,
				EventType:      "tag_bonus",
				RewardAmount:   bonus,
				BalanceAfter:   balance + total + bonus,
				IdempotencyKey: fmt.Sprintf("%d-tag-bonus", userMsgID),
			}
			switch _, err := p.repos.Ledger.InsertEntry(ctx, entry); {
			case err == nil:
				total += bonus
			case errors.Is(err, repository.ErrDuplicateKey):
			default:
				p.logger.Warn("insert tag bonus failed", slog.Any("err", err))
			}
		}
	}

	if total > 0 {
		if err := p.repos.Profiles.UpdateBalance(ctx, userID, balance+total); err != nil {
			p.logger.Warn("credit balance failed", slog.Any("err", err))
		}
		event := &models.ActivityEvent{
			UserID:      userID,
			ProjectID:   &project.ID,
			EventType:   models.EventRewardEarned,
			Description: fmt.Sprintf("Earned %d pineapples", total),
		}
		if _, err := p.repos.Activity.CreateEvent(ctx, event); err != nil {
			p.logger.Warn("record reward event failed", slog.Any("err", err))
		}
		if err := p.repos.Messages.UpdatePineapplesEarned(ctx, assistantID, total); err != nil {
			p.logger.Warn("update assistant reward failed", slog.Any("err", err))
		}
	}

	return total
}

func (p *Processor) ownedProject(ctx context.Context, projectID, userID int64) (*models.Project, error) {
	project, err := p.repos.Projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil || project.UserID != userID {
		return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
	}
	return project, nil
}

func tractionEventType(intent string) string {
	switch intent {
	case models.IntentFeature:
		return models.EventFeatureShipped
	case models.IntentCustomer:
		return models.EventCustomerAdded
	case models.IntentRevenue:
		return models.EventRevenueLogged
	default:
		return models.EventUpdate
	}
}

func isBonusTag(tag string) bool {
	switch tag {
	case models.IntentFeature, models.IntentCustomer, models.IntentRevenue:
		return true
	default:
		return false
	}
}

func metadataWithRollback(desc *models.RollbackDescriptor) json.RawMessage {
	b, _ := json.Marshal(map[string]any{"rollback": desc})
	return b
}

func hourAgo() int64 {
	return time.Now().UTC().Add(-time.Hour).UnixMilli()
}

func reverse(msgs []models.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
