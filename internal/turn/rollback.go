package turn

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/vamoapp/vamo/pkg/models"
)

// Delete reverses a turn completely: balance, progress/valuation deltas,
// ledger rows (by idempotency-key prefix), activity events, and finally both
// messages. Deleted is terminal; repeating the call finds nothing to undo.
func (p *Processor) Delete(ctx context.Context, userID, userMessageID int64) error {
	userMsg, project, err := p.ownedUserMessage(ctx, userID, userMessageID)
	if err != nil {
		return err
	}

	assistantID, err := p.rollback(ctx, project, userID, userMsg, false)
	if err != nil {
		return err
	}

	ids := []int64{userMsg.ID}
	if assistantID != 0 {
		ids = append(ids, assistantID)
	}
	if err := p.repos.Messages.DeleteMessages(ctx, ids...); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// Edit reverses the turn's progress/valuation effect (but deliberately not
// its rewards, so repeated edits cannot farm pineapples), rewrites the user
// message in place, and re-runs the forward path with a zero award.
func (p *Processor) Edit(ctx context.Context, userID, userMessageID int64, text, tag string) (*SubmitResult, error) {
	userMsg, project, err := p.ownedUserMessage(ctx, userID, userMessageID)
	if err != nil {
		return nil, err
	}

	assistantID, err := p.rollback(ctx, project, userID, userMsg, true)
	if err != nil {
		return nil, err
	}

	if err := p.repos.Messages.UpdateContent(ctx, userMsg.ID, text, tag); err != nil {
		return nil, fmt.Errorf("update user message: %w", err)
	}
	userMsg.Content = text
	userMsg.Tag = tag

	// the rollback just rewound progress/valuation; work from fresh state
	project, err = p.repos.Projects.GetProject(ctx, project.ID)
	if err != nil || project == nil {
		return nil, fmt.Errorf("reload project: %w", err)
	}

	res, err := p.forward(ctx, project, userID, userMsg, tag, assistantID, false)
	if err != nil {
		return nil, err
	}
	// edits never earn pineapples, regardless of the new classification
	res.PineapplesEarned = 0
	return res, nil
}

// rollback undoes the recorded effect of one turn. For a true delete it also
// reverses the pineapple balance and removes the ledger rows; for an edit
// those are left alone. Returns the paired assistant message id, resolved
// from the rollback descriptor or, failing that, by the oldest assistant
// message after the user message's timestamp.
func (p *Processor) rollback(ctx context.Context, project *models.Project, userID int64, userMsg *models.Message, isEdit bool) (int64, error) {
	// full scan-and-filter over the pair's events; the descriptor is the only
	// link between a user message and what its turn changed
	events, err := p.repos.Activity.ListByProjectUser(ctx, userID, project.ID)
	if err != nil {
		return 0, fmt.Errorf("load activity events: %w", err)
	}

	var matched []int64
	var desc *models.RollbackDescriptor
	for _, e := range events {
		rb := e.Rollback()
		if rb == nil || rb.UserMessageID != userMsg.ID {
			continue
		}
		matched = append(matched, e.ID)
		if e.EventType == models.EventPrompt {
			desc = rb
		}
	}

	var assistantID int64
	if desc != nil {
		assistantID = desc.AssistantMessageID
	}
	if assistantID == 0 {
		// fallback pairing heuristic; can misattribute under interleaved turns
		if a, err := p.repos.Messages.FirstAssistantAfter(ctx, project.ID, userMsg.Created); err == nil && a != nil {
			assistantID = a.ID
		}
	}

	if !isEdit && assistantID != 0 {
		assistant, err := p.repos.Messages.GetMessage(ctx, assistantID)
		if err == nil && assistant != nil && assistant.PineapplesEarned > 0 {
			profile, err := p.repos.Profiles.GetByUserID(ctx, userID)
			if err == nil && profile != nil {
				newBalance := floorSub(profile.PineappleBalance, assistant.PineapplesEarned)
				if err := p.repos.Profiles.UpdateBalance(ctx, userID, newBalance); err != nil {
					p.logger.Warn("rollback balance update failed", slog.Any("err", err))
				}
			}
		}
	}

	if desc != nil && (desc.ProgressDelta > 0 || desc.ValuationLowDelta > 0 || desc.ValuationHighDelta > 0) {
		// best-effort inverse: subtract the recorded deltas from the *current*
		// state, floored at zero; concurrent turns since may make this lossy
		current, err := p.repos.Projects.GetProject(ctx, project.ID)
		if err != nil || current == nil {
			return 0, fmt.Errorf("reload project for rollback: %w", err)
		}
		if err := p.repos.Projects.UpdateProgress(ctx, current.ID,
			floorSub(current.ProgressScore, desc.ProgressDelta),
			floorSub(current.ValuationLow, desc.ValuationLowDelta),
			floorSub(current.ValuationHigh, desc.ValuationHighDelta),
		); err != nil {
			return 0, fmt.Errorf("reverse progress: %w", err)
		}
	}

	if !isEdit {
		// removes both the prompt and tag-bonus rows in one pattern delete
		if err := p.repos.Ledger.DeleteByKeyPrefix(ctx, userID, fmt.Sprintf("%d-", userMsg.ID)); err != nil {
			return 0, fmt.Errorf("delete ledger rows: %w", err)
		}
	}

	if len(matched) > 0 {
		if err := p.repos.Activity.DeleteEvents(ctx, matched...); err != nil {
			return 0, fmt.Errorf("delete activity events: %w", err)
		}
	}

	return assistantID, nil
}

func (p *Processor) ownedUserMessage(ctx context.Context, userID, userMessageID int64) (*models.Message, *models.Project, error) {
	userMsg, err := p.repos.Messages.GetMessage(ctx, userMessageID)
	if err != nil {
		return nil, nil, fmt.Errorf("load message: %w", err)
	}
	if userMsg == nil || userMsg.Role != models.RoleUser {
		return nil, nil, fmt.Errorf("%w: message %d", ErrNotFound, userMessageID)
	}

	project, err := p.ownedProject(ctx, userMsg.ProjectID, userID)
	if err != nil {
		return nil, nil, err
	}
	return userMsg, project, nil
}
