package turn

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/vamoapp/vamo/pkg/models"
)

func submitFeatureTurn(t *testing.T, env *testEnv) (userMsgID int64, res *SubmitResult) {
	t.Helper()
	signal := "Shipped the onboarding flow"
	env.stub.analysis = models.TurnAnalysis{
		Reply:  "Congrats on shipping!",
		Intent: models.IntentFeature,
		BusinessUpdate: models.BusinessUpdate{
			ProgressDelta:       3,
			TractionSignal:      &signal,
			ValuationAdjustment: models.ValuationUp,
		},
	}
	res, err := env.proc.Submit(context.Background(), env.projectID, env.userID, "We shipped onboarding", "feature")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return env.userMessageID(t), res
}

func TestDeleteReversesTurn(t *testing.T) {
	env := newTestEnv(t, testRewards())
	ctx := context.Background()

	userMsgID, res := submitFeatureTurn(t, env)

	if err := env.proc.Delete(ctx, env.userID, userMsgID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := env.balance(t); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}

	project := env.project(t)
	if project.ProgressScore != 10 {
		t.Errorf("progress = %d, want 10 (restored)", project.ProgressScore)
	}
	if project.ValuationLow != 0 || project.ValuationHigh != 0 {
		t.Errorf("valuation = (%d, %d), want (0, 0)", project.ValuationLow, project.ValuationHigh)
	}

	for _, key := range []string{fmt.Sprintf("%d-prompt", userMsgID), fmt.Sprintf("%d-tag-bonus", userMsgID)} {
		if entry, err := env.store.GetByKey(ctx, key); err != nil || entry != nil {
			t.Errorf("ledger entry %q still present (err=%v)", key, err)
		}
	}

	events, err := env.store.ListByProjectUser(ctx, env.userID, env.projectID)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	for _, ev := range events {
		if rb := ev.Rollback(); rb != nil && rb.UserMessageID == userMsgID {
			t.Errorf("event %d (%s) for the turn survived the delete", ev.ID, ev.EventType)
		}
	}

	for _, id := range []int64{userMsgID, res.AssistantMessage.ID} {
		if m, err := env.store.GetMessage(ctx, id); err != nil || m != nil {
			t.Errorf("message %d still present (err=%v)", id, err)
		}
	}
}

func TestDeleteTwiceIsNotFound(t *testing.T) {
	env := newTestEnv(t, testRewards())
	ctx := context.Background()

	userMsgID, _ := submitFeatureTurn(t, env)
	if err := env.proc.Delete(ctx, env.userID, userMsgID); err != nil {
		t.Fatalf("first Delete: %v", err)
	}
	if err := env.proc.Delete(ctx, env.userID, userMsgID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRequiresOwnershipAndUserRole(t *testing.T) {
	env := newTestEnv(t, testRewards())
	ctx := context.Background()

	userMsgID, res := submitFeatureTurn(t, env)

	otherID, err := env.store.CreateUser(ctx, &models.User{Name: "Other", Email: "other@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := env.proc.Delete(ctx, otherID, userMsgID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
	// assistant messages are not deletable turns
	if err := env.proc.Delete(ctx, env.userID, res.AssistantMessage.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("assistant delete err = %v, want ErrNotFound", err)
	}
}

func TestEditNeverRewards(t *testing.T) {
	env := newTestEnv(t, testRewards())
	ctx := context.Background()

	userMsgID, first := submitFeatureTurn(t, env)
	if env.balance(t) != 2 {
		t.Fatalf("setup: balance = %d, want 2", env.balance(t))
	}

	// the edit classifies as an even bigger win; it still earns nothing
	signal := "Landed two enterprise customers"
	env.stub.analysis = models.TurnAnalysis{
		Reply:  "Two customers, great!",
		Intent: models.IntentCustomer,
		BusinessUpdate: models.BusinessUpdate{
			ProgressDelta:       2,
			TractionSignal:      &signal,
			ValuationAdjustment: models.ValuationUp,
		},
	}

	res, err := env.proc.Edit(ctx, env.userID, userMsgID, "We landed two enterprise customers", "customer")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.PineapplesEarned != 0 {
		t.Errorf("edit earned = %d, want 0", res.PineapplesEarned)
	}
	if got := env.balance(t); got != 2 {
		t.Errorf("balance = %d, want 2 (unchanged by edit)", got)
	}

	// ledger rows from the original turn survive an edit
	if entry, err := env.store.GetByKey(ctx, fmt.Sprintf("%d-prompt", userMsgID)); err != nil || entry == nil {
		t.Errorf("prompt ledger entry removed by edit (err=%v)", err)
	}

	// progress rewound to 10 then re-applied: 10 + 2
	project := env.project(t)
	if project.ProgressScore != 12 {
		t.Errorf("progress = %d, want 12", project.ProgressScore)
	}

	// assistant message is rewritten in place, not duplicated
	if res.AssistantMessage.ID != first.AssistantMessage.ID {
		t.Errorf("assistant id changed on edit: %d -> %d", first.AssistantMessage.ID, res.AssistantMessage.ID)
	}
	if res.AssistantMessage.Content != "Two customers, great!" {
		t.Errorf("assistant content = %q", res.AssistantMessage.Content)
	}

	userMsg, err := env.store.GetMessage(ctx, userMsgID)
	if err != nil || userMsg == nil {
		t.Fatalf("reload user message: %v", err)
	}
	if userMsg.Content != "We landed two enterprise customers" || userMsg.Tag != "customer" {
		t.Errorf("user message not rewritten: %+v", userMsg)
	}
}

// A turn whose prompt event is missing still deletes cleanly: the assistant is
// paired by timestamp and the balance reversed from its recorded earnings.
func TestDeleteFallbackPairing(t *testing.T) {
	env := newTestEnv(t, testRewards())
	ctx := context.Background()

	userMsgID, err := env.store.CreateMessage(ctx, &models.Message{ProjectID: env.projectID, Role: models.RoleUser, Content: "shipped it"})
	if err != nil {
		t.Fatalf("create user message: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	assistantID, err := env.store.CreateMessage(ctx, &models.Message{ProjectID: env.projectID, Role: models.RoleAssistant, Content: "nice", PineapplesEarned: 2})
	if err != nil {
		t.Fatalf("create assistant message: %v", err)
	}
	if err := env.store.UpdateBalance(ctx, env.userID, 2); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	if err := env.proc.Delete(ctx, env.userID, userMsgID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if got := env.balance(t); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	for _, id := range []int64{userMsgID, assistantID} {
		if m, err := env.store.GetMessage(ctx, id); err != nil || m != nil {
			t.Errorf("message %d still present (err=%v)", id, err)
		}
	}
}

// Rollback floors at zero: if the balance was already spent below the turn's
// earnings, deleting the turn cannot drive it negative.
func TestDeleteFloorsBalance(t *testing.T) {
	env := newTestEnv(t, testRewards())
	ctx := context.Background()

	userMsgID, _ := submitFeatureTurn(t, env)
	if err := env.store.UpdateBalance(ctx, env.userID, 1); err != nil {
		t.Fatalf("spend balance: %v", err)
	}

	if err := env.proc.Delete(ctx, env.userID, userMsgID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := env.balance(t); got != 0 {
		t.Errorf("balance = %d, want 0 (floored)", got)
	}
}
