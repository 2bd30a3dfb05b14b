package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/pkg/models"
)

type stubGenerator struct {
	out string
	err error
}

func (s *stubGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	return s.out, s.err
}

func TestClassify_TransportFailureFallsBack(t *testing.T) {
	c := NewClassifier(&stubGenerator{err: errors.New("connection refused")}, config.EngineConfig{Model: "m"}, nil)

	a := c.Classify(context.Background(), &models.Project{Name: "p"}, nil, "shipped a thing")
	if a == nil {
		t.Fatalf("expected analysis, got nil")
	}
	if a.Reply != fallbackReply {
		t.Fatalf("expected static fallback reply, got %q", a.Reply)
	}
	if a.Intent != models.IntentGeneral || a.BusinessUpdate.ProgressDelta != 0 {
		t.Fatalf("expected zero business update, got %+v", a)
	}
}

func TestClassify_UnparseableOutputSalvagesText(t *testing.T) {
	c := NewClassifier(&stubGenerator{out: "Sure! ```json {not valid}```"}, config.EngineConfig{Model: "m"}, nil)

	a := c.Classify(context.Background(), &models.Project{Name: "p"}, nil, "hello")
	if a.Intent != models.IntentGeneral {
		t.Fatalf("expected general intent, got %q", a.Intent)
	}
	if a.BusinessUpdate.ProgressDelta != 0 || a.BusinessUpdate.ValuationAdjustment != models.ValuationNone {
		t.Fatalf("expected zero business update, got %+v", a.BusinessUpdate)
	}
	if a.Reply == "" {
		t.Fatalf("expected a non-empty salvaged reply")
	}
}

func TestClassify_GoodOutput(t *testing.T) {
	out := `{"reply":"Great progress!","intent":"feature","business_update":{"progress_delta":3,"traction_signal":"Shipped signup page","valuation_adjustment":"none"}}`
	c := NewClassifier(&stubGenerator{out: out}, config.EngineConfig{Model: "m"}, nil)

	a := c.Classify(context.Background(), &models.Project{Name: "p", ProgressScore: 10}, []models.Message{
		{Role: models.RoleUser, Content: "earlier update"},
	}, "I shipped a signup page")
	if a.Intent != models.IntentFeature || a.BusinessUpdate.ProgressDelta != 3 {
		t.Fatalf("unexpected analysis: %+v", a)
	}
	if a.Raw == "" {
		t.Fatalf("expected raw output preserved")
	}
}
