package ai

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/pkg/models"
	"github.com/vamoapp/vamo/pkg/ollama"
)

// Generator is the outbound contract to the structured-text generation
// service. pkg/ollama.Client satisfies it; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// fallbackReply is returned when the generation call itself fails. The turn
// still completes; the user message is never lost to an adapter outage.
const fallbackReply = "Thanks for the update! I've logged it. Keep the momentum going."

const classifyTemplate = `You are Vamo, an upbeat startup coach. A founder is logging progress on their project.

Project: {{.Name}}
Description: {{.Description}}
Current progress score: {{.Progress}}/100

Recent conversation:
{{range .History}}{{.Role}}: {{.Content}}
{{end}}
The founder just said: {{.Text}}

Respond with a single JSON object, no other text:
{"reply": "<your encouraging reply>", "intent": "<one of: feature, customer, revenue, ask, general>", "business_update": {"progress_delta": <integer 0-5>, "traction_signal": <short string describing concrete progress, or null>, "valuation_adjustment": "<one of: up, down, none>"}}`

// Classifier turns a free-text founder update into an intent label and a
// bounded business delta.
type Classifier struct {
	client Generator
	cfg    config.EngineConfig
	logger *slog.Logger
}

func NewClassifier(client Generator, cfg config.EngineConfig, logger *slog.Logger) *Classifier {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Classifier{client: client, cfg: cfg, logger: logger}
}

// Classify builds the turn prompt and asks the model for a structured
// analysis. It never fails the turn: transport errors yield a static fallback
// reply and parse failures degrade to using the raw text as the reply, both
// with a zero business update.
func (c *Classifier) Classify(ctx context.Context, project *models.Project, history []models.Message, text string) *models.TurnAnalysis {
	if len(history) > c.cfg.HistoryLimit {
		history = history[len(history)-c.cfg.HistoryLimit:]
	}

	data := map[string]any{
		"Name":        project.Name,
		"Description": project.Description,
		"Progress":    project.ProgressScore,
		"History":     history,
		"Text":        text,
	}
	prompt, err := ollama.RenderTemplate(classifyTemplate, data)
	if err != nil {
		c.logger.Error("classify: render template", slog.Any("err", err))
		return fallbackAnalysis(fallbackReply)
	}

	ctxReq, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	out, err := c.client.Generate(ctxReq, c.cfg.Model, prompt)
	if err != nil {
		c.logger.Warn("classify: generation failed, using fallback reply", slog.Any("err", err))
		return fallbackAnalysis(fallbackReply)
	}

	analysis, perr := ParseTurnAnalysis(out)
	if perr != nil {
		// salvage the raw text as the reply; zero business impact
		c.logger.Warn("classify: unparseable model output", slog.Any("err", perr))
		a := fallbackAnalysis(strings.TrimSpace(stripCodeFences(out)))
		if a.Reply == "" {
			a.Reply = fallbackReply
		}
		a.Raw = out
		return a
	}

	analysis.Raw = out
	return analysis
}

func fallbackAnalysis(reply string) *models.TurnAnalysis {
	return &models.TurnAnalysis{
		Reply:  reply,
		Intent: models.IntentGeneral,
		BusinessUpdate: models.BusinessUpdate{
			ProgressDelta:       0,
			TractionSignal:      nil,
			ValuationAdjustment: models.ValuationNone,
		},
	}
}
