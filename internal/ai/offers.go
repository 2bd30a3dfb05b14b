package ai

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/qri-io/jsonschema"
	"github.com/vamoapp/vamo/internal/config"
	"github.com/vamoapp/vamo/pkg/ollama"
)

// offerSchemaJSON constrains the model's offer output. Anything that fails
// validation falls back to the deterministic formula.
const offerSchemaJSON = `{
	"type": "object",
	"required": ["offer_low", "offer_high", "reasoning", "signals_used"],
	"properties": {
		"offer_low": {"type": "integer", "minimum": 0},
		"offer_high": {"type": "integer", "minimum": 0},
		"reasoning": {"type": "string", "minLength": 1},
		"signals_used": {"type": "array", "items": {"type": "string"}}
	}
}`

const offerTemplate = `You are Vamo's valuation engine. Produce an acquisition offer range (in USD) for this startup project.

Project: {{.Name}}
Progress score: {{.Progress}}/100
Messages logged: {{.MessageCount}}
Traction signals recorded: {{.TractionCount}}
Linked assets: {{.LinkCount}}
Recent activity:
{{range .RecentEvents}}- {{.}}
{{end}}
Respond with a single JSON object, no other text:
{"offer_low": <integer>, "offer_high": <integer>, "reasoning": "<one paragraph>", "signals_used": ["<signal>", ...]}`

// OfferSummary aggregates the project stats handed to the model.
type OfferSummary struct {
	Name          string
	Progress      int64
	MessageCount  int64
	TractionCount int64
	LinkCount     int64
	RecentEvents  []string
}

// OfferProposal is the validated (or fallback) offer range.
type OfferProposal struct {
	OfferLow    int64    `json:"offer_low"`
	OfferHigh   int64    `json:"offer_high"`
	Reasoning   string   `json:"reasoning"`
	SignalsUsed []string `json:"signals_used"`

	// Fallback reports whether the deterministic formula was used because the
	// model output failed parsing or schema validation.
	Fallback bool `json:"-"`
}

// OfferAdvisor asks the generation service for a valuation offer constrained
// to a JSON schema, falling back to a deterministic formula on any failure.
type OfferAdvisor struct {
	client Generator
	cfg    config.EngineConfig
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewOfferAdvisor(client Generator, cfg config.EngineConfig, logger *slog.Logger) (*OfferAdvisor, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(offerSchemaJSON), rs); err != nil {
		return nil, err
	}

	return &OfferAdvisor{client: client, cfg: cfg, schema: rs, logger: logger}, nil
}

// Propose returns an offer for the summarized project. The model path can
// fail in several ways (transport, parse, schema, inverted range); every one
// of them degrades to the formula rather than an error.
func (a *OfferAdvisor) Propose(ctx context.Context, summary OfferSummary) *OfferProposal {
	prompt, err := ollama.RenderTemplate(offerTemplate, map[string]any{
		"Name":          summary.Name,
		"Progress":      summary.Progress,
		"MessageCount":  summary.MessageCount,
		"TractionCount": summary.TractionCount,
		"LinkCount":     summary.LinkCount,
		"RecentEvents":  summary.RecentEvents,
	})
	if err != nil {
		a.logger.Error("offer: render template", slog.Any("err", err))
		return a.fallback(summary)
	}

	ctxReq, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	out, err := a.client.Generate(ctxReq, a.cfg.Model, prompt)
	if err != nil {
		a.logger.Warn("offer: generation failed", slog.Any("err", err))
		return a.fallback(summary)
	}

	j := extractJSON(stripCodeFences(out))
	if j == "" {
		a.logger.Warn("offer: no JSON object in model output")
		return a.fallback(summary)
	}

	verrs, err := a.schema.ValidateBytes(ctxReq, []byte(j))
	if err != nil || len(verrs) > 0 {
		a.logger.Warn("offer: schema validation failed", slog.Any("err", err), slog.Int("violations", len(verrs)))
		return a.fallback(summary)
	}

	var p OfferProposal
	if err := json.Unmarshal([]byte(j), &p); err != nil {
		a.logger.Warn("offer: unmarshal failed", slog.Any("err", err))
		return a.fallback(summary)
	}
	if p.OfferLow > p.OfferHigh {
		a.logger.Warn("offer: inverted range from model", slog.Int64("low", p.OfferLow), slog.Int64("high", p.OfferHigh))
		return a.fallback(summary)
	}
	if p.SignalsUsed == nil {
		p.SignalsUsed = []string{}
	}

	return &p
}

// fallback computes the deterministic offer range from progress alone.
func (a *OfferAdvisor) fallback(summary OfferSummary) *OfferProposal {
	low := summary.Progress * 50
	if low < 500 {
		low = 500
	}
	high := summary.Progress * 150
	if high < 1000 {
		high = 1000
	}
	return &OfferProposal{
		OfferLow:    low,
		OfferHigh:   high,
		Reasoning:   "Estimated from logged progress using the standard valuation curve.",
		SignalsUsed: []string{"progress_score"},
		Fallback:    true,
	}
}
