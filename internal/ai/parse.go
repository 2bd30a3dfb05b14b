package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/vamoapp/vamo/pkg/models"
)

// ParseTurnAnalysis defensively extracts a TurnAnalysis from arbitrary model
// output: markdown code fences are stripped, then the first balanced JSON
// object is located and unmarshalled. Numeric output is never trusted as-is;
// the progress delta is re-clamped to [0,5] and enum fields are normalized.
func ParseTurnAnalysis(s string) (*models.TurnAnalysis, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("empty response")
	}

	j := extractJSON(stripCodeFences(s))
	if j == "" {
		return nil, errors.New("no JSON object found in response")
	}

	var a models.TurnAnalysis
	if err := json.Unmarshal([]byte(j), &a); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.Reply) == "" {
		return nil, errors.New("response missing reply")
	}

	a.Intent = normalizeIntent(a.Intent)
	a.BusinessUpdate.ProgressDelta = clamp(a.BusinessUpdate.ProgressDelta, 0, 5)
	a.BusinessUpdate.ValuationAdjustment = normalizeValuation(a.BusinessUpdate.ValuationAdjustment)
	if a.BusinessUpdate.TractionSignal != nil && strings.TrimSpace(*a.BusinessUpdate.TractionSignal) == "" {
		a.BusinessUpdate.TractionSignal = nil
	}

	return &a, nil
}

// stripCodeFences removes markdown fences like ```json ... ``` around model output.
func stripCodeFences(s string) string {
	out := strings.TrimSpace(s)
	if !strings.Contains(out, "```") {
		return out
	}
	out = strings.ReplaceAll(out, "```json", "```")
	if i := strings.Index(out, "```"); i != -1 {
		if j := strings.Index(out[i+3:], "```"); j != -1 {
			inner := strings.TrimSpace(out[i+3 : i+3+j])
			if inner != "" {
				return inner
			}
		}
	}
	return strings.ReplaceAll(out, "```", "")
}

// extractJSON returns the first balanced JSON object in the input, tracking
// brace depth outside of string literals.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func normalizeIntent(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.IntentFeature:
		return models.IntentFeature
	case models.IntentCustomer:
		return models.IntentCustomer
	case models.IntentRevenue:
		return models.IntentRevenue
	case models.IntentAsk:
		return models.IntentAsk
	default:
		return models.IntentGeneral
	}
}

func normalizeValuation(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case models.ValuationUp:
		return models.ValuationUp
	case models.ValuationDown:
		return models.ValuationDown
	default:
		return models.ValuationNone
	}
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
