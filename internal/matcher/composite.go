package matcher

import "fmt"

// ComponentScores holds the independent similarity signals for one
// receipt/transaction pair. Each value is bounded to [0,1] before weighting.
type ComponentScores struct {
	Fuzzy    float64
	Semantic float64
	Date     float64
	Amount   float64
}

// CompositeScore blends the component scores under the configured weights,
// applies the upstream OCR confidence boost, and produces human-readable
// reasoning for audit output.
//
// When no embedding backend is configured the semantic component carries the
// fuzzy score, so the fuzzy signal is counted under both weights. The weights
// are deliberately not renormalized in that case unless
// Config.RenormalizeWeights is set; the historical scoring behavior depends
// on the double count.
//
// The boost is upstreamConfidence*0.1, added after weighting. The total is
// clamped to [0,1].
func CompositeScore(scores ComponentScores, cfg *Config, upstreamConfidence float64) (float64, []string) {
	w := cfg.Weights
	if cfg.RenormalizeWeights {
		w = w.normalized()
	}

	total := clamp(scores.Fuzzy)*w.Fuzzy +
		clamp(scores.Semantic)*w.Semantic +
		clamp(scores.Date)*w.Date +
		clamp(scores.Amount)*w.Amount
	total += clamp(upstreamConfidence) * 0.1
	total = clamp(total)

	return total, buildReasoning(scores)
}

// buildReasoning emits one line per threshold the component scores cross.
// The lines feed match audit output and log lines; they carry no semantics
// beyond explanation.
func buildReasoning(scores ComponentScores) []string {
	var reasons []string

	if scores.Amount >= 1.0 {
		reasons = append(reasons, "Exact amount match")
	} else if scores.Amount >= 0.6 {
		reasons = append(reasons, fmt.Sprintf("Close amount match (%.2f)", scores.Amount))
	}

	if scores.Date >= 1.0 {
		reasons = append(reasons, "Same-day date match")
	} else if scores.Date >= 0.7 {
		reasons = append(reasons, fmt.Sprintf("Close date match (%.2f)", scores.Date))
	}

	if scores.Fuzzy > 0.8 {
		reasons = append(reasons, fmt.Sprintf("High fuzzy merchant match (%.2f)", scores.Fuzzy))
	}
	if scores.Semantic > 0.8 && scores.Semantic != scores.Fuzzy {
		reasons = append(reasons, fmt.Sprintf("Strong semantic similarity (%.2f)", scores.Semantic))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Low confidence match")
	}
	return reasons
}
