// Package matcher implements the receipt-to-transaction matching engine.
//
// Matching runs in three stages:
//  1. Component scoring: merchant similarity (token-set fuzzy ratio,
//     optionally blended with a semantic backend), date proximity, and
//     amount tolerance, each independently bounded to [0,1].
//  2. Composite scoring: a weighted linear combination of the component
//     scores plus a small boost from the upstream extraction confidence.
//  3. Greedy selection: receipts claim their best-scoring transaction in
//     input order; each transaction is claimed at most once.
//
// The greedy pass is deliberately O(receipts x transactions) and not a
// globally optimal assignment: an early receipt can claim a transaction that
// would score higher for a later receipt. Data volumes are hundreds of
// records, not millions.
//
// Example usage:
//
//	config := matcher.DefaultConfig()
//	config.DateToleranceDays = 5
//
//	engine := matcher.NewEngine(config)
//	outcome := engine.Match(receipts, transactions)
package matcher

import (
	"fmt"
)

// Weights defines the relative importance of each component score. Fuzzy and
// semantic weights are applied separately even when the semantic backend is
// absent and the fuzzy score fills both slots; see Config.RenormalizeWeights.
type Weights struct {
	Fuzzy    float64 `json:"fuzzy_weight"`
	Semantic float64 `json:"semantic_weight"`
	Date     float64 `json:"date_weight"`
	Amount   float64 `json:"amount_weight"`
}

// Config holds the tunable parameters for matching. Use the factory
// functions for common profiles:
//   - DefaultConfig(): balanced matching for most runs
//   - StrictConfig(): tight tolerances, fewer false positives
//   - RelaxedConfig(): loose tolerances for exploratory runs
type Config struct {
	// DateToleranceDays is the maximum day distance that still contributes
	// a nonzero date score.
	DateToleranceDays int `json:"date_tolerance_days"`

	// AmountToleranceAbsolute is the absolute difference (in currency
	// units) treated as a near match.
	AmountToleranceAbsolute float64 `json:"amount_tolerance_absolute"`

	// AmountTolerancePercent is the relative difference (0.0 to 1.0)
	// treated as a close match once the absolute band is exceeded.
	AmountTolerancePercent float64 `json:"amount_tolerance_percent"`

	// MinConfidence is the composite score floor below which no match is
	// emitted.
	MinConfidence float64 `json:"min_confidence_threshold"`

	// Weights for the component scores.
	Weights Weights `json:"weights"`

	// RenormalizeWeights rescales the weights to sum to 1.0 when the
	// semantic backend is unavailable and the fuzzy score fills the
	// semantic slot. Off by default: the historical behavior double-counts
	// the fuzzy score, and consumers opt into the corrected scheme
	// explicitly.
	RenormalizeWeights bool `json:"renormalize_weights"`
}

// DefaultConfig returns the configuration used for normal reconciliation
// runs.
func DefaultConfig() *Config {
	return &Config{
		DateToleranceDays:       7,
		AmountToleranceAbsolute: 2.00,
		AmountTolerancePercent:  0.05,
		MinConfidence:           0.70,
		Weights: Weights{
			Fuzzy:    0.30,
			Semantic: 0.40,
			Date:     0.15,
			Amount:   0.15,
		},
		RenormalizeWeights: false,
	}
}

// StrictConfig returns a configuration with tight tolerances.
func StrictConfig() *Config {
	return &Config{
		DateToleranceDays:       3,
		AmountToleranceAbsolute: 0.50,
		AmountTolerancePercent:  0.02,
		MinConfidence:           0.85,
		Weights: Weights{
			Fuzzy:    0.30,
			Semantic: 0.40,
			Date:     0.15,
			Amount:   0.15,
		},
		RenormalizeWeights: false,
	}
}

// RelaxedConfig returns a configuration with loose tolerances for
// exploratory matching.
func RelaxedConfig() *Config {
	return &Config{
		DateToleranceDays:       14,
		AmountToleranceAbsolute: 5.00,
		AmountTolerancePercent:  0.10,
		MinConfidence:           0.65,
		Weights: Weights{
			Fuzzy:    0.30,
			Semantic: 0.40,
			Date:     0.15,
			Amount:   0.15,
		},
		RenormalizeWeights: false,
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.DateToleranceDays < 0 {
		return fmt.Errorf("date tolerance days cannot be negative: %d", c.DateToleranceDays)
	}

	if c.AmountToleranceAbsolute < 0.0 {
		return fmt.Errorf("absolute amount tolerance cannot be negative: %f", c.AmountToleranceAbsolute)
	}

	if c.AmountTolerancePercent < 0.0 || c.AmountTolerancePercent > 1.0 {
		return fmt.Errorf("amount tolerance percent must be between 0.0 and 1.0: %f", c.AmountTolerancePercent)
	}

	if c.MinConfidence < 0.0 || c.MinConfidence > 1.0 {
		return fmt.Errorf("minimum confidence must be between 0.0 and 1.0: %f", c.MinConfidence)
	}

	return c.Weights.Validate()
}

// Validate checks that individual weights are in range. The sum is only
// required to be approximately 1.0 in the semantic-available case; the
// fallback path intentionally reuses the fuzzy score under the semantic
// weight without renormalizing.
func (w *Weights) Validate() error {
	for name, value := range map[string]float64{
		"fuzzy":    w.Fuzzy,
		"semantic": w.Semantic,
		"date":     w.Date,
		"amount":   w.Amount,
	} {
		if value < 0.0 || value > 1.0 {
			return fmt.Errorf("%s weight must be between 0.0 and 1.0: %f", name, value)
		}
	}

	total := w.Fuzzy + w.Semantic + w.Date + w.Amount
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// normalized returns a copy of the weights rescaled to sum to 1.0. Used only
// when Config.RenormalizeWeights is set.
func (w Weights) normalized() Weights {
	total := w.Fuzzy + w.Semantic + w.Date + w.Amount
	if total <= 0 {
		return w
	}
	return Weights{
		Fuzzy:    w.Fuzzy / total,
		Semantic: w.Semantic / total,
		Date:     w.Date / total,
		Amount:   w.Amount / total,
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DateTolerance: %d days, AmountTolerance: $%.2f/%.1f%%, MinConfidence: %.2f}",
		c.DateToleranceDays, c.AmountToleranceAbsolute, c.AmountTolerancePercent*100, c.MinConfidence)
}
