// Package config translates CLI flags into component configurations.
package config

import (
	"fmt"

	"receipt-reconciliation-service/internal/matcher"
	"receipt-reconciliation-service/internal/reporter"
)

// MatcherOverrides holds flag values that override the selected profile.
// Zero values mean "keep the profile's setting".
type MatcherOverrides struct {
	DateToleranceDays       int
	AmountToleranceAbsolute float64
	AmountTolerancePercent  float64
	MinConfidence           float64
	RenormalizeWeights      bool
}

// CreateMatcherConfig builds a matcher configuration from a named profile
// plus per-flag overrides.
func CreateMatcherConfig(profile string, overrides MatcherOverrides) (*matcher.Config, error) {
	var cfg *matcher.Config
	switch profile {
	case "", "default":
		cfg = matcher.DefaultConfig()
	case "strict":
		cfg = matcher.StrictConfig()
	case "relaxed":
		cfg = matcher.RelaxedConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile: %s (supported: default, strict, relaxed)", profile)
	}

	if overrides.DateToleranceDays > 0 {
		cfg.DateToleranceDays = overrides.DateToleranceDays
	}
	if overrides.AmountToleranceAbsolute > 0 {
		cfg.AmountToleranceAbsolute = overrides.AmountToleranceAbsolute
	}
	if overrides.AmountTolerancePercent > 0 {
		cfg.AmountTolerancePercent = overrides.AmountTolerancePercent
	}
	if overrides.MinConfidence > 0 {
		cfg.MinConfidence = overrides.MinConfidence
	}
	cfg.RenormalizeWeights = overrides.RenormalizeWeights

	return cfg, nil
}

// CreateReportConfig builds a reporter configuration for the requested
// output format.
func CreateReportConfig(format string, includeBreakdown bool) *reporter.Config {
	cfg := reporter.DefaultConfig()
	cfg.Format = reporter.OutputFormat(format)
	cfg.IncludeScoreBreakdown = includeBreakdown
	return cfg
}
