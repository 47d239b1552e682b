package matcher

import (
	"sort"
	"strings"
	"time"

	"receipt-reconciliation-service/internal/models"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

// ratio returns the Levenshtein similarity of two strings in [0,1].
func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}
	return set
}

func sortedJoin(set map[string]struct{}) string {
	tokens := make([]string, 0, len(set))
	for token := range set {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// MerchantScore computes a token-set fuzzy ratio between two normalized
// merchant strings. Token order is ignored: the shared tokens are compared
// against each side's full token set, so "STARBUCKS STORE" and "STORE
// STARBUCKS" score identically. Result is in [0,1].
func MerchantScore(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)

	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	setA := tokenSet(a)
	setB := tokenSet(b)

	intersection := make(map[string]struct{})
	onlyA := make(map[string]struct{})
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection[token] = struct{}{}
		} else {
			onlyA[token] = struct{}{}
		}
	}
	onlyB := make(map[string]struct{})
	for token := range setB {
		if _, ok := setA[token]; !ok {
			onlyB[token] = struct{}{}
		}
	}

	shared := sortedJoin(intersection)
	combinedA := strings.TrimSpace(shared + " " + sortedJoin(onlyA))
	combinedB := strings.TrimSpace(shared + " " + sortedJoin(onlyB))

	best := ratio(combinedA, combinedB)
	if shared != "" {
		if s := ratio(shared, combinedA); s > best {
			best = s
		}
		if s := ratio(shared, combinedB); s > best {
			best = s
		}
	}

	return clamp(best)
}

// DateScore computes a piecewise proximity score over the day distance
// between two dates:
//
//	0 days            -> 1.0
//	1 day             -> 0.9
//	2-3 days          -> 0.8
//	4..tolerance days -> 0.7 - (days/tolerance)*0.3
//	beyond tolerance  -> 0.0
//
// A missing date on either side scores a neutral 0.5 rather than 0.0 so
// that records with unparseable dates are not penalized too harshly.
func DateScore(a, b time.Time, toleranceDays int) float64 {
	if a.IsZero() || b.IsZero() {
		return 0.5
	}
	if toleranceDays <= 0 {
		toleranceDays = 1
	}

	days := models.DaysBetween(a, b)
	switch {
	case days == 0:
		return 1.0
	case days == 1:
		return 0.9
	case days <= 3:
		return 0.8
	case days <= toleranceDays:
		return clamp(0.7 - (float64(days)/float64(toleranceDays))*0.3)
	default:
		return 0.0
	}
}

// AmountScore computes a piecewise tolerance score over the difference
// between a receipt amount and a transaction amount. Differences within the
// absolute tolerance score highest; beyond it, percentage bands relative to
// the larger amount apply. Either amount being zero or negative (missing or
// unparseable upstream) scores a flat 0.3.
func AmountScore(receiptAmount, transactionAmount decimal.Decimal, absoluteTolerance, percentTolerance float64) float64 {
	if receiptAmount.LessThanOrEqual(decimal.Zero) || transactionAmount.LessThanOrEqual(decimal.Zero) {
		return 0.3
	}

	if receiptAmount.Equal(transactionAmount) {
		return 1.0
	}

	diff := receiptAmount.Sub(transactionAmount).Abs().InexactFloat64()

	larger := receiptAmount
	if transactionAmount.GreaterThan(larger) {
		larger = transactionAmount
	}
	pctDiff := diff / larger.InexactFloat64()

	switch {
	case absoluteTolerance > 0 && diff <= absoluteTolerance:
		// Linear band from 0.95 down to 0.75 across the absolute
		// tolerance window.
		return clamp(0.95 - (diff/absoluteTolerance)*0.20)
	case percentTolerance > 0 && pctDiff <= percentTolerance:
		return clamp(0.9 - (pctDiff/percentTolerance)*0.30)
	case pctDiff <= 0.10:
		// Interpolate from the configured tolerance boundary so the
		// score keeps decaying monotonically as the difference grows.
		bandStart := percentTolerance
		if bandStart <= 0 || bandStart >= 0.10 {
			bandStart = 0.05
		}
		return clamp(0.6 - ((pctDiff-bandStart)/(0.10-bandStart))*0.20)
	case pctDiff <= 0.20:
		return clamp(0.4 - ((pctDiff-0.10)/0.10)*0.20)
	default:
		return 0.0
	}
}

func clamp(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
