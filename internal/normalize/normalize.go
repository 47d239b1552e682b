// Package normalize cleans raw merchant strings so that receipt and bank
// descriptions of the same merchant compare equal. Cleanup runs as an ordered
// pipeline: payment-processor prefixes are stripped first, then legal-entity
// suffixes and store numbers, then a configurable canonicalization table maps
// known merchant variants to a single name.
package normalize

import (
	"regexp"
	"strings"
)

// Rule is a single regex substitution applied during cleanup. Rules run in
// order; later rules see the output of earlier ones.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// CanonicalRule maps any merchant string matching Pattern to a canonical
// merchant name. The table is data, not logic: callers extend it for their
// own merchants.
type CanonicalRule struct {
	Pattern   *regexp.Regexp
	Canonical string
}

// Normalizer applies the cleanup pipeline. The zero value is not usable;
// construct with NewNormalizer.
type Normalizer struct {
	cleanupRules   []Rule
	canonicalRules []CanonicalRule
}

var (
	// Point-of-sale processor prefixes (Toast, Square, PayPal) that banks
	// prepend to merchant names.
	posPrefixPattern = regexp.MustCompile(`^(TST\*\s*|SQ\s*\*\s*|PP\s*\*\s*|PAYPAL\s*\*\s*)`)

	// Legal-entity suffixes carry no matching signal.
	legalSuffixPattern = regexp.MustCompile(`\s+(LLC|INC|CORP|CO|LTD)\.?$`)

	// Trailing store numbers such as "#4521".
	storeNumberPattern = regexp.MustCompile(`\s*#\d+\s*$`)

	// Trailing location suffixes after a dash, e.g. "STARBUCKS - NASHVILLE".
	locationSuffixPattern = regexp.MustCompile(`\s+-\s+[A-Z ]+$`)

	whitespacePattern = regexp.MustCompile(`\s+`)
)

// defaultCleanupRules run before canonicalization, in order.
func defaultCleanupRules() []Rule {
	return []Rule{
		{Pattern: posPrefixPattern, Replacement: ""},
		{Pattern: legalSuffixPattern, Replacement: ""},
		{Pattern: storeNumberPattern, Replacement: ""},
		{Pattern: locationSuffixPattern, Replacement: ""},
	}
}

// DefaultCanonicalRules returns the built-in merchant canonicalization table.
// Patterns are matched against already-cleaned, uppercased text.
func DefaultCanonicalRules() []CanonicalRule {
	entries := []struct {
		pattern   string
		canonical string
	}{
		{`^WAL-?MART.*`, "WALMART"},
		{`^AMZN.*`, "AMAZON"},
		{`^AMAZON.*`, "AMAZON"},
		{`^TARGET\b.*`, "TARGET"},
		{`^COSTCO.*`, "COSTCO"},
		{`^WHOLEFDS.*`, "WHOLE FOODS"},
		{`^WHOLE FOODS.*`, "WHOLE FOODS"},
		{`^TRADER JOE.*`, "TRADER JOES"},
		{`^STARBUCKS.*`, "STARBUCKS"},
		{`^MCDONALD.*`, "MCDONALDS"},
		{`^CHICK-?FIL-?A.*`, "CHICK-FIL-A"},
		{`^UBER\s*EATS.*`, "UBER EATS"},
		{`^UBER(\s+TRIP)?$`, "UBER"},
		{`^LYFT.*`, "LYFT"},
		{`^DOORDASH.*`, "DOORDASH"},
		{`^NETFLIX.*`, "NETFLIX"},
		{`^SPOTIFY.*`, "SPOTIFY"},
		{`^HULU.*`, "HULU"},
		{`.*CLAUDE.*`, "CLAUDE.AI"},
		{`.*OPENAI.*`, "OPENAI"},
		{`^GOOGLE\s*\*?.*`, "GOOGLE"},
		{`^APPLE\.?COM.*`, "APPLE"},
		{`^CVS.*`, "CVS"},
		{`^WALGREENS.*`, "WALGREENS"},
		{`^KROGER.*`, "KROGER"},
		{`^SHELL\s*(OIL)?.*`, "SHELL"},
		{`^EXXON.*`, "EXXON"},
		{`^CHEVRON.*`, "CHEVRON"},
		{`^HOME\s*DEPOT.*`, "HOME DEPOT"},
		{`^LOWE'?S.*`, "LOWES"},
	}

	rules := make([]CanonicalRule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, CanonicalRule{
			Pattern:   regexp.MustCompile(e.pattern),
			Canonical: e.canonical,
		})
	}
	return rules
}

// NewNormalizer creates a Normalizer with the default cleanup rules and
// canonicalization table.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		cleanupRules:   defaultCleanupRules(),
		canonicalRules: DefaultCanonicalRules(),
	}
}

// NewNormalizerWithRules creates a Normalizer with the default cleanup rules
// and the given canonicalization table appended after the defaults.
func NewNormalizerWithRules(extra []CanonicalRule) *Normalizer {
	return &Normalizer{
		cleanupRules:   defaultCleanupRules(),
		canonicalRules: append(DefaultCanonicalRules(), extra...),
	}
}

// AddCanonicalRule appends a canonicalization entry. Rules added later are
// only consulted when no earlier rule matched.
func (n *Normalizer) AddCanonicalRule(pattern, canonical string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	n.canonicalRules = append(n.canonicalRules, CanonicalRule{Pattern: re, Canonical: canonical})
	return nil
}

// Normalize cleans a raw merchant string. Empty input returns the empty
// string; unknown merchants pass through cleaned but otherwise unchanged.
func (n *Normalizer) Normalize(raw string) string {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}

	for _, rule := range n.cleanupRules {
		cleaned = rule.Pattern.ReplaceAllString(cleaned, rule.Replacement)
		cleaned = strings.TrimSpace(cleaned)
	}

	for _, rule := range n.canonicalRules {
		if rule.Pattern.MatchString(cleaned) {
			cleaned = rule.Canonical
			break
		}
	}

	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
