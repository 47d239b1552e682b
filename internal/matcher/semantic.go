package matcher

// SemanticScorer computes a semantic similarity between two merchant or
// context strings, in [0,1]. Real implementations wrap a sentence-embedding
// backend whose vectors are computed outside the matching pass; the engine
// itself never performs I/O.
//
// The backend is optional by design. When none is configured the engine uses
// FuzzyFallback, which simply mirrors the token-set fuzzy score, and the
// composite scorer cannot tell the difference. Absence of an embedding
// backend is a silent degradation, never an error.
type SemanticScorer interface {
	Similarity(a, b string) float64
}

// FuzzyFallback is the default SemanticScorer used when no embedding backend
// is available. It returns the token-set fuzzy ratio, which means the fuzzy
// signal is counted under both the fuzzy and semantic weights unless
// Config.RenormalizeWeights is set.
type FuzzyFallback struct{}

// Similarity returns the token-set fuzzy ratio of the two strings.
func (FuzzyFallback) Similarity(a, b string) float64 {
	return MerchantScore(a, b)
}

// StaticScorer returns a fixed similarity for any input pair. Used in tests
// to stand in for an embedding backend.
type StaticScorer struct {
	Score float64
}

// Similarity returns the configured score.
func (s StaticScorer) Similarity(a, b string) float64 {
	return clamp(s.Score)
}
