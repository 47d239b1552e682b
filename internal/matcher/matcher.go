package matcher

import (
	"fmt"
	"strings"

	"receipt-reconciliation-service/internal/models"
	"receipt-reconciliation-service/internal/normalize"
)

// Engine matches receipts to transactions using composite similarity
// scoring with greedy selection. Engines are safe for concurrent use as
// long as the configuration and normalizer are not mutated after
// construction; each Match call keeps its claimed-transaction state local.
type Engine struct {
	config     *Config
	normalizer *normalize.Normalizer
	semantic   SemanticScorer
}

// NewEngine creates a matching engine with the default merchant normalizer
// and the fuzzy fallback in place of a semantic backend.
func NewEngine(config *Config) (*Engine, error) {
	return NewEngineWithSemantic(config, FuzzyFallback{})
}

// NewEngineWithSemantic creates a matching engine with an explicit semantic
// scorer, typically a precomputed-embedding backend.
func NewEngineWithSemantic(config *Config, semantic SemanticScorer) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher configuration: %w", err)
	}
	if semantic == nil {
		semantic = FuzzyFallback{}
	}

	return &Engine{
		config:     config.Clone(),
		normalizer: normalize.NewNormalizer(),
		semantic:   semantic,
	}, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// candidate is the ephemeral scoring record for one receipt/transaction
// pair. It lives only for the duration of one receipt's evaluation.
type candidate struct {
	transaction *models.Transaction
	scores      ComponentScores
	total       float64
	reasoning   []string
}

// Outcome is the result of one matching pass.
type Outcome struct {
	Results               []*models.MatchResult
	UnmatchedReceipts     []*models.Receipt
	UnmatchedTransactions []*models.Transaction
}

// MatchedCount returns the number of accepted matches.
func (o *Outcome) MatchedCount() int {
	return len(o.Results)
}

// MatchRate returns the fraction of receipts that found a transaction.
func (o *Outcome) MatchRate() float64 {
	total := len(o.Results) + len(o.UnmatchedReceipts)
	if total == 0 {
		return 0.0
	}
	return float64(len(o.Results)) / float64(total)
}

// Match pairs receipts with transactions. Receipts are processed in input
// order; each claims its highest-scoring unclaimed transaction, provided the
// composite score clears the configured confidence floor. Ties break toward
// the earlier transaction because selection uses a strict greater-than
// comparison during the scan. Receipts with no acceptable candidate are
// skipped without error.
//
// A transaction claimed by one receipt is never offered to a later receipt,
// even when it would score higher there. The greedy pass trades global
// optimality for predictability.
func (e *Engine) Match(receipts []*models.Receipt, transactions []*models.Transaction) *Outcome {
	outcome := &Outcome{}
	claimed := make(map[string]bool, len(transactions))

	normalizedTxn := make([]string, len(transactions))
	for i, txn := range transactions {
		normalizedTxn[i] = e.normalizer.Normalize(txn.Merchant)
	}

	for _, receipt := range receipts {
		normalizedMerchant := e.normalizer.Normalize(receipt.Merchant)

		var best *candidate
		for i, txn := range transactions {
			if claimed[txn.ID] {
				continue
			}

			cand := e.scorePair(receipt, normalizedMerchant, txn, normalizedTxn[i])
			if cand.total < e.config.MinConfidence {
				continue
			}
			if best == nil || cand.total > best.total {
				best = cand
			}
		}

		if best == nil {
			outcome.UnmatchedReceipts = append(outcome.UnmatchedReceipts, receipt)
			continue
		}

		claimed[best.transaction.ID] = true
		outcome.Results = append(outcome.Results, &models.MatchResult{
			ReceiptID:     receipt.ID,
			TransactionID: best.transaction.ID,
			Confidence:    best.total,
			MatchType:     models.ClassifyMatch(best.total),
			Reasoning:     strings.Join(best.reasoning, "; "),
			ScoreBreakdown: map[string]float64{
				"fuzzy":    best.scores.Fuzzy,
				"semantic": best.scores.Semantic,
				"date":     best.scores.Date,
				"amount":   best.scores.Amount,
			},
		})
	}

	for _, txn := range transactions {
		if !claimed[txn.ID] {
			outcome.UnmatchedTransactions = append(outcome.UnmatchedTransactions, txn)
		}
	}

	return outcome
}

// Score computes the composite score and reasoning for a single
// receipt/transaction pair without claiming anything. Useful for inspection
// and for ranking candidates outside a full matching pass.
func (e *Engine) Score(receipt *models.Receipt, txn *models.Transaction) (float64, []string) {
	cand := e.scorePair(
		receipt, e.normalizer.Normalize(receipt.Merchant),
		txn, e.normalizer.Normalize(txn.Merchant),
	)
	return cand.total, cand.reasoning
}

func (e *Engine) scorePair(receipt *models.Receipt, normalizedMerchant string, txn *models.Transaction, normalizedTxn string) *candidate {
	scores := ComponentScores{
		Fuzzy:    MerchantScore(normalizedMerchant, normalizedTxn),
		Semantic: e.semantic.Similarity(normalizedMerchant, normalizedTxn),
		Date:     DateScore(receipt.Date, txn.Date, e.config.DateToleranceDays),
		Amount:   AmountScore(receipt.Amount, txn.Amount, e.config.AmountToleranceAbsolute, e.config.AmountTolerancePercent),
	}

	total, reasoning := CompositeScore(scores, e.config, receipt.Confidence)
	return &candidate{
		transaction: txn,
		scores:      scores,
		total:       total,
		reasoning:   reasoning,
	}
}
