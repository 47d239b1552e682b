// Package reconciler coordinates the reconciliation workflow: loading
// receipt and transaction files, running the matching engine, scoring
// unmatched transactions for subscription likelihood, and compiling a
// summary for reporting.
//
// Example usage:
//
//	service, err := reconciler.NewService(matcher.DefaultConfig())
//	result, err := service.Run(ctx, &reconciler.Request{
//		ReceiptFile:     "receipts.csv",
//		TransactionFile: "transactions.csv",
//	})
package reconciler

import (
	"context"
	"time"

	"receipt-reconciliation-service/internal/history"
	"receipt-reconciliation-service/internal/matcher"
	"receipt-reconciliation-service/internal/models"
	"receipt-reconciliation-service/internal/parsers"
	"receipt-reconciliation-service/internal/subscription"
	"receipt-reconciliation-service/pkg/errors"
	"receipt-reconciliation-service/pkg/logger"
)

// Service runs complete reconciliation passes. It owns the parsers, the
// matching engine, and the subscription detector; callers supply file paths
// or pre-loaded records per run.
type Service struct {
	receiptParser     *parsers.ReceiptParser
	transactionParser *parsers.TransactionParser
	engine            *matcher.Engine
	logger            logger.Logger
}

// Request identifies the inputs for one reconciliation run. Either the file
// paths or the pre-loaded slices may be supplied; loaded slices take
// precedence over paths.
type Request struct {
	ReceiptFile     string
	TransactionFile string

	Receipts     []*models.Receipt
	Transactions []*models.Transaction

	// DetectSubscriptions enables subscription scoring over unmatched
	// transactions.
	DetectSubscriptions bool
}

// Validate checks that the request names at least one input per side.
func (r *Request) Validate() error {
	if r.ReceiptFile == "" && len(r.Receipts) == 0 {
		return errors.New(errors.CategoryValidation, errors.CodeMissingField,
			"no receipt input provided")
	}
	if r.TransactionFile == "" && len(r.Transactions) == 0 {
		return errors.New(errors.CategoryValidation, errors.CodeMissingField,
			"no transaction input provided")
	}
	return nil
}

// SubscriptionCandidate pairs an unmatched transaction with its subscription
// probability. Only candidates scoring at least 0.5 are reported.
type SubscriptionCandidate struct {
	Transaction *models.Transaction `json:"transaction"`
	Probability float64             `json:"probability"`
}

// Summary aggregates counts and rates for one reconciliation run.
type Summary struct {
	TotalReceipts         int     `json:"total_receipts"`
	TotalTransactions     int     `json:"total_transactions"`
	MatchedCount          int     `json:"matched_count"`
	UnmatchedReceipts     int     `json:"unmatched_receipts"`
	UnmatchedTransactions int     `json:"unmatched_transactions"`
	MatchRate             float64 `json:"match_rate"`
	HighConfidenceCount   int     `json:"high_confidence_count"`
	GoodMatchCount        int     `json:"good_match_count"`
	PossibleMatchCount    int     `json:"possible_match_count"`
}

// Result is the complete output of one reconciliation run.
type Result struct {
	Matches               []*models.MatchResult   `json:"matches"`
	UnmatchedReceipts     []*models.Receipt       `json:"unmatched_receipts"`
	UnmatchedTransactions []*models.Transaction   `json:"unmatched_transactions"`
	Subscriptions         []SubscriptionCandidate `json:"subscriptions,omitempty"`
	Summary               *Summary                `json:"summary"`

	ReceiptStats     *parsers.ParseStats `json:"-"`
	TransactionStats *parsers.ParseStats `json:"-"`
	Duration         time.Duration       `json:"-"`
}

// NewService creates a reconciliation service with default parsers and a
// matching engine built from the given configuration. A nil configuration
// uses matcher.DefaultConfig.
func NewService(config *matcher.Config) (*Service, error) {
	engine, err := matcher.NewEngine(config)
	if err != nil {
		return nil, err
	}

	return &Service{
		receiptParser:     parsers.NewReceiptParser(nil),
		transactionParser: parsers.NewTransactionParser(nil),
		engine:            engine,
		logger:            logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Run executes one reconciliation pass. Parse-level row failures are
// tolerated and surfaced in the result's stats; only unreadable files or an
// invalid request abort the run.
func (s *Service) Run(ctx context.Context, request *Request) (*Result, error) {
	start := time.Now()

	if err := request.Validate(); err != nil {
		return nil, err
	}

	receipts, receiptStats, err := s.loadReceipts(ctx, request)
	if err != nil {
		return nil, err
	}
	transactions, transactionStats, err := s.loadTransactions(ctx, request)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logger.Fields{
		"receipts":     len(receipts),
		"transactions": len(transactions),
	}).Info("Starting reconciliation")

	outcome := s.engine.Match(receipts, transactions)

	result := &Result{
		Matches:               outcome.Results,
		UnmatchedReceipts:     outcome.UnmatchedReceipts,
		UnmatchedTransactions: outcome.UnmatchedTransactions,
		Summary:               buildSummary(len(receipts), len(transactions), outcome),
		ReceiptStats:          receiptStats,
		TransactionStats:      transactionStats,
	}

	if request.DetectSubscriptions {
		result.Subscriptions = s.detectSubscriptions(transactions, outcome.UnmatchedTransactions)
	}

	result.Duration = time.Since(start)
	s.logger.WithFields(logger.Fields{
		"matched":     result.Summary.MatchedCount,
		"match_rate":  result.Summary.MatchRate,
		"duration_ms": result.Duration.Milliseconds(),
	}).Info("Reconciliation complete")

	return result, nil
}

// Config returns a copy of the engine configuration in use.
func (s *Service) Config() *matcher.Config {
	return s.engine.Config()
}

func (s *Service) loadReceipts(ctx context.Context, request *Request) ([]*models.Receipt, *parsers.ParseStats, error) {
	if len(request.Receipts) > 0 {
		return request.Receipts, parsers.NewParseStats(), nil
	}
	return s.receiptParser.ParseFile(ctx, request.ReceiptFile)
}

func (s *Service) loadTransactions(ctx context.Context, request *Request) ([]*models.Transaction, *parsers.ParseStats, error) {
	if len(request.Transactions) > 0 {
		return request.Transactions, parsers.NewParseStats(), nil
	}
	return s.transactionParser.ParseFile(ctx, request.TransactionFile)
}

// detectSubscriptions scores unmatched transactions against the full batch
// history. The whole batch is indexed so interval detection can see prior
// same-merchant charges alongside the unmatched ones.
func (s *Service) detectSubscriptions(all, unmatched []*models.Transaction) []SubscriptionCandidate {
	store := history.NewStore()
	store.AddAll(all)
	detector := subscription.NewDetector(store)

	var candidates []SubscriptionCandidate
	for _, txn := range unmatched {
		probability := detector.Probability(txn)
		if probability >= 0.5 {
			candidates = append(candidates, SubscriptionCandidate{
				Transaction: txn,
				Probability: probability,
			})
		}
	}
	return candidates
}

func buildSummary(totalReceipts, totalTransactions int, outcome *matcher.Outcome) *Summary {
	summary := &Summary{
		TotalReceipts:         totalReceipts,
		TotalTransactions:     totalTransactions,
		MatchedCount:          len(outcome.Results),
		UnmatchedReceipts:     len(outcome.UnmatchedReceipts),
		UnmatchedTransactions: len(outcome.UnmatchedTransactions),
		MatchRate:             outcome.MatchRate(),
	}

	for _, match := range outcome.Results {
		switch match.MatchType {
		case models.MatchHighConfidence:
			summary.HighConfidenceCount++
		case models.MatchGood:
			summary.GoodMatchCount++
		case models.MatchPossible:
			summary.PossibleMatchCount++
		}
	}

	return summary
}
