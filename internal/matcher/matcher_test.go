package matcher

import (
	"fmt"
	"testing"
	"time"

	"receipt-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func testReceipt(id, merchant string, amount float64, date time.Time, confidence float64) *models.Receipt {
	return models.NewReceipt(id, merchant, decimal.NewFromFloat(amount), date, confidence)
}

func testTransaction(id, merchant string, amount float64, date time.Time) *models.Transaction {
	return models.NewTransaction(id, merchant, decimal.NewFromFloat(amount), date)
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(nil)
	if err != nil {
		t.Fatalf("Expected engine with default config, got error: %v", err)
	}
	if engine.Config().MinConfidence != 0.70 {
		t.Errorf("Expected default min confidence 0.70, got %f", engine.Config().MinConfidence)
	}

	bad := DefaultConfig()
	bad.MinConfidence = 2.0
	if _, err := NewEngine(bad); err == nil {
		t.Error("Expected error for invalid config")
	}
}

func TestMatchExactPair(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	receipts := []*models.Receipt{
		testReceipt("r-1", "STARBUCKS", 8.83, day, 0.95),
	}
	transactions := []*models.Transaction{
		testTransaction("t-1", "STARBUCKS STORE #123", 8.83, day),
	}

	outcome := engine.Match(receipts, transactions)
	if len(outcome.Results) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(outcome.Results))
	}

	match := outcome.Results[0]
	if match.ReceiptID != "r-1" || match.TransactionID != "t-1" {
		t.Errorf("Unexpected pairing: %s -> %s", match.ReceiptID, match.TransactionID)
	}
	if match.Confidence < 0.9 {
		t.Errorf("Expected composite >= 0.9 for exact pair, got %f", match.Confidence)
	}
	if match.MatchType != models.MatchHighConfidence {
		t.Errorf("Expected HIGH_CONFIDENCE, got %s", match.MatchType)
	}
	if match.ScoreBreakdown["amount"] != 1.0 {
		t.Errorf("Expected exact amount score 1.0, got %f", match.ScoreBreakdown["amount"])
	}
	if match.ScoreBreakdown["date"] != 1.0 {
		t.Errorf("Expected exact date score 1.0, got %f", match.ScoreBreakdown["date"])
	}
}

func TestMatchClaimsFirstOfEqualCandidates(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	// Two identical transactions, one receipt: the first must be claimed
	// and the second left available.
	receipts := []*models.Receipt{
		testReceipt("r-1", "STARBUCKS", 8.83, day, 0.9),
	}
	transactions := []*models.Transaction{
		testTransaction("t-1", "STARBUCKS", 8.83, day),
		testTransaction("t-2", "STARBUCKS", 8.83, day),
	}

	outcome := engine.Match(receipts, transactions)
	if len(outcome.Results) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(outcome.Results))
	}
	if outcome.Results[0].TransactionID != "t-1" {
		t.Errorf("Expected first transaction claimed, got %s", outcome.Results[0].TransactionID)
	}
	if len(outcome.UnmatchedTransactions) != 1 || outcome.UnmatchedTransactions[0].ID != "t-2" {
		t.Error("Expected second transaction left unclaimed")
	}

	// A second receipt in the same batch picks up the remaining one.
	receipts = append(receipts, testReceipt("r-2", "STARBUCKS", 8.83, day, 0.9))
	outcome = engine.Match(receipts, transactions)
	if len(outcome.Results) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(outcome.Results))
	}
	if outcome.Results[1].TransactionID != "t-2" {
		t.Errorf("Expected second receipt to claim t-2, got %s", outcome.Results[1].TransactionID)
	}
}

func TestMatchAtMostOneClaim(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	var receipts []*models.Receipt
	var transactions []*models.Transaction
	for i := 0; i < 10; i++ {
		receipts = append(receipts, testReceipt(
			fmt.Sprintf("r-%d", i), "TARGET", 25.00, day.AddDate(0, 0, i), 0.9))
		transactions = append(transactions, testTransaction(
			fmt.Sprintf("t-%d", i), "TARGET T-1284", 25.00, day.AddDate(0, 0, i)))
	}

	outcome := engine.Match(receipts, transactions)

	seen := make(map[string]bool)
	for _, match := range outcome.Results {
		if seen[match.TransactionID] {
			t.Fatalf("Transaction %s claimed more than once", match.TransactionID)
		}
		seen[match.TransactionID] = true
	}
}

func TestMatchThresholdLaw(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	receipts := []*models.Receipt{
		testReceipt("r-1", "STARBUCKS", 8.83, day, 0.95),
		testReceipt("r-2", "OBSCURE VENDOR", 500.00, day.AddDate(0, 0, -90), 0.5),
	}
	transactions := []*models.Transaction{
		testTransaction("t-1", "STARBUCKS", 8.83, day),
	}

	outcome := engine.Match(receipts, transactions)
	minConfidence := engine.Config().MinConfidence
	for _, match := range outcome.Results {
		if match.Confidence < minConfidence {
			t.Errorf("Match %s emitted below threshold: %f < %f",
				match.ReceiptID, match.Confidence, minConfidence)
		}
	}

	if len(outcome.UnmatchedReceipts) != 1 || outcome.UnmatchedReceipts[0].ID != "r-2" {
		t.Error("Expected the hopeless receipt to remain unmatched")
	}
}

func TestMatchMissingReceiptDate(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	receipts := []*models.Receipt{
		testReceipt("r-1", "STARBUCKS", 8.83, time.Time{}, 0.9),
	}
	transactions := []*models.Transaction{
		testTransaction("t-1", "STARBUCKS", 8.83, day),
	}

	outcome := engine.Match(receipts, transactions)
	if len(outcome.Results) != 1 {
		t.Fatalf("Expected match despite missing date, got %d matches", len(outcome.Results))
	}
	if outcome.Results[0].ScoreBreakdown["date"] != 0.5 {
		t.Errorf("Expected neutral date score 0.5, got %f",
			outcome.Results[0].ScoreBreakdown["date"])
	}
}

func TestMatchDeterminism(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	var receipts []*models.Receipt
	var transactions []*models.Transaction
	merchants := []string{"STARBUCKS", "TARGET", "SHELL OIL", "CHIPOTLE"}
	for i := 0; i < 20; i++ {
		m := merchants[i%len(merchants)]
		receipts = append(receipts, testReceipt(
			fmt.Sprintf("r-%d", i), m, float64(10+i), day.AddDate(0, 0, i%5), 0.9))
		transactions = append(transactions, testTransaction(
			fmt.Sprintf("t-%d", i), m, float64(10+i), day.AddDate(0, 0, i%5)))
	}

	first := engine.Match(receipts, transactions)
	for run := 0; run < 3; run++ {
		again := engine.Match(receipts, transactions)
		if len(again.Results) != len(first.Results) {
			t.Fatalf("Run %d produced %d matches, first run %d",
				run, len(again.Results), len(first.Results))
		}
		for i := range first.Results {
			if first.Results[i].TransactionID != again.Results[i].TransactionID ||
				first.Results[i].Confidence != again.Results[i].Confidence {
				t.Fatalf("Run %d diverged at result %d", run, i)
			}
		}
	}
}

func TestMatchEmptyInputs(t *testing.T) {
	engine, _ := NewEngine(nil)

	outcome := engine.Match(nil, nil)
	if len(outcome.Results) != 0 {
		t.Error("Expected no matches for empty inputs")
	}
	if outcome.MatchRate() != 0.0 {
		t.Errorf("Expected zero match rate, got %f", outcome.MatchRate())
	}

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	outcome = engine.Match([]*models.Receipt{
		testReceipt("r-1", "STARBUCKS", 8.83, day, 0.9),
	}, nil)
	if len(outcome.Results) != 0 || len(outcome.UnmatchedReceipts) != 1 {
		t.Error("Expected receipt unmatched when no transactions exist")
	}
}

func TestMatchWithStaticSemanticScorer(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	engine, err := NewEngineWithSemantic(DefaultConfig(), StaticScorer{Score: 1.0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	receipts := []*models.Receipt{
		testReceipt("r-1", "STARBUCKS", 8.83, day, 0.0),
	}
	transactions := []*models.Transaction{
		testTransaction("t-1", "STARBUCKS", 8.83, day),
	}

	outcome := engine.Match(receipts, transactions)
	if len(outcome.Results) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(outcome.Results))
	}
	if outcome.Results[0].ScoreBreakdown["semantic"] != 1.0 {
		t.Errorf("Expected injected semantic score 1.0, got %f",
			outcome.Results[0].ScoreBreakdown["semantic"])
	}
}

func TestScoreSinglePair(t *testing.T) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	total, reasons := engine.Score(
		testReceipt("r-1", "STARBUCKS", 8.83, day, 0.95),
		testTransaction("t-1", "STARBUCKS STORE #123", 8.83, day),
	)
	if total < 0.9 {
		t.Errorf("Expected score >= 0.9, got %f", total)
	}
	if len(reasons) == 0 {
		t.Error("Expected reasoning strings")
	}
}

func BenchmarkMatch(b *testing.B) {
	engine, _ := NewEngine(nil)
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	var receipts []*models.Receipt
	var transactions []*models.Transaction
	for i := 0; i < 200; i++ {
		receipts = append(receipts, testReceipt(
			fmt.Sprintf("r-%d", i), "STARBUCKS STORE", float64(5+i%50), day.AddDate(0, 0, i%30), 0.9))
		transactions = append(transactions, testTransaction(
			fmt.Sprintf("t-%d", i), "STARBUCKS", float64(5+i%50), day.AddDate(0, 0, i%30)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Match(receipts, transactions)
	}
}
