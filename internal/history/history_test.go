package history

import (
	"testing"
	"time"

	"receipt-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

func testTransaction(id, merchant string, date time.Time) *models.Transaction {
	return models.NewTransaction(id, merchant, decimal.NewFromFloat(15.49), date)
}

func TestStoreAddAndQuery(t *testing.T) {
	store := NewStore()
	base := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	store.Add(testTransaction("t-1", "NETFLIX.COM", base))
	store.Add(testTransaction("t-2", "NETFLIX.COM", base.AddDate(0, 1, 0)))
	store.Add(testTransaction("t-3", "STARBUCKS #12", base))

	if store.Len() != 3 {
		t.Fatalf("Expected 3 indexed transactions, got %d", store.Len())
	}

	got := store.TransactionsSince("NETFLIX.COM", base.AddDate(0, 0, -1))
	if len(got) != 2 {
		t.Fatalf("Expected 2 Netflix transactions, got %d", len(got))
	}
	if got[0].ID != "t-1" || got[1].ID != "t-2" {
		t.Error("Expected transactions ordered by date ascending")
	}
}

func TestStoreNormalizesMerchants(t *testing.T) {
	store := NewStore()
	base := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	// Variants of the same merchant land in one bucket.
	store.Add(testTransaction("t-1", "NETFLIX.COM", base))
	store.Add(testTransaction("t-2", "Netflix", base.AddDate(0, 1, 0)))

	got := store.TransactionsSince("NETFLIX", base.AddDate(0, 0, -1))
	if len(got) != 2 {
		t.Errorf("Expected normalized bucket with 2 entries, got %d", len(got))
	}
}

func TestStoreCutoff(t *testing.T) {
	store := NewStore()
	base := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	store.Add(testTransaction("t-old", "SPOTIFY", base.AddDate(-1, 0, 0)))
	store.Add(testTransaction("t-new", "SPOTIFY", base))

	got := store.TransactionsSince("SPOTIFY", base.AddDate(0, -6, 0))
	if len(got) != 1 || got[0].ID != "t-new" {
		t.Errorf("Expected only the recent transaction, got %d entries", len(got))
	}
}

func TestStoreIgnoresUndatedAndEmpty(t *testing.T) {
	store := NewStore()

	store.Add(nil)
	store.Add(testTransaction("t-1", "", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)))
	store.Add(testTransaction("t-2", "SHELL", time.Time{}))

	if got := store.TransactionsSince("SHELL", time.Time{}); len(got) != 0 {
		t.Errorf("Expected undated transaction excluded from queries, got %d", len(got))
	}
	if got := store.TransactionsSince("", time.Time{}); got != nil {
		t.Error("Expected nil for empty merchant query")
	}
}

func TestStoreMerchants(t *testing.T) {
	store := NewStore()
	base := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)

	store.AddAll([]*models.Transaction{
		testTransaction("t-1", "SPOTIFY USA", base),
		testTransaction("t-2", "NETFLIX.COM", base),
	})

	merchants := store.Merchants()
	if len(merchants) != 2 {
		t.Fatalf("Expected 2 merchants, got %d", len(merchants))
	}
	if merchants[0] != "NETFLIX" || merchants[1] != "SPOTIFY" {
		t.Errorf("Expected sorted normalized merchants, got %v", merchants)
	}
}
