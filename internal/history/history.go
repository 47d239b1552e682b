// Package history provides an in-memory transaction history store indexed
// by merchant. The subscription detector queries it for prior same-merchant
// transactions; in production deployments the same interface can be backed
// by a persistent store.
package history

import (
	"sort"
	"strings"
	"sync"
	"time"

	"receipt-reconciliation-service/internal/models"
	"receipt-reconciliation-service/internal/normalize"
)

// Lookup answers queries over previously seen transactions. Implementations
// must be safe for concurrent readers.
type Lookup interface {
	// TransactionsSince returns all transactions for the given merchant
	// with a date on or after the cutoff, ordered by date ascending.
	// The merchant is compared in normalized form.
	TransactionsSince(merchant string, since time.Time) []*models.Transaction
}

// Store is an in-memory Lookup backed by a per-merchant index. Transactions
// are indexed at Add time under their normalized merchant name so that
// "NETFLIX.COM" and "Netflix" land in the same bucket.
type Store struct {
	mu         sync.RWMutex
	normalizer *normalize.Normalizer
	byMerchant map[string][]*models.Transaction
}

// NewStore creates an empty history store using the default merchant
// normalizer.
func NewStore() *Store {
	return &Store{
		normalizer: normalize.NewNormalizer(),
		byMerchant: make(map[string][]*models.Transaction),
	}
}

// Add indexes a transaction under its normalized merchant name. Transactions
// without a date are stored but never returned by TransactionsSince.
func (s *Store) Add(txn *models.Transaction) {
	if txn == nil {
		return
	}
	key := s.normalizer.Normalize(txn.Merchant)
	if key == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := append(s.byMerchant[key], txn)
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].Date.Before(bucket[j].Date)
	})
	s.byMerchant[key] = bucket
}

// AddAll indexes a batch of transactions.
func (s *Store) AddAll(txns []*models.Transaction) {
	for _, txn := range txns {
		s.Add(txn)
	}
}

// Len returns the total number of indexed transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, bucket := range s.byMerchant {
		total += len(bucket)
	}
	return total
}

// Merchants returns the normalized merchant names present in the store,
// sorted for deterministic iteration.
func (s *Store) Merchants() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.byMerchant))
	for name := range s.byMerchant {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TransactionsSince implements Lookup. The merchant argument may be raw or
// already normalized; it is normalized again before lookup, which is
// idempotent for already-normalized input.
func (s *Store) TransactionsSince(merchant string, since time.Time) []*models.Transaction {
	key := s.normalizer.Normalize(strings.TrimSpace(merchant))
	if key == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	bucket := s.byMerchant[key]
	out := make([]*models.Transaction, 0, len(bucket))
	for _, txn := range bucket {
		if txn.Date.IsZero() {
			continue
		}
		if txn.Date.Before(since) {
			continue
		}
		out = append(out, txn)
	}
	return out
}
