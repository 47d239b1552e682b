// Package models defines the core data types for receipt reconciliation:
// receipts extracted upstream from email attachments, bank transactions, and
// the match results produced by the matching engine. It also provides the
// fail-open parsing helpers used when ingesting loosely-typed records.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is a purchase record produced upstream (OCR over email
// attachments). Immutable once constructed; Confidence is the upstream
// extraction confidence in [0,1].
type Receipt struct {
	ID         string          `json:"id"`
	Merchant   string          `json:"merchant"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Confidence float64         `json:"confidence"`
	FullText   string          `json:"full_text,omitempty"`
}

// Transaction is a bank ledger record of a charge, independent of any
// receipt. Amount is stored as an absolute value; the debit sign convention
// of the upstream source is discarded during extraction so that expense
// receipts and bank debits compare on the same scale.
type Transaction struct {
	ID       string          `json:"id"`
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}

// NewReceipt creates a Receipt.
func NewReceipt(id, merchant string, amount decimal.Decimal, date time.Time, confidence float64) *Receipt {
	return &Receipt{
		ID:         id,
		Merchant:   merchant,
		Amount:     amount,
		Date:       date,
		Confidence: confidence,
	}
}

// NewTransaction creates a Transaction, normalizing the amount to its
// absolute value.
func NewTransaction(id, merchant string, amount decimal.Decimal, date time.Time) *Transaction {
	return &Transaction{
		ID:       id,
		Merchant: merchant,
		Amount:   amount.Abs(),
		Date:     date,
	}
}

// HasDate reports whether the receipt carries a parseable date.
func (r *Receipt) HasDate() bool {
	return !r.Date.IsZero()
}

// HasDate reports whether the transaction carries a parseable date.
func (t *Transaction) HasDate() bool {
	return !t.Date.IsZero()
}

// String returns a short description of the Receipt.
func (r *Receipt) String() string {
	return fmt.Sprintf("Receipt{ID: %s, Merchant: %s, Amount: %s, Date: %s}",
		r.ID, r.Merchant, r.Amount.String(), formatDate(r.Date))
}

// String returns a short description of the Transaction.
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Merchant: %s, Amount: %s, Date: %s}",
		t.ID, t.Merchant, t.Amount.String(), formatDate(t.Date))
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return "unknown"
	}
	return d.Format("2006-01-02")
}

// MatchType classifies the confidence level of an accepted match.
type MatchType string

const (
	MatchHighConfidence MatchType = "HIGH_CONFIDENCE"
	MatchGood           MatchType = "GOOD_MATCH"
	MatchPossible       MatchType = "POSSIBLE_MATCH"
	MatchLowConfidence  MatchType = "LOW_CONFIDENCE"
)

// ClassifyMatch maps a composite score to a MatchType.
func ClassifyMatch(score float64) MatchType {
	switch {
	case score >= 0.9:
		return MatchHighConfidence
	case score >= 0.8:
		return MatchGood
	case score >= 0.7:
		return MatchPossible
	default:
		return MatchLowConfidence
	}
}

// MatchResult is an accepted pairing of one receipt to one transaction.
// Immutable once emitted; handed to downstream exporters.
type MatchResult struct {
	ReceiptID      string             `json:"receipt_id"`
	TransactionID  string             `json:"transaction_id"`
	Confidence     float64            `json:"confidence"`
	MatchType      MatchType          `json:"match_type"`
	Reasoning      string             `json:"reasoning"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
}

// ToMap flattens the result into a string-keyed mapping for JSON responses
// and tabular export.
func (m *MatchResult) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"receipt_id":      m.ReceiptID,
		"transaction_id":  m.TransactionID,
		"confidence":      m.Confidence,
		"match_type":      string(m.MatchType),
		"reasoning":       m.Reasoning,
		"score_breakdown": m.ScoreBreakdown,
	}
}

// ParseAmount parses a monetary amount from a string, stripping currency
// symbols and thousand separators. On failure it returns zero rather than an
// error: one malformed amount must never abort a batch.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "")
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	// Accounting format wraps negatives in parentheses.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}

// dateFormats is the fixed list of accepted date layouts, most specific
// first. Layouts with two-digit years come last so four-digit years win.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"01/02/06",
	"01-02-06",
}

// ParseDate parses a date from a string using the accepted layouts. Two-digit
// years that resolve before 1950 are rolled forward by a century. On failure
// it returns the zero time rather than an error.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, format := range dateFormats {
		t, err := time.Parse(format, s)
		if err != nil {
			continue
		}
		// The century roll only applies to two-digit-year layouts; a
		// literal four-digit year stays as written.
		if t.Year() < 1950 && !strings.Contains(format, "2006") {
			t = t.AddDate(100, 0, 0)
		}
		return t
	}

	return time.Time{}
}

// DaysBetween returns the absolute whole-day distance between two dates,
// comparing calendar days rather than elapsed hours.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	au := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	bu := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)

	diff := au.Sub(bu)
	if diff < 0 {
		diff = -diff
	}
	return int(diff / (24 * time.Hour))
}
