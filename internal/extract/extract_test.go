package extract

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestExtractReceipt(t *testing.T) {
	e := NewExtractor()

	record := map[string]interface{}{
		"id":         "r-001",
		"merchant":   "STARBUCKS",
		"amount":     "8.83",
		"date":       "2025-06-10",
		"confidence": 0.93,
		"full_text":  "STARBUCKS STORE 123 TOTAL 8.83",
	}

	receipt := e.ExtractReceipt(record)
	if receipt.ID != "r-001" {
		t.Errorf("Expected ID r-001, got %s", receipt.ID)
	}
	if receipt.Merchant != "STARBUCKS" {
		t.Errorf("Expected merchant STARBUCKS, got %s", receipt.Merchant)
	}
	if !receipt.Amount.Equal(decimal.NewFromFloat(8.83)) {
		t.Errorf("Expected amount 8.83, got %s", receipt.Amount)
	}
	expected := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	if !receipt.Date.Equal(expected) {
		t.Errorf("Expected date %v, got %v", expected, receipt.Date)
	}
	if receipt.Confidence != 0.93 {
		t.Errorf("Expected confidence 0.93, got %f", receipt.Confidence)
	}
}

func TestExtractReceiptAliases(t *testing.T) {
	e := NewExtractor()

	// Email-parser shaped payload using alternate key names.
	record := map[string]interface{}{
		"receipt_id":     "r-002",
		"vendor":         "CHIPOTLE",
		"total":          12.45,
		"purchase_date":  "06/11/2025",
		"ocr_confidence": 0.8,
	}

	receipt := e.ExtractReceipt(record)
	if receipt.ID != "r-002" {
		t.Errorf("Expected aliased ID, got %s", receipt.ID)
	}
	if receipt.Merchant != "CHIPOTLE" {
		t.Errorf("Expected aliased merchant, got %s", receipt.Merchant)
	}
	if !receipt.Amount.Equal(decimal.NewFromFloat(12.45)) {
		t.Errorf("Expected aliased amount, got %s", receipt.Amount)
	}
	if receipt.Confidence != 0.8 {
		t.Errorf("Expected aliased confidence, got %f", receipt.Confidence)
	}
}

func TestExtractReceiptFailOpen(t *testing.T) {
	e := NewExtractor()

	record := map[string]interface{}{
		"id":       "r-003",
		"merchant": "UNKNOWN CAFE",
		"amount":   "not a number",
		"date":     "never",
	}

	receipt := e.ExtractReceipt(record)
	if !receipt.Amount.IsZero() {
		t.Errorf("Expected malformed amount to fail open to zero, got %s", receipt.Amount)
	}
	if !receipt.Date.IsZero() {
		t.Errorf("Expected malformed date to fail open to zero time, got %v", receipt.Date)
	}
}

func TestExtractReceiptMissingFields(t *testing.T) {
	e := NewExtractor()

	receipt := e.ExtractReceipt(map[string]interface{}{})
	if receipt.ID != "" || receipt.Merchant != "" {
		t.Error("Expected empty strings for missing fields")
	}
	if !receipt.Amount.IsZero() {
		t.Error("Expected zero amount for missing field")
	}
	if receipt.Confidence != 0.0 {
		t.Error("Expected zero confidence for missing field")
	}
}

func TestExtractTransactionAbsoluteAmount(t *testing.T) {
	e := NewExtractor()

	// Bank debits arrive negative; matching compares magnitudes.
	record := map[string]interface{}{
		"id":          "t-001",
		"description": "STARBUCKS STORE #123",
		"amount":      "-8.83",
		"date":        "2025-06-10",
	}

	txn := e.ExtractTransaction(record)
	if !txn.Amount.Equal(decimal.NewFromFloat(8.83)) {
		t.Errorf("Expected absolute amount 8.83, got %s", txn.Amount)
	}
	if txn.Merchant != "STARBUCKS STORE #123" {
		t.Errorf("Expected description as merchant, got %s", txn.Merchant)
	}
}

func TestExtractTransactionNumericAmount(t *testing.T) {
	e := NewExtractor()

	// JSON decoding yields float64 values.
	record := map[string]interface{}{
		"txn_id":       "t-002",
		"counterparty": "NETFLIX.COM",
		"value":        float64(-15.49),
		"posted_date":  "2025-06-01",
	}

	txn := e.ExtractTransaction(record)
	if txn.ID != "t-002" {
		t.Errorf("Expected aliased ID, got %s", txn.ID)
	}
	if !txn.Amount.Equal(decimal.NewFromFloat(15.49)) {
		t.Errorf("Expected absolute amount 15.49, got %s", txn.Amount)
	}
}

func TestConfidenceClamped(t *testing.T) {
	e := NewExtractor()

	receipt := e.ExtractReceipt(map[string]interface{}{"confidence": 1.7})
	if receipt.Confidence != 1.0 {
		t.Errorf("Expected confidence clamped to 1.0, got %f", receipt.Confidence)
	}

	receipt = e.ExtractReceipt(map[string]interface{}{"confidence": -0.4})
	if receipt.Confidence != 0.0 {
		t.Errorf("Expected confidence clamped to 0.0, got %f", receipt.Confidence)
	}
}
