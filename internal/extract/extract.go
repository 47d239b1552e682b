// Package extract converts loosely-typed records from upstream sources into
// normalized Receipt and Transaction values. Upstream key naming varies per
// provider, so every logical field resolves through an ordered list of key
// aliases: the first present, non-null value wins.
//
// Parsing is fail-open by policy: a malformed amount yields zero, a malformed
// date yields the zero time. One bad field never aborts a batch.
package extract

import (
	"fmt"
	"strings"

	"receipt-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// FieldAliases is an ordered list of candidate record keys for one logical
// field, highest priority first.
type FieldAliases []string

// ReceiptAliases holds the key-alias tables for receipt records.
type ReceiptAliases struct {
	ID         FieldAliases
	Merchant   FieldAliases
	Amount     FieldAliases
	Date       FieldAliases
	Confidence FieldAliases
	FullText   FieldAliases
}

// TransactionAliases holds the key-alias tables for transaction records.
type TransactionAliases struct {
	ID       FieldAliases
	Merchant FieldAliases
	Amount   FieldAliases
	Date     FieldAliases
}

// DefaultReceiptAliases returns the alias table covering the known receipt
// sources (OCR output, email parser payloads).
func DefaultReceiptAliases() ReceiptAliases {
	return ReceiptAliases{
		ID:         FieldAliases{"id", "receipt_id", "_id"},
		Merchant:   FieldAliases{"merchant", "merchant_name", "vendor", "store"},
		Amount:     FieldAliases{"amount", "total", "total_amount", "Amount"},
		Date:       FieldAliases{"date", "receipt_date", "purchase_date", "Date"},
		Confidence: FieldAliases{"confidence", "ocr_confidence", "extraction_confidence"},
		FullText:   FieldAliases{"full_text", "raw_text", "text"},
	}
}

// DefaultTransactionAliases returns the alias table covering the known
// transaction sources (bank sync payloads, CSV imports).
func DefaultTransactionAliases() TransactionAliases {
	return TransactionAliases{
		ID:       FieldAliases{"id", "transaction_id", "txn_id", "_id"},
		Merchant: FieldAliases{"merchant", "description", "Description", "name", "counterparty"},
		Amount:   FieldAliases{"amount", "Amount", "transaction_amount", "value"},
		Date:     FieldAliases{"date", "Date", "transaction_date", "posted_date", "posting_date"},
	}
}

// Extractor resolves record fields through alias tables.
type Extractor struct {
	receiptAliases     ReceiptAliases
	transactionAliases TransactionAliases
}

// NewExtractor creates an Extractor with the default alias tables.
func NewExtractor() *Extractor {
	return &Extractor{
		receiptAliases:     DefaultReceiptAliases(),
		transactionAliases: DefaultTransactionAliases(),
	}
}

// NewExtractorWithAliases creates an Extractor with custom alias tables.
func NewExtractorWithAliases(receipts ReceiptAliases, transactions TransactionAliases) *Extractor {
	return &Extractor{
		receiptAliases:     receipts,
		transactionAliases: transactions,
	}
}

// firstPresent returns the first non-nil, non-empty value among the aliased
// keys, or nil when none is present.
func firstPresent(record map[string]interface{}, aliases FieldAliases) interface{} {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return value
	}
	return nil
}

func stringField(record map[string]interface{}, aliases FieldAliases) string {
	value := firstPresent(record, aliases)
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}

func amountField(record map[string]interface{}, aliases FieldAliases) decimal.Decimal {
	value := firstPresent(record, aliases)
	if value == nil {
		return decimal.Zero
	}
	switch v := value.(type) {
	case string:
		return models.ParseAmount(v)
	case float64:
		return decimal.NewFromFloat(v)
	case float32:
		return decimal.NewFromFloat32(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case decimal.Decimal:
		return v
	default:
		return models.ParseAmount(fmt.Sprintf("%v", v))
	}
}

func confidenceField(record map[string]interface{}, aliases FieldAliases) float64 {
	value := firstPresent(record, aliases)
	if value == nil {
		return 0.0
	}
	var confidence float64
	switch v := value.(type) {
	case float64:
		confidence = v
	case float32:
		confidence = float64(v)
	case int:
		confidence = float64(v)
	case string:
		confidence = models.ParseAmount(v).InexactFloat64()
	default:
		return 0.0
	}

	if confidence < 0.0 {
		return 0.0
	}
	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}

// ExtractReceipt converts a loosely-typed record into a Receipt. It never
// returns an error: missing or malformed fields resolve to sentinel values.
func (e *Extractor) ExtractReceipt(record map[string]interface{}) *models.Receipt {
	aliases := e.receiptAliases

	return &models.Receipt{
		ID:         stringField(record, aliases.ID),
		Merchant:   stringField(record, aliases.Merchant),
		Amount:     amountField(record, aliases.Amount),
		Date:       models.ParseDate(stringField(record, aliases.Date)),
		Confidence: confidenceField(record, aliases.Confidence),
		FullText:   stringField(record, aliases.FullText),
	}
}

// ExtractTransaction converts a loosely-typed record into a Transaction. The
// amount is taken by absolute value so that debit sign conventions from
// different banks compare on the same scale.
func (e *Extractor) ExtractTransaction(record map[string]interface{}) *models.Transaction {
	aliases := e.transactionAliases

	return &models.Transaction{
		ID:       stringField(record, aliases.ID),
		Merchant: stringField(record, aliases.Merchant),
		Amount:   amountField(record, aliases.Amount).Abs(),
		Date:     models.ParseDate(stringField(record, aliases.Date)),
	}
}
