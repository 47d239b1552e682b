package parsers

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"receipt-reconciliation-service/internal/models"
	"receipt-reconciliation-service/pkg/errors"
	"receipt-reconciliation-service/pkg/logger"
)

// transactionPositionalHeaders is the assumed column order for headerless
// CSV transaction exports.
var transactionPositionalHeaders = []string{"id", "description", "amount", "date"}

// TransactionParser loads bank and ledger transaction exports. Amounts are
// taken by absolute value during extraction so that debits compare directly
// against receipt totals.
type TransactionParser struct {
	*baseParser
}

// NewTransactionParser creates a transaction parser. A nil config uses the
// defaults.
func NewTransactionParser(config *ParseConfig) *TransactionParser {
	return &TransactionParser{baseParser: newBaseParser(config, "transaction_parser")}
}

// ParseFile loads transactions from a CSV or JSON file, dispatching on the
// file extension. Unrecognized extensions are treated as CSV.
func (tp *TransactionParser) ParseFile(ctx context.Context, filePath string) ([]*models.Transaction, *ParseStats, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".json") {
		return tp.ParseJSON(ctx, filePath)
	}
	return tp.ParseCSV(ctx, filePath)
}

// ParseCSV loads transactions from a CSV file under the same fail-open
// policy as receipt parsing.
func (tp *TransactionParser) ParseCSV(ctx context.Context, filePath string) ([]*models.Transaction, *ParseStats, error) {
	file, reader, err := tp.openCSV(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := NewParseStats()
	headers := transactionPositionalHeaders

	if tp.config.HasHeader {
		row, err := reader.Read()
		if err != nil {
			return nil, stats, errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "", "", err)
		}
		headers = row
		stats.TotalLines++
	}

	var transactions []*models.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return transactions, stats, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.TotalLines++
		if err != nil {
			stats.AddError(&ParseError{Line: stats.TotalLines, Message: "unreadable row", Err: err})
			continue
		}
		if tp.config.SkipEmptyRows && emptyRow(row) {
			continue
		}

		stats.RecordsParsed++
		txn := tp.extractor.ExtractTransaction(rowToRecord(headers, row))
		if txn.Merchant == "" && txn.ID == "" {
			stats.AddError(&ParseError{Line: stats.TotalLines, Message: "row has no description or id"})
			continue
		}
		stats.RecordsValid++
		transactions = append(transactions, txn)
	}

	tp.logStats(filePath, stats)
	return transactions, stats, nil
}

// ParseJSON loads transactions from a JSON file holding an array of objects.
func (tp *TransactionParser) ParseJSON(ctx context.Context, filePath string) ([]*models.Transaction, *ParseStats, error) {
	records, stats, err := readJSONRecords(filePath)
	if err != nil {
		return nil, nil, err
	}

	var transactions []*models.Transaction
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return transactions, stats, err
		}

		stats.RecordsParsed++
		txn := tp.extractor.ExtractTransaction(record)
		if txn.Merchant == "" && txn.ID == "" {
			stats.AddError(&ParseError{Line: i + 1, Message: "record has no description or id"})
			continue
		}
		stats.RecordsValid++
		transactions = append(transactions, txn)
	}

	tp.logStats(filePath, stats)
	return transactions, stats, nil
}

func (tp *TransactionParser) logStats(filePath string, stats *ParseStats) {
	entry := tp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"error_count":   stats.ErrorCount,
	})
	if stats.HasErrors() {
		entry.WithField("sample_errors", stats.SampleErrors(3)).Warn("Parsed transactions with errors")
	} else {
		entry.Info("Parsed transactions")
	}
}
