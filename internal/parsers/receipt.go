package parsers

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"receipt-reconciliation-service/internal/models"
	"receipt-reconciliation-service/pkg/errors"
	"receipt-reconciliation-service/pkg/logger"
)

// receiptPositionalHeaders is the assumed column order for headerless CSV
// receipt exports.
var receiptPositionalHeaders = []string{"id", "merchant", "amount", "date", "confidence"}

// ReceiptParser loads OCR receipt exports.
type ReceiptParser struct {
	*baseParser
}

// NewReceiptParser creates a receipt parser. A nil config uses the defaults.
func NewReceiptParser(config *ParseConfig) *ReceiptParser {
	return &ReceiptParser{baseParser: newBaseParser(config, "receipt_parser")}
}

// ParseFile loads receipts from a CSV or JSON file, dispatching on the file
// extension. Unrecognized extensions are treated as CSV.
func (rp *ReceiptParser) ParseFile(ctx context.Context, filePath string) ([]*models.Receipt, *ParseStats, error) {
	if strings.EqualFold(filepath.Ext(filePath), ".json") {
		return rp.ParseJSON(ctx, filePath)
	}
	return rp.ParseCSV(ctx, filePath)
}

// ParseCSV loads receipts from a CSV file. Rows that cannot be read are
// recorded in the stats and skipped; fields that cannot be parsed degrade to
// zero values inside the receipt.
func (rp *ReceiptParser) ParseCSV(ctx context.Context, filePath string) ([]*models.Receipt, *ParseStats, error) {
	file, reader, err := rp.openCSV(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	stats := NewParseStats()
	headers := receiptPositionalHeaders

	if rp.config.HasHeader {
		row, err := reader.Read()
		if err != nil {
			return nil, stats, errors.ParseError(errors.CodeInvalidFormat, filePath, 1, "", "", err)
		}
		headers = row
		stats.TotalLines++
	}

	var receipts []*models.Receipt
	for {
		if err := ctx.Err(); err != nil {
			return receipts, stats, err
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
		if rp.config.SkipEmptyRows && emptyRow(row) {
			continue
		}

		stats.RecordsParsed++
		receipt := rp.extractor.ExtractReceipt(rowToRecord(headers, row))
		if receipt.Merchant == "" && receipt.ID == "" {
			stats.AddError(&ParseError{Line: stats.TotalLines, Message: "row has no merchant or id"})
			continue
		}
		stats.RecordsValid++
		receipts = append(receipts, receipt)
	}

	rp.logStats(filePath, stats)
	return receipts, stats, nil
}

// ParseJSON loads receipts from a JSON file holding an array of objects.
func (rp *ReceiptParser) ParseJSON(ctx context.Context, filePath string) ([]*models.Receipt, *ParseStats, error) {
	records, stats, err := readJSONRecords(filePath)
	if err != nil {
		return nil, nil, err
	}

	var receipts []*models.Receipt
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return receipts, stats, err
		}

		stats.RecordsParsed++
		receipt := rp.extractor.ExtractReceipt(record)
		if receipt.Merchant == "" && receipt.ID == "" {
			stats.AddError(&ParseError{Line: i + 1, Message: "record has no merchant or id"})
			continue
		}
		stats.RecordsValid++
		receipts = append(receipts, receipt)
	}

	rp.logStats(filePath, stats)
	return receipts, stats, nil
}

func (rp *ReceiptParser) logStats(filePath string, stats *ParseStats) {
	entry := rp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"error_count":   stats.ErrorCount,
	})
	if stats.HasErrors() {
		entry.WithField("sample_errors", stats.SampleErrors(3)).Warn("Parsed receipts with errors")
	} else {
		entry.Info("Parsed receipts")
	}
}

// readJSONRecords decodes a JSON array of string-keyed objects.
func readJSONRecords(filePath string) ([]map[string]interface{}, *ParseStats, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 0, "", "", err)
	}

	stats := NewParseStats()
	stats.TotalLines = len(records)
	return records, stats, nil
}
