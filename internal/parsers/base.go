// Package parsers loads receipt and transaction records from CSV and JSON
// files and hands them to the field extractor as loosely-typed records.
//
// Parsing follows a fail-open policy: malformed amounts and dates degrade to
// zero values inside the record, and structurally broken rows are recorded
// in the parse statistics and skipped. One bad row never aborts a file.
//
// Parser types:
//   - ReceiptParser: OCR receipt exports (CSV or JSON)
//   - TransactionParser: bank/ledger transaction exports (CSV or JSON)
//
// Example usage:
//
//	parser := parsers.NewReceiptParser(nil)
//	receipts, stats, err := parser.ParseFile(ctx, "receipts.csv")
package parsers

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"receipt-reconciliation-service/internal/extract"
	"receipt-reconciliation-service/pkg/errors"
	"receipt-reconciliation-service/pkg/logger"
)

// ParseError describes one unusable row. It is collected into ParseStats
// rather than returned; see the package fail-open policy.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse error at line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseConfig holds CSV reading options.
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
}

// DefaultParseConfig returns a configuration for comma-separated files with
// a header row.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	}
}

// ParseStats summarizes one parsing operation.
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	ErrorCount    int
	Errors        []*ParseError
}

// NewParseStats creates an empty ParseStats.
func NewParseStats() *ParseStats {
	return &ParseStats{Errors: make([]*ParseError, 0)}
}

// AddError records a skipped row.
func (ps *ParseStats) AddError(err *ParseError) {
	ps.Errors = append(ps.Errors, err)
	ps.ErrorCount++
}

// HasErrors reports whether any rows were skipped.
func (ps *ParseStats) HasErrors() bool {
	return ps.ErrorCount > 0
}

// String returns a human-readable summary.
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, ps.ErrorCount)
}

// SampleErrors returns up to maxSamples error messages for logging.
func (ps *ParseStats) SampleErrors(maxSamples int) []string {
	limit := len(ps.Errors)
	if maxSamples > 0 && maxSamples < limit {
		limit = maxSamples
	}

	samples := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		samples = append(samples, ps.Errors[i].Error())
	}
	return samples
}

// baseParser provides the CSV plumbing shared by both parser types.
type baseParser struct {
	config    *ParseConfig
	extractor *extract.Extractor
	logger    logger.Logger
}

func newBaseParser(config *ParseConfig, component string) *baseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &baseParser{
		config:    config,
		extractor: extract.NewExtractor(),
		logger:    logger.GetGlobalLogger().WithComponent(component),
	}
}

// openCSV opens a file and returns a configured csv.Reader.
func (bp *baseParser) openCSV(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open file")
		if os.IsNotExist(err) {
			return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
		}
		if os.IsPermission(err) {
			return nil, nil, errors.FileError(errors.CodeFilePermission, filePath, err)
		}
		return nil, nil, errors.FileError(errors.CodeFileNotFound, filePath, err)
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	// Upstream exports occasionally pad or truncate rows.
	reader.FieldsPerRecord = -1

	return file, reader, nil
}

// rowToRecord converts one CSV row into the loosely-typed record shape the
// extractor consumes. Missing trailing cells become absent keys.
func rowToRecord(headers []string, row []string) map[string]interface{} {
	record := make(map[string]interface{}, len(headers))
	for i, header := range headers {
		if i >= len(row) {
			break
		}
		record[strings.TrimSpace(header)] = strings.TrimSpace(row[i])
	}
	return record
}

func emptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
