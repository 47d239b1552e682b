// Package reporter renders reconciliation results as console text, JSON, or
// CSV.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"receipt-reconciliation-service/internal/reconciler"
)

// OutputFormat selects the report rendering.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid reports whether the format is one of the supported renderings.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	}
	return false
}

// Config controls report content and formatting.
type Config struct {
	Format OutputFormat

	IncludeMatches               bool
	IncludeUnmatchedReceipts     bool
	IncludeUnmatchedTransactions bool
	IncludeSubscriptions         bool
	IncludeScoreBreakdown        bool

	CSVDelimiter rune
	CSVHeaders   bool
}

// DefaultConfig returns a console report configuration with all sections
// enabled.
func DefaultConfig() *Config {
	return &Config{
		Format:                       FormatConsole,
		IncludeMatches:               true,
		IncludeUnmatchedReceipts:     true,
		IncludeUnmatchedTransactions: true,
		IncludeSubscriptions:         true,
		IncludeScoreBreakdown:        false,
		CSVDelimiter:                 ',',
		CSVHeaders:                   true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("CSV delimiter cannot be empty")
	}
	return nil
}

// Generator renders reconciliation results.
type Generator struct {
	config *Config
}

// NewGenerator creates a report generator. A nil config uses the defaults.
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config}, nil
}

// Generate writes the result to the writer in the configured format.
func (g *Generator) Generate(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("cannot generate report from nil result")
	}

	switch g.config.Format {
	case FormatConsole:
		return g.generateConsole(result, writer)
	case FormatJSON:
		return g.generateJSON(result, writer)
	case FormatCSV:
		return g.generateCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", g.config.Format)
	}
}

func (g *Generator) generateConsole(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "RECEIPT RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", time.Now().Format(time.RFC3339))
	if result.Duration > 0 {
		fmt.Fprintf(writer, "Processing Duration: %v\n", result.Duration)
	}
	fmt.Fprintf(writer, "\n=== SUMMARY ===\n")
	g.printSummary(result.Summary, writer)

	if g.config.IncludeMatches && len(result.Matches) > 0 {
		fmt.Fprintf(writer, "\n=== MATCHES ===\n")
		for _, match := range result.Matches {
			fmt.Fprintf(writer, "  %s -> %s  %.3f  %s\n",
				match.ReceiptID, match.TransactionID, match.Confidence, match.MatchType)
			fmt.Fprintf(writer, "    %s\n", match.Reasoning)
			if g.config.IncludeScoreBreakdown {
				fmt.Fprintf(writer, "    fuzzy=%.2f semantic=%.2f date=%.2f amount=%.2f\n",
					match.ScoreBreakdown["fuzzy"], match.ScoreBreakdown["semantic"],
					match.ScoreBreakdown["date"], match.ScoreBreakdown["amount"])
			}
		}
	}

	if g.config.IncludeUnmatchedReceipts && len(result.UnmatchedReceipts) > 0 {
		fmt.Fprintf(writer, "\n=== UNMATCHED RECEIPTS ===\n")
		for _, receipt := range result.UnmatchedReceipts {
			fmt.Fprintf(writer, "  %s\n", receipt.String())
		}
	}

	if g.config.IncludeUnmatchedTransactions && len(result.UnmatchedTransactions) > 0 {
		fmt.Fprintf(writer, "\n=== UNMATCHED TRANSACTIONS ===\n")
		for _, txn := range result.UnmatchedTransactions {
			fmt.Fprintf(writer, "  %s\n", txn.String())
		}
	}

	if g.config.IncludeSubscriptions && len(result.Subscriptions) > 0 {
		fmt.Fprintf(writer, "\n=== LIKELY SUBSCRIPTIONS ===\n")
		for _, candidate := range result.Subscriptions {
			fmt.Fprintf(writer, "  %s  probability=%.2f\n",
				candidate.Transaction.String(), candidate.Probability)
		}
	}

	return nil
}

func (g *Generator) printSummary(summary *reconciler.Summary, writer io.Writer) {
	if summary == nil {
		return
	}
	fmt.Fprintf(writer, "Receipts:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalReceipts)
	fmt.Fprintf(writer, "  Matched:   %d (%.1f%%)\n", summary.MatchedCount, summary.MatchRate*100)
	fmt.Fprintf(writer, "  Unmatched: %d\n", summary.UnmatchedReceipts)
	fmt.Fprintf(writer, "Transactions:\n")
	fmt.Fprintf(writer, "  Total:     %d\n", summary.TotalTransactions)
	fmt.Fprintf(writer, "  Unmatched: %d\n", summary.UnmatchedTransactions)
	fmt.Fprintf(writer, "Match quality:\n")
	fmt.Fprintf(writer, "  High confidence: %d\n", summary.HighConfidenceCount)
	fmt.Fprintf(writer, "  Good:            %d\n", summary.GoodMatchCount)
	fmt.Fprintf(writer, "  Possible:        %d\n", summary.PossibleMatchCount)
}

func (g *Generator) generateJSON(result *reconciler.Result, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(g.filterForOutput(result))
}

// filterForOutput applies the include flags to the JSON rendering.
func (g *Generator) filterForOutput(result *reconciler.Result) map[string]interface{} {
	out := map[string]interface{}{
		"summary": result.Summary,
	}
	if g.config.IncludeMatches {
		matches := make([]map[string]interface{}, len(result.Matches))
		for i, match := range result.Matches {
			matches[i] = match.ToMap()
			if !g.config.IncludeScoreBreakdown {
				delete(matches[i], "score_breakdown")
			}
		}
		out["matches"] = matches
	}
	if g.config.IncludeUnmatchedReceipts {
		out["unmatched_receipts"] = result.UnmatchedReceipts
	}
	if g.config.IncludeUnmatchedTransactions {
		out["unmatched_transactions"] = result.UnmatchedTransactions
	}
	if g.config.IncludeSubscriptions && len(result.Subscriptions) > 0 {
		out["subscriptions"] = result.Subscriptions
	}
	return out
}

func (g *Generator) generateCSV(result *reconciler.Result, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = g.config.CSVDelimiter
	defer csvWriter.Flush()

	if g.config.CSVHeaders {
		headers := []string{
			"Type",
			"Receipt_ID",
			"Transaction_ID",
			"Merchant",
			"Amount",
			"Date",
			"Confidence",
			"Match_Type",
			"Notes",
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	if g.config.IncludeMatches {
		for _, match := range result.Matches {
			record := []string{
				"Match",
				match.ReceiptID,
				match.TransactionID,
				"",
				"",
				"",
				fmt.Sprintf("%.3f", match.Confidence),
				string(match.MatchType),
				match.Reasoning,
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write match record: %w", err)
			}
		}
	}

	if g.config.IncludeUnmatchedReceipts {
		for _, receipt := range result.UnmatchedReceipts {
			record := []string{
				"Unmatched Receipt",
				receipt.ID,
				"",
				receipt.Merchant,
				receipt.Amount.String(),
				formatDate(receipt.Date),
				"",
				"",
				"No matching transaction found",
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write receipt record: %w", err)
			}
		}
	}

	if g.config.IncludeUnmatchedTransactions {
		for _, txn := range result.UnmatchedTransactions {
			record := []string{
				"Unmatched Transaction",
				"",
				txn.ID,
				txn.Merchant,
				txn.Amount.String(),
				formatDate(txn.Date),
				"",
				"",
				"No matching receipt found",
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write transaction record: %w", err)
			}
		}
	}

	return nil
}

func formatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
