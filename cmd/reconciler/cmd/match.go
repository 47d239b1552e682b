package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"receipt-reconciliation-service/cmd/reconciler/config"
	"receipt-reconciliation-service/internal/reconciler"
	"receipt-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the match command
var (
	receiptFile     string
	transactionFile string
	outputFormat    string
	outputFile      string

	profile            string
	dateTolerance      int
	amountTolerance    float64
	amountTolerancePct float64
	minConfidence      float64

	detectSubscriptions bool
	renormalizeWeights  bool
	showBreakdown       bool
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match receipts against bank transactions",
	Long: `Match compares OCR receipt records with bank transaction records and
pairs each receipt with its most likely transaction.

This command requires:
- A receipt file (CSV or JSON)
- A transaction file (CSV or JSON)

Examples:
  # Basic matching
  reconciler match --receipts receipts.csv --transactions transactions.csv

  # JSON report written to a file
  reconciler match --receipts r.csv --transactions t.csv \
    --output-format json --output-file report.json

  # Loose tolerances and subscription detection
  reconciler match --receipts r.csv --transactions t.csv \
    --profile relaxed --detect-subscriptions`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVarP(&receiptFile, "receipts", "r", "", "path to receipt file, CSV or JSON (required)")
	matchCmd.Flags().StringVarP(&transactionFile, "transactions", "t", "", "path to transaction file, CSV or JSON (required)")

	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	matchCmd.Flags().StringVar(&profile, "profile", "default", "matching profile: default, strict, relaxed")
	matchCmd.Flags().IntVarP(&dateTolerance, "date-tolerance", "d", 0, "date matching tolerance in days (overrides profile)")
	matchCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0, "absolute amount tolerance (overrides profile)")
	matchCmd.Flags().Float64Var(&amountTolerancePct, "amount-tolerance-pct", 0, "relative amount tolerance 0.0-1.0 (overrides profile)")
	matchCmd.Flags().Float64VarP(&minConfidence, "min-confidence", "m", 0, "minimum composite score to accept a match (overrides profile)")

	matchCmd.Flags().BoolVar(&detectSubscriptions, "detect-subscriptions", false, "flag unmatched transactions that look like subscriptions")
	matchCmd.Flags().BoolVar(&renormalizeWeights, "renormalize-weights", false, "rescale component weights to sum to 1.0")
	matchCmd.Flags().BoolVar(&showBreakdown, "score-breakdown", false, "include per-component scores in the report")

	matchCmd.MarkFlagRequired("receipts")
	matchCmd.MarkFlagRequired("transactions")

	viper.BindPFlag("receipts", matchCmd.Flags().Lookup("receipts"))
	viper.BindPFlag("transactions", matchCmd.Flags().Lookup("transactions"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("profile", matchCmd.Flags().Lookup("profile"))
	viper.BindPFlag("date-tolerance", matchCmd.Flags().Lookup("date-tolerance"))
	viper.BindPFlag("amount-tolerance", matchCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("amount-tolerance-pct", matchCmd.Flags().Lookup("amount-tolerance-pct"))
	viper.BindPFlag("min-confidence", matchCmd.Flags().Lookup("min-confidence"))
	viper.BindPFlag("detect-subscriptions", matchCmd.Flags().Lookup("detect-subscriptions"))
	viper.BindPFlag("renormalize-weights", matchCmd.Flags().Lookup("renormalize-weights"))
	viper.BindPFlag("score-breakdown", matchCmd.Flags().Lookup("score-breakdown"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(receiptFile); err != nil {
		return fmt.Errorf("receipt file not accessible: %s", receiptFile)
	}
	if _, err := os.Stat(transactionFile); err != nil {
		return fmt.Errorf("transaction file not accessible: %s", transactionFile)
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return fmt.Errorf("invalid output format: %s (supported: console, json, csv)", outputFormat)
	}

	matchConfig, err := config.CreateMatcherConfig(profile, config.MatcherOverrides{
		DateToleranceDays:       dateTolerance,
		AmountToleranceAbsolute: amountTolerance,
		AmountTolerancePercent:  amountTolerancePct,
		MinConfidence:           minConfidence,
		RenormalizeWeights:      renormalizeWeights,
	})
	if err != nil {
		return err
	}
	return matchConfig.Validate()
}

func runMatch(cmd *cobra.Command, args []string) error {
	matchConfig, err := config.CreateMatcherConfig(profile, config.MatcherOverrides{
		DateToleranceDays:       dateTolerance,
		AmountToleranceAbsolute: amountTolerance,
		AmountTolerancePercent:  amountTolerancePct,
		MinConfidence:           minConfidence,
		RenormalizeWeights:      renormalizeWeights,
	})
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(matchConfig)
	if err != nil {
		return err
	}

	result, err := service.Run(context.Background(), &reconciler.Request{
		ReceiptFile:         receiptFile,
		TransactionFile:     transactionFile,
		DetectSubscriptions: detectSubscriptions,
	})
	if err != nil {
		return err
	}

	generator, err := reporter.NewGenerator(config.CreateReportConfig(outputFormat, showBreakdown))
	if err != nil {
		return err
	}

	writer, closeWriter, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeWriter()

	return generator.Generate(result, writer)
}

// openOutput returns the report destination and a close function. An empty
// path means stdout.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot create output file %s: %w", path, err)
	}
	return file, func() { file.Close() }, nil
}
