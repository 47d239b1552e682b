// Command fixture_generator produces paired receipt and transaction CSV
// fixtures for manual testing and benchmarking. A configurable fraction of
// receipts gets a corresponding transaction with realistic merchant noise
// (POS prefixes, store numbers, sign flips) so match rates are predictable.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// merchantPairs maps a clean receipt merchant to the noisy form banks
// typically report.
var merchantPairs = [][2]string{
	{"STARBUCKS", "STARBUCKS STORE #%d"},
	{"WALMART", "WAL-MART SUPERCENTER #%d"},
	{"TARGET", "TARGET T-%d"},
	{"AMAZON", "AMZN MKTP US*%d"},
	{"NETFLIX", "NETFLIX.COM"},
	{"SPOTIFY", "SPOTIFY USA"},
	{"CHIPOTLE", "CHIPOTLE %d"},
	{"SHELL", "SHELL OIL #%d"},
	{"GREEN HILLS GRILLE", "TST* GREEN HILLS GRILLE"},
	{"WHOLE FOODS", "WHOLEFDS MKT #%d"},
}

type generator struct {
	rng       *rand.Rand
	startDate time.Time
	spanDays  int
}

type fixtureRow struct {
	receipt     []string
	transaction []string
}

func main() {
	var (
		receiptOut     = flag.String("receipts", "sample_receipts.csv", "Receipt CSV output path")
		transactionOut = flag.String("transactions", "sample_transactions.csv", "Transaction CSV output path")
		count          = flag.Int("count", 200, "Number of receipts to generate")
		matchRate      = flag.Float64("match-rate", 0.85, "Fraction of receipts with a matching transaction")
		startDate      = flag.String("start-date", "2025-01-01", "Start date (YYYY-MM-DD)")
		spanDays       = flag.Int("span-days", 180, "Date span in days")
		seed           = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}

	gen := &generator{
		rng:       rand.New(rand.NewSource(*seed)),
		startDate: start,
		spanDays:  *spanDays,
	}

	var receipts, transactions [][]string
	matched := 0
	for i := 0; i < *count; i++ {
		row := gen.generate(i, gen.rng.Float64() < *matchRate)
		receipts = append(receipts, row.receipt)
		if row.transaction != nil {
			transactions = append(transactions, row.transaction)
			matched++
		}
	}

	// Unmatched bank-side noise, including a recurring charge for
	// subscription detection runs.
	transactions = append(transactions, gen.recurringCharges("NETFLIX.COM", 15.49, 5)...)

	if err := writeCSV(*receiptOut, []string{"id", "merchant", "amount", "date", "confidence"}, receipts); err != nil {
		log.Fatalf("Failed to write receipts: %v", err)
	}
	if err := writeCSV(*transactionOut, []string{"id", "description", "amount", "date"}, transactions); err != nil {
		log.Fatalf("Failed to write transactions: %v", err)
	}

	fmt.Printf("Generated %d receipts (%d matchable) and %d transactions\n",
		len(receipts), matched, len(transactions))
	fmt.Printf("Seed used: %d\n", *seed)
}

func (g *generator) generate(i int, matchable bool) fixtureRow {
	pair := merchantPairs[g.rng.Intn(len(merchantPairs))]
	amount := decimal.NewFromFloat(1.0 + g.rng.Float64()*199.0).Round(2)
	date := g.startDate.AddDate(0, 0, g.rng.Intn(g.spanDays))
	confidence := 0.7 + g.rng.Float64()*0.3

	row := fixtureRow{
		receipt: []string{
			fmt.Sprintf("r-%04d", i),
			pair[0],
			amount.String(),
			date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", confidence),
		},
	}
	if !matchable {
		return row
	}

	noisy := pair[1]
	if containsVerb(noisy) {
		noisy = fmt.Sprintf(noisy, 100+g.rng.Intn(9000))
	}

	// Bank records settle a day or two late and report debits negative.
	settleDate := date.AddDate(0, 0, g.rng.Intn(3))
	row.transaction = []string{
		fmt.Sprintf("t-%04d", i),
		noisy,
		amount.Neg().String(),
		settleDate.Format("2006-01-02"),
	}
	return row
}

// recurringCharges emits monthly charges for one merchant.
func (g *generator) recurringCharges(merchant string, amount float64, months int) [][]string {
	value := decimal.NewFromFloat(amount)
	rows := make([][]string, 0, months)
	for i := 0; i < months; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("sub-%s-%02d", merchant[:3], i),
			merchant,
			value.Neg().String(),
			g.startDate.AddDate(0, i, g.rng.Intn(3)).Format("2006-01-02"),
		})
	}
	return rows
}

func containsVerb(format string) bool {
	for i := 0; i+1 < len(format); i++ {
		if format[i] == '%' && format[i+1] == 'd' {
			return true
		}
	}
	return false
}

func writeCSV(path string, headers []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}
