// Package subscription scores transactions for the likelihood that they are
// recurring subscription charges. Scoring is additive over independent
// signals and never consults storage directly; the transaction history is an
// injected collaborator so the detector can be tested with an in-memory
// fake.
package subscription

import (
	"strings"
	"time"

	"receipt-reconciliation-service/internal/history"
	"receipt-reconciliation-service/internal/models"

	"github.com/shopspring/decimal"
)

// Signal weights and interval bounds for the additive score.
const (
	merchantListWeight = 0.6
	amountMatchWeight  = 0.3
	intervalWeight     = 0.3
	keywordWeight      = 0.2

	// Consecutive-charge gaps inside this window count as monthly.
	minIntervalDays = 25
	maxIntervalDays = 35

	// How far back the history lookup reaches.
	historyWindow = 6 * 30 * 24 * time.Hour

	amountMatchTolerance = 0.01
)

// DefaultMerchants lists merchant substrings treated as known subscription
// providers. Matching is case-insensitive substring containment.
var DefaultMerchants = []string{
	"NETFLIX",
	"SPOTIFY",
	"HULU",
	"DISNEY",
	"HBO",
	"YOUTUBE",
	"AMAZON PRIME",
	"APPLE.COM",
	"ICLOUD",
	"ADOBE",
	"DROPBOX",
	"GITHUB",
	"OPENAI",
	"CLAUDE.AI",
	"ANTHROPIC",
	"AUDIBLE",
	"PELOTON",
	"PLANET FITNESS",
	"NYTIMES",
	"PATREON",
}

// DefaultAmounts lists common recurring charge amounts. A transaction whose
// absolute amount lands within one cent of any entry gains the amount
// signal.
var DefaultAmounts = []float64{
	4.99, 5.99, 7.99, 9.99, 10.99, 11.99, 12.99, 13.99, 14.99, 16.99,
	17.99, 19.99, 22.99, 24.99, 29.99, 49.99, 99.00, 139.00,
}

var keywords = []string{
	"SUBSCRIPTION",
	"MONTHLY",
	"ANNUAL",
	"RECURRING",
	"PLAN",
	"PREMIUM",
}

// Detector scores transactions for subscription likelihood. The clock is
// injectable so interval checks are deterministic in tests.
type Detector struct {
	history   history.Lookup
	merchants []string
	amounts   []decimal.Decimal
	now       func() time.Time
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the detector's time source.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithMerchants replaces the known-subscription-merchant list.
func WithMerchants(merchants []string) Option {
	return func(d *Detector) {
		d.merchants = make([]string, len(merchants))
		for i, m := range merchants {
			d.merchants[i] = strings.ToUpper(m)
		}
	}
}

// WithAmounts replaces the known recurring-amount list.
func WithAmounts(amounts []float64) Option {
	return func(d *Detector) { d.amounts = toDecimals(amounts) }
}

// NewDetector creates a detector over the given history lookup. A nil
// lookup disables the interval signal but the remaining signals still
// apply.
func NewDetector(lookup history.Lookup, opts ...Option) *Detector {
	d := &Detector{
		history:   lookup,
		merchants: DefaultMerchants,
		amounts:   toDecimals(DefaultAmounts),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func toDecimals(amounts []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(amounts))
	for i, a := range amounts {
		out[i] = decimal.NewFromFloat(a)
	}
	return out
}

// Probability returns the subscription likelihood for a transaction in
// [0,1]. Signals are additive:
//
//	+0.6 merchant appears in the known-subscription list
//	+0.3 amount matches a known recurring amount within one cent
//	+0.3 x interval score from same-merchant history over 6 months
//	+0.2 merchant text contains a subscription keyword
//
// The interval score needs at least two gaps in the 25-35 day window for its
// full 0.9 value; a single such gap scores 0.6.
func (d *Detector) Probability(txn *models.Transaction) float64 {
	if txn == nil {
		return 0.0
	}

	merchant := strings.ToUpper(txn.Merchant)
	score := 0.0

	for _, known := range d.merchants {
		if strings.Contains(merchant, known) {
			score += merchantListWeight
			break
		}
	}

	amount := txn.Amount.Abs()
	tolerance := decimal.NewFromFloat(amountMatchTolerance)
	for _, known := range d.amounts {
		if amount.Sub(known).Abs().LessThanOrEqual(tolerance) {
			score += amountMatchWeight
			break
		}
	}

	score += intervalWeight * d.intervalScore(txn)

	for _, keyword := range keywords {
		if strings.Contains(merchant, keyword) {
			score += keywordWeight
			break
		}
	}

	if score > 1.0 {
		return 1.0
	}
	return score
}

// intervalScore checks whether the merchant's recent charges recur on a
// roughly monthly cadence.
func (d *Detector) intervalScore(txn *models.Transaction) float64 {
	if d.history == nil {
		return 0.0
	}

	since := d.now().Add(-historyWindow)
	prior := d.history.TransactionsSince(txn.Merchant, since)
	if len(prior) < 2 {
		return 0.0
	}

	monthlyGaps := 0
	for i := 1; i < len(prior); i++ {
		gap := models.DaysBetween(prior[i-1].Date, prior[i].Date)
		if gap >= minIntervalDays && gap <= maxIntervalDays {
			monthlyGaps++
		}
	}

	switch {
	case monthlyGaps >= 2:
		return 0.9
	case monthlyGaps >= 1:
		return 0.6
	default:
		return 0.0
	}
}
