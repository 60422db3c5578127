// Package receivable aggregates the billable value of claims still
// awaiting payer remittance into time buckets keyed by claim age.
package receivable

import (
	"time"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// Ledger is the slice of the claim ledger this service needs.
type Ledger interface {
	ClaimsByPayer(payerID domain.PayerID) []domain.Claim
	PendingClaimIDs() map[string]struct{}
	GetProgress(claimID string) (domain.Progress, bool)
	Payers() []domain.PayerID
}

// Bucket is a time window relative to request time. StartSecondsAgo is
// the older edge (0 means unbounded past, i.e. epoch) and EndSecondsAgo
// the newer edge (0 means now). Callers are responsible for supplying
// non-overlapping buckets; the service does not validate overlap.
type Bucket struct {
	StartSecondsAgo int64 `json:"start_seconds_ago"`
	EndSecondsAgo   int64 `json:"end_seconds_ago"`
}

// window resolves the bucket against a concrete instant. Claims are in
// the bucket when lower <= submittedAt < upper.
func (b Bucket) window(now time.Time) (lower, upper time.Time) {
	lower = time.Unix(0, 0)
	if b.StartSecondsAgo > 0 {
		lower = now.Add(-time.Duration(b.StartSecondsAgo) * time.Second)
	}
	upper = now
	if b.EndSecondsAgo > 0 {
		upper = now.Add(-time.Duration(b.EndSecondsAgo) * time.Second)
	}
	return lower, upper
}

// BucketValue is the billable amount a payer owes within one bucket.
type BucketValue struct {
	Bucket Bucket       `json:"bucket"`
	Amount domain.Money `json:"amount"`
}

// PayerRow is one payer's accounts-receivable summary across buckets.
type PayerRow struct {
	PayerID      domain.PayerID `json:"payer_id"`
	BucketValues []BucketValue  `json:"bucket_values"`
}

// Service answers payer accounts-receivable queries.
type Service struct {
	ledger Ledger

	// Clock is swappable for tests.
	Clock func() time.Time
}

// NewService creates a receivable service over the given ledger.
func NewService(ledger Ledger) *Service {
	return &Service{ledger: ledger, Clock: time.Now}
}

// PayerAccountsReceivable returns one row per payer. Only claims still
// awaiting a remittance count toward receivables, and only their
// billable charge (unit charge x units, do-not-bill lines excluded). A
// payer explicitly requested but owing nothing gets a row of zero
// bucket values, not an absent row. An empty payer filter means every
// payer the ledger knows; an empty bucket list means one bucket
// covering all time.
func (s *Service) PayerAccountsReceivable(payerIDs []domain.PayerID, buckets []Bucket) []PayerRow {
	if len(payerIDs) == 0 {
		payerIDs = s.ledger.Payers()
	}
	if len(buckets) == 0 {
		buckets = []Bucket{{}}
	}
	now := s.Clock()
	pending := s.ledger.PendingClaimIDs()

	rows := make([]PayerRow, 0, len(payerIDs))
	for _, payerID := range payerIDs {
		var pendingClaims []domain.Claim
		for _, claim := range s.ledger.ClaimsByPayer(payerID) {
			if _, ok := pending[claim.ClaimID]; ok {
				pendingClaims = append(pendingClaims, claim)
			}
		}
		row := PayerRow{PayerID: payerID, BucketValues: make([]BucketValue, 0, len(buckets))}
		for _, bucket := range buckets {
			row.BucketValues = append(row.BucketValues, BucketValue{
				Bucket: bucket,
				Amount: s.bucketAmount(pendingClaims, bucket, now),
			})
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Service) bucketAmount(claims []domain.Claim, bucket Bucket, now time.Time) domain.Money {
	lower, upper := bucket.window(now)
	amount := domain.Zero
	for _, claim := range claims {
		progress, ok := s.ledger.GetProgress(claim.ClaimID)
		if !ok {
			continue
		}
		submittedAt := progress.SubmittedAt
		if submittedAt.Before(lower) || !submittedAt.Before(upper) {
			continue
		}
		amount = amount.Add(claim.BillableTotal())
	}
	return amount
}
