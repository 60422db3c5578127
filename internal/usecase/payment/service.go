// Package payment computes outstanding patient balances and applies
// patient payments against them. It holds no state of its own: every
// read and write goes through the ledger.
package payment

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// Ledger is the slice of the claim ledger this service needs.
type Ledger interface {
	GetClaim(claimID string) (domain.Claim, bool)
	GetProgress(claimID string) (domain.Progress, bool)
	GetRemittance(claimID string) (domain.Remittance, bool)
	GetPatientPayment(claimID string) domain.Money
	ClaimsByPatient(patientID domain.PatientID) []domain.Claim
	AddPatientPayment(claimID string, amount domain.Money) error
	MarkFullyPaid(claimID string, finalAmount domain.Money, closedAt time.Time) error
}

// Outcome is the business result of applying a patient payment. These
// are expected results, not errors: the transport layer returns them as
// typed response codes.
type Outcome string

const (
	// OutcomeFullyPaid: the payment exactly cleared the outstanding
	// balance and the claim is now closed.
	OutcomeFullyPaid Outcome = "FULLY_PAID"
	// OutcomePartiallyApplied: the payment was recorded and a balance
	// remains outstanding.
	OutcomePartiallyApplied Outcome = "PARTIALLY_APPLIED"
	// OutcomeNoOutstandingBalance: nothing is owed; no mutation.
	OutcomeNoOutstandingBalance Outcome = "NO_OUTSTANDING_BALANCE"
	// OutcomeAmountExceedsBalance: the payment was larger than the
	// outstanding balance and was refused outright; no mutation.
	OutcomeAmountExceedsBalance Outcome = "AMOUNT_EXCEEDS_BALANCE"
)

// Balance is a patient's outstanding obligation on a claim, split by
// obligation type.
type Balance struct {
	Copay       domain.Money `json:"copay"`
	Coinsurance domain.Money `json:"coinsurance"`
	Deductible  domain.Money `json:"deductible"`
}

// Total sums the three obligation buckets.
func (b Balance) Total() domain.Money {
	return b.Copay.Add(b.Coinsurance).Add(b.Deductible)
}

// Add combines two balances bucket by bucket.
func (b Balance) Add(other Balance) Balance {
	return Balance{
		Copay:       b.Copay.Add(other.Copay),
		Coinsurance: b.Coinsurance.Add(other.Coinsurance),
		Deductible:  b.Deductible.Add(other.Deductible),
	}
}

// PatientRow is one patient's accounts-receivable summary: the summed
// outstanding balance across their claims, and the ids of the claims
// that still carry a positive balance.
type PatientRow struct {
	PatientID domain.PatientID `json:"patient_id"`
	Balance   Balance          `json:"balance"`
	ClaimIDs  []string         `json:"claim_ids"`
}

// Service applies patient payments and answers balance queries.
type Service struct {
	ledger Ledger
	logger zerolog.Logger

	// Clock is swappable for tests.
	Clock func() time.Time
}

// NewService creates a payment service over the given ledger.
func NewService(ledger Ledger, logger zerolog.Logger) *Service {
	return &Service{
		ledger: ledger,
		logger: logger.With().Str("component", "payment").Logger(),
		Clock:  time.Now,
	}
}

// OutstandingBalance computes what the patient still owes on a claim.
// Before a remittance arrives the balance is zero: the patient owes
// nothing until the payer says so. Afterwards the running payment total
// is deducted from the remittance obligations in fixed priority order:
// copay first, then coinsurance, then deductible. The ordering is a
// business policy, not derivable from the data, and must not change.
func (s *Service) OutstandingBalance(claimID string) (Balance, error) {
	if _, ok := s.ledger.GetClaim(claimID); !ok {
		return Balance{}, fmt.Errorf("%w: %s", domain.ErrClaimNotFound, claimID)
	}
	remittance, ok := s.ledger.GetRemittance(claimID)
	if !ok {
		return Balance{}, nil
	}

	deduction := s.ledger.GetPatientPayment(claimID)
	copay, deduction := remittance.Copay.SubtractUntilZero(deduction)
	coinsurance, deduction := remittance.Coinsurance.SubtractUntilZero(deduction)
	deductible, _ := remittance.Deductible.SubtractUntilZero(deduction)

	return Balance{Copay: copay, Coinsurance: coinsurance, Deductible: deductible}, nil
}

// PayClaim applies a patient payment to a claim. Overpayment is refused
// rather than partially applied; an exact payoff closes the claim.
func (s *Service) PayClaim(claimID string, amount domain.Money) (Outcome, error) {
	balance, err := s.OutstandingBalance(claimID)
	if err != nil {
		return "", err
	}
	outstanding := balance.Total()
	if outstanding.LessThanOrEqual(domain.Zero) {
		return OutcomeNoOutstandingBalance, nil
	}

	remaining := outstanding.Sub(amount)
	switch {
	case remaining.GreaterThan(domain.Zero):
		if err := s.ledger.AddPatientPayment(claimID, amount); err != nil {
			return "", err
		}
		s.logger.Info().Str("claim_id", claimID).
			Str("amount", amount.String()).
			Str("remaining", remaining.String()).
			Msg("partial patient payment applied")
		return OutcomePartiallyApplied, nil

	case remaining.IsZero():
		// The stored total becomes the claim's full patient
		// responsibility: what was already paid plus this payoff.
		// Anything smaller would leave a phantom balance on a closed
		// claim.
		finalAmount := s.ledger.GetPatientPayment(claimID).Add(outstanding)
		if err := s.ledger.MarkFullyPaid(claimID, finalAmount, s.Clock()); err != nil {
			return "", err
		}
		s.logger.Info().Str("claim_id", claimID).
			Str("final_amount", finalAmount.String()).
			Msg("claim fully paid")
		return OutcomeFullyPaid, nil

	default:
		s.logger.Warn().Str("claim_id", claimID).
			Str("amount", amount.String()).
			Str("outstanding", outstanding.String()).
			Msg("payment exceeds outstanding balance, refused")
		return OutcomeAmountExceedsBalance, nil
	}
}

// PatientAccountsReceivable builds one row per requested patient. A
// patient with nothing outstanding still gets a row with zero balances;
// only claims carrying a positive balance are listed on the row.
func (s *Service) PatientAccountsReceivable(patientIDs []domain.PatientID) ([]PatientRow, error) {
	rows := make([]PatientRow, 0, len(patientIDs))
	for _, patientID := range patientIDs {
		row := PatientRow{PatientID: patientID, ClaimIDs: []string{}}
		for _, claim := range s.ledger.ClaimsByPatient(patientID) {
			balance, err := s.OutstandingBalance(claim.ClaimID)
			if err != nil {
				return nil, err
			}
			if balance.Total().GreaterThan(domain.Zero) {
				row.Balance = row.Balance.Add(balance)
				row.ClaimIDs = append(row.ClaimIDs, claim.ClaimID)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
