// Package submission orchestrates the two ledger entry points that
// involve the external payer gateway: submitting a claim and ingesting
// the remittance that eventually comes back.
package submission

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielglasgow/bracehealth/internal/clearinghouse"
	"github.com/danielglasgow/bracehealth/internal/domain"
)

// Ledger is the slice of the claim ledger this service needs.
type Ledger interface {
	ContainsClaim(claimID string) bool
	AddClaim(claim domain.Claim, submittedAt time.Time) error
	AddResponse(claimID string, remittance domain.Remittance, receivedAt time.Time) error
}

// Result is the business outcome of a claim submission.
type Result string

const (
	// ResultAccepted: the gateway accepted the claim and the ledger
	// recorded it.
	ResultAccepted Result = "ACCEPTED"
	// ResultAlreadySubmitted: the claim id is already in the ledger.
	ResultAlreadySubmitted Result = "ALREADY_SUBMITTED"
	// ResultRejected: the gateway refused the claim or could not be
	// reached; the ledger was not touched.
	ResultRejected Result = "REJECTED"
)

// Service submits claims through the gateway and ingests remittances.
type Service struct {
	ledger  Ledger
	gateway clearinghouse.Client
	logger  zerolog.Logger

	// Clock is swappable for tests.
	Clock func() time.Time
}

// NewService creates a submission service.
func NewService(ledger Ledger, gateway clearinghouse.Client, logger zerolog.Logger) *Service {
	return &Service{
		ledger:  ledger,
		gateway: gateway,
		logger:  logger.With().Str("component", "submission").Logger(),
		Clock:   time.Now,
	}
}

// SubmitClaim validates the claim, forwards it to the gateway, and
// records it in the ledger only once the gateway has accepted it.
// Gateway rejection or transport failure means the claim was never
// submitted: the ledger stays untouched and the caller may retry.
func (s *Service) SubmitClaim(ctx context.Context, claim domain.Claim) (Result, error) {
	if err := claim.Validate(); err != nil {
		return "", err
	}
	s.logger.Info().Str("claim_id", claim.ClaimID).Msg("claim submission received")

	if s.ledger.ContainsClaim(claim.ClaimID) {
		s.logger.Warn().Str("claim_id", claim.ClaimID).Msg("claim already submitted")
		return ResultAlreadySubmitted, nil
	}

	if err := s.gateway.SubmitClaim(ctx, claim); err != nil {
		s.logger.Error().Err(err).Str("claim_id", claim.ClaimID).Msg("clearinghouse rejected claim")
		return ResultRejected, nil
	}

	if err := s.ledger.AddClaim(claim, s.Clock()); err != nil {
		// A concurrent submission can win the race between the
		// ContainsClaim check and the insert; that is still a
		// duplicate, not a failure.
		if domain.IsDuplicateClaim(err) {
			return ResultAlreadySubmitted, nil
		}
		return "", err
	}
	return ResultAccepted, nil
}

// NotifyRemittance records a payer's adjudication against its claim.
// Implements clearinghouse.RemittanceSink.
func (s *Service) NotifyRemittance(remittance domain.Remittance) error {
	s.logger.Info().Str("claim_id", remittance.ClaimID).Msg("remittance received")
	return s.ledger.AddResponse(remittance.ClaimID, remittance, s.Clock())
}
