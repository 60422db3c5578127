package domain

import (
	"fmt"
	"time"
)

// ClaimStatus is the lifecycle stage of a claim. The progression is
// strictly Submitted -> RemittanceReceived -> Closed; there is no path
// backward and no path that skips a stage.
type ClaimStatus string

const (
	StatusSubmitted          ClaimStatus = "SUBMITTED"
	StatusRemittanceReceived ClaimStatus = "REMITTANCE_RECEIVED"
	StatusClosed             ClaimStatus = "CLOSED"
)

// Progress tracks when a claim moved through its lifecycle. Timestamps
// are filled in monotonically: a zero ResponseReceivedAt or ClosedAt
// means the claim has not reached that stage. Values are replaced, never
// mutated, so snapshots handed to callers stay stable.
type Progress struct {
	ClaimID            string    `json:"claim_id"`
	SubmittedAt        time.Time `json:"submitted_at"`
	ResponseReceivedAt time.Time `json:"response_received_at"`
	ClosedAt           time.Time `json:"closed_at"`
}

// NewProgress records a freshly submitted claim.
func NewProgress(claimID string, submittedAt time.Time) Progress {
	return Progress{ClaimID: claimID, SubmittedAt: submittedAt}
}

// Status derives the lifecycle stage from which timestamps are set.
func (p Progress) Status() ClaimStatus {
	switch {
	case !p.ClosedAt.IsZero():
		return StatusClosed
	case !p.ResponseReceivedAt.IsZero():
		return StatusRemittanceReceived
	default:
		return StatusSubmitted
	}
}

// WithResponseReceived advances Submitted -> RemittanceReceived.
func (p Progress) WithResponseReceived(at time.Time) (Progress, error) {
	if !p.ResponseReceivedAt.IsZero() {
		return p, fmt.Errorf("%w: claim %s already has a remittance", ErrInvalidState, p.ClaimID)
	}
	p.ResponseReceivedAt = at
	return p, nil
}

// WithClosed advances RemittanceReceived -> Closed. Closing a claim that
// has not been remitted is invalid: there is nothing for the patient to
// have paid off.
func (p Progress) WithClosed(at time.Time) (Progress, error) {
	if p.ResponseReceivedAt.IsZero() {
		return p, fmt.Errorf("%w: claim %s cannot close before a remittance is received", ErrInvalidState, p.ClaimID)
	}
	if !p.ClosedAt.IsZero() {
		return p, fmt.Errorf("%w: claim %s is already closed", ErrInvalidState, p.ClaimID)
	}
	p.ClosedAt = at
	return p, nil
}
