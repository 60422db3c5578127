// Package ledger owns the canonical in-memory record of every claim the
// service has accepted: the claim itself, its lifecycle progress, its
// remittance once adjudicated, and the running total of patient
// payments toward it. Secondary indices (by patient, by payer, pending
// sets) hold claim ids only and are kept consistent with the primary
// map under a single store-wide mutex, so no caller can observe a claim
// half-inserted. Nothing is ever deleted; the ledger is append/update
// only for the lifetime of the process.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// Store is the claim ledger. All exported methods are safe for
// concurrent use.
type Store struct {
	mu sync.RWMutex

	claims      map[string]domain.Claim
	progress    map[string]domain.Progress
	remittances map[string]domain.Remittance
	payments    map[string]domain.Money

	byPatient map[domain.PatientID][]string
	byPayer   map[domain.PayerID][]string

	// remitPending holds claims awaiting payer adjudication; payPending
	// holds adjudicated claims awaiting full patient payment.
	remitPending map[string]struct{}
	payPending   map[string]struct{}

	logger zerolog.Logger
}

// New returns an empty ledger.
func New(logger zerolog.Logger) *Store {
	return &Store{
		claims:       make(map[string]domain.Claim),
		progress:     make(map[string]domain.Progress),
		remittances:  make(map[string]domain.Remittance),
		payments:     make(map[string]domain.Money),
		byPatient:    make(map[domain.PatientID][]string),
		byPayer:      make(map[domain.PayerID][]string),
		remitPending: make(map[string]struct{}),
		payPending:   make(map[string]struct{}),
		logger:       logger.With().Str("component", "ledger").Logger(),
	}
}

// ContainsClaim reports whether the claim id is known. If the claim is
// present in the primary map, its companion entries are verified; a
// partial record means an insert invariant was broken and the store
// panics rather than report a corrupt claim as valid.
func (s *Store) ContainsClaim(claimID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.claims[claimID]; !ok {
		return false
	}
	s.verifyConsistentLocked(claimID)
	return true
}

// AddClaim inserts a claim and its initial progress record atomically.
// The duplicate check covers every map the ledger maintains, not just
// the primary one, so a partially-written record from a past defect is
// caught loudly instead of being silently overwritten.
func (s *Store) AddClaim(claim domain.Claim, submittedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkClaimAbsentLocked(claim); err != nil {
		return err
	}

	id := claim.ClaimID
	s.claims[id] = claim
	s.progress[id] = domain.NewProgress(id, submittedAt)
	s.remitPending[id] = struct{}{}
	s.byPatient[claim.Patient.ID()] = append(s.byPatient[claim.Patient.ID()], id)
	s.byPayer[claim.PayerID] = append(s.byPayer[claim.PayerID], id)

	s.logger.Info().Str("claim_id", id).Str("payer_id", string(claim.PayerID)).Msg("claim recorded")
	return nil
}

// AddResponse records the payer's remittance for a claim and moves it
// from the remittance-pending set to the patient-payment-pending set.
// A second remittance for the same claim is an ErrInvalidState error:
// a payer does not re-adjudicate.
func (s *Store) AddResponse(claimID string, remittance domain.Remittance, receivedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrClaimNotFound, claimID)
	}
	if _, ok := s.remittances[claimID]; ok {
		return fmt.Errorf("%w: claim %s already has a remittance", domain.ErrInvalidState, claimID)
	}

	updated, err := s.progress[claimID].WithResponseReceived(receivedAt)
	if err != nil {
		return err
	}
	s.progress[claimID] = updated
	s.remittances[claimID] = remittance
	delete(s.remitPending, claimID)
	s.payPending[claimID] = struct{}{}

	s.logger.Info().Str("claim_id", claimID).Msg("remittance recorded")
	return nil
}

// AddPatientPayment accumulates a payment into the claim's running
// patient payment total, creating the total at zero if absent.
func (s *Store) AddPatientPayment(claimID string, amount domain.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrClaimNotFound, claimID)
	}
	s.payments[claimID] = s.payments[claimID].Add(amount)
	return nil
}

// MarkFullyPaid closes a claim. finalAmount is the claim's total patient
// responsibility and replaces (does not add to) the stored payment
// total. The claim leaves the patient-payment-pending set.
func (s *Store) MarkFullyPaid(claimID string, finalAmount domain.Money, closedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrClaimNotFound, claimID)
	}
	updated, err := s.progress[claimID].WithClosed(closedAt)
	if err != nil {
		return err
	}
	s.progress[claimID] = updated
	s.payments[claimID] = finalAmount
	delete(s.payPending, claimID)

	s.logger.Info().Str("claim_id", claimID).Str("final_amount", finalAmount.String()).Msg("claim closed")
	return nil
}

// GetClaim returns the claim for an id.
func (s *Store) GetClaim(claimID string) (domain.Claim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[claimID]
	return c, ok
}

// GetProgress returns the claim's lifecycle progress.
func (s *Store) GetProgress(claimID string) (domain.Progress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[claimID]
	return p, ok
}

// GetRemittance returns the claim's remittance, if one has arrived.
func (s *Store) GetRemittance(claimID string) (domain.Remittance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.remittances[claimID]
	return r, ok
}

// GetPatientPayment returns the running patient payment total for a
// claim, defaulting to zero when no payment has been recorded.
func (s *Store) GetPatientPayment(claimID string) domain.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payments[claimID]
}

// ClaimsByPatient returns the patient's claims in submission order.
func (s *Store) ClaimsByPatient(patientID domain.PatientID) []domain.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.byPatient[patientID])
}

// ClaimsByPayer returns the payer's claims in submission order.
func (s *Store) ClaimsByPayer(payerID domain.PayerID) []domain.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collectLocked(s.byPayer[payerID])
}

// PendingClaimIDs returns a snapshot of the claims still awaiting a
// payer remittance.
func (s *Store) PendingClaimIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := make(map[string]struct{}, len(s.remitPending))
	for id := range s.remitPending {
		pending[id] = struct{}{}
	}
	return pending
}

// PendingClaims returns a snapshot of the claims still awaiting a payer
// remittance.
func (s *Store) PendingClaims() []domain.Claim {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claims := make([]domain.Claim, 0, len(s.remitPending))
	for id := range s.remitPending {
		claims = append(claims, s.claims[id])
	}
	return claims
}

// Patients returns every patient the ledger has claims for.
func (s *Store) Patients() []domain.PatientID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]domain.PatientID, 0, len(s.byPatient))
	for id := range s.byPatient {
		ids = append(ids, id)
	}
	return ids
}

// Payers returns every payer the ledger has claims for.
func (s *Store) Payers() []domain.PayerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]domain.PayerID, 0, len(s.byPayer))
	for id := range s.byPayer {
		ids = append(ids, id)
	}
	return ids
}

// ClaimCount returns the number of claims in the ledger.
func (s *Store) ClaimCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

func (s *Store) collectLocked(ids []string) []domain.Claim {
	claims := make([]domain.Claim, 0, len(ids))
	for _, id := range ids {
		claims = append(claims, s.claims[id])
	}
	return claims
}

// checkClaimAbsentLocked rejects an insert when the claim id appears in
// any tracked map. Requires the write lock.
func (s *Store) checkClaimAbsentLocked(claim domain.Claim) error {
	id := claim.ClaimID
	for _, ids := range [][]string{s.byPatient[claim.Patient.ID()], s.byPayer[claim.PayerID]} {
		for _, existing := range ids {
			if existing == id {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateClaim, id)
			}
		}
	}
	checks := []struct {
		name  string
		found bool
	}{
		{"claims", hasKey(s.claims, id)},
		{"progress", hasKey(s.progress, id)},
		{"remittances", hasKey(s.remittances, id)},
		{"payments", hasKey(s.payments, id)},
		{"remittance-pending", hasKey(s.remitPending, id)},
		{"payment-pending", hasKey(s.payPending, id)},
	}
	for _, check := range checks {
		if check.found {
			return fmt.Errorf("%w: %s in %s", domain.ErrDuplicateClaim, id, check.name)
		}
	}
	return nil
}

// verifyConsistentLocked panics if a claim in the primary map is missing
// its companion entries. This is a programming-error class condition:
// the single-lock insert should make it impossible, so it is surfaced
// loudly instead of patched. Requires at least the read lock.
func (s *Store) verifyConsistentLocked(claimID string) {
	claim := s.claims[claimID]
	if _, ok := s.progress[claimID]; !ok {
		panic(fmt.Sprintf("ledger corrupt: claim %s has no progress record", claimID))
	}
	if !containsID(s.byPatient[claim.Patient.ID()], claimID) {
		panic(fmt.Sprintf("ledger corrupt: claim %s missing from patient index %s", claimID, claim.Patient.ID()))
	}
	if !containsID(s.byPayer[claim.PayerID], claimID) {
		panic(fmt.Sprintf("ledger corrupt: claim %s missing from payer index %s", claimID, claim.PayerID))
	}
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func hasKey[V any](m map[string]V, key string) bool {
	_, ok := m[key]
	return ok
}
