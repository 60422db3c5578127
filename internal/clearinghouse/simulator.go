package clearinghouse

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// Simulator is an in-process clearinghouse. It accepts claims for
// configured payers, fabricates a remittance whose components sum
// exactly to the claim's billable total, and delivers it to the sink
// after a randomized delay. Delivery is a one-shot delayed task; there
// is no scheduler beyond time.AfterFunc.
type Simulator struct {
	payers map[domain.PayerID]PayerConfig
	logger zerolog.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	sink RemittanceSink

	// schedule defaults to time.AfterFunc; tests replace it to run
	// callbacks synchronously.
	schedule func(d time.Duration, fn func())
}

// NewSimulator creates a simulator for the given payer set. The sink is
// wired afterwards via SetSink because the billing service that
// implements it needs the simulator as its gateway first.
func NewSimulator(payers map[domain.PayerID]PayerConfig, logger zerolog.Logger) *Simulator {
	return &Simulator{
		payers:   payers,
		logger:   logger.With().Str("component", "clearinghouse").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		schedule: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
	}
}

// NewSynchronousSimulator is a simulator that delivers each remittance
// inline, before SubmitClaim returns. Meant for tests and local
// tooling where waiting out the payer delay is pointless.
func NewSynchronousSimulator(payers map[domain.PayerID]PayerConfig, logger zerolog.Logger) *Simulator {
	sim := NewSimulator(payers, logger)
	sim.schedule = func(_ time.Duration, fn func()) { fn() }
	return sim
}

// SetSink wires the remittance delivery target.
func (s *Simulator) SetSink(sink RemittanceSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

// SubmitClaim accepts the claim and schedules its remittance. An
// unsupported payer is a rejection: the caller must not record the
// claim as submitted.
func (s *Simulator) SubmitClaim(ctx context.Context, claim domain.Claim) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	config, ok := s.payers[claim.PayerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPayerNotSupported, claim.PayerID)
	}

	s.mu.Lock()
	delaySeconds := config.MinResponseSeconds
	if spread := config.MaxResponseSeconds - config.MinResponseSeconds; spread > 0 {
		delaySeconds += s.rng.Intn(spread + 1)
	}
	remittance := s.generateRemittanceLocked(claim)
	s.mu.Unlock()

	s.logger.Info().Str("claim_id", claim.ClaimID).
		Str("payer_id", string(claim.PayerID)).
		Int("delay_seconds", delaySeconds).
		Msg("claim accepted, remittance scheduled")

	s.schedule(time.Duration(delaySeconds)*time.Second, func() {
		s.deliver(remittance)
	})
	return nil
}

func (s *Simulator) deliver(remittance domain.Remittance) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		s.logger.Error().Str("claim_id", remittance.ClaimID).Msg("no remittance sink wired, dropping remittance")
		return
	}
	if err := sink.NotifyRemittance(remittance); err != nil {
		s.logger.Error().Err(err).Str("claim_id", remittance.ClaimID).Msg("remittance delivery failed")
		return
	}
	s.logger.Info().Str("claim_id", remittance.ClaimID).Msg("remittance delivered")
}

// generateRemittanceLocked splits the claim's billable total across the
// five remittance components. Each patient obligation takes a random
// share of what is left; the payer pays the rest, so the components
// always sum exactly to the billable total. Requires s.mu.
func (s *Simulator) generateRemittanceLocked(claim domain.Claim) domain.Remittance {
	wire := claim.BillableTotal().Wire()
	remainingCents := wire.WholeAmount*100 + wire.DecimalAmount

	draw := func(maxShare int64) domain.Money {
		if remainingCents <= 0 {
			return domain.Zero
		}
		cents := s.rng.Int63n(remainingCents/maxShare + 1)
		remainingCents -= cents
		return domain.MoneyFromMinorUnits(cents)
	}

	// Obligations each draw up to a fraction of what remains; the
	// divisors keep payer-paid the dominant component, like a real
	// adjudication.
	copay := draw(4)
	coinsurance := draw(4)
	deductible := draw(4)
	notAllowed := draw(8)

	return domain.Remittance{
		ClaimID:     claim.ClaimID,
		Copay:       copay,
		Coinsurance: coinsurance,
		Deductible:  deductible,
		NotAllowed:  notAllowed,
		PayerPaid:   domain.MoneyFromMinorUnits(remainingCents),
	}
}
