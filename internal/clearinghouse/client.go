// Package clearinghouse defines the external payer gateway contract and
// a simulated implementation for local runs. The billing core only ever
// calls SubmitClaim; remittances come back through the service's own
// ingestion entry point, driven by whichever transport the gateway uses.
package clearinghouse

import (
	"context"
	"errors"

	"github.com/danielglasgow/bracehealth/internal/domain"
)

// ErrPayerNotSupported reports a claim routed to a payer the gateway has
// no connection for.
var ErrPayerNotSupported = errors.New("payer not supported by clearinghouse")

// Client submits claims to the external clearinghouse for adjudication.
// A nil return means the claim was accepted and a remittance will arrive
// later; any error means the claim was never accepted and must not be
// recorded as submitted.
type Client interface {
	SubmitClaim(ctx context.Context, claim domain.Claim) error
}

// RemittanceSink receives adjudication results. The billing service's
// remittance-ingestion entry point implements it.
type RemittanceSink interface {
	NotifyRemittance(remittance domain.Remittance) error
}
