package wallet

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ecashkit/cashu/rpc"
	"github.com/ecashkit/cashu/subscribe"
)

// Env is the wallet's runtime configuration, gathered into one struct so
// a caller constructs one Env and passes it everywhere instead of
// threading individual dependencies through every call.
type Env struct {
	// Transport talks to mint HTTP endpoints. Required.
	Transport rpc.MintTransport

	// Subscriptions, if set, lets Wallet open NUT-17 push subscriptions
	// instead of polling quote/proof state. Optional.
	Subscriptions *subscribe.Manager

	// Log receives the warnings LoadMint emits for keysets it drops; the
	// other wallet operations do not log. Never logs secrets, private
	// scalars or full proofs. Defaults to a disabled logger if left
	// zero-valued.
	Log zerolog.Logger

	// Seed is the wallet's BIP-39-derived 64-byte seed, used for
	// deterministic secret/blinding derivation and restore. A wallet with
	// no Seed can still mint/swap/send/receive/melt using random secrets;
	// it simply cannot Restore.
	Seed []byte

	// Now returns the current time for quote expiry checks. Defaults to
	// time.Now when nil, overridable in tests for deterministic expiry
	// behavior.
	Now func() time.Time
}

func (e *Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// DefaultEnv returns an Env with a disabled logger and time.Now as its
// clock, ready to have Transport/Seed filled in.
func DefaultEnv(transport rpc.MintTransport) *Env {
	return &Env{
		Transport: transport,
		Log:       zerolog.Nop(),
	}
}
