package rpc

import (
	"context"

	"github.com/ecashkit/cashu"
)

// MintTransport is the wallet's view of a single mint's HTTP API. Every
// method takes the mint base URL explicitly rather than binding to one at
// construction, since a single wallet process talks to many mints and
// transports are expected to be pooled/reused.
type MintTransport interface {
	Info(ctx context.Context, mintURL string) (*cashu.MintInfo, error)
	Keys(ctx context.Context, mintURL, keysetID string) (*KeysetsResponse, error)
	Keysets(ctx context.Context, mintURL string) (*KeysetsInfoResponse, error)

	MintQuote(ctx context.Context, mintURL string, req MintQuoteRequest) (*cashu.MintQuote, error)
	MintQuoteStatus(ctx context.Context, mintURL, quote string) (*cashu.MintQuote, error)
	Mint(ctx context.Context, mintURL string, req MintRequest) (*MintResponse, error)

	MeltQuote(ctx context.Context, mintURL string, req MeltQuoteRequest) (*cashu.MeltQuote, error)
	MeltQuoteStatus(ctx context.Context, mintURL, quote string) (*cashu.MeltQuote, error)
	Melt(ctx context.Context, mintURL string, req MeltRequest) (*MeltResponse, error)

	Swap(ctx context.Context, mintURL string, req SwapRequest) (*SwapResponse, error)
	CheckState(ctx context.Context, mintURL string, req CheckStateRequest) (*CheckStateResponse, error)
	Restore(ctx context.Context, mintURL string, req RestoreRequest) (*RestoreResponse, error)

	// AuthToken supplies a NUT-22 blind-auth or clear-auth bearer token for
	// the given protected endpoint path, or ("", nil) when the endpoint
	// needs none. Transports that never talk to auth-gated mints can embed
	// NoAuth to satisfy this trivially.
	AuthToken(endpoint string) (string, error)
}

// NoAuth is embeddable by MintTransport implementations that never need
// NUT-22 auth tokens.
type NoAuth struct{}

// AuthToken implements MintTransport for transports with no auth tokens.
func (NoAuth) AuthToken(string) (string, error) { return "", nil }
