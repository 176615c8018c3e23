package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
	"github.com/ecashkit/cashu/rpc"
	"github.com/ecashkit/cashu/subscribe"
)

// QuoteSubscription delivers decoded quote-state notifications until
// Cancel is called or the underlying connection drops.
type QuoteSubscription struct {
	handle *subscribe.Handle
	kind   subscribe.Kind
}

// Cancel unsubscribes from the mint and stops delivering notifications.
func (s *QuoteSubscription) Cancel(ctx context.Context) error {
	return s.handle.Cancel(ctx)
}

// MintQuoteUpdates decodes each pushed payload as a MintQuote. Call only
// on a subscription opened with WatchMintQuote.
func (s *QuoteSubscription) MintQuoteUpdates() <-chan cashu.MintQuote {
	out := make(chan cashu.MintQuote, 16)
	go decodeInto(s.handle.Notifications(), out)
	return out
}

// MeltQuoteUpdates decodes each pushed payload as a MeltQuote. Call only
// on a subscription opened with WatchMeltQuote.
func (s *QuoteSubscription) MeltQuoteUpdates() <-chan cashu.MeltQuote {
	out := make(chan cashu.MeltQuote, 16)
	go decodeInto(s.handle.Notifications(), out)
	return out
}

func decodeInto[T any](in <-chan json.RawMessage, out chan<- T) {
	defer close(out)
	for raw := range in {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out <- v
	}
}

// WatchMintQuote opens a NUT-17 push subscription for a single bolt11
// mint quote's state, so a caller learns the moment it's paid without
// polling /v1/mint/quote/bolt11/{quote}. Returns an error if the wallet
// was not given a subscribe.Manager in its Env.
func (w *Wallet) WatchMintQuote(ctx context.Context, quote string) (*QuoteSubscription, error) {
	if w.env.Subscriptions == nil {
		return nil, cashu.NewValidationError(cashu.CodeMissingField,
			"wallet has no subscribe.Manager configured in its Env", nil)
	}
	h, err := w.env.Subscriptions.Subscribe(ctx, subscribe.KindBolt11MintQuote, []string{quote})
	if err != nil {
		return nil, err
	}
	return &QuoteSubscription{handle: h, kind: subscribe.KindBolt11MintQuote}, nil
}

// WatchMeltQuote opens a NUT-17 push subscription for a single bolt11
// melt quote's state.
func (w *Wallet) WatchMeltQuote(ctx context.Context, quote string) (*QuoteSubscription, error) {
	if w.env.Subscriptions == nil {
		return nil, cashu.NewValidationError(cashu.CodeMissingField,
			"wallet has no subscribe.Manager configured in its Env", nil)
	}
	h, err := w.env.Subscriptions.Subscribe(ctx, subscribe.KindBolt11MeltQuote, []string{quote})
	if err != nil {
		return nil, err
	}
	return &QuoteSubscription{handle: h, kind: subscribe.KindBolt11MeltQuote}, nil
}

// ProofStateSubscription delivers decoded proof-state notifications for a
// fixed set of proofs, keyed by the Y point the notification arrived for.
type ProofStateSubscription struct {
	handle *subscribe.Handle
	out    chan rpc.ProofState
}

// Cancel unsubscribes from the mint and stops delivering notifications.
func (s *ProofStateSubscription) Cancel(ctx context.Context) error {
	return s.handle.Cancel(ctx)
}

// Updates returns the channel of decoded proof-state notifications.
func (s *ProofStateSubscription) Updates() <-chan rpc.ProofState {
	return s.out
}

// WatchProofs opens a NUT-17 push subscription over a set of proof
// secrets, translating each secret to its Y = hash_to_curve(secret) point
// the way CheckProofsStates does for the polling path. A
// proof reported SPENT is folded into the wallet's spent tracker exactly
// as CheckProofsStates does, so callers get the same bookkeeping whether
// they poll or subscribe.
func (w *Wallet) WatchProofs(ctx context.Context, proofs cashu.Proofs) (*ProofStateSubscription, error) {
	if w.env.Subscriptions == nil {
		return nil, cashu.NewValidationError(cashu.CodeMissingField,
			"wallet has no subscribe.Manager configured in its Env", nil)
	}
	secretByY := make(map[string]string, len(proofs))
	ys := make([]string, len(proofs))
	for i, p := range proofs {
		y, err := crypto.HashToCurve([]byte(p.Secret))
		if err != nil {
			return nil, err
		}
		yHex := hex.EncodeToString(y.Compressed())
		ys[i] = yHex
		secretByY[yHex] = p.Secret
	}
	h, err := w.env.Subscriptions.Subscribe(ctx, subscribe.KindProofState, ys)
	if err != nil {
		return nil, err
	}
	sub := &ProofStateSubscription{handle: h, out: make(chan rpc.ProofState, 16)}
	go w.pumpProofStates(h.Notifications(), secretByY, sub.out)
	return sub, nil
}

func (w *Wallet) pumpProofStates(in <-chan json.RawMessage, secretByY map[string]string, out chan<- rpc.ProofState) {
	defer close(out)
	for raw := range in {
		var st rpc.ProofState
		if err := json.Unmarshal(raw, &st); err != nil {
			continue
		}
		if st.State == "SPENT" {
			if secret, ok := secretByY[st.Y]; ok {
				w.spent.MarkSpent(secret)
			}
		}
		out <- st
	}
}
