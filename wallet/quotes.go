package wallet

import (
	"context"
	"time"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/rpc"
)

// quotePollInterval is how often AwaitMintQuotePaid falls back to polling
// the quote endpoint when no subscription transport is configured.
const quotePollInterval = 2 * time.Second

// CreateMintQuote requests a bolt11 mint quote for amount. description is
// forwarded into the invoice when the mint supports it; lockTo, when
// non-empty, is a compressed pubkey hex the resulting quote is locked to
// (the matching private key must then be passed to Mint).
func (w *Wallet) CreateMintQuote(ctx context.Context, mintURL string, amount cashu.Amount, unit cashu.Unit, description, lockTo string) (*cashu.MintQuote, error) {
	return w.env.Transport.MintQuote(ctx, mintURL, rpc.MintQuoteRequest{
		Amount:      amount,
		Unit:        unit,
		Description: description,
		Pubkey:      lockTo,
	})
}

// CreateMeltQuote requests a bolt11 melt quote for paying request.
func (w *Wallet) CreateMeltQuote(ctx context.Context, mintURL, request string, unit cashu.Unit) (*cashu.MeltQuote, error) {
	return w.env.Transport.MeltQuote(ctx, mintURL, rpc.MeltQuoteRequest{
		Request: request,
		Unit:    unit,
	})
}

// AwaitMintQuotePaid blocks until the quote reaches PAID (or a later
// state), the quote expires, or ctx is canceled. It rides a push
// subscription when the Env has one and falls back to polling otherwise.
// Expiry is checked only while polling; on the subscription path the wait
// ends when the quote settles, the subscription closes, or ctx is canceled.
func (w *Wallet) AwaitMintQuotePaid(ctx context.Context, mintURL, quote string) (*cashu.MintQuote, error) {
	if w.env.Subscriptions != nil {
		sub, err := w.WatchMintQuote(ctx, quote)
		if err == nil {
			defer sub.Cancel(context.Background())
			updates := sub.MintQuoteUpdates()
			// The quote may have been paid before the subscription opened.
			if q, err := w.env.Transport.MintQuoteStatus(ctx, mintURL, quote); err == nil && quoteSettled(q) {
				return q, nil
			}
			for {
				select {
				case q, ok := <-updates:
					if !ok {
						return nil, cashu.NewTransportError(0, "subscription closed before quote was paid", nil)
					}
					if quoteSettled(&q) {
						return &q, nil
					}
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}
		// A failed subscribe falls through to polling rather than failing
		// the wait outright.
	}

	ticker := time.NewTicker(quotePollInterval)
	defer ticker.Stop()
	for {
		q, err := w.env.Transport.MintQuoteStatus(ctx, mintURL, quote)
		if err != nil {
			return nil, err
		}
		if quoteSettled(q) {
			return q, nil
		}
		if q.Expiry > 0 && w.env.now().Unix() >= q.Expiry {
			return nil, cashu.NewStateError(cashu.CodeQuoteExpired, "mint quote expired before payment")
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// quoteSettled reports whether a quote has been paid (or already redeemed,
// which implies payment).
func quoteSettled(q *cashu.MintQuote) bool {
	return q.State == cashu.MintQuotePaid || q.State == cashu.MintQuoteIssued
}
