package wallet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
	"github.com/ecashkit/cashu/rpc"
	"github.com/ecashkit/cashu/subscribe"
)

// fakeWS is a minimal subscribe.WSTransport: Send auto-acks subscribe/
// unsubscribe calls and records the assigned subId so a test can push a
// matching notification back through Recv.
type fakeWS struct {
	acks   chan json.RawMessage
	lastID string
}

func newFakeWS() *fakeWS {
	return &fakeWS{acks: make(chan json.RawMessage, 16)}
}

func (f *fakeWS) Send(ctx context.Context, frame interface{}) error {
	req := frame.(subscribe.Request)
	if p, ok := req.Params.(subscribe.SubscribeParams); ok {
		f.lastID = p.SubID
	}
	ack, _ := json.Marshal(subscribe.Response{JSONRPC: "2.0", ID: req.ID})
	f.acks <- ack
	return nil
}

func (f *fakeWS) Recv(ctx context.Context) (json.RawMessage, error) {
	select {
	case msg := <-f.acks:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeWS) Close() error { return nil }

func (f *fakeWS) push(payload interface{}) {
	raw, _ := json.Marshal(payload)
	note, _ := json.Marshal(subscribe.Notification{
		JSONRPC: "2.0",
		Method:  "subscribe",
		Params:  subscribe.NotificationParams{SubID: f.lastID, Payload: raw},
	})
	f.acks <- note
}

func newTestWallet(t *testing.T, mgr *subscribe.Manager) *Wallet {
	t.Helper()
	return New(&Env{Transport: newFakeMint(t), Subscriptions: mgr})
}

func TestWatchMintQuoteDecodesUpdates(t *testing.T) {
	ws := newFakeWS()
	mgr := subscribe.NewManager(ws)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	w := newTestWallet(t, mgr)
	sub, err := w.WatchMintQuote(ctx, "quote1")
	require.NoError(t, err)

	ws.push(cashu.MintQuote{Quote: "quote1", State: cashu.MintQuotePaid})

	select {
	case got := <-sub.MintQuoteUpdates():
		require.Equal(t, "quote1", got.Quote)
		require.Equal(t, cashu.MintQuotePaid, got.State)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for mint quote update")
	}
}

func TestWatchMeltQuoteDecodesUpdates(t *testing.T) {
	ws := newFakeWS()
	mgr := subscribe.NewManager(ws)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	w := newTestWallet(t, mgr)
	sub, err := w.WatchMeltQuote(ctx, "melt1")
	require.NoError(t, err)

	ws.push(cashu.MeltQuote{Quote: "melt1", State: cashu.MeltQuotePaid})

	select {
	case got := <-sub.MeltQuoteUpdates():
		require.Equal(t, "melt1", got.Quote)
		require.Equal(t, cashu.MeltQuotePaid, got.State)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for melt quote update")
	}
}

func TestWatchProofsMarksSpentTracker(t *testing.T) {
	ws := newFakeWS()
	mgr := subscribe.NewManager(ws)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mgr.Run(ctx)

	w := newTestWallet(t, mgr)
	proofs := cashu.Proofs{{Amount: 1, ID: "00", Secret: "sekret", C: ""}}

	sub, err := w.WatchProofs(ctx, proofs)
	require.NoError(t, err)

	point, err := crypto.HashToCurve([]byte("sekret"))
	require.NoError(t, err)
	ws.push(rpc.ProofState{Y: hex.EncodeToString(point.Compressed()), State: "SPENT"})

	select {
	case got := <-sub.Updates():
		require.Equal(t, "SPENT", got.State)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for proof state update")
	}

	require.Eventually(t, func() bool {
		return w.spent.IsSpent("sekret")
	}, time.Second, time.Millisecond)
}

func TestWatchMintQuoteErrorsWithoutSubscriptions(t *testing.T) {
	w := New(&Env{Transport: newFakeMint(t)})
	_, err := w.WatchMintQuote(context.Background(), "quote1")
	require.Error(t, err)
}
