package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
	"github.com/ecashkit/cashu/rpc"
	"github.com/ecashkit/cashu/token"
)

// fakeMint plays the mint side of BDHKE for denominations 1 through 64,
// all signed with one shared private key, enough to exercise LoadMint/Mint/Restore end to end without a real
// network. It embeds rpc.NoAuth since these tests never use NUT-22 auth.
type fakeMint struct {
	rpc.NoAuth
	keysetID    string
	unit        cashu.Unit
	priv        *crypto.Scalar
	pub         *crypto.Point
	restoreCall int
	states      map[string]string // hex(Y) -> state, for CheckState
	lastMintReq rpc.MintRequest
	inputFeePPK int
}

func newFakeMint(t *testing.T) *fakeMint {
	t.Helper()
	priv, err := crypto.RandomScalar()
	require.NoError(t, err)
	pub := priv.BasePointMul()
	keys := make(map[uint64]*crypto.Point)
	for d := uint64(1); d <= 64; d <<= 1 {
		keys[d] = pub
	}
	id, err := crypto.DeriveKeysetID(keys, "sat", crypto.KeysetIDCurrent, 0)
	require.NoError(t, err)
	return &fakeMint{keysetID: id, unit: "sat", priv: priv, pub: pub}
}

func (f *fakeMint) Info(context.Context, string) (*cashu.MintInfo, error) {
	return &cashu.MintInfo{
		Name: "fake mint",
		Nuts: map[string]any{
			"22": map[string]any{"protected_endpoints": []any{"/v1/swap"}},
		},
	}, nil
}

func (f *fakeMint) Keys(ctx context.Context, mintURL, keysetID string) (*rpc.KeysetsResponse, error) {
	keys := make(cashu.Keys)
	for d := cashu.Amount(1); d <= 64; d <<= 1 {
		keys[d] = f.pub.Hex()
	}
	return &rpc.KeysetsResponse{Keysets: []cashu.Keyset{
		{ID: f.keysetID, Unit: f.unit, Keys: keys},
	}}, nil
}

func (f *fakeMint) Keysets(context.Context, string) (*rpc.KeysetsInfoResponse, error) {
	return &rpc.KeysetsInfoResponse{Keysets: []rpc.KeysetInfo{
		{ID: f.keysetID, Unit: f.unit, Active: true, InputFeePPK: f.inputFeePPK},
	}}, nil
}

func (f *fakeMint) sign(msgs []cashu.BlindedMessage) (*rpc.MintResponse, error) {
	out := make([]cashu.BlindSignature, len(msgs))
	for i, m := range msgs {
		B_, err := crypto.ParseHexPoint(m.B_)
		if err != nil {
			return nil, err
		}
		C_ := crypto.Sign(B_, f.priv)
		out[i] = cashu.BlindSignature{Amount: m.Amount, ID: m.ID, C_: C_.Hex()}
	}
	return &rpc.MintResponse{Signatures: out}, nil
}

func (f *fakeMint) MintQuote(context.Context, string, rpc.MintQuoteRequest) (*cashu.MintQuote, error) {
	return &cashu.MintQuote{Quote: "quote1", State: cashu.MintQuotePaid}, nil
}

func (f *fakeMint) MintQuoteStatus(context.Context, string, string) (*cashu.MintQuote, error) {
	return &cashu.MintQuote{Quote: "quote1", State: cashu.MintQuotePaid}, nil
}

func (f *fakeMint) Mint(ctx context.Context, mintURL string, req rpc.MintRequest) (*rpc.MintResponse, error) {
	f.lastMintReq = req
	return f.sign(req.Outputs)
}

func (f *fakeMint) MeltQuote(context.Context, string, rpc.MeltQuoteRequest) (*cashu.MeltQuote, error) {
	return &cashu.MeltQuote{}, nil
}

func (f *fakeMint) MeltQuoteStatus(context.Context, string, string) (*cashu.MeltQuote, error) {
	return &cashu.MeltQuote{}, nil
}

// Melt pays out and, when blank outputs were supplied, issues one unit of
// change against the first of them, mimicking a mint whose payment came in
// under the fee reserve.
func (f *fakeMint) Melt(ctx context.Context, _ string, req rpc.MeltRequest) (*rpc.MeltResponse, error) {
	resp := &rpc.MeltResponse{State: cashu.MeltQuotePaid, PaymentPreimage: "preimage"}
	if len(req.Outputs) > 0 {
		B_, err := crypto.ParseHexPoint(req.Outputs[0].B_)
		if err != nil {
			return nil, err
		}
		resp.Change = []cashu.BlindSignature{{
			Amount: 1,
			ID:     req.Outputs[0].ID,
			C_:     crypto.Sign(B_, f.priv).Hex(),
		}}
	}
	return resp, nil
}

func (f *fakeMint) Swap(ctx context.Context, mintURL string, req rpc.SwapRequest) (*rpc.SwapResponse, error) {
	resp, err := f.sign(req.Outputs)
	if err != nil {
		return nil, err
	}
	return &rpc.SwapResponse{Signatures: resp.Signatures}, nil
}

func (f *fakeMint) CheckState(ctx context.Context, mintURL string, req rpc.CheckStateRequest) (*rpc.CheckStateResponse, error) {
	states := make([]rpc.ProofState, len(req.Ys))
	for i, y := range req.Ys {
		state := f.states[y]
		if state == "" {
			state = "UNSPENT"
		}
		states[i] = rpc.ProofState{Y: y, State: state}
	}
	return &rpc.CheckStateResponse{States: states}, nil
}

// Restore signs exactly the first batch of outputs it's asked about (as
// if the wallet had previously minted/swapped that many outputs under
// this keyset), then returns nothing for every subsequent call, so a
// caller driving Wallet.Restore sees one populated batch followed by the
// gap-limit's worth of empty ones.
func (f *fakeMint) Restore(ctx context.Context, mintURL string, req rpc.RestoreRequest) (*rpc.RestoreResponse, error) {
	defer func() { f.restoreCall++ }()
	if f.restoreCall > 0 {
		return &rpc.RestoreResponse{}, nil
	}
	signed, err := f.sign(req.Outputs)
	if err != nil {
		return nil, err
	}
	return &rpc.RestoreResponse{Outputs: req.Outputs, Signatures: signed.Signatures}, nil
}

func testSeed() []byte {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestLoadMintVerifiesKeysetID(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	keysets, err := w.LoadMint(context.Background(), "https://mint.example")
	require.NoError(t, err)

	ks, ok := keysets.Get(fm.keysetID)
	require.True(t, ok)
	require.Equal(t, cashu.Unit("sat"), ks.Unit)
	require.True(t, ks.Active)
}

func TestLoadMintStoresMintInfo(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	keysets, err := w.LoadMint(context.Background(), "https://mint.example")
	require.NoError(t, err)

	info := keysets.Info()
	require.NotNil(t, info)
	require.Equal(t, "fake mint", info.Name)

	nut22, ok := keysets.Nut("22")
	require.True(t, ok)
	require.NotNil(t, nut22)
	_, ok = keysets.Nut("99")
	require.False(t, ok)
}

func TestLoadMintDropsKeysetWithBadID(t *testing.T) {
	fm := newFakeMint(t)
	fm.keysetID = "01" + "ffffffffffffff" // wrong id for fm.pub's real id
	w := New(DefaultEnv(fm))

	keysets, err := w.LoadMint(context.Background(), "https://mint.example")
	require.NoError(t, err)
	require.Empty(t, keysets.All())
}

func TestMintRoundTrip(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	require.Equal(t, cashu.Amount(1), proofs[0].Amount)
	require.Equal(t, fm.keysetID, proofs[0].ID)

	C, err := crypto.ParseHexPoint(proofs[0].C)
	require.NoError(t, err)
	ok, err := crypto.VerifyUnblinded([]byte(proofs[0].Secret), fm.priv, C)
	require.NoError(t, err)
	require.True(t, ok, "unblinded C must equal a*hashToCurve(secret)")
}

func TestMintLockedQuoteSignsOutputs(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	lockingKey, err := crypto.RandomScalar()
	require.NoError(t, err)

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", lockingKey)
	require.NoError(t, err)
	require.Len(t, proofs, 1)
	require.NotEmpty(t, fm.lastMintReq.Signature)

	sigBytes, err := hex.DecodeString(fm.lastMintReq.Signature)
	require.NoError(t, err)
	h := sha256.New()
	for _, o := range fm.lastMintReq.Outputs {
		h.Write([]byte(o.B_))
	}
	require.True(t, crypto.SchnorrVerify(lockingKey.BasePointMul(), h.Sum(nil), sigBytes))
}

func TestMintUnlockedQuoteOmitsSignature(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	_, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)
	require.Empty(t, fm.lastMintReq.Signature)
}

func TestRestoreRecoversProofs(t *testing.T) {
	fm := newFakeMint(t)
	env := DefaultEnv(fm)
	env.Seed = testSeed()
	w := New(env)

	proofs, err := w.Restore(context.Background(), "https://mint.example", fm.keysetID)
	require.NoError(t, err)
	require.Len(t, proofs, restoreBatchSize)
	require.Equal(t, 3, fm.restoreCall) // one populated batch + two empty (gap limit)
}

func TestRestoreRequiresSeed(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	_, err := w.Restore(context.Background(), "https://mint.example", fm.keysetID)
	require.ErrorIs(t, err, cashu.ErrNoSeed)
}

func TestCheckProofsStatesMarksSpent(t *testing.T) {
	fm := newFakeMint(t)
	fm.states = make(map[string]string)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)

	y, err := crypto.HashToCurve([]byte(proofs[0].Secret))
	require.NoError(t, err)
	fm.states[hex.EncodeToString(y.Compressed())] = "SPENT"

	states, err := w.CheckProofsStates(context.Background(), "https://mint.example", proofs)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, "SPENT", states[0].State)
	require.True(t, w.spent.IsSpent(proofs[0].Secret))
}

func TestCheckProofsStatesDefaultsUnspent(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)

	states, err := w.CheckProofsStates(context.Background(), "https://mint.example", proofs)
	require.NoError(t, err)
	require.Equal(t, "UNSPENT", states[0].State)
	require.False(t, w.spent.IsSpent(proofs[0].Secret))
}

func TestReceiveDeductsInputFee(t *testing.T) {
	fm := newFakeMint(t)
	fm.inputFeePPK = 1000 // 1000 ppk == 1 full unit of fee per input
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)

	keep, err := w.Receive(context.Background(), &token.Token{Mint: "https://mint.example", Unit: "sat", Proofs: proofs}, false)
	require.NoError(t, err)
	require.Equal(t, cashu.Amount(0), keep.Amount(), "a 1-input swap at 1000ppk owes a fee of 1, leaving nothing to keep")
}

func TestSwapRejectsSendAmountThatLeavesNoRoomForFee(t *testing.T) {
	fm := newFakeMint(t)
	fm.inputFeePPK = 1000
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)

	_, _, err = w.Swap(context.Background(), "https://mint.example", proofs, SwapOptions{SendAmount: 1})
	require.Error(t, err)
}

func TestReceiveRequiresDLEQWhenRequested(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 1, "sat", nil)
	require.NoError(t, err)
	require.Nil(t, proofs[0].DLEQ)

	_, err = w.Receive(context.Background(), &token.Token{Mint: "https://mint.example", Unit: "sat", Proofs: proofs}, true)
	require.Error(t, err)

	_, err = w.Receive(context.Background(), &token.Token{Mint: "https://mint.example", Unit: "sat", Proofs: proofs}, false)
	require.NoError(t, err)
}

func TestReceiveAcceptsValidDLEQ(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	secret := []byte("0000000000000000000000000000000000000000000000000000000000aa")
	r, err := crypto.RandomScalar()
	require.NoError(t, err)
	Y, err := crypto.HashToCurve(secret)
	require.NoError(t, err)
	B_ := Y.Add(r.BasePointMul())
	C_ := crypto.Sign(B_, fm.priv)
	A := fm.priv.BasePointMul()
	C := crypto.Unblind(C_, r, A)

	proof, err := crypto.CreateDLEQ(fm.priv, B_, C_)
	require.NoError(t, err)
	p := cashu.Proof{
		Amount: 1,
		ID:     fm.keysetID,
		Secret: string(secret),
		C:      C.Hex(),
		DLEQ:   &cashu.DLEQPublic{E: proof.E.Hex(), S: proof.S.Hex(), R: r.Hex()},
	}

	keep, err := w.Receive(context.Background(), &token.Token{Mint: "https://mint.example", Unit: "sat", Proofs: cashu.Proofs{p}}, true)
	require.NoError(t, err)
	require.Len(t, keep, 1)
}

func TestReceiveRejectsBadDLEQ(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	secret := []byte("0000000000000000000000000000000000000000000000000000000000bb")
	r, err := crypto.RandomScalar()
	require.NoError(t, err)
	Y, err := crypto.HashToCurve(secret)
	require.NoError(t, err)
	B_ := Y.Add(r.BasePointMul())
	C_ := crypto.Sign(B_, fm.priv)
	A := fm.priv.BasePointMul()
	C := crypto.Unblind(C_, r, A)

	otherPriv, err := crypto.RandomScalar()
	require.NoError(t, err)
	proof, err := crypto.CreateDLEQ(otherPriv, B_, C_)
	require.NoError(t, err)
	p := cashu.Proof{
		Amount: 1,
		ID:     fm.keysetID,
		Secret: string(secret),
		C:      C.Hex(),
		DLEQ:   &cashu.DLEQPublic{E: proof.E.Hex(), S: proof.S.Hex(), R: r.Hex()},
	}

	_, err = w.Receive(context.Background(), &token.Token{Mint: "https://mint.example", Unit: "sat", Proofs: cashu.Proofs{p}}, true)
	require.Error(t, err)
}

func TestAwaitMintQuotePaidReturnsOnPaidQuote(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	q, err := w.CreateMintQuote(context.Background(), "https://mint.example", 4, "sat", "", "")
	require.NoError(t, err)

	got, err := w.AwaitMintQuotePaid(context.Background(), "https://mint.example", q.Quote)
	require.NoError(t, err)
	require.Equal(t, cashu.MintQuotePaid, got.State)
}

func TestMeltUnblindsChange(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 4, "sat", nil)
	require.NoError(t, err)

	resp, change, err := w.Melt(context.Background(), "https://mint.example", "melt1", 4, proofs)
	require.NoError(t, err)
	require.Equal(t, cashu.MeltQuotePaid, resp.State)
	require.Len(t, change, 1)
	require.Equal(t, cashu.Amount(1), change[0].Amount)

	C, err := crypto.ParseHexPoint(change[0].C)
	require.NoError(t, err)
	ok, err := crypto.VerifyUnblinded([]byte(change[0].Secret), fm.priv, C)
	require.NoError(t, err)
	require.True(t, ok)

	for _, p := range proofs {
		require.True(t, w.spent.IsSpent(p.Secret), "melted inputs must be tracked as spent")
	}
}

func TestMeltWithZeroFeeReserveSendsNoBlankOutputs(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 2, "sat", nil)
	require.NoError(t, err)

	_, change, err := w.Melt(context.Background(), "https://mint.example", "melt1", 0, proofs)
	require.NoError(t, err)
	require.Empty(t, change)
}

func TestSendExactMatchSkipsSwap(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 3, "sat", nil)
	require.NoError(t, err)
	require.Len(t, proofs, 2) // 1 + 2

	tok, keep, err := w.Send(context.Background(), "https://mint.example", "sat", proofs, 3, SendOptions{Memo: "coffee"})
	require.NoError(t, err)
	require.Nil(t, keep, "an exact match must not swap")
	require.Equal(t, cashu.Amount(3), tok.Proofs.Amount())
	require.Equal(t, "coffee", tok.Memo)
}

func TestSendSwapsForChange(t *testing.T) {
	fm := newFakeMint(t)
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 4, "sat", nil)
	require.NoError(t, err)

	tok, keep, err := w.Send(context.Background(), "https://mint.example", "sat", proofs, 3, SendOptions{})
	require.NoError(t, err)
	require.Equal(t, cashu.Amount(3), tok.Proofs.Amount())
	require.Equal(t, cashu.Amount(1), keep.Amount())
}

// With a 1000ppk keyset every input costs 1 sat of fee. Sending 3 with
// IncludeFees must pad the sent amount so the recipient's own 2-input
// swap nets the full 3: extended = 3 + fee(2 inputs) = 5.
func TestSendIncludeFeesPadsSentAmount(t *testing.T) {
	fm := newFakeMint(t)
	fm.inputFeePPK = 1000
	w := New(DefaultEnv(fm))

	proofs, err := w.Mint(context.Background(), "https://mint.example", "quote1", 8, "sat", nil)
	require.NoError(t, err)

	tok, keep, err := w.Send(context.Background(), "https://mint.example", "sat", proofs, 3, SendOptions{IncludeFees: true})
	require.NoError(t, err)
	require.Equal(t, cashu.Amount(5), tok.Proofs.Amount())
	// 8 in, 5 sent, 1 input fee: 2 back.
	require.Equal(t, cashu.Amount(2), keep.Amount())
}
