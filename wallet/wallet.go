package wallet

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/bits"
	"sync"
	"time"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
	"github.com/ecashkit/cashu/outputs"
	"github.com/ecashkit/cashu/rpc"
	"github.com/ecashkit/cashu/selection"
	"github.com/ecashkit/cashu/token"
)

// Wallet holds the state shared across operations against any number of
// mints: the per-mint keyset cache, the double-spend-avoidance tracker and
// the deterministic-derivation counters.
type Wallet struct {
	env *Env

	mintsMu sync.RWMutex
	mints   map[string]*MintKeysets

	spent *SpentTracker

	countersMu sync.Mutex
	counters   map[string]uint32 // keysetID -> next unused counter
}

// New constructs a Wallet against env. env.Transport must be set; env.Seed
// is optional but required for Restore and for any deterministic-mode
// operation.
func New(env *Env) *Wallet {
	return &Wallet{
		env:      env,
		mints:    make(map[string]*MintKeysets),
		spent:    NewSpentTracker(),
		counters: make(map[string]uint32),
	}
}

func (w *Wallet) nextCounter(keysetID string, n int) uint32 {
	w.countersMu.Lock()
	defer w.countersMu.Unlock()
	start := w.counters[keysetID]
	w.counters[keysetID] = start + uint32(n)
	return start
}

// factory returns the output secret factory appropriate for this wallet:
// deterministic (seed-derived) when a seed is configured, random
// otherwise.
func (w *Wallet) factory() outputs.Factory {
	if len(w.env.Seed) == 64 {
		return outputs.DeterministicFactory{Seed: w.env.Seed}
	}
	return outputs.RandomFactory{}
}

func (w *Wallet) mintKeyFor(keysets *MintKeysets, keysetID string, amount cashu.Amount) (*crypto.Point, error) {
	ks, ok := keysets.Get(keysetID)
	if !ok {
		return nil, cashu.NewProtocolError(cashu.CodeAmountNotInKeyset, "unknown keyset id", nil)
	}
	hexKey, ok := ks.Keys[amount]
	if !ok {
		return nil, cashu.NewValidationError(cashu.CodeAmountNotInKeyset, "amount not offered by keyset", nil)
	}
	return crypto.ParseHexPoint(hexKey)
}

func (w *Wallet) unblindAll(sigs []cashu.BlindSignature, data []outputs.Data, keysets *MintKeysets) (cashu.Proofs, error) {
	if len(sigs) != len(data) {
		return nil, cashu.NewProtocolError(cashu.CodeSignatureCountMismatch,
			"mint returned a different number of signatures than outputs sent", nil)
	}
	proofs := make(cashu.Proofs, len(sigs))
	for i := range sigs {
		mintKey, err := w.mintKeyFor(keysets, data[i].KeysetID, data[i].Amount)
		if err != nil {
			return nil, err
		}
		p, err := outputs.Unblind(sigs[i], data[i], mintKey)
		if err != nil {
			return nil, err
		}
		proofs[i] = p
	}
	return proofs, nil
}

func withMetrics(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	observe(operation, err == nil, time.Since(start).Seconds())
	return err
}

// Mint redeems a paid MintQuote for fresh proofs totaling amount.
// lockingKey must be supplied (non-nil) when the quote was created with a
// pubkey (a NUT-20 locked mint quote); it is used to sign the batch of
// outputs so the mint can verify the caller controls that key. Pass nil
// for an unlocked quote.
func (w *Wallet) Mint(ctx context.Context, mintURL string, quote string, amount cashu.Amount, unit cashu.Unit, lockingKey *crypto.Scalar) (cashu.Proofs, error) {
	var proofs cashu.Proofs
	err := withMetrics("mint", func() error {
		keysets, err := w.keysetsFor(ctx, mintURL)
		if err != nil {
			return err
		}
		ks, ok := keysets.ActiveForUnit(unit)
		if !ok {
			return cashu.NewStateError(cashu.CodeNotLoaded, "no active keyset for unit")
		}

		amounts := cashu.AmountSplit(amount)
		counter := w.nextCounter(ks.ID, len(amounts))
		data, err := outputs.Build(amounts, ks.ID, w.factory(), counter)
		if err != nil {
			return err
		}

		req := rpc.MintRequest{
			Quote:   quote,
			Outputs: messagesOf(data),
		}
		if lockingKey != nil {
			sig, serr := signLockedOutputs(lockingKey, req.Outputs)
			if serr != nil {
				return serr
			}
			req.Signature = sig
		}

		resp, err := w.env.Transport.Mint(ctx, mintURL, req)
		if err != nil {
			return err
		}

		proofs, err = w.unblindAll(resp.Signatures, data, keysets)
		if err != nil {
			return err
		}
		proofsHeld.Add(float64(len(proofs)))
		return nil
	})
	return proofs, err
}

// signLockedOutputs implements the NUT-20 locked-mint-quote signature:
// BIP-340 over SHA-256 of the concatenated B_ hex strings of
// outputs, in the order they're sent, using the quote's locking key.
func signLockedOutputs(lockingKey *crypto.Scalar, msgs []cashu.BlindedMessage) (string, error) {
	h := sha256.New()
	for _, o := range msgs {
		h.Write([]byte(o.B_))
	}
	sig, err := crypto.SchnorrSign(lockingKey, h.Sum(nil))
	if err != nil {
		return "", cashu.NewCryptoError(cashu.CodeScalarZero, "failed to sign locked mint quote outputs", err)
	}
	return hex.EncodeToString(sig), nil
}

// SwapOptions configures one Swap call.
type SwapOptions struct {
	// SendAmount is how much of the input total should land on the send
	// side; the rest, minus fees, comes back on the keep side.
	SendAmount cashu.Amount
	// HeldByDenom biases the keep side's split towards refilling
	// denominations the wallet is short on. Nil means no bias.
	HeldByDenom map[cashu.Amount]int
	// IncludeFees pads the send side so the recipient can later spend the
	// sent proofs as swap inputs without losing value to their own input
	// fee.
	IncludeFees bool
}

// extendForFutureFee grows sendAmount until it also covers the input fee
// its own split would incur when later spent, iterating because padding
// the amount can change the proof count. The requirement is monotone in
// the proof count, so this settles within a couple of rounds.
func extendForFutureFee(sendAmount cashu.Amount, ks cashu.Keyset) cashu.Amount {
	extended := sendAmount
	for {
		n := len(cashu.AmountSplit(extended))
		next := sendAmount + ks.Fee(n)
		if next == extended {
			return extended
		}
		extended = next
	}
}

// Swap exchanges proofs for a fresh set of the same total value less the
// mint's input fee, split
// into a keep side (kept by this wallet) and a send side (handed to
// Receive or wrapped into a Token). The keep amount is computed as
// sum(proofs) − sendAmount − fee, where fee is the mint's input fee over
// proofs (selection.TotalFee); callers never derive this themselves, they
// only say how much they want to send out and (for the keep side's
// denomination bias) how many of each denomination they already hold.
func (w *Wallet) Swap(ctx context.Context, mintURL string, proofs cashu.Proofs, opts SwapOptions) (keep, send cashu.Proofs, err error) {
	sendAmount, heldByDenom := opts.SendAmount, opts.HeldByDenom
	err = withMetrics("swap", func() error {
		if secret, dup := cashu.CheckDuplicateProofs(proofs); dup {
			return cashu.NewValidationError(cashu.CodeArrayLengthWrong, "duplicate proof secret in input set: "+secret, nil)
		}
		keysets, lerr := w.keysetsFor(ctx, mintURL)
		if lerr != nil {
			return lerr
		}
		ks, ok := keysets.ActiveForUnit(unitOf(proofs, keysets))
		if !ok {
			return cashu.NewStateError(cashu.CodeNotLoaded, "no active keyset for unit")
		}
		if opts.IncludeFees {
			sendAmount = extendForFutureFee(sendAmount, ks)
		}

		feeLookup := func(id string) cashu.Keyset {
			entry, _ := keysets.Get(id)
			return entry
		}
		fee := selection.TotalFee(proofs, feeLookup)
		total := proofs.Amount()
		if total < sendAmount+fee {
			return cashu.NewInsufficientFundsError(uint64(total), uint64(sendAmount+fee))
		}
		keepAmount := total - sendAmount - fee
		if heldByDenom == nil {
			heldByDenom = make(map[cashu.Amount]int)
		}
		keepAmounts := cashu.KeepPatternSplit(keepAmount, heldByDenom, cashu.DefaultKeepTarget)
		sendAmounts := cashu.AmountSplit(sendAmount)

		counter := w.nextCounter(ks.ID, len(keepAmounts)+len(sendAmounts))
		batch, berr := outputs.BuildSwapBatch(keepAmounts, sendAmounts, ks.ID, w.factory(), counter)
		if berr != nil {
			return berr
		}

		resp, serr := w.env.Transport.Swap(ctx, mintURL, rpc.SwapRequest{
			Inputs:  proofs,
			Outputs: batch.Messages(),
		})
		if serr != nil {
			return serr
		}
		if len(resp.Signatures) != len(batch.Outputs) {
			return cashu.NewProtocolError(cashu.CodeSignatureCountMismatch, "swap response size mismatch", nil)
		}

		keepSigs, sendSigs, keepData, sendData := batch.Split(resp.Signatures)
		keep, err = w.unblindAll(keepSigs, keepData, keysets)
		if err != nil {
			return err
		}
		send, err = w.unblindAll(sendSigs, sendData, keysets)
		if err != nil {
			return err
		}
		w.spent.MarkSpentAll(proofs.Secrets())
		return nil
	})
	return keep, send, err
}

// SendOptions configures one Send call.
type SendOptions struct {
	// Memo is attached to the resulting Token.
	Memo string
	// IncludeFees pads the sent amount so the recipient can redeem the
	// full face value after paying their own swap input fee.
	IncludeFees bool
}

// Send selects proofs covering amount from available, skipping any whose
// secret the spent tracker has recorded. A subset that sums to the target
// exactly (with fees left out, since no swap happens) is handed over as-is;
// otherwise the selected proofs are swapped at the mint first. It returns
// a ready-to-share Token for the send side plus the "keep" side of the
// swap, which is nil when no swap happened. Proofs of available that were
// not selected are not returned.
func (w *Wallet) Send(ctx context.Context, mintURL string, unit cashu.Unit, available cashu.Proofs, amount cashu.Amount, opts SendOptions) (*token.Token, cashu.Proofs, error) {
	keysets, err := w.keysetsFor(ctx, mintURL)
	if err != nil {
		return nil, nil, err
	}
	lookup := func(id string) cashu.Keyset {
		ks, _ := keysets.Get(id)
		return ks
	}

	unspent := make(cashu.Proofs, 0, len(available))
	for _, p := range available {
		if !w.spent.IsSpent(p.Secret) {
			unspent = append(unspent, p)
		}
	}
	available = unspent

	target := amount
	if opts.IncludeFees {
		if ks, ok := keysets.ActiveForUnit(unit); ok {
			target = extendForFutureFee(amount, ks)
		}
	}

	// A subset summing to the target exactly can be handed over as-is: no
	// swap happens, so no input fee applies to this path.
	if exact, change, err := selection.Select(available, target, lookup, false); err == nil && change == 0 {
		t := &token.Token{Mint: mintURL, Unit: unit, Proofs: exact, Memo: opts.Memo}
		return t, nil, nil
	}

	selected, _, err := selection.Select(available, target, lookup, true)
	if err != nil {
		return nil, nil, err
	}

	// Swap's keep side is biased towards refilling whatever denominations
	// this wallet is already low on, rather than always handing
	// back the minimal binary split of the leftover amount.
	keep, send, err := w.Swap(ctx, mintURL, selected, SwapOptions{
		SendAmount:  amount,
		HeldByDenom: tallyAmounts(available),
		IncludeFees: opts.IncludeFees,
	})
	if err != nil {
		return nil, nil, err
	}
	t := &token.Token{Mint: mintURL, Unit: unit, Proofs: send, Memo: opts.Memo}
	return t, keep, nil
}

// Receive redeems a Token by swapping its proofs at their origin mint for
// fresh proofs this wallet derives itself, so accepting a token never
// leaves the wallet holding secrets the sender also still knows. When
// requireDleq is true, every proof in the token must carry a DLEQ proof
// that verifies against the mint's key for its (amount, keyset); when
// false, DLEQ is checked only on proofs that happen to carry one.
func (w *Wallet) Receive(ctx context.Context, t *token.Token, requireDleq bool) (cashu.Proofs, error) {
	keysets, err := w.keysetsFor(ctx, t.Mint)
	if err != nil {
		return nil, err
	}
	if err := w.verifyReceivedDLEQ(t.Proofs, keysets, requireDleq); err != nil {
		return nil, err
	}

	keep, _, err := w.Swap(ctx, t.Mint, t.Proofs, SwapOptions{})
	if err != nil {
		return nil, err
	}
	return keep, nil
}

// blankOutputCount returns ceil(log2(feeReserve)), the number of
// zero-amount blank outputs a melt must supply so the mint has room to
// issue change for any fee reserve up to feeReserve, except a reserve of
// 1: ceil(log2(1)) is 0, so it gets no blank output and no room for
// change. A zero reserve needs no blank outputs at all.
func blankOutputCount(feeReserve cashu.Amount) int {
	if feeReserve == 0 {
		return 0
	}
	return bits.Len64(uint64(feeReserve - 1))
}

// Melt pays a bolt11 MeltQuote using proofs, returning the paid quote's
// final state and any change the mint issued against blank outputs.
// feeReserve is the quote's fee_reserve, used to size the blank-output
// batch; pass 0 if the quote advertises no fee reserve.
func (w *Wallet) Melt(ctx context.Context, mintURL string, quote string, feeReserve cashu.Amount, proofs cashu.Proofs) (*rpc.MeltResponse, cashu.Proofs, error) {
	keysets, err := w.keysetsFor(ctx, mintURL)
	if err != nil {
		return nil, nil, err
	}
	unit := unitOf(proofs, keysets)
	ks, ok := keysets.ActiveForUnit(unit)
	if !ok {
		return nil, nil, cashu.NewStateError(cashu.CodeNotLoaded, "no active keyset for unit")
	}

	// Blank outputs for overpaid-fee change: amount 0 per message,
	// the mint fills in the actual denominations on overpayment.
	blankAmounts := make([]cashu.Amount, blankOutputCount(feeReserve))
	counter := w.nextCounter(ks.ID, len(blankAmounts))
	blankData, err := outputs.Build(blankAmounts, ks.ID, w.factory(), counter)
	if err != nil {
		return nil, nil, err
	}

	resp, err := w.env.Transport.Melt(ctx, mintURL, rpc.MeltRequest{
		Quote:   quote,
		Inputs:  proofs,
		Outputs: messagesOf(blankData),
	})
	if err != nil {
		return nil, nil, err
	}
	w.spent.MarkSpentAll(proofs.Secrets())

	// Change signatures align with the first len(change) blank outputs,
	// but carry the mint-assigned denominations: the blank Data's zero
	// amount is replaced by each signature's amount before unblinding.
	var change cashu.Proofs
	n := len(resp.Change)
	if n > len(blankData) {
		n = len(blankData)
	}
	for i := 0; i < n; i++ {
		sig := resp.Change[i]
		mintKey, kerr := w.mintKeyFor(keysets, blankData[i].KeysetID, sig.Amount)
		if kerr != nil {
			return resp, nil, kerr
		}
		d := blankData[i]
		d.Amount = sig.Amount
		p, uerr := outputs.Unblind(sig, d, mintKey)
		if uerr != nil {
			return resp, nil, uerr
		}
		change = append(change, p)
	}
	return resp, change, nil
}

func messagesOf(data []outputs.Data) []cashu.BlindedMessage {
	out := make([]cashu.BlindedMessage, len(data))
	for i, d := range data {
		out[i] = d.Message
	}
	return out
}

// tallyAmounts counts how many proofs of each denomination proofs holds,
// the input KeepPatternSplit needs to know which denominations are
// already scarce.
func tallyAmounts(proofs cashu.Proofs) map[cashu.Amount]int {
	out := make(map[cashu.Amount]int, len(proofs))
	for _, p := range proofs {
		out[p.Amount]++
	}
	return out
}

func unitOf(proofs cashu.Proofs, keysets *MintKeysets) cashu.Unit {
	if len(proofs) == 0 {
		return ""
	}
	ks, _ := keysets.Get(proofs[0].ID)
	return ks.Unit
}
