package outputs

import (
	"crypto/rand"
	"encoding/hex"
	"sort"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
	"github.com/ecashkit/cashu/secrets"
)

// Data is one BlindedMessage together with the wallet-side secret
// material needed to turn the eventual BlindSignature into a spendable
// Proof: the exact secret bytes that went into hash_to_curve, and the
// blinding scalar r.
type Data struct {
	Amount   cashu.Amount
	KeysetID string
	Message  cashu.BlindedMessage
	Secret   []byte
	Blinding *crypto.Scalar
}

// Factory produces the secret bytes and blinding scalar for one output.
// counter is only meaningful to deterministic factories; random factories
// ignore it.
type Factory interface {
	Next(keysetID string, counter uint32) (secret []byte, blinding *crypto.Scalar, err error)
}

// RandomFactory draws both the secret and the blinding factor from a CSPRNG,
// the default strategy for any output whose proof need not be recoverable
// from seed alone.
type RandomFactory struct{}

// Next implements Factory.
func (RandomFactory) Next(string, uint32) ([]byte, *crypto.Scalar, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, nil, err
	}
	secretHex := make([]byte, 64)
	const hexdigits = "0123456789abcdef"
	for i, b := range raw {
		secretHex[i*2] = hexdigits[b>>4]
		secretHex[i*2+1] = hexdigits[b&0x0f]
	}
	blinding, err := crypto.RandomScalar()
	if err != nil {
		return nil, nil, err
	}
	return secretHex, blinding, nil
}

// DeterministicFactory derives both the secret and the blinding factor from
// a wallet seed via crypto.Derive, making every output recoverable
// by replaying Seed/keysetID/counter without ever having stored the
// secret.
type DeterministicFactory struct {
	Seed []byte
}

// Next implements Factory.
func (f DeterministicFactory) Next(keysetID string, counter uint32) ([]byte, *crypto.Scalar, error) {
	secretHex, err := crypto.DeriveSecretHex(f.Seed, keysetID, counter)
	if err != nil {
		return nil, nil, err
	}
	blinding, err := crypto.DeriveBlindingScalar(f.Seed, keysetID, counter)
	if err != nil {
		return nil, nil, err
	}
	return []byte(secretHex), blinding, nil
}

// P2PKFactory wraps an underlying Factory (random or deterministic) and
// replaces the plain random/derived secret with a NUT-11 P2PK well-known
// secret locking every output to Options, leaving blinding-factor
// derivation to the inner factory unchanged.
type P2PKFactory struct {
	Inner   Factory
	Options secrets.P2PKOptions
}

// Next implements Factory.
func (f P2PKFactory) Next(keysetID string, counter uint32) ([]byte, *crypto.Scalar, error) {
	_, blinding, err := f.Inner.Next(keysetID, counter)
	if err != nil {
		return nil, nil, err
	}
	w, err := secrets.BuildP2PK(f.Options)
	if err != nil {
		return nil, nil, err
	}
	secretBytes, err := w.MarshalJSON()
	if err != nil {
		return nil, nil, err
	}
	return secretBytes, blinding, nil
}

// Build constructs one Data per amount, starting counters at startCounter
// and incrementing by one per output, the contiguous-range convention
// deterministic restore depends on.
func Build(amounts []cashu.Amount, keysetID string, factory Factory, startCounter uint32) ([]Data, error) {
	out := make([]Data, len(amounts))
	for i, amount := range amounts {
		secret, blinding, err := factory.Next(keysetID, startCounter+uint32(i))
		if err != nil {
			return nil, err
		}
		blinded, err := crypto.Blind(secret, blinding)
		if err != nil {
			return nil, err
		}
		out[i] = Data{
			Amount:   amount,
			KeysetID: keysetID,
			Secret:   secret,
			Blinding: blinding,
			Message: cashu.BlindedMessage{
				Amount: amount,
				ID:     keysetID,
				B_:     blinded.B_.Hex(),
			},
		}
	}
	return out, nil
}

// Batch is a combined keep+send output set submitted to a mint in one
// call, remembering which index was which so the eventual BlindSignature
// list (returned in the same order the messages were sent in) can be
// split back apart.
type Batch struct {
	Outputs []Data
	IsSend  []bool // parallel to Outputs
}

// BuildSwapBatch builds the combined, amount-sorted output batch for a
// swap: keepAmounts and sendAmounts are split independently (so each side
// gets its own contiguous deterministic counter range when factory is
// deterministic), concatenated, then sorted by amount with a stable sort
// so outputs of equal amount keep their keep/send order. The bit vector
// lets the wallet reassemble which returned signature belongs to which
// side without the mint ever being told.
func BuildSwapBatch(keepAmounts, sendAmounts []cashu.Amount, keysetID string, factory Factory, startCounter uint32) (*Batch, error) {
	keep, err := Build(keepAmounts, keysetID, factory, startCounter)
	if err != nil {
		return nil, err
	}
	send, err := Build(sendAmounts, keysetID, factory, startCounter+uint32(len(keepAmounts)))
	if err != nil {
		return nil, err
	}

	type tagged struct {
		data   Data
		isSend bool
	}
	combined := make([]tagged, 0, len(keep)+len(send))
	for _, d := range keep {
		combined = append(combined, tagged{d, false})
	}
	for _, d := range send {
		combined = append(combined, tagged{d, true})
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].data.Amount < combined[j].data.Amount
	})

	batch := &Batch{
		Outputs: make([]Data, len(combined)),
		IsSend:  make([]bool, len(combined)),
	}
	for i, t := range combined {
		batch.Outputs[i] = t.data
		batch.IsSend[i] = t.isSend
	}
	return batch, nil
}

// Messages extracts the wire-format BlindedMessage list, in order, for
// submission to a mint.
func (b *Batch) Messages() []cashu.BlindedMessage {
	out := make([]cashu.BlindedMessage, len(b.Outputs))
	for i, d := range b.Outputs {
		out[i] = d.Message
	}
	return out
}

// Split partitions signatures, which must be the same length and order as
// b.Outputs, into the keep and send sides recorded in b.IsSend.
func (b *Batch) Split(signatures []cashu.BlindSignature) (keep, send []cashu.BlindSignature, keepData, sendData []Data) {
	for i, sig := range signatures {
		if b.IsSend[i] {
			send = append(send, sig)
			sendData = append(sendData, b.Outputs[i])
		} else {
			keep = append(keep, sig)
			keepData = append(keepData, b.Outputs[i])
		}
	}
	return
}

// Unblind turns a BlindSignature and its matching Data into a spendable
// Proof, verifying the signature's DLEQ proof when the mint provided one
// (a wallet must not silently accept a bad DLEQ, but also must not
// require one from mints that don't support NUT-12).
func Unblind(sig cashu.BlindSignature, data Data, mintKey *crypto.Point) (cashu.Proof, error) {
	cPrime, err := crypto.ParseHexPoint(sig.C_)
	if err != nil {
		return cashu.Proof{}, err
	}
	c := crypto.Unblind(cPrime, data.Blinding, mintKey)

	proof := cashu.Proof{
		Amount: data.Amount,
		ID:     data.KeysetID,
		Secret: string(data.Secret),
		C:      c.Hex(),
	}

	if sig.DLEQ != nil {
		eBytes, err := hex.DecodeString(sig.DLEQ.E)
		if err != nil {
			return cashu.Proof{}, err
		}
		sBytes, err := hex.DecodeString(sig.DLEQ.S)
		if err != nil {
			return cashu.Proof{}, err
		}
		eScalar := crypto.ScalarFromBytes(eBytes)
		sScalar := crypto.ScalarFromBytes(sBytes)
		proof.DLEQ = &cashu.DLEQPublic{
			E: sig.DLEQ.E,
			S: sig.DLEQ.S,
			R: data.Blinding.Hex(),
		}
		ok, err := crypto.VerifyDLEQReblind(&crypto.DLEQProof{E: eScalar, S: sScalar, R: data.Blinding}, data.Secret, c, mintKey)
		if err != nil {
			return cashu.Proof{}, err
		}
		if !ok {
			return cashu.Proof{}, crypto.ErrDLEQMismatch
		}
	}
	return proof, nil
}
