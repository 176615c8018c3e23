package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"

	"github.com/ecashkit/cashu/crypto"
)

// SigFlag controls whether a P2PK witness must cover only the proof's own
// inputs (SIG_INPUTS, the default) or the whole transaction (SIG_ALL).
type SigFlag string

const (
	SigInputs SigFlag = "SIG_INPUTS"
	SigAll    SigFlag = "SIG_ALL"
)

// ErrInsufficientSignatures is returned by callers that treat a failed
// VerifyWitness as an error rather than a boolean.
var ErrInsufficientSignatures = errors.New("witness does not meet required signature threshold")

// P2PKSecret is the parsed form of a NUT-10/11 P2PK secret.
type P2PKSecret struct {
	Nonce       string
	Data        string // primary pubkey, hex compressed
	Pubkeys     []string
	NSigs       int
	Locktime    int64
	Refund      []string
	NSigsRefund int
	SigFlag     SigFlag
}

// P2PKOptions configures BuildP2PK. Zero values mean "not set": NSigs/
// NSigsRefund of 0 mean single-sig (1-of-1), Locktime of 0 means no
// locktime, and an empty SigFlag means SIG_INPUTS.
type P2PKOptions struct {
	Pubkey      string
	Pubkeys     []string
	NSigs       int
	Locktime    int64
	Refund      []string
	NSigsRefund int
	SigFlag     SigFlag
}

// BuildP2PK constructs a well-known P2PK secret from options, applying the
// tag-omission rules: a solo signer with m=1 never gets an n_sigs
// tag, a solo refund signer with m_refund=1 never gets n_sigs_refund, and
// any requested threshold above the number of listed keys is clamped down
// to that count.
func BuildP2PK(opts P2PKOptions) (*WellKnown, error) {
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}

	nSigs := opts.NSigs
	if nSigs > len(opts.Pubkeys)+1 {
		nSigs = len(opts.Pubkeys) + 1
	}
	nSigsRefund := opts.NSigsRefund
	if nSigsRefund > len(opts.Refund) {
		nSigsRefund = len(opts.Refund)
	}

	var tags []Tag
	if len(opts.Pubkeys) > 0 {
		tags = append(tags, append(Tag{"pubkeys"}, opts.Pubkeys...))
	}
	if !(len(opts.Pubkeys) == 0 && nSigs <= 1) {
		if nSigs >= 1 {
			tags = append(tags, Tag{"n_sigs", strconv.Itoa(nSigs)})
		}
	}
	if opts.Locktime > 0 {
		tags = append(tags, Tag{"locktime", strconv.FormatInt(opts.Locktime, 10)})
	}
	if len(opts.Refund) > 0 {
		tags = append(tags, append(Tag{"refund"}, opts.Refund...))
		if !(len(opts.Refund) == 1 && nSigsRefund <= 1) {
			if nSigsRefund >= 1 {
				tags = append(tags, Tag{"n_sigs_refund", strconv.Itoa(nSigsRefund)})
			}
		}
	}
	if opts.SigFlag == SigAll {
		tags = append(tags, Tag{"sigflag", string(SigAll)})
	}

	return &WellKnown{
		Kind: KindP2PK,
		Body: Body{Nonce: nonce, Data: opts.Pubkey, Tags: tags},
	}, nil
}

// ParseP2PK interprets a WellKnown's tags as a P2PK secret.
func ParseP2PK(w *WellKnown) (*P2PKSecret, error) {
	if w.Kind != KindP2PK {
		return nil, ErrUnknownKind
	}
	s := &P2PKSecret{
		Nonce:   w.Body.Nonce,
		Data:    w.Body.Data,
		Pubkeys: tagValues(w.Body.Tags, "pubkeys"),
		Refund:  tagValues(w.Body.Tags, "refund"),
		SigFlag: SigInputs,
	}
	if v := tagValues(w.Body.Tags, "n_sigs"); len(v) == 1 {
		n, err := strconv.Atoi(v[0])
		if err != nil {
			return nil, ErrMalformed
		}
		s.NSigs = n
	}
	if v := tagValues(w.Body.Tags, "n_sigs_refund"); len(v) == 1 {
		n, err := strconv.Atoi(v[0])
		if err != nil {
			return nil, ErrMalformed
		}
		s.NSigsRefund = n
	}
	if v := tagValues(w.Body.Tags, "locktime"); len(v) == 1 {
		n, err := strconv.ParseInt(v[0], 10, 64)
		if err != nil {
			return nil, ErrMalformed
		}
		s.Locktime = n
	}
	if v := tagValues(w.Body.Tags, "sigflag"); len(v) == 1 && v[0] == string(SigAll) {
		s.SigFlag = SigAll
	}
	return s, nil
}

// ExpectedSigners returns the pubkey set governing the secret at time now
// and the signature threshold against that set. An empty signer set
// with threshold 0 means unconditionally unlocked (a refund branch with no
// refund keys configured).
func (s *P2PKSecret) ExpectedSigners(now int64) (signers []string, threshold int) {
	if s.Locktime == 0 || now < s.Locktime {
		// Extra pubkeys only join the signer set when an explicit n_sigs
		// threshold was declared; without one the lock is single-sig on
		// data alone.
		if s.NSigs >= 1 {
			signers = append([]string{s.Data}, s.Pubkeys...)
		} else {
			signers = []string{s.Data}
		}
		threshold = clampThreshold(s.NSigs, len(signers))
	} else {
		signers = append([]string{}, s.Refund...)
		threshold = clampThreshold(s.NSigsRefund, len(signers))
	}
	return signers, threshold
}

func clampThreshold(n, max int) int {
	if n <= 0 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n
}

// secretHash is the message P2PK signatures are computed over:
// SHA-256(secret_bytes), where secret_bytes is the exact serialized
// ["P2PK", {...}] JSON this secret round-trips to.
func secretHash(secretBytes []byte) [32]byte {
	return sha256.Sum256(secretBytes)
}

// Sign appends a BIP-340 signature for each of signingKeys whose public key
// is both in the active signer set and not already represented in
// existingSigs, returning the full updated signature list in hex. Secrets
// a holder has no key for are silently skipped rather than erroring, since
// a multisig participant only ever controls some of the signer set.
func Sign(secretBytes []byte, signers []string, signingKeys []*crypto.Scalar, existingSigs []string) ([]string, error) {
	hash := secretHash(secretBytes)
	signerSet := make(map[string]bool, len(signers))
	for _, s := range signers {
		signerSet[s] = true
	}

	have := make(map[string]bool, len(existingSigs))
	for _, sigHex := range existingSigs {
		sigBytes, err := hex.DecodeString(sigHex)
		if err != nil {
			continue
		}
		for pk := range signerSet {
			point, err := crypto.ParseHexPoint(pk)
			if err != nil {
				continue
			}
			if crypto.SchnorrVerify(point, hash[:], sigBytes) {
				have[pk] = true
			}
		}
	}

	sigs := append([]string{}, existingSigs...)
	for _, key := range signingKeys {
		pubHex := key.BasePointMul().Hex()
		if !signerSet[pubHex] || have[pubHex] {
			continue
		}
		sigBytes, err := crypto.SchnorrSign(key, hash[:])
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, hex.EncodeToString(sigBytes))
		have[pubHex] = true
	}
	return sigs, nil
}

// VerifyWitness checks that witnessSigs contains at least threshold valid,
// distinct-signer signatures over secretBytes against signers.
func VerifyWitness(secretBytes []byte, signers []string, threshold int, witnessSigs []string) bool {
	if threshold == 0 {
		return true
	}
	hash := secretHash(secretBytes)
	satisfied := make(map[string]bool)
	for _, sigHex := range witnessSigs {
		sigBytes, err := hex.DecodeString(sigHex)
		if err != nil {
			continue
		}
		for _, pk := range signers {
			if satisfied[pk] {
				continue
			}
			point, err := crypto.ParseHexPoint(pk)
			if err != nil {
				continue
			}
			if crypto.SchnorrVerify(point, hash[:], sigBytes) {
				satisfied[pk] = true
			}
		}
	}
	return len(satisfied) >= threshold
}
