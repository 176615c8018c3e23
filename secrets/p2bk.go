package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/ecashkit/cashu/crypto"
)

// p2bkDST is the domain separator mixed into every per-slot tweak
// derivation, keeping it out of any other hash domain used elsewhere in
// the wallet (NUT-26).
const p2bkDST = "Cashu_P2BK_v1"

var (
	ErrP2BKMismatch    = errors.New("derived P2BK key does not unlock the advertised pubkey")
	ErrP2BKSlotTooWide = errors.New("p2bk slot index does not fit in one byte")
	ErrP2BKNoReceivers = errors.New("p2bk secret needs at least one receiver pubkey")
	ErrP2BKNoSuchSlot  = errors.New("p2bk secret has no such slot")
)

// P2BKSecret is the parsed form of a NUT-26 P2BK secret: Data is slot 0's
// blinded lock pubkey P'_0, Pubkeys carries the lock pubkeys of any
// additional slots (P'_1 onward, in slot order), and Sender is the
// sender's ephemeral pubkey E so a receiver can recompute the ECDH shared
// point without ever learning the sender's private key.
type P2BKSecret struct {
	Nonce   string
	Data    string   // P'_0, hex compressed
	Pubkeys []string // P'_1.., hex compressed, one per additional slot
	Sender  string   // E = e*G, hex compressed
}

// Slots returns how many receiver slots the secret carries.
func (s *P2BKSecret) Slots() int { return 1 + len(s.Pubkeys) }

// LockPoint returns slot's blinded lock pubkey: Data for slot 0, the
// pubkeys tag entries for the rest.
func (s *P2BKSecret) LockPoint(slot uint32) (string, error) {
	if slot == 0 {
		return s.Data, nil
	}
	if int(slot) > len(s.Pubkeys) {
		return "", ErrP2BKNoSuchSlot
	}
	return s.Pubkeys[slot-1], nil
}

// deriveTweak computes the per-slot scalar tweak r_i = SHA-256(DST ||
// Zx_i || keyset_id_bytes || i_byte) mod n, where Zx_i is the 32-byte X
// coordinate of the ECDH shared point and i_byte is the single-byte slot
// index. Both sender and receiver compute the same shared point
// from opposite ends of the same ECDH exchange (Z = e*P = p*E), so this
// is the one piece of per-slot state that must round-trip exactly. If
// the hash reduces to zero mod n, derivation retries once with an extra
// 0xff byte appended; a second zero is treated as a derivation failure
// rather than silently reducing to an unusable tweak.
func deriveTweak(shared *crypto.Point, keysetID string, slot uint32) (*crypto.Scalar, error) {
	if slot > 0xff {
		return nil, ErrP2BKSlotTooWide
	}
	idBytes, err := hex.DecodeString(keysetID)
	if err != nil {
		return nil, err
	}
	zx := shared.XBytes()

	tweak := hashTweak(zx[:], idBytes, byte(slot), false)
	if tweak.IsZero() {
		tweak = hashTweak(zx[:], idBytes, byte(slot), true)
		if tweak.IsZero() {
			return nil, crypto.ErrScalarZero
		}
	}
	return tweak, nil
}

func hashTweak(zx, keysetIDBytes []byte, slot byte, retry bool) *crypto.Scalar {
	h := sha256.New()
	h.Write([]byte(p2bkDST))
	h.Write(zx)
	h.Write(keysetIDBytes)
	h.Write([]byte{slot})
	if retry {
		h.Write([]byte{0xff})
	}
	return crypto.ScalarFromBytes(h.Sum(nil))
}

// lockPointFor derives one slot's blinded lock pubkey P'_i = P_i + r_i*G,
// where r_i comes from the ECDH exchange between senderKey and that slot's
// receiver pubkey.
func lockPointFor(receiver *crypto.Point, senderKey *crypto.Scalar, keysetID string, slot uint32) (*crypto.Point, error) {
	shared := receiver.Mul(senderKey)
	tweak, err := deriveTweak(shared, keysetID, slot)
	if err != nil {
		return nil, err
	}
	return receiver.Add(tweak.BasePointMul()), nil
}

// BuildP2BK constructs a P2BK lock over one or more receiver slots under a
// single ephemeral sender key: slot i's blinded lock pubkey is derived
// from an ECDH exchange between senderKey and receivers[i]. Slot 0's lock
// lands in the secret's data field; additional slots go into a pubkeys
// tag, in slot order, and E = senderKey*G is published once in a sender
// tag.
func BuildP2BK(receivers []*crypto.Point, senderKey *crypto.Scalar, keysetID string) (*WellKnown, error) {
	if len(receivers) == 0 {
		return nil, ErrP2BKNoReceivers
	}
	nonce, err := NewNonce()
	if err != nil {
		return nil, err
	}

	locks := make([]string, len(receivers))
	for i, receiver := range receivers {
		lock, err := lockPointFor(receiver, senderKey, keysetID, uint32(i))
		if err != nil {
			return nil, err
		}
		locks[i] = lock.Hex()
	}

	tags := []Tag{{"sender", senderKey.BasePointMul().Hex()}}
	if len(locks) > 1 {
		tags = append(tags, append(Tag{"pubkeys"}, locks[1:]...))
	}
	return &WellKnown{
		Kind: KindP2BK,
		Body: Body{Nonce: nonce, Data: locks[0], Tags: tags},
	}, nil
}

// ParseP2BK interprets a WellKnown's tags as a P2BK secret.
func ParseP2BK(w *WellKnown) (*P2BKSecret, error) {
	if w.Kind != KindP2BK {
		return nil, ErrUnknownKind
	}
	s := &P2BKSecret{
		Nonce:   w.Body.Nonce,
		Data:    w.Body.Data,
		Pubkeys: tagValues(w.Body.Tags, "pubkeys"),
	}
	if v := tagValues(w.Body.Tags, "sender"); len(v) == 1 {
		s.Sender = v[0]
	} else {
		return nil, ErrMalformed
	}
	return s, nil
}

// DeriveUnlockKey recomputes the private key that unlocks slot's lock
// pubkey, given the receiver's static private key p and the keyset the
// locked output belongs to. It recomputes the ECDH shared point from the
// receiver's side (receiverKey * senderPubkey, the same point the sender
// computed as senderKey * receiverPubkey), derives the same tweak, then
// tries both BIP-340 negation candidates sk1 = p + r_i and
// sk2 = (n - p) + r_i: a sender may have negated its receiver pubkey to
// the even-y representative before locking, so only one of the two
// candidates is guaranteed to match. Both the compressed and x-only
// serializations of both candidates are compared against the slot's lock
// point before returning, so the match is found without an early branch on
// which candidate or which serialization succeeded first.
func (s *P2BKSecret) DeriveUnlockKey(receiverKey *crypto.Scalar, keysetID string, slot uint32) (*crypto.Scalar, error) {
	senderPub, err := crypto.ParseHexPoint(s.Sender)
	if err != nil {
		return nil, err
	}
	lockHex, err := s.LockPoint(slot)
	if err != nil {
		return nil, err
	}
	lockPoint, err := crypto.ParseHexPoint(lockHex)
	if err != nil {
		return nil, err
	}

	shared := senderPub.Mul(receiverKey)
	tweak, err := deriveTweak(shared, keysetID, slot)
	if err != nil {
		return nil, err
	}

	cand1 := receiverKey.Add(tweak)
	cand2 := receiverKey.Negate().Add(tweak)

	lockCompressed := lockPoint.Compressed()
	lockX := lockPoint.XBytes()

	pub1 := cand1.BasePointMul()
	pub2 := cand2.BasePointMul()
	x1 := pub1.XBytes()
	x2 := pub2.XBytes()

	full1 := crypto.ConstantTimeEqual(pub1.Compressed(), lockCompressed)
	xonly1 := crypto.ConstantTimeEqual(x1[:], lockX[:])
	full2 := crypto.ConstantTimeEqual(pub2.Compressed(), lockCompressed)
	xonly2 := crypto.ConstantTimeEqual(x2[:], lockX[:])
	match1 := full1 || xonly1
	match2 := full2 || xonly2

	switch {
	case match1:
		return cand1, nil
	case match2:
		return cand2, nil
	default:
		return nil, ErrP2BKMismatch
	}
}
