// DLEQ: a non-interactive proof that the same secret scalar was used both
// to derive the mint's public key A = a*G and to sign a particular blinded
// point, i.e. that C_ = a*B_. This is the discrete-log-equality proof
// (Chaum-Pedersen style): a Fiat-Shamir challenge hashed over the public
// points, and a single response scalar.
package crypto

import (
	"crypto/sha256"
	"errors"
)

var ErrDLEQMismatch = errors.New("DLEQ proof does not verify")

// DLEQProof is (e, s, r?): e is the Fiat-Shamir challenge, s the response,
// and r the blinding factor, carried only when the proof travels with a
// proof (not a blind signature) so the holder can re-derive B_ and C_
// without the mint (reblind verification).
type DLEQProof struct {
	E *Scalar
	S *Scalar
	R *Scalar // nil on mint-issued BlindSignature.dleq; set on Proof.dleq
}

// hashE computes the Fiat-Shamir challenge: SHA-256 over the UTF-8 concatenation of
// the uncompressed hex encodings of the given points, no separator.
func hashE(points ...*Point) [32]byte {
	h := sha256.New()
	for _, p := range points {
		h.Write([]byte(p.UncompressedHex()))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// CreateDLEQ builds a proof that C_ = a*B_, given the mint's private key a.
// Used by test harnesses and anyone embedding a mint role; the wallet
// package only ever verifies proofs, never creates them.
func CreateDLEQ(a *Scalar, B_, C_ *Point) (*DLEQProof, error) {
	k, err := RandomScalar()
	if err != nil {
		return nil, err
	}
	R1 := k.BasePointMul()
	R2 := B_.Mul(k)

	eBytes := hashE(R1, R2, a.BasePointMul(), C_)
	e := ScalarFromBytes(eBytes[:])

	// s = k + e*a (mod n)
	s := k.Add(e.Mul(a))

	return &DLEQProof{E: e, S: s}, nil
}

// VerifyDLEQ checks a DLEQ proof over a (B_, C_, A) blind-signature context
// accepting iff hashE(s*G - e*A, s*B_ - e*C_, A, C_) == e.
func VerifyDLEQ(proof *DLEQProof, B_, C_, A *Point) bool {
	if proof == nil || proof.E == nil || proof.S == nil {
		return false
	}
	sG := proof.S.BasePointMul()
	eA := A.Mul(proof.E)
	R1 := sG.Sub(eA)

	sB_ := B_.Mul(proof.S)
	eC_ := C_.Mul(proof.E)
	R2 := sB_.Sub(eC_)

	computed := hashE(R1, R2, A, C_)
	return ConstantTimeEqual(computed[:], proof.E.Bytes())
}

// VerifyDLEQReblind verifies a proof carried on a received Proof: it
// reconstructs B_ = hashToCurve(secret) + r*G and
// C_ = C + r*A from the proof's own r, then runs the standard check. This
// lets a receiving wallet verify the mint's signature over C without
// needing the mint to repeat itself, and without trusting the sender.
func VerifyDLEQReblind(proof *DLEQProof, secret []byte, C, A *Point) (bool, error) {
	if proof == nil || proof.R == nil {
		return false, nil
	}
	Y, err := HashToCurve(secret)
	if err != nil {
		return false, err
	}
	B_ := Y.Add(proof.R.BasePointMul())
	C_ := C.Add(A.Mul(proof.R))
	return VerifyDLEQ(proof, B_, C_, A), nil
}
