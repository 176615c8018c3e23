package crypto

// BlindedSecret is the result of blinding a message: the point sent to the
// mint (B_), the blinding factor the client must keep to unblind the
// signature later (r), and the secret bytes the point was derived from.
type BlindedSecret struct {
	B_     *Point
	R      *Scalar
	Secret []byte
}

// Blind implements the client side of BDHKE blinding:
// B_ = hashToCurve(secret) + r*G.
func Blind(secret []byte, r *Scalar) (*BlindedSecret, error) {
	Y, err := HashToCurve(secret)
	if err != nil {
		return nil, err
	}
	B_ := Y.Add(r.BasePointMul())
	return &BlindedSecret{B_: B_, R: r, Secret: secret}, nil
}

// Unblind removes the blinding factor from a mint signature C_, returning
// the proof's signature C = C_ - r*A, where A is the mint's public key for
// the denomination the signature was issued under.
func Unblind(C_ *Point, r *Scalar, A *Point) *Point {
	return C_.Sub(A.Mul(r))
}

// Sign computes C_ = a*B_, the mint side of BDHKE. It is implemented here
// (rather than only documented) because wallet-side test vectors and the
// deterministic derivation tests need to role-play a mint without a real
// one to talk to; it is never called from the wallet package's production
// paths.
func Sign(B_ *Point, a *Scalar) *Point {
	return B_.Mul(a)
}

// VerifyUnblinded checks that a*hash_to_curve(secret) == C, i.e. that C is
// a correctly signed proof for secret under private key a. It has the same
// "never called from production wallet code" caveat as Sign: the wallet
// never holds a mint private key, so this exists for tests and for anyone
// embedding both sides of the protocol (e.g. integration harnesses).
func VerifyUnblinded(secret []byte, a *Scalar, C *Point) (bool, error) {
	Y, err := HashToCurve(secret)
	if err != nil {
		return false, err
	}
	return Y.Mul(a).Equal(C), nil
}
