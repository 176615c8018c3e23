package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

var (
	ErrInvalidPoint  = errors.New("marshaled point was invalid")
	ErrIdentityPoint = errors.New("point is the identity element")
	ErrNoPointFound  = errors.New("hash_to_curve failed to find a point")
	ErrScalarZero    = errors.New("scalar reduced to zero")
)

// Point is a non-identity secp256k1 point, always carried in its
// compressed-serializable affine form. It wraps *secp256k1.PublicKey purely
// so this package controls the wire codec (hex, 33-byte compressed) at a
// single seam.
type Point struct {
	pub *secp256k1.PublicKey
}

// G is the secp256k1 base/generator point.
func G() *Point {
	var one secp256k1.ModNScalar
	one.SetInt(1)
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&one, &result)
	result.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&result.X, &result.Y)}
}

// NewPointFromPublicKey wraps an already-validated secp256k1 public key.
func NewPointFromPublicKey(pub *secp256k1.PublicKey) *Point {
	return &Point{pub: pub}
}

// PublicKey exposes the underlying key for callers in this package that
// need to drop to raw secp256k1 operations (Schnorr verification).
func (p *Point) PublicKey() *secp256k1.PublicKey { return p.pub }

// ParseCompressedPoint parses a 33-byte SEC1-compressed point.
func ParseCompressedPoint(data []byte) (*Point, error) {
	if len(data) != 33 {
		return nil, ErrInvalidPoint
	}
	pub, err := secp256k1.ParsePubKey(data)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return &Point{pub: pub}, nil
}

// ParseHexPoint parses a hex-encoded compressed point, as used in keyset
// key maps and blinded-message wire fields.
func ParseHexPoint(h string) (*Point, error) {
	if len(h)%2 != 0 {
		return nil, ErrInvalidPoint
	}
	data, err := hex.DecodeString(h)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	return ParseCompressedPoint(data)
}

// Compressed returns the 33-byte SEC1-compressed encoding.
func (p *Point) Compressed() []byte {
	return p.pub.SerializeCompressed()
}

// Hex returns the lowercase hex compressed encoding.
func (p *Point) Hex() string {
	return hex.EncodeToString(p.Compressed())
}

// UncompressedHex returns the 130-char lowercase hex of the 65-byte
// uncompressed (0x04 || X || Y) encoding, the exact format hashE
// concatenates over for the DLEQ Fiat-Shamir challenge.
func (p *Point) UncompressedHex() string {
	return hex.EncodeToString(p.pub.SerializeUncompressed())
}

// Equal reports whether two points are the same curve point.
func (p *Point) Equal(o *Point) bool {
	return p.pub.IsEqual(o.pub)
}

func (p *Point) jacobian() secp256k1.JacobianPoint {
	var j secp256k1.JacobianPoint
	p.pub.AsJacobian(&j)
	return j
}

// Add returns p + q.
func (p *Point) Add(q *Point) *Point {
	pj, qj := p.jacobian(), q.jacobian()
	var result secp256k1.JacobianPoint
	secp256k1.AddNonConst(&pj, &qj, &result)
	result.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&result.X, &result.Y)}
}

// Sub returns p - q.
func (p *Point) Sub(q *Point) *Point {
	return p.Add(q.Negate())
}

// Negate returns -p.
func (p *Point) Negate() *Point {
	j := p.jacobian()
	j.ToAffine()
	y := j.Y
	y.Negate(1).Normalize()
	return &Point{pub: secp256k1.NewPublicKey(&j.X, &y)}
}

// Mul returns s*p.
func (p *Point) Mul(s *Scalar) *Point {
	pj := p.jacobian()
	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.s, &pj, &result)
	result.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&result.X, &result.Y)}
}

// XBytes returns the 32-byte big-endian X coordinate, used by P2BK's ECDH
// shared-secret derivation.
func (p *Point) XBytes() [32]byte {
	j := p.jacobian()
	j.ToAffine()
	return *j.X.Bytes()
}

// Scalar is an integer in [1, n-1] where n is the secp256k1 group order.
// The zero value is not a valid Scalar; use RandomScalar or ScalarFromBytes.
type Scalar struct {
	s secp256k1.ModNScalar
}

// RandomScalar samples a uniformly random non-zero scalar.
func RandomScalar() (*Scalar, error) {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return nil, err
		}
		var s secp256k1.ModNScalar
		s.SetByteSlice(buf[:])
		if s.IsZero() {
			continue
		}
		return &Scalar{s: s}, nil
	}
}

// ScalarFromBytes reduces a 32-byte big-endian integer modulo n. It does not
// reject zero; callers that must reject zero (derivation) check IsZero
// explicitly, keeping the "subtract n once, then check zero" sequence a
// single allocation.
func ScalarFromBytes(b []byte) *Scalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice(b)
	return &Scalar{s: s}
}

// ScalarFromPrivateKeyBytes parses an already-canonical 32-byte scalar
// (e.g. a BIP-32 derived private key) and rejects silent reduction.
func ScalarFromPrivateKeyBytes(b []byte) (*Scalar, error) {
	if len(b) != 32 {
		return nil, ErrInvalidPoint
	}
	var s secp256k1.ModNScalar
	overflow := s.SetByteSlice(b)
	if overflow {
		return nil, ErrScalarZero
	}
	return &Scalar{s: s}, nil
}

// IsZero reports whether the scalar is congruent to 0 mod n.
func (s *Scalar) IsZero() bool { return s.s.IsZero() }

// Bytes returns the canonical 32-byte big-endian encoding.
func (s *Scalar) Bytes() []byte {
	b := s.s.Bytes()
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// Hex returns the lowercase hex encoding of Bytes.
func (s *Scalar) Hex() string {
	return hex.EncodeToString(s.Bytes())
}

// Negate returns -s mod n.
func (s *Scalar) Negate() *Scalar {
	var neg secp256k1.ModNScalar
	neg.NegateVal(&s.s)
	return &Scalar{s: neg}
}

// Add returns s + o mod n as a fresh Scalar, leaving both inputs untouched.
func (s *Scalar) Add(o *Scalar) *Scalar {
	sum := s.s
	sum.Add(&o.s)
	return &Scalar{s: sum}
}

// Mul returns s * o mod n as a fresh Scalar, leaving both inputs untouched.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	product := s.s
	product.Mul(&o.s)
	return &Scalar{s: product}
}

// PrivateKey adapts the scalar to the secp256k1 library's key type.
func (s *Scalar) PrivateKey() *secp256k1.PrivateKey {
	return secp256k1.NewPrivateKey(&s.s)
}

// BasePointMul returns s*G without requiring the caller to construct G.
func (s *Scalar) BasePointMul() *Point {
	var result secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.s, &result)
	result.ToAffine()
	return &Point{pub: secp256k1.NewPublicKey(&result.X, &result.Y)}
}

// ConstantTimeEqual compares two byte slices in constant time, used for
// secret/signature comparisons.
//
// The underlying secp256k1.ModNScalar/FieldVal arithmetic this package
// builds on is the decred implementation's field/group code, which is
// written to avoid data-dependent branching but does not carry a formal
// constant-time guarantee, so constant-time behavior here is best-effort
// rather than strict.
func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
