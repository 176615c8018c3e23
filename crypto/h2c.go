package crypto

import (
	"crypto/sha256"
	"encoding/binary"
)

// DomainSeparator is prepended to the secret before the outer SHA-256 in
// HashToCurve.
const DomainSeparator = "Secp256k1_HashToCurve_Cashu_"

// maxH2CIterations bounds the hash_to_curve retry loop. Each candidate has
// roughly even odds of lying on the curve, so running out is not reachable
// in practice; it is still checked so the function has a defined failure
// mode instead of looping forever on a hostile input.
const maxH2CIterations = 1 << 16

// HashToCurve deterministically maps an arbitrary secret
// to a secp256k1 point with no known discrete log, by trying successive
// SHA-256 outputs as compressed-point X coordinates until one lifts.
func HashToCurve(secret []byte) (*Point, error) {
	h := sha256.New()
	h.Write([]byte(DomainSeparator))
	h.Write(secret)
	msgHash := h.Sum(nil)

	var counter [4]byte
	for i := uint32(0); i < maxH2CIterations; i++ {
		binary.LittleEndian.PutUint32(counter[:], i)

		c := sha256.New()
		c.Write(msgHash)
		c.Write(counter[:])
		candidate := c.Sum(nil)

		compressed := make([]byte, 0, 33)
		compressed = append(compressed, 0x02)
		compressed = append(compressed, candidate...)

		if point, err := ParseCompressedPoint(compressed); err == nil {
			return point, nil
		}
	}
	return nil, ErrNoPointFound
}
