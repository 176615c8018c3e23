// Package crypto implements the cryptographic core of the wallet: secp256k1
// point handling, hash_to_curve, the BDHKE blind-signature protocol, DLEQ
// proof construction/verification, BIP-340 Schnorr signing for spending
// conditions, keyset-id computation, and deterministic secret/blinding
// derivation from a seed.
//
// All scalar arithmetic here reduces modulo the secp256k1 group order. None
// of it is safe to skip: a caller that needs only a subset (e.g. just
// hash_to_curve) should still go through this package rather than
// reimplementing it, since the constant-time discipline documented on each
// function only holds for this implementation.
package crypto
