// Deterministic secret/blinding-factor derivation: given a wallet seed, a
// keyset id and a counter, produce the same 32 bytes every time, so a
// wallet can be restored from seed alone without ever persisting a secret.
// Two unrelated schemes are selected purely by the shape of the keyset id:
// legacy BIP-32 derivation via btcsuite's hdkeychain, and the newer
// HMAC-SHA256 scheme.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// DerivationType selects which of the two related-but-independent values
// a derivation call produces.
type DerivationType byte

const (
	DerivationSecret   DerivationType = 0
	DerivationBlinding DerivationType = 1
)

// kdfDomain is the only accepted HMAC domain string for the "current"
// scheme. A sibling "Cashu_KDF_HMAC_SHA512" string has circulated in some
// implementations; it is never accepted here.
const kdfDomain = "Cashu_KDF_HMAC_SHA256"

// legacyPurpose is the non-hardened-compatible BIP-32 path
// prefix used by the legacy scheme: m/129372'/0'/<id>'/<counter>'/<type>.
const legacyPurpose = uint32(129372)

var (
	ErrUnsupportedKDFDomain = errors.New("unsupported KDF domain (only HMAC-SHA256 is accepted)")
	ErrInvalidSeed          = errors.New("seed must be 64 bytes")
)

// IsLegacyBase64ID reports whether id has the shape of a pre-NUT-02 legacy
// keyset id: exactly 12 base64 characters decoding to 8 bytes, rather than
// 16 hex characters. Both forms select the legacy BIP-32 derivation
// scheme; only the hex form additionally participates in the keyset-id
// recomputation invariant.
func IsLegacyBase64ID(id string) bool {
	if len(id) != 12 {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return false
	}
	return len(decoded) == 8
}

// keysetIDInt treats the id as an integer modulo 2^31 - 1: hex ids are
// parsed big-endian directly; base64 ids are decoded to bytes first, then
// parsed big-endian.
func keysetIDInt(id string) (uint32, error) {
	var raw []byte
	if IsLegacyBase64ID(id) {
		decoded, err := base64.StdEncoding.DecodeString(id)
		if err != nil {
			return 0, err
		}
		raw = decoded
	} else {
		decoded, err := hex.DecodeString(id)
		if err != nil {
			return 0, err
		}
		raw = decoded
	}

	n := new(big.Int).SetBytes(raw)
	mod := big.NewInt((1 << 31) - 1)
	n.Mod(n, mod)
	return uint32(n.Uint64()), nil
}

// DeriveLegacy implements the 0x00 scheme: BIP-32 non-hardened-compatible
// derivation from the seed along m/129372'/0'/<id_int>'/<counter>'/<type>,
// returning the resulting 32-byte private key.
func DeriveLegacy(seed []byte, keysetID string, counter uint32, derivType DerivationType) ([]byte, error) {
	if len(seed) != 64 {
		return nil, ErrInvalidSeed
	}
	idInt, err := keysetIDInt(keysetID)
	if err != nil {
		return nil, err
	}

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}

	path := []uint32{
		legacyPurpose + hdkeychain.HardenedKeyStart,
		0 + hdkeychain.HardenedKeyStart,
		idInt + hdkeychain.HardenedKeyStart,
		counter + hdkeychain.HardenedKeyStart,
		uint32(derivType), // final path element is not hardened
	}

	key := master
	for _, idx := range path {
		key, err = key.Derive(idx)
		if err != nil {
			return nil, err
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}
	return priv.Serialize(), nil
}

// DeriveCurrent implements the 0x01 scheme:
// HMAC-SHA256(seed, domain || id_bytes || counter_BE8 || type_byte).
// For DerivationSecret the 32-byte MAC is returned as-is (the caller
// hex-encodes it to build the proof's secret field). For DerivationBlinding
// the MAC is reduced modulo the curve order (subtracting n at most once)
// and an all-zero result, which is cryptographically unreachable but
// checked, is rejected with ErrScalarZero.
func DeriveCurrent(seed []byte, keysetID string, counter uint32, derivType DerivationType) ([]byte, error) {
	if len(seed) != 64 {
		return nil, ErrInvalidSeed
	}
	idBytes, err := hex.DecodeString(keysetID)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, seed)
	mac.Write([]byte(kdfDomain))
	mac.Write(idBytes)
	var counterBE [8]byte
	binary.BigEndian.PutUint64(counterBE[:], uint64(counter))
	mac.Write(counterBE[:])
	mac.Write([]byte{byte(derivType)})
	out := mac.Sum(nil)

	if derivType == DerivationBlinding {
		s := ScalarFromBytes(out) // reduces mod n, matching "subtract n once"
		if s.IsZero() {
			return nil, ErrScalarZero
		}
		return s.Bytes(), nil
	}
	return out, nil
}

// Derive dispatches to DeriveLegacy or DeriveCurrent based on the keyset
// id's shape.
func Derive(seed []byte, keysetID string, counter uint32, derivType DerivationType) ([]byte, error) {
	if IsLegacyBase64ID(keysetID) {
		return DeriveLegacy(seed, keysetID, counter, derivType)
	}
	version, err := ParseKeysetIDVersion(keysetID)
	if err != nil {
		return nil, err
	}
	switch version {
	case KeysetIDLegacy:
		return DeriveLegacy(seed, keysetID, counter, derivType)
	case KeysetIDCurrent:
		return DeriveCurrent(seed, keysetID, counter, derivType)
	default:
		return nil, ErrUnknownKeysetVersion
	}
}

// DeriveSecretHex derives a secret and hex-encodes it to the 64-ASCII-byte
// form that actually becomes a proof's secret field, the same shape
// random-secret mode produces.
func DeriveSecretHex(seed []byte, keysetID string, counter uint32) (string, error) {
	raw, err := Derive(seed, keysetID, counter, DerivationSecret)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// DeriveBlindingScalar derives the blinding factor r for a given counter.
func DeriveBlindingScalar(seed []byte, keysetID string, counter uint32) (*Scalar, error) {
	raw, err := Derive(seed, keysetID, counter, DerivationBlinding)
	if err != nil {
		return nil, err
	}
	return ScalarFromPrivateKeyBytes(raw)
}
