package crypto

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// SchnorrSign produces a BIP-340 signature over hash using the given
// private scalar, for P2PK witness signatures. hash is expected to
// already be SHA-256(secret_bytes); this function does not hash its
// input again.
func SchnorrSign(priv *Scalar, hash []byte) ([]byte, error) {
	sig, err := schnorr.Sign(priv.PrivateKey(), hash)
	if err != nil {
		return nil, err
	}
	return sig.Serialize(), nil
}

// SchnorrVerify checks a BIP-340 signature against a Cashu pubkey. Cashu
// pubkeys are carried as 33-byte compressed SEC1 points (leading 0x02/0x03);
// BIP-340 verification is defined over the 32-byte x-only form, so the
// sign byte is dropped here.
func SchnorrVerify(pub *Point, hash []byte, sigBytes []byte) bool {
	sig, err := schnorr.ParseSignature(sigBytes)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pub.PublicKey())
}
