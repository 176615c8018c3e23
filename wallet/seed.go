package wallet

import (
	"github.com/tyler-smith/go-bip39"

	"github.com/ecashkit/cashu"
)

// SeedFromMnemonic validates a BIP-39 mnemonic and turns it into the
// 64-byte seed Env.Seed expects. No passphrase support: Cashu wallets
// seed from the mnemonic alone, never a BIP-39 passphrase.
func SeedFromMnemonic(mnemonic string) ([]byte, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, cashu.NewValidationError(cashu.CodeSecretParse, "invalid BIP-39 mnemonic", nil)
	}
	return bip39.NewSeed(mnemonic, ""), nil
}

// NewMnemonic generates a fresh 24-word BIP-39 mnemonic (256 bits of
// entropy) suitable for SeedFromMnemonic, for callers creating a wallet
// for the first time rather than restoring one.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}
