package wallet

import (
	"encoding/hex"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
)

// verifyReceivedDLEQ checks every proof's carried DLEQ against the issuing
// keyset's public key for that proof's amount: a receiving wallet
// must run reblind-verify on (secret, C, A, e, s, r) before trusting a
// token, since the sender is not trusted to have checked it already. When
// requireDleq is true, a proof with no DLEQ field at all is also rejected.
func (w *Wallet) verifyReceivedDLEQ(proofs cashu.Proofs, keysets *MintKeysets, requireDleq bool) error {
	for _, p := range proofs {
		if p.DLEQ == nil {
			if requireDleq {
				return cashu.NewValidationError(cashu.CodeMissingField,
					"proof "+p.Secret+" carries no DLEQ proof but requireDleq is set", nil)
			}
			continue
		}
		mintKey, err := w.mintKeyFor(keysets, p.ID, p.Amount)
		if err != nil {
			return err
		}
		C, err := crypto.ParseHexPoint(p.C)
		if err != nil {
			return cashu.NewValidationError(cashu.CodeOddHexLength, "proof C is not a valid point", err)
		}
		eBytes, err := hex.DecodeString(p.DLEQ.E)
		if err != nil {
			return cashu.NewValidationError(cashu.CodeOddHexLength, "DLEQ.e is not valid hex", err)
		}
		sBytes, err := hex.DecodeString(p.DLEQ.S)
		if err != nil {
			return cashu.NewValidationError(cashu.CodeOddHexLength, "DLEQ.s is not valid hex", err)
		}
		rBytes, err := hex.DecodeString(p.DLEQ.R)
		if err != nil {
			return cashu.NewValidationError(cashu.CodeOddHexLength, "DLEQ.r is not valid hex", err)
		}
		proof := &crypto.DLEQProof{
			E: crypto.ScalarFromBytes(eBytes),
			S: crypto.ScalarFromBytes(sBytes),
			R: crypto.ScalarFromBytes(rBytes),
		}
		ok, err := crypto.VerifyDLEQReblind(proof, []byte(p.Secret), C, mintKey)
		if err != nil {
			return cashu.NewCryptoError(cashu.CodeDLEQMismatch, "DLEQ reblind-verify failed", err)
		}
		if !ok {
			return cashu.NewCryptoError(cashu.CodeDLEQMismatch, "DLEQ proof does not verify for proof "+p.Secret, nil)
		}
	}
	return nil
}
