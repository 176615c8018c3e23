package rpc

import (
	"encoding/json"

	"github.com/ecashkit/cashu"
)

// KeysetsResponse is the body of GET /v1/keys and GET /v1/keys/{id}.
type KeysetsResponse struct {
	Keysets []cashu.Keyset `json:"keysets"`
}

// KeysetInfo is one entry of GET /v1/keysets, which lists metadata without
// the actual public keys (callers fetch those from /v1/keys/{id} only
// when they don't already have a verified copy cached).
type KeysetInfo struct {
	ID          string     `json:"id"`
	Unit        cashu.Unit `json:"unit"`
	Active      bool       `json:"active"`
	InputFeePPK int        `json:"input_fee_ppk,omitempty"`
}

// KeysetsInfoResponse is the body of GET /v1/keysets.
type KeysetsInfoResponse struct {
	Keysets []KeysetInfo `json:"keysets"`
}

// MintQuoteRequest is the body of POST /v1/mint/quote/bolt11.
type MintQuoteRequest struct {
	Amount      cashu.Amount `json:"amount"`
	Unit        cashu.Unit   `json:"unit"`
	Description string       `json:"description,omitempty"`
	Pubkey      string       `json:"pubkey,omitempty"`
}

// MintRequest is the body of POST /v1/mint/bolt11. Signature is present
// only when the quote is locked to a pubkey: a single BIP-340
// signature over the SHA-256 of the concatenated output B_ hex strings,
// proving the caller controls the private key the quote was locked to.
type MintRequest struct {
	Quote     string                 `json:"quote"`
	Outputs   []cashu.BlindedMessage `json:"outputs"`
	Signature string                 `json:"signature,omitempty"`
}

// MintResponse is the body of the response to POST /v1/mint/bolt11.
type MintResponse struct {
	Signatures []cashu.BlindSignature `json:"signatures"`
}

// MeltQuoteRequest is the body of POST /v1/melt/quote/bolt11. Options
// carries method-specific extensions (e.g. multi-part payment amounts)
// opaque to this package.
type MeltQuoteRequest struct {
	Request string                     `json:"request"`
	Unit    cashu.Unit                 `json:"unit"`
	Options map[string]json.RawMessage `json:"options,omitempty"`
}

// MeltRequest is the body of POST /v1/melt/bolt11.
type MeltRequest struct {
	Quote   string                 `json:"quote"`
	Inputs  cashu.Proofs           `json:"inputs"`
	Outputs []cashu.BlindedMessage `json:"outputs,omitempty"`
}

// MeltResponse is the body of the response to POST /v1/melt/bolt11.
type MeltResponse struct {
	State           cashu.MeltQuoteState   `json:"state"`
	PaymentPreimage string                 `json:"payment_preimage,omitempty"`
	Change          []cashu.BlindSignature `json:"change,omitempty"`
}

// SwapRequest is the body of POST /v1/swap.
type SwapRequest struct {
	Inputs  cashu.Proofs           `json:"inputs"`
	Outputs []cashu.BlindedMessage `json:"outputs"`
}

// SwapResponse is the body of the response to POST /v1/swap.
type SwapResponse struct {
	Signatures []cashu.BlindSignature `json:"signatures"`
}

// ProofState is one entry of a CheckState response, reporting whether a
// proof (identified by its Y = hash_to_curve(secret) point) is still
// spendable.
type ProofState struct {
	Y       string `json:"Y"`
	State   string `json:"state"` // UNSPENT, PENDING, SPENT
	Witness string `json:"witness,omitempty"`
}

// CheckStateRequest is the body of POST /v1/checkstate.
type CheckStateRequest struct {
	Ys []string `json:"Ys"`
}

// CheckStateResponse is the body of the response to POST /v1/checkstate.
type CheckStateResponse struct {
	States []ProofState `json:"states"`
}

// RestoreRequest is the body of POST /v1/restore.
type RestoreRequest struct {
	Outputs []cashu.BlindedMessage `json:"outputs"`
}

// RestoreResponse is the body of the response to POST /v1/restore: Outputs
// and Signatures are parallel arrays covering only the subset of the
// request the mint actually has signatures for, which is why this is
// separate from MintResponse rather than reusing it.
type RestoreResponse struct {
	Outputs    []cashu.BlindedMessage `json:"outputs"`
	Signatures []cashu.BlindSignature `json:"signatures"`
}

// ErrorResponse is a mint's NUT-00 error body: a human Detail string and a
// stable numeric Code a wallet can branch on.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   int    `json:"code"`
}
