package cashu

// BlindedMessage is a wallet-generated output: an amount, the id of the
// keyset it should be signed under, and the blinded point B_.
type BlindedMessage struct {
	Amount  Amount `json:"amount"`
	ID      string `json:"id"`
	B_      string `json:"B_"`
	Witness string `json:"witness,omitempty"`
}

// BlindSignature is a mint's response to a BlindedMessage: the blinded
// signature C_ and, when the mint supports NUT-12, a DLEQ proof over it.
type BlindSignature struct {
	Amount Amount      `json:"amount"`
	ID     string      `json:"id"`
	C_     string      `json:"C_"`
	DLEQ   *DLEQPublic `json:"dleq,omitempty"`
}

// DLEQPublic is the wire form of a DLEQ proof: e and s are always present;
// r is only present on a Proof's DLEQ (reblinded) and absent on a
// BlindSignature's DLEQ (issuer form).
type DLEQPublic struct {
	E string `json:"e"`
	S string `json:"s"`
	R string `json:"r,omitempty"`
}

// Proof is an unblinded, mint-signed ecash token the wallet holds: the
// unblinded signature C together with the preimage secret and the keyset
// id it was signed under.
type Proof struct {
	Amount  Amount      `json:"amount"`
	ID      string      `json:"id"`
	Secret  string      `json:"secret"`
	C       string      `json:"C"`
	Witness string      `json:"witness,omitempty"`
	DLEQ    *DLEQPublic `json:"dleq,omitempty"`
}

// Proofs is a convenience slice type carrying aggregate helpers used
// throughout selection and wallet code.
type Proofs []Proof

// Amount sums the amounts of all proofs in the slice.
func (p Proofs) Amount() Amount {
	var total Amount
	for _, proof := range p {
		total += proof.Amount
	}
	return total
}

// Secrets returns the secret string of every proof, in order, the form
// SpentTracker.MarkSpentAll takes.
func (p Proofs) Secrets() []string {
	out := make([]string, len(p))
	for i, proof := range p {
		out[i] = proof.Secret
	}
	return out
}

// CheckDuplicateProofs reports the secret of the first proof that appears
// more than once in the slice, and whether one was found. A wallet must
// never swap or send a set of proofs containing a duplicate secret.
func CheckDuplicateProofs(proofs Proofs) (string, bool) {
	seen := make(map[string]bool, len(proofs))
	for _, p := range proofs {
		if seen[p.Secret] {
			return p.Secret, true
		}
		seen[p.Secret] = true
	}
	return "", false
}

// Keys maps a denomination (always a power of two) to the mint's public
// key for that amount, within one keyset.
type Keys map[Amount]string

// Keyset is one mint keyset: its id, unit, per-denomination public keys,
// and fee/activity metadata.
type Keyset struct {
	ID          string `json:"id"`
	Unit        Unit   `json:"unit"`
	Keys        Keys   `json:"keys"`
	Active      bool   `json:"active"`
	InputFeePPK int    `json:"input_fee_ppk,omitempty"`
}

// Fee returns the rounded-up per-input fee this keyset charges:
// ceil(input_fee_ppk * n_inputs / 1000).
func (k Keyset) Fee(nInputs int) Amount {
	if k.InputFeePPK <= 0 || nInputs <= 0 {
		return 0
	}
	total := k.InputFeePPK * nInputs
	return Amount((total + 999) / 1000)
}

// MintInfo is the mint's self-description (NUT-06), trimmed to the fields
// the wallet core actually consults.
type MintInfo struct {
	Name            string         `json:"name"`
	Pubkey          string         `json:"pubkey"`
	Version         string         `json:"version"`
	Description     string         `json:"description,omitempty"`
	DescriptionLong string         `json:"description_long,omitempty"`
	Contact         []ContactInfo  `json:"contact,omitempty"`
	Nuts            map[string]any `json:"nuts,omitempty"`
}

// ContactInfo is one entry of a mint's published contact list.
type ContactInfo struct {
	Method string `json:"method"`
	Info   string `json:"info"`
}

// MintQuoteState is the lifecycle state of a bolt11 mint quote.
type MintQuoteState string

const (
	MintQuoteUnpaid  MintQuoteState = "UNPAID"
	MintQuotePaid    MintQuoteState = "PAID"
	MintQuoteIssued  MintQuoteState = "ISSUED"
	MintQuotePending MintQuoteState = "PENDING"
	MintQuoteExpired MintQuoteState = "EXPIRED"
)

// MintQuote is a pending or completed minting request: pay Request out of
// band, then redeem Quote for signatures once State reaches PAID.
type MintQuote struct {
	Quote   string         `json:"quote"`
	Request string         `json:"request"`
	State   MintQuoteState `json:"state"`
	Expiry  int64          `json:"expiry"`
	Pubkey  string         `json:"pubkey,omitempty"`
}

// MeltQuoteState is the lifecycle state of a bolt11 melt quote.
type MeltQuoteState string

const (
	MeltQuoteUnpaid  MeltQuoteState = "UNPAID"
	MeltQuotePending MeltQuoteState = "PENDING"
	MeltQuotePaid    MeltQuoteState = "PAID"
	MeltQuoteExpired MeltQuoteState = "EXPIRED"
)

// MeltQuote is a pending or completed melt (pay-out) request.
type MeltQuote struct {
	Quote           string           `json:"quote"`
	Amount          Amount           `json:"amount"`
	FeeReserve      Amount           `json:"fee_reserve"`
	State           MeltQuoteState   `json:"state"`
	Expiry          int64            `json:"expiry"`
	PaymentPreimage string           `json:"payment_preimage,omitempty"`
	Change          []BlindSignature `json:"change,omitempty"`
}
