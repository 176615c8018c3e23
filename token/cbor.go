package token

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"

	"github.com/ecashkit/cashu"
)

// cborDLEQ is the compact wire form of a proof's DLEQ, carried only when
// present (the same optionality as cashu.DLEQPublic), just with binary
// (not hex) point/scalar encodings to keep the CBOR payload small.
type cborDLEQ struct {
	E []byte `cbor:"e"`
	S []byte `cbor:"s"`
	R []byte `cbor:"r,omitempty"`
}

type cborProof struct {
	Amount  cashu.Amount `cbor:"a"`
	Secret  []byte       `cbor:"s"`
	C       []byte       `cbor:"c"`
	Witness string       `cbor:"w,omitempty"`
	DLEQ    *cborDLEQ    `cbor:"d,omitempty"`
}

type cborEntry struct {
	ID     []byte      `cbor:"i"`
	Proofs []cborProof `cbor:"p"`
}

type cborToken struct {
	Mint    string      `cbor:"m"`
	Unit    string      `cbor:"u"`
	Memo    string      `cbor:"d,omitempty"`
	Entries []cborEntry `cbor:"t"`
}

func encodeCBOR(t Token) ([]byte, error) {
	byKeyset := make(map[string][]cborProof)
	var order []string
	for _, p := range t.Proofs {
		if _, ok := byKeyset[p.ID]; !ok {
			order = append(order, p.ID)
		}
		cp, err := toCBORProof(p)
		if err != nil {
			return nil, err
		}
		byKeyset[p.ID] = append(byKeyset[p.ID], cp)
	}

	entries := make([]cborEntry, 0, len(order))
	for _, id := range order {
		idBytes, err := hex.DecodeString(id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, cborEntry{ID: idBytes, Proofs: byKeyset[id]})
	}

	wire := cborToken{
		Mint:    t.Mint,
		Unit:    string(t.Unit),
		Memo:    t.Memo,
		Entries: entries,
	}
	opts := cbor.CanonicalEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(wire)
}

func decodeCBOR(raw []byte) (*Token, error) {
	var wire cborToken
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	if len(wire.Entries) == 0 {
		return nil, ErrEmptyToken
	}

	var proofs cashu.Proofs
	for _, entry := range wire.Entries {
		idHex := hex.EncodeToString(entry.ID)
		for _, cp := range entry.Proofs {
			p, err := fromCBORProof(idHex, cp)
			if err != nil {
				return nil, err
			}
			proofs = append(proofs, p)
		}
	}

	return &Token{
		Mint:   wire.Mint,
		Unit:   cashu.Unit(wire.Unit),
		Memo:   wire.Memo,
		Proofs: proofs,
	}, nil
}

func toCBORProof(p cashu.Proof) (cborProof, error) {
	c, err := hex.DecodeString(p.C)
	if err != nil {
		return cborProof{}, err
	}
	cp := cborProof{Amount: p.Amount, Secret: []byte(p.Secret), C: c, Witness: p.Witness}
	if p.DLEQ != nil {
		e, err := hex.DecodeString(p.DLEQ.E)
		if err != nil {
			return cborProof{}, err
		}
		s, err := hex.DecodeString(p.DLEQ.S)
		if err != nil {
			return cborProof{}, err
		}
		d := &cborDLEQ{E: e, S: s}
		if p.DLEQ.R != "" {
			r, err := hex.DecodeString(p.DLEQ.R)
			if err != nil {
				return cborProof{}, err
			}
			d.R = r
		}
		cp.DLEQ = d
	}
	return cp, nil
}

func fromCBORProof(keysetID string, cp cborProof) (cashu.Proof, error) {
	p := cashu.Proof{
		Amount:  cp.Amount,
		ID:      keysetID,
		Secret:  string(cp.Secret),
		C:       hex.EncodeToString(cp.C),
		Witness: cp.Witness,
	}
	if cp.DLEQ != nil {
		d := &cashu.DLEQPublic{
			E: hex.EncodeToString(cp.DLEQ.E),
			S: hex.EncodeToString(cp.DLEQ.S),
		}
		if len(cp.DLEQ.R) > 0 {
			d.R = hex.EncodeToString(cp.DLEQ.R)
		}
		p.DLEQ = d
	}
	return p, nil
}
