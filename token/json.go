package token

import (
	"encoding/json"

	"github.com/ecashkit/cashu"
)

type jsonEntry struct {
	Mint   string       `json:"mint"`
	Proofs cashu.Proofs `json:"proofs"`
}

type jsonToken struct {
	Token []jsonEntry `json:"token"`
	Unit  string      `json:"unit,omitempty"`
	Memo  string      `json:"memo,omitempty"`
}

func encodeJSON(t Token) ([]byte, error) {
	wire := jsonToken{
		Token: []jsonEntry{{Mint: t.Mint, Proofs: t.Proofs}},
		Unit:  string(t.Unit),
		Memo:  t.Memo,
	}
	return json.Marshal(wire)
}

func decodeJSON(raw []byte) (*Token, error) {
	var wire jsonToken
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	if len(wire.Token) == 0 {
		return nil, ErrEmptyToken
	}

	// A legacy token may list more than one mint entry; this package
	// represents a single Token as one mint, so only the first entry's
	// mint is kept and every entry's proofs are merged under it. The other
	// entries' mint URLs are not kept.
	var proofs cashu.Proofs
	for _, entry := range wire.Token {
		proofs = append(proofs, entry.Proofs...)
	}

	return &Token{
		Mint:   wire.Token[0].Mint,
		Unit:   cashu.Unit(wire.Unit),
		Memo:   wire.Memo,
		Proofs: proofs,
	}, nil
}
