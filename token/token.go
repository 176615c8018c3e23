package token

import (
	"encoding/base64"
	"errors"
	"sort"
	"strings"

	"github.com/ecashkit/cashu"
)

const (
	prefixCBOR = "cashuB"
	prefixJSON = "cashuA"
)

var (
	ErrUnknownPrefix = errors.New("token does not start with a recognized cashuA/cashuB prefix")
	ErrEmptyToken    = errors.New("token has no mint entries")
)

// Token is a mint-scoped bundle of proofs ready to hand to another
// wallet. Unlike the wire formats it mirrors, it always carries exactly
// one mint; a multi-mint transfer is represented as multiple Tokens, one
// per mint, by callers that need that.
type Token struct {
	Mint   string
	Unit   cashu.Unit
	Proofs cashu.Proofs
	Memo   string
}

// CleanProofs deduplicates proofs by (keyset id, secret), keeping the
// first occurrence, and sorts the remainder by the same key so that
// re-serializing an otherwise-identical proof set is byte-for-byte
// reproducible regardless of the order proofs were accumulated in.
func CleanProofs(proofs cashu.Proofs) cashu.Proofs {
	seen := make(map[string]bool, len(proofs))
	out := make(cashu.Proofs, 0, len(proofs))
	for _, p := range proofs {
		key := p.ID + "\x00" + p.Secret
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Secret < out[j].Secret
	})
	return out
}

// Encode serializes t using the current binary "cashuB" format.
func Encode(t Token) (string, error) {
	t.Proofs = CleanProofs(t.Proofs)
	raw, err := encodeCBOR(t)
	if err != nil {
		return "", err
	}
	return prefixCBOR + base64.RawURLEncoding.EncodeToString(raw), nil
}

// EncodeLegacyJSON serializes t using the legacy "cashuA" JSON format, for
// interoperating with wallets/mints that haven't adopted the binary
// encoding yet.
func EncodeLegacyJSON(t Token) (string, error) {
	t.Proofs = CleanProofs(t.Proofs)
	raw, err := encodeJSON(t)
	if err != nil {
		return "", err
	}
	return prefixJSON + base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode parses a token string in either supported format, dispatching on
// its prefix.
func Decode(s string) (*Token, error) {
	switch {
	case strings.HasPrefix(s, prefixCBOR):
		raw, err := decodeBase64(s[len(prefixCBOR):])
		if err != nil {
			return nil, err
		}
		return decodeCBOR(raw)
	case strings.HasPrefix(s, prefixJSON):
		raw, err := decodeBase64(s[len(prefixJSON):])
		if err != nil {
			return nil, err
		}
		return decodeJSON(raw)
	default:
		return nil, ErrUnknownPrefix
	}
}

// decodeBase64 accepts any of the base64 variants seen in the wild:
// url-safe without padding (what this package emits), url-safe with
// padding, and the standard alphabet with or without padding.
func decodeBase64(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	var err error
	for _, enc := range encodings {
		var raw []byte
		if raw, err = enc.DecodeString(s); err == nil {
			return raw, nil
		}
	}
	return nil, err
}
