package wallet

import (
	"context"
	"sync"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
)

// MintKeysets caches every keyset a wallet has loaded and verified for one
// mint, keyed by keyset id, along with the mint's self-description.
type MintKeysets struct {
	mu      sync.RWMutex
	info    *cashu.MintInfo
	keysets map[string]cashu.Keyset
}

func newMintKeysets() *MintKeysets {
	return &MintKeysets{keysets: make(map[string]cashu.Keyset)}
}

// Info returns the mint's self-description captured by LoadMint, nil if the
// mint was never loaded through LoadMint.
func (m *MintKeysets) Info() *cashu.MintInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info
}

// Nut returns the raw capability entry the mint advertises for a numbered
// NUT (e.g. 22 for the blind-auth endpoint list), and whether the mint
// advertises that NUT at all.
func (m *MintKeysets) Nut(number string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.info == nil || m.info.Nuts == nil {
		return nil, false
	}
	v, ok := m.info.Nuts[number]
	return v, ok
}

// Get returns a cached keyset by id.
func (m *MintKeysets) Get(id string) (cashu.Keyset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ks, ok := m.keysets[id]
	return ks, ok
}

// All returns every cached keyset for the mint.
func (m *MintKeysets) All() []cashu.Keyset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]cashu.Keyset, 0, len(m.keysets))
	for _, ks := range m.keysets {
		out = append(out, ks)
	}
	return out
}

func (m *MintKeysets) set(ks cashu.Keyset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keysets[ks.ID] = ks
}

// ActiveForUnit returns the active keyset for unit with the lowest
// input_fee_ppk, the keyset a wallet should send outputs to by default.
// A mint may run several active keysets per unit during a fee-rate
// transition, and the wallet should prefer the cheapest one.
func (m *MintKeysets) ActiveForUnit(unit cashu.Unit) (cashu.Keyset, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best cashu.Keyset
	found := false
	for _, ks := range m.keysets {
		if !ks.Active || ks.Unit != unit {
			continue
		}
		if !found || ks.InputFeePPK < best.InputFeePPK {
			best = ks
			found = true
		}
	}
	return best, found
}

// LoadMint fetches mintURL's /info, keyset list and public keys, verifying
// every keyset id against its own keys before caching it. A keyset whose
// id doesn't match its keys is dropped rather than cached, since trusting
// it would let a compromised or buggy mint silently swap in different keys
// under an id the wallet already trusts. The mint info is kept alongside
// the keysets so callers can consult the advertised NUT capabilities
// (notably the NUT-22 protected-endpoint list an AuthFunc needs).
func (w *Wallet) LoadMint(ctx context.Context, mintURL string) (*MintKeysets, error) {
	mintInfo, err := w.env.Transport.Info(ctx, mintURL)
	if err != nil {
		return nil, err
	}
	keysetList, err := w.env.Transport.Keysets(ctx, mintURL)
	if err != nil {
		return nil, err
	}

	cache := newMintKeysets()
	cache.info = mintInfo
	for _, entry := range keysetList.Keysets {
		keysResp, err := w.env.Transport.Keys(ctx, mintURL, entry.ID)
		if err != nil {
			w.env.Log.Warn().Str("mint", mintURL).Str("keyset", entry.ID).Err(err).Msg("failed to fetch keyset keys")
			continue
		}
		for _, ks := range keysResp.Keysets {
			if ks.ID != entry.ID {
				continue
			}
			points, err := parseKeys(ks.Keys)
			if err != nil {
				w.env.Log.Warn().Str("keyset", ks.ID).Err(err).Msg("failed to parse keyset keys")
				continue
			}
			ok, err := crypto.VerifyKeysetID(ks.ID, points, string(ks.Unit), 0)
			if err != nil || !ok {
				w.env.Log.Warn().Str("keyset", ks.ID).Msg("keyset id does not match its own keys, dropping")
				continue
			}
			ks.Active = entry.Active
			ks.InputFeePPK = entry.InputFeePPK
			cache.set(ks)
		}
	}

	w.mintsMu.Lock()
	w.mints[mintURL] = cache
	w.mintsMu.Unlock()
	return cache, nil
}

// keysetsFor returns the cached keysets for mintURL, loading them first if
// this is the wallet's first use of that mint.
func (w *Wallet) keysetsFor(ctx context.Context, mintURL string) (*MintKeysets, error) {
	w.mintsMu.RLock()
	cache, ok := w.mints[mintURL]
	w.mintsMu.RUnlock()
	if ok {
		return cache, nil
	}
	return w.LoadMint(ctx, mintURL)
}

func parseKeys(keys cashu.Keys) (map[uint64]*crypto.Point, error) {
	out := make(map[uint64]*crypto.Point, len(keys))
	for amount, hexKey := range keys {
		p, err := crypto.ParseHexPoint(hexKey)
		if err != nil {
			return nil, err
		}
		out[uint64(amount)] = p
	}
	return out, nil
}
