package wallet

import (
	"context"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/outputs"
	"github.com/ecashkit/cashu/rpc"
)

// restoreBatchSize is how many counter values are probed per /v1/restore
// round-trip.
const restoreBatchSize = 100

// maxEmptyRestoreBatches is how many consecutive all-empty batches end the
// scan: a gap this wide with nothing found means every subsequent counter
// almost certainly was never used either, so continuing would just burn
// round-trips without finding anything.
const maxEmptyRestoreBatches = 2

// Restore recovers every proof the mint still holds a valid signature for
// under keysetID, by regenerating the deterministic output sequence from
// the wallet's seed and asking the mint which ones it recognizes.
// It requires env.Seed to be set; restoring a wallet that only ever used
// random secrets is impossible by construction.
func (w *Wallet) Restore(ctx context.Context, mintURL, keysetID string) (cashu.Proofs, error) {
	if len(w.env.Seed) != 64 {
		return nil, cashu.ErrNoSeed
	}
	keysets, err := w.keysetsFor(ctx, mintURL)
	if err != nil {
		return nil, err
	}

	factory := outputs.DeterministicFactory{Seed: w.env.Seed}
	var recovered cashu.Proofs
	counter := uint32(0)
	nextUnused := uint32(0) // one past the highest counter that yielded a signature
	emptyBatches := 0

	for emptyBatches < maxEmptyRestoreBatches {
		amounts := make([]cashu.Amount, restoreBatchSize)
		for i := range amounts {
			amounts[i] = 1 // placeholder denomination; only the blinded point matters to /v1/restore
		}
		data, err := outputs.Build(amounts, keysetID, factory, counter)
		if err != nil {
			return nil, err
		}

		resp, err := w.env.Transport.Restore(ctx, mintURL, rpc.RestoreRequest{Outputs: messagesOf(data)})
		if err != nil {
			return nil, err
		}

		if len(resp.Signatures) == 0 {
			emptyBatches++
			counter += restoreBatchSize
			continue
		}
		emptyBatches = 0

		matched, err := matchRestored(resp, data, keysets, w)
		if err != nil {
			return nil, err
		}
		recovered = append(recovered, matched...)
		nextUnused = counter + highestMatchedOffset(resp, data) + 1
		counter += restoreBatchSize
	}

	// Resume fresh derivation after the last counter the mint recognized,
	// not after the empty gap batches that ended the scan.
	w.countersMu.Lock()
	if nextUnused > w.counters[keysetID] {
		w.counters[keysetID] = nextUnused
	}
	w.countersMu.Unlock()

	proofsHeld.Add(float64(len(recovered)))
	return recovered, nil
}

// highestMatchedOffset returns the in-batch counter offset of the last
// output the mint recognized, so the caller can resume derivation exactly
// one past it. data was built with one counter per index, so the offset is
// just the index of the matching blinded message.
func highestMatchedOffset(resp *rpc.RestoreResponse, data []outputs.Data) uint32 {
	indexByB := make(map[string]int, len(data))
	for i, d := range data {
		indexByB[d.Message.B_] = i
	}
	highest := 0
	for _, out := range resp.Outputs {
		if i, ok := indexByB[out.B_]; ok && i > highest {
			highest = i
		}
	}
	return uint32(highest)
}

// matchRestored pairs each returned BlindSignature back to the Data it
// came from by its blinded-message B_, since a mint that only recognizes
// some outputs returns a strict subsequence rather than a parallel array
// with placeholders, the restore wire format's one irregularity relative
// to mint/swap/melt.
func matchRestored(resp *rpc.RestoreResponse, data []outputs.Data, keysets *MintKeysets, w *Wallet) (cashu.Proofs, error) {
	byB := make(map[string]outputs.Data, len(data))
	for _, d := range data {
		byB[d.Message.B_] = d
	}

	out := make(cashu.Proofs, 0, len(resp.Signatures))
	for i, sig := range resp.Signatures {
		if i >= len(resp.Outputs) {
			break
		}
		d, ok := byB[resp.Outputs[i].B_]
		if !ok {
			continue
		}
		mintKey, err := w.mintKeyFor(keysets, d.KeysetID, sig.Amount)
		if err != nil {
			return nil, err
		}
		d.Amount = sig.Amount
		p, err := outputs.Unblind(sig, d, mintKey)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
