package selection

import (
	"sort"

	"github.com/ecashkit/cashu"
)

// FeeLookup resolves a keyset id to the keyset metadata needed to compute
// its per-input fee. Callers typically back this with a wallet's loaded
// keyset cache.
type FeeLookup func(keysetID string) cashu.Keyset

// TotalFee sums the per-keyset input fee a proof set would incur,
// grouping proofs by keyset id since the fee rate is only meaningful
// per-keyset, not per-proof.
func TotalFee(proofs cashu.Proofs, lookup FeeLookup) cashu.Amount {
	counts := make(map[string]int)
	for _, p := range proofs {
		counts[p.ID]++
	}
	var total cashu.Amount
	for id, n := range counts {
		total += lookup(id).Fee(n)
	}
	return total
}

// sortCanonical orders proofs by (amount asc, keyset id asc, secret asc),
// so two selection runs over the same input always compare equal
// regardless of the search order that produced them.
func sortCanonical(proofs cashu.Proofs) cashu.Proofs {
	out := append(cashu.Proofs{}, proofs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount < out[j].Amount
		}
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Secret < out[j].Secret
	})
	return out
}

// sortDesc orders proofs largest-first, tied amounts broken by ascending
// keyset input_fee_ppk (among equally-sized candidates, prefer spending
// down the cheaper keyset first) and finally by secret.
// Used as the working order for both the branch-and-bound search and the
// greedy fallback, since descending order lets both prune on suffix sums.
func sortDesc(proofs cashu.Proofs, lookup FeeLookup) cashu.Proofs {
	out := append(cashu.Proofs{}, proofs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		feeI, feeJ := lookup(out[i].ID).InputFeePPK, lookup(out[j].ID).InputFeePPK
		if feeI != feeJ {
			return feeI < feeJ
		}
		return out[i].Secret < out[j].Secret
	})
	return out
}

// exactSearchLimit bounds the branch-and-bound subset search. Below this
// many candidate proofs, Select finds the true best subset (exact match
// if one exists, else minimal overshoot, else fewest proofs); above it
// Select falls back to a single greedy-plus-local-improvement pass,
// staying O(n log n) at the cost of optimality.
const exactSearchLimit = 22

// Select chooses a subset of proofs whose amount covers target, preferring
// (in order) an exact match, the smallest over-selection, then the fewest
// proofs, via an exhaustive branch-and-bound search up to
// exactSearchLimit proofs and a deterministic greedy pass with local
// improvement above it; neither step is randomized. When
// includeFees is true the requirement is sum(send) ≥ target +
// fee(send) (the selected inputs must also cover their own swap fee);
// when false it is plain sum(send) ≥ target, e.g. for a melt's proof
// selection where the mint, not a later swap, absorbs the input fee.
//
// It returns the chosen proofs, ordered per sortCanonical regardless of
// how the search found them, and the resulting change (selected amount
// minus target minus fee, with fee treated as zero when includeFees is
// false). A target unreachable by any subset returns cashu's
// insufficient-funds error with a nil proof slice.
func Select(proofs cashu.Proofs, target cashu.Amount, lookup FeeLookup, includeFees bool) (cashu.Proofs, cashu.Amount, error) {
	if target == 0 {
		return cashu.Proofs{}, 0, nil
	}
	if !includeFees {
		lookup = noFees
	}

	sorted := sortDesc(proofs, lookup)

	var best cashu.Proofs
	var bestOver cashu.Amount
	found := false
	if len(sorted) <= exactSearchLimit {
		best, bestOver, found = bestSubset(sorted, target, lookup)
	}
	if !found {
		best, bestOver, found = greedySelect(sorted, target, lookup)
	}
	if !found {
		need := target + TotalFee(proofs, lookup)
		return nil, 0, cashu.NewInsufficientFundsError(uint64(proofs.Amount()), uint64(need))
	}

	return sortCanonical(best), bestOver, nil
}

// noFees is the FeeLookup substituted when includeFees is false: every
// keyset is treated as fee-free so the selection requirement collapses to
// plain sum(send) ≥ target.
func noFees(string) cashu.Keyset { return cashu.Keyset{} }

// bestSubset performs a pruned depth-first search over subsets of sorted
// (which must already be amount-descending) for the subset minimizing
// overshoot above target+fee, tie-broken by fewest proofs. It returns
// immediately once an exact (zero-overshoot) match is found, without
// exploring the remaining search space.
func bestSubset(sorted cashu.Proofs, target cashu.Amount, lookup FeeLookup) (cashu.Proofs, cashu.Amount, bool) {
	suffixSum := make([]cashu.Amount, len(sorted)+1)
	for i := len(sorted) - 1; i >= 0; i-- {
		suffixSum[i] = suffixSum[i+1] + sorted[i].Amount
	}

	var best cashu.Proofs
	var bestOver, bestFee cashu.Amount
	found := false
	current := make(cashu.Proofs, 0, len(sorted))

	var exact bool
	var dfs func(idx int)
	dfs = func(idx int) {
		if exact {
			return
		}
		sum := current.Amount()
		fee := TotalFee(current, lookup)
		if len(current) > 0 && sum >= target+fee {
			over := sum - target - fee
			better := !found ||
				over < bestOver ||
				(over == bestOver && len(current) < len(best)) ||
				(over == bestOver && len(current) == len(best) && fee < bestFee)
			if better {
				best = append(cashu.Proofs{}, current...)
				bestOver = over
				bestFee = fee
				found = true
				if over == 0 {
					exact = true
				}
			}
			return
		}
		if idx >= len(sorted) {
			return
		}
		// Even adding every remaining proof can't reach target: prune.
		if sum+suffixSum[idx] < target {
			return
		}
		current = append(current, sorted[idx])
		dfs(idx + 1)
		current = current[:len(current)-1]
		dfs(idx + 1)
	}
	dfs(0)
	return best, bestOver, found
}

// greedySelect accumulates proofs largest-first until the running total
// clears target plus its own fee, then drops the largest member whenever
// the remainder alone still clears the (recomputed, smaller) requirement.
// Used only above exactSearchLimit, where an exhaustive search would be
// too slow.
func greedySelect(sorted cashu.Proofs, target cashu.Amount, lookup FeeLookup) (cashu.Proofs, cashu.Amount, bool) {
	var selected cashu.Proofs
	for _, p := range sorted {
		if selected.Amount() >= target+TotalFee(selected, lookup) {
			break
		}
		selected = append(selected, p)
	}

	need := target + TotalFee(selected, lookup)
	if selected.Amount() < need {
		return nil, 0, false
	}

	selected = localImprove(selected, target, lookup)
	finalNeed := target + TotalFee(selected, lookup)
	return selected, selected.Amount() - finalNeed, true
}

// localImprove repeatedly drops one largest-amount proof from the
// selection when the remainder still covers target plus its own
// (recomputed, now-smaller) fee. selected is sorted descending by amount,
// ties broken by ascending keyset fee, on entry, so among several proofs
// tied for the largest amount the costliest keyset's is last in that run;
// dropped first, so the cheaper keyset's proof is what a tied drop keeps.
func localImprove(selected cashu.Proofs, target cashu.Amount, lookup FeeLookup) cashu.Proofs {
	for len(selected) > 1 {
		drop := costliestAtMaxAmount(selected)
		without := dropAt(selected, drop)
		if without.Amount() >= target+TotalFee(without, lookup) {
			selected = without
			continue
		}
		break
	}
	return selected
}

// costliestAtMaxAmount returns the index, within the contiguous run of
// proofs sharing selected's largest amount, whose keyset has the highest
// input_fee_ppk (last in that run, since the run is itself fee-ascending).
func costliestAtMaxAmount(selected cashu.Proofs) int {
	maxAmount := selected[0].Amount
	idx := 0
	for i, p := range selected {
		if p.Amount != maxAmount {
			break
		}
		idx = i
	}
	return idx
}

func dropAt(proofs cashu.Proofs, idx int) cashu.Proofs {
	out := make(cashu.Proofs, 0, len(proofs)-1)
	out = append(out, proofs[:idx]...)
	out = append(out, proofs[idx+1:]...)
	return out
}
