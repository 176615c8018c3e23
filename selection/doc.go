// Package selection picks which held proofs to spend for a target amount,
// accounting for the per-input fees a keyset may charge and minimizing
// both the proof count and the leftover change (exhaustive search over
// small proof sets, deterministic greedy with local improvement above).
package selection
