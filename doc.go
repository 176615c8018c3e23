// Package cashu contains the core data model of the Cashu ecash protocol:
// amounts, units, keysets, blinded messages, blind signatures, proofs,
// quotes and the wallet-facing error taxonomy. It has no knowledge of any
// transport and performs no network I/O; see the rpc, subscribe and wallet
// packages for the pieces that do.
package cashu
