// Package outputs builds the BlindedMessage batches a wallet sends to a
// mint for minting, swapping or melting change, pairing each message with
// the secret material (the preimage secret and blinding factor) needed to
// unblind the mint's signature once it comes back.
package outputs
