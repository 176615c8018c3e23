// Package wallet implements the client-side operations of a Cashu wallet:
// loading a mint's keysets, minting, swapping, sending, receiving,
// melting and restoring proofs. It composes the crypto, secrets,
// outputs, selection and token packages with a MintTransport and never
// performs its own HTTP/WebSocket I/O.
package wallet
