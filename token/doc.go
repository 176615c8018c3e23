// Package token (de)serializes Cashu tokens: the self-contained,
// copy-pasteable strings a wallet hands another wallet to transfer ecash
// out of band. Two wire formats are supported: the current binary
// CBOR "cashuB..." encoding and the legacy JSON "cashuA..." encoding still
// produced by older wallets and mints.
package token
