// Package secrets builds and parses the well-known secret formats (NUT-10,
// NUT-11, NUT-26): P2PK single/multisig-with-refund locks and P2BK
// deterministic blinded-key locks. A Secret is either a 64-hex-char random
// string or a JSON 2-tuple ["Kind", {nonce, data, tags}]; this package only
// concerns itself with the latter.
package secrets
