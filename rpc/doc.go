// Package rpc defines the wire types and transport interface for talking
// to a Cashu mint's HTTP API. The wallet package only ever talks to
// a MintTransport, never to net/http directly, so tests can swap in a
// fake mint and so NUT-22 auth tokens can be layered on without touching
// wallet logic.
package rpc
