// Package subscribe implements the JSON-RPC 2.0 envelope a wallet uses to
// subscribe to mint-pushed state-change notifications over WebSocket
// (NUT-17): quote status changes and proof spent/pending transitions
// delivered without polling.
package subscribe
