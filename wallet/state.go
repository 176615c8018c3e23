package wallet

import (
	"context"
	"encoding/hex"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
	"github.com/ecashkit/cashu/rpc"
)

// ProofState is one proof's reconciled on-server status: the
// wallet's only source of truth for whether a proof it's still holding
// has actually been spent, independent of whatever this process's own
// SpentTracker believes.
type ProofState struct {
	Proof   cashu.Proof
	State   string // UNSPENT, PENDING, SPENT
	Witness string
}

// CheckProofsStates asks the mint whether each of proofs is still
// spendable, identifying them by Y = hash_to_curve(secret) rather than by
// secret itself so the request never reveals a secret the mint hasn't
// already seen via some other proof sharing the same Y. Proofs the mint
// reports SPENT are also marked spent in the wallet's local tracker so a
// later Send does not try to reuse them.
func (w *Wallet) CheckProofsStates(ctx context.Context, mintURL string, proofs cashu.Proofs) ([]ProofState, error) {
	ys := make([]string, len(proofs))
	for i, p := range proofs {
		y, err := crypto.HashToCurve([]byte(p.Secret))
		if err != nil {
			return nil, err
		}
		ys[i] = hex.EncodeToString(y.Compressed())
	}

	resp, err := w.env.Transport.CheckState(ctx, mintURL, rpc.CheckStateRequest{Ys: ys})
	if err != nil {
		return nil, err
	}
	if len(resp.States) != len(proofs) {
		return nil, cashu.NewProtocolError(cashu.CodeArrayLengthWrong,
			"checkstate returned a different number of states than proofs sent", nil)
	}

	out := make([]ProofState, len(proofs))
	for i, s := range resp.States {
		out[i] = ProofState{Proof: proofs[i], State: s.State, Witness: s.Witness}
		if s.State == "SPENT" {
			w.spent.MarkSpent(proofs[i].Secret)
		}
	}
	return out, nil
}
