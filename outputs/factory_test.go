package outputs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecashkit/cashu"
	"github.com/ecashkit/cashu/crypto"
)

func TestBuildRandomFactoryProducesDistinctSecrets(t *testing.T) {
	data, err := Build([]cashu.Amount{1, 2, 4}, "019a1f293253e41e", RandomFactory{}, 0)
	require.NoError(t, err)
	require.Len(t, data, 3)

	seen := make(map[string]bool)
	for _, d := range data {
		require.False(t, seen[string(d.Secret)])
		seen[string(d.Secret)] = true
		require.NotEmpty(t, d.Message.B_)
	}
}

func TestBuildDeterministicFactoryIsReproducible(t *testing.T) {
	seed := make([]byte, 64)
	for i := range seed {
		seed[i] = byte(i)
	}
	factory := DeterministicFactory{Seed: seed}

	a, err := Build([]cashu.Amount{1, 2}, "019a1f293253e41e", factory, 5)
	require.NoError(t, err)
	b, err := Build([]cashu.Amount{1, 2}, "019a1f293253e41e", factory, 5)
	require.NoError(t, err)

	require.Equal(t, a[0].Secret, b[0].Secret)
	require.Equal(t, a[1].Secret, b[1].Secret)
	require.Equal(t, a[0].Message.B_, b[0].Message.B_)
}

func TestUnblindRoundTrip(t *testing.T) {
	mintKey, err := crypto.RandomScalar()
	require.NoError(t, err)
	mintPub := mintKey.BasePointMul()

	data, err := Build([]cashu.Amount{4}, "019a1f293253e41e", RandomFactory{}, 0)
	require.NoError(t, err)

	B_, err := crypto.ParseHexPoint(data[0].Message.B_)
	require.NoError(t, err)
	C_ := crypto.Sign(B_, mintKey)

	sig := cashu.BlindSignature{Amount: 4, ID: "019a1f293253e41e", C_: C_.Hex()}
	proof, err := Unblind(sig, data[0], mintPub)
	require.NoError(t, err)
	require.Equal(t, cashu.Amount(4), proof.Amount)

	ok, err := crypto.VerifyUnblinded(data[0].Secret, mintKey, mustParsePoint(t, proof.C))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBuildSwapBatchSplit(t *testing.T) {
	batch, err := BuildSwapBatch([]cashu.Amount{1, 2}, []cashu.Amount{4}, "019a1f293253e41e", RandomFactory{}, 0)
	require.NoError(t, err)
	require.Len(t, batch.Outputs, 3)

	mintKey, err := crypto.RandomScalar()
	require.NoError(t, err)

	sigs := make([]cashu.BlindSignature, len(batch.Outputs))
	for i, o := range batch.Outputs {
		B_, err := crypto.ParseHexPoint(o.Message.B_)
		require.NoError(t, err)
		sigs[i] = cashu.BlindSignature{Amount: o.Amount, ID: o.KeysetID, C_: crypto.Sign(B_, mintKey).Hex()}
	}

	keep, send, keepData, sendData := batch.Split(sigs)
	require.Len(t, keep, 2)
	require.Len(t, send, 1)
	require.Len(t, keepData, 2)
	require.Len(t, sendData, 1)

	var keepTotal, sendTotal cashu.Amount
	for _, d := range keepData {
		keepTotal += d.Amount
	}
	for _, d := range sendData {
		sendTotal += d.Amount
	}
	require.Equal(t, cashu.Amount(3), keepTotal)
	require.Equal(t, cashu.Amount(4), sendTotal)
}

func mustParsePoint(t *testing.T, hexStr string) *crypto.Point {
	t.Helper()
	p, err := crypto.ParseHexPoint(hexStr)
	require.NoError(t, err)
	return p
}
