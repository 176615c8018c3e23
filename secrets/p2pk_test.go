package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ecashkit/cashu/crypto"
)

func TestBuildParseP2PKRoundTrip(t *testing.T) {
	key, err := crypto.RandomScalar()
	require.NoError(t, err)

	w, err := BuildP2PK(P2PKOptions{Pubkey: key.BasePointMul().Hex()})
	require.NoError(t, err)
	require.Equal(t, KindP2PK, w.Kind)

	raw, err := w.MarshalJSON()
	require.NoError(t, err)

	parsed, err := ParseWellKnown(raw)
	require.NoError(t, err)

	secret, err := ParseP2PK(parsed)
	require.NoError(t, err)
	require.Equal(t, key.BasePointMul().Hex(), secret.Data)
	require.Empty(t, secret.Pubkeys)
}

func TestP2PKSignAndVerifySingleSig(t *testing.T) {
	key, err := crypto.RandomScalar()
	require.NoError(t, err)

	w, err := BuildP2PK(P2PKOptions{Pubkey: key.BasePointMul().Hex()})
	require.NoError(t, err)
	secretBytes, err := w.MarshalJSON()
	require.NoError(t, err)

	secret, err := ParseP2PK(mustParse(t, secretBytes))
	require.NoError(t, err)

	signers, threshold := secret.ExpectedSigners(0)
	require.Equal(t, 1, threshold)

	sigs, err := Sign(secretBytes, signers, []*crypto.Scalar{key}, nil)
	require.NoError(t, err)
	require.Len(t, sigs, 1)

	require.True(t, VerifyWitness(secretBytes, signers, threshold, sigs))
}

func TestP2PKMultisigThresholdClamped(t *testing.T) {
	k1, _ := crypto.RandomScalar()
	k2, _ := crypto.RandomScalar()
	k3, _ := crypto.RandomScalar()

	w, err := BuildP2PK(P2PKOptions{
		Pubkey:  k1.BasePointMul().Hex(),
		Pubkeys: []string{k2.BasePointMul().Hex(), k3.BasePointMul().Hex()},
		NSigs:   10, // more than the 3 available signers
	})
	require.NoError(t, err)
	secretBytes, err := w.MarshalJSON()
	require.NoError(t, err)

	secret, err := ParseP2PK(mustParse(t, secretBytes))
	require.NoError(t, err)
	_, threshold := secret.ExpectedSigners(0)
	require.Equal(t, 3, threshold)
}

func TestP2PKRefundAfterLocktime(t *testing.T) {
	primary, _ := crypto.RandomScalar()
	refund, _ := crypto.RandomScalar()

	w, err := BuildP2PK(P2PKOptions{
		Pubkey:   primary.BasePointMul().Hex(),
		Locktime: 1000,
		Refund:   []string{refund.BasePointMul().Hex()},
	})
	require.NoError(t, err)
	secretBytes, err := w.MarshalJSON()
	require.NoError(t, err)
	secret, err := ParseP2PK(mustParse(t, secretBytes))
	require.NoError(t, err)

	signers, threshold := secret.ExpectedSigners(500) // before locktime
	require.Equal(t, []string{primary.BasePointMul().Hex()}, signers)
	require.Equal(t, 1, threshold)

	signers, threshold = secret.ExpectedSigners(2000) // after locktime
	require.Equal(t, []string{refund.BasePointMul().Hex()}, signers)
	require.Equal(t, 1, threshold)
}

func TestP2PKRefundUnconditionalWhenUnset(t *testing.T) {
	primary, _ := crypto.RandomScalar()
	w, err := BuildP2PK(P2PKOptions{Pubkey: primary.BasePointMul().Hex(), Locktime: 1000})
	require.NoError(t, err)
	secretBytes, err := w.MarshalJSON()
	require.NoError(t, err)
	secret, err := ParseP2PK(mustParse(t, secretBytes))
	require.NoError(t, err)

	signers, threshold := secret.ExpectedSigners(2000)
	require.Empty(t, signers)
	require.Equal(t, 0, threshold)
	require.True(t, VerifyWitness(secretBytes, signers, threshold, nil))
}

func mustParse(t *testing.T, raw []byte) *WellKnown {
	t.Helper()
	w, err := ParseWellKnown(raw)
	require.NoError(t, err)
	return w
}
