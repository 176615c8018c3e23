package cashu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProofsAmountAndSecrets(t *testing.T) {
	proofs := Proofs{
		{Amount: 1, Secret: "a"},
		{Amount: 8, Secret: "b"},
		{Amount: 16, Secret: "c"},
	}
	require.Equal(t, Amount(25), proofs.Amount())
	require.Equal(t, []string{"a", "b", "c"}, proofs.Secrets())
}

func TestCheckDuplicateProofs(t *testing.T) {
	unique := Proofs{{Secret: "a"}, {Secret: "b"}}
	_, dup := CheckDuplicateProofs(unique)
	require.False(t, dup)

	withDup := Proofs{{Secret: "a"}, {Secret: "b"}, {Secret: "a"}}
	secret, dup := CheckDuplicateProofs(withDup)
	require.True(t, dup)
	require.Equal(t, "a", secret)
}

func TestKeysetFee(t *testing.T) {
	ks := Keyset{InputFeePPK: 600}
	require.Equal(t, Amount(0), ks.Fee(0))
	require.Equal(t, Amount(1), ks.Fee(1))
	require.Equal(t, Amount(2), ks.Fee(2))
	require.Equal(t, Amount(2), ks.Fee(3))

	zeroFee := Keyset{InputFeePPK: 0}
	require.Equal(t, Amount(0), zeroFee.Fee(10))
}
