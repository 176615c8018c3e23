package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixed vector: secret "test_message", r = a = 1. With a = 1 the blind
// signature equals the blinded point and unblinding lands back on
// hashToCurve("test_message") itself.
func TestBlindUnblindFixedVector(t *testing.T) {
	one := make([]byte, 32)
	one[31] = 0x01
	r := ScalarFromBytes(one)
	a := ScalarFromBytes(one)

	blinded, err := Blind([]byte("test_message"), r)
	require.NoError(t, err)
	require.Equal(t,
		"025cc16fe33b953e2ace39653efb3e7a7049711ae1d8a2f7a9108753f1cdea742b",
		blinded.B_.Hex())

	C_ := Sign(blinded.B_, a)
	require.Equal(t,
		"025cc16fe33b953e2ace39653efb3e7a7049711ae1d8a2f7a9108753f1cdea742b",
		C_.Hex())

	C := Unblind(C_, r, a.BasePointMul())
	require.Equal(t,
		"0215fdc277c704590f3c3bcc08cf9a8f748f46619b96268cece86442b6c3ac461b",
		C.Hex())

	Y, err := HashToCurve([]byte("test_message"))
	require.NoError(t, err)
	require.True(t, C.Equal(Y))
}

func TestBlindUnblindRoundTrip(t *testing.T) {
	secret := []byte("test-secret-0123456789abcdef0123")

	mintKey, err := RandomScalar()
	require.NoError(t, err)
	mintPub := mintKey.BasePointMul()

	r, err := RandomScalar()
	require.NoError(t, err)

	blinded, err := Blind(secret, r)
	require.NoError(t, err)

	C_ := Sign(blinded.B_, mintKey)
	C := Unblind(C_, r, mintPub)

	ok, err := VerifyUnblinded(secret, mintKey, C)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyUnblindedRejectsWrongKey(t *testing.T) {
	secret := []byte("another-secret-0123456789abcdef0")

	mintKey, err := RandomScalar()
	require.NoError(t, err)
	otherKey, err := RandomScalar()
	require.NoError(t, err)

	r, err := RandomScalar()
	require.NoError(t, err)
	blinded, err := Blind(secret, r)
	require.NoError(t, err)

	C_ := Sign(blinded.B_, mintKey)
	C := Unblind(C_, r, mintKey.BasePointMul())

	ok, err := VerifyUnblinded(secret, otherKey, C)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBlindIsDeterministicGivenSameInputs(t *testing.T) {
	secret := []byte("deterministic-secret-0123456789a")
	r := ScalarFromBytes([]byte("0123456789abcdef0123456789abcdef"))

	b1, err := Blind(secret, r)
	require.NoError(t, err)
	b2, err := Blind(secret, r)
	require.NoError(t, err)

	require.True(t, b1.B_.Equal(b2.B_))
}
