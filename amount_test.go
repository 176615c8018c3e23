package cashu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountSplitSumsToTotal(t *testing.T) {
	for _, amount := range []Amount{0, 1, 2, 3, 25, 31, 1000, 1<<20 + 7} {
		split := AmountSplit(amount)
		require.Equal(t, amount, SumAmounts(split))
		for _, a := range split {
			require.True(t, IsPowerOfTwo(a), "amount %d in split of %d is not a power of two", a, amount)
		}
	}
}

func TestAmountSplitIsMinimalCount(t *testing.T) {
	// The binary expansion is the minimum-count split: for any amount, the
	// number of set bits is the fewest powers of two that can sum to it.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		amount := Amount(rng.Int63n(1 << 32))
		split := AmountSplit(amount)
		require.Equal(t, popcount(amount), len(split))
	}
}

func popcount(n Amount) int {
	count := 0
	for n > 0 {
		count += int(n & 1)
		n >>= 1
	}
	return count
}

func TestIsPowerOfTwo(t *testing.T) {
	require.False(t, IsPowerOfTwo(0))
	require.True(t, IsPowerOfTwo(1))
	require.True(t, IsPowerOfTwo(2))
	require.False(t, IsPowerOfTwo(3))
	require.True(t, IsPowerOfTwo(1024))
	require.False(t, IsPowerOfTwo(1023))
}

func TestKeepPatternSplitSumsToTotal(t *testing.T) {
	held := map[Amount]int{1: 0, 2: 1, 4: 3}
	split := KeepPatternSplit(25, held, 3)
	require.Equal(t, Amount(25), SumAmounts(split))
	for _, a := range split {
		require.True(t, IsPowerOfTwo(a))
	}
}

func TestKeepPatternSplitRefillsDeficitFirst(t *testing.T) {
	// Denomination 1 is completely out (0 held) and 2 is short by one.
	// Deficits are refilled smallest denomination first, so the 1s are
	// topped up to the target before 2 is considered; whatever is left
	// then falls back to the plain binary split.
	held := map[Amount]int{1: 0, 2: 2}
	split := KeepPatternSplit(4, held, 3)
	require.Equal(t, Amount(4), SumAmounts(split))

	var ones, twos int
	for _, a := range split {
		switch a {
		case 1:
			ones++
		case 2:
			twos++
		}
	}
	require.Equal(t, 4, ones, "three 1s refill the deficit, a fourth covers what's left once amount runs out")
	require.Equal(t, 0, twos, "denomination 2 never gets a turn because refilling 1s exhausts the amount")
}

func TestKeepPatternSplitDefaultsTargetWhenNonPositive(t *testing.T) {
	split := KeepPatternSplit(8, map[Amount]int{1: 0}, 0)
	require.Equal(t, Amount(8), SumAmounts(split))
}

func TestValidateSplit(t *testing.T) {
	require.NoError(t, ValidateSplit([]Amount{16, 8, 1}, 25, false))
	require.Error(t, ValidateSplit([]Amount{16, 8, 2}, 25, false))
	require.Error(t, ValidateSplit([]Amount{16, 9}, 25, false))

	require.NoError(t, ValidateSplit([]Amount{0, 0}, 0, true))
	require.Error(t, ValidateSplit([]Amount{0}, 0, false))
}
