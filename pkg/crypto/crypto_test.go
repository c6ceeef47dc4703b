package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateRandomAlphabet(t *testing.T) {
	s := GenerateRandomAlphabet(8)
	require.Len(t, s, 8)
	for _, c := range s {
		require.Contains(t, alphabet, string(c))
	}
}

func TestRandIntn(t *testing.T) {
	for i := 0; i < 1000; i++ {
		v := RandIntn(10)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 10)
	}
}
