package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPQSignVerifyPrimary(t *testing.T) {
	pub, priv, err := PQKeypair(AlgoPrimary)
	require.NoError(t, err)

	msg := []byte("elara primary signing")
	sig, err := PQSign(AlgoPrimary, priv, msg)
	require.NoError(t, err)

	ok, err := PQVerify(AlgoPrimary, pub, msg, sig)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = PQVerify(AlgoPrimary, pub, []byte("tampered"), sig)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPQSignVerifySecondary(t *testing.T) {
	pub, priv, err := PQKeypair(AlgoSecondary)
	require.NoError(t, err)

	msg := []byte("elara secondary signing")
	sig, err := PQSign(AlgoSecondary, priv, msg)
	require.NoError(t, err)

	ok, err := PQVerify(AlgoSecondary, pub, msg, sig)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash([]byte("same input"))
	b := ContentHash([]byte("same input"))
	require.Equal(t, a, b)

	c := ContentHash([]byte("different input"))
	require.NotEqual(t, a, c)
}
