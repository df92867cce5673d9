package crypto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xPolygon/evm-circuit/helper/keccak"
)

func TestSignAndRecover(t *testing.T) {
	t.Parallel()

	priv, err := GenerateECDSAKey()
	require.NoError(t, err)

	hash := keccak.Keccak256(nil, []byte("ecrecover"))

	sig, err := Sign(priv, hash)
	require.NoError(t, err)
	require.Len(t, sig, ECDSASignatureLength)

	addr, err := Ecrecover(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, PubKeyToAddress(&priv.PublicKey), addr)

	_, err = Ecrecover(hash[:31], sig)
	assert.ErrorIs(t, err, errHashOfInvalidLength)

	_, err = Ecrecover(hash, sig[:64])
	assert.ErrorIs(t, err, errInvalidSignature)
}

func TestValidateSignatureValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		v     byte
		r, s  *big.Int
		valid bool
	}{
		{"valid", 1, big.NewInt(1), big.NewInt(1), true},
		{"v out of range", 2, big.NewInt(1), big.NewInt(1), false},
		{"zero r", 0, big.NewInt(0), big.NewInt(1), false},
		{"s equals n", 0, big.NewInt(1), secp256k1N, false},
		{"nil s", 0, big.NewInt(1), nil, false},
	}

	for _, c := range cases {
		c := c

		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, c.valid, ValidateSignatureValues(c.v, c.r, c.s))
		})
	}
}
