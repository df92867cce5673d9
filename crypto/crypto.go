// Package crypto wraps the secp256k1 operations needed to witness the
// ecrecover precompile
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btc_ecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/0xPolygon/evm-circuit/helper/keccak"
	"github.com/0xPolygon/evm-circuit/types"
)

var (
	secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	one           = big.NewInt(1)

	errHashOfInvalidLength = errors.New("message hash of invalid length")
	errInvalidSignature    = errors.New("invalid signature")
)

const (
	// ECDSASignatureLength indicates the byte length required to carry a signature with recovery id.
	// (64 bytes ECDSA signature + 1 byte recovery id)
	ECDSASignatureLength = 64 + 1

	// recoveryID is ECDSA signature recovery id
	recoveryID = byte(27)

	// recoveryIDOffset points to the byte offset within the signature that contains the recovery id.
	recoveryIDOffset = 64
)

// ValidateSignatureValues checks the ranges the ecrecover precompile accepts:
// v is 0 or 1, r and s are in [1, n)
func ValidateSignatureValues(v byte, r, s *big.Int) bool {
	if r == nil || s == nil || v > 1 {
		return false
	}

	if r.Cmp(one) < 0 || s.Cmp(one) < 0 {
		return false
	}

	return r.Cmp(secp256k1N) < 0 && s.Cmp(secp256k1N) < 0
}

// GenerateECDSAKey generates a new key based on the secp256k1 elliptic curve.
func GenerateECDSAKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(btcec.S256(), rand.Reader)
}

// MarshalPublicKey marshals a public key on the secp256k1 elliptic curve.
func MarshalPublicKey(pub *ecdsa.PublicKey) []byte {
	return elliptic.Marshal(btcec.S256(), pub.X, pub.Y) //nolint:staticcheck
}

// PubKeyToAddress returns the Ethereum address of a public key
func PubKeyToAddress(pub *ecdsa.PublicKey) types.Address {
	buf := keccak.Keccak256(nil, MarshalPublicKey(pub)[1:])[12:]

	return types.BytesToAddress(buf)
}

// Ecrecover returns the address that signed hash
func Ecrecover(hash, sig []byte) (types.Address, error) {
	pub, err := RecoverPubKey(sig, hash)
	if err != nil {
		return types.ZeroAddress, err
	}

	return PubKeyToAddress(pub), nil
}

// RecoverPubKey verifies the compact signature "signature" of "hash" for the secp256k1 curve.
func RecoverPubKey(signature, hash []byte) (*ecdsa.PublicKey, error) {
	if len(hash) != types.HashLength {
		return nil, errHashOfInvalidLength
	}

	signatureSize := len(signature)
	if signatureSize != ECDSASignatureLength {
		return nil, errInvalidSignature
	}

	// Convert to btcec input format with 'recovery id' v at the beginning.
	btcsig := make([]byte, signatureSize)
	btcsig[0] = signature[signatureSize-1] + recoveryID
	copy(btcsig[1:], signature)

	pub, _, err := btc_ecdsa.RecoverCompact(btcsig, hash)
	if err != nil {
		return nil, err
	}

	return pub.ToECDSA(), nil
}

// Sign produces an ECDSA signature of the data in hash with the given
// private key on the secp256k1 curve.
// The produced signature is in the [R || S || V] format where V is 0 or 1.
func Sign(priv *ecdsa.PrivateKey, hash []byte) ([]byte, error) {
	if len(hash) != types.HashLength {
		return nil, fmt.Errorf("hash is required to be exactly %d bytes (%d)", types.HashLength, len(hash))
	}

	if priv.Curve != btcec.S256() {
		return nil, errors.New("private key curve is not secp256k1")
	}

	var btcPriv btcec.PrivateKey

	if overflow := btcPriv.Key.SetByteSlice(priv.D.Bytes()); overflow || btcPriv.Key.IsZero() {
		return nil, errors.New("invalid private key")
	}

	defer btcPriv.Zero()

	sig, err := btc_ecdsa.SignCompact(&btcPriv, hash, false)
	if err != nil {
		return nil, err
	}

	// Convert to Ethereum signature format with 'recovery id' v at the end.
	v := sig[0] - recoveryID
	copy(sig, sig[1:])
	sig[recoveryIDOffset] = v

	return sig, nil
}
