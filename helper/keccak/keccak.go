package keccak

import (
	"hash"

	"golang.org/x/crypto/sha3"
)

type hashImpl interface {
	hash.Hash
	Read(b []byte) (int, error)
}

// Keccak is the legacy keccak-256 hash used by the EVM
type Keccak struct {
	tmp  []byte
	hash hashImpl
}

// NewKeccak256 returns a new keccak 256
func NewKeccak256() *Keccak {
	impl, ok := sha3.NewLegacyKeccak256().(hashImpl)
	if !ok {
		return nil
	}

	return &Keccak{
		hash: impl,
		tmp:  make([]byte, impl.Size()),
	}
}

// Write implements the hash interface
func (k *Keccak) Write(b []byte) (int, error) {
	return k.hash.Write(b)
}

// Reset implements the hash interface
func (k *Keccak) Reset() {
	k.hash.Reset()
}

// Sum appends the digest to dst. The state is consumed, Reset before reuse.
func (k *Keccak) Sum(dst []byte) []byte {
	k.hash.Read(k.tmp) //nolint:errcheck

	return append(dst, k.tmp...)
}
