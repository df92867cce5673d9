package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	HashLength    = 32
	AddressLength = 20
)

var (
	ZeroAddress = Address{}
	ZeroHash    = Hash{}

	// EmptyCodeHash is the keccak hash of empty bytecode
	EmptyCodeHash = StringToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
)

type Hash [HashLength]byte

type Address [AddressLength]byte

func BytesToHash(b []byte) Hash {
	var h Hash

	size := len(b)
	if size > HashLength {
		size = HashLength
	}

	copy(h[HashLength-size:], b[len(b)-size:])

	return h
}

func BytesToAddress(b []byte) Address {
	var a Address

	size := len(b)
	if size > AddressLength {
		size = AddressLength
	}

	copy(a[AddressLength-size:], b[len(b)-size:])

	return a
}

func StringToHash(str string) Hash {
	return BytesToHash(stringToBytes(str))
}

func StringToAddress(str string) Address {
	return BytesToAddress(stringToBytes(str))
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return EncodeToHex(h[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return EncodeToHex(a[:])
}

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	*h = BytesToHash(stringToBytes(string(input)))

	return nil
}

// UnmarshalText parses an address in hex syntax.
func (a *Address) UnmarshalText(input []byte) error {
	buf := stringToBytes(string(input))
	if len(buf) > AddressLength {
		return fmt.Errorf("incorrect address length %d", len(buf))
	}

	*a = BytesToAddress(buf)

	return nil
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// HexBytes is a byte slice encoded as 0x prefixed hex text
type HexBytes []byte

func (h HexBytes) String() string {
	return EncodeToHex(h)
}

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HexBytes) UnmarshalText(input []byte) error {
	buf, err := DecodeHex(string(input))
	if err != nil {
		return err
	}

	*h = buf

	return nil
}

// EncodeToHex generates a hex string based on the byte representation, with the '0x' prefix
func EncodeToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex converts a hex string, with or without the '0x' prefix, to a byte array
func DecodeHex(str string) ([]byte, error) {
	str = strings.TrimPrefix(str, "0x")
	if len(str)%2 == 1 {
		str = "0" + str
	}

	return hex.DecodeString(str)
}

func stringToBytes(str string) []byte {
	b, _ := DecodeHex(str)

	return b
}
