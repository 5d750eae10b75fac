package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// AddressLength describes the length of an account address, in bytes.
const AddressLength = 20

// Address represents a 20-byte account address within the simulated ledger. Both virtual machine back-ends
// address accounts with this type.
type Address [AddressLength]byte

// BytesToAddress converts a byte slice into an Address. If the slice is larger than AddressLength, only the
// trailing bytes are used. If it is smaller, it is left-padded with zero bytes.
func BytesToAddress(b []byte) Address {
	var addr Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(addr[AddressLength-len(b):], b)
	return addr
}

// HexToAddress parses a hex string (with or without a "0x" prefix) into an Address.
// Returns the parsed Address, or an error if the string is not valid hex.
func HexToAddress(s string) (Address, error) {
	// Strip any hex prefix and normalize odd-length strings before decoding.
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, errors.Wrapf(err, "could not parse address from hex string '%s'", s)
	}
	if len(b) > AddressLength {
		return Address{}, errors.Errorf("could not parse address from hex string '%s': too many bytes", s)
	}
	return BytesToAddress(b), nil
}

// MustHexToAddress parses a hex string into an Address and panics if the string is malformed. It is intended
// for package-level constants whose validity is known ahead of time.
func MustHexToAddress(s string) Address {
	addr, err := HexToAddress(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the canonical "0x"-prefixed hex representation of the address.
func (a Address) String() string {
	return fmt.Sprintf("0x%x", a[:])
}

// IsZero indicates whether the address is the zero address.
func (a Address) IsZero() bool {
	return a == Address{}
}
