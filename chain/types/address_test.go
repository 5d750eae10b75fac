package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHexToAddress verifies hex parsing handles prefixes, padding, and odd-length strings.
func TestHexToAddress(t *testing.T) {
	// Short strings left-pad to the full address width.
	addr, err := HexToAddress("0x01")
	assert.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000000001", addr.String())

	// Odd-length hex is accepted by padding a leading zero nibble.
	addr, err = HexToAddress("0x30000")
	assert.NoError(t, err)
	assert.Equal(t, "0x0000000000000000000000000000000000030000", addr.String())

	// The 0x prefix is optional.
	withPrefix, err := HexToAddress("0xAB")
	assert.NoError(t, err)
	withoutPrefix, err := HexToAddress("AB")
	assert.NoError(t, err)
	assert.Equal(t, withPrefix, withoutPrefix)

	// Non-hex input is rejected.
	_, err = HexToAddress("0xZZ")
	assert.Error(t, err)
}

// TestBytesToAddress verifies byte conversion pads short input and truncates long input from the left.
func TestBytesToAddress(t *testing.T) {
	short := BytesToAddress([]byte{0x01, 0x02})
	assert.Equal(t, byte(0x01), short[AddressLength-2])
	assert.Equal(t, byte(0x02), short[AddressLength-1])
	assert.True(t, short[0] == 0)

	long := make([]byte, AddressLength+5)
	for i := range long {
		long[i] = byte(i)
	}
	truncated := BytesToAddress(long)
	assert.Equal(t, long[5:], truncated.Bytes())
}

// TestAddressIsZero verifies zero detection.
func TestAddressIsZero(t *testing.T) {
	assert.True(t, (Address{}).IsZero())
	assert.False(t, MustHexToAddress("0x01").IsZero())
}
