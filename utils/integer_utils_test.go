package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestConstrainIntegerToBounds verifies wrap-around behavior on both boundaries.
func TestConstrainIntegerToBounds(t *testing.T) {
	min := big.NewInt(0)
	max := big.NewInt(255)

	// In-range values pass through unchanged.
	assert.EqualValues(t, 100, ConstrainIntegerToBounds(big.NewInt(100), min, max).Int64())
	assert.EqualValues(t, 0, ConstrainIntegerToBounds(big.NewInt(0), min, max).Int64())
	assert.EqualValues(t, 255, ConstrainIntegerToBounds(big.NewInt(255), min, max).Int64())

	// Overflow wraps around from the minimum.
	assert.EqualValues(t, 0, ConstrainIntegerToBounds(big.NewInt(256), min, max).Int64())
	assert.EqualValues(t, 1, ConstrainIntegerToBounds(big.NewInt(257), min, max).Int64())

	// Underflow wraps around from the maximum.
	assert.EqualValues(t, 255, ConstrainIntegerToBounds(big.NewInt(-1), min, max).Int64())
	assert.EqualValues(t, 254, ConstrainIntegerToBounds(big.NewInt(-2), min, max).Int64())
}

// TestConstrainIntegerToBitLength verifies signed two's-complement wrapping.
func TestConstrainIntegerToBitLength(t *testing.T) {
	// uint8: 256 wraps to 0.
	assert.EqualValues(t, 0, ConstrainIntegerToBitLength(big.NewInt(256), false, 8).Int64())

	// int8: 128 wraps to -128, -129 wraps to 127.
	assert.EqualValues(t, -128, ConstrainIntegerToBitLength(big.NewInt(128), true, 8).Int64())
	assert.EqualValues(t, 127, ConstrainIntegerToBitLength(big.NewInt(-129), true, 8).Int64())
	assert.EqualValues(t, -1, ConstrainIntegerToBitLength(big.NewInt(-1), true, 8).Int64())
}

// TestGetIntegerConstraints verifies boundary derivation for signed and unsigned widths.
func TestGetIntegerConstraints(t *testing.T) {
	min, max := GetIntegerConstraints(false, 8)
	assert.EqualValues(t, 0, min.Int64())
	assert.EqualValues(t, 255, max.Int64())

	min, max = GetIntegerConstraints(true, 8)
	assert.EqualValues(t, -128, min.Int64())
	assert.EqualValues(t, 127, max.Int64())

	min, max = GetIntegerConstraints(false, 256)
	assert.EqualValues(t, 0, min.Int64())
	expected := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.Zero(t, max.Cmp(expected))
}
