// Package valuegeneration provides the input generators the fuzzing driver draws test arguments from.
package valuegeneration

import (
	"math/big"
	"math/rand"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// ValueGenerator represents an interface for a provider used to generate entry point arguments for use
// in fuzzing sessions.
type ValueGenerator interface {
	// RandomProvider returns the internal random provider used for value generation.
	RandomProvider() *rand.Rand

	// GenerateAddress generates an address to use when populating inputs.
	GenerateAddress() types.Address

	// GenerateBool generates a bool to use when populating inputs.
	GenerateBool() bool

	// GenerateBytes generates a dynamic-sized byte array to use when populating inputs.
	GenerateBytes() []byte

	// GenerateFixedBytes generates a fixed-sized byte array to use when populating inputs.
	GenerateFixedBytes(length int) []byte

	// GenerateString generates a dynamic-sized string to use when populating inputs.
	GenerateString() string

	// GenerateInteger generates an integer of the given signedness and bit length to use when
	// populating inputs.
	GenerateInteger(signed bool, bitLength int) *big.Int
}
