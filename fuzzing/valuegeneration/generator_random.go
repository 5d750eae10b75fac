package valuegeneration

import (
	"math/big"
	"math/rand"
	"sync"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/utils"
)

// RandomValueGenerator represents a provider used to generate entry point arguments using a uniform
// random provider. Values are drawn uniformly over each type's full domain, so it may not satisfy
// tightly-bound preconditions quickly; assume() handles pruning.
type RandomValueGenerator struct {
	// randomProvider offers a source of random data.
	randomProvider *rand.Rand

	// randomProviderLock offers thread safety to the random provider.
	randomProviderLock sync.Mutex
}

// NewRandomValueGenerator creates a new RandomValueGenerator seeded with the provided seed, so runs
// are reproducible when the seed is fixed.
func NewRandomValueGenerator(seed int64) *RandomValueGenerator {
	return &RandomValueGenerator{
		randomProvider: rand.New(rand.NewSource(seed)),
	}
}

// RandomProvider returns the internal random provider used for value generation.
func (g *RandomValueGenerator) RandomProvider() *rand.Rand {
	return g.randomProvider
}

// GenerateAddress generates a random address to use when populating inputs.
func (g *RandomValueGenerator) GenerateAddress() types.Address {
	addressBytes := make([]byte, types.AddressLength)
	g.randomProviderLock.Lock()
	g.randomProvider.Read(addressBytes)
	g.randomProviderLock.Unlock()
	return types.BytesToAddress(addressBytes)
}

// GenerateBool generates a random bool to use when populating inputs.
func (g *RandomValueGenerator) GenerateBool() bool {
	g.randomProviderLock.Lock()
	defer g.randomProviderLock.Unlock()
	return g.randomProvider.Uint32()%2 == 0
}

// GenerateBytes generates a random dynamic-sized byte array to use when populating inputs.
func (g *RandomValueGenerator) GenerateBytes() []byte {
	g.randomProviderLock.Lock()
	defer g.randomProviderLock.Unlock()
	b := make([]byte, g.randomProvider.Uint64()%maxDynamicLength)
	g.randomProvider.Read(b)
	return b
}

// maxDynamicLength bounds the length of generated dynamic byte arrays and strings.
const maxDynamicLength = 100

// GenerateFixedBytes generates a random fixed-sized byte array to use when populating inputs.
func (g *RandomValueGenerator) GenerateFixedBytes(length int) []byte {
	g.randomProviderLock.Lock()
	defer g.randomProviderLock.Unlock()
	b := make([]byte, length)
	g.randomProvider.Read(b)
	return b
}

// GenerateString generates a random dynamic-sized string to use when populating inputs.
func (g *RandomValueGenerator) GenerateString() string {
	return string(g.GenerateBytes())
}

// GenerateInteger generates a random integer of the given signedness and bit length to use when
// populating inputs.
func (g *RandomValueGenerator) GenerateInteger(signed bool, bitLength int) *big.Int {
	// Fill a byte array of the appropriate size with random bytes.
	b := make([]byte, bitLength/8)
	g.randomProviderLock.Lock()
	g.randomProvider.Read(b)
	g.randomProviderLock.Unlock()

	// Constrain the unsigned interpretation to the requested bounds.
	res := big.NewInt(0).SetBytes(b)
	return utils.ConstrainIntegerToBitLength(res, signed, bitLength)
}
