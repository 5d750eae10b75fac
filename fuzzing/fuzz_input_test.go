package fuzzing

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/cheats"
	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/valuegeneration"
)

// TestGenerateFuzzInput verifies one value of the right Go type is generated per parameter slot.
func TestGenerateFuzzInput(t *testing.T) {
	generator := valuegeneration.NewRandomValueGenerator(1)
	parameters := []compilationTypes.ParamType{
		{Kind: compilationTypes.ParamUint, Bits: 256},
		{Kind: compilationTypes.ParamInt, Bits: 64},
		{Kind: compilationTypes.ParamBool},
		{Kind: compilationTypes.ParamAddress},
		{Kind: compilationTypes.ParamBytes},
		{Kind: compilationTypes.ParamFixedBytes, Size: 32},
		{Kind: compilationTypes.ParamString},
	}

	input, err := GenerateFuzzInput(generator, parameters)
	assert.NoError(t, err)
	assert.Len(t, input.Values, len(parameters))

	assert.IsType(t, &big.Int{}, input.Values[0])
	assert.IsType(t, &big.Int{}, input.Values[1])
	assert.IsType(t, false, input.Values[2])
	assert.IsType(t, types.Address{}, input.Values[3])
	assert.IsType(t, []byte{}, input.Values[4])
	assert.Len(t, input.Values[5].([]byte), 32)
	assert.IsType(t, "", input.Values[6])
}

// TestGenerateFuzzInputUnknownKind verifies unsupported parameter kinds are rejected.
func TestGenerateFuzzInputUnknownKind(t *testing.T) {
	generator := valuegeneration.NewRandomValueGenerator(1)
	_, err := GenerateFuzzInput(generator, []compilationTypes.ParamType{{Kind: "tuple"}})
	assert.Error(t, err)
}

// TestEncodeCallData verifies integers travel as two's-complement words and all other values keep
// their shared-codec representation.
func TestEncodeCallData(t *testing.T) {
	addr := types.MustHexToAddress("0x1234")
	input := &FuzzInput{
		Parameters: []compilationTypes.ParamType{
			{Kind: compilationTypes.ParamUint, Bits: 256},
			{Kind: compilationTypes.ParamInt, Bits: 8},
			{Kind: compilationTypes.ParamAddress},
			{Kind: compilationTypes.ParamBool},
		},
		Values: []any{big.NewInt(300), big.NewInt(-1), addr, true},
	}

	callData, err := input.EncodeCallData()
	assert.NoError(t, err)

	values, err := cheats.DecodeValues(callData)
	assert.NoError(t, err)
	assert.Len(t, values, 4)

	// 300 encodes as its plain big-endian word.
	assert.Equal(t, types.Uint64ToWord(300).Bytes(), values[0].([]byte))

	// -1 encodes as the all-ones two's-complement word.
	allOnes := values[1].([]byte)
	assert.Len(t, allOnes, types.WordLength)
	for _, b := range allOnes {
		assert.Equal(t, byte(0xFF), b)
	}

	assert.Equal(t, addr.Bytes(), values[2].([]byte))
	assert.Equal(t, true, values[3].(bool))
}

// TestFuzzInputString verifies witness rendering pairs each value with its declared type.
func TestFuzzInputString(t *testing.T) {
	empty := &FuzzInput{}
	assert.Equal(t, "(no arguments)", empty.String())

	input := &FuzzInput{
		Parameters: []compilationTypes.ParamType{
			{Kind: compilationTypes.ParamUint, Bits: 256},
			{Kind: compilationTypes.ParamString},
			{Kind: compilationTypes.ParamBytes},
		},
		Values: []any{big.NewInt(7), "hi", []byte{0xAB}},
	}
	rendered := input.String()
	assert.Contains(t, rendered, "uint256 7")
	assert.Contains(t, rendered, `string "hi"`)
	assert.Contains(t, rendered, "bytes 0xab")
}
