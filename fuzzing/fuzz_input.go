package fuzzing

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/cheats"
	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/valuegeneration"
)

// FuzzInput describes one concrete assignment of values to a test entry point's parameter slots. It is
// generated fresh per iteration, immutable once generated, and discarded after the iteration unless it
// is the failing witness.
type FuzzInput struct {
	// Parameters describes the declared parameter slots the values were generated for.
	Parameters []compilationTypes.ParamType

	// Values describes the generated value for each parameter slot, in order.
	Values []any
}

// GenerateFuzzInput draws one value per declared parameter slot from the provided generator, each from
// a distribution appropriate to the slot's type.
func GenerateFuzzInput(generator valuegeneration.ValueGenerator, parameters []compilationTypes.ParamType) (*FuzzInput, error) {
	values := make([]any, len(parameters))
	for i, parameter := range parameters {
		switch parameter.Kind {
		case compilationTypes.ParamUint:
			values[i] = generator.GenerateInteger(false, parameter.Bits)
		case compilationTypes.ParamInt:
			values[i] = generator.GenerateInteger(true, parameter.Bits)
		case compilationTypes.ParamBool:
			values[i] = generator.GenerateBool()
		case compilationTypes.ParamAddress:
			values[i] = generator.GenerateAddress()
		case compilationTypes.ParamBytes:
			values[i] = generator.GenerateBytes()
		case compilationTypes.ParamFixedBytes:
			values[i] = generator.GenerateFixedBytes(parameter.Size)
		case compilationTypes.ParamString:
			values[i] = generator.GenerateString()
		default:
			return nil, errors.Errorf("cannot generate a value for unsupported parameter kind '%s'", parameter.Kind)
		}
	}
	return &FuzzInput{Parameters: parameters, Values: values}, nil
}

// wordModulus describes 2^256, used to reduce signed integers into their two's-complement word form.
var wordModulus = new(big.Int).Lsh(big.NewInt(1), 256)

// EncodeCallData encodes the input's values as the call data for the test entry point, using the
// codec shared by both virtual machines. Integers travel as 32-byte two's-complement words.
func (i *FuzzInput) EncodeCallData() ([]byte, error) {
	encodable := make([]any, len(i.Values))
	for idx, value := range i.Values {
		switch v := value.(type) {
		case *big.Int:
			word := new(big.Int).Mod(v, wordModulus)
			encodable[idx] = types.BytesToWord(word.Bytes())
		default:
			encodable[idx] = value
		}
	}
	return cheats.EncodeValues(encodable...)
}

// String renders the input's concrete values human-readably for witness reporting, pairing each value
// with its declared type.
func (i *FuzzInput) String() string {
	if len(i.Values) == 0 {
		return "(no arguments)"
	}
	rendered := make([]string, len(i.Values))
	for idx, value := range i.Values {
		var valueText string
		switch v := value.(type) {
		case []byte:
			valueText = fmt.Sprintf("0x%x", v)
		case string:
			valueText = fmt.Sprintf("%q", v)
		default:
			valueText = fmt.Sprintf("%v", v)
		}
		rendered[idx] = fmt.Sprintf("%s %s", i.Parameters[idx].String(), valueText)
	}
	return strings.Join(rendered, ", ")
}
