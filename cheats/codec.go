package cheats

import (
	"github.com/fxamacker/cbor"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// Cheatcode arguments and returns travel as CBOR arrays. CBOR is the one encoding both virtual
// machines can produce without sharing an ABI library, which keeps the calling convention VM-agnostic:
// a contract on either machine issues the same selector and the same encoded argument list.

// ComputeSelector derives the four-byte selector for a cheatcode method signature, e.g.
// "deal(address,uint256)".
func ComputeSelector(signature string) types.Selector {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(signature))
	return types.BytesToSelector(hasher.Sum(nil)[:types.SelectorLength])
}

// EncodeValues encodes a list of cheatcode argument or return values as a CBOR array. Addresses and
// words are encoded as their fixed-width byte strings, uint256 values as 32-byte big-endian strings,
// word lists as nested arrays of byte strings.
func EncodeValues(values ...any) ([]byte, error) {
	encoded := make([]any, len(values))
	for i, value := range values {
		switch v := value.(type) {
		case types.Address:
			encoded[i] = v.Bytes()
		case types.Word:
			encoded[i] = v.Bytes()
		case *uint256.Int:
			word := types.Uint256ToWord(v)
			encoded[i] = word.Bytes()
		case []types.Word:
			words := make([]any, len(v))
			for j, word := range v {
				words[j] = word.Bytes()
			}
			encoded[i] = words
		case bool, uint64, []byte, string:
			encoded[i] = v
		default:
			return nil, errors.Errorf("cannot encode cheatcode value of unsupported type %T", value)
		}
	}
	data, err := cbor.Marshal(encoded, cbor.EncOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "could not encode cheatcode values")
	}
	return data, nil
}

// DecodeValues decodes a CBOR array of cheatcode argument or return values.
func DecodeValues(data []byte) ([]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var values []any
	if err := cbor.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrap(err, "could not decode cheatcode values")
	}
	return values, nil
}

// argAddress interprets the argument at the given index as an address.
func argAddress(args []any, index int) (types.Address, error) {
	b, err := argBytes(args, index)
	if err != nil {
		return types.Address{}, err
	}
	if len(b) != types.AddressLength {
		return types.Address{}, errors.Errorf("cheatcode argument %d is not a %d-byte address", index, types.AddressLength)
	}
	return types.BytesToAddress(b), nil
}

// argWord interprets the argument at the given index as a 32-byte word.
func argWord(args []any, index int) (types.Word, error) {
	b, err := argBytes(args, index)
	if err != nil {
		return types.Word{}, err
	}
	if len(b) != types.WordLength {
		return types.Word{}, errors.Errorf("cheatcode argument %d is not a %d-byte word", index, types.WordLength)
	}
	return types.BytesToWord(b), nil
}

// argWordList interprets the argument at the given index as a list of 32-byte words.
func argWordList(args []any, index int) ([]types.Word, error) {
	if index >= len(args) {
		return nil, errors.Errorf("cheatcode call is missing argument %d", index)
	}
	list, ok := args[index].([]any)
	if !ok {
		return nil, errors.Errorf("cheatcode argument %d has type %T, expected a list of words", index, args[index])
	}
	words := make([]types.Word, len(list))
	for i, item := range list {
		b, ok := item.([]byte)
		if !ok || len(b) != types.WordLength {
			return nil, errors.Errorf("cheatcode argument %d, element %d is not a %d-byte word", index, i, types.WordLength)
		}
		words[i] = types.BytesToWord(b)
	}
	return words, nil
}

// argUint256 interprets the argument at the given index as a 256-bit unsigned integer.
func argUint256(args []any, index int) (*uint256.Int, error) {
	word, err := argWord(args, index)
	if err != nil {
		return nil, err
	}
	return word.Uint256(), nil
}

// argBytes interprets the argument at the given index as a byte string.
func argBytes(args []any, index int) ([]byte, error) {
	if index >= len(args) {
		return nil, errors.Errorf("cheatcode call is missing argument %d", index)
	}
	b, ok := args[index].([]byte)
	if !ok {
		return nil, errors.Errorf("cheatcode argument %d has type %T, expected a byte string", index, args[index])
	}
	return b, nil
}

// argBool interprets the argument at the given index as a boolean.
func argBool(args []any, index int) (bool, error) {
	if index >= len(args) {
		return false, errors.Errorf("cheatcode call is missing argument %d", index)
	}
	v, ok := args[index].(bool)
	if !ok {
		return false, errors.Errorf("cheatcode argument %d has type %T, expected a boolean", index, args[index])
	}
	return v, nil
}

// argUint64 interprets the argument at the given index as an unsigned 64-bit integer.
func argUint64(args []any, index int) (uint64, error) {
	if index >= len(args) {
		return 0, errors.Errorf("cheatcode call is missing argument %d", index)
	}
	v, ok := args[index].(uint64)
	if !ok {
		return 0, errors.Errorf("cheatcode argument %d has type %T, expected an unsigned integer", index, args[index])
	}
	return v, nil
}

// argString interprets the argument at the given index as a string.
func argString(args []any, index int) (string, error) {
	if index >= len(args) {
		return "", errors.Errorf("cheatcode call is missing argument %d", index)
	}
	v, ok := args[index].(string)
	if !ok {
		return "", errors.Errorf("cheatcode argument %d has type %T, expected a string", index, args[index])
	}
	return v, nil
}
