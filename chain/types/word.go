package types

import (
	"fmt"

	"github.com/holiman/uint256"
)

// WordLength describes the length of a ledger storage word, in bytes.
const WordLength = 32

// Word represents a raw 32-byte storage word. Storage slots and their values are always full words,
// regardless of which virtual machine wrote them.
type Word [WordLength]byte

// BytesToWord converts a byte slice into a Word. Slices larger than WordLength are truncated to their
// trailing bytes, smaller slices are left-padded with zero bytes.
func BytesToWord(b []byte) Word {
	var w Word
	if len(b) > WordLength {
		b = b[len(b)-WordLength:]
	}
	copy(w[WordLength-len(b):], b)
	return w
}

// Uint256ToWord converts a uint256 integer into its big-endian Word representation.
func Uint256ToWord(i *uint256.Int) Word {
	return i.Bytes32()
}

// Uint64ToWord converts an unsigned 64-bit integer into its big-endian Word representation.
func Uint64ToWord(i uint64) Word {
	return Uint256ToWord(uint256.NewInt(i))
}

// Uint256 returns the word interpreted as a big-endian uint256 integer.
func (w Word) Uint256() *uint256.Int {
	return new(uint256.Int).SetBytes(w[:])
}

// Bytes returns the word as a byte slice.
func (w Word) Bytes() []byte {
	return w[:]
}

// IsZero indicates whether the word is the all-zero word.
func (w Word) IsZero() bool {
	return w == Word{}
}

// String returns the "0x"-prefixed hex representation of the word.
func (w Word) String() string {
	return fmt.Sprintf("0x%x", w[:])
}
