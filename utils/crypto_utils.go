package utils

import (
	"bytes"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// wasmMagic describes the four-byte preamble every WebAssembly module begins with.
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6D}

// HasWasmMagic indicates whether the given code bytes begin with the WebAssembly module magic.
func HasWasmMagic(code []byte) bool {
	return bytes.HasPrefix(code, wasmMagic)
}

// GetPrivateKey will return a private key object given a byte slice. Only slices between lengths 1 and
// 32 (inclusive) representing a non-zero scalar are valid.
func GetPrivateKey(b []byte) (*secp256k1.PrivateKey, error) {
	// Make sure the private key length is usable before padding.
	if len(b) < 1 || len(b) > 32 {
		return nil, errors.New("invalid private key")
	}

	// Pad the private key slice to a fixed 32-byte array.
	paddedPrivateKey := make([]byte, 32)
	copy(paddedPrivateKey[32-len(b):], b)

	privateKey := secp256k1.PrivKeyFromBytes(paddedPrivateKey)
	if privateKey.Key.IsZero() {
		return nil, errors.New("invalid private key: zero scalar")
	}
	return privateKey, nil
}

// PublicKeyToAddress derives the ledger address corresponding to a public key: the trailing 20 bytes of
// the keccak256 hash of the uncompressed public key.
func PublicKeyToAddress(publicKey *secp256k1.PublicKey) types.Address {
	uncompressed := publicKey.SerializeUncompressed()
	hasher := sha3.NewLegacyKeccak256()

	// Skip the 0x04 uncompressed-point prefix.
	hasher.Write(uncompressed[1:])
	return types.BytesToAddress(hasher.Sum(nil)[12:])
}

// SignDigest produces a deterministic recoverable signature over a 32-byte digest.
// Returns the recovery identifier v (27 or 28) and the r and s signature words.
func SignDigest(privateKey *secp256k1.PrivateKey, digest types.Word) (uint64, types.Word, types.Word) {
	// SignCompact produces [recovery header, r, s] with the header already offset to 27 for
	// uncompressed keys. Signatures are deterministic per RFC 6979.
	signature := ecdsa.SignCompact(privateKey, digest.Bytes(), false)
	v := uint64(signature[0])
	r := types.BytesToWord(signature[1:33])
	s := types.BytesToWord(signature[33:65])
	return v, r, s
}
