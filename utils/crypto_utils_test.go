package utils

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// TestGetPrivateKey verifies key parsing accepts short non-zero scalars and rejects invalid input.
func TestGetPrivateKey(t *testing.T) {
	// Short keys left-pad to the full scalar width.
	key, err := GetPrivateKey([]byte{0x01})
	assert.NoError(t, err)
	assert.NotNil(t, key)

	full := make([]byte, 32)
	full[31] = 0x02
	_, err = GetPrivateKey(full)
	assert.NoError(t, err)

	// Empty, oversized, and zero-scalar keys are rejected.
	_, err = GetPrivateKey(nil)
	assert.Error(t, err)
	_, err = GetPrivateKey(make([]byte, 33))
	assert.Error(t, err)
	_, err = GetPrivateKey(make([]byte, 32))
	assert.Error(t, err)
}

// TestSignDigestRecovers verifies signatures recover to the public key whose address
// PublicKeyToAddress derives, tying the sign and addr cheatcodes together.
func TestSignDigestRecovers(t *testing.T) {
	key, err := GetPrivateKey([]byte{0xC0, 0xFF, 0xEE})
	assert.NoError(t, err)
	digest := types.Uint64ToWord(99)

	v, r, s := SignDigest(key, digest)
	assert.True(t, v == 27 || v == 28)

	// Reassemble the compact signature and recover the signing key.
	compact := make([]byte, 65)
	compact[0] = byte(v)
	copy(compact[1:33], r.Bytes())
	copy(compact[33:65], s.Bytes())
	recovered, wasCompressed, err := ecdsa.RecoverCompact(compact, digest.Bytes())
	assert.NoError(t, err)
	assert.False(t, wasCompressed)
	assert.True(t, recovered.IsEqual(key.PubKey()))
	assert.Equal(t, PublicKeyToAddress(key.PubKey()), PublicKeyToAddress(recovered))

	// Determinism: the same key and digest always produce the same signature.
	v2, r2, s2 := SignDigest(key, digest)
	assert.Equal(t, v, v2)
	assert.Equal(t, r, r2)
	assert.Equal(t, s, s2)

	// A different digest produces a different signature.
	_, r3, _ := SignDigest(key, types.Uint64ToWord(100))
	assert.NotEqual(t, r, r3)
}

// TestHasWasmMagic verifies module magic detection.
func TestHasWasmMagic(t *testing.T) {
	assert.True(t, HasWasmMagic([]byte{0x00, 0x61, 0x73, 0x6D, 0x01}))
	assert.False(t, HasWasmMagic([]byte{0x00, 0x61, 0x73}))
	assert.False(t, HasWasmMagic([]byte{0x60, 0x00}))
	assert.False(t, HasWasmMagic(nil))
}
