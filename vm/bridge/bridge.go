// Package bridge constructs deployment payloads that let a WASM code object be deployed through the
// bytecode virtual machine's native deployment instruction. The payload is a small init-code preamble
// whose sole effect, when executed as deployment code, is to return the discriminant-tagged WASM bytes
// as the resulting runtime code. The reverse direction needs no wrapping: the bytecode back-end accepts
// bytecode directly.
package bridge

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// WasmMagic describes the four-byte preamble every WebAssembly module begins with.
var WasmMagic = []byte{0x00, 0x61, 0x73, 0x6D}

// wasmDiscriminant describes the tag prefixed to WASM bytes installed as runtime code on the bytecode
// virtual machine, so its call path can recognize and reroute them.
var wasmDiscriminant = []byte{0xEF, 0xF0, 0x00}

// wasmFormatVersion describes the format-version byte following the discriminant.
const wasmFormatVersion = byte(0x00)

// Bytecode-VM instructions used by the deployment preamble.
const (
	opPush1    = byte(0x60)
	opPush2    = byte(0x61)
	opDup1     = byte(0x80)
	opCodeCopy = byte(0x39)
	opReturn   = byte(0xF3)
)

// preambleLength describes the exact length of the deployment preamble, which is also the code offset
// the preamble copies the tagged payload from. Any deviation here produces a contract the bytecode
// virtual machine cannot recognize or invoke, so the preamble layout must never change silently.
const preambleLength = 12

// maxPayloadLength describes the largest tagged payload the preamble's 16-bit length encoding can carry.
const maxPayloadLength = 0xFFFF

// WrapForForeignDeployment produces the init-code payload which, when executed by the bytecode virtual
// machine's deployment instruction, installs the given WASM code object's bytes (prefixed with the
// discriminant tag and format-version byte) as runtime code. Wrapping is deterministic: the same code
// object always produces a byte-identical payload.
// Returns the deployment payload, or an error if the code object is empty, not WASM, or malformed.
func WrapForForeignDeployment(code *types.CodeObject) ([]byte, error) {
	if code == nil || len(code.Data) == 0 {
		return nil, errors.New("cannot wrap an empty code object for foreign deployment")
	}
	if code.Kind != types.VMKindWasm {
		return nil, errors.Errorf("cannot wrap a code object of kind '%s' for foreign deployment, only '%s'", code.Kind, types.VMKindWasm)
	}
	if !bytes.HasPrefix(code.Data, WasmMagic) {
		return nil, errors.New("cannot wrap a malformed WASM code object: missing module magic")
	}

	payloadLength := len(wasmDiscriminant) + 1 + len(code.Data)
	if payloadLength > maxPayloadLength {
		return nil, errors.Errorf("WASM code object is too large to wrap: tagged payload is %d bytes, limit is %d", payloadLength, maxPayloadLength)
	}

	// The preamble copies the tagged payload trailing it into memory and returns that region as the
	// deployed code:
	//   PUSH2 <len> DUP1 PUSH1 <offset> PUSH1 0 CODECOPY PUSH1 0 RETURN
	payload := make([]byte, 0, preambleLength+payloadLength)
	var lengthBytes [2]byte
	binary.BigEndian.PutUint16(lengthBytes[:], uint16(payloadLength))
	payload = append(payload, opPush2, lengthBytes[0], lengthBytes[1])
	payload = append(payload, opDup1)
	payload = append(payload, opPush1, preambleLength)
	payload = append(payload, opPush1, 0x00)
	payload = append(payload, opCodeCopy)
	payload = append(payload, opPush1, 0x00)
	payload = append(payload, opReturn)

	payload = append(payload, wasmDiscriminant...)
	payload = append(payload, wasmFormatVersion)
	payload = append(payload, code.Data...)
	return payload, nil
}

// IsWrappedWasm indicates whether the given runtime code bytes carry the WASM discriminant tag produced
// by WrapForForeignDeployment's preamble.
func IsWrappedWasm(code []byte) bool {
	if len(code) < len(wasmDiscriminant)+1 {
		return false
	}
	return bytes.HasPrefix(code, wasmDiscriminant) && code[len(wasmDiscriminant)] == wasmFormatVersion
}

// UnwrapWasm strips the discriminant tag and format-version byte from tagged runtime code, returning
// the raw WASM module bytes.
// Returns an error if the code does not carry the discriminant tag.
func UnwrapWasm(code []byte) ([]byte, error) {
	if !IsWrappedWasm(code) {
		return nil, errors.New("code does not carry the WASM discriminant tag")
	}
	return code[len(wasmDiscriminant)+1:], nil
}
