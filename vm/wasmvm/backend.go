// Package wasmvm provides the Executor back-end for the WebAssembly virtual machine. Module execution
// lives in an external runtime collaborator; this package validates modules structurally and adapts the
// runtime to the uniform back-end surface.
package wasmvm

import (
	"bytes"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/vm"
	"github.com/dyadfuzz/dyadfuzz/vm/bridge"
)

// ModuleRuntime describes the external WASM runtime collaborator. Implementations execute module
// exports against the uniform host surface; every ledger effect and nested call they make flows back
// through the provided vm.Host.
type ModuleRuntime interface {
	// Instantiate prepares a module for execution at deployment time, running its initialization
	// export if the module declares one.
	Instantiate(host vm.Host, module []byte) error

	// ExecuteCall executes the export matching the call message's selector.
	ExecuteCall(host vm.Host, module []byte, msg *types.CallMessage) (*types.CallResult, error)
}

// Backend implements vm.Backend for the WASM virtual machine.
type Backend struct {
	// runtime describes the external module runtime executing WASM on this back-end's behalf.
	runtime ModuleRuntime
}

// NewBackend creates a WASM virtual machine back-end over the provided module runtime.
func NewBackend(runtime ModuleRuntime) *Backend {
	return &Backend{runtime: runtime}
}

// Kind returns the virtual machine kind this back-end executes code for.
func (b *Backend) Kind() types.VMKind {
	return types.VMKindWasm
}

// Deploy validates the module structurally, instantiates it through the runtime, and installs the
// module bytes themselves as the runtime code object.
func (b *Backend) Deploy(host vm.Host, code *types.CodeObject, value *uint256.Int) (*types.CodeObject, error) {
	if code.Kind != types.VMKindWasm {
		return nil, errors.Errorf("WASM back-end cannot deploy a code object of kind '%s'", code.Kind)
	}
	if !bytes.HasPrefix(code.Data, bridge.WasmMagic) {
		return nil, errors.New("WASM back-end cannot deploy a malformed module: missing module magic")
	}
	if err := b.runtime.Instantiate(host, code.Data); err != nil {
		return nil, err
	}
	return &types.CodeObject{Kind: types.VMKindWasm, Data: code.Data}, nil
}

// Call executes the export matching the call message's selector through the module runtime.
func (b *Backend) Call(host vm.Host, code *types.CodeObject, msg *types.CallMessage) (*types.CallResult, error) {
	return b.runtime.ExecuteCall(host, code.Data, msg)
}
