// Package stackvm provides the Executor back-end for the stack-based bytecode virtual machine. The
// machine's instruction-level semantics live in an external interpreter collaborator; this package
// handles the deployment flow around it, including recognition of cross-deployed WASM payloads.
package stackvm

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/vm"
	"github.com/dyadfuzz/dyadfuzz/vm/bridge"
)

// Interpreter describes the external bytecode interpreter collaborator. Implementations execute init or
// runtime code against the uniform host surface; every ledger effect and nested call they make flows
// back through the provided vm.Host.
type Interpreter interface {
	// ExecuteInit executes deployment init code and returns the runtime code it produces.
	ExecuteInit(host vm.Host, initCode []byte) ([]byte, error)

	// ExecuteCall executes installed runtime code for the given call message.
	ExecuteCall(host vm.Host, runtimeCode []byte, msg *types.CallMessage) (*types.CallResult, error)
}

// Backend implements vm.Backend for the bytecode virtual machine.
type Backend struct {
	// interpreter describes the external interpreter executing bytecode on this back-end's behalf.
	interpreter Interpreter
}

// NewBackend creates a bytecode virtual machine back-end over the provided interpreter.
func NewBackend(interpreter Interpreter) *Backend {
	return &Backend{interpreter: interpreter}
}

// Kind returns the virtual machine kind this back-end executes code for.
func (b *Backend) Kind() types.VMKind {
	return types.VMKindBytecode
}

// Deploy executes the given init code through the interpreter and determines the runtime code object to
// install. If the init code returns a discriminant-tagged WASM payload, as produced by the deployment
// bridge, the installed object is tagged with the WASM kind so subsequent calls route to the WASM
// back-end, making the cross-deployed contract callable identically to a natively deployed one.
func (b *Backend) Deploy(host vm.Host, code *types.CodeObject, value *uint256.Int) (*types.CodeObject, error) {
	if code.Kind != types.VMKindBytecode {
		return nil, errors.Errorf("bytecode back-end cannot deploy a code object of kind '%s'", code.Kind)
	}
	if len(code.Data) == 0 {
		return nil, errors.New("bytecode back-end cannot deploy an empty code object")
	}

	runtime, err := b.interpreter.ExecuteInit(host, code.Data)
	if err != nil {
		return nil, err
	}
	if len(runtime) == 0 {
		return nil, errors.New("deployment init code returned no runtime code")
	}

	if bridge.IsWrappedWasm(runtime) {
		module, err := bridge.UnwrapWasm(runtime)
		if err != nil {
			return nil, err
		}
		return &types.CodeObject{Kind: types.VMKindWasm, Data: module}, nil
	}
	return &types.CodeObject{Kind: types.VMKindBytecode, Data: runtime}, nil
}

// Call executes installed bytecode through the interpreter.
func (b *Backend) Call(host vm.Host, code *types.CodeObject, msg *types.CallMessage) (*types.CallResult, error) {
	return b.interpreter.ExecuteCall(host, code.Data, msg)
}
