package types

import (
	"github.com/pkg/errors"
)

// VMKind identifies which virtual machine a code object was compiled for.
type VMKind string

const (
	// VMKindBytecode describes code compiled for the stack-based bytecode virtual machine.
	VMKindBytecode VMKind = "bytecode"

	// VMKindWasm describes code compiled as a WebAssembly module for the WASM virtual machine.
	VMKindWasm VMKind = "wasm"
)

// Validate verifies the VMKind is one of the recognized kinds.
// Returns an error if the kind is unrecognized.
func (k VMKind) Validate() error {
	if k != VMKindBytecode && k != VMKindWasm {
		return errors.Errorf("unrecognized virtual machine kind '%s'", k)
	}
	return nil
}

// CodeObject represents a compiled, deployable contract code object, tagged with the virtual machine kind
// it was compiled for. Production of code objects is an external concern; the fuzzer only consumes them.
type CodeObject struct {
	// Kind describes the virtual machine the code object targets.
	Kind VMKind `cbor:"kind"`

	// Data contains the raw code bytes in the target virtual machine's native format.
	Data []byte `cbor:"data"`
}

// Validate performs basic structural validation of the code object.
// Returns an error if the code object is empty or its kind is unrecognized.
func (c *CodeObject) Validate() error {
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if len(c.Data) == 0 {
		return errors.New("code object contains no code")
	}
	return nil
}

// Copy returns a deep copy of the code object.
func (c *CodeObject) Copy() *CodeObject {
	data := make([]byte, len(c.Data))
	copy(data, c.Data)
	return &CodeObject{Kind: c.Kind, Data: data}
}
