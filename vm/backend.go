package vm

import (
	"github.com/holiman/uint256"

	"github.com/dyadfuzz/dyadfuzz/chain"
	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// Host describes the uniform environment the Executor hands to a virtual machine back-end for the
// duration of one call frame. Every ledger effect a contract makes flows through this interface, which
// is what lets the cheatcode interposition layer observe nested calls regardless of which machine
// issued them.
type Host interface {
	// Self returns the address of the contract executing in this frame.
	Self() types.Address

	// Caller returns the effective sender of this frame's call, after cheatcode overrides.
	Caller() types.Address

	// CallValue returns the native balance transferred with this frame's call.
	CallValue() *uint256.Int

	// Block returns the current block environment, reflecting any cheatcode overrides.
	Block() chain.BlockContext

	// BalanceOf returns the balance of an arbitrary ledger address.
	BalanceOf(addr types.Address) *uint256.Int

	// ReadStorage reads a storage word from the executing contract's own storage.
	ReadStorage(slot types.Word) types.Word

	// WriteStorage writes a storage word to the executing contract's own storage.
	WriteStorage(slot types.Word, value types.Word)

	// EmitLog records a log record attributed to the executing contract.
	EmitLog(topics []types.Word, data []byte)

	// Call performs a nested call. The call re-enters the Executor, so cheatcode interception and
	// sender overrides apply to it exactly as they do to top-level calls.
	Call(to types.Address, selector types.Selector, input []byte, value *uint256.Int) (*types.CallResult, error)

	// Deploy performs a nested deployment through the executing contract's virtual machine.
	Deploy(code *types.CodeObject, value *uint256.Int, salt []byte) (types.Address, *types.CallResult, error)
}

// Backend describes one virtual machine back-end. The Executor never interprets code itself; it routes
// deployments and calls to the Backend registered for the code object's kind. Implementations wrap the
// actual machine, whose instruction-level semantics are an external concern.
type Backend interface {
	// Kind returns the virtual machine kind this back-end executes code for.
	Kind() types.VMKind

	// Deploy executes the deployment path for the given code object and returns the runtime code
	// object to install at the deployed address. The returned object's kind may differ from this
	// back-end's kind when a cross-deployment payload was recognized.
	Deploy(host Host, code *types.CodeObject, value *uint256.Int) (*types.CodeObject, error)

	// Call executes a call against runtime code previously installed by this back-end's kind.
	Call(host Host, code *types.CodeObject, msg *types.CallMessage) (*types.CallResult, error)
}
