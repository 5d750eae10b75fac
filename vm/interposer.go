package vm

import (
	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// Interposer describes the cheatcode interposition layer from the Executor's point of view. The Executor
// consults it before forwarding any call to a virtual machine back-end, and again after every ordinary
// call completes so one-shot expectations can be enforced. The layer is VM-agnostic: it only ever sees
// the Executor's uniform primitives.
type Interposer interface {
	// ContractAddress returns the reserved address the interposed contract responds at. Calls
	// targeting this address are never forwarded to a virtual machine.
	ContractAddress() types.Address

	// Intercept handles a call targeting the interposed contract address, performing the privileged
	// operation and returning a result as if it were a normal call return. Errors returned here are
	// recorded by the Executor as the pending verdict for the current execution.
	Intercept(host Host, msg *types.CallMessage) (*types.CallResult, error)

	// AfterCall is invoked after every completed non-cheatcode call with its observed result. It may
	// substitute the result (e.g. an armed revert expectation converts an observed revert into a
	// normal return) or return an error when an armed expectation went unmet.
	AfterCall(msg *types.CallMessage, result *types.CallResult) (*types.CallResult, error)

	// Reset clears all armed expectations and overrides. The fuzzing driver resets the layer between
	// iterations so no expectation leaks across inputs.
	Reset()
}
