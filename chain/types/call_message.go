package types

import (
	"github.com/holiman/uint256"
)

// SelectorLength describes the length of an entry point selector, in bytes.
const SelectorLength = 4

// Selector identifies a callable entry point on a deployed contract. Both virtual machines dispatch
// calls by selector, so the fuzzer never needs to understand either machine's internal calling convention.
type Selector [SelectorLength]byte

// BytesToSelector converts the leading bytes of a slice into a Selector.
func BytesToSelector(b []byte) Selector {
	var s Selector
	copy(s[:], b)
	return s
}

// CallMessage describes a single call to be executed against a deployed contract, or a deployment when
// To is nil.
type CallMessage struct {
	// From describes the effective sender of the call, after any cheatcode overrides were applied.
	From Address

	// To describes the target contract address.
	To Address

	// Value describes the native balance transferred with the call.
	Value *uint256.Int

	// Selector identifies the entry point being invoked on the target.
	Selector Selector

	// InputData contains the encoded call arguments, in the codec shared by both virtual machines.
	InputData []byte
}

// LogRecord describes a single log record emitted during a call's execution.
type LogRecord struct {
	// Emitter describes the address of the contract which emitted the record.
	Emitter Address

	// Topics describes the indexed words attached to the record.
	Topics []Word

	// Data contains the unindexed payload of the record.
	Data []byte
}

// CallResult describes the outcome of executing a CallMessage.
type CallResult struct {
	// ReturnData contains the data returned by the call, or the revert payload if the call reverted.
	ReturnData []byte

	// Reverted indicates whether the call reverted rather than returning normally.
	Reverted bool

	// RevertReason contains a human-readable reason for the revert, if one could be derived.
	RevertReason string

	// Logs describes every log record emitted during the call, in emission order. Records emitted by
	// frames which later reverted are excluded.
	Logs []LogRecord
}

// Failed indicates whether the call did not complete normally.
func (r *CallResult) Failed() bool {
	return r.Reverted
}
