package vm

import (
	"github.com/holiman/uint256"

	"github.com/dyadfuzz/dyadfuzz/chain"
	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// callFrame implements Host for one executing call frame. It binds a back-end's execution to the
// executor so every nested call and ledger effect passes back through the uniform surface.
type callFrame struct {
	// executor describes the executor which created this frame.
	executor *Executor

	// self describes the address of the contract executing in this frame.
	self types.Address

	// caller describes the effective sender of this frame's call.
	caller types.Address

	// value describes the native balance transferred with this frame's call.
	value *uint256.Int
}

// Self returns the address of the contract executing in this frame.
func (f *callFrame) Self() types.Address {
	return f.self
}

// Caller returns the effective sender of this frame's call.
func (f *callFrame) Caller() types.Address {
	return f.caller
}

// CallValue returns the native balance transferred with this frame's call.
func (f *callFrame) CallValue() *uint256.Int {
	return new(uint256.Int).Set(f.value)
}

// Block returns the current block environment, reflecting any cheatcode overrides.
func (f *callFrame) Block() chain.BlockContext {
	return f.executor.context.Block.Copy()
}

// BalanceOf returns the balance of an arbitrary ledger address.
func (f *callFrame) BalanceOf(addr types.Address) *uint256.Int {
	return f.executor.ledger.GetBalance(addr)
}

// ReadStorage reads a storage word from the executing contract's own storage.
func (f *callFrame) ReadStorage(slot types.Word) types.Word {
	return f.executor.ledger.GetState(f.self, slot)
}

// WriteStorage writes a storage word to the executing contract's own storage.
func (f *callFrame) WriteStorage(slot types.Word, value types.Word) {
	f.executor.ledger.SetState(f.self, slot, value)
}

// EmitLog records a log record attributed to the executing contract.
func (f *callFrame) EmitLog(topics []types.Word, data []byte) {
	record := types.LogRecord{
		Emitter: f.self,
		Topics:  append([]types.Word{}, topics...),
		Data:    append([]byte{}, data...),
	}
	f.executor.logs = append(f.executor.logs, record)
}

// Call performs a nested call through the executor, with the executing contract as the requested sender.
func (f *callFrame) Call(to types.Address, selector types.Selector, input []byte, value *uint256.Int) (*types.CallResult, error) {
	return f.executor.call(to, selector, input, f.self, value, true)
}

// Deploy performs a nested deployment with the executing contract as the resolved sender, unless a
// cheatcode override redirects it.
func (f *callFrame) Deploy(code *types.CodeObject, value *uint256.Int, salt []byte) (types.Address, *types.CallResult, error) {
	sender := f.executor.context.ResolveSender(f.self)
	return f.executor.deploy(code, value, salt, sender)
}
