package chain

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// BlockContext describes the ambient block environment observed by executing contracts.
type BlockContext struct {
	// Number describes the current block number.
	Number uint64

	// Timestamp describes the current block timestamp, in seconds.
	Timestamp uint64

	// BaseFee describes the current block base fee.
	BaseFee *uint256.Int
}

// Copy returns a copy of the block context.
func (b BlockContext) Copy() BlockContext {
	cp := b
	if b.BaseFee != nil {
		cp.BaseFee = new(uint256.Int).Set(b.BaseFee)
	}
	return cp
}

// ExecutionContext describes the ambient environment for calls executed within one test case's session:
// the effective sender and the block environment, either of which cheatcodes may override. It is scoped
// to a single ledger and reset between independent test runs. It is passed explicitly into every call
// rather than held as global state.
type ExecutionContext struct {
	// DefaultSender describes the sender used when no override is active and the caller did not
	// request a specific sender.
	DefaultSender types.Address

	// Block describes the current block environment. Overrides applied by cheatcodes remain in effect
	// until the context is reset.
	Block BlockContext

	// defaultBlock captures the block environment the context was created with, restored on Reset.
	defaultBlock BlockContext

	// nextSender describes a sender override applied to exactly the next call, or nil when unarmed.
	nextSender *types.Address

	// stickySender describes a sender override applied to every call until explicitly stopped, or nil.
	stickySender *types.Address
}

// NewExecutionContext creates an execution context with the provided default sender and block environment.
func NewExecutionContext(defaultSender types.Address, block BlockContext) *ExecutionContext {
	if block.BaseFee == nil {
		block.BaseFee = uint256.NewInt(0)
	}
	return &ExecutionContext{
		DefaultSender: defaultSender,
		Block:         block.Copy(),
		defaultBlock:  block.Copy(),
	}
}

// ArmNextSender arms a sender override consumed by exactly the next call, regardless of that call's
// outcome.
// Returns an error if an unconsumed override is already armed, which indicates cheatcode misuse.
func (c *ExecutionContext) ArmNextSender(sender types.Address) error {
	if c.nextSender != nil {
		return errors.New("prank: a sender override is already armed and has not been consumed by a call")
	}
	c.nextSender = &sender
	return nil
}

// StartSenderOverride applies a sender override to every subsequent call until StopSenderOverride is
// invoked.
func (c *ExecutionContext) StartSenderOverride(sender types.Address) {
	c.stickySender = &sender
}

// StopSenderOverride clears a sticky sender override. Invoking it with no active override is a no-op;
// fuzzed call sequences commonly produce redundant stop calls and treating them as errors would fail
// tests spuriously.
func (c *ExecutionContext) StopSenderOverride() {
	c.stickySender = nil
}

// ResolveSender determines the effective sender for the next call given a requested sender, applying
// any armed one-shot override first, then any sticky override, then the requested or default sender.
// A one-shot override is consumed by this resolution.
func (c *ExecutionContext) ResolveSender(requested types.Address) types.Address {
	if c.nextSender != nil {
		sender := *c.nextSender
		c.nextSender = nil
		return sender
	}
	if c.stickySender != nil {
		return *c.stickySender
	}
	if !requested.IsZero() {
		return requested
	}
	return c.DefaultSender
}

// SenderOverrideArmed indicates whether a one-shot sender override is currently armed.
func (c *ExecutionContext) SenderOverrideArmed() bool {
	return c.nextSender != nil
}

// Warp overrides the block timestamp until the context is reset.
func (c *ExecutionContext) Warp(timestamp uint64) {
	c.Block.Timestamp = timestamp
}

// Roll overrides the block number until the context is reset.
func (c *ExecutionContext) Roll(number uint64) {
	c.Block.Number = number
}

// SetBaseFee overrides the block base fee until the context is reset.
func (c *ExecutionContext) SetBaseFee(baseFee *uint256.Int) {
	c.Block.BaseFee = new(uint256.Int).Set(baseFee)
}

// Reset restores the context to its initial state, clearing every override. The fuzzing driver invokes
// this between independent test cases.
func (c *ExecutionContext) Reset() {
	c.Block = c.defaultBlock.Copy()
	c.nextSender = nil
	c.stickySender = nil
}
