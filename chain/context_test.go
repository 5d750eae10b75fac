package chain

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
)

// TestResolveSenderPrecedence verifies the sender resolution order: an armed one-shot override wins
// over a sticky override, which wins over the requested sender, which wins over the default.
func TestResolveSenderPrecedence(t *testing.T) {
	defaultSender := types.MustHexToAddress("0x01")
	requested := types.MustHexToAddress("0x02")
	oneShot := types.MustHexToAddress("0x03")
	sticky := types.MustHexToAddress("0x04")

	ctx := NewExecutionContext(defaultSender, BlockContext{Number: 1, Timestamp: 1})

	// No overrides: requested wins, default fills in for a zero request.
	assert.Equal(t, requested, ctx.ResolveSender(requested))
	assert.Equal(t, defaultSender, ctx.ResolveSender(types.Address{}))

	// A sticky override beats the requested sender.
	ctx.StartSenderOverride(sticky)
	assert.Equal(t, sticky, ctx.ResolveSender(requested))
	assert.Equal(t, sticky, ctx.ResolveSender(requested))

	// A one-shot override beats the sticky one, for exactly one resolution.
	assert.NoError(t, ctx.ArmNextSender(oneShot))
	assert.Equal(t, oneShot, ctx.ResolveSender(requested))
	assert.Equal(t, sticky, ctx.ResolveSender(requested))

	// Stopping the sticky override restores requested/default resolution.
	ctx.StopSenderOverride()
	assert.Equal(t, requested, ctx.ResolveSender(requested))
}

// TestArmNextSenderTwice verifies arming a second one-shot override before the first is consumed is
// rejected.
func TestArmNextSenderTwice(t *testing.T) {
	ctx := NewExecutionContext(types.MustHexToAddress("0x01"), BlockContext{})
	assert.NoError(t, ctx.ArmNextSender(types.MustHexToAddress("0x02")))
	assert.True(t, ctx.SenderOverrideArmed())
	assert.Error(t, ctx.ArmNextSender(types.MustHexToAddress("0x03")))

	// Consuming the override allows arming again.
	ctx.ResolveSender(types.Address{})
	assert.False(t, ctx.SenderOverrideArmed())
	assert.NoError(t, ctx.ArmNextSender(types.MustHexToAddress("0x03")))
}

// TestStopSenderOverrideWithoutStart verifies stopping a sticky override when none is active is a
// harmless no-op.
func TestStopSenderOverrideWithoutStart(t *testing.T) {
	defaultSender := types.MustHexToAddress("0x01")
	ctx := NewExecutionContext(defaultSender, BlockContext{})
	ctx.StopSenderOverride()
	assert.Equal(t, defaultSender, ctx.ResolveSender(types.Address{}))
}

// TestBlockOverridesStickUntilReset verifies warp, roll, and fee overrides persist across resolutions
// and are cleared only by Reset.
func TestBlockOverridesStickUntilReset(t *testing.T) {
	ctx := NewExecutionContext(types.MustHexToAddress("0x01"), BlockContext{Number: 5, Timestamp: 100})

	ctx.Warp(2000)
	ctx.Roll(77)
	ctx.SetBaseFee(uint256.NewInt(9))
	assert.EqualValues(t, 2000, ctx.Block.Timestamp)
	assert.EqualValues(t, 77, ctx.Block.Number)
	assert.EqualValues(t, 9, ctx.Block.BaseFee.Uint64())

	// Sender resolutions do not disturb block overrides.
	ctx.ResolveSender(types.Address{})
	assert.EqualValues(t, 2000, ctx.Block.Timestamp)

	ctx.Reset()
	assert.EqualValues(t, 100, ctx.Block.Timestamp)
	assert.EqualValues(t, 5, ctx.Block.Number)
	assert.True(t, ctx.Block.BaseFee.IsZero())
}

// TestResetClearsSenderOverrides verifies Reset drops both armed and sticky sender overrides.
func TestResetClearsSenderOverrides(t *testing.T) {
	defaultSender := types.MustHexToAddress("0x01")
	ctx := NewExecutionContext(defaultSender, BlockContext{})
	assert.NoError(t, ctx.ArmNextSender(types.MustHexToAddress("0x02")))
	ctx.StartSenderOverride(types.MustHexToAddress("0x03"))

	ctx.Reset()
	assert.False(t, ctx.SenderOverrideArmed())
	assert.Equal(t, defaultSender, ctx.ResolveSender(types.Address{}))
}
