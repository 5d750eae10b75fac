package cheats

import "fmt"

// DiscardedError indicates the current fuzz input failed an assume() precondition and must be discarded
// without consuming an iteration slot. It is recovered locally by the fuzzing driver and never surfaced
// to the user.
type DiscardedError struct {
	// Reason describes why the input was discarded.
	Reason string
}

// Error implements the error interface.
func (e *DiscardedError) Error() string {
	return fmt.Sprintf("input discarded: %s", e.Reason)
}

// AssertionFailedError indicates an assertion cheatcode observed a false condition, failing the current
// test iteration immediately.
type AssertionFailedError struct {
	// Message describes the failed assertion.
	Message string
}

// Error implements the error interface.
func (e *AssertionFailedError) Error() string {
	return fmt.Sprintf("assertion failed: %s", e.Message)
}

// ExpectationFailedError indicates an armed one-shot expectation (expectRevert, expectEmit) went unmet
// by the call it applied to.
type ExpectationFailedError struct {
	// Message describes the unmet expectation.
	Message string
}

// Error implements the error interface.
func (e *ExpectationFailedError) Error() string {
	return fmt.Sprintf("expectation failed: %s", e.Message)
}

// UsageError indicates a cheatcode was invoked in a way its contract forbids, e.g. arming a second
// sender override before the first was consumed. Usage errors fail the current test iteration.
type UsageError struct {
	// Message describes the misuse.
	Message string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return fmt.Sprintf("cheatcode misuse: %s", e.Message)
}
