package fuzzing

import (
	"github.com/dyadfuzz/dyadfuzz/events"
)

// FuzzerStartingEvent describes an event where a fuzzing session is about to start executing tests.
type FuzzerStartingEvent struct {
	// Fuzzer represents the session which is starting.
	Fuzzer *Fuzzer
}

// FuzzerStoppingEvent describes an event where a fuzzing session has finished executing tests.
type FuzzerStoppingEvent struct {
	// Fuzzer represents the session which is stopping.
	Fuzzer *Fuzzer
}

// TestCaseStartedEvent describes an event where a test case's fuzz loop is about to run.
type TestCaseStartedEvent struct {
	// TestCase represents the test case which is starting.
	TestCase *TestCase
}

// TestCaseFinishedEvent describes an event where a test case reached its final verdict.
type TestCaseFinishedEvent struct {
	// TestCase represents the test case which finished.
	TestCase *TestCase
}

// FuzzerEvents describes the event emitters a Fuzzer publishes session lifecycle events through.
type FuzzerEvents struct {
	// FuzzerStarting emits events when a fuzzing session is about to start.
	FuzzerStarting events.EventEmitter[FuzzerStartingEvent]

	// FuzzerStopping emits events when a fuzzing session has finished.
	FuzzerStopping events.EventEmitter[FuzzerStoppingEvent]

	// TestCaseStarted emits events when a test case's fuzz loop is about to run.
	TestCaseStarted events.EventEmitter[TestCaseStartedEvent]

	// TestCaseFinished emits events when a test case reached its final verdict.
	TestCaseFinished events.EventEmitter[TestCaseFinishedEvent]
}
