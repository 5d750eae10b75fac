package fuzzing

import (
	"fmt"
	"strings"

	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
)

// TestCaseStatus defines the state of a TestCase as a string-represented enum.
type TestCaseStatus string

const (
	// TestCaseStatusNotStarted describes a test status where the test has not yet been executed.
	TestCaseStatusNotStarted TestCaseStatus = "NOT STARTED"

	// TestCaseStatusRunning describes a test status where the test's fuzz loop is executing and no
	// verdict has been reached.
	TestCaseStatusRunning TestCaseStatus = "RUNNING"

	// TestCaseStatusPassed describes a test status where execution concluded and the test passed.
	TestCaseStatusPassed TestCaseStatus = "PASSED"

	// TestCaseStatusFailed describes a test status where execution concluded and the test failed.
	TestCaseStatusFailed TestCaseStatus = "FAILED"
)

// TestCase describes one discovered test entry point and its accumulated verdict. Identity is the
// fully-qualified name; the definition is read-only after discovery, only the verdict accumulates.
type TestCase struct {
	// contractName describes the name of the contract under test which declares the entry point.
	contractName string

	// entryPoint describes the test entry point the case executes.
	entryPoint compilationTypes.EntryPoint

	// status describes the current state of the test.
	status TestCaseStatus

	// reason describes why the test failed, if it did.
	reason string

	// witness describes the first failing input, retained for reproduction, or nil.
	witness *FuzzInput

	// iterations describes the number of consumed (non-discarded) fuzz iterations executed.
	iterations int

	// discards describes the number of generated inputs discarded by failed assumptions.
	discards int
}

// NewTestCase creates a TestCase for a discovered entry point on the named contract.
func NewTestCase(contractName string, entryPoint compilationTypes.EntryPoint) *TestCase {
	return &TestCase{
		contractName: contractName,
		entryPoint:   entryPoint,
		status:       TestCaseStatusNotStarted,
	}
}

// Status describes the TestCaseStatus used to define the current state of the test.
func (t *TestCase) Status() TestCaseStatus {
	return t.status
}

// Name describes the name of the test case.
func (t *TestCase) Name() string {
	return fmt.Sprintf("%s.%s", t.contractName, t.entryPoint.Name)
}

// ID obtains a unique identifier for the test case, stable across runs of the same project.
func (t *TestCase) ID() string {
	return strings.Replace(fmt.Sprintf("TEST-%s-%s", t.contractName, t.entryPoint.Name), "_", "-", -1)
}

// EntryPoint exposes the test entry point definition this case executes.
func (t *TestCase) EntryPoint() compilationTypes.EntryPoint {
	return t.entryPoint
}

// Witness exposes the first failing input retained by the test, or nil if the test did not fail or
// failed outside the fuzz loop (e.g. during setup).
func (t *TestCase) Witness() *FuzzInput {
	return t.witness
}

// Iterations exposes the number of consumed fuzz iterations executed for this test.
func (t *TestCase) Iterations() int {
	return t.iterations
}

// Discards exposes the number of generated inputs discarded by failed assumptions.
func (t *TestCase) Discards() int {
	return t.discards
}

// Message obtains a text-based printable message which describes the test result.
func (t *TestCase) Message() string {
	if t.status == TestCaseStatusFailed {
		msg := fmt.Sprintf("Test %q failed: %s", t.Name(), t.reason)
		if t.witness != nil {
			msg += fmt.Sprintf("\nFailing input: %s", t.witness.String())
		}
		return msg
	}
	if t.status == TestCaseStatusPassed {
		return fmt.Sprintf("Test %q passed after %d iterations (%d discarded)", t.Name(), t.iterations, t.discards)
	}
	return ""
}
