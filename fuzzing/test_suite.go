package fuzzing

import (
	"golang.org/x/exp/slices"

	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
)

// TestSuite groups the test cases discovered on one contract under test. The suite owns the contract's
// artifact and its optional setup entry point; its test cases still each run over an isolated ledger.
type TestSuite struct {
	// contract describes the compiled contract the suite's test cases were discovered on.
	contract *compilationTypes.ContractArtifact

	// setupEntryPoint describes the contract's setup entry point, or nil if it declares none.
	setupEntryPoint *compilationTypes.EntryPoint

	// testCases contains the suite's discovered test cases, in declaration order.
	testCases []*TestCase
}

// ContractName describes the name of the contract under test.
func (s *TestSuite) ContractName() string {
	return s.contract.Name
}

// Contract exposes the compiled contract the suite's test cases run against.
func (s *TestSuite) Contract() *compilationTypes.ContractArtifact {
	return s.contract
}

// SetupEntryPoint exposes the contract's setup entry point, or nil if it declares none.
func (s *TestSuite) SetupEntryPoint() *compilationTypes.EntryPoint {
	return s.setupEntryPoint
}

// TestCases exposes the suite's test cases, in declaration order.
func (s *TestSuite) TestCases() []*TestCase {
	return slices.Clone(s.testCases)
}
