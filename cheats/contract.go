// Package cheats implements the cheatcode interposition layer: a catalog of privileged operations a
// test may invoke during execution which mutate or inspect ledger state out of band. The layer sits
// between the Executor's call dispatch and the virtual machines; it depends only on the Executor's
// uniform primitives, so a contract on either machine observes identical cheatcode behavior.
package cheats

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/dyadfuzz/dyadfuzz/chain"
	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/vm"
)

// StandardContractAddress describes the reserved address the cheatcode contract responds at.
var StandardContractAddress = types.MustHexToAddress("0x7109709ECfa91a80626fF3989D68f67F5b1DD12D")

// FileReader describes the external filesystem collaborator backing the file-read cheatcodes. Path
// resolution beyond root-relative joining is the collaborator's concern.
type FileReader interface {
	// ReadFile reads the contents of a project-root-relative path.
	// Returns an error for paths escaping the root or missing files.
	ReadFile(path string) ([]byte, error)
}

// methodHandler describes a function handling one cheatcode method. It receives the host surface of the
// calling frame and the decoded argument values.
// Returns the values to encode as the call's return data. Errors of the verdict types (DiscardedError,
// AssertionFailedError, ExpectationFailedError, UsageError) affect the test verdict; any other error
// merely fails the call as a revert.
type methodHandler func(c *Contract, host vm.Host, args []any) ([]any, error)

// method describes one registered cheatcode method.
type method struct {
	// signature describes the canonical method signature the selector was derived from.
	signature string

	// handler describes the function invoked for this method.
	handler methodHandler
}

// emitExpectation describes an armed one-shot log expectation.
type emitExpectation struct {
	// emitter optionally restricts which address must have emitted a matching record.
	emitter *types.Address

	// topics optionally requires a matching record to carry exactly these topic words, or nil to
	// accept any topics.
	topics []types.Word

	// data requires a matching record to carry exactly this payload when matchData is set.
	data []byte

	// matchData indicates whether data constrains matching records.
	matchData bool
}

// Contract implements the cheatcode contract and the vm.Interposer surface the Executor consults. It is
// scoped to one test case's ledger and execution context.
type Contract struct {
	// ledger describes the ledger cheatcodes mutate and inspect.
	ledger *chain.Ledger

	// context describes the execution context cheatcodes override.
	context *chain.ExecutionContext

	// files describes the external filesystem collaborator for the file-read cheatcodes.
	files FileReader

	// methods describes the interception table mapping selectors to handlers.
	methods map[types.Selector]*method

	// expectRevert indicates a one-shot expectation that the next call must fail.
	expectRevert bool

	// expectEmit describes an armed one-shot log expectation, or nil.
	expectEmit *emitExpectation
}

// NewContract creates the cheatcode contract over the provided ledger, execution context and filesystem
// collaborator, with the standard cheatcode catalog registered.
func NewContract(ledger *chain.Ledger, context *chain.ExecutionContext, files FileReader) *Contract {
	contract := &Contract{
		ledger:  ledger,
		context: context,
		files:   files,
		methods: make(map[types.Selector]*method),
	}
	registerStandardMethods(contract)
	return contract
}

// addMethod registers a cheatcode method under its canonical signature, derived from the method name
// and argument type names.
func (c *Contract) addMethod(name string, argTypes []string, handler methodHandler) {
	if name == "" {
		panic("could not register cheatcode method: empty method name provided")
	}
	if handler == nil {
		panic("could not register cheatcode method: nil handler provided")
	}
	signature := fmt.Sprintf("%s(%s)", name, strings.Join(argTypes, ","))
	c.methods[ComputeSelector(signature)] = &method{
		signature: signature,
		handler:   handler,
	}
}

// ContractAddress returns the reserved address the cheatcode contract responds at.
func (c *Contract) ContractAddress() types.Address {
	return StandardContractAddress
}

// Intercept handles a call targeting the cheatcode contract address. Recognized selectors are executed
// out of band and returned as if they were normal call returns. Unrecognized selectors revert.
// Verdict-affecting errors raised by handlers are returned for the Executor to record; all other
// handler failures surface as a reverted result only.
func (c *Contract) Intercept(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
	methodInfo, exists := c.methods[msg.Selector]
	if !exists {
		return &types.CallResult{Reverted: true, RevertReason: fmt.Sprintf("unrecognized cheatcode selector %x", msg.Selector)}, nil
	}

	args, err := DecodeValues(msg.InputData)
	if err != nil {
		return &types.CallResult{Reverted: true, RevertReason: fmt.Sprintf("%s: %s", methodInfo.signature, err)}, nil
	}

	outputs, err := methodInfo.handler(c, host, args)
	if err != nil {
		if isVerdictError(err) {
			return nil, err
		}
		return &types.CallResult{Reverted: true, RevertReason: fmt.Sprintf("%s: %s", methodInfo.signature, err)}, nil
	}

	returnData, err := EncodeValues(outputs...)
	if err != nil {
		return &types.CallResult{Reverted: true, RevertReason: fmt.Sprintf("%s: %s", methodInfo.signature, err)}, nil
	}
	return &types.CallResult{ReturnData: returnData}, nil
}

// AfterCall enforces armed one-shot expectations against a completed non-cheatcode call. Expectations
// are consumed by the first call they observe, regardless of that call's outcome.
func (c *Contract) AfterCall(msg *types.CallMessage, result *types.CallResult) (*types.CallResult, error) {
	if c.expectRevert {
		c.expectRevert = false
		if !result.Reverted {
			return nil, &ExpectationFailedError{Message: "expectRevert: next call returned normally, expected it to fail"}
		}
		// The expected revert is absorbed so the test continues as if the call returned normally.
		result = &types.CallResult{}
	}

	if c.expectEmit != nil {
		expectation := c.expectEmit
		c.expectEmit = nil
		if !logsSatisfy(expectation, result.Logs) {
			return nil, &ExpectationFailedError{Message: "expectEmit: next call emitted no matching log record"}
		}
	}
	return result, nil
}

// logsSatisfy indicates whether any of the observed log records satisfies the armed expectation:
// the emitter, topic words and data payload must each match wherever the expectation constrains them.
func logsSatisfy(expectation *emitExpectation, logs []types.LogRecord) bool {
	for _, record := range logs {
		if expectation.emitter != nil && record.Emitter != *expectation.emitter {
			continue
		}
		if expectation.topics != nil && !slices.Equal(record.Topics, expectation.topics) {
			continue
		}
		if expectation.matchData && !bytes.Equal(record.Data, expectation.data) {
			continue
		}
		return true
	}
	return false
}

// Reset clears all armed expectations. The fuzzing driver resets the layer between iterations so no
// expectation leaks across inputs. An expectation still armed when an iteration ends is dropped rather
// than failed; only a call observed after arming can satisfy or violate it.
func (c *Contract) Reset() {
	c.expectRevert = false
	c.expectEmit = nil
}

// isVerdictError indicates whether an error carries test-verdict semantics the Executor must record.
func isVerdictError(err error) bool {
	switch err.(type) {
	case *DiscardedError, *AssertionFailedError, *ExpectationFailedError, *UsageError:
		return true
	default:
		return false
	}
}
