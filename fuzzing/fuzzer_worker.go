package fuzzing

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/dyadfuzz/dyadfuzz/chain"
	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/cheats"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/valuegeneration"
	"github.com/dyadfuzz/dyadfuzz/vm"
)

// initialAccountBalance describes the balance every configured sender and the deployer account start
// each test case with: 2^200, large enough that value transfers never fail for lack of funds.
var initialAccountBalance = new(uint256.Int).Lsh(uint256.NewInt(1), 200)

// fuzzerWorker executes the fuzz loop for one test case over an isolated ledger. No state it mutates
// outlives the test case, so verdicts never depend on the order test cases run in.
type fuzzerWorker struct {
	// fuzzer describes the Fuzzer this worker executes for.
	fuzzer *Fuzzer

	// testCase describes the test case this worker is executing.
	testCase *TestCase

	// suite describes the test suite the test case belongs to, owning the contract under test and its
	// optional setup entry point.
	suite *TestSuite

	// executor describes the uniform execution surface over the worker's ledger.
	executor *vm.Executor

	// executionContext describes the ambient execution context cheatcodes override.
	executionContext *chain.ExecutionContext

	// cheatContract describes the cheatcode interposition layer scoped to this worker.
	cheatContract *cheats.Contract

	// generator describes the value generator driving input generation.
	generator valuegeneration.ValueGenerator

	// deployedContract describes the contract under test as deployed onto the worker's ledger.
	deployedContract *types.DeployedContract
}

// newFuzzerWorker creates a worker for one test case: a fresh ledger with funded accounts, a fresh
// execution context at the configured initial block, the cheatcode layer, and an executor with every
// virtual machine back-end registered.
func newFuzzerWorker(fuzzer *Fuzzer, testCase *TestCase, suite *TestSuite) (*fuzzerWorker, error) {
	cfg := fuzzer.config.Fuzzing

	// Fund each session account once; the deployer may also appear in the sender set.
	ledger := chain.NewLedger()
	ledger.SetBalance(fuzzer.deployer, new(uint256.Int).Set(initialAccountBalance))
	for _, sender := range fuzzer.senders {
		if ledger.AccountExists(sender) {
			continue
		}
		ledger.SetBalance(sender, new(uint256.Int).Set(initialAccountBalance))
	}

	executionContext := chain.NewExecutionContext(fuzzer.deployer, chain.BlockContext{
		Number:    cfg.InitialBlockNumber,
		Timestamp: cfg.InitialBlockTimestamp,
	})

	files, err := fuzzer.Hooks.NewFileReaderFunc(cfg.ProjectRoot)
	if err != nil {
		return nil, err
	}
	cheatContract := cheats.NewContract(ledger, executionContext, files)

	executor := vm.NewExecutor(ledger, executionContext, cheatContract)
	backends, err := fuzzer.Hooks.NewBackendsFunc()
	if err != nil {
		return nil, err
	}
	for _, backend := range backends {
		if err = executor.RegisterBackend(backend); err != nil {
			return nil, err
		}
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	generator, err := fuzzer.Hooks.NewValueGeneratorFunc(seed)
	if err != nil {
		return nil, err
	}

	return &fuzzerWorker{
		fuzzer:           fuzzer,
		testCase:         testCase,
		suite:            suite,
		executor:         executor,
		executionContext: executionContext,
		cheatContract:    cheatContract,
		generator:        generator,
	}, nil
}

// run executes the worker's test case to a verdict: deployment, optional setup, then the fuzz loop.
// Returns an error only for session-level faults (executor misconfiguration, unexecutable artifact);
// test failures are recorded on the test case, not returned.
func (w *fuzzerWorker) run(ctx context.Context) error {
	w.testCase.status = TestCaseStatusRunning

	// Deploy the contract under test from the deployer account.
	addr, result, err := w.executor.Deploy(w.suite.Contract().CodeObject(), nil, nil)
	if err != nil {
		return errors.Wrapf(err, "could not deploy contract '%s'", w.suite.ContractName())
	}
	if result.Failed() {
		w.fail(fmt.Sprintf("deployment of contract '%s' reverted: %s", w.suite.ContractName(), result.RevertReason), nil)
		return nil
	}
	// The installed runtime code carries the kind calls will actually execute under, which differs
	// from the artifact's kind when the code was cross-deployed through the bridge.
	runtimeCode := w.executor.Ledger().GetCode(addr)
	w.deployedContract = &types.DeployedContract{Address: addr, Kind: runtimeCode.Kind, Code: runtimeCode}

	// Run the suite's setup entry point once, if the contract declares one. Setup runs from the
	// deployer and its failure is a test failure with no witness: no input was involved.
	if setup := w.suite.SetupEntryPoint(); setup != nil {
		result, err = w.executor.Call(w.deployedContract.Address, setup.Selector(), nil, w.fuzzer.deployer, nil)
		if err != nil {
			return errors.Wrapf(err, "could not execute setup entry point '%s'", setup.Name)
		}
		if verdictErr := w.executor.TakeVerdictError(); verdictErr != nil {
			w.fail(fmt.Sprintf("setup entry point '%s' failed: %s", setup.Name, verdictErr), nil)
			return nil
		}
		if result.Failed() {
			w.fail(fmt.Sprintf("setup entry point '%s' reverted: %s", setup.Name, result.RevertReason), nil)
			return nil
		}
	}

	// Expectations or sender overrides armed during setup do not leak into the fuzz loop, and every
	// iteration starts from the post-setup ledger.
	w.cheatContract.Reset()
	w.executionContext.Reset()
	snapshotID := w.executor.Snapshot()

	// A witness persisted by a previous session reproduces a known failure faster than random search,
	// so it is replayed before any new inputs are drawn.
	replayFailed, err := w.replayStoredWitness(snapshotID)
	if err != nil {
		return err
	}
	if replayFailed {
		return nil
	}

	return w.fuzzLoop(ctx, snapshotID)
}

// replayStoredWitness replays the failing input persisted for this test case in a previous session, if
// one exists. Returns true if the replay failed the test again; a witness that no longer fails is
// ignored and the fuzz loop proceeds normally.
func (w *fuzzerWorker) replayStoredWitness(snapshotID int) (bool, error) {
	if w.fuzzer.resultsStore == nil {
		return false, nil
	}
	record, err := w.fuzzer.resultsStore.LoadWitness(w.testCase.ID())
	if err != nil {
		return false, errors.Wrapf(err, "could not load the stored witness for test '%s'", w.testCase.Name())
	}
	if record == nil {
		return false, nil
	}
	values, err := cheats.DecodeValues(record.CallData)
	if err != nil {
		return false, errors.Wrapf(err, "could not decode the stored witness for test '%s'", w.testCase.Name())
	}
	entryPoint := w.testCase.entryPoint
	if len(values) != len(entryPoint.Inputs) {
		// The entry point's signature changed since the witness was stored.
		return false, nil
	}
	input := &FuzzInput{Parameters: entryPoint.Inputs, Values: values}

	result, err := w.executor.Call(w.deployedContract.Address, entryPoint.Selector(), record.CallData, w.fuzzer.senders[0], nil)
	if err != nil {
		return false, errors.Wrapf(err, "could not replay the stored witness for test '%s'", w.testCase.Name())
	}
	verdictErr := w.executor.TakeVerdictError()
	var discarded *cheats.DiscardedError
	if errors.As(verdictErr, &discarded) {
		verdictErr = nil
	}
	if verdictErr == nil && !result.Failed() {
		// The stored input no longer fails; the fuzz loop's first iteration rolls the replay back.
		return false, nil
	}

	if err = w.executor.Rollback(snapshotID); err != nil {
		return false, err
	}
	w.cheatContract.Reset()
	w.executionContext.Reset()
	if verdictErr != nil {
		w.fail(verdictErr.Error(), input)
	} else {
		w.fail(fmt.Sprintf("call reverted: %s", result.RevertReason), input)
	}
	return true, nil
}

// fuzzLoop executes fuzz iterations against the post-setup snapshot until the iteration target is met,
// a failing input is found, the discard ceiling is hit, or the session context ends.
func (w *fuzzerWorker) fuzzLoop(ctx context.Context, snapshotID int) error {
	cfg := w.fuzzer.config.Fuzzing
	entryPoint := w.testCase.entryPoint

	// A test without parameters has exactly one distinct input.
	targetIterations := cfg.MaxExamples
	if len(entryPoint.Inputs) == 0 {
		targetIterations = 1
	}
	maxAttempts := cfg.MaxExamples * cfg.DiscardRetryMultiplier

	for attempt := 0; attempt < maxAttempts && w.testCase.iterations < targetIterations; attempt++ {
		select {
		case <-ctx.Done():
			w.fail(fmt.Sprintf("test did not finish before the session ended after %d iterations: %s", w.testCase.iterations, ctx.Err()), nil)
			return nil
		default:
		}

		// Every iteration starts from the post-setup ledger with no residual cheatcode state.
		if err := w.executor.Rollback(snapshotID); err != nil {
			return err
		}
		w.cheatContract.Reset()
		w.executionContext.Reset()

		input, err := GenerateFuzzInput(w.generator, entryPoint.Inputs)
		if err != nil {
			return errors.Wrapf(err, "could not generate an input for test '%s'", w.testCase.Name())
		}
		callData, err := input.EncodeCallData()
		if err != nil {
			return errors.Wrapf(err, "could not encode an input for test '%s'", w.testCase.Name())
		}

		sender := w.fuzzer.senders[attempt%len(w.fuzzer.senders)]
		result, err := w.executor.Call(w.deployedContract.Address, entryPoint.Selector(), callData, sender, nil)
		if err != nil {
			return errors.Wrapf(err, "could not execute test '%s'", w.testCase.Name())
		}

		// Verdict errors raised anywhere in the call tree take precedence over the call's own
		// outcome: a contract swallowing the revert of a failed assertion must not mask the failure.
		verdictErr := w.executor.TakeVerdictError()
		var discarded *cheats.DiscardedError
		if errors.As(verdictErr, &discarded) {
			w.testCase.discards++
			w.fuzzer.metrics.discards++
			continue
		}
		if verdictErr != nil {
			w.fail(verdictErr.Error(), input)
			return nil
		}
		if result.Failed() {
			w.fail(fmt.Sprintf("call reverted: %s", result.RevertReason), input)
			return nil
		}

		w.testCase.iterations++
		w.fuzzer.metrics.iterations++
	}

	// Exhausting the attempt budget without a failure passes the test: assume() narrowed the input
	// space, it did not falsify the property. The discard count in the report makes this visible.
	w.testCase.status = TestCaseStatusPassed
	return nil
}

// fail records a failed verdict with an optional failing witness on the worker's test case.
func (w *fuzzerWorker) fail(reason string, witness *FuzzInput) {
	w.testCase.status = TestCaseStatusFailed
	w.testCase.reason = reason
	w.testCase.witness = witness
}
