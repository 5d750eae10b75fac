package fuzzing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/cheats"
	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/config"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/results"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/valuegeneration"
	"github.com/dyadfuzz/dyadfuzz/logging"
	"github.com/dyadfuzz/dyadfuzz/utils"
	"github.com/dyadfuzz/dyadfuzz/vm"
)

// Fuzzer represents a property-based fuzzing session over the contracts of one compiled artifact,
// targeting both virtual machine back-ends through a uniform executor.
type Fuzzer struct {
	// ctx describes the context for the fuzzing session, used to cancel running operations.
	ctx context.Context

	// ctxCancelFunc describes a function which can be used to cancel the fuzzing operations ctx
	// tracks.
	ctxCancelFunc context.CancelFunc

	// config describes the project configuration the session is running with.
	config config.ProjectConfig

	// sessionID uniquely identifies this session in logs and events.
	sessionID uuid.UUID

	// logger describes the logger the session reports through.
	logger *logging.Logger

	// artifact describes the compiled contracts under test.
	artifact *compilationTypes.Artifact

	// deployer describes the account address used to deploy contracts.
	deployer types.Address

	// senders describes the set of account addresses funded at session start.
	senders []types.Address

	// suites contains one TestSuite per contract with discovered test cases, in artifact order.
	suites []*TestSuite

	// testCases contains every discovered TestCase, in discovery order.
	testCases []*TestCase

	// testCasesLock provides thread-synchronization when accessing or updating test cases.
	testCasesLock sync.Mutex

	// metrics represents the counters accumulated for the session.
	metrics *FuzzerMetrics

	// resultsStore describes the persistent failing-witness store, or nil when persistence is
	// disabled.
	resultsStore *results.Store

	// Events describes the event system for the Fuzzer.
	Events FuzzerEvents

	// Hooks describes the replaceable functions used by the Fuzzer.
	Hooks FuzzerHooks
}

// FuzzerHooks defines the replaceable functions a Fuzzer uses to construct its collaborators, so
// embedders and tests can substitute their own.
type FuzzerHooks struct {
	// NewValueGeneratorFunc describes the function used to create a value generator for a test
	// case's fuzz loop.
	NewValueGeneratorFunc func(seed int64) (valuegeneration.ValueGenerator, error)

	// NewBackendsFunc describes the function used to create the virtual machine back-ends for a
	// test case's executor.
	NewBackendsFunc func() ([]vm.Backend, error)

	// NewFileReaderFunc describes the function used to create the filesystem collaborator backing
	// the file-read cheatcodes.
	NewFileReaderFunc func(projectRoot string) (cheats.FileReader, error)
}

// NewFuzzer returns an instance of a new Fuzzer provided a project configuration, or an error if one
// is encountered while initializing it. Configuration problems (bad addresses, missing artifact)
// abort here, before any test runs.
func NewFuzzer(cfg config.ProjectConfig) (*Fuzzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Parse the deployer and sender addresses from the config.
	deployer, err := types.HexToAddress(cfg.Fuzzing.DeployerAddress)
	if err != nil {
		return nil, err
	}
	senders := make([]types.Address, 0, len(cfg.Fuzzing.SenderAddresses))
	for _, senderHex := range cfg.Fuzzing.SenderAddresses {
		sender, err := types.HexToAddress(senderHex)
		if err != nil {
			return nil, err
		}
		senders = append(senders, sender)
	}

	// Obtain the artifact: compile through the external compiler if configured, otherwise read the
	// prebuilt artifact file.
	var artifact *compilationTypes.Artifact
	if cfg.Compilation != nil {
		var compilerOutput string
		artifact, compilerOutput, err = cfg.Compilation.Compile(cfg.Fuzzing.ProjectRoot)
		if err != nil {
			return nil, errors.Wrapf(err, "compilation failed:\n%s", compilerOutput)
		}
	} else {
		artifact, err = compilationTypes.ReadArtifactFile(cfg.Fuzzing.ArtifactPath)
		if err != nil {
			return nil, err
		}
	}

	// Direct the global logger before deriving any sub-logger from it.
	logging.GlobalLogger.SetLevel(cfg.Logging.Level)
	if cfg.Logging.ConsoleEnabled {
		logging.GlobalLogger.EnableConsole()
	}
	if cfg.Logging.LogDirectory != "" {
		if err = os.MkdirAll(cfg.Logging.LogDirectory, 0o755); err != nil {
			return nil, errors.Wrap(err, "could not create the log directory")
		}
		logFile, err := os.Create(filepath.Join(cfg.Logging.LogDirectory, "dyadfuzz.log"))
		if err != nil {
			return nil, errors.Wrap(err, "could not create the session log file")
		}
		logging.GlobalLogger.AddWriter(logFile)
	}

	fuzzer := &Fuzzer{
		config:    cfg,
		sessionID: uuid.New(),
		logger:    logging.GlobalLogger.NewSubLogger("module", "fuzzer"),
		artifact:  artifact,
		deployer:  deployer,
		senders:   senders,
		metrics:   newFuzzerMetrics(),
		Hooks: FuzzerHooks{
			NewValueGeneratorFunc: defaultNewValueGenerator,
			NewBackendsFunc:       defaultNewBackends,
			NewFileReaderFunc:     defaultNewFileReader,
		},
	}

	// Open the persistent witness store if one is configured.
	if cfg.Fuzzing.ResultsPath != "" {
		fuzzer.resultsStore, err = results.OpenStore(cfg.Fuzzing.ResultsPath)
		if err != nil {
			return nil, err
		}
	}

	fuzzer.discoverTestCases()
	return fuzzer, nil
}

// defaultNewValueGenerator creates the uniform random value generator used unless a hook replaces it.
func defaultNewValueGenerator(seed int64) (valuegeneration.ValueGenerator, error) {
	return valuegeneration.NewRandomValueGenerator(seed), nil
}

// defaultNewBackends creates one back-end per virtual machine kind from the registered factories.
func defaultNewBackends() ([]vm.Backend, error) {
	backends := make([]vm.Backend, 0, 2)
	for _, kind := range []types.VMKind{types.VMKindBytecode, types.VMKindWasm} {
		backend, err := vm.NewRegisteredBackend(kind)
		if err != nil {
			return nil, err
		}
		backends = append(backends, backend)
	}
	return backends, nil
}

// defaultNewFileReader creates the project-root-confined file reader used unless a hook replaces it.
func defaultNewFileReader(projectRoot string) (cheats.FileReader, error) {
	return utils.NewProjectFileReader(projectRoot)
}

// discoverTestCases enumerates the artifact's contracts into test suites, registering a TestCase for
// every entry point whose name matches a configured test prefix and which declares no outputs.
// Non-matching entry points are never executed. Setup entry points are recognized by name and recorded
// on the contract's suite rather than fuzzed. Contracts without test cases produce no suite.
func (f *Fuzzer) discoverTestCases() {
	for i := range f.artifact.Contracts {
		contract := &f.artifact.Contracts[i]
		suite := &TestSuite{contract: contract}
		for j := range contract.EntryPoints {
			entryPoint := contract.EntryPoints[j]
			if entryPoint.Name == f.config.Fuzzing.SetupEntryPoint {
				suite.setupEntryPoint = &contract.EntryPoints[j]
				continue
			}
			if !f.nameMatchesTestPrefix(entryPoint.Name) {
				continue
			}
			if entryPoint.Outputs != 0 {
				continue
			}
			testCase := NewTestCase(contract.Name, entryPoint)
			suite.testCases = append(suite.testCases, testCase)
			f.RegisterTestCase(testCase)
		}
		if len(suite.testCases) > 0 {
			f.suites = append(f.suites, suite)
		}
	}
}

// nameMatchesTestPrefix indicates whether an entry point name carries one of the configured test
// prefixes.
func (f *Fuzzer) nameMatchesTestPrefix(name string) bool {
	for _, prefix := range f.config.Fuzzing.TestPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Config exposes the project configuration provided to the Fuzzer.
func (f *Fuzzer) Config() config.ProjectConfig {
	return f.config
}

// SessionID exposes the unique identifier of this session.
func (f *Fuzzer) SessionID() uuid.UUID {
	return f.sessionID
}

// Metrics exposes the counters accumulated for the session.
func (f *Fuzzer) Metrics() *FuzzerMetrics {
	return f.metrics
}

// TestSuites exposes the discovered test suites, one per contract with test cases, in artifact order.
func (f *Fuzzer) TestSuites() []*TestSuite {
	return slices.Clone(f.suites)
}

// TestCases exposes the discovered test cases, in discovery order.
func (f *Fuzzer) TestCases() []*TestCase {
	f.testCasesLock.Lock()
	defer f.testCasesLock.Unlock()
	return slices.Clone(f.testCases)
}

// TestCasesWithStatus exposes the discovered test cases with the provided status.
func (f *Fuzzer) TestCasesWithStatus(status TestCaseStatus) []*TestCase {
	f.testCasesLock.Lock()
	defer f.testCasesLock.Unlock()
	return utils.SliceWhere(f.testCases, func(t *TestCase) bool {
		return t.Status() == status
	})
}

// RegisterTestCase registers a new TestCase with the Fuzzer.
func (f *Fuzzer) RegisterTestCase(testCase *TestCase) {
	f.testCasesLock.Lock()
	defer f.testCasesLock.Unlock()
	f.testCases = append(f.testCases, testCase)
}

// RunAll executes the fuzz loop for every discovered test case, sequentially, and reports the final
// verdicts through the logger and event emitters.
// Returns an error if the session could not run; test failures are not errors.
func (f *Fuzzer) RunAll() error {
	return f.run(f.TestCases())
}

// RunOne executes the fuzz loop for the single named test case.
// Returns an error if no discovered test case matches the name.
func (f *Fuzzer) RunOne(name string) error {
	testCases := f.TestCases()
	for _, testCase := range testCases {
		if testCase.Name() == name || testCase.EntryPoint().Name == name {
			return f.run([]*TestCase{testCase})
		}
	}
	known := utils.SliceSelect(testCases, func(t *TestCase) string { return t.Name() })
	return errors.Errorf("no discovered test case matches '%s' (discovered: %s)", name, strings.Join(known, ", "))
}

// Stop cancels a running session. The current test case is aborted with a failed verdict and no
// further test cases run.
func (f *Fuzzer) Stop() {
	if f.ctxCancelFunc != nil {
		f.ctxCancelFunc()
	}
}

// run executes the provided test cases sequentially. Each test case owns an isolated ledger, so no
// state crosses test case boundaries except the immutable artifact.
func (f *Fuzzer) run(testCases []*TestCase) error {
	// Create our running context, deriving a timeout-bound one if the config requests it.
	if f.config.Fuzzing.Timeout > 0 {
		f.ctx, f.ctxCancelFunc = context.WithTimeout(context.Background(), time.Duration(f.config.Fuzzing.Timeout)*time.Second)
	} else {
		f.ctx, f.ctxCancelFunc = context.WithCancel(context.Background())
	}
	defer f.ctxCancelFunc()

	f.logger.Info(fmt.Sprintf("starting fuzzing session %s: %d test case(s), %d example(s) per test", f.sessionID, len(testCases), f.config.Fuzzing.MaxExamples))
	f.Events.FuzzerStarting.Publish(FuzzerStartingEvent{Fuzzer: f})

	for _, testCase := range testCases {
		suite := f.suiteForTestCase(testCase)
		if suite == nil {
			return errors.Errorf("no test suite owns test case '%s'", testCase.Name())
		}

		f.Events.TestCaseStarted.Publish(TestCaseStartedEvent{TestCase: testCase})
		worker, err := newFuzzerWorker(f, testCase, suite)
		if err != nil {
			return err
		}
		if err = worker.run(f.ctx); err != nil {
			return err
		}
		f.reportTestCaseFinished(testCase)
	}

	f.Events.FuzzerStopping.Publish(FuzzerStoppingEvent{Fuzzer: f})
	f.logger.Info(fmt.Sprintf(
		"session finished: %d passed, %d failed, %d iterations (%s/s, %d discarded)",
		len(f.TestCasesWithStatus(TestCaseStatusPassed)),
		len(f.TestCasesWithStatus(TestCaseStatusFailed)),
		f.metrics.Iterations(),
		f.metrics.IterationsPerSecond(),
		f.metrics.Discards(),
	))

	if f.resultsStore != nil {
		return f.resultsStore.Close()
	}
	return nil
}

// suiteForTestCase resolves the test suite a test case was discovered into.
func (f *Fuzzer) suiteForTestCase(testCase *TestCase) *TestSuite {
	for _, suite := range f.suites {
		if suite.ContractName() == testCase.contractName {
			return suite
		}
	}
	return nil
}

// reportTestCaseFinished logs a test case's final verdict, persists its witness if it failed, and
// publishes the finished event.
func (f *Fuzzer) reportTestCaseFinished(testCase *TestCase) {
	if testCase.Status() == TestCaseStatusFailed {
		f.logger.Error(fmt.Sprintf("[%s] %s", testCase.Status(), testCase.Message()), nil)
		if f.resultsStore != nil {
			record := &results.WitnessRecord{
				TestID:   testCase.ID(),
				Reason:   testCase.reason,
				UnixTime: time.Now().Unix(),
			}
			if testCase.witness != nil {
				record.Input = testCase.witness.String()
				if callData, err := testCase.witness.EncodeCallData(); err == nil {
					record.CallData = callData
				}
			}
			if err := f.resultsStore.SaveWitness(record); err != nil {
				f.logger.Warn("could not persist failing witness", err)
			}
		}
	} else {
		f.logger.Info(fmt.Sprintf("[%s] %s", testCase.Status(), testCase.Message()))
	}
	f.Events.TestCaseFinished.Publish(TestCaseFinishedEvent{TestCase: testCase})
}
