package fuzzing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/dyadfuzz/dyadfuzz/chain/types"
	"github.com/dyadfuzz/dyadfuzz/cheats"
	compilationTypes "github.com/dyadfuzz/dyadfuzz/compilation/types"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/config"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/results"
	"github.com/dyadfuzz/dyadfuzz/vm"
)

// scriptedCall describes the behavior of one scripted contract entry point.
type scriptedCall func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error)

// scriptedBackend implements vm.Backend for the bytecode kind, dispatching calls to per-selector
// scripts so tests can stand in for compiled contracts.
type scriptedBackend struct {
	scripts map[types.Selector]scriptedCall
}

func (b *scriptedBackend) Kind() types.VMKind {
	return types.VMKindBytecode
}

func (b *scriptedBackend) Deploy(host vm.Host, code *types.CodeObject, value *uint256.Int) (*types.CodeObject, error) {
	return &types.CodeObject{Kind: types.VMKindBytecode, Data: code.Data}, nil
}

func (b *scriptedBackend) Call(host vm.Host, code *types.CodeObject, msg *types.CallMessage) (*types.CallResult, error) {
	if script, ok := b.scripts[msg.Selector]; ok {
		return script(host, msg)
	}
	return &types.CallResult{}, nil
}

// selectorFor derives the selector the fuzzer will dispatch for a named entry point.
func selectorFor(name string) types.Selector {
	return cheats.ComputeSelector(name)
}

// newTestFuzzer builds a Fuzzer over an in-memory artifact backed by scripted contract behavior.
func newTestFuzzer(t *testing.T, contracts []compilationTypes.ContractArtifact, scripts map[types.Selector]scriptedCall, mutate func(cfg *config.ProjectConfig)) *Fuzzer {
	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "artifact.bin")
	artifact := &compilationTypes.Artifact{FormatVersion: compilationTypes.ArtifactFormatVersion, Contracts: contracts}
	assert.NoError(t, artifact.WriteToFile(artifactPath))

	cfg := config.GetDefaultProjectConfig()
	cfg.Fuzzing.ProjectRoot = dir
	cfg.Fuzzing.ArtifactPath = artifactPath
	cfg.Fuzzing.MaxExamples = 10
	cfg.Fuzzing.RandomSeed = 1
	cfg.Logging = config.LoggingConfig{Level: zerolog.Disabled}
	if mutate != nil {
		mutate(cfg)
	}

	fuzzer, err := NewFuzzer(*cfg)
	assert.NoError(t, err)
	fuzzer.Hooks.NewBackendsFunc = func() ([]vm.Backend, error) {
		return []vm.Backend{&scriptedBackend{scripts: scripts}}, nil
	}
	return fuzzer
}

// testContract builds a bytecode contract artifact with the given entry points.
func testContract(name string, entryPoints ...compilationTypes.EntryPoint) compilationTypes.ContractArtifact {
	return compilationTypes.ContractArtifact{
		Name:        name,
		Kind:        types.VMKindBytecode,
		Code:        []byte{0x01},
		EntryPoints: entryPoints,
	}
}

// TestDiscoveryFiltersEntryPoints verifies only prefixed, output-free, non-setup entry points become
// test cases.
func TestDiscoveryFiltersEntryPoints(t *testing.T) {
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "test_withdraw"},
		compilationTypes.EntryPoint{Name: "test_total", Outputs: 1},
		compilationTypes.EntryPoint{Name: "helper"},
		compilationTypes.EntryPoint{Name: "setUp"},
	)}
	fuzzer := newTestFuzzer(t, contracts, nil, nil)

	testCases := fuzzer.TestCases()
	assert.Len(t, testCases, 1)
	assert.Equal(t, "Vault.test_withdraw", testCases[0].Name())
	assert.Equal(t, TestCaseStatusNotStarted, testCases[0].Status())
}

// TestSuitesGroupByContract verifies discovery groups test cases into one suite per contract, each
// owning its contract and optional setup entry point.
func TestSuitesGroupByContract(t *testing.T) {
	contracts := []compilationTypes.ContractArtifact{
		testContract("Vault",
			compilationTypes.EntryPoint{Name: "setUp"},
			compilationTypes.EntryPoint{Name: "test_a"},
			compilationTypes.EntryPoint{Name: "test_b"},
		),
		testContract("Token", compilationTypes.EntryPoint{Name: "test_c"}),
		testContract("Helper", compilationTypes.EntryPoint{Name: "helper"}),
	}
	fuzzer := newTestFuzzer(t, contracts, nil, nil)

	suites := fuzzer.TestSuites()
	assert.Len(t, suites, 2)
	assert.Equal(t, "Vault", suites[0].ContractName())
	assert.NotNil(t, suites[0].SetupEntryPoint())
	assert.Len(t, suites[0].TestCases(), 2)
	assert.Equal(t, "Token", suites[1].ContractName())
	assert.Nil(t, suites[1].SetupEntryPoint())
	assert.Len(t, suites[1].TestCases(), 1)

	// The flattened view preserves discovery order across suites.
	assert.Len(t, fuzzer.TestCases(), 3)
}

// TestPassingTest verifies a test whose every iteration returns normally passes after the full example
// budget.
func TestPassingTest(t *testing.T) {
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "test_ok", Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamUint, Bits: 64}}},
	)}
	fuzzer := newTestFuzzer(t, contracts, nil, nil)

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusPassed, testCase.Status())
	assert.Equal(t, 10, testCase.Iterations())
	assert.Zero(t, testCase.Discards())
	assert.EqualValues(t, 10, fuzzer.Metrics().Iterations())
}

// TestZeroParameterTestRunsOnce verifies a parameterless test executes exactly one iteration: it has
// only one distinct input.
func TestZeroParameterTestRunsOnce(t *testing.T) {
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "test_constant"},
	)}
	fuzzer := newTestFuzzer(t, contracts, nil, nil)

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusPassed, testCase.Status())
	assert.Equal(t, 1, testCase.Iterations())
}

// TestFailingAssertionRetainsWitness verifies an assertion failure inside the call tree fails the test
// and retains the triggering input, even though the test body swallows the cheatcode's revert.
func TestFailingAssertionRetainsWitness(t *testing.T) {
	entry := compilationTypes.EntryPoint{
		Name:   "test_bounded",
		Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamUint, Bits: 256}},
	}
	scripts := map[types.Selector]scriptedCall{
		selectorFor("test_bounded"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			values, err := cheats.DecodeValues(msg.InputData)
			if err != nil {
				return nil, err
			}
			x := types.BytesToWord(values[0].([]byte)).Uint256()

			// The property under test: x stays below a tiny bound. Fuzzing falsifies it almost
			// immediately; the assertion failure must survive the ignored cheatcode result.
			input, err := cheats.EncodeValues(x.Lt(uint256.NewInt(16)))
			if err != nil {
				return nil, err
			}
			_, _ = host.Call(cheats.StandardContractAddress, selectorFor("assertTrue(bool)"), input, nil)
			return &types.CallResult{}, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{testContract("Vault", entry)}
	fuzzer := newTestFuzzer(t, contracts, scripts, nil)

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusFailed, testCase.Status())
	assert.NotNil(t, testCase.Witness())
	assert.Contains(t, testCase.Message(), "assertion failed")
	assert.Contains(t, testCase.Message(), "Failing input")
}

// TestRevertingTestFails verifies an unexpected revert is a failing verdict with a witness.
func TestRevertingTestFails(t *testing.T) {
	entry := compilationTypes.EntryPoint{
		Name:   "test_reverts",
		Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamBool}},
	}
	scripts := map[types.Selector]scriptedCall{
		selectorFor("test_reverts"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			return &types.CallResult{Reverted: true, RevertReason: "boom"}, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{testContract("Vault", entry)}
	fuzzer := newTestFuzzer(t, contracts, scripts, nil)

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusFailed, testCase.Status())
	assert.NotNil(t, testCase.Witness())
	assert.Contains(t, testCase.Message(), "boom")
	assert.Equal(t, 0, testCase.Iterations())
}

// TestDiscardCeiling verifies a test whose every input is discarded terminates at the attempt budget
// and passes with its discards reported.
func TestDiscardCeiling(t *testing.T) {
	entry := compilationTypes.EntryPoint{
		Name:   "test_picky",
		Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamUint, Bits: 8}},
	}
	scripts := map[types.Selector]scriptedCall{
		selectorFor("test_picky"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			input, err := cheats.EncodeValues(false)
			if err != nil {
				return nil, err
			}
			result, err := host.Call(cheats.StandardContractAddress, selectorFor("assume(bool)"), input, nil)
			if err != nil {
				return nil, err
			}
			return result, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{testContract("Vault", entry)}
	fuzzer := newTestFuzzer(t, contracts, scripts, func(cfg *config.ProjectConfig) {
		cfg.Fuzzing.MaxExamples = 2
		cfg.Fuzzing.DiscardRetryMultiplier = 3
	})

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusPassed, testCase.Status())
	assert.Equal(t, 0, testCase.Iterations())
	assert.Equal(t, 6, testCase.Discards())
}

// TestFailingSetup verifies a reverting setup entry point fails the test without running the fuzz loop
// and retains no witness.
func TestFailingSetup(t *testing.T) {
	scripts := map[types.Selector]scriptedCall{
		selectorFor("setUp"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			return &types.CallResult{Reverted: true, RevertReason: "setup exploded"}, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "setUp"},
		compilationTypes.EntryPoint{Name: "test_anything"},
	)}
	fuzzer := newTestFuzzer(t, contracts, scripts, nil)

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusFailed, testCase.Status())
	assert.Nil(t, testCase.Witness())
	assert.Contains(t, testCase.Message(), "setup exploded")
	assert.Equal(t, 0, testCase.Iterations())
}

// TestSetupStateVisibleToIterations verifies ledger state written during setup is the base every
// iteration starts from.
func TestSetupStateVisibleToIterations(t *testing.T) {
	slot := types.Uint64ToWord(1)
	scripts := map[types.Selector]scriptedCall{
		selectorFor("setUp"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			host.WriteStorage(slot, types.Uint64ToWord(7))
			return &types.CallResult{}, nil
		},
		selectorFor("test_reads_setup"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			if host.ReadStorage(slot) != types.Uint64ToWord(7) {
				return &types.CallResult{Reverted: true, RevertReason: "setup state missing"}, nil
			}
			// Dirty the slot; the next iteration must still observe the post-setup value.
			host.WriteStorage(slot, types.Uint64ToWord(99))
			return &types.CallResult{}, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "setUp"},
		compilationTypes.EntryPoint{Name: "test_reads_setup", Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamBool}}},
	)}
	fuzzer := newTestFuzzer(t, contracts, scripts, nil)

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusPassed, testCase.Status())
	assert.Equal(t, 10, testCase.Iterations())
}

// TestRunOneSelectsByName verifies single-test runs accept both qualified and bare entry point names
// and reject unknown ones.
func TestRunOneSelectsByName(t *testing.T) {
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "test_a"},
		compilationTypes.EntryPoint{Name: "test_b"},
	)}
	fuzzer := newTestFuzzer(t, contracts, nil, nil)

	assert.NoError(t, fuzzer.RunOne("Vault.test_a"))
	assert.Equal(t, TestCaseStatusPassed, fuzzer.TestCases()[0].Status())
	assert.Equal(t, TestCaseStatusNotStarted, fuzzer.TestCases()[1].Status())

	// An unknown name errors and the message lists what was discovered.
	err := fuzzer.RunOne("Vault.test_missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "Vault.test_a")
	assert.Contains(t, err.Error(), "Vault.test_b")
}

// TestLogDirectoryWritesSessionLog verifies a configured log directory receives a structured session
// log file.
func TestLogDirectoryWritesSessionLog(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "test_logged"},
	)}
	fuzzer := newTestFuzzer(t, contracts, nil, func(cfg *config.ProjectConfig) {
		cfg.Logging.Level = zerolog.InfoLevel
		cfg.Logging.LogDirectory = logDir
	})

	assert.NoError(t, fuzzer.RunAll())
	contents, err := os.ReadFile(filepath.Join(logDir, "dyadfuzz.log"))
	assert.NoError(t, err)
	assert.Contains(t, string(contents), "fuzzing session")
}

// TestWitnessPersistence verifies a failing witness is written to the results store under the test
// case's ID.
func TestWitnessPersistence(t *testing.T) {
	resultsPath := filepath.Join(t.TempDir(), "results.db")
	entry := compilationTypes.EntryPoint{
		Name:   "test_fails",
		Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamUint, Bits: 32}},
	}
	scripts := map[types.Selector]scriptedCall{
		selectorFor("test_fails"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			return &types.CallResult{Reverted: true, RevertReason: "always"}, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{testContract("Vault", entry)}
	fuzzer := newTestFuzzer(t, contracts, scripts, func(cfg *config.ProjectConfig) {
		cfg.Fuzzing.ResultsPath = resultsPath
	})

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusFailed, testCase.Status())

	store, err := results.OpenStore(resultsPath)
	assert.NoError(t, err)
	defer store.Close()
	record, err := store.LoadWitness(testCase.ID())
	assert.NoError(t, err)
	assert.NotNil(t, record)
	assert.Contains(t, record.Reason, "always")
	assert.NotEmpty(t, record.CallData)
}

// TestStoredWitnessReplayed verifies a witness persisted by an earlier session is replayed before
// random search, reproducing a failure random inputs would practically never rediscover.
func TestStoredWitnessReplayed(t *testing.T) {
	resultsPath := filepath.Join(t.TempDir(), "results.db")
	needle := types.Uint64ToWord(0xDEADBEEF)
	entry := compilationTypes.EntryPoint{
		Name:   "test_needle",
		Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamUint, Bits: 256}},
	}
	scripts := map[types.Selector]scriptedCall{
		selectorFor("test_needle"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			values, err := cheats.DecodeValues(msg.InputData)
			if err != nil {
				return nil, err
			}
			if types.BytesToWord(values[0].([]byte)) == needle {
				return &types.CallResult{Reverted: true, RevertReason: "needle found"}, nil
			}
			return &types.CallResult{}, nil
		},
	}

	// Persist the failing input the way a previous session would have.
	callData, err := cheats.EncodeValues(needle)
	assert.NoError(t, err)
	store, err := results.OpenStore(resultsPath)
	assert.NoError(t, err)
	assert.NoError(t, store.SaveWitness(&results.WitnessRecord{
		TestID:   "TEST-Vault-test-needle",
		Reason:   "needle found",
		CallData: callData,
	}))
	assert.NoError(t, store.Close())

	contracts := []compilationTypes.ContractArtifact{testContract("Vault", entry)}
	fuzzer := newTestFuzzer(t, contracts, scripts, func(cfg *config.ProjectConfig) {
		cfg.Fuzzing.ResultsPath = resultsPath
	})

	assert.NoError(t, fuzzer.RunAll())
	testCase := fuzzer.TestCases()[0]
	assert.Equal(t, TestCaseStatusFailed, testCase.Status())
	assert.Contains(t, testCase.Message(), "needle found")
	assert.NotNil(t, testCase.Witness())
	assert.Equal(t, 0, testCase.Iterations())
}

// TestStopAbortsSession verifies cancellation fails the running test case and skips the rest.
func TestStopAbortsSession(t *testing.T) {
	contracts := []compilationTypes.ContractArtifact{testContract("Vault",
		compilationTypes.EntryPoint{Name: "test_a", Inputs: []compilationTypes.ParamType{{Kind: compilationTypes.ParamBool}}},
	)}
	fuzzer := newTestFuzzer(t, contracts, nil, nil)
	fuzzer.Events.TestCaseStarted.Subscribe(func(event TestCaseStartedEvent) {
		fuzzer.Stop()
	})

	assert.NoError(t, fuzzer.RunAll())
	assert.Equal(t, TestCaseStatusFailed, fuzzer.TestCases()[0].Status())
	assert.Nil(t, fuzzer.TestCases()[0].Witness())
}

// TestMultipleContractsIsolated verifies test cases on different contracts run on independent ledgers:
// a failure in one contract's test never contaminates another's.
func TestMultipleContractsIsolated(t *testing.T) {
	scripts := map[types.Selector]scriptedCall{
		selectorFor("test_bad"): func(host vm.Host, msg *types.CallMessage) (*types.CallResult, error) {
			return &types.CallResult{Reverted: true, RevertReason: "broken"}, nil
		},
	}
	contracts := []compilationTypes.ContractArtifact{
		testContract("Broken", compilationTypes.EntryPoint{Name: "test_bad"}),
		testContract("Fine", compilationTypes.EntryPoint{Name: "test_good"}),
	}
	fuzzer := newTestFuzzer(t, contracts, scripts, nil)

	assert.NoError(t, fuzzer.RunAll())
	assert.Equal(t, TestCaseStatusFailed, fuzzer.TestCases()[0].Status())
	assert.Equal(t, TestCaseStatusPassed, fuzzer.TestCases()[1].Status())
}
