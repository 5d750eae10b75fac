package config

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dyadfuzz/dyadfuzz/compilation"
)

// ProjectConfig describes the configuration of one fuzzing project.
type ProjectConfig struct {
	// Fuzzing describes the configuration used in fuzzing sessions.
	Fuzzing FuzzingConfig `json:"fuzzing"`

	// Compilation describes the configuration used to build the project's artifact, or nil when the
	// project is always run against a prebuilt artifact.
	Compilation *compilation.Config `json:"compilation,omitempty"`

	// Logging describes the configuration used for logging.
	Logging LoggingConfig `json:"logging"`
}

// FuzzingConfig describes the configuration options used by the fuzzing.Fuzzer.
type FuzzingConfig struct {
	// MaxExamples describes the number of generated inputs each test entry point is executed with
	// before it is considered passed.
	MaxExamples int `json:"maxExamples"`

	// DiscardRetryMultiplier bounds input regeneration when inputs are discarded by assume(): a test
	// terminates after MaxExamples * DiscardRetryMultiplier total generation attempts.
	DiscardRetryMultiplier int `json:"discardRetryMultiplier"`

	// TestPrefixes describes the entry point name prefixes identifying test entry points.
	TestPrefixes []string `json:"testPrefixes"`

	// SetupEntryPoint describes the name of the optional per-contract setup entry point, invoked
	// once before a test's fuzz loop and never fuzzed itself.
	SetupEntryPoint string `json:"setupEntryPoint"`

	// DeployerAddress describes the account address used to deploy contracts.
	DeployerAddress string `json:"deployerAddress"`

	// SenderAddresses describes the set of account addresses funded at session start and used as
	// call senders.
	SenderAddresses []string `json:"senderAddresses"`

	// ProjectRoot describes the directory file-read cheatcodes resolve paths against.
	ProjectRoot string `json:"projectRoot"`

	// ArtifactPath describes the path of the prebuilt artifact file to fuzz.
	ArtifactPath string `json:"artifactPath"`

	// ResultsPath describes the path of the persistent failing-witness store. Empty disables
	// persistence.
	ResultsPath string `json:"resultsPath,omitempty"`

	// Timeout describes a time in seconds after which the session's remaining work is aborted.
	// Providing a zero or negative value results in no timeout.
	Timeout int `json:"timeout"`

	// InitialBlockNumber describes the block number sessions start at.
	InitialBlockNumber uint64 `json:"initialBlockNumber"`

	// InitialBlockTimestamp describes the block timestamp sessions start at.
	InitialBlockTimestamp uint64 `json:"initialBlockTimestamp"`

	// RandomSeed describes an optional fixed seed for input generation. A zero value seeds from the
	// current time.
	RandomSeed int64 `json:"randomSeed,omitempty"`
}

// LoggingConfig describes the configuration used for logging.
type LoggingConfig struct {
	// Level describes the log level events must meet to be emitted.
	Level zerolog.Level `json:"level"`

	// ConsoleEnabled describes whether human-readable console logging is enabled.
	ConsoleEnabled bool `json:"consoleEnabled"`

	// LogDirectory describes a directory a structured session log file is written to, or empty to
	// disable file logging.
	LogDirectory string `json:"logDirectory"`
}

// Validate examines the project configuration to determine if it is valid and usable.
// Returns an error if a configuration issue is identified.
func (p *ProjectConfig) Validate() error {
	if p.Fuzzing.MaxExamples <= 0 {
		return errors.New("project config must specify a positive number of max examples")
	}
	if p.Fuzzing.DiscardRetryMultiplier <= 0 {
		return errors.New("project config must specify a positive discard retry multiplier")
	}
	if len(p.Fuzzing.TestPrefixes) == 0 {
		return errors.New("project config must specify at least one test entry point prefix")
	}
	if p.Fuzzing.DeployerAddress == "" {
		return errors.New("project config must specify a deployer address")
	}
	if len(p.Fuzzing.SenderAddresses) == 0 {
		return errors.New("project config must specify at least one sender address")
	}
	if p.Compilation != nil {
		if err := p.Compilation.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ReadProjectConfigFromFile reads a JSON project configuration from the given path and validates it.
func ReadProjectConfigFromFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read project config file '%s'", path)
	}

	projectConfig := GetDefaultProjectConfig()
	if err = json.Unmarshal(data, projectConfig); err != nil {
		return nil, errors.Wrapf(err, "could not parse project config file '%s'", path)
	}
	if err = projectConfig.Validate(); err != nil {
		return nil, err
	}
	return projectConfig, nil
}

// WriteToFile writes the project configuration as indented JSON to the given path.
func (p *ProjectConfig) WriteToFile(path string) error {
	data, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return errors.Wrap(err, "could not encode project config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "could not write project config file '%s'", path)
}
