package config

import (
	"github.com/rs/zerolog"
)

// GetDefaultProjectConfig obtains a default project configuration. Callers typically read a config
// file over it, so absent fields fall back to these values.
func GetDefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Fuzzing: FuzzingConfig{
			MaxExamples:            100,
			DiscardRetryMultiplier: 16,
			TestPrefixes:           []string{"test_"},
			SetupEntryPoint:        "setUp",
			DeployerAddress:        "0x30000",
			SenderAddresses: []string{
				"0x10000",
				"0x20000",
				"0x30000",
			},
			ProjectRoot:           ".",
			ArtifactPath:          "artifact.bin",
			Timeout:               0,
			InitialBlockNumber:    1,
			InitialBlockTimestamp: 1,
		},
		Logging: LoggingConfig{
			Level:          zerolog.InfoLevel,
			ConsoleEnabled: true,
		},
	}
}
