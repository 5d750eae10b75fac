package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyadfuzz/dyadfuzz/fuzzing/config"
)

// addFuzzFlags adds the various flags for the fuzz command.
func addFuzzFlags() error {
	// Get the default project config to use for flag defaults in help text.
	defaultConfig := config.GetDefaultProjectConfig()

	// Config file
	fuzzCmd.Flags().String("config", "", "path to config file")

	// Single test selection
	fuzzCmd.Flags().String("test", "", "run only the named test entry point (qualified or bare name)")

	// Example budget
	fuzzCmd.Flags().Int("max-examples", 0,
		fmt.Sprintf("number of generated inputs per test (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.MaxExamples))

	// Timeout
	fuzzCmd.Flags().Int("timeout", 0,
		fmt.Sprintf("number of seconds to run the session before timing out (unless a config file is provided, default is %d)", defaultConfig.Fuzzing.Timeout))

	// Seed
	fuzzCmd.Flags().Int64("seed", 0, "fixed seed for input generation (0 seeds from the clock)")

	// Artifact path
	fuzzCmd.Flags().String("artifact-path", "",
		fmt.Sprintf("path of the compiled artifact file to fuzz (unless a config file is provided, default is %q)", defaultConfig.Fuzzing.ArtifactPath))

	// Results path
	fuzzCmd.Flags().String("results-path", "", "path of the database failing witnesses are persisted to")

	return nil
}

// updateProjectConfigWithFuzzFlags will update the given projectConfig with any CLI arguments that
// were provided to the fuzz command.
func updateProjectConfigWithFuzzFlags(cmd *cobra.Command, projectConfig *config.ProjectConfig) error {
	var err error

	// Update the number of examples per test.
	if cmd.Flags().Changed("max-examples") {
		projectConfig.Fuzzing.MaxExamples, err = cmd.Flags().GetInt("max-examples")
		if err != nil {
			return err
		}
	}

	// Update the session timeout.
	if cmd.Flags().Changed("timeout") {
		projectConfig.Fuzzing.Timeout, err = cmd.Flags().GetInt("timeout")
		if err != nil {
			return err
		}
	}

	// Update the generation seed.
	if cmd.Flags().Changed("seed") {
		projectConfig.Fuzzing.RandomSeed, err = cmd.Flags().GetInt64("seed")
		if err != nil {
			return err
		}
	}

	// Update the artifact path.
	if cmd.Flags().Changed("artifact-path") {
		projectConfig.Fuzzing.ArtifactPath, err = cmd.Flags().GetString("artifact-path")
		if err != nil {
			return err
		}
	}

	// Update the results path.
	if cmd.Flags().Changed("results-path") {
		projectConfig.Fuzzing.ResultsPath, err = cmd.Flags().GetString("results-path")
		if err != nil {
			return err
		}
	}

	return nil
}
