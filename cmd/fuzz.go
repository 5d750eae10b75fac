package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dyadfuzz/dyadfuzz/cmd/exitcodes"
	"github.com/dyadfuzz/dyadfuzz/fuzzing"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/config"
)

// DefaultProjectConfigFilename describes the default config filename looked up in the project
// directory when --config is not provided.
const DefaultProjectConfigFilename = "dyadfuzz.json"

// fuzzCmd represents the command provider for fuzzing.
var fuzzCmd = &cobra.Command{
	Use:   "fuzz [project directory]",
	Short: "Starts the fuzzer",
	Long: "Runs every discovered test entry point of the project's compiled contracts with generated " +
		"inputs until the example budget is met or a failing input is found.",
	Args: cobra.MaximumNArgs(1),
	RunE: cmdRunFuzz,
	// Run any validation logic before command execution.
	PreRunE: cmdValidateFuzzArgs,
}

func init() {
	// Add all the flags allowed for the fuzz command.
	err := addFuzzFlags()
	if err != nil {
		cmdLogger.Panic("could not initialize the fuzz command", err)
	}

	// Add the fuzz command and its associated flags to the root command.
	rootCmd.AddCommand(fuzzCmd)
}

// cmdValidateFuzzArgs validates CLI arguments for the fuzz command.
func cmdValidateFuzzArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err != nil || !info.IsDir() {
			return fmt.Errorf("project directory '%s' does not exist", args[0])
		}
	}
	return nil
}

// cmdRunFuzz runs a fuzzing session from the resolved project configuration. Test failures map to
// their own exit code so scripted callers can distinguish them from session faults.
func cmdRunFuzz(cmd *cobra.Command, args []string) error {
	projectDirectory := "."
	if len(args) == 1 {
		projectDirectory = args[0]
	}

	// Resolve the project configuration: an explicit --config path, the default file in the project
	// directory, or built-in defaults when neither exists.
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	var projectConfig *config.ProjectConfig
	if configPath != "" {
		projectConfig, err = config.ReadProjectConfigFromFile(configPath)
	} else {
		defaultPath := filepath.Join(projectDirectory, DefaultProjectConfigFilename)
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			projectConfig, err = config.ReadProjectConfigFromFile(defaultPath)
		} else {
			projectConfig = config.GetDefaultProjectConfig()
		}
	}
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}
	projectConfig.Fuzzing.ProjectRoot = projectDirectory

	// Update the project configuration given whatever flags were set on the command line.
	if err = updateProjectConfigWithFuzzFlags(cmd, projectConfig); err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	fuzzer, err := fuzzing.NewFuzzer(*projectConfig)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	// Stop the fuzzer on SIGINT so a partial report is still emitted.
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt)
	go func() {
		<-signalChannel
		fuzzer.Stop()
	}()
	defer signal.Stop(signalChannel)

	testName, err := cmd.Flags().GetString("test")
	if err != nil {
		return err
	}
	if testName != "" {
		err = fuzzer.RunOne(testName)
	} else {
		err = fuzzer.RunAll()
	}
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	if len(fuzzer.TestCasesWithStatus(fuzzing.TestCaseStatusFailed)) > 0 {
		return exitcodes.NewErrorWithExitCode(nil, exitcodes.ExitCodeTestFailed)
	}
	return nil
}
