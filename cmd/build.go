package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dyadfuzz/dyadfuzz/cmd/exitcodes"
	"github.com/dyadfuzz/dyadfuzz/fuzzing/config"
)

// buildCmd represents the command provider for build.
var buildCmd = &cobra.Command{
	Use:   "build [project directory]",
	Short: "Compiles the project's contracts",
	Long:  "Runs the project's configured compiler command and validates the artifact it produces, without fuzzing.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  cmdRunBuild,
}

func init() {
	buildCmd.Flags().String("config", "", "path to config file")
	rootCmd.AddCommand(buildCmd)
}

// cmdRunBuild compiles the project through its configured external compiler.
func cmdRunBuild(cmd *cobra.Command, args []string) error {
	projectDirectory := "."
	if len(args) == 1 {
		projectDirectory = args[0]
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	if configPath == "" {
		configPath = filepath.Join(projectDirectory, DefaultProjectConfigFilename)
	}
	projectConfig, err := config.ReadProjectConfigFromFile(configPath)
	if err != nil {
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}
	if projectConfig.Compilation == nil {
		return exitcodes.NewErrorWithExitCode(fmt.Errorf("config file '%s' declares no compilation settings", configPath), exitcodes.ExitCodeFuzzerError)
	}

	artifact, compilerOutput, err := projectConfig.Compilation.Compile(projectDirectory)
	if err != nil {
		if compilerOutput != "" {
			cmdLogger.Error(compilerOutput, nil)
		}
		return exitcodes.NewErrorWithExitCode(err, exitcodes.ExitCodeFuzzerError)
	}

	cmdLogger.Info(fmt.Sprintf("compiled %d contract(s)", len(artifact.Contracts)))
	return nil
}
