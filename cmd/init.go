package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dyadfuzz/dyadfuzz/fuzzing/config"
)

// initCmd represents the command provider for init.
var initCmd = &cobra.Command{
	Use:   "init [project directory]",
	Short: "Initializes a project configuration",
	Long:  "Writes a config file with default settings into the given project directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  cmdRunInit,
}

func init() {
	initCmd.Flags().String("out", "", "output path for the config file")
	rootCmd.AddCommand(initCmd)
}

// cmdRunInit writes a default project configuration file, refusing to overwrite an existing one.
func cmdRunInit(cmd *cobra.Command, args []string) error {
	projectDirectory := "."
	if len(args) == 1 {
		projectDirectory = args[0]
	}

	outputPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = filepath.Join(projectDirectory, DefaultProjectConfigFilename)
	}
	if _, err = os.Stat(outputPath); err == nil {
		return fmt.Errorf("refusing to overwrite existing config file '%s'", outputPath)
	}

	projectConfig := config.GetDefaultProjectConfig()
	if err = projectConfig.WriteToFile(outputPath); err != nil {
		return err
	}

	cmdLogger.Info(fmt.Sprintf("project configuration written to %s", outputPath))
	return nil
}
