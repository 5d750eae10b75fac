package cmd

import (
	"github.com/spf13/cobra"
)

// version describes the release version the command-line interface reports.
const version = "0.1.0"

// rootCmd represents the root command of the command-line interface.
var rootCmd = &cobra.Command{
	Use:     "dyadfuzz",
	Version: version,
	Short:   "A property-based fuzzer for contracts on bytecode and WASM virtual machines",
	Long: "dyadfuzz is a property-based fuzzing engine which executes named test entry points of " +
		"compiled contracts with generated inputs, across a bytecode virtual machine and a WASM " +
		"virtual machine sharing one simulated ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute executes the root command, returning the error (if any) to be handled by the caller with an
// associated exit code.
func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.Execute()
}
