package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/dyadfuzz/dyadfuzz/cmd"
	"github.com/dyadfuzz/dyadfuzz/cmd/exitcodes"
	"github.com/dyadfuzz/dyadfuzz/logging"
)

func main() {
	// Run our root CLI command, which contains all underlying command logic and will handle
	// parsing/invocation.
	err := cmd.Execute()

	// Determine the exit code from any potentially encountered error.
	innerErr, exitCode := exitcodes.GetInnerErrorAndExitCode(err)

	// Print any non-empty error we encountered. A test-failure exit carries no error of its own; the
	// fuzzer already reported the failing tests.
	if innerErr != nil && exitCode != exitcodes.ExitCodeTestFailed {
		logging.NewLogger(zerolog.ErrorLevel, true).Error("command failed", innerErr)
	}

	os.Exit(exitCode)
}
