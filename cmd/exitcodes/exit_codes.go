// Package exitcodes defines the process exit codes the command-line interface reports, and an error
// wrapper which carries an exit code alongside an underlying error.
package exitcodes

const (
	// ExitCodeSuccess indicates the command ran to completion without error and no test failed.
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates a command failure with no more specific exit code.
	ExitCodeGeneralError = 1

	// ExitCodeFuzzerError indicates the fuzzing session itself could not run, e.g. a bad
	// configuration, a missing artifact, or a misconfigured executor.
	ExitCodeFuzzerError = 6

	// ExitCodeTestFailed indicates the fuzzing session ran to completion and at least one test
	// failed.
	ExitCodeTestFailed = 7
)

// ErrorWithExitCode describes an error associated with a specific process exit code.
type ErrorWithExitCode struct {
	// Err describes the underlying error, or nil when only an exit code is carried.
	Err error

	// ExitCode describes the process exit code to report.
	ExitCode int
}

// Error implements the error interface.
func (e *ErrorWithExitCode) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

// NewErrorWithExitCode creates an ErrorWithExitCode wrapping the given error with the given code.
func NewErrorWithExitCode(err error, exitCode int) *ErrorWithExitCode {
	return &ErrorWithExitCode{Err: err, ExitCode: exitCode}
}

// GetInnerErrorAndExitCode unwraps an error into its underlying error and associated exit code. A nil
// error maps to success; an error without an embedded code maps to the general error code.
func GetInnerErrorAndExitCode(err error) (error, int) {
	if err == nil {
		return nil, ExitCodeSuccess
	}
	if exitErr, ok := err.(*ErrorWithExitCode); ok {
		return exitErr.Err, exitErr.ExitCode
	}
	return err, ExitCodeGeneralError
}
