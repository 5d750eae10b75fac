package cmd

import (
	"github.com/rs/zerolog"

	"github.com/dyadfuzz/dyadfuzz/logging"
)

// cmdLogger describes the logger used by the command-line interface before a fuzzing session takes
// over logging configuration.
var cmdLogger = logging.NewLogger(zerolog.InfoLevel, true)
