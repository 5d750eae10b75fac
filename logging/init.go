package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// init instantiates the global logger and sets up global parameters from the zerolog package.
func init() {
	GlobalLogger = NewLogger(zerolog.Disabled, false)

	// Set up stack trace support and set the timestamp format to UNIX.
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}
