package cache

import "github.com/rs/zerolog"

// Logger receives provider errors that cannot be returned to the caller,
// such as a failed background write.
type Logger interface {
	Error(msg string, err error)
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger adapts a zerolog logger to Logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return &zerologLogger{logger: logger.With().Str("component", "cache").Logger()}
}

func (z *zerologLogger) Error(msg string, err error) {
	z.logger.Error().Err(err).Msg(msg)
}
