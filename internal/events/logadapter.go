package events

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/abhisek/skillforge/internal/logger"
)

// LoggerAdapter routes watermill logs to the application logger.
type LoggerAdapter struct {
	log *logger.Logger
}

var _ watermill.LoggerAdapter = (*LoggerAdapter)(nil)

func NewLoggerAdapter(log *logger.Logger) *LoggerAdapter {
	return &LoggerAdapter{log: log}
}

func kvs(fields watermill.LogFields) []any {
	out := make([]any, 0, 2*len(fields))
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(kvs(fields), "error", err)...)
}

func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, kvs(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, kvs(fields)...)
}

// Trace is logged at debug level; zap has no trace level.
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, kvs(fields)...)
}

func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{log: a.log.With(kvs(fields)...)}
}
