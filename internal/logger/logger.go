// Package logger builds the zap logger shared by the CLI and the HTTP server.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// FieldSessionID is the structured log field key for a match session
	FieldSessionID = "session_id"
	// FieldJobID is the structured log field key for a job profile
	FieldJobID = "job_id"
	// FieldCandidateID is the structured log field key for a candidate profile
	FieldCandidateID = "candidate_id"
)

// New builds a console or JSON logger writing to stderr. Debug lowers the level to debug.
func New(json bool, debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	encoding := "console"

	if json {
		encoding = "json"
	}

	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "msg",

			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,

			TimeKey:    "time",
			EncodeTime: zapcore.RFC3339TimeEncoder,

			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,

			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	return cfg.Build()
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SessionFields returns the standard fields describing a session. Empty values are omitted.
func SessionFields(sessionID, jobID string) []zap.Field {
	fields := make([]zap.Field, 0, 2)
	if sessionID != "" {
		fields = append(fields, zap.String(FieldSessionID, sessionID))
	}
	if jobID != "" {
		fields = append(fields, zap.String(FieldJobID, jobID))
	}
	return fields
}

// ForSession returns a logger scoped to a session
func ForSession(logger *zap.Logger, sessionID, jobID string) *zap.Logger {
	return WithFields(logger, SessionFields(sessionID, jobID)...)
}
