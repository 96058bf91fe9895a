package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a custom Zap Core that intercepts logs
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

// NewDBCore wraps an existing core (like console logger) and adds DB logging
func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	var applicationID, actorID string

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
		if f.Key == "applicationId" {
			applicationID = f.String
		}
		if f.Key == "actorId" {
			actorID = f.String
		}
	}

	// entry.Caller.Function requires AddCaller() on the logger
	c.writer.AddLog(LogEntry{
		Level:         entry.Level,
		Message:       entry.Message,
		ApplicationID: applicationID,
		ActorID:       actorID,
		Caller:        entry.Caller.Function,
	})

	// Call the underlying core so it still prints to console
	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
