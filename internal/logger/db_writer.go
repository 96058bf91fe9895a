package logger

import (
	"context"
	"fmt"
	"time"

	"go-permits/internal/config"
	"go-permits/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level         zapcore.Level
	Message       string
	ApplicationID string
	ActorID       string
	Caller        string
}

type logRecord struct {
	Message       string    `bson:"message"`
	ApplicationID string    `bson:"application_id,omitempty"`
	ActorID       string    `bson:"actor_id,omitempty"`
	Caller        string    `bson:"caller,omitempty"`
	LogLevel      string    `bson:"log_level"`
	AppId         string    `bson:"app_id"`
	CreatedOnUtc  time.Time `bson:"created_on_utc"`
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	db      *mongo.Database
	logChan chan LogEntry
	appId   string
}

// NewDBLogWriter initializes the worker
func NewDBLogWriter(mongodb *database.MongodbDB, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		db:      mongodb.DB,
		logChan: make(chan LogEntry, 1000), // Buffer 1000 logs
		appId:   cfg.AppId,
	}

	// Start the background worker immediately
	go writer.processLogs()

	return writer
}

// AddLog is called by our Zap hook
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
		// Log pushed to channel
	default:
		// Channel full: drop log rather than block the request path
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *DBLogWriter) processLogs() {
	for entry := range w.logChan {
		record := logRecord{
			Message:       entry.Message,
			ApplicationID: entry.ApplicationID,
			ActorID:       entry.ActorID,
			Caller:        entry.Caller,
			LogLevel:      entry.Level.String(),
			AppId:         w.appId,
			CreatedOnUtc:  time.Now().UTC(),
		}

		// Insert errors are ignored to keep the app running
		w.db.Collection("logs").InsertOne(context.Background(), record)
	}
}
