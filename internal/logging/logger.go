// Package logging implements the engine's level-based logger: a console
// sink plus a rotating-by-run file sink, with one Logger instance per
// named component (network, world, mesh, persistence, ...). It backs the
// error-kind taxonomy from the spec (transport/protocol/chunk-absent/
// catalog-miss/persistence) with the log levels it prescribes.
package logging

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// LogLevel is one of the five severities the engine logs at.
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger logs to stdout above minConsoleLevel and to a per-run log file
// above minFileLevel.
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
}

var defaultLogger *Logger

// InitLogger initializes the process-wide default logger, writing to
// ./logs/server_<timestamp>.log plus stdout.
func InitLogger() error {
	logger, err := NewLogger("server")
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

// NewLogger creates a logger for a named component, with its own log file
// under ./logs/<component>_<timestamp>.log.
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join("logs", fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	return &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// Close releases the logger's file handle.
func (lg *Logger) Close() error {
	if lg.file != nil {
		return lg.file.Close()
	}
	return nil
}

// Log emits a message at the given level.
func (lg *Logger) Log(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf("[%s] [%s] %s", level.String(), lg.component, fmt.Sprintf(format, args...))
	if level >= lg.minFileLevel {
		lg.fileLogger.Println(message)
	}
	if level >= lg.minConsoleLevel {
		lg.consoleLogger.Println(message)
	}
}

func (lg *Logger) Trace(format string, args ...interface{}) { lg.Log(TRACE, format, args...) }
func (lg *Logger) Debug(format string, args ...interface{}) { lg.Log(DEBUG, format, args...) }
func (lg *Logger) Info(format string, args ...interface{})  { lg.Log(INFO, format, args...) }
func (lg *Logger) Warn(format string, args ...interface{})  { lg.Log(WARN, format, args...) }
func (lg *Logger) Error(format string, args ...interface{}) { lg.Log(ERROR, format, args...) }

// CloseLogger closes the process-wide default logger.
func CloseLogger() {
	if defaultLogger != nil {
		defaultLogger.Close()
	}
}

// InitDefaultLogger and CloseDefaultLogger are the names cmd/server uses
// for the process-wide default logger's lifecycle.
func InitDefaultLogger(component string) error { return InitLoggerComponent(component) }
func CloseDefaultLogger()                      { CloseLogger() }

// InitLoggerComponent is InitLogger generalized to a caller-chosen
// component name instead of the hardcoded "server".
func InitLoggerComponent(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultLogger = logger
	return nil
}

func logMessage(level LogLevel, format string, args ...interface{}) {
	if defaultLogger == nil {
		return
	}
	defaultLogger.Log(level, format, args...)
}

func LogTrace(format string, args ...interface{}) { logMessage(TRACE, format, args...) }
func LogDebug(format string, args ...interface{}) { logMessage(DEBUG, format, args...) }
func LogInfo(format string, args ...interface{})  { logMessage(INFO, format, args...) }
func LogWarn(format string, args ...interface{})  { logMessage(WARN, format, args...) }
func LogError(format string, args ...interface{}) { logMessage(ERROR, format, args...) }

// Tracef, Debugf, Infof, Warnf, Errorf are lowercase convenience aliases
// used by packages that prefer Go's usual *f naming.
func Tracef(format string, args ...interface{}) { LogTrace(format, args...) }
func Debugf(format string, args ...interface{}) { LogDebug(format, args...) }
func Infof(format string, args ...interface{})  { LogInfo(format, args...) }
func Warnf(format string, args ...interface{})  { LogWarn(format, args...) }
func Errorf(format string, args ...interface{}) { LogError(format, args...) }

// Trace, Debug, Info, Warn, Error are the plain names cmd/server calls
// at startup, before any per-component Logger exists.
func Trace(format string, args ...interface{}) { LogTrace(format, args...) }
func Debug(format string, args ...interface{}) { LogDebug(format, args...) }
func Info(format string, args ...interface{})  { LogInfo(format, args...) }
func Warn(format string, args ...interface{})  { LogWarn(format, args...) }
func Error(format string, args ...interface{}) { LogError(format, args...) }

// LogMessage logs a raw protocol message with a hex dump, at DEBUG level.
func LogMessage(connID string, direction string, msgType interface{}, payload []byte) {
	LogDebug("=== %s MESSAGE %s ===", direction, connID)
	LogDebug("Type: %v", msgType)
	LogDebug("Size: %d bytes", len(payload))
	if len(payload) > 0 {
		LogDebug("Hex dump:")
		LogDebug("%s", HexDump(payload))
	}
}

// HexDump renders up to 256 bytes of data as a hex dump.
func HexDump(data []byte) string {
	if len(data) == 0 {
		return "No data"
	}
	size := len(data)
	if size > 256 {
		size = 256
	}
	return hex.Dump(data[:size])
}

// LogProtocolError logs a protocol decode failure (spec error kind 1/2).
func LogProtocolError(connID string, err error, data []byte) {
	LogError("Protocol error from %s: %v", connID, err)
	if len(data) > 0 {
		LogError("Raw data (%d bytes):", len(data))
		LogError("%s", HexDump(data))
	}
}

// LogEntityMovement traces a game object's movement at TRACE level.
func LogEntityMovement(entityID uint64, from, to [3]float64, direction int) {
	LogTrace("Entity %d movement: (%.2f,%.2f,%.2f) -> (%.2f,%.2f,%.2f) dir:%d",
		entityID, from[0], from[1], from[2], to[0], to[1], to[2], direction)
}

// LogChunkRequest logs an inbound chunk request.
func LogChunkRequest(connID string, chunkX, chunkY, chunkZ int32) {
	LogDebug("Chunk request from %s: chunk(%d,%d,%d)", connID, chunkX, chunkY, chunkZ)
}

// LogChunkData logs an outbound chunk delivery.
func LogChunkData(connID string, chunkX, chunkY, chunkZ int32, blockCount int) {
	LogDebug("Chunk data sent to %s: chunk(%d,%d,%d) with %d blocks",
		connID, chunkX, chunkY, chunkZ, blockCount)
}
