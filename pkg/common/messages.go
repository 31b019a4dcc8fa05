// Package common provides logging and shared helpers for MFMTools.
package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar *zap.SugaredLogger
)

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	sugar = logger.Sugar()
}

// SetVerboseMode enables or disables debug output.
func SetVerboseMode(verbose bool) {
	if verbose {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Info messages
const (
	InfoRecoveryStarted = "recovering %d tracks (%d sectors/track) from %s"
	InfoRecoveryResult  = "recovery finished: %s (%d/%d tracks recovered)"
	InfoTrackSkipped    = "track %d skipped on user request"
	InfoReportWritten   = "recovery report written to %s"
	InfoImageWritten    = "recovered image written to %s"
)

// Warning messages
const (
	WarnTrackNotRecovered = "track %d not recovered: %s after %d attempts"
	WarnFileSkipped       = "skipping %s: %v"
)

// Debug messages
const (
	DebugTrackDamaged  = "track %d attempt %d: %d plausible, %d intact of %d sectors"
	DebugSectorFound   = "found sector %d of track %d at byte %d bit %d"
	DebugChecksumTrack = "track %3d checksum %08X%08X"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	sugar.Infof(message, args...)
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	sugar.Warnf(message, args...)
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	sugar.Errorf(message, args...)
}

// LogDebug logs a debug message (only if verbose mode is enabled)
func LogDebug(message string, args ...interface{}) {
	sugar.Debugf(message, args...)
}
