package ratelimit

import (
	"fmt"
	"log"

	"go.uber.org/zap"
)

// Logger interface is provided
// to allow you to customize the logging internally done
// by the limiter and the harness.
//
// The default implementation logs to the "log" standard module
// via log.Default().
//
// If you want to disable the default logger
// you can pass an instance of ratelimit.NewNoOpLogger(),
// or route everything to zap with ratelimit.NewZapLogger(...).
type Logger interface {
	Debug(string)
	Info(string)
	Warning(string)
	Error(string)
}

type defaultLogger struct {
}

func (l *defaultLogger) Debug(text string) {
	log.Default().Println(fmt.Sprintf("[debug] %v", text))
}
func (l *defaultLogger) Info(text string) {
	log.Default().Println(fmt.Sprintf("[info] %v", text))
}
func (l *defaultLogger) Warning(text string) {
	log.Default().Println(fmt.Sprintf("[WARNING] %v", text))
}
func (l *defaultLogger) Error(text string) {
	log.Default().Println(fmt.Sprintf("[ERROR] %v", text))
}

func NewNoOpLogger() Logger {
	return &noOpLogger{}
}

type noOpLogger struct {
}

func (l *noOpLogger) Debug(text string) {
	// NOP
}
func (l *noOpLogger) Info(text string) {
	// NOP
}
func (l *noOpLogger) Warning(text string) {
	// NOP
}
func (l *noOpLogger) Error(text string) {
	// NOP
}

// NewZapLogger adapts a zap logger to the Logger interface.
// A nil logger is replaced with zap.NewNop().
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{
		delegate: logger.Named("ratelimit"),
	}
}

type zapLogger struct {
	delegate *zap.Logger
}

func (l *zapLogger) Debug(text string) {
	l.delegate.Debug(text)
}
func (l *zapLogger) Info(text string) {
	l.delegate.Info(text)
}
func (l *zapLogger) Warning(text string) {
	l.delegate.Warn(text)
}
func (l *zapLogger) Error(text string) {
	l.delegate.Error(text)
}

func effectiveLogger(provided Logger) Logger {
	if provided == nil {
		return &defaultLogger{}
	}
	return provided
}
