// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2025-present Datadog, Inc.

// Package log is the logging facade used by every geotrace package. Embedders
// can route messages to their own logger with SetLogger.
package log

import (
	"fmt"
	"log"
	"sync/atomic"
)

// LogLevel orders messages by verbosity, LevelError being the quietest.
type LogLevel int

const (
	LevelError LogLevel = iota + 1
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var levelNames = map[string]LogLevel{
	"error": LevelError,
	"warn":  LevelWarn,
	"info":  LevelInfo,
	"debug": LevelDebug,
	"trace": LevelTrace,
}

func (l LogLevel) String() string {
	for name, lvl := range levelNames {
		if lvl == l {
			return name
		}
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLogLevel accepts the lowercase level names only.
func ParseLogLevel(s string) (LogLevel, error) {
	if lvl, ok := levelNames[s]; ok {
		return lvl, nil
	}
	return 0, fmt.Errorf("invalid log level %q (expected one of error, warn, info, debug, trace)", s)
}

var (
	enabled atomic.Bool
	level   atomic.Int32
)

func init() {
	enabled.Store(true)
	level.Store(int32(LevelInfo))
}

func SetVerbose(v bool) {
	enabled.Store(v)
	if v && LogLevel(level.Load()) < LevelDebug {
		level.Store(int32(LevelDebug))
	}
}

func SetLogLevel(l LogLevel) {
	level.Store(int32(l))
}

func GetLogLevel() LogLevel {
	return LogLevel(level.Load())
}

func allowed(l LogLevel) bool {
	return enabled.Load() && LogLevel(level.Load()) >= l
}

type Logger struct {
	Tracef    func(format string, args ...interface{})
	Infof     func(format string, args ...interface{})
	Debugf    func(format string, args ...interface{})
	Warnf     func(format string, args ...interface{}) error
	Errorf    func(format string, args ...interface{}) error
	TraceFunc func(func() string)
}

var logger = defaultLogger()

func defaultLogger() Logger {
	return Logger{
		Tracef:    defaultTracef,
		Infof:     defaultInfof,
		Debugf:    defaultDebugf,
		Warnf:     defaultWarnf,
		Errorf:    defaultErrorf,
		TraceFunc: defaultTraceFunc,
	}
}

// SetLogger replaces the active logger. Nil functions silence that level.
func SetLogger(l Logger) {
	logger = l
}

// ResetLogger restores the stdlib-backed logger.
func ResetLogger() {
	logger = defaultLogger()
}

func Tracef(format string, args ...interface{}) {
	if logger.Tracef != nil {
		logger.Tracef(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if logger.Infof != nil {
		logger.Infof(format, args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if logger.Debugf != nil {
		logger.Debugf(format, args...)
	}
}

func Warnf(format string, args ...interface{}) error {
	if logger.Warnf != nil {
		return logger.Warnf(format, args...)
	}
	return nil
}

func Errorf(format string, args ...interface{}) error {
	if logger.Errorf != nil {
		return logger.Errorf(format, args...)
	}
	return nil
}

// TraceFunc defers building the message until trace output is known to be on.
func TraceFunc(logFunc func() string) {
	if logger.TraceFunc != nil {
		logger.TraceFunc(logFunc)
	}
}

var (
	defaultTracef = func(format string, args ...interface{}) {
		if allowed(LevelTrace) {
			log.Printf("[TRACE] "+format, args...)
		}
	}

	defaultInfof = func(format string, args ...interface{}) {
		if allowed(LevelInfo) {
			log.Printf("[INFO] "+format, args...)
		}
	}

	defaultDebugf = func(format string, args ...interface{}) {
		if allowed(LevelDebug) {
			log.Printf("[DEBUG] "+format, args...)
		}
	}

	defaultErrorf = func(format string, args ...interface{}) error {
		err := fmt.Errorf(format, args...)
		if allowed(LevelError) {
			log.Print("[ERROR] " + err.Error())
		}
		return err
	}

	defaultWarnf = func(format string, args ...interface{}) error {
		err := fmt.Errorf(format, args...)
		if allowed(LevelWarn) {
			log.Print("[WARN] " + err.Error())
		}
		return err
	}

	defaultTraceFunc = func(logFunc func() string) {
		if allowed(LevelTrace) {
			log.Print("[TRACE] " + logFunc())
		}
	}
)
