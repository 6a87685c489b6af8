// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logFileEnv    = "TELEMETRY_LOG_FILE"
	defaultOutput = "stdout"
)

var (
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger *zap.Logger
	// sugar backs the package helpers and skips their frame.
	sugar *zap.SugaredLogger
)

func init() {
	output := defaultOutput
	if path := os.Getenv(logFileEnv); path != "" {
		output = path
	}

	l, err := build(output)
	if err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	logger = l
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// build returns a JSON logger bound to the shared level. Sampling stays off so
// per-tick debug lines are never thinned out.
func build(output string) (*zap.Logger, error) {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	cfg := zap.Config{
		Level:            level,
		Encoding:         "json",
		EncoderConfig:    enc,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{output},
	}
	return cfg.Build()
}

// syslogLevels maps syslog severities 0-7 onto zap.
var syslogLevels = [...]zapcore.Level{
	zapcore.FatalLevel, // emerg
	zapcore.FatalLevel, // alert
	zapcore.FatalLevel, // crit
	zapcore.ErrorLevel,
	zapcore.WarnLevel,
	zapcore.InfoLevel, // notice
	zapcore.InfoLevel,
	zapcore.DebugLevel,
}

func mapLevel(severity int) zapcore.Level {
	switch {
	case severity < 0:
		return syslogLevels[0]
	case severity >= len(syslogLevels):
		return zapcore.DebugLevel
	default:
		return syslogLevels[severity]
	}
}

// SetLevel takes a syslog severity, as passed with --log-level.
func SetLevel(severity int) {
	level.SetLevel(mapLevel(severity))
}

// Enabled reports whether messages of the given severity are emitted.
func Enabled(severity int) bool {
	return level.Enabled(mapLevel(severity))
}

// Named returns a logger scoped to one component, e.g. "sampler".
func Named(component string) *zap.SugaredLogger {
	return logger.Sugar().Named(component)
}

func Sync() {
	_ = logger.Sync()
}

func Debug(format string, args ...any) { sugar.Debugf(format, args...) }

func Info(format string, args ...any) { sugar.Infof(format, args...) }

func Warn(format string, args ...any) { sugar.Warnf(format, args...) }

func Error(format string, args ...any) { sugar.Errorf(format, args...) }
