// Copyright 2026 The Authors (see AUTHORS file)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging is the structured logging setup shared by the commander
// packages and binaries. It is based on [log/slog]; loggers travel through a
// [context.Context] so that library code never reaches for a global.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
)

// contextKey is a private string type to prevent collisions in the context map.
type contextKey string

// loggerKey points to the value in the context where the logger is stored.
const loggerKey = contextKey("logger")

// defaultLoggerOnce builds the logger returned when the context carries none.
// It writes text to stderr at the "warning" level so that stdout stays
// reserved for task output.
var defaultLoggerOnce = sync.OnceValue(func() *slog.Logger {
	return New(os.Stderr, LevelWarning, FormatText, false)
})

// New creates a new logger in the specified format and writes to the provided
// writer at the provided level. Use [SetLevel] to change the level after
// creation.
//
// If debug is true, the level is set to the lowest possible value and the
// output includes source information.
func New(w io.Writer, level slog.Level, format Format, debug bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		ReplaceAttr: replaceAttrs,
	}

	if debug {
		opts.AddSource = true
		level = math.MinInt
	}

	switch format {
	case FormatJSON:
		return slog.New(NewLevelHandler(level, slog.NewJSONHandler(w, opts)))
	case FormatText:
		return slog.New(NewLevelHandler(level, slog.NewTextHandler(w, opts)))
	default:
		panic(fmt.Sprintf("unknown log format %q", format))
	}
}

// NewFromEnv creates a logger configured from the environment. For each
// setting it first checks the prefixed variable, then the unprefixed one:
//
//   - LOG_LEVEL: level name (e.g. "debug", "warning")
//   - LOG_FORMAT: "json" or "text"
//   - LOG_DEBUG: enable the most detailed logging with source locations
//   - LOG_TARGET: "stdout" or "stderr"
//
// It panics if a variable holds an invalid value. Defaults can be changed
// with [Option] values.
func NewFromEnv(envPrefix string, opts ...Option) *slog.Logger {
	o := &options{
		level:  LevelWarning,
		format: FormatText,
		target: os.Stderr,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		o = opt(o)
	}

	if k, v := multiGetenv(o.getenv, envPrefix+"LOG_LEVEL", "LOG_LEVEL"); v != "" {
		level, err := LookupLevel(v)
		if err != nil {
			panic(fmt.Sprintf("log level: invalid value for %s: %s", k, err))
		}
		o.level = level
	}

	if k, v := multiGetenv(o.getenv, envPrefix+"LOG_FORMAT", "LOG_FORMAT"); v != "" {
		format, err := LookupFormat(v)
		if err != nil {
			panic(fmt.Sprintf("log format: invalid value for %s: %s", k, err))
		}
		o.format = format
	}

	if k, v := multiGetenv(o.getenv, envPrefix+"LOG_DEBUG", "LOG_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Sprintf("log debug: invalid value for %s: %s", k, err))
		}
		o.debug = debug
	}

	if k, v := multiGetenv(o.getenv, envPrefix+"LOG_TARGET", "LOG_TARGET"); v != "" {
		target, err := LookupTarget(v)
		if err != nil {
			panic(fmt.Sprintf("log target: invalid value for %s: %s", k, err))
		}
		o.target = target
	}

	return New(o.target, o.level, o.format, o.debug)
}

type options struct {
	level  slog.Level
	format Format
	debug  bool
	target io.Writer
	getenv func(string) string
}

// Option sets a default for [NewFromEnv].
type Option func(o *options) *options

// WithDefaultLevel sets the level used when no variable is set.
func WithDefaultLevel(l slog.Level) Option {
	return func(o *options) *options {
		o.level = l
		return o
	}
}

// WithDefaultFormat sets the format used when no variable is set.
func WithDefaultFormat(f Format) Option {
	return func(o *options) *options {
		o.format = f
		return o
	}
}

// WithDefaultTarget sets the output used when no variable is set.
func WithDefaultTarget(w io.Writer) Option {
	return func(o *options) *options {
		o.target = w
		return o
	}
}

// WithGetenv overrides the function used to read variables. It is primarily
// used for testing.
func WithGetenv(f func(string) string) Option {
	return func(o *options) *options {
		o.getenv = f
		return o
	}
}

// multiGetenv returns the first non-empty variable among ss, with its key.
func multiGetenv(f func(string) string, ss ...string) (string, string) {
	for _, s := range ss {
		if v := strings.TrimSpace(f(s)); v != "" {
			return s, v
		}
	}
	if len(ss) > 0 {
		return ss[0], ""
	}
	return "", ""
}

// SetLevel adjusts the level on the provided logger. The handler must be a
// [LevelableHandler], which is the case for every logger created by this
// package; otherwise it panics. It is safe for concurrent use.
func SetLevel(logger *slog.Logger, level slog.Level) *slog.Logger {
	if typ, ok := logger.Handler().(LevelableHandler); ok {
		typ.SetLevel(level)
		return logger
	}
	panic("handler is not capable of setting levels")
}

// DefaultLogger returns the process-wide fallback logger.
func DefaultLogger() *slog.Logger {
	return defaultLoggerOnce()
}

// WithLogger creates a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in the context. If no such logger
// exists, the default logger is returned.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return DefaultLogger()
}

// replaceAttrs renders levels with the names accepted by [LookupLevel] and
// durations in their string form.
func replaceAttrs(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelString(lvl))
		}
	}

	if a.Value.Kind() == slog.KindDuration {
		a.Value = slog.StringValue(a.Value.Duration().String())
	}
	return a
}
