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

package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Levels understood by this package, in increasing severity.
const (
	LevelDebug   = slog.LevelDebug
	LevelInfo    = slog.LevelInfo
	LevelNotice  = slog.Level(2)
	LevelWarning = slog.LevelWarn
	LevelError   = slog.LevelError
)

var levelNames = []struct {
	name  string
	level slog.Level
}{
	{"debug", LevelDebug},
	{"info", LevelInfo},
	{"notice", LevelNotice},
	{"warning", LevelWarning},
	{"error", LevelError},
}

// LevelNames returns the level names accepted by [LookupLevel], in increasing
// severity.
func LevelNames() []string {
	names := make([]string, 0, len(levelNames))
	for _, v := range levelNames {
		names = append(names, v.name)
	}
	return names
}

// LookupLevel returns the level for the given case-insensitive name. "warn" is
// accepted as an alias of "warning".
func LookupLevel(name string) (slog.Level, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "warn" {
		n = "warning"
	}
	for _, v := range levelNames {
		if v.name == n {
			return v.level, nil
		}
	}
	return 0, fmt.Errorf("no such level %q, valid levels are %q", name, LevelNames())
}

// LevelString returns the name of the level. Levels between the named ones
// are rendered relative to the closest lower name, e.g. "info+1".
func LevelString(l slog.Level) string {
	best := levelNames[0]
	for _, v := range levelNames {
		if l >= v.level {
			best = v
		}
	}
	if l < best.level {
		return fmt.Sprintf("%s%d", best.name, int(l-best.level))
	}
	if d := l - best.level; d != 0 {
		return fmt.Sprintf("%s+%d", best.name, int(d))
	}
	return best.name
}

// Format is the output encoding of a logger.
type Format string

const (
	FormatJSON Format = "JSON"
	FormatText Format = "TEXT"
)

// LookupFormat returns the format for the given case-insensitive name.
func LookupFormat(name string) (Format, error) {
	switch f := Format(strings.ToUpper(strings.TrimSpace(name))); f {
	case FormatJSON, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("no such format %q, valid formats are %q", name, []Format{FormatJSON, FormatText})
	}
}

// LookupTarget returns the standard stream for "stdout" or "stderr".
func LookupTarget(name string) (*os.File, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("no such target %q, valid targets are %q", name, []string{"stdout", "stderr"})
	}
}

// LevelableHandler is a [slog.Handler] whose level can change after creation.
type LevelableHandler interface {
	slog.Handler
	SetLevel(level slog.Level)
}

var _ LevelableHandler = (*LevelHandler)(nil)

// LevelHandler wraps a handler with a level that can be changed concurrently.
// Handlers derived through WithAttrs and WithGroup share the level.
type LevelHandler struct {
	level   *slog.LevelVar
	handler slog.Handler
}

// NewLevelHandler wraps h with the given initial level.
func NewLevelHandler(level slog.Level, h slog.Handler) *LevelHandler {
	var v slog.LevelVar
	v.Set(level)
	return &LevelHandler{level: &v, handler: h}
}

func (h *LevelHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LevelHandler) Handle(ctx context.Context, r slog.Record) error {
	//nolint:wrapcheck // Return the inner error as-is.
	return h.handler.Handle(ctx, r)
}

func (h *LevelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LevelHandler{level: h.level, handler: h.handler.WithAttrs(attrs)}
}

func (h *LevelHandler) WithGroup(name string) slog.Handler {
	return &LevelHandler{level: h.level, handler: h.handler.WithGroup(name)}
}

// SetLevel changes the level of this handler and every handler derived from
// it.
func (h *LevelHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}
