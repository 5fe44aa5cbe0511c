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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/commander/internal/testutil"
)

func TestContext(t *testing.T) {
	t.Parallel()

	logger1 := New(io.Discard, LevelInfo, FormatText, false)
	logger2 := New(io.Discard, LevelDebug, FormatJSON, false)

	if got, want := FromContext(context.Background()), DefaultLogger(); got != want {
		t.Errorf("expected default logger %v to be %v", got, want)
	}

	ctx := WithLogger(context.Background(), logger1)
	if got := FromContext(ctx); got != logger1 {
		t.Errorf("expected %v to be %v", got, logger1)
	}

	ctx = WithLogger(ctx, logger2)
	if got := FromContext(ctx); got != logger2 {
		t.Errorf("expected %v to be %v", got, logger2)
	}
}

func TestNew_json(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	logger := New(&b, LevelInfo, FormatJSON, false)
	logger.Debug("hidden")
	logger.Info("dispatched", "command", "shell", "took", 1500*time.Millisecond)

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if got, want := len(lines), 1; got != want {
		t.Fatalf("expected %d lines, got %d: %q", want, got, lines)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatal(err)
	}
	delete(entry, "time")

	want := map[string]any{
		"level":   "info",
		"msg":     "dispatched",
		"command": "shell",
		"took":    "1.5s",
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Errorf("entry mismatch (-want, +got):\n%s", diff)
	}
}

func TestSetLevel(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	logger := New(&b, LevelWarning, FormatText, false)
	child := logger.With("component", "catalog")

	child.Info("before")
	SetLevel(logger, LevelDebug)
	child.Debug("after")

	out := b.String()
	if strings.Contains(out, "before") {
		t.Errorf("expected %q to not include the info entry", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("expected %q to include the debug entry of the derived logger", out)
	}
}

func TestSetLevel_foreignHandler(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	SetLevel(slog.New(slog.NewTextHandler(io.Discard, nil)), LevelDebug)
}

func TestNewFromEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"COMMANDER_LOG_LEVEL": "debug",
		"LOG_LEVEL":           "error",
		"LOG_FORMAT":          "json",
	}
	getenv := func(k string) string { return env[k] }

	var b bytes.Buffer
	logger := NewFromEnv("COMMANDER_", WithGetenv(getenv), WithDefaultTarget(&b))
	logger.Debug("visible")

	if !strings.HasPrefix(b.String(), "{") {
		t.Errorf("expected JSON output, got %q", b.String())
	}
	if !strings.Contains(b.String(), `"level":"debug"`) {
		t.Errorf("expected prefixed level to win, got %q", b.String())
	}
}

func TestLookupLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in  string
		exp slog.Level
		err string
	}{
		{in: "debug", exp: LevelDebug},
		{in: " INFO ", exp: LevelInfo},
		{in: "notice", exp: LevelNotice},
		{in: "warn", exp: LevelWarning},
		{in: "warning", exp: LevelWarning},
		{in: "error", exp: LevelError},
		{in: "loud", err: `no such level "loud"`},
	}

	for _, tc := range cases {
		got, err := LookupLevel(tc.in)
		if diff := testutil.DiffErrString(err, tc.err); diff != "" {
			t.Errorf("LookupLevel(%q): %s", tc.in, diff)
			continue
		}
		if got != tc.exp {
			t.Errorf("LookupLevel(%q): expected %v to be %v", tc.in, got, tc.exp)
		}
	}
}

func TestLevelString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in  slog.Level
		exp string
	}{
		{in: LevelDebug, exp: "debug"},
		{in: LevelInfo, exp: "info"},
		{in: LevelInfo + 1, exp: "info+1"},
		{in: LevelWarning, exp: "warning"},
		{in: LevelError + 2, exp: "error+2"},
		{in: LevelDebug - 3, exp: "debug-3"},
	}

	for _, tc := range cases {
		if got := LevelString(tc.in); got != tc.exp {
			t.Errorf("LevelString(%d): expected %q to be %q", tc.in, got, tc.exp)
		}
	}
}
