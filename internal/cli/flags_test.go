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

package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abcxyz/commander/internal/testutil"
	"github.com/abcxyz/commander/logging"
)

func TestNewFlagSet(t *testing.T) {
	t.Parallel()

	fs := NewFlagSet()

	if got, want := fs.flagSet.ErrorHandling(), flag.ContinueOnError; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
	if got, want := fs.flagSet.Output(), io.Discard; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
}

func TestFlagSet_Help(t *testing.T) {
	t.Parallel()

	fs := NewFlagSet()

	hooks := fs.NewSection("HOOK OPTIONS")
	hooks.BoolVar(&BoolVar{
		Name:   "no-hooks",
		Usage:  "Skip pre-hooks.",
		Target: ptrTo(false),
	})
	hooks.IntVar(&IntVar{
		Name:   "depth",
		Usage:  "Internal.",
		Hidden: true,
		Target: ptrTo(0),
	})

	catalog := fs.NewSection("CATALOG OPTIONS")
	catalog.StringVar(&StringVar{
		Name:    "catalog",
		Usage:   "Path to the catalog file.",
		Aliases: []string{"c", "cat"},
		Example: "commands.json",
		EnvVar:  "COMMANDER_CATALOG",
		Target:  ptrTo(""),
	})

	help := fs.Help()
	for _, want := range []string{
		"HOOK OPTIONS\n\n    -no-hooks\n",
		"Skip pre-hooks. The default value is \"false\".",
		`-c, -cat, -catalog="commands.json"`,
		"COMMANDER_CATALOG",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("expected\n\n%s\n\nto include %q", help, want)
		}
	}
	if got, want := help, "depth"; strings.Contains(got, want) {
		t.Errorf("expected\n\n%s\n\nto not include %q", got, want)
	}
}

func TestFlagSet_envVar(t *testing.T) {
	t.Parallel()

	fs := NewFlagSet(WithLookupEnv(MapLookuper(map[string]string{
		"COMMANDER_HOOK_TIMEOUT": "5s",
		"COMMANDER_AGENT":        "a1",
	})))
	f := fs.NewSection("OPTIONS")

	var timeout time.Duration
	f.DurationVar(&DurationVar{
		Name:    "hook-timeout",
		Default: 30 * time.Second,
		EnvVar:  "COMMANDER_HOOK_TIMEOUT",
		Target:  &timeout,
	})

	var agent string
	f.StringVar(&StringVar{
		Name:    "agent",
		Default: "local",
		EnvVar:  "COMMANDER_AGENT",
		Target:  &agent,
	})

	if err := fs.Parse([]string{"-agent", "a2"}); err != nil {
		t.Fatal(err)
	}
	if got, want := timeout, 5*time.Second; got != want {
		t.Errorf("expected %s to be %s", got, want)
	}
	if got, want := agent, "a2"; got != want {
		t.Errorf("expected %q to be %q", got, want)
	}
}

func TestFlagSection_StringSliceVar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		def  []string
		exp  []string
	}{
		{
			name: "default",
			def:  []string{"sh"},
			exp:  []string{"sh"},
		},
		{
			name: "appends_in_order",
			args: []string{"-hook", "python3", "-hook", "hook.py, --strict"},
			exp:  []string{"python3", "hook.py", "--strict"},
		},
		{
			name: "drops_empty",
			args: []string{"-hook", " , ,a"},
			exp:  []string{"a"},
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var target []string
			fs := NewFlagSet()
			fs.NewSection("OPTIONS").StringSliceVar(&StringSliceVar{
				Name:    "hook",
				Default: tc.def,
				Target:  &target,
			})

			if err := fs.Parse(tc.args); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.exp, target); diff != "" {
				t.Errorf("diff (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestFlagSection_StringMapVar(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		exp  map[string]string
		err  string
	}{
		{
			name: "empty",
		},
		{
			name: "merges",
			args: []string{"-arch", "a1=x64", "-arch", "a2=x86", "-arch", "a1=arm64"},
			exp:  map[string]string{"a1": "arm64", "a2": "x86"},
		},
		{
			name: "empty_value",
			args: []string{"-arch", "a1="},
			exp:  map[string]string{"a1": ""},
		},
		{
			name: "missing_equals",
			args: []string{"-arch", "a1"},
			err:  `missing = in KV pair "a1"`,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var target map[string]string
			fs := NewFlagSet()
			fs.NewSection("OPTIONS").StringMapVar(&StringMapVar{
				Name:   "arch",
				Target: &target,
			})

			err := fs.Parse(tc.args)
			if diff := testutil.DiffErrString(err, tc.err); diff != "" {
				t.Fatal(diff)
			}
			if diff := cmp.Diff(tc.exp, target); diff != "" {
				t.Errorf("diff (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestFlagSet_AfterParse(t *testing.T) {
	t.Parallel()

	t.Run("recovers_panic", func(t *testing.T) {
		t.Parallel()

		fs := NewFlagSet()
		fs.AfterParse(func(existingErr error) error {
			panic("oh no!")
		})

		err := fs.Parse(nil)
		if diff := testutil.DiffErrString(err, "panic: oh no!"); diff != "" {
			t.Error(diff)
		}
	})

	t.Run("runs_all", func(t *testing.T) {
		t.Parallel()

		var names []string

		fs := NewFlagSet()
		fs.AfterParse(func(existingErr error) error {
			names = append(names, "one")
			return nil
		})
		fs.AfterParse(func(existingErr error) error {
			names = append(names, "two")
			return nil
		})

		if err := fs.Parse(nil); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string{"one", "two"}, names); diff != "" {
			t.Errorf("did not run all functions (-want, +got):\n%s", diff)
		}
	})

	t.Run("runs_all_error", func(t *testing.T) {
		t.Parallel()

		fs := NewFlagSet()
		fs.AfterParse(func(existingErr error) error {
			return fmt.Errorf("one")
		})
		fs.AfterParse(func(existingErr error) error {
			return fmt.Errorf("two")
		})

		err := fs.Parse(nil)
		if diff := testutil.DiffErrString(err, "one\ntwo"); diff != "" {
			t.Error(diff)
		}
	})
}

func TestLogLevelVar(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cases := []struct {
		name string
		args []string

		wantLevel slog.Level
		wantError string
	}{
		{
			name:      "empty_keeps_level",
			args:      nil,
			wantLevel: logging.LevelWarning,
		},
		{
			name:      "long",
			args:      []string{"-log-level", "debug"},
			wantLevel: logging.LevelDebug,
		},
		{
			name:      "short",
			args:      []string{"-l", "notice"},
			wantLevel: logging.LevelNotice,
		},
		{
			name:      "invalid",
			args:      []string{"-log-level", "pants"},
			wantLevel: logging.LevelWarning,
			wantError: `invalid value "pants" for flag -log-level`,
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger := logging.New(io.Discard, logging.LevelWarning, logging.FormatText, false)

			set := NewFlagSet()
			set.NewSection("FLAGS").LogLevelVar(&LogLevelVar{
				Logger: logger,
			})

			err := set.Parse(tc.args)
			if diff := testutil.DiffErrString(err, tc.wantError); diff != "" {
				t.Error(diff)
			}

			if !logger.Handler().Enabled(ctx, tc.wantLevel) {
				t.Errorf("expected handler to be enabled at %s", tc.wantLevel)
			}
			if logger.Handler().Enabled(ctx, tc.wantLevel-1) {
				t.Errorf("expected handler to be disabled below %s", tc.wantLevel)
			}
		})
	}
}

func ptrTo[T any](v T) *T {
	return &v
}
