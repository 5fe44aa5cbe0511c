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

package commandercli

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/internal/extwatch"
	"github.com/abcxyz/commander/internal/testutil"
)

func TestShellCommand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		args      []string
		lines     []string
		expStdout []string
		expStderr []string
		expErr    string
	}{
		{
			name: "session",
			args: []string{"-catalog", "/srv/commands.json"},
			lines: []string{
				"whoami",
				":agent",
				":agent a2",
				":agent",
				":load /srv/group.json ops",
				"opsping",
				":load /srv/group.json",
				":groups",
				":unload owner-1",
				":groups",
				"",
				":exit",
				"whoami",
			},
			expStdout: []string{
				`{"command":"whoami"}`,
				"local",
				"a2",
				`loaded 1 commands as group "ops" (owner owner-1)`,
				`{"command":"opsping"}`,
				`loaded 1 commands as group "group" (owner owner-2)`,
				"owner-1  ops  1 commands",
				"owner-2  group  1 commands",
				"removed 1 group(s)",
				"owner-2  group  1 commands",
			},
		},
		{
			name: "errors_do_not_end_session",
			args: []string{"-catalog", "/srv/commands.json"},
			lines: []string{
				"nope",
				":bogus",
				":agent a b",
				":load",
				":load /srv/missing.json",
				":unload owner-9",
				"shell",
				"whoami",
			},
			expStdout: []string{
				`{"command":"whoami"}`,
			},
			expStderr: []string{
				`error: "nope": unknown command`,
				`error: unknown shell command ":bogus", see :help`,
				"error: usage: :agent [ID]",
				"error: usage: :load FILE [NAME]",
				"error: failed to load group",
				`error: no groups registered under "owner-9"`,
				"missing required argument",
			},
		},
		{
			name:  "agent_flag",
			args:  []string{"-catalog", "/srv/commands.json", "-agent", "4f2a9c"},
			lines: []string{":agent", ":quit"},
			expStdout: []string{
				"4f2a9c",
			},
		},
		{
			name:  "hook_outcome",
			args:  []string{"-catalog", "/srv/commands.json", "-hook", "sh,-c,cat >/dev/null; echo nope"},
			lines: []string{"guarded", "whoami"},
			expStdout: []string{
				`{"command":"whoami"}`,
			},
			expStderr: []string{
				"error: pre-hook: nope",
			},
		},
		{
			name:   "unexpected_args",
			args:   []string{"-catalog", "/srv/commands.json", "whoami"},
			expErr: `unexpected arguments: ["whoami"]`,
		},
		{
			name:   "no_catalog",
			expErr: "catalog is required",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var n int
			cmd := &ShellCommand{
				newOwnerID: func() string {
					n++
					return fmt.Sprintf("owner-%d", n)
				},
			}
			cmd.fs = testFS(t)
			cmd.SetLookupEnv(cli.MapLookuper(nil))
			stdin, stdout, stderr := cmd.Pipe()
			for _, l := range tc.lines {
				stdin.WriteString(l + "\n")
			}

			err := cmd.Run(testContext(t), tc.args)
			if diff := testutil.DiffErrString(err, tc.expErr); diff != "" {
				t.Errorf("Unexpected err: %s", diff)
			}

			var got []string
			if s := strings.TrimSpace(stdout.String()); s != "" {
				got = strings.Split(s, "\n")
			}
			if diff := cmp.Diff(tc.expStdout, got); diff != "" {
				t.Errorf("stdout (-want, +got):\n%s", diff)
			}
			for _, want := range tc.expStderr {
				if got := stderr.String(); !strings.Contains(got, want) {
					t.Errorf("expected stderr\n\n%s\n\nto contain\n\n%s\n\n", got, want)
				}
			}
		})
	}
}

func TestSession_applyEvents(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	fs := testFS(t)

	flags := &hostFlags{catalogPath: "/srv/commands.json", extensions: "/srv/ext/**/*.json"}
	cfg, err := flags.loadConfig(ctx, fs, cli.MapLookuper(nil))
	if err != nil {
		t.Fatal(err)
	}
	h, err := newHost(ctx, fs, cfg, flags)
	if err != nil {
		t.Fatal(err)
	}

	var stderr strings.Builder
	s := &session{
		host:     h,
		agentID:  "a1",
		stdout:   io.Discard,
		stderr:   &stderr,
		errColor: color.New(color.FgRed),
	}

	if err := afero.WriteFile(fs, "/srv/ext/ldap/ldap.json", []byte(`[{"command": "ldapsearch"}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	events := make(chan extwatch.Event, 4)
	events <- extwatch.Event{Kind: extwatch.Added, Path: "/srv/ext/ldap/ldap.json"}
	events <- extwatch.Event{Kind: extwatch.Removed, Path: "/srv/ext/sa/sa.json"}
	events <- extwatch.Event{Kind: extwatch.Changed, Path: "/srv/ext/gone/gone.json"}
	s.applyEvents(ctx, events)

	var names []string
	for _, ext := range h.catalog.Extensions() {
		names = append(names, ext.DisplayName)
	}
	if diff := cmp.Diff([]string{"ldap"}, names); diff != "" {
		t.Errorf("extensions (-want, +got):\n%s", diff)
	}
	if got, want := stderr.String(), "failed to load extension"; !strings.Contains(got, want) {
		t.Errorf("expected stderr %q to contain %q", got, want)
	}

	// Nothing pending returns immediately.
	s.applyEvents(ctx, events)
	s.applyEvents(ctx, nil)
}

func TestCompletions(t *testing.T) {
	t.Parallel()

	entries := []string{"shell", "help shell", "sharpview", "shell", "help sharpview", ":help", ":agent"}

	cases := []struct {
		name   string
		prefix string
		exp    []string
	}{
		{name: "all", prefix: "", exp: []string{":agent", ":help", "help sharpview", "help shell", "sharpview", "shell"}},
		{name: "prefix", prefix: "sh", exp: []string{"sharpview", "shell"}},
		{name: "help", prefix: "help s", exp: []string{"help sharpview", "help shell"}},
		{name: "shell_commands", prefix: ":", exp: []string{":agent", ":help"}},
		{name: "none", prefix: "zz", exp: nil},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if diff := cmp.Diff(tc.exp, completions(entries, tc.prefix)); diff != "" {
				t.Errorf("completions (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestCompleter_Do(t *testing.T) {
	t.Parallel()

	ctx := testContext(t)
	fs := testFS(t)

	flags := &hostFlags{catalogPath: "/srv/commands.json"}
	cfg, err := flags.loadConfig(ctx, fs, cli.MapLookuper(nil))
	if err != nil {
		t.Fatal(err)
	}
	h, err := newHost(ctx, fs, cfg, flags)
	if err != nil {
		t.Fatal(err)
	}

	c := &completer{catalog: h.catalog}
	got, n := c.Do([]rune("help sh"), len("help sh"))
	if n != len("help sh") {
		t.Errorf("expected length %d, got %d", len("help sh"), n)
	}

	var suffixes []string
	for _, r := range got {
		suffixes = append(suffixes, string(r))
	}
	if diff := cmp.Diff([]string{"ell "}, suffixes); diff != "" {
		t.Errorf("suffixes (-want, +got):\n%s", diff)
	}
}
