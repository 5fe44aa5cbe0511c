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
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"

	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/internal/testutil"
	"github.com/abcxyz/commander/logging"
)

const testCatalog = `[
  // Built-in commands used by the host tests.
  {"command": "whoami", "description": "Print the agent user"},
  {
    "command": "shell",
    "description": "Run a shell command",
    "example": "shell -t 5 whoami",
    "args": ["INT [-t timeout] (10)", "STRING <cmd>"]
  },
  {"command": "upload", "args": ["FILE <path>", "STRING [dest] (C:\\Temp)"]},
  {"command": "guarded", "pre_hook": "confirm"},
  {"command": "ps", "exec": "shell -t 5 tasklist"},
  {"command": "archinfo", "exec": "shell $ARCH()"},
  {"command": "broken", "args": ["NOPE <x>"]}
]`

const testGroup = `[{"command": "opsping", "description": "Ping from the ops group"}]`

const testExtension = `[{"command": "netview", "exec": "shell \"net view\""}]`

func testFS(tb testing.TB) afero.Fs {
	tb.Helper()

	return testutil.MemFS(tb, map[string]string{
		"/srv/commands.json":  testCatalog,
		"/srv/group.json":     testGroup,
		"/srv/ext/sa/sa.json": testExtension,
		"/srv/payload.bin":    "payload",
		"/etc/commander.yaml": "catalog: /srv/commands.json\nagent_id: cfg-agent\n",
	})
}

func testContext(tb testing.TB) context.Context {
	tb.Helper()
	return logging.WithLogger(context.Background(), logging.TestLogger(tb))
}

func TestHostFlags_loadConfig(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		flags   hostFlags
		env     map[string]string
		check   func(tb testing.TB, h *host)
		wantErr string
	}{
		{
			name:    "no_catalog",
			wantErr: "catalog is required",
		},
		{
			name:  "config_file",
			flags: hostFlags{configPath: "/etc/commander.yaml"},
			check: func(tb testing.TB, h *host) {
				tb.Helper()
				if got, want := h.agentID(), "cfg-agent"; got != want {
					tb.Errorf("expected agent %q to be %q", got, want)
				}
			},
		},
		{
			name:    "missing_explicit_config",
			flags:   hostFlags{configPath: "/etc/nope.yaml"},
			wantErr: "failed to read config file",
		},
		{
			name:  "flags_override_env_and_file",
			flags: hostFlags{configPath: "/etc/commander.yaml", agentID: "flag-agent"},
			env:   map[string]string{"COMMANDER_AGENT_ID": "env-agent"},
			check: func(tb testing.TB, h *host) {
				tb.Helper()
				if got, want := h.agentID(), "flag-agent"; got != want {
					tb.Errorf("expected agent %q to be %q", got, want)
				}
			},
		},
		{
			name:  "env_catalog",
			env:   map[string]string{"COMMANDER_CATALOG": "/srv/commands.json", "COMMANDER_EXTENSIONS": "/srv/ext/**/*.json"},
			flags: hostFlags{agentArch: map[string]string{"*": "x86"}},
			check: func(tb testing.TB, h *host) {
				tb.Helper()
				if got, want := len(h.catalog.Extensions()), 1; got != want {
					tb.Errorf("expected %d extensions, got %d", want, got)
				}
				arch, err := h.archLookup().Arch(context.Background(), "any")
				if err != nil {
					tb.Fatal(err)
				}
				if got, want := arch, "x86"; got != want {
					tb.Errorf("expected arch %q to be %q", got, want)
				}
			},
		},
		{
			name:    "unreadable_catalog",
			flags:   hostFlags{catalogPath: "/srv/nope.json"},
			wantErr: "failed to load catalog",
		},
	}

	for _, tc := range cases {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := testContext(t)
			fs := testFS(t)

			cfg, err := tc.flags.loadConfig(ctx, fs, cli.MapLookuper(tc.env))
			var h *host
			if err == nil {
				h, err = newHost(ctx, fs, cfg, &tc.flags)
			}
			if diff := testutil.DiffErrString(err, tc.wantErr); diff != "" {
				t.Fatal(diff)
			}
			if h == nil {
				return
			}
			t.Cleanup(func() {
				if err := h.Close(); err != nil {
					t.Error(err)
				}
			})

			if tc.check != nil {
				tc.check(t, h)
			}
		})
	}
}

func TestHost_reloadExtension(t *testing.T) {
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

	if _, _, ok := h.catalog.Lookup("netview"); !ok {
		t.Fatalf("expected netview to be loaded")
	}

	if err := afero.WriteFile(fs, "/srv/ext/sa/sa.json", []byte(`[{"command": "netshares"}]`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := h.reloadExtension(ctx, "/srv/ext/sa/sa.json", false); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := h.catalog.Lookup("netview"); ok {
		t.Errorf("expected netview to be replaced")
	}
	if _, _, ok := h.catalog.Lookup("netshares"); !ok {
		t.Errorf("expected netshares to be loaded")
	}

	if err := h.reloadExtension(ctx, "/srv/ext/sa/sa.json", true); err != nil {
		t.Fatal(err)
	}
	if got := len(h.catalog.Extensions()); got != 0 {
		t.Errorf("expected no extensions, got %d", got)
	}

	// Removing an unknown extension is not an error.
	if err := h.reloadExtension(ctx, "/srv/ext/other.json", true); err != nil {
		t.Error(err)
	}
}

func TestUnjoin(t *testing.T) {
	t.Parallel()

	a, b, c := errors.New("a"), errors.New("b"), errors.New("c")
	got := unjoin(errors.Join(a, errors.Join(b, c)))
	if diff := cmp.Diff([]error{a, b, c}, got, cmp.Comparer(func(x, y error) bool { return x == y })); diff != "" {
		t.Errorf("unjoin (-want, +got):\n%s", diff)
	}
	if got := unjoin(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestCloser(t *testing.T) {
	t.Parallel()

	var order []string
	var c closer
	c.add(func() error {
		order = append(order, "first")
		return errors.New("first failed")
	})
	c.add(nil)
	c.add(func() error {
		order = append(order, "second")
		return nil
	})

	err := c.Close()
	if diff := testutil.DiffErrString(err, "first failed"); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([]string{"second", "first"}, order); diff != "" {
		t.Errorf("close order (-want, +got):\n%s", diff)
	}

	if err := c.Close(); err != nil {
		t.Errorf("expected second close to be a no-op, got %s", err)
	}
}
