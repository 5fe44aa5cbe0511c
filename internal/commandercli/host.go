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
	"fmt"
	"log/slog"
	"time"

	"github.com/posener/complete/v2/predict"
	"github.com/spf13/afero"

	"github.com/abcxyz/commander/agent"
	"github.com/abcxyz/commander/catalog"
	"github.com/abcxyz/commander/commander"
	"github.com/abcxyz/commander/hook"
	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/internal/config"
	"github.com/abcxyz/commander/logging"
)

// hostFlags are the flags shared by every command that dispatches lines.
type hostFlags struct {
	configPath  string
	catalogPath string
	extensions  string
	agentID     string
	hookCommand []string
	hookTimeout time.Duration
	agentArch   map[string]string
	noHooks     bool
	noExec      bool
}

func (f *hostFlags) register(set *cli.FlagSet, logger *slog.Logger) {
	sec := set.NewSection("HOST OPTIONS")

	sec.StringVar(&cli.StringVar{
		Name:    "config",
		Example: "~/.config/commander/config.yaml",
		Usage:   "Path to the YAML configuration file. The file is optional unless this flag is given.",
		Predict: predict.Files("*.yaml"),
		Target:  &f.configPath,
	})
	sec.StringVar(&cli.StringVar{
		Name:    "catalog",
		Aliases: []string{"c"},
		Example: "commands.json",
		Usage:   "Path to the built-in command file. Overrides the configuration.",
		Predict: predict.Files("*.json"),
		Target:  &f.catalogPath,
	})
	sec.StringVar(&cli.StringVar{
		Name:    "extensions",
		Example: "~/.commander/extensions/**/*.json",
		Usage:   "Glob of extension command files. Overrides the configuration.",
		Target:  &f.extensions,
	})
	sec.StringVar(&cli.StringVar{
		Name:    "agent",
		Aliases: []string{"a"},
		Example: "4f2a9c",
		Usage:   "Agent id lines are dispatched for. Overrides the configuration.",
		Target:  &f.agentID,
	})
	sec.StringMapVar(&cli.StringMapVar{
		Name:    "arch",
		Example: "4f2a9c=x64",
		Usage:   "Architecture of an agent as id=arch, used for $ARCH(). May be repeated; \"*\" matches every agent.",
		Target:  &f.agentArch,
	})

	hooks := set.NewSection("PIPELINE OPTIONS")
	hooks.StringSliceVar(&cli.StringSliceVar{
		Name:    "hook",
		Example: "python3,hooks.py",
		Usage:   "Program serving pre-hooks, as a comma separated command line. Overrides the configuration.",
		Target:  &f.hookCommand,
	})
	hooks.DurationVar(&cli.DurationVar{
		Name:    "hook-timeout",
		Example: "10s",
		Usage:   "Maximum duration of one pre-hook call. Overrides the configuration.",
		Target:  &f.hookTimeout,
	})
	hooks.BoolVar(&cli.BoolVar{
		Name:   "no-hooks",
		Usage:  "Do not call pre-hooks.",
		Target: &f.noHooks,
	})
	hooks.BoolVar(&cli.BoolVar{
		Name:   "no-exec",
		Usage:  "Do not expand exec templates; commands produce their own task.",
		Target: &f.noExec,
	})

	set.NewSection("GENERAL OPTIONS").LogLevelVar(&cli.LogLevelVar{
		Logger: logger,
	})
}

// loadConfig reads the configuration and applies flag overrides.
func (f *hostFlags) loadConfig(ctx context.Context, fs afero.Fs, lookupEnv cli.LookupEnvFunc) (*config.Config, error) {
	path, required := f.configPath, true
	if path == "" {
		path, required = config.DefaultPath(), false
	}

	cfg, err := config.LoadFile(ctx, fs, path, required, lookuper(lookupEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if f.catalogPath != "" {
		cfg.Catalog = f.catalogPath
	}
	if f.extensions != "" {
		cfg.Extensions = f.extensions
	}
	if f.agentID != "" {
		cfg.AgentID = f.agentID
	}
	if len(f.hookCommand) > 0 {
		cfg.HookCommand = f.hookCommand
	}
	if f.hookTimeout > 0 {
		cfg.HookTimeout = f.hookTimeout
	}
	if len(f.agentArch) > 0 {
		if cfg.AgentArch == nil {
			cfg.AgentArch = make(map[string]string, len(f.agentArch))
		}
		for k, v := range f.agentArch {
			cfg.AgentArch[k] = v
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// lookuper adapts a [cli.LookupEnvFunc] to the envconfig lookuper interface.
type lookuper cli.LookupEnvFunc

func (l lookuper) Lookup(key string) (string, bool) {
	return l(key)
}

// host is a loaded catalog and the commander dispatching against it.
type host struct {
	cfg       *config.Config
	fs        afero.Fs
	catalog   *catalog.Catalog
	commander *commander.Commander

	// hook serves pre-hooks of built-ins, extensions and groups loaded by the
	// shell. It is nil when no hook program is configured.
	hook hook.Hook

	closer closer
}

// newHost loads the catalog described by cfg. Commands that fail to load are
// logged and skipped; an unreadable built-in file is an error.
func newHost(ctx context.Context, fs afero.Fs, cfg *config.Config, f *hostFlags) (*host, error) {
	logger := logging.FromContext(ctx)

	builtins, err := catalog.LoadFile(fs, cfg.Catalog)
	if err := fatalLoadError(err); err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logLoadErrors(ctx, err)

	h := &host{
		cfg:     cfg,
		fs:      fs,
		catalog: catalog.New(builtins...),
	}

	if len(cfg.HookCommand) > 0 {
		h.hook = hook.NewProcess(cfg.HookCommand)
		h.catalog.SetBuiltinHook(h.hook)
	}

	if cfg.Extensions != "" {
		exts, err := catalog.LoadExtensions(fs, cfg.Extensions)
		logLoadErrors(ctx, err)
		for _, ext := range exts {
			if err := h.catalog.AddExtension(ext.Path, ext.DisplayName, ext.Commands); err != nil {
				logger.WarnContext(ctx, "skipping extension", "error", err)
			}
		}
	}

	h.commander = commander.New(h.catalog, &commander.Options{
		Hooks:       h.hook != nil && !f.noHooks,
		ExpandExec:  !f.noExec,
		HookTimeout: cfg.HookTimeout,
		FS:          fs,
		Arch:        h.archLookup(),
	})

	logger.DebugContext(ctx, "catalog loaded",
		"catalog", cfg.Catalog,
		"builtins", len(builtins),
		"extensions", len(h.catalog.Extensions()),
		"hooks", h.hook != nil && !f.noHooks)
	return h, nil
}

// archLookup combines the static table with the cached lookup program. It
// returns nil when neither is configured.
func (h *host) archLookup() agent.ArchLookup {
	var lookups []agent.ArchLookup
	if len(h.cfg.AgentArch) > 0 {
		lookups = append(lookups, agent.Static(h.cfg.AgentArch))
	}
	if len(h.cfg.ArchCommand) > 0 {
		cached := agent.NewCachedLookup(agent.NewCommand(h.cfg.ArchCommand...), h.cfg.ArchCacheTTL)
		h.closer.add(func() error {
			cached.Stop()
			return nil
		})
		lookups = append(lookups, cached)
	}
	if len(lookups) == 0 {
		return nil
	}
	return agent.Chain(lookups...)
}

// agentID returns the agent lines are dispatched for.
func (h *host) agentID() string {
	return h.cfg.AgentID
}

// Close releases background resources of the host.
func (h *host) Close() error {
	return h.closer.Close()
}

// reloadExtension replaces the commands of the extension at path with the
// current file content. A missing file only removes the extension.
func (h *host) reloadExtension(ctx context.Context, path string, remove bool) error {
	if err := h.catalog.RemoveExtension(path); err != nil && !errors.Is(err, catalog.ErrUnknownExtension) {
		return fmt.Errorf("failed to unload extension: %w", err)
	}
	if remove {
		return nil
	}

	ext, err := catalog.LoadExtension(h.fs, path)
	if err := fatalLoadError(err); err != nil {
		return fmt.Errorf("failed to load extension: %w", err)
	}
	logLoadErrors(ctx, err)

	if err := h.catalog.AddExtension(ext.Path, ext.DisplayName, ext.Commands); err != nil {
		return fmt.Errorf("failed to register extension: %w", err)
	}
	return nil
}

// fatalLoadError returns err if the whole file failed to load.
func fatalLoadError(err error) error {
	var le *catalog.LoadError
	if errors.As(err, &le) && le.Index < 0 {
		return err
	}
	return nil
}

// logLoadErrors logs every command that failed to load.
func logLoadErrors(ctx context.Context, err error) {
	if err == nil {
		return
	}

	logger := logging.FromContext(ctx)
	for _, e := range unjoin(err) {
		logger.WarnContext(ctx, "skipping command", "error", e)
	}
}

// unjoin flattens errors created with [errors.Join].
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok { //nolint:errorlint // Only joins are flattened, not wrapped errors.
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, unjoin(e)...)
		}
		return out
	}
	return []error{err}
}

// closer runs cleanup functions in reverse order of registration, joining
// their errors. All functions run even if one of them panics.
type closer struct {
	fns []func() error
}

func (c *closer) add(fn func() error) {
	if fn != nil {
		c.fns = append(c.fns, fn)
	}
}

// Close runs the cleanup functions once.
func (c *closer) Close() (err error) {
	fns := c.fns
	c.fns = nil
	for _, fn := range fns {
		defer func() {
			err = errors.Join(err, fn())
		}()
	}
	return
}
