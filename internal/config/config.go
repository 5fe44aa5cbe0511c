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

// Package config loads the configuration of the commander host.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by [Load].
const EnvPrefix = "COMMANDER_"

// Config is the host configuration. Values come from the YAML file first and
// are overwritten by environment variables.
type Config struct {
	// Catalog is the path of the built-in command file.
	Catalog string `yaml:"catalog,omitempty" env:"CATALOG,overwrite"`

	// Extensions is a doublestar glob of extension files, e.g.
	// "~/.commander/extensions/**/*.json".
	Extensions string `yaml:"extensions,omitempty" env:"EXTENSIONS,overwrite"`

	// HookCommand is the program serving pre-hooks. Hooks are disabled when it
	// is empty.
	HookCommand []string `yaml:"hook_command,omitempty" env:"HOOK_COMMAND,overwrite"`

	HookTimeout time.Duration `yaml:"hook_timeout,omitempty" env:"HOOK_TIMEOUT,overwrite,default=30s"`

	// AgentArch maps agent ids to architectures. The "*" key applies to all
	// agents not listed.
	AgentArch map[string]string `yaml:"agent_arch,omitempty" env:"AGENT_ARCH,overwrite"`

	// ArchCommand is a program printing the architecture of the agent id given
	// as its last argument. It is consulted after AgentArch.
	ArchCommand []string `yaml:"arch_command,omitempty" env:"ARCH_COMMAND,overwrite"`

	// ArchCacheTTL is how long answers of ArchCommand are cached.
	ArchCacheTTL time.Duration `yaml:"arch_cache_ttl,omitempty" env:"ARCH_CACHE_TTL,overwrite,default=5m"`

	// AgentID is the agent commands are dispatched for unless overridden.
	AgentID string `yaml:"agent_id,omitempty" env:"AGENT_ID,overwrite,default=local"`

	// HistoryFile is where the shell keeps its line history. Empty disables
	// history.
	HistoryFile string `yaml:"history_file,omitempty" env:"HISTORY_FILE,overwrite"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var merr error
	if c.Catalog == "" {
		merr = errors.Join(merr, fmt.Errorf("catalog is required"))
	}
	if c.Extensions != "" && !doublestar.ValidatePattern(c.Extensions) {
		merr = errors.Join(merr, fmt.Errorf("extensions %q is not a valid glob", c.Extensions))
	}
	if c.HookTimeout <= 0 {
		merr = errors.Join(merr, fmt.Errorf("hook_timeout must be positive, got %s", c.HookTimeout))
	}
	if len(c.ArchCommand) > 0 && c.ArchCacheTTL <= 0 {
		merr = errors.Join(merr, fmt.Errorf("arch_cache_ttl must be positive when arch_command is set, got %s", c.ArchCacheTTL))
	}
	if c.AgentID == "" {
		merr = errors.Join(merr, fmt.Errorf("agent_id is required"))
	}
	return merr
}

// Validatable is implemented by configs that can check themselves after
// loading.
type Validatable interface {
	Validate() error
}

type options struct {
	yamlBytes []byte
	envPrefix string
	lookuper  envconfig.Lookuper
}

// Option is the config loading option type.
type Option func(*options) *options

// WithYAML loads the given YAML document before environment variables.
func WithYAML(b []byte) Option {
	return func(o *options) *options {
		o.yamlBytes = b
		return o
	}
}

// WithEnvPrefix only reads environment variables with the given prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) *options {
		o.envPrefix = prefix
		return o
	}
}

// WithLookuper uses lookuper instead of the process environment.
func WithLookuper(lookuper envconfig.Lookuper) Option {
	return func(o *options) *options {
		o.lookuper = lookuper
		return o
	}
}

// Load fills cfg from, in increasing priority: its existing values, the YAML
// document and environment variables. If cfg is [Validatable], it is
// validated last.
func Load(ctx context.Context, cfg any, opt ...Option) error {
	opts := &options{
		lookuper: envconfig.OsLookuper(),
	}
	for _, o := range opt {
		opts = o(opts)
	}

	if opts.yamlBytes != nil {
		if err := yaml.Unmarshal(opts.yamlBytes, cfg); err != nil {
			return fmt.Errorf("failed to unmarshal yaml bytes: %w", err)
		}
	}

	lookuper := opts.lookuper
	if opts.envPrefix != "" {
		lookuper = envconfig.PrefixLookuper(opts.envPrefix, lookuper)
	}

	if err := envconfig.ProcessWith(ctx, cfg, lookuper); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if v, ok := cfg.(Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
	}
	return nil
}

// DefaultPath is the config file read when none is given.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "commander", "config.yaml")
}

// unvalidated has the fields of Config but not its Validate method.
type unvalidated Config

// LoadFile loads the host configuration from the YAML file at path and the
// COMMANDER_ environment. A missing file is only an error when required is
// true. Paths may start with "~/". The result is not validated, so callers can
// apply flag overrides before calling [Config.Validate].
func LoadFile(ctx context.Context, fs afero.Fs, path string, required bool, lookuper envconfig.Lookuper) (*Config, error) {
	var raw unvalidated

	opts := []Option{WithEnvPrefix(EnvPrefix)}
	if lookuper != nil {
		opts = append(opts, WithLookuper(lookuper))
	}

	if path != "" {
		b, err := afero.ReadFile(fs, path)
		switch {
		case err == nil:
			opts = append(opts, WithYAML(b))
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := Load(ctx, &raw, opts...); err != nil {
		return nil, err
	}

	cfg := Config(raw)
	for _, p := range []*string{&cfg.Catalog, &cfg.Extensions, &cfg.HistoryFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}
	return &cfg, nil
}
