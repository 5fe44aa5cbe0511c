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

// Package commandercli implements the commander binary.
package commandercli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/abcxyz/commander/commander"
	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/internal/version"
	"github.com/abcxyz/commander/logging"
)

// rootCmd defines the starting command structure.
var rootCmd = func() *cli.RootCommand {
	return &cli.RootCommand{
		Name:    version.Name,
		Version: version.HumanVersion,
		Commands: map[string]cli.CommandFactory{
			"dispatch": func() cli.Command {
				return &DispatchCommand{}
			},
			"help": func() cli.Command {
				return &HelpCommand{}
			},
			"list": func() cli.Command {
				return &ListCommand{}
			},
			"pack": func() cli.Command {
				return &PackCommand{}
			},
			"shell": func() cli.Command {
				return &ShellCommand{}
			},
			"validate": func() cli.Command {
				return &ValidateCommand{}
			},
		},
	}
}

// Run executes the CLI.
func Run(ctx context.Context, args []string) error {
	return rootCmd().Run(ctx, args) //nolint:wrapcheck // Want passthrough
}

// Complete answers a shell completion request and exits if the process was
// started by a completion-enabled shell. It does nothing otherwise.
func Complete() {
	rootCmd().Completions().Complete(version.Name)
}

// hostCommand is embedded by the commands that dispatch lines through a
// catalog.
type hostCommand struct {
	cli.BaseCommand

	flags hostFlags

	// fs overrides the filesystem for catalogs, configuration and FILE
	// arguments.
	fs afero.Fs

	logger *slog.Logger
}

func (c *hostCommand) filesystem() afero.Fs {
	if c.fs == nil {
		c.fs = afero.NewOsFs()
	}
	return c.fs
}

// hostFlagSet returns a flag set holding the host flags.
func (c *hostCommand) hostFlagSet() *cli.FlagSet {
	logger := c.logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}

	set := c.NewFlagSet()
	c.flags.register(set, logger)
	return set
}

// parse parses args with set, binding the logger of ctx to -log-level first.
func (c *hostCommand) parse(ctx context.Context, args []string, flags func() *cli.FlagSet) (*cli.FlagSet, error) {
	c.logger = logging.FromContext(ctx)
	set := flags()
	if err := set.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	return set, nil
}

// open loads the configuration and the catalog.
func (c *hostCommand) open(ctx context.Context) (*host, error) {
	cfg, err := c.flags.loadConfig(ctx, c.filesystem(), c.LookupEnv)
	if err != nil {
		return nil, err
	}
	return newHost(ctx, c.filesystem(), cfg, &c.flags)
}

// writeResult prints the outcome of one line: help text and tasks go to
// stdout, hook outcomes to stderr. A hook error message is returned as an
// error.
func writeResult(stdout, stderr io.Writer, res *commander.Result) error {
	switch {
	case res.Help != "":
		fmt.Fprintln(stdout, strings.TrimRight(res.Help, "\n"))
	case res.Suppressed:
		fmt.Fprintln(stderr, "handled by pre-hook")
	case res.HookError != "":
		return fmt.Errorf("pre-hook: %s", res.HookError)
	default:
		b, err := json.Marshal(res.Task)
		if err != nil {
			return fmt.Errorf("failed to encode task: %w", err)
		}
		fmt.Fprintln(stdout, string(b))
	}
	return nil
}
