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
	"fmt"
	"strings"

	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/tokenizer"
)

var (
	_ cli.Command = (*HelpCommand)(nil)
	_ cli.Command = (*ListCommand)(nil)
)

// HelpCommand renders catalog help.
type HelpCommand struct {
	hostCommand
}

func (c *HelpCommand) Desc() string {
	return "Show help for catalog commands"
}

func (c *HelpCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options] [COMMAND [SUBCOMMAND]]

  Without arguments, list every visible command grouped by where it comes
  from. With a command name, show its usage and arguments.
`
}

func (c *HelpCommand) Flags() *cli.FlagSet {
	return c.hostFlagSet()
}

func (c *HelpCommand) Run(ctx context.Context, args []string) error {
	f, err := c.parse(ctx, args, c.Flags)
	if err != nil {
		return err
	}
	if len(f.Args()) > 2 {
		return fmt.Errorf("expected at most 2 arguments, got %d", len(f.Args()))
	}

	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	line := strings.TrimSpace("help " + tokenizer.Join(f.Args()))
	res, err := h.commander.ProcessInput(ctx, h.agentID(), line)
	if err != nil {
		return err //nolint:wrapcheck // Typed errors are reported as-is.
	}
	return writeResult(c.Stdout(), c.Stderr(), res)
}

// ListCommand prints every dispatchable entry, one per line.
type ListCommand struct {
	hostCommand
}

func (c *ListCommand) Desc() string {
	return "List dispatchable commands"
}

func (c *ListCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options]

  Print every "command" and "command subcommand" entry followed by its "help"
  entry, in lookup order. Shadowed commands are left out.
`
}

func (c *ListCommand) Flags() *cli.FlagSet {
	return c.hostFlagSet()
}

func (c *ListCommand) Run(ctx context.Context, args []string) error {
	f, err := c.parse(ctx, args, c.Flags)
	if err != nil {
		return err
	}
	if len(f.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %q", f.Args())
	}

	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	for _, entry := range h.catalog.ListAll() {
		c.Outf("%s", entry)
	}
	return nil
}
