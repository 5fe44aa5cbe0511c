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

	"github.com/abcxyz/commander/internal/cli"
	"github.com/abcxyz/commander/tokenizer"
)

var _ cli.Command = (*DispatchCommand)(nil)

// DispatchCommand compiles one line into a task.
type DispatchCommand struct {
	hostCommand
}

func (c *DispatchCommand) Desc() string {
	return "Compile one command line into a task"
}

func (c *DispatchCommand) Help() string {
	return `
Usage: {{ COMMAND }} [options] [LINE...]

  Resolve LINE against the catalog and print the resulting task as JSON. The
  arguments are joined back into one line with quoting preserved. Without
  arguments, the line is read from stdin.

      {{ COMMAND }} -agent 4f2a9c -- shell whoami /all
`
}

func (c *DispatchCommand) Flags() *cli.FlagSet {
	return c.hostFlagSet()
}

func (c *DispatchCommand) Run(ctx context.Context, args []string) error {
	f, err := c.parse(ctx, args, c.Flags)
	if err != nil {
		return err
	}

	var line string
	if rest := f.Args(); len(rest) > 0 {
		line = tokenizer.Join(rest)
	} else {
		line, err = c.Prompt(ctx, "command: ")
		if err != nil {
			return fmt.Errorf("failed to read line: %w", err)
		}
	}

	h, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	res, err := h.commander.ProcessInput(ctx, h.agentID(), line)
	if err != nil {
		return err //nolint:wrapcheck // Typed errors are reported as-is.
	}
	return writeResult(c.Stdout(), c.Stderr(), res)
}
