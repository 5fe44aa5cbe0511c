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

	"github.com/abcxyz/commander/bof"
	"github.com/abcxyz/commander/internal/cli"
)

var _ cli.Command = (*PackCommand)(nil)

// PackCommand packs values into a BOF argument buffer.
type PackCommand struct {
	cli.BaseCommand

	flagTypes string
}

func (c *PackCommand) Desc() string {
	return "Pack BOF arguments"
}

func (c *PackCommand) Help() string {
	return `
Usage: {{ COMMAND }} -types TYPES [VALUE...]

  Pack the values into a length-prefixed BOF argument buffer and print it as
  Base64. TYPES is a comma separated list aligned with the values: cstr, wstr,
  bytes (Base64 input), int and short. Integers are decimal, or hexadecimal
  with a 0x prefix.

      {{ COMMAND }} -types wstr,int -- C:\Windows 4
`
}

func (c *PackCommand) Flags() *cli.FlagSet {
	set := c.NewFlagSet()

	f := set.NewSection("PACK OPTIONS")
	f.StringVar(&cli.StringVar{
		Name:    "types",
		Aliases: []string{"t"},
		Example: "wstr,int",
		Usage:   "Comma separated value types.",
		Target:  &c.flagTypes,
	})
	return set
}

func (c *PackCommand) Run(ctx context.Context, args []string) error {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	blob, err := bof.Pack(c.flagTypes, f.Args())
	if err != nil {
		return err //nolint:wrapcheck // PackError names the failing value.
	}
	c.Outf("%s", blob)
	return nil
}
