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

package catalog

import (
	"github.com/abcxyz/commander/argspec"
)

// ReservedNames are field names that a command may not declare, because the
// task already uses them.
var ReservedNames = []string{"command", "subcommand", "message"}

// Command is one command definition. Subcommands use the same type; their
// Subcommands are always empty. Commands are immutable once loaded.
type Command struct {
	Name        string
	Description string
	Example     string

	// Message is the template for the human-readable task message. Every
	// "<field>" placeholder is replaced by the bound value of that field.
	Message string

	// Exec is the lower-level command line this command expands into. It may
	// be empty.
	Exec string

	// PreHook names the hook routine that must approve the command. A non-empty
	// value makes the pre-hook required.
	PreHook string

	Args []*argspec.Argument

	// Subcommands own their argument namespace. When a command has any, its
	// Args are ignored during binding.
	Subcommands []*Command

	// SourcePath is the file the command was loaded from, if any.
	SourcePath string
}

// HasSubcommands reports whether the command requires a subcommand token.
func (c *Command) HasSubcommands() bool {
	return len(c.Subcommands) > 0
}

// Subcommand returns the subcommand with the given name, or nil.
func (c *Command) Subcommand(name string) *Command {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// PreHookRequired reports whether the command declares a pre-hook.
func (c *Command) PreHookRequired() bool {
	return c.PreHook != ""
}

// Arg returns the declared argument with the given field name, or nil.
func (c *Command) Arg(name string) *argspec.Argument {
	for _, arg := range c.Args {
		if arg.Name == name {
			return arg
		}
	}
	return nil
}

func isReserved(name string) bool {
	for _, r := range ReservedNames {
		if r == name {
			return true
		}
	}
	return false
}
