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

// Package catalog holds the command definitions available for dispatch.
//
// Commands live in three tiers which are searched in a fixed order: the
// built-in commands, then groups registered at runtime (in registration
// order), then extensions loaded from files (in registration order). The first
// command with a matching name wins; later commands with the same name are
// shadowed.
//
// A Catalog is not safe for concurrent use. Hosts must serialize mutation and
// lookups.
package catalog

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/abcxyz/commander/hook"
)

var (
	// ErrDuplicateExtension is returned when an extension path is registered
	// twice.
	ErrDuplicateExtension = errors.New("extension already loaded")

	// ErrUnknownExtension is returned when removing an extension that is not
	// loaded.
	ErrUnknownExtension = errors.New("extension not loaded")
)

// Kind is the tier a command comes from.
type Kind int

const (
	KindBuiltin Kind = iota
	KindGroup
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "builtin"
	case KindGroup:
		return "group"
	case KindExtension:
		return "extension"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Group is a batch of commands registered by one script session. All groups
// of an owner are removed together.
type Group struct {
	Name     string
	OwnerID  string
	Commands []*Command

	// Hook serves the pre-hooks of the group's commands. It may be nil.
	Hook hook.Hook
}

// Extension is a set of commands loaded from one file.
type Extension struct {
	Path        string
	DisplayName string
	Commands    []*Command
}

// Dir is the directory holding the extension file.
func (e *Extension) Dir() string {
	return filepath.Dir(e.Path)
}

// Scope describes where a resolved command comes from.
type Scope struct {
	Kind Kind

	// Name is the group or extension display name. It is empty for built-ins.
	Name string

	// OwnerID is set for groups.
	OwnerID string

	// ExtensionDir is set for extensions.
	ExtensionDir string

	// Hook serves pre-hooks for the scope. It may be nil.
	Hook hook.Hook
}

// Section is the list of visible commands of one scope, used to render help.
type Section struct {
	Scope    *Scope
	Commands []*Command
}

// Catalog is the three-tier command registry. The zero value is an empty
// catalog ready for use.
type Catalog struct {
	builtins   []*Command
	groups     []*Group
	extensions []*Extension

	// hook serves built-in pre-hooks.
	hook hook.Hook
}

// New creates a catalog with the given built-in commands.
func New(builtins ...*Command) *Catalog {
	return &Catalog{builtins: builtins}
}

// SetBuiltins replaces the built-in tier.
func (c *Catalog) SetBuiltins(cmds []*Command) {
	c.builtins = cmds
}

// SetBuiltinHook sets the hook used for pre-hooks of built-in commands and
// extensions.
func (c *Catalog) SetBuiltinHook(h hook.Hook) {
	c.hook = h
}

// AddGroup appends a group to the group tier.
func (c *Catalog) AddGroup(g *Group) {
	c.groups = append(c.groups, g)
}

// RemoveGroup removes every group registered by ownerID and returns how many
// were removed.
func (c *Catalog) RemoveGroup(ownerID string) int {
	kept := c.groups[:0]
	removed := 0
	for _, g := range c.groups {
		if g.OwnerID == ownerID {
			removed++
			continue
		}
		kept = append(kept, g)
	}
	clear(c.groups[len(kept):])
	c.groups = kept
	return removed
}

// Groups returns the registered groups in registration order.
func (c *Catalog) Groups() []*Group {
	return append([]*Group(nil), c.groups...)
}

// AddExtension registers the commands loaded from path. It returns
// [ErrDuplicateExtension] if path is already registered.
func (c *Catalog) AddExtension(path, name string, cmds []*Command) error {
	if c.extension(path) >= 0 {
		return fmt.Errorf("%s: %w", path, ErrDuplicateExtension)
	}
	c.extensions = append(c.extensions, &Extension{
		Path:        path,
		DisplayName: name,
		Commands:    cmds,
	})
	return nil
}

// RemoveExtension unregisters the extension loaded from path. It returns
// [ErrUnknownExtension] if path is not registered.
func (c *Catalog) RemoveExtension(path string) error {
	i := c.extension(path)
	if i < 0 {
		return fmt.Errorf("%s: %w", path, ErrUnknownExtension)
	}
	copy(c.extensions[i:], c.extensions[i+1:])
	c.extensions[len(c.extensions)-1] = nil
	c.extensions = c.extensions[:len(c.extensions)-1]
	return nil
}

// Extensions returns the registered extensions in registration order.
func (c *Catalog) Extensions() []*Extension {
	return append([]*Extension(nil), c.extensions...)
}

func (c *Catalog) extension(path string) int {
	for i, e := range c.extensions {
		if e.Path == path {
			return i
		}
	}
	return -1
}

// Lookup returns the first command named name, in tier order, and its scope.
func (c *Catalog) Lookup(name string) (*Command, *Scope, bool) {
	var (
		found *Command
		scope *Scope
	)
	c.walk(func(s *Scope, cmd *Command) bool {
		if cmd.Name != name {
			return true
		}
		found, scope = cmd, s
		return false
	})
	return found, scope, found != nil
}

// Sections returns the visible commands grouped by scope, in tier order.
// Shadowed commands and scopes without visible commands are left out.
func (c *Catalog) Sections() []*Section {
	var out []*Section
	seen := make(map[string]struct{})
	c.walk(func(s *Scope, cmd *Command) bool {
		if _, ok := seen[cmd.Name]; ok {
			return true
		}
		seen[cmd.Name] = struct{}{}

		if len(out) == 0 || out[len(out)-1].Scope != s {
			out = append(out, &Section{Scope: s})
		}
		last := out[len(out)-1]
		last.Commands = append(last.Commands, cmd)
		return true
	})
	return out
}

// ListAll returns every dispatchable "cmd" and "cmd sub" entry, each followed
// by the matching "help ..." entry. This is the input for line completion.
func (c *Catalog) ListAll() []string {
	var out []string
	for _, sec := range c.Sections() {
		for _, cmd := range sec.Commands {
			out = append(out, cmd.Name, "help "+cmd.Name)
			for _, sub := range cmd.Subcommands {
				entry := cmd.Name + " " + sub.Name
				out = append(out, entry, "help "+entry)
			}
		}
	}
	return out
}

// walk calls fn for every command in tier order, with a scope shared by all
// commands of the same tier entry. It stops when fn returns false.
func (c *Catalog) walk(fn func(s *Scope, cmd *Command) bool) {
	builtin := &Scope{Kind: KindBuiltin, Hook: c.hook}
	for _, cmd := range c.builtins {
		if !fn(builtin, cmd) {
			return
		}
	}

	for _, g := range c.groups {
		s := &Scope{Kind: KindGroup, Name: g.Name, OwnerID: g.OwnerID, Hook: g.Hook}
		for _, cmd := range g.Commands {
			if !fn(s, cmd) {
				return
			}
		}
	}

	for _, e := range c.extensions {
		s := &Scope{Kind: KindExtension, Name: e.DisplayName, ExtensionDir: e.Dir(), Hook: c.hook}
		for _, cmd := range e.Commands {
			if !fn(s, cmd) {
				return
			}
		}
	}
}
