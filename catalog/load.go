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
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/muhammadmuzzammil1998/jsonc"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/afero"

	"github.com/abcxyz/commander/argspec"
)

const schemaURL = "mem://catalog/command.schema.json"

//go:embed schema/command.schema.json
var commandSchema []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(commandSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to decode command schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to register command schema: %w", err)
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile command schema: %w", err)
	}
	return s, nil
})

// LoadError describes a catalog file, or one command in it, that could not be
// loaded.
type LoadError struct {
	// Source is the file path, if known.
	Source string

	// Index is the position of the command in the file, or -1 if the whole
	// file failed.
	Index int

	// Command is the command name, if it could be determined.
	Command string

	Err error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	switch {
	case e.Command != "":
		fmt.Fprintf(&b, "command %q: ", e.Command)
	case e.Index >= 0:
		fmt.Fprintf(&b, "entry %d: ", e.Index)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// rawCommand is the file form of a command or subcommand.
type rawCommand struct {
	Command     string        `json:"command"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Example     string        `json:"example"`
	Message     string        `json:"message"`
	Exec        string        `json:"exec"`
	PreHook     string        `json:"pre_hook"`
	Args        []string      `json:"args"`
	Subcommands []*rawCommand `json:"subcommands"`
}

// Parse decodes a catalog document: a JSON array of command objects, which
// may contain comments. Invalid commands are left out of the result and
// reported as [*LoadError] values joined into the returned error; the other
// commands are still returned. source is used in error messages and as
// [Command.SourcePath].
func Parse(data []byte, source string) ([]*Command, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &entries); err != nil {
		return nil, &LoadError{Source: source, Index: -1, Err: fmt.Errorf("expected an array of commands: %w", err)}
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, &LoadError{Source: source, Index: -1, Err: err}
	}

	var (
		cmds []*Command
		errs []error
	)
	seen := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		cmd, err := parseEntry(schema, entry, source)
		if err != nil {
			errs = append(errs, &LoadError{Source: source, Index: i, Command: entryName(entry), Err: err})
			continue
		}
		if _, ok := seen[cmd.Name]; ok {
			errs = append(errs, &LoadError{Source: source, Index: i, Command: cmd.Name, Err: errors.New("duplicate command name")})
			continue
		}
		seen[cmd.Name] = struct{}{}
		cmds = append(cmds, cmd)
	}
	return cmds, errors.Join(errs...)
}

// entryName extracts the command name of an entry for error messages.
func entryName(entry json.RawMessage) string {
	var v struct {
		Command any `json:"command"`
	}
	if err := json.Unmarshal(entry, &v); err != nil {
		return ""
	}
	s, _ := v.Command.(string)
	return s
}

func parseEntry(schema *jsonschema.Schema, entry json.RawMessage, source string) (*Command, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(entry))
	if err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}

	var raw rawCommand
	if err := json.Unmarshal(entry, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	if raw.Command == "help" {
		return nil, errors.New(`"help" is a reserved command name`)
	}

	cmd, err := buildCommand(raw.Command, &raw, source)
	if err != nil {
		return nil, err
	}

	subs := make(map[string]struct{}, len(raw.Subcommands))
	for _, rs := range raw.Subcommands {
		if _, ok := subs[rs.Name]; ok {
			return nil, fmt.Errorf("duplicate subcommand %q", rs.Name)
		}
		subs[rs.Name] = struct{}{}

		sub, err := buildCommand(rs.Name, rs, source)
		if err != nil {
			return nil, fmt.Errorf("subcommand %q: %w", rs.Name, err)
		}
		cmd.Subcommands = append(cmd.Subcommands, sub)
	}
	return cmd, nil
}

func buildCommand(name string, raw *rawCommand, source string) (*Command, error) {
	cmd := &Command{
		Name:        name,
		Description: raw.Description,
		Example:     raw.Example,
		Message:     raw.Message,
		Exec:        raw.Exec,
		PreHook:     raw.PreHook,
		SourcePath:  source,
	}

	names := make(map[string]struct{}, len(raw.Args))
	for _, spec := range raw.Args {
		arg, err := argspec.Parse(spec)
		if err != nil {
			return nil, err //nolint:wrapcheck // ParseError carries the spec.
		}
		if isReserved(arg.Name) {
			return nil, fmt.Errorf("argument name %q is reserved", arg.Name)
		}
		if _, ok := names[arg.Name]; ok {
			return nil, fmt.Errorf("duplicate argument name %q", arg.Name)
		}
		names[arg.Name] = struct{}{}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// LoadFile reads and parses one catalog file from fs. See [Parse] for how
// invalid commands are reported.
func LoadFile(fs afero.Fs, path string) ([]*Command, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &LoadError{Source: path, Index: -1, Err: err}
	}
	return Parse(data, path)
}

// LoadExtension reads the extension file at path. The display name is the
// file name without its extension. The extension is returned even if some or
// all of its commands failed to load.
func LoadExtension(fs afero.Fs, path string) (*Extension, error) {
	cmds, err := LoadFile(fs, path)
	base := filepath.Base(path)
	return &Extension{
		Path:        path,
		DisplayName: strings.TrimSuffix(base, filepath.Ext(base)),
		Commands:    cmds,
	}, err
}
