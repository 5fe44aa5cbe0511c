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

package commander

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/abcxyz/commander/argspec"
)

// binding is the raw textual value of every bound argument.
type binding map[string]string

// bind assigns tokens to args, greedily from left to right. Each token is
// offered to the unbound arguments in declaration order: a flagged BOOL whose
// mark equals the token binds "true", another flagged argument whose mark
// equals the token takes the following token, and a positional argument takes
// the token itself. A token nobody takes is joined, together with every
// remaining token, to the most recently bound argument.
func bind(command string, args []*argspec.Argument, tokens []string) (binding, error) {
	b := make(binding, len(args))

	var last *argspec.Argument
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		var taken *argspec.Argument
		for _, arg := range args {
			if _, ok := b[arg.Name]; ok {
				continue
			}

			if arg.Flagged() {
				if arg.Mark != tok {
					continue
				}
				if arg.Type == argspec.TypeBool {
					b[arg.Name] = "true"
				} else {
					if i+1 >= len(tokens) {
						return nil, &BindingError{Command: command, Arg: arg.Name, Msg: fmt.Sprintf("flag %q requires a value", arg.Mark)}
					}
					i++
					b[arg.Name] = tokens[i]
				}
				taken = arg
				break
			}

			b[arg.Name] = tok
			taken = arg
			break
		}

		if taken != nil {
			last = taken
			continue
		}

		if last == nil || last.Type == argspec.TypeBool {
			return nil, &BindingError{Command: command, Msg: fmt.Sprintf("unexpected argument %q", tok)}
		}
		b[last.Name] += " " + strings.Join(tokens[i:], " ")
		break
	}
	return b, nil
}

// resolved is a bound argument list converted to task fields.
type resolved struct {
	fields []Field

	// texts holds the textual form of every field, used for message and exec
	// templates. FILE fields hold the path as typed.
	texts map[string]string
}

// resolve converts the binding of args into typed fields in declaration
// order. Unbound arguments take their default; unbound BOOL arguments without
// default are false and other unbound optional arguments are left out.
func (c *Commander) resolve(ctx context.Context, command string, args []*argspec.Argument, b binding) (*resolved, error) {
	out := &resolved{texts: make(map[string]string, len(args))}

	for _, arg := range args {
		raw, ok := b[arg.Name]
		if !ok {
			switch {
			case arg.HasDefault:
				raw = arg.Default
			case arg.Type == argspec.TypeBool:
				raw = "false"
			case arg.Required:
				return nil, &BindingError{Command: command, Arg: arg.Name, Msg: "missing required argument"}
			default:
				continue
			}
		}

		v, err := c.convert(ctx, arg, raw)
		if err != nil {
			return nil, &BindingError{Command: command, Arg: arg.Name, Err: err}
		}
		out.fields = append(out.fields, Field{Name: arg.Name, Value: v})

		switch typed := v.(type) {
		case int64:
			out.texts[arg.Name] = strconv.FormatInt(typed, 10)
		case bool:
			out.texts[arg.Name] = strconv.FormatBool(typed)
		default:
			out.texts[arg.Name] = raw
		}
	}
	return out, nil
}

func (c *Commander) convert(ctx context.Context, arg *argspec.Argument, raw string) (any, error) {
	switch arg.Type {
	case argspec.TypeInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", raw)
		}
		return n, nil
	case argspec.TypeBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q", raw)
		}
		return v, nil
	case argspec.TypeFile:
		return c.readFile(ctx, raw)
	default:
		return raw, nil
	}
}

// readFile reads the file at path and returns its content Base64-encoded. A
// leading "~/" is the home directory.
func (c *Commander) readFile(ctx context.Context, path string) (string, error) {
	p := path
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := c.homeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %q: %w", path, err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}

	c.logger(ctx).DebugContext(ctx, "reading file argument", "path", p)

	data, err := afero.ReadFile(c.fs, p)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// renderMessage replaces every "<name>" placeholder of tmpl with the text of
// the field.
func renderMessage(tmpl string, texts map[string]string) string {
	if tmpl == "" || !strings.Contains(tmpl, "<") {
		return tmpl
	}

	pairs := make([]string, 0, len(texts)*2)
	for name, text := range texts {
		pairs = append(pairs, "<"+name+">", text)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
