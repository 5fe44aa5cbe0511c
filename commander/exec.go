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
	"fmt"
	"strings"

	"github.com/abcxyz/commander/argspec"
	"github.com/abcxyz/commander/bof"
	"github.com/abcxyz/commander/catalog"
)

// MaxExecDepth is how many exec templates may expand into each other for one
// line.
const MaxExecDepth = 8

const (
	archMacro   = "$ARCH()"
	extDirMacro = "$EXT_DIR()"
	packMacro   = "$PACK_BOF("
)

// packTypes maps the type keywords accepted in $PACK_BOF items to packer
// types.
var packTypes = map[string]string{
	"cstr":   bof.TypeString,
	"string": bof.TypeString,
	"str":    bof.TypeString,
	"wstr":   bof.TypeWideString,
	"wchar":  bof.TypeWideString,
	"bytes":  bof.TypeBytes,
	"file":   bof.TypeBytes,
	"int":    bof.TypeInt,
	"short":  bof.TypeShort,
}

// expansion is the input of one exec template expansion.
type expansion struct {
	agentID string
	command string
	scope   *catalog.Scope
	args    []*argspec.Argument
	task    *Task
	texts   map[string]string
}

// expand rewrites tmpl in fixed order: $ARCH() becomes the agent
// architecture, $EXT_DIR() the directory of the owning extension, each
// $PACK_BOF(...) a packed argument blob and finally every "{name}" the text of
// that field. Unknown placeholders are kept.
func (c *Commander) expand(ctx context.Context, tmpl string, e *expansion) (string, error) {
	out := tmpl

	if strings.Contains(out, archMacro) {
		if c.arch == nil {
			return "", &ResolutionError{Command: e.command, Msg: "no architecture lookup configured for " + archMacro}
		}
		arch, err := c.arch.Arch(ctx, e.agentID)
		if err != nil {
			return "", &ResolutionError{Command: e.command, Msg: "failed to look up agent architecture", Err: err}
		}
		out = strings.ReplaceAll(out, archMacro, arch)
	}

	if strings.Contains(out, extDirMacro) {
		if e.scope.Kind != catalog.KindExtension {
			return "", &ResolutionError{Command: e.command, Msg: extDirMacro + " used outside of an extension"}
		}
		out = strings.ReplaceAll(out, extDirMacro, e.scope.ExtensionDir)
	}

	for {
		start := strings.Index(out, packMacro)
		if start < 0 {
			break
		}
		end, err := closingParen(out, start+len(packMacro))
		if err != nil {
			return "", &ResolutionError{Command: e.command, Msg: err.Error()}
		}

		blob, err := c.pack(out[start+len(packMacro):end], e)
		if err != nil {
			return "", fmt.Errorf("%q: %w", e.command, err)
		}
		out = out[:start] + blob + out[end+1:]
	}

	return substitute(out, e.texts), nil
}

// closingParen returns the index of the parenthesis closing the one opened
// right before from.
func closingParen(s string, from int) (int, error) {
	depth := 1
	inQuote := false
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				depth++
			}
		case ')':
			if inQuote {
				continue
			}
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated %s", strings.TrimSuffix(packMacro, "("))
}

// pack packs the comma-separated "TYPE value" items of a $PACK_BOF macro. A
// value of the form "{name}" is the named field; FILE fields provide their
// Base64 content, other fields their text. Any other value is a literal.
func (c *Commander) pack(list string, e *expansion) (string, error) {
	items := splitItems(list)

	types := make([]string, 0, len(items))
	values := make([]string, 0, len(items))
	for _, item := range items {
		keyword, value, _ := strings.Cut(strings.TrimSpace(item), " ")
		typ, ok := packTypes[strings.ToLower(keyword)]
		if !ok {
			return "", &bof.PackError{Index: len(types), Msg: fmt.Sprintf("unknown type %q", keyword)}
		}

		value = strings.TrimSpace(value)
		if name, ok := placeholder(value); ok {
			v, err := fieldText(name, e)
			if err != nil {
				return "", err
			}
			value = v
		} else if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		types = append(types, typ)
		values = append(values, value)
	}

	return bof.Pack(strings.Join(types, ","), values) //nolint:wrapcheck // PackError is returned as-is.
}

func fieldText(name string, e *expansion) (string, error) {
	text, ok := e.texts[name]
	if !ok {
		return "", &ResolutionError{Command: e.command, Msg: fmt.Sprintf("field %q is not set", name)}
	}
	for _, arg := range e.args {
		if arg.Name == name && arg.Type == argspec.TypeFile {
			v, _ := e.task.Get(name)
			s, _ := v.(string)
			return s, nil
		}
	}
	return text, nil
}

// splitItems splits on commas outside of quotes and braces. An empty list has
// no items.
func splitItems(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		items   []string
		depth   int
		inQuote bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case '{':
			if !inQuote {
				depth++
			}
		case '}':
			if !inQuote && depth > 0 {
				depth--
			}
		case ',':
			if !inQuote && depth == 0 {
				items = append(items, s[start:i])
				start = i + 1
			}
		}
	}
	return append(items, s[start:])
}

// placeholder reports whether s is exactly "{name}".
func placeholder(s string) (string, bool) {
	if len(s) < 3 || s[0] != '{' || s[len(s)-1] != '}' {
		return "", false
	}
	name := s[1 : len(s)-1]
	if strings.ContainsAny(name, "{} ") {
		return "", false
	}
	return name, true
}

// substitute replaces every "{name}" placeholder of s that names a field.
func substitute(s string, texts map[string]string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			break
		}
		end += open

		name := s[open+1 : end]
		text, ok := texts[name]
		if !ok {
			// Keep the brace and continue right after it, so that a nested
			// "{{name}}" still resolves the inner placeholder.
			b.WriteString(s[:open+1])
			s = s[open+1:]
			continue
		}
		b.WriteString(s[:open])
		b.WriteString(text)
		s = s[end+1:]
	}
	b.WriteString(s)
	return b.String()
}
