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

// Package help renders the catalog and single commands as fixed-width text.
//
// Conventions: commands owning subcommands carry a trailing "*" in the
// overview, subcommands are listed as "cmd sub" rows, and usage lines show
// required arguments as <name> and optional ones as [name], in declaration
// order.
package help

import (
	"fmt"
	"strings"

	"github.com/kr/text"

	"github.com/abcxyz/commander/catalog"
)

// maxLineLength is the width descriptions are wrapped at.
const maxLineLength = 80

// columnGap is the space between table columns.
const columnGap = 4

// Title returns the section heading for a scope.
func Title(s *catalog.Scope) string {
	switch s.Kind {
	case catalog.KindGroup:
		return "Group: " + s.Name
	case catalog.KindExtension:
		return "Extension: " + s.Name
	default:
		return "Built-in Commands"
	}
}

// Catalog renders every section as a two-column table of commands.
func Catalog(sections []*catalog.Section) string {
	var b strings.Builder
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		title := Title(sec.Scope)
		fmt.Fprintf(&b, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))

		rows := make([][]string, 0, len(sec.Commands))
		for _, cmd := range sec.Commands {
			name := cmd.Name
			if cmd.HasSubcommands() {
				name += "*"
			}
			rows = append(rows, []string{name, cmd.Description})
			for _, sub := range cmd.Subcommands {
				rows = append(rows, []string{cmd.Name + " " + sub.Name, sub.Description})
			}
		}
		writeTable(&b, []string{"Command", "Description"}, rows)
	}
	return b.String()
}

// Command renders the help of a top-level command.
func Command(cmd *catalog.Command) string {
	return render(cmd.Name, cmd)
}

// Subcommand renders the help of sub, a subcommand of parent.
func Subcommand(parent, sub *catalog.Command) string {
	return render(parent.Name+" "+sub.Name, sub)
}

func render(fullName string, cmd *catalog.Command) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command: %s\n", fullName)
	if cmd.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", cmd.Description)
	}
	if cmd.Example != "" {
		fmt.Fprintf(&b, "Example: %s\n", cmd.Example)
	}

	if cmd.HasSubcommands() {
		b.WriteString("\n")
		rows := make([][]string, 0, len(cmd.Subcommands))
		for _, sub := range cmd.Subcommands {
			rows = append(rows, []string{sub.Name, sub.Description})
		}
		writeTable(&b, []string{"Subcommand", "Description"}, rows)
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(Usage(fullName, cmd))
	b.WriteString("\n")

	if len(cmd.Args) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	rows := make([][]string, 0, len(cmd.Args))
	for _, arg := range cmd.Args {
		def := ""
		if arg.HasDefault {
			def = arg.Default
		}
		rows = append(rows, []string{arg.Usage(), arg.Type.String(), def, arg.Description})
	}
	writeTable(&b, []string{"Argument", "Type", "Default", "Description"}, rows)
	return b.String()
}

// Usage returns the usage line of a command, e.g.
// "Usage: shell [-t timeout] <cmd>".
func Usage(fullName string, cmd *catalog.Command) string {
	parts := make([]string, 0, len(cmd.Args)+2)
	parts = append(parts, "Usage:", fullName)
	for _, arg := range cmd.Args {
		parts = append(parts, arg.Usage())
	}
	return strings.Join(parts, " ")
}

// writeTable writes headers, an underline row and rows. Every column but the
// last is padded to its widest cell; the last column is wrapped.
func writeTable(b *strings.Builder, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if l := len(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}

	underline := make([]string, len(headers))
	for i, h := range headers {
		underline[i] = strings.Repeat("-", len(h))
	}

	pad := 2
	for _, w := range widths[:len(widths)-1] {
		pad += w + columnGap
	}

	for _, row := range append([][]string{headers, underline}, rows...) {
		var line strings.Builder
		line.WriteString("  ")
		for i, cell := range row[:len(row)-1] {
			fmt.Fprintf(&line, "%-*s", widths[i]+columnGap, cell)
		}

		last := row[len(row)-1]
		if width := maxLineLength - pad; last != "" && width > 0 && len(last) > width {
			wrapped := strings.Split(text.Wrap(last, width), "\n")
			last = strings.Join(wrapped, "\n"+strings.Repeat(" ", pad))
		}
		line.WriteString(last)

		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}
}
