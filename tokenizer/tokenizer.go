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

// Package tokenizer splits operator input into tokens using the same quoting
// and backslash rules as the Windows command line parser:
//
//   - whitespace outside of double quotes separates tokens
//   - a double quote toggles quoting and is not emitted
//   - 2n backslashes followed by a quote emit n backslashes and toggle quoting
//   - 2n+1 backslashes followed by a quote emit n backslashes and a literal quote
//   - backslashes not followed by a quote are literal
//
// An unterminated quote collects everything up to the end of the input.
package tokenizer

import (
	"strings"
)

// Split tokenizes the given line. Empty input returns no tokens. An explicitly
// quoted empty string ("") produces an empty token.
func Split(line string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		started bool
		quoted  bool
		slashes int
	)

	flushSlashes := func() {
		for ; slashes > 0; slashes-- {
			cur.WriteByte('\\')
		}
	}

	for _, r := range line {
		switch {
		case r == '\\':
			slashes++
			started = true
		case r == '"':
			for i := 0; i < slashes/2; i++ {
				cur.WriteByte('\\')
			}
			if slashes%2 == 1 {
				cur.WriteByte('"')
			} else {
				quoted = !quoted
			}
			slashes = 0
			started = true
		case isSpace(r) && !quoted:
			flushSlashes()
			if started {
				tokens = append(tokens, cur.String())
				cur.Reset()
				started = false
			}
		default:
			flushSlashes()
			cur.WriteRune(r)
			started = true
		}
	}

	flushSlashes()
	if started {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

// Quote serializes a single token so that Split(Quote(s)) returns exactly
// []string{s}.
func Quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\r\n\"") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')

	slashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			slashes++
		case '"':
			// Every pending backslash is doubled, plus one to escape the quote.
			writeSlashes(&b, slashes*2+1)
			b.WriteByte('"')
			slashes = 0
		default:
			writeSlashes(&b, slashes)
			b.WriteByte(c)
			slashes = 0
		}
	}

	// Trailing backslashes precede the closing quote and must be doubled.
	writeSlashes(&b, slashes*2)
	b.WriteByte('"')
	return b.String()
}

// Join quotes every token and joins them with single spaces.
func Join(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		quoted = append(quoted, Quote(t))
	}
	return strings.Join(quoted, " ")
}

func writeSlashes(b *strings.Builder, n int) {
	for i := 0; i < n; i++ {
		b.WriteByte('\\')
	}
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n'
}
