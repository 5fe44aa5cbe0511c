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

package argspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse parses a single argument declaration.
func Parse(spec string) (*Argument, error) {
	p := &parser{src: spec}
	return p.parseArgument()
}

// MustParse is like [Parse], but panics on error. It is intended for
// declarations compiled into the binary.
func MustParse(spec string) *Argument {
	arg, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return arg
}

// parser is a recursive-descent parser over the declaration:
//
//	argument := type [ws] group [ws] [default [ws]] [description [ws]]
//	group    := "<" inner ">" | "[" inner "]"
//	inner    := mark ws name | word
//	default  := "(" text ")"
//	description := "{" text "}"
type parser struct {
	src string
	pos int
}

func (p *parser) parseArgument() (*Argument, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("expected type")
	}

	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()

	arg := &Argument{Type: typ}
	if err := p.parseGroup(arg); err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.peek() == '(' {
		v, err := p.parseDelimited('(', ')')
		if err != nil {
			return nil, err
		}
		arg.Default = v
		arg.HasDefault = true
		p.skipSpace()
	}

	if p.peek() == '{' {
		v, err := p.parseDelimited('{', '}')
		if err != nil {
			return nil, err
		}
		arg.Description = strings.TrimSpace(v)
		p.skipSpace()
	}

	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}

	if err := p.validate(arg); err != nil {
		return nil, err
	}
	return arg, nil
}

func (p *parser) parseType() (Type, error) {
	start := p.pos
	for !p.eof() && isLetter(p.src[p.pos]) {
		p.pos++
	}
	word := p.src[start:p.pos]
	if word == "" {
		return 0, p.errorf("expected type")
	}

	typ, ok := LookupType(word)
	if !ok {
		return 0, &ParseError{Spec: p.src, Offset: start, Msg: fmt.Sprintf("unknown type %q", word)}
	}
	return typ, nil
}

func (p *parser) parseGroup(arg *Argument) error {
	start := p.pos

	var closing byte
	switch p.peek() {
	case '<':
		arg.Required = true
		closing = '>'
	case '[':
		closing = ']'
	default:
		return p.errorf("expected '<' or '['")
	}

	inner, err := p.parseDelimited(p.peek(), closing)
	if err != nil {
		return err
	}

	fields := strings.Fields(inner)
	switch len(fields) {
	case 0:
		return &ParseError{Spec: p.src, Offset: start, Msg: "empty argument name"}
	case 1:
		arg.Name = fields[0]
		if isFlag(arg.Name) {
			arg.Mark = arg.Name
		}
	case 2:
		arg.Mark = fields[0]
		arg.Name = fields[1]
	default:
		return &ParseError{Spec: p.src, Offset: start, Msg: fmt.Sprintf("too many words in %q", inner)}
	}
	return nil
}

// parseDelimited consumes openCh, then everything up to the next closeCh, and
// returns the text between them.
func (p *parser) parseDelimited(openCh, closeCh byte) (string, error) {
	if p.peek() != openCh {
		return "", p.errorf("expected %q", openCh)
	}
	start := p.pos
	p.pos++

	idx := strings.IndexByte(p.src[p.pos:], closeCh)
	if idx < 0 {
		return "", &ParseError{Spec: p.src, Offset: start, Msg: fmt.Sprintf("unterminated %q", openCh)}
	}

	v := p.src[p.pos : p.pos+idx]
	p.pos += idx + 1
	return v, nil
}

func (p *parser) validate(arg *Argument) error {
	if arg.Type == TypeBool && !arg.Flagged() {
		return p.errorAt(0, fmt.Sprintf("BOOL argument %q must be a flag", arg.Name))
	}

	if !arg.HasDefault {
		return nil
	}

	switch arg.Type {
	case TypeInt:
		if _, err := strconv.ParseInt(strings.TrimSpace(arg.Default), 10, 64); err != nil {
			return p.errorAt(0, fmt.Sprintf("default %q is not an integer", arg.Default))
		}
	case TypeBool:
		if _, err := strconv.ParseBool(strings.TrimSpace(arg.Default)); err != nil {
			return p.errorAt(0, fmt.Sprintf("default %q is not a boolean", arg.Default))
		}
	}
	return nil
}

// skipSpace advances over whitespace and reports whether any was consumed.
func (p *parser) skipSpace() bool {
	start := p.pos
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) errorf(format string, args ...any) error {
	return p.errorAt(p.pos, fmt.Sprintf(format, args...))
}

func (p *parser) errorAt(offset int, msg string) error {
	return &ParseError{Spec: p.src, Offset: offset, Msg: msg}
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isFlag(s string) bool {
	return strings.HasPrefix(s, "-") || strings.HasPrefix(s, "/")
}
