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

package bof

import (
	"fmt"
	"strconv"
	"strings"
)

// Field types accepted by [Pack].
const (
	TypeString     = "cstr"
	TypeWideString = "wstr"
	TypeBytes      = "bytes"
	TypeInt        = "int"
	TypeShort      = "short"
)

// SplitTypes splits a comma-separated type list. An empty or blank list has no
// types.
func SplitTypes(types string) []string {
	if strings.TrimSpace(types) == "" {
		return nil
	}

	parts := strings.Split(types, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

// Pack packs args according to the comma-separated types, which are aligned
// by position, and returns the Base64 blob from [Packer.Build]. Values for
// "bytes" must be Base64 input; values for "int" and "short" are decimal, or
// hexadecimal with a "0x" prefix. A leading zero is not an octal prefix.
func Pack(types string, args []string) (string, error) {
	list := SplitTypes(types)
	if len(list) != len(args) {
		return "", &PackError{
			Index: -1,
			Msg:   fmt.Sprintf("got %d types for %d arguments", len(list), len(args)),
		}
	}

	var p Packer
	for i, typ := range list {
		if err := p.add(typ, args[i]); err != nil {
			return "", &PackError{Index: i, Msg: err.Error()}
		}
	}
	return p.Build(), nil
}

func (p *Packer) add(typ, v string) error {
	switch typ {
	case TypeString:
		p.AddString(v)
	case TypeWideString:
		p.AddWideString(v)
	case TypeBytes:
		return p.AddBase64(v)
	case TypeInt:
		n, err := parseInt(v, 32)
		if err != nil {
			return fmt.Errorf("invalid int %q", v)
		}
		p.AddInt(int32(n))
	case TypeShort:
		n, err := parseInt(v, 16)
		if err != nil {
			return fmt.Errorf("invalid short %q", v)
		}
		p.AddShort(int16(n))
	default:
		return fmt.Errorf("unknown type %q", typ)
	}
	return nil
}

// parseInt parses a signed decimal or "0x" hexadecimal integer of the given
// bit size.
func parseInt(v string, bitSize int) (int64, error) {
	v = strings.TrimSpace(v)
	sign := ""
	if strings.HasPrefix(v, "-") || strings.HasPrefix(v, "+") {
		sign, v = v[:1], v[1:]
	}
	if len(v) > 2 && (v[:2] == "0x" || v[:2] == "0X") {
		return strconv.ParseInt(sign+v[2:], 16, bitSize) //nolint:wrapcheck // Reported by the caller.
	}
	return strconv.ParseInt(sign+v, 10, bitSize) //nolint:wrapcheck // Reported by the caller.
}
