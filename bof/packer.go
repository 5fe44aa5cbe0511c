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

// Package bof serializes argument lists for beacon object files (BOFs). The
// produced blob has the layout expected by the agent-side argument parser:
//
//	uint32 total length (little-endian), followed by the payload
//
// where the payload is a concatenation, in order, of:
//
//	cstr:  uint32 length (bytes + 1), UTF-8 bytes, NUL
//	wstr:  uint32 length (bytes + 2), UTF-16LE code units, 2-byte NUL
//	bytes: uint32 length, raw bytes
//	int:   4 raw little-endian bytes
//	short: 2 raw little-endian bytes
//
// The blob is returned Base64-encoded so that it can travel inside a task.
package bof

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf16"
)

// ErrPack is the sentinel wrapped by every [PackError].
var ErrPack = errors.New("bof pack failed")

// PackError is returned when a value cannot be packed.
type PackError struct {
	// Index is the position of the offending argument, or -1 if the error is not
	// specific to one argument.
	Index int
	Msg   string
}

func (e *PackError) Error() string {
	if e.Index < 0 {
		return e.Msg
	}
	return fmt.Sprintf("argument %d: %s", e.Index, e.Msg)
}

func (e *PackError) Unwrap() error {
	return ErrPack
}

// Packer is an append-only BOF argument buffer. The zero value is ready for
// use.
type Packer struct {
	buf []byte
}

// AddString appends a NUL-terminated UTF-8 string with its length prefix.
func (p *Packer) AddString(s string) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(s)+1))
	p.buf = append(p.buf, s...)
	p.buf = append(p.buf, 0)
}

// AddWideString appends a NUL-terminated UTF-16LE string with its length
// prefix.
func (p *Packer) AddWideString(s string) {
	units := utf16.Encode([]rune(s))
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(units)*2+2))
	for _, u := range units {
		p.buf = binary.LittleEndian.AppendUint16(p.buf, u)
	}
	p.buf = append(p.buf, 0, 0)
}

// AddBytes appends the raw bytes with their length prefix.
func (p *Packer) AddBytes(b []byte) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(len(b)))
	p.buf = append(p.buf, b...)
}

// AddBase64 decodes the standard Base64 input and appends the resulting bytes
// as [Packer.AddBytes] does.
func (p *Packer) AddBase64(s string) error {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid base64: %w", err)
	}
	p.AddBytes(b)
	return nil
}

// AddInt appends a 32-bit integer without a length prefix.
func (p *Packer) AddInt(v int32) {
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(v))
}

// AddShort appends a 16-bit integer without a length prefix.
func (p *Packer) AddShort(v int16) {
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(v))
}

// Len returns the size of the accumulated payload, excluding the envelope.
func (p *Packer) Len() int {
	return len(p.buf)
}

// Bytes returns the payload wrapped in its length envelope.
func (p *Packer) Bytes() []byte {
	out := make([]byte, 0, len(p.buf)+4)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(p.buf)))
	return append(out, p.buf...)
}

// Build returns the enveloped payload, Base64-encoded.
func (p *Packer) Build() string {
	return base64.StdEncoding.EncodeToString(p.Bytes())
}
