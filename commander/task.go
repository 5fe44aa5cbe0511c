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
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Field is one bound value of a task. Value is a string, an int64 or a bool.
type Field struct {
	Name  string
	Value any
}

// Task is the structured form of a dispatched line. Its JSON form is an
// object with "command", then "subcommand" if set, then the fields in
// declaration order, then "message" if set.
type Task struct {
	Command    string
	Subcommand string
	Fields     []Field
	Message    string
}

// Get returns the value of the named field.
func (t *Task) Get(name string) (any, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value of the named field, or appends the field.
func (t *Task) Set(name string, v any) {
	for i, f := range t.Fields {
		if f.Name == name {
			t.Fields[i].Value = v
			return
		}
	}
	t.Fields = append(t.Fields, Field{Name: name, Value: v})
}

// MarshalJSON implements [json.Marshaler].
func (t *Task) MarshalJSON() ([]byte, error) {
	out := []byte("{}")

	set := func(key string, v any) error {
		var err error
		out, err = sjson.SetBytes(out, escapeKey(key), v)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", key, err)
		}
		return nil
	}

	if err := set("command", t.Command); err != nil {
		return nil, err
	}
	if t.Subcommand != "" {
		if err := set("subcommand", t.Subcommand); err != nil {
			return nil, err
		}
	}
	for _, f := range t.Fields {
		if err := set(f.Name, f.Value); err != nil {
			return nil, err
		}
	}
	if t.Message != "" {
		if err := set("message", t.Message); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UnmarshalJSON implements [json.Unmarshaler]. Field order is preserved;
// numbers become int64 and nested values are kept as raw JSON strings.
func (t *Task) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid task JSON")
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return errors.New("task must be a JSON object")
	}

	*t = Task{}
	res.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "command":
			t.Command = value.String()
		case "subcommand":
			t.Subcommand = value.String()
		case "message":
			t.Message = value.String()
		default:
			t.Fields = append(t.Fields, Field{Name: key.String(), Value: fieldValue(value)})
		}
		return true
	})

	if t.Command == "" {
		return errors.New(`task is missing "command"`)
	}
	return nil
}

func fieldValue(v gjson.Result) any {
	switch v.Type {
	case gjson.True, gjson.False:
		return v.Bool()
	case gjson.Number:
		return v.Int()
	case gjson.String:
		return v.String()
	default:
		return v.Raw
	}
}

// escapeKey escapes the characters that have a meaning in sjson paths.
func escapeKey(key string) string {
	const special = `\.*?:|#@!`
	if !strings.ContainsAny(key, special) {
		return key
	}

	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
