package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// AnswerValue holds either a single string or an ordered set of strings
// (multi_choice). The zero value is an empty single answer.
type AnswerValue struct {
	text   string
	values []string
	multi  bool
}

func Text(s string) AnswerValue {
	return AnswerValue{text: s}
}

func Set(values ...string) AnswerValue {
	v := AnswerValue{multi: true}
	for _, s := range values {
		v = v.with(s)
	}
	return v
}

func (v AnswerValue) IsMulti() bool { return v.multi }

func (v AnswerValue) String() string { return v.text }

// Values returns a copy of the selected options of a multi-valued answer.
func (v AnswerValue) Values() []string {
	return append([]string(nil), v.values...)
}

func (v AnswerValue) Contains(option string) bool {
	for _, s := range v.values {
		if s == option {
			return true
		}
	}
	return false
}

// Toggle adds option to the set when absent and removes it when present.
// Insertion order is preserved.
func (v AnswerValue) Toggle(option string) AnswerValue {
	if v.Contains(option) {
		return v.without(option)
	}
	return v.with(option)
}

func (v AnswerValue) with(option string) AnswerValue {
	if v.Contains(option) {
		return v
	}
	out := AnswerValue{multi: true, values: make([]string, 0, len(v.values)+1)}
	out.values = append(append(out.values, v.values...), option)
	return out
}

func (v AnswerValue) without(option string) AnswerValue {
	out := AnswerValue{multi: true, values: make([]string, 0, len(v.values))}
	for _, s := range v.values {
		if s != option {
			out.values = append(out.values, s)
		}
	}
	return out
}

// IsEmpty reports an answer that does not satisfy a required question:
// blank text or an empty set.
func (v AnswerValue) IsEmpty() bool {
	if v.multi {
		return len(v.values) == 0
	}
	return strings.TrimSpace(v.text) == ""
}

// Display flattens the answer into a single cell string. Sets are joined
// with ", ".
func (v AnswerValue) Display() string {
	if v.multi {
		return strings.Join(v.values, ", ")
	}
	return v.text
}

func (v AnswerValue) Equal(o AnswerValue) bool {
	if v.multi != o.multi || v.text != o.text || len(v.values) != len(o.values) {
		return false
	}
	for i := range v.values {
		if v.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

var errAnswerShape = errors.New("answer must be a string or an array of strings")

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.multi {
		if v.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.values)
	}
	return json.Marshal(v.text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = AnswerValue{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
		return nil
	case len(data) > 0 && data[0] == '[':
		var ss []string
		if err := json.Unmarshal(data, &ss); err != nil {
			return errAnswerShape
		}
		*v = Set(ss...)
		return nil
	}
	return errAnswerShape
}
