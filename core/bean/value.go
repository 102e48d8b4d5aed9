package bean

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Value is a single attribute value, either text or an opaque byte sequence.
// The zero Value is the empty text value.
type Value struct {
	text   string
	data   []byte
	binary bool
}

// Text returns a text value.
func Text(s string) Value {
	return Value{text: s}
}

// Binary returns a binary value holding a copy of b.
func Binary(b []byte) Value {
	return Value{data: bytes.Clone(b), binary: true}
}

// Texts converts a list of strings to text values.
func Texts(values ...string) []Value {
	out := make([]Value, 0, len(values))
	for _, v := range values {
		out = append(out, Text(v))
	}
	return out
}

// IsBinary reports whether the value is an opaque byte sequence.
func (v Value) IsBinary() bool {
	return v.binary
}

// IsEmpty reports whether v is an empty text value. Binary values are never
// considered empty, even with zero length.
func (v Value) IsEmpty() bool {
	return !v.binary && v.text == ""
}

// String returns the text of a text value, or the raw bytes of a binary value
// converted to a string.
func (v Value) String() string {
	if v.binary {
		return string(v.data)
	}
	return v.text
}

// Bytes returns the byte encoding of the value.
func (v Value) Bytes() []byte {
	if v.binary {
		return v.data
	}
	return []byte(v.text)
}

// clone returns a copy that shares no memory with v.
func (v Value) clone() Value {
	if v.binary {
		return Value{data: bytes.Clone(v.data), binary: true}
	}
	return v
}

// Equal reports whether two values are equal. If either value is binary the
// comparison is byte-for-byte; otherwise the texts are compared.
func Equal(a, b Value) bool {
	if a.binary || b.binary {
		return bytes.Equal(a.Bytes(), b.Bytes())
	}
	return a.text == b.text
}

type binaryJSON struct {
	Base64 string `json:"base64"`
}

// MarshalJSON encodes text values as JSON strings and binary values as
// {"base64": "..."} objects.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.binary {
		return json.Marshal(binaryJSON{Base64: base64.StdEncoding.EncodeToString(v.data)})
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts the encodings produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var bin binaryJSON
		if err := json.Unmarshal(data, &bin); err != nil {
			return fmt.Errorf("invalid binary value: %w", err)
		}
		raw, err := base64.StdEncoding.DecodeString(bin.Base64)
		if err != nil {
			return fmt.Errorf("invalid base64 in binary value: %w", err)
		}
		*v = Value{data: raw, binary: true}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid text value: %w", err)
	}
	*v = Text(s)
	return nil
}
