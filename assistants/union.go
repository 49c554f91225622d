package assistants

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
)

// Case is the codec for a single tag of a discriminated family.
type Case[T any] struct {
	Tag string
	// Key names the sibling field that holds the payload. It does not have to
	// match Tag and several tags may share one key. An empty Key means the
	// payload fields sit inline in the same object as the tag.
	Key string
	// Decode receives the payload: the value under Key, or the whole object
	// for inline cases. A nil payload means the key was absent and the case
	// allows that (see Optional).
	Decode func(payload json.RawMessage) (T, error)
	// Encode returns the payload bytes. Inline cases must return a JSON
	// object; a nil result omits Key entirely.
	Encode func(v T) (json.RawMessage, error)
	// Optional lets Key be absent on the wire.
	Optional bool
}

// Family maps every tag of one discriminated union onto its Case. Families
// are built once at package init and are read-only afterwards.
type Family[T any] struct {
	name     string
	tagField string
	tagOf    func(T) string
	cases    map[string]Case[T]
}

func NewFamily[T any](name, tagField string, tagOf func(T) string, cases ...Case[T]) *Family[T] {
	f := &Family[T]{
		name:     name,
		tagField: tagField,
		tagOf:    tagOf,
		cases:    make(map[string]Case[T], len(cases)),
	}
	for _, c := range cases {
		if _, dup := f.cases[c.Tag]; dup {
			panic(fmt.Sprintf("assistants: duplicate tag %q in %s family", c.Tag, name))
		}
		if c.Decode == nil || c.Encode == nil {
			panic(fmt.Sprintf("assistants: tag %q in %s family has no codec", c.Tag, name))
		}
		f.cases[c.Tag] = c
	}
	return f
}

func (f *Family[T]) Name() string {
	return f.name
}

// Tags lists the known tags in sorted order.
func (f *Family[T]) Tags() []string {
	tags := make([]string, 0, len(f.cases))
	for tag := range f.cases {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func (f *Family[T]) Known(tag string) bool {
	_, ok := f.cases[tag]
	return ok
}

// Decode reads the tag, validates it against the closed set and dispatches to
// the matching case. No partial value is returned on failure.
func (f *Family[T]) Decode(data []byte) (T, error) {
	var zero T
	obj, err := decodeObject(data)
	if err != nil {
		return zero, wrapDecodeErr(f.name, "", err)
	}
	return f.decodeObject(obj, data)
}

func (f *Family[T]) decodeObject(obj map[string]json.RawMessage, data []byte) (T, error) {
	var zero T
	c, err := f.readTag(obj)
	if err != nil {
		return zero, err
	}

	payload := json.RawMessage(data)
	if c.Key != "" {
		raw, ok := obj[c.Key]
		if (!ok || isNull(raw)) && !c.Optional {
			return zero, missingField(f.name, c.Key)
		}
		payload = raw
	}

	v, err := c.Decode(payload)
	if err != nil {
		return zero, wrapDecodeErr(f.name, c.Key, err)
	}
	return v, nil
}

// readTag extracts the discriminator before any variant-specific field is
// looked at.
func (f *Family[T]) readTag(obj map[string]json.RawMessage) (Case[T], error) {
	raw, ok := obj[f.tagField]
	if !ok {
		return Case[T]{}, &DecodingError{Family: f.name, Kind: MissingDiscriminator, Path: f.tagField}
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil || isNull(raw) {
		return Case[T]{}, &DecodingError{
			Family: f.name,
			Kind:   MissingDiscriminator,
			Path:   f.tagField,
			Value:  string(raw),
			Err:    err,
		}
	}
	c, ok := f.cases[tag]
	if !ok {
		return Case[T]{}, &DecodingError{
			Family: f.name,
			Kind:   UnknownDiscriminator,
			Path:   f.tagField,
			Value:  tag,
		}
	}
	return c, nil
}

// Encode writes the tag field followed by the payload.
func (f *Family[T]) Encode(v T) ([]byte, error) {
	fields, err := f.encodeFields(v)
	if err != nil {
		return nil, err
	}
	return fields.MarshalJSON()
}

func (f *Family[T]) encodeFields(v T) (orderedObject, error) {
	if isNilValue(v) {
		return nil, fmt.Errorf("encoding %s: no value", f.name)
	}
	tag := f.tagOf(v)
	c, ok := f.cases[tag]
	if !ok {
		return nil, fmt.Errorf("encoding %s: unknown tag %q", f.name, tag)
	}
	payload, err := c.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %q: %w", f.name, tag, err)
	}

	tagValue, err := json.Marshal(tag)
	if err != nil {
		return nil, err
	}
	fields := orderedObject{{key: f.tagField, value: tagValue}}

	if c.Key != "" {
		if payload != nil {
			fields = append(fields, field{key: c.Key, value: payload})
		}
		return fields, nil
	}

	inline, err := splitObject(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %q: inline payload: %w", f.name, tag, err)
	}
	for _, fl := range inline {
		if fl.key == f.tagField {
			continue
		}
		fields = append(fields, fl)
	}
	return fields, nil
}

type field struct {
	key   string
	value json.RawMessage
}

// orderedObject is a JSON object whose keys are emitted in slice order, so
// encoded bytes are stable for a given value.
type orderedObject []field

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fl := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fl.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(fl.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isNilValue reports a nil interface or a nil pointer held in one.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decodeObject parses data as a JSON object into its raw members.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("expected a JSON object, got null")
	}
	return obj, nil
}

// splitObject breaks a JSON object into its members, keeping wire order.
func splitObject(data []byte) (orderedObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object, got %v", tok)
	}

	var fields orderedObject
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		fields = append(fields, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return fields, nil
}
