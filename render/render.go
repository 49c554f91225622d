// Package render writes codec values in one of several output formats. Values
// are always encoded through their JSON wire form first, so YAML and CBOR
// output carries exactly the wire keys and tags.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	CBOR Format = "cbor"
)

// encMode uses Core Deterministic Encoding so the same value always produces
// the same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("render: CBOR encoder initialization failed: " + err.Error())
	}
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, YAML, CBOR:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json, yaml or cbor)", s)
}

// Write encodes v to w. JSON output is one compact line per value, which the
// stream reader accepts back as input.
func Write(w io.Writer, f Format, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	switch f {
	case JSON:
		_, err = w.Write(append(data, '\n'))
		return err
	case YAML:
		generic, err := toGeneric(data)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	case CBOR:
		generic, err := toGeneric(data)
		if err != nil {
			return err
		}
		out, err := encMode.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return fmt.Errorf("unknown output format %q", f)
}

// toGeneric parses JSON into maps, slices and scalars, keeping integers as
// int64 rather than float64.
func toGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}
