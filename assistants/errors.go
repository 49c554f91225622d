package assistants

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type DecodeErrorKind int

const (
	// the tag field is absent or is not a string
	MissingDiscriminator DecodeErrorKind = iota + 1
	// the tag is a string outside the family's closed set
	UnknownDiscriminator
	// a field required by the selected variant is absent
	MissingField
	// a field is present but cannot be converted to its declared type
	TypeMismatch
)

var (
	ErrMissingDiscriminator = errors.New("missing discriminator")
	ErrUnknownDiscriminator = errors.New("unknown discriminator")
	ErrMissingField         = errors.New("missing required field")
	ErrTypeMismatch         = errors.New("type mismatch")
)

func (k DecodeErrorKind) sentinel() error {
	switch k {
	case MissingDiscriminator:
		return ErrMissingDiscriminator
	case UnknownDiscriminator:
		return ErrUnknownDiscriminator
	case MissingField:
		return ErrMissingField
	case TypeMismatch:
		return ErrTypeMismatch
	}
	return nil
}

func (k DecodeErrorKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("DecodeErrorKind(%d)", int(k))
}

// DecodingError reports why a wire object could not be decoded. Path is the
// dotted location of the offending key relative to the outermost value being
// decoded, e.g. "code_interpreter.outputs[1].image.file_id".
type DecodingError struct {
	Family string
	Kind   DecodeErrorKind
	Path   string
	// Value holds the offending tag for discriminator errors.
	Value string
	Err   error
}

func (e *DecodingError) Error() string {
	var b strings.Builder
	b.WriteString("decoding ")
	if e.Family != "" {
		b.WriteString(e.Family)
	} else {
		b.WriteString("value")
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Path != "" {
		fmt.Fprintf(&b, " at %q", e.Path)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (got %q)", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind so callers can write
// errors.Is(err, ErrUnknownDiscriminator).
func (e *DecodingError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// at returns a copy of e located under prefix.
func (e *DecodingError) at(prefix string) *DecodingError {
	cp := *e
	cp.Path = joinPath(prefix, e.Path)
	return &cp
}

func joinPath(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	case strings.HasPrefix(path, "["):
		return prefix + path
	}
	return prefix + "." + path
}

func indexPath(key string, i int) string {
	return fmt.Sprintf("%s[%d]", key, i)
}

// wrapDecodeErr converts err into a *DecodingError located at path. Errors
// already carrying a location are re-rooted; json type errors become
// TypeMismatch.
func wrapDecodeErr(family, path string, err error) error {
	if err == nil {
		return nil
	}
	var decErr *DecodingError
	if errors.As(err, &decErr) {
		return decErr.at(path)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &DecodingError{
			Family: family,
			Kind:   TypeMismatch,
			Path:   joinPath(path, typeErr.Field),
			Err:    err,
		}
	}
	return &DecodingError{Family: family, Kind: TypeMismatch, Path: path, Err: err}
}

func missingField(family, path string) error {
	return &DecodingError{Family: family, Kind: MissingField, Path: path}
}
