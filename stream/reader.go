package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"assistantwire/assistants"
)

const maxFrameSize = 4 * 1024 * 1024

// Reader decodes events from a server-sent event stream:
//
//	event: thread.run.created
//	data: {"id":"run_123", ...}
//
// Lines that start with "{" outside a frame are read as whole
// {"event":...,"data":...} envelopes, so archived JSON lines decode too.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameSize)
	return &Reader{scanner: scanner}
}

// Line is the input line the last event ended on.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next event, or io.EOF once the input is exhausted. A frame
// that fails to decode is returned as an error and reading can continue.
func (r *Reader) Next() (Event, error) {
	var (
		name    string
		data    []string
		inFrame bool
	)
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimRight(r.scanner.Text(), "\r")

		if line == "" {
			if inFrame {
				return FromFrame(name, []byte(strings.Join(data, "\n")))
			}
			continue
		}
		if !inFrame && strings.HasPrefix(line, "{") {
			return Decode([]byte(line))
		}
		if strings.HasPrefix(line, ":") {
			// comment / keep-alive
			continue
		}

		key, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch key {
		case "event":
			name = value
			inFrame = true
		case "data":
			data = append(data, value)
			inFrame = true
		}
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	if inFrame {
		return FromFrame(name, []byte(strings.Join(data, "\n")))
	}
	return Event{}, io.EOF
}

// FromFrame decodes one server-sent event given its name and data.
func FromFrame(name string, data []byte) (Event, error) {
	if EventType(name) == Done || (name == "" && string(data) == "[DONE]") {
		return NewDoneEvent(), nil
	}
	var buf bytes.Buffer
	quoted, err := json.Marshal(name)
	if err != nil {
		return Event{}, err
	}
	buf.WriteString(`{"event":`)
	buf.Write(quoted)
	if len(bytes.TrimSpace(data)) > 0 {
		// data is spliced into the envelope, so it must be exactly one value
		if !json.Valid(data) {
			return Event{}, &assistants.DecodingError{
				Family: eventFamily,
				Kind:   assistants.TypeMismatch,
				Path:   "data",
				Err:    errors.New("data is not a single JSON value"),
			}
		}
		buf.WriteString(`,"data":`)
		buf.Write(data)
	}
	buf.WriteByte('}')
	return Decode(buf.Bytes())
}
