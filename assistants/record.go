package assistants

import (
	"encoding/json"
	"fmt"
)

// decodeRecord unmarshals a flat record after checking that every required
// key is present and not null.
func decodeRecord(family string, payload json.RawMessage, v any, required ...string) error {
	obj, err := decodeObject(payload)
	if err != nil {
		return wrapDecodeErr(family, "", err)
	}
	for _, key := range required {
		raw, ok := obj[key]
		if !ok || isNull(raw) {
			return missingField(family, key)
		}
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return wrapDecodeErr(family, "", err)
	}
	return nil
}

// decodeList decodes every element of a wire array, locating failures at
// key[i].
func decodeList[T any](family, key string, raws []json.RawMessage, decode func([]byte) (T, error)) ([]T, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		v, err := decode(raw)
		if err != nil {
			return nil, wrapDecodeErr(family, indexPath(key, i), err)
		}
		out = append(out, v)
	}
	return out, nil
}

// encodeList encodes every element, emitting [] for an empty list.
func encodeList[T any](items []T, encode func(T) ([]byte, error)) (json.RawMessage, error) {
	raws := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw, err := encode(item)
		if err != nil {
			return nil, err
		}
		raws = append(raws, raw)
	}
	return json.Marshal(raws)
}

// keepEmpty turns a present but empty wire array into an empty non-nil list,
// so it encodes back as [] instead of being dropped.
func keepEmpty[T any](items []T, raws []json.RawMessage) []T {
	if items == nil && raws != nil {
		return []T{}
	}
	return items
}

// encodeOptionalList is encodeList for lists whose key is omitted when nil.
func encodeOptionalList[T any](items []T, encode func(T) ([]byte, error)) (json.RawMessage, error) {
	if items == nil {
		return nil, nil
	}
	return encodeList(items, encode)
}

// variant asserts the concrete payload type a case was registered for. A
// non-nil pointer to that type is accepted too.
func variant[V any](v any) (V, error) {
	switch t := v.(type) {
	case V:
		return t, nil
	case *V:
		if t != nil {
			return *t, nil
		}
	}
	var want V
	return want, fmt.Errorf("expected %T, got %T", want, v)
}
