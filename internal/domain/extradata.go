package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ExtraData is the schema-less metadata attached to taxonomies and terms.
// Keys keep their insertion order through storage and JSON serialization.
type ExtraData = orderedmap.OrderedMap[string, any]

// NewExtraData creates an empty ExtraData.
func NewExtraData() *ExtraData {
	return orderedmap.New[string, any]()
}

// ExtraDataFromPairs builds ExtraData from alternating key, value arguments.
// It panics on an odd argument count or a non-string key; it is meant for literals.
func ExtraDataFromPairs(kv ...any) *ExtraData {
	if len(kv)%2 != 0 {
		panic("domain: ExtraDataFromPairs needs key/value pairs")
	}
	data := NewExtraData()
	for i := 0; i < len(kv); i += 2 {
		data.Set(kv[i].(string), kv[i+1])
	}
	return data
}

// ParseExtraData decodes a JSON object, keeping key order at every depth:
// nested objects become *ExtraData as well. An empty input yields an empty map.
func ParseExtraData(raw []byte) (*ExtraData, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return NewExtraData(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("extra data must be a JSON object, got %v", tok)
	}
	data, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("extra data has trailing content")
	}
	return data, nil
}

// decodeObject reads the members of an object whose opening brace was consumed.
func decodeObject(dec *json.Decoder) (*ExtraData, error) {
	data := NewExtraData()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("extra data: unexpected object key %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		data.Set(key, value)
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return data, nil
}

// decodeValue reads one value. Scalars decode as encoding/json does.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok {
	case json.Delim('{'):
		return decodeObject(dec)
	case json.Delim('['):
		items := []any{}
		for dec.More() {
			item, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.Token(); err != nil { // closing bracket
			return nil, err
		}
		return items, nil
	}
	return tok, nil
}

// CopyExtraData returns a shallow copy of data. A nil input yields an empty map.
func CopyExtraData(data *ExtraData) *ExtraData {
	out := NewExtraData()
	if data == nil {
		return out
	}
	for pair := data.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value)
	}
	return out
}
