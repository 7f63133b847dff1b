/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package json

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Canonical re-encodes a JSON document with sorted object keys, no insignificant
// whitespace and no HTML escaping. Numbers keep their original text.
func Canonical(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("canonical json: %w", err)
	}

	if dec.More() {
		return nil, fmt.Errorf("canonical json: trailing data")
	}

	return Marshal(v)
}

// Marshal encodes v like json.Marshal but without HTML escaping and trailing newline.
// Map keys come out sorted.
func Marshal(v interface{}) ([]byte, error) {
	buf := bytes.Buffer{}

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalWithExtra marshals value merged with extra members. Members of v win on conflict.
func MarshalWithExtra(v interface{}, extra map[string]interface{}) ([]byte, error) {
	m, err := ToMap(v)
	if err != nil {
		return nil, err
	}

	for k, e := range extra {
		if _, exists := m[k]; !exists {
			m[k] = e
		}
	}

	return Marshal(m)
}

// SplitExtra unmarshals data into v and returns the members whose names are not in known.
func SplitExtra(data []byte, v interface{}, known ...string) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}

	all := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	for _, k := range known {
		delete(all, k)
	}

	return all, nil
}

// ToMap convert object, string or bytes to json object represented by map.
func ToMap(v interface{}) (map[string]interface{}, error) {
	var (
		b   []byte
		err error
	)

	switch cv := v.(type) {
	case []byte:
		b = cv
	case string:
		b = []byte(cv)
	case json.RawMessage:
		b = cv
	default:
		b, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	var m map[string]interface{}

	err = json.Unmarshal(b, &m)
	if err != nil {
		return nil, err
	}

	return m, nil
}
