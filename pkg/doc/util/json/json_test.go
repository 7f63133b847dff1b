/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package json

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	out, err := Canonical([]byte(`{ "b": [1, 2.50, {"z": true, "a": null}], "a": "<x>" }`))
	require.NoError(t, err)
	require.Equal(t, `{"a":"<x>","b":[1,2.50,{"a":null,"z":true}]}`, string(out))

	again, err := Canonical(out)
	require.NoError(t, err)
	require.Equal(t, out, again)

	_, err = Canonical([]byte(`{"a":1} {"b":2}`))
	require.Error(t, err)

	_, err = Canonical([]byte(`{`))
	require.Error(t, err)
}

func TestExtraMembers(t *testing.T) {
	type known struct {
		ID string `json:"id"`
	}

	data, err := MarshalWithExtra(known{ID: "1"}, map[string]interface{}{"id": "ignored", "x-custom": "v"})
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"1","x-custom":"v"}`, string(data))

	var k known

	extra, err := SplitExtra(data, &k, "id")
	require.NoError(t, err)
	require.Equal(t, "1", k.ID)
	require.Equal(t, map[string]json.RawMessage{"x-custom": json.RawMessage(`"v"`)}, extra)

	m, err := ToMap(`{"a":1}`)
	require.NoError(t, err)
	require.Equal(t, float64(1), m["a"])

	_, err = ToMap([]byte(`[1]`))
	require.Error(t, err)
}
