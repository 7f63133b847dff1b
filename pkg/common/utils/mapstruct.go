/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package utils holds decoding helpers shared by the document packages.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/mitchellh/mapstructure"
)

// JSONNumberToNumericDate converts json.Number and float claims into *jwt.NumericDate.
func JSONNumberToNumericDate() mapstructure.DecodeHookFuncType {
	numericDate := reflect.TypeOf(jwt.NumericDate(0))

	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if t != numericDate {
			return data, nil
		}

		var seconds float64

		switch v := data.(type) {
		case json.Number:
			parsed, err := strconv.ParseFloat(v.String(), 64)
			if err != nil {
				return nil, err
			}

			seconds = parsed
		case float64:
			seconds = v
		default:
			return data, nil
		}

		return *jwt.NewNumericDate(time.Unix(int64(seconds), 0)), nil
	}
}

// DecodeMap decodes a generic claims map into out. Fields are matched on the mapstructure tag,
// RFC 3339 strings become time.Time and numeric dates become jwt.NumericDate.
// Single values are accepted where a slice is expected ("type": "VerifiableCredential").
func DecodeMap(in map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			JSONNumberToNumericDate(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}

	return decoder.Decode(in)
}
