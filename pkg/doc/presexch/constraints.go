/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// MissingClaimError lists the field paths no value satisfied.
type MissingClaimError struct {
	Paths []string
}

func (e *MissingClaimError) Error() string {
	return fmt.Sprintf("%s: %s", verifiable.ErrMissingClaim.Error(), strings.Join(e.Paths, ", "))
}

// Unwrap exposes ErrMissingClaim.
func (e *MissingClaimError) Unwrap() error {
	return verifiable.ErrMissingClaim
}

// EvaluateConstraints checks that every non optional field of c selects a value from doc that passes
// the field filter. Any path of a field may supply the value.
func EvaluateConstraints(doc interface{}, c *Constraints) error {
	if c == nil {
		return nil
	}

	doc, err := toTypeless(doc)
	if err != nil {
		return err
	}

	builder := gval.Full(jsonpath.PlaceholderExtension())

	var missing []string

	for _, field := range c.Fields {
		if _, ok := matchField(builder, doc, field); ok || field.Optional {
			continue
		}

		missing = append(missing, field.Path...)
	}

	if len(missing) != 0 {
		return &MissingClaimError{Paths: missing}
	}

	return nil
}

// SelectField returns the first value of doc selected by a path of field that passes its filter.
func SelectField(doc interface{}, field *Field) (interface{}, bool) {
	doc, err := toTypeless(doc)
	if err != nil {
		return nil, false
	}

	return matchField(gval.Full(jsonpath.PlaceholderExtension()), doc, field)
}

func matchField(builder gval.Language, doc interface{}, field *Field) (interface{}, bool) {
	for _, path := range field.Path {
		value, err := selectByPath(context.Background(), builder, doc, path)
		if err != nil {
			logger.Debugf("path %s not found: %v", path, err)

			continue
		}

		if err := field.Filter.Validate(value); err != nil {
			logger.Debugf("value at %s rejected by filter: %v", path, err)

			continue
		}

		return value, true
	}

	return nil, false
}

// Validate checks value against the filter schema. A nil filter accepts any value.
func (f *Filter) Validate(value interface{}) error {
	if f == nil {
		return nil
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(f), gojsonschema.NewGoLoader(value))
	if err != nil {
		return err
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))

	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}

	return errors.New(strings.Join(msgs, ","))
}
