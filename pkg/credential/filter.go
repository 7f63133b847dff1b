/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/presexch"
)

// ClaimFilter names a claim a verifier asks for. Paths are JSONPath expressions, any of which may
// supply the value; Type, Format, Const and Pattern constrain it.
type ClaimFilter struct {
	Paths    []string
	Name     string
	Type     string
	Format   string
	Const    interface{}
	Pattern  string
	Required bool
}

// ClaimFilters is the claim set of one request.
type ClaimFilters []ClaimFilter

func (f *ClaimFilter) field() *presexch.Field {
	field := &presexch.Field{Path: f.Paths, Name: f.Name, Optional: !f.Required}

	if f.Type != "" || f.Format != "" || f.Const != nil || f.Pattern != "" {
		field.Filter = &presexch.Filter{Type: f.Type, Format: f.Format, Const: f.Const, Pattern: f.Pattern}
	}

	return field
}

// Constraints returns the filters as input descriptor constraints.
func (fs ClaimFilters) Constraints() *presexch.Constraints {
	if len(fs) == 0 {
		return nil
	}

	c := &presexch.Constraints{}

	for i := range fs {
		c.Fields = append(c.Fields, fs[i].field())
	}

	return c
}

// Definition returns a presentation definition with one input descriptor holding every filter.
func (fs ClaimFilters) Definition(id, format string, algs []string) *presexch.PresentationDefinition {
	jwtType := &presexch.JwtType{Alg: algs}

	f := &presexch.Format{}

	switch format {
	case SDJWTFormat:
		f.SDJWT = jwtType
	default:
		f.JwtVC = jwtType
		f.JwtVP = jwtType
	}

	return &presexch.PresentationDefinition{
		ID:     id,
		Format: f,
		InputDescriptors: []*presexch.InputDescriptor{{
			ID:          id + "-0",
			Constraints: fs.Constraints(),
		}},
	}
}

// AnonCredsRequest turns the filters into requested attributes and predicates. A filter whose Pattern
// is a comparison (>=, >, <=, <) over an integer Const becomes a predicate; any other pattern with an
// integer Const is a >= predicate.
func (fs ClaimFilters) AnonCredsRequest(name, nonce string) *anoncreds.PresentationRequest {
	req := &anoncreds.PresentationRequest{
		Nonce:               nonce,
		Name:                name,
		Version:             "1.0",
		RequestedAttributes: map[string]anoncreds.RequestedAttribute{},
		RequestedPredicates: map[string]anoncreds.RequestedPredicate{},
	}

	for i := range fs {
		attr := fs[i].attributeName()

		if p, ok := fs[i].predicate(attr); ok {
			req.RequestedPredicates[fmt.Sprintf("%s_%d", attr, i)] = p

			continue
		}

		req.RequestedAttributes[fmt.Sprintf("%s_%d", attr, i)] = anoncreds.RequestedAttribute{Name: attr}
	}

	return req
}

func (f *ClaimFilter) attributeName() string {
	if f.Name != "" {
		return f.Name
	}

	if len(f.Paths) == 0 {
		return ""
	}

	path := f.Paths[0]

	return path[strings.LastIndex(path, ".")+1:]
}

func (f *ClaimFilter) predicate(attr string) (anoncreds.RequestedPredicate, bool) {
	if f.Pattern == "" || f.Const == nil {
		return anoncreds.RequestedPredicate{}, false
	}

	value, err := strconv.Atoi(fmt.Sprint(f.Const))
	if err != nil {
		return anoncreds.RequestedPredicate{}, false
	}

	op := anoncreds.GreaterOrEqual

	switch p := anoncreds.PredicateType(f.Pattern); p {
	case anoncreds.GreaterOrEqual, anoncreds.GreaterThan, anoncreds.LessOrEqual, anoncreds.LessThan:
		op = p
	}

	return anoncreds.RequestedPredicate{Name: attr, PType: op, PValue: value}, true
}
