/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"errors"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// Selection is the rule of a submission requirement.
type Selection string

// Preference is the limit_disclosure level of a descriptor.
type Preference string

// StrOrInt holds a JSON number or string bound of a filter.
type StrOrInt interface{}

const (
	// All requires every descriptor of the group.
	All Selection = "all"
	// Pick requires count, or min to max, descriptors of the group.
	Pick Selection = "pick"

	// Required disclosure of the selected fields only.
	Required Preference = "required"
	// Preferred disclosure of the selected fields only.
	Preferred Preference = "preferred"
)

// JwtType lists the accepted signature algorithms of a JWT based format.
type JwtType struct {
	Alg []string `json:"alg,omitempty"`
}

// Format lists the claim formats a verifier accepts.
type Format struct {
	Jwt   *JwtType `json:"jwt,omitempty"`
	JwtVC *JwtType `json:"jwt_vc,omitempty"`
	JwtVP *JwtType `json:"jwt_vp,omitempty"`
	SDJWT *JwtType `json:"vc+sd-jwt,omitempty"`
}

// PresentationDefinition is what a verifier asks to be presented.
type PresentationDefinition struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name,omitempty"`
	Purpose string  `json:"purpose,omitempty"`
	Locale  string  `json:"locale,omitempty"`
	Format  *Format `json:"format,omitempty"`
	// SubmissionRequirements select among descriptor groups. Without them every descriptor is required.
	SubmissionRequirements []*SubmissionRequirement `json:"submission_requirements,omitempty"`
	InputDescriptors       []*InputDescriptor       `json:"input_descriptors,omitempty"`
}

// SubmissionRequirement applies Rule to the descriptors of group From, or to the nested requirements.
type SubmissionRequirement struct {
	Name       string                   `json:"name,omitempty"`
	Purpose    string                   `json:"purpose,omitempty"`
	Rule       Selection                `json:"rule,omitempty"`
	Count      *int                     `json:"count,omitempty"`
	Min        int                      `json:"min,omitempty"`
	Max        int                      `json:"max,omitempty"`
	From       string                   `json:"from,omitempty"`
	FromNested []*SubmissionRequirement `json:"from_nested,omitempty"`
}

// InputDescriptor describes one credential to present.
type InputDescriptor struct {
	ID          string                 `json:"id,omitempty"`
	Group       []string               `json:"group,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Purpose     string                 `json:"purpose,omitempty"`
	Format      *Format                `json:"format,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Constraints *Constraints           `json:"constraints,omitempty"`
}

// Constraints are the fields a credential must carry to match a descriptor.
type Constraints struct {
	LimitDisclosure *Preference `json:"limit_disclosure,omitempty"`
	Fields          []*Field    `json:"fields,omitempty"`
}

// Field selects a claim by the first of its JSONPaths that resolves, and filters its value.
type Field struct {
	Path     []string `json:"path,omitempty"`
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Purpose  string   `json:"purpose,omitempty"`
	Optional bool     `json:"optional,omitempty"`
	Filter   *Filter  `json:"filter,omitempty"`
}

// Filter is the JSON schema subset a selected value must satisfy.
type Filter struct {
	Type             string                 `json:"type,omitempty"`
	Format           string                 `json:"format,omitempty"`
	Pattern          string                 `json:"pattern,omitempty"`
	Const            StrOrInt               `json:"const,omitempty"`
	Enum             []StrOrInt             `json:"enum,omitempty"`
	Minimum          StrOrInt               `json:"minimum,omitempty"`
	Maximum          StrOrInt               `json:"maximum,omitempty"`
	ExclusiveMinimum StrOrInt               `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum StrOrInt               `json:"exclusiveMaximum,omitempty"`
	MinLength        int                    `json:"minLength,omitempty"`
	MaxLength        int                    `json:"maxLength,omitempty"`
	Not              map[string]interface{} `json:"not,omitempty"`
}

// ValidateSchema checks pd against the presentation definition schema. Every violation is
// reported in the returned error.
func (pd *PresentationDefinition) ValidateSchema() error {
	doc := struct {
		PD *PresentationDefinition `json:"presentation_definition"`
	}{PD: pd}

	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(definitionSchema),
		gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errcode.Wrapf(verifiable.ErrInvalidPresentationDefinition, "%v", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}

	return errcode.Wrapf(verifiable.ErrInvalidPresentationDefinition, "%v",
		errors.New(strings.Join(violations, ", ")))
}

// InputDescriptor returns the descriptor with the given id or nil.
func (pd *PresentationDefinition) InputDescriptor(id string) *InputDescriptor {
	for _, d := range pd.InputDescriptors {
		if d.ID == id {
			return d
		}
	}

	return nil
}

// Paths returns every field path of the descriptor in declaration order.
func (d *InputDescriptor) Paths() []string {
	if d.Constraints == nil {
		return nil
	}

	var paths []string

	for _, f := range d.Constraints.Fields {
		paths = append(paths, f.Path...)
	}

	return paths
}
