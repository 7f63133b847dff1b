/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// PresentationSubmission is the container for the descriptor_map:
// https://identity.foundation/presentation-exchange/#presentation-submission.
type PresentationSubmission struct {
	// ID unique resource identifier.
	ID     string `json:"id,omitempty"`
	Locale string `json:"locale,omitempty"`
	// DefinitionID links the submission to its definition and must be the id value of a valid Presentation Definition.
	DefinitionID  string                    `json:"definition_id,omitempty"`
	DescriptorMap []*InputDescriptorMapping `json:"descriptor_map"`
}

// InputDescriptorMapping maps an InputDescriptor to a verifiable credential pointed to by the JSONPath in `Path`.
type InputDescriptorMapping struct {
	ID         string                  `json:"id,omitempty"`
	Format     string                  `json:"format,omitempty"`
	Path       string                  `json:"path,omitempty"`
	PathNested *InputDescriptorMapping `json:"path_nested,omitempty"`
}

// CredentialVerifier checks a value selected by a descriptor mapping hop and returns the document the
// next hop, or the constraints, are evaluated against. Compact JWTs are expected to be verified and decoded.
type CredentialVerifier func(ctx context.Context, format string, selected interface{}) (interface{}, error)

// NewSubmission returns a submission for pd with one mapping per input descriptor.
func (pd *PresentationDefinition) NewSubmission(id string,
	mapping func(descriptorID string) *InputDescriptorMapping) *PresentationSubmission {
	submission := &PresentationSubmission{ID: id, DefinitionID: pd.ID}

	for _, d := range pd.InputDescriptors {
		submission.DescriptorMap = append(submission.DescriptorMap, mapping(d.ID))
	}

	return submission
}

// Match evaluates submission against the presentation and returns the document each input descriptor
// resolved to. Every mapping hop is handed to verify on its own; failures of all mappings are collected
// into one ErrInvalidPresentationSubmission.
func (pd *PresentationDefinition) Match(ctx context.Context, presentation interface{},
	submission *PresentationSubmission, verify CredentialVerifier) (map[string]interface{}, error) {
	if submission == nil {
		return nil, errcode.Wrapf(verifiable.ErrInvalidPresentationSubmission, "missing submission")
	}

	if submission.DefinitionID != "" && pd.ID != "" && submission.DefinitionID != pd.ID {
		return nil, errcode.Wrapf(verifiable.ErrInvalidPresentationSubmission,
			"submission is for definition %s, expected %s", submission.DefinitionID, pd.ID)
	}

	root, err := toTypeless(presentation)
	if err != nil {
		return nil, errcode.Wrapf(verifiable.ErrInvalidPresentationSubmission, "%v", err)
	}

	builder := gval.Full(jsonpath.PlaceholderExtension())

	result := make(map[string]interface{})

	var errs []error

	for _, mapping := range submission.DescriptorMap {
		// The object MUST include an id property, and its value MUST be a string matching the id property of
		// the Input Descriptor in the Presentation Definition the submission is related to.
		descriptor := pd.InputDescriptor(mapping.ID)
		if descriptor == nil {
			errs = append(errs, fmt.Errorf("descriptor_map id %q does not match any input descriptor", mapping.ID))

			continue
		}

		doc, selectErr := resolveMapping(ctx, builder, root, mapping, verify)
		if selectErr != nil {
			errs = append(errs, fmt.Errorf("input descriptor %s: %w", mapping.ID, selectErr))

			continue
		}

		if constraintErr := EvaluateConstraints(doc, descriptor.Constraints); constraintErr != nil {
			errs = append(errs, fmt.Errorf("input descriptor %s: %w", mapping.ID, constraintErr))

			continue
		}

		result[mapping.ID] = doc
	}

	if len(errs) != 0 {
		return nil, errcode.Aggregate(verifiable.ErrInvalidPresentationSubmission, errs)
	}

	if err := pd.evalSubmissionRequirements(result); err != nil {
		return nil, errcode.Wrapf(verifiable.ErrInvalidPresentationSubmission, "%v", err)
	}

	return result, nil
}

func resolveMapping(ctx context.Context, builder gval.Language, root interface{},
	mapping *InputDescriptorMapping, verify CredentialVerifier) (interface{}, error) {
	doc := root

	for hop := mapping; hop != nil; hop = hop.PathNested {
		selected, err := selectByPath(ctx, builder, doc, hop.Path)
		if err != nil {
			return nil, err
		}

		if verify == nil {
			doc = selected

			continue
		}

		doc, err = verify(ctx, hop.Format, selected)
		if err != nil {
			return nil, fmt.Errorf("verify %s selected by %s: %w", hop.Format, hop.Path, err)
		}

		if doc, err = toTypeless(doc); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// Ensures the matched credentials meet the submission requirements.
func (pd *PresentationDefinition) evalSubmissionRequirements(matched map[string]interface{}) error {
	if len(pd.SubmissionRequirements) == 0 {
		for _, d := range pd.InputDescriptors {
			if _, found := matched[d.ID]; !found {
				return fmt.Errorf("no credential provided for input descriptor %s", d.ID)
			}
		}

		return nil
	}

	for _, req := range pd.SubmissionRequirements {
		if !pd.satisfies(req, matched) {
			return fmt.Errorf("submission requirement %q (rule %s) is not satisfied", req.Name, req.Rule)
		}
	}

	return nil
}

func (pd *PresentationDefinition) satisfies(req *SubmissionRequirement, matched map[string]interface{}) bool {
	var total, got int

	if req.From != "" {
		for _, d := range pd.InputDescriptors {
			if !stringsContain(d.Group, req.From) {
				continue
			}

			total++

			if _, ok := matched[d.ID]; ok {
				got++
			}
		}
	} else {
		for _, nested := range req.FromNested {
			total++

			if pd.satisfies(nested, matched) {
				got++
			}
		}
	}

	switch req.Rule {
	case All:
		return total > 0 && got == total
	case Pick:
		if req.Count != nil {
			return got == *req.Count
		}

		if got < req.Min {
			return false
		}

		return req.Max == 0 || got <= req.Max
	default:
		return false
	}
}

// [The Input Descriptor Mapping Object] MUST include a path property, and its value MUST be a JSONPath
// string expression that selects the credential to be submit in relation to the identified Input Descriptor
// identified, when executed against the top-level of the object the Presentation Submission is embedded within.
func selectByPath(ctx context.Context, builder gval.Language, doc interface{}, jsonPath string) (interface{}, error) {
	path, err := builder.NewEvaluable(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build new json path evaluator: %w", err)
	}

	selected, err := path(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate json path [%s]: %w", jsonPath, err)
	}

	return selected, nil
}

// toTypeless turns structs into the generic JSON form JSONPath operates on.
func toTypeless(v interface{}) (interface{}, error) {
	switch v.(type) {
	case nil, string, map[string]interface{}, []interface{}:
		return v, nil
	}

	bits, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	var typeless interface{}

	if err := json.Unmarshal(bits, &typeless); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}

	return typeless, nil
}

func stringsContain(s []string, val string) bool {
	for i := range s {
		if s[i] == val {
			return true
		}
	}

	return false
}
