/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/presexch"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/holder"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// Algorithms a verifier accepts for JWT based formats.
var supportedAlgorithms = []string{"ES256K", "EdDSA"} //nolint:gochecknoglobals

const (
	verifiablePresentationPath = "$.verifiablePresentation[0]"
	nestedCredentialPath       = "$.vp.verifiableCredential[0]"
)

// DefinitionRequest is the payload of a presentation exchange request attachment.
type DefinitionRequest struct {
	PresentationDefinition *presexch.PresentationDefinition `json:"presentation_definition"`
	Options                *presentproof.Options           `json:"options,omitempty"`
}

// SubmissionResponse is the payload of a presentation exchange presentation attachment.
type SubmissionResponse struct {
	PresentationSubmission *presexch.PresentationSubmission `json:"presentation_submission"`
	VerifiablePresentation []string                         `json:"verifiablePresentation"`
}

func (r *DefinitionRequest) challenge() (string, string) {
	if r.Options == nil {
		return "", ""
	}

	return r.Options.Challenge, r.Options.Domain
}

// CreatePresentationRequest builds the request attachment a verifier sends for claims. JWT and SD-JWT
// requests are presentation definitions; AnonCreds requests are proof requests.
func (e *Engine) CreatePresentationRequest(format Format, claims ClaimFilters,
	opts Options) (*message.Attachment, error) {
	switch format {
	case FormatJWT, FormatSDJWT:
		id := SDJWTFormat
		if format == FormatJWT {
			id = JWTFormat
		}

		challenge := opts.Challenge
		if challenge == "" {
			challenge = uuid.New().String()
		}

		pd := claims.Definition(uuid.New().String(), id, supportedAlgorithms)
		if err := pd.ValidateSchema(); err != nil {
			return nil, err
		}

		a, err := message.NewJSONAttachment("", DefinitionFormat, &DefinitionRequest{
			PresentationDefinition: pd,
			Options:                &presentproof.Options{Challenge: challenge, Domain: opts.Domain},
		})
		if err != nil {
			return nil, err
		}

		return &a, nil
	case FormatAnonCreds:
		return e.anonPresentationRequest(claims, opts)
	default:
		return nil, fmt.Errorf("%w: cannot request %s presentations", ErrUnsupportedCredentialFormat, format)
	}
}

// CreatePresentation answers a request-presentation message with cred. The claims of the request
// and of opts.Claims must be satisfied by cred.
func (e *Engine) CreatePresentation(_ context.Context, request *message.Message, cred verifiable.Credential,
	opts Options) (*message.Attachment, error) {
	a, id, err := attachmentOf(request)
	if err != nil {
		return nil, err
	}

	switch id {
	case DefinitionFormat:
		req := &DefinitionRequest{}
		if err = decodeAttachment(a, req); err != nil {
			return nil, err
		}

		if req.PresentationDefinition == nil {
			return nil, fmt.Errorf("%w: no presentation_definition", ErrInvalidPresentationDefinition)
		}

		return e.submission(req, cred, opts)
	case JWTFormat, PrismJWTFormat:
		c, ok := cred.(*verifiable.JWTCredential)
		if !ok {
			return nil, fmt.Errorf("%w: %s request for a %s credential", ErrUnsupportedCredentialFormat, id, cred.Format())
		}

		if err = presexch.EvaluateConstraints(c.Payload(), opts.Claims.Constraints()); err != nil {
			return nil, err
		}

		o := presentproof.RequestOptions([]message.Attachment{*a})

		vp, err := e.signPresentation(c, o.Challenge, o.Domain, opts)
		if err != nil {
			return nil, err
		}

		out := message.NewBase64Attachment("", "application/jwt", id, []byte(vp))

		return &out, nil
	case SDJWTFormat:
		c, ok := cred.(*sdjwt.Credential)
		if !ok {
			return nil, fmt.Errorf("%w: %s request for a %s credential", ErrUnsupportedCredentialFormat, id, cred.Format())
		}

		o := presentproof.RequestOptions([]message.Attachment{*a})

		presentation, err := e.presentSDJWT(c, opts.Claims.Constraints(), o.Challenge, o.Domain, opts)
		if err != nil {
			return nil, err
		}

		out := message.NewBase64Attachment("", "application/sd-jwt", SDJWTFormat, []byte(presentation))

		return &out, nil
	case AnonCredsProofRequestFormat:
		c, ok := cred.(*anoncreds.CredentialStack)
		if !ok {
			return nil, fmt.Errorf("%w: %s request for a %s credential", ErrUnsupportedCredentialFormat, id, cred.Format())
		}

		return e.anonPresentation(a, c, opts)
	default:
		return nil, fmt.Errorf("%w: %s cannot carry a presentation request", ErrUnsupportedCredentialFormat, id)
	}
}

func (e *Engine) submission(req *DefinitionRequest, cred verifiable.Credential,
	opts Options) (*message.Attachment, error) {
	pd := req.PresentationDefinition
	challenge, domain := req.challenge()

	var (
		presentation string
		mapping      func(id string) *presexch.InputDescriptorMapping
	)

	switch c := cred.(type) {
	case *verifiable.JWTCredential:
		if err := satisfies(c.Payload(), pd, opts.Claims); err != nil {
			return nil, err
		}

		vp, err := e.signPresentation(c, challenge, domain, opts)
		if err != nil {
			return nil, err
		}

		presentation = vp
		mapping = func(id string) *presexch.InputDescriptorMapping {
			return &presexch.InputDescriptorMapping{
				ID: id, Format: presexch.FormatJWTVP, Path: verifiablePresentationPath,
				PathNested: &presexch.InputDescriptorMapping{
					ID: id, Format: presexch.FormatJWTVC, Path: nestedCredentialPath,
				},
			}
		}
	case *sdjwt.Credential:
		if err := satisfies(c.Document(), pd, opts.Claims); err != nil {
			return nil, err
		}

		constraints := &presexch.Constraints{}

		for _, d := range pd.InputDescriptors {
			if d.Constraints != nil {
				constraints.Fields = append(constraints.Fields, d.Constraints.Fields...)
			}
		}

		if extra := opts.Claims.Constraints(); extra != nil {
			constraints.Fields = append(constraints.Fields, extra.Fields...)
		}

		p, err := e.presentSDJWT(c, constraints, challenge, domain, opts)
		if err != nil {
			return nil, err
		}

		presentation = p
		mapping = func(id string) *presexch.InputDescriptorMapping {
			return &presexch.InputDescriptorMapping{ID: id, Format: presexch.FormatSDJWT, Path: verifiablePresentationPath}
		}
	case *anoncreds.CredentialStack, *verifiable.W3CCredential:
		return nil, fmt.Errorf("%w: %s credentials cannot answer a presentation definition",
			ErrUnsupportedCredentialFormat, cred.Format())
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCredentialFormat, cred)
	}

	a, err := message.NewJSONAttachment("", SubmissionFormat, &SubmissionResponse{
		PresentationSubmission: pd.NewSubmission(uuid.New().String(), mapping),
		VerifiablePresentation: []string{presentation},
	})
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (e *Engine) signPresentation(c *verifiable.JWTCredential, challenge, domain string,
	opts Options) (string, error) {
	if opts.Subject == "" {
		return "", missingOption("subject DID", FormatJWT)
	}

	if opts.Signer == nil {
		return "", missingOption("signer", FormatJWT)
	}

	vp, err := verifiable.NewJWTPresentation(opts.Subject, opts.KeyID, opts.Signer, []string{c.Serialize()},
		verifiable.WithNonce(challenge), verifiable.WithAudience(domain))
	if err != nil {
		return "", err
	}

	return vp.Serialize(), nil
}

// satisfies checks doc against every input descriptor of pd and the extra claims.
func satisfies(doc interface{}, pd *presexch.PresentationDefinition, claims ClaimFilters) error {
	for _, d := range pd.InputDescriptors {
		if err := presexch.EvaluateConstraints(doc, d.Constraints); err != nil {
			return fmt.Errorf("input descriptor %s: %w", d.ID, err)
		}
	}

	return presexch.EvaluateConstraints(doc, claims.Constraints())
}

// presentSDJWT discloses the claims the constraint fields select and binds the presentation to the
// challenge with the holder key. Without constraints nothing but the always visible claims is shown.
func (e *Engine) presentSDJWT(c *sdjwt.Credential, constraints *presexch.Constraints, challenge, domain string,
	opts Options) (string, error) {
	if opts.Signer == nil {
		return "", missingOption("signer", FormatSDJWT)
	}

	if err := presexch.EvaluateConstraints(c.Document(), constraints); err != nil {
		return "", err
	}

	disclosable := map[string]bool{}
	for _, name := range c.DisclosableClaims() {
		disclosable[name] = true
	}

	var names []string

	if constraints != nil {
		for _, field := range constraints.Fields {
			for _, path := range field.Path {
				name := path[strings.LastIndex(path, ".")+1:]
				if disclosable[name] {
					names = append(names, name)
				}
			}
		}
	}

	return c.Present(names, holder.WithHolderBinding(&holder.BindingInfo{
		Payload: holder.BindingPayload{Nonce: challenge, Audience: domain, IssuedAt: jwt.NewNumericDate(e.now())},
		KeyID:   opts.KeyID,
		Signer:  opts.Signer,
	}))
}
