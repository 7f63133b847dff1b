/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const verifiablePresentationKey = "vp"

// Presentation is the vp claim of a JWT presentation.
type Presentation struct {
	Context                []string      `json:"@context"`
	Type                   []string      `json:"type"`
	Holder                 string        `json:"holder,omitempty"`
	VerifiableCredential   []interface{} `json:"verifiableCredential"`
	PresentationSubmission interface{}   `json:"presentation_submission,omitempty"`
}

// Credentials returns the embedded credentials that are compact strings.
func (vp *Presentation) Credentials() []string {
	var out []string

	for _, c := range vp.VerifiableCredential {
		if s, ok := c.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

// JWTPresClaims is JWT Claims extension by Verifiable Presentation (with custom "vp" claim).
type JWTPresClaims struct {
	jwt.Claims

	Nonce        string        `json:"nonce,omitempty"`
	Presentation *Presentation `json:"vp,omitempty"`
}

type presentationOpts struct {
	audience   string
	nonce      string
	submission interface{}
}

// PresentationOpt configures NewJWTPresentation.
type PresentationOpt func(opts *presentationOpts)

// WithAudience sets aud, the verifier domain.
func WithAudience(aud string) PresentationOpt {
	return func(opts *presentationOpts) {
		opts.audience = aud
	}
}

// WithNonce sets nonce, the verifier challenge.
func WithNonce(nonce string) PresentationOpt {
	return func(opts *presentationOpts) {
		opts.nonce = nonce
	}
}

// WithSubmission embeds a presentation_submission in the vp claim.
func WithSubmission(submission interface{}) PresentationOpt {
	return func(opts *presentationOpts) {
		opts.submission = submission
	}
}

// JWTPresentation is a signed JWT presentation.
type JWTPresentation struct {
	Token  *jwt.JSONWebToken
	Claims JWTPresClaims
}

// NewJWTPresentation signs a presentation of credentials by holder.
func NewJWTPresentation(holder, kid string, signer keys.Signer, credentials []string,
	opts ...PresentationOpt) (*JWTPresentation, error) {
	o := &presentationOpts{}
	for _, opt := range opts {
		opt(o)
	}

	vcs := make([]interface{}, 0, len(credentials))
	for _, c := range credentials {
		vcs = append(vcs, c)
	}

	claims := &JWTPresClaims{
		Claims: jwt.Claims{Issuer: holder},
		Nonce:  o.nonce,
		Presentation: &Presentation{
			Context:                []string{ContextURI},
			Type:                   []string{VPType},
			VerifiableCredential:   vcs,
			PresentationSubmission: o.submission,
		},
	}

	if o.audience != "" {
		claims.Audience = []string{o.audience}
	}

	token, err := jwt.NewSigned(claims, kid, signer)
	if err != nil {
		return nil, err
	}

	return ParseJWTPresentation(token.Serialize())
}

// ParseJWTPresentation decodes a compact JWT presentation without checking its signature.
func ParseJWTPresentation(serialized string) (*JWTPresentation, error) {
	token, err := jwt.Parse(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTPresentation, err)
	}

	if _, ok := token.Payload[verifiablePresentationKey]; !ok {
		return nil, fmt.Errorf("%w: no %q claim", ErrInvalidJWTPresentation, verifiablePresentationKey)
	}

	claims := JWTPresClaims{}
	if err = token.DecodeClaims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTPresentation, err)
	}

	if claims.Presentation == nil {
		return nil, fmt.Errorf("%w: empty %q claim", ErrInvalidJWTPresentation, verifiablePresentationKey)
	}

	if claims.Presentation.Holder == "" {
		claims.Presentation.Holder = claims.Issuer
	}

	return &JWTPresentation{Token: token, Claims: claims}, nil
}

// Holder returns iss.
func (p *JWTPresentation) Holder() string { return p.Claims.Issuer }

// Serialize returns the compact JWT.
func (p *JWTPresentation) Serialize() string { return p.Token.Serialize() }
