/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package holder enables the Holder: an entity that receives SD-JWTs from the Issuer and has control over them.
package holder

import (
	"errors"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// Claim defines claim.
type Claim struct {
	Disclosure string
	Name       string
	Value      interface{}
}

// SignatureVerifier checks the issuer signature of the SD-JWT.
type SignatureVerifier func(token *jwt.JSONWebToken) error

// parseOpts holds options for the SD-JWT parsing.
type parseOpts struct {
	sigVerifier SignatureVerifier
}

// ParseOpt is the SD-JWT Parser option.
type ParseOpt func(opts *parseOpts)

// WithSignatureVerifier checks the issuer signature while parsing. Without it the signature is not checked.
func WithSignatureVerifier(signatureVerifier SignatureVerifier) ParseOpt {
	return func(opts *parseOpts) {
		opts.sigVerifier = signatureVerifier
	}
}

// Parse parses issuer SD-JWT and returns claims that can be selected.
// The Holder MUST perform the following (or equivalent) steps when receiving a Combined Format for Issuance:
//
//   - Separate the SD-JWT and the Disclosures in the Combined Format for Issuance.
//
//   - Hash all the Disclosures separately.
//
//   - Find the places in the SD-JWT where the digests of the Disclosures are included.
//
//   - If any of the digests cannot be found in the SD-JWT, the Holder MUST reject the SD-JWT.
//
//   - Decode Disclosures and obtain plaintext of the claim values.
func Parse(combinedFormatForIssuance string, opts ...ParseOpt) ([]*Claim, error) {
	pOpts := &parseOpts{}

	for _, opt := range opts {
		opt(pOpts)
	}

	cfi := common.ParseCombinedFormatForIssuance(combinedFormatForIssuance)

	signedJWT, err := jwt.Parse(cfi.SDJWT)
	if err != nil {
		return nil, err
	}

	if pOpts.sigVerifier != nil {
		if err = pOpts.sigVerifier(signedJWT); err != nil {
			return nil, fmt.Errorf("verify SD-JWT signature: %w", err)
		}
	}

	if err = common.CheckForDuplicates(cfi.Disclosures); err != nil {
		return nil, fmt.Errorf("check disclosures: %w", err)
	}

	if err = common.VerifyDisclosuresInSDJWT(cfi.Disclosures, signedJWT); err != nil {
		return nil, err
	}

	disclosureClaims, err := common.GetDisclosureClaims(cfi.Disclosures)
	if err != nil {
		return nil, err
	}

	claims := make([]*Claim, 0, len(disclosureClaims))
	for _, c := range disclosureClaims {
		claims = append(claims, &Claim{Disclosure: c.Disclosure, Name: c.Name, Value: c.Value})
	}

	return claims, nil
}

// BindingPayload represents the payload of the holder binding JWT.
type BindingPayload struct {
	Nonce    string           `json:"nonce,omitempty"`
	Audience string           `json:"aud,omitempty"`
	IssuedAt *jwt.NumericDate `json:"iat,omitempty"`
}

// BindingInfo holds the payload and the key the holder binding JWT is signed with.
type BindingInfo struct {
	Payload BindingPayload
	KeyID   string
	Signer  keys.Signer
}

// options holds options for creating a presentation.
type options struct {
	holderBinding *BindingInfo
}

// Option is a CreatePresentation option.
type Option func(opts *options)

// WithHolderBinding appends a holder binding JWT to the presentation.
func WithHolderBinding(info *BindingInfo) Option {
	return func(opts *options) {
		opts.holderBinding = info
	}
}

// CreatePresentation assembles the combined format for presentation that releases only the disclosures
// of the claims named in claimsToDisclose. This call assumes that combinedFormatForIssuance has already
// been parsed and verified using Parse().
func CreatePresentation(combinedFormatForIssuance string, claimsToDisclose []string,
	opts ...Option) (string, error) {
	pOpts := &options{}

	for _, opt := range opts {
		opt(pOpts)
	}

	cfi := common.ParseCombinedFormatForIssuance(combinedFormatForIssuance)

	claims, err := common.GetDisclosureClaims(cfi.Disclosures)
	if err != nil {
		return "", err
	}

	wanted := make(map[string]bool, len(claimsToDisclose))
	for _, name := range claimsToDisclose {
		wanted[name] = true
	}

	var selected []string

	for _, c := range claims {
		if wanted[c.Name] {
			selected = append(selected, c.Disclosure)
		}
	}

	cf := common.CombinedFormatForPresentation{SDJWT: cfi.SDJWT, Disclosures: selected}

	if pOpts.holderBinding != nil {
		cf.HolderBinding, err = CreateHolderBinding(pOpts.holderBinding)
		if err != nil {
			return "", fmt.Errorf("failed to create holder binding: %w", err)
		}
	}

	return cf.Serialize(), nil
}

// CreateHolderBinding signs the holder binding JWT.
func CreateHolderBinding(info *BindingInfo) (string, error) {
	if info.Signer == nil {
		return "", errors.New("missing holder binding signer")
	}

	token, err := jwt.NewSigned(info.Payload, info.KeyID, info.Signer)
	if err != nil {
		return "", err
	}

	return token.Serialize(), nil
}
