/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package verifier checks SD-JWT presentations and returns the disclosed claims.
package verifier

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/go-jose/go-jose/v3/jwt"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const defaultLeeway = time.Minute

// ErrHolderBinding is returned when the holder binding JWT is missing or does not verify.
var ErrHolderBinding = errors.New("invalid holder binding")

// parseOpts holds options for the SD-JWT parsing.
type parseOpts struct {
	issuerKeys        []keys.PublicKey
	signingAlgorithms []string
	now               func() time.Time

	holderBindingRequired bool
	holderKeys            []keys.PublicKey
	expectedNonce         string
	expectedAudience      string
}

// ParseOpt is the SD-JWT Parser option.
type ParseOpt func(opts *parseOpts)

// WithIssuerKeys sets the keys any of which may have signed the SD-JWT.
func WithIssuerKeys(pubs []keys.PublicKey) ParseOpt {
	return func(opts *parseOpts) {
		opts.issuerKeys = pubs
	}
}

// WithSigningAlgorithms option is for defining secure signing algorithms.
func WithSigningAlgorithms(algorithms []string) ParseOpt {
	return func(opts *parseOpts) {
		opts.signingAlgorithms = algorithms
	}
}

// WithClock overrides the time used for exp/nbf checks.
func WithClock(now func() time.Time) ParseOpt {
	return func(opts *parseOpts) {
		opts.now = now
	}
}

// WithHolderBindingRequired rejects presentations without a holder binding JWT.
func WithHolderBindingRequired(flag bool) ParseOpt {
	return func(opts *parseOpts) {
		opts.holderBindingRequired = flag
	}
}

// WithHolderKeys sets the keys any of which may have signed the holder binding JWT.
func WithHolderKeys(pubs []keys.PublicKey) ParseOpt {
	return func(opts *parseOpts) {
		opts.holderKeys = pubs
	}
}

// WithExpectedNonceForHolderBinding sets the nonce the holder binding JWT must carry.
func WithExpectedNonceForHolderBinding(nonce string) ParseOpt {
	return func(opts *parseOpts) {
		opts.expectedNonce = nonce
	}
}

// WithExpectedAudienceForHolderBinding sets the audience the holder binding JWT must carry.
func WithExpectedAudienceForHolderBinding(audience string) ParseOpt {
	return func(opts *parseOpts) {
		opts.expectedAudience = audience
	}
}

// Parse verifies a combined format for presentation and returns the payload with the disclosed
// claims in place. Without issuer keys the call fails: the signature is always checked.
func Parse(combinedFormatForPresentation string, opts ...ParseOpt) (map[string]interface{}, error) {
	pOpts := &parseOpts{
		signingAlgorithms: []string{"ES256K", "EdDSA"},
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(pOpts)
	}

	// Separate the Presentation into the SD-JWT, the Disclosures (if any), and the Holder Binding JWT (if provided)
	cfp := common.ParseCombinedFormatForPresentation(combinedFormatForPresentation)

	signedJWT, err := jwt.Parse(cfp.SDJWT)
	if err != nil {
		return nil, err
	}

	// Ensure that a signing algorithm was used that was deemed secure for the application.
	// The none algorithm MUST NOT be accepted.
	if err = verifySigningAlg(signedJWT.Algorithm(), pOpts.signingAlgorithms); err != nil {
		return nil, err
	}

	if len(pOpts.issuerKeys) == 0 {
		return nil, fmt.Errorf("%w: no issuer keys", jwt.ErrSignatureInvalid)
	}

	if _, err = signedJWT.VerifyWithAny(pOpts.issuerKeys); err != nil {
		return nil, err
	}

	// Check that the SD-JWT is valid using nbf, iat, and exp claims,
	// if provided in the SD-JWT, and not selectively disclosed.
	if err = verifySDJWT(signedJWT, pOpts.now()); err != nil {
		return nil, err
	}

	if err = common.CheckForDuplicates(cfp.Disclosures); err != nil {
		return nil, fmt.Errorf("check disclosures: %w", err)
	}

	if err = common.VerifyDisclosuresInSDJWT(cfp.Disclosures, signedJWT); err != nil {
		return nil, err
	}

	if err = verifyHolderBinding(cfp.HolderBinding, pOpts); err != nil {
		return nil, err
	}

	return common.DisclosedClaims(signedJWT.Payload, cfp.Disclosures)
}

func verifySigningAlg(alg string, secureAlgs []string) error {
	if alg == "" {
		return fmt.Errorf("missing alg")
	}

	if alg == jwt.AlgorithmNone {
		return fmt.Errorf("alg value cannot be 'none'")
	}

	if !slices.Contains(secureAlgs, alg) {
		return fmt.Errorf("alg '%s' is not in the allowed list", alg)
	}

	return nil
}

// verifySDJWT checks that the SD-JWT is valid using nbf, iat, and exp claims (if provided in the SD-JWT).
func verifySDJWT(signedJWT *jwt.JSONWebToken, now time.Time) error {
	var claims gojwt.Claims

	err := signedJWT.DecodeClaims(&claims)
	if err != nil {
		return err
	}

	err = claims.ValidateWithLeeway(gojwt.Expected{Time: now}, defaultLeeway)
	if err != nil {
		return fmt.Errorf("failed to validate SD-JWT time values: %w", err)
	}

	return nil
}

// bindingClaims is the payload of a holder binding JWT.
type bindingClaims struct {
	Nonce string `json:"nonce,omitempty"`
	gojwt.Claims
}

func verifyHolderBinding(holderBinding string, pOpts *parseOpts) error {
	if holderBinding == "" {
		if pOpts.holderBindingRequired {
			return fmt.Errorf("%w: holder binding is required", ErrHolderBinding)
		}

		return nil
	}

	token, err := jwt.Parse(holderBinding)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHolderBinding, err)
	}

	if err = verifySigningAlg(token.Algorithm(), pOpts.signingAlgorithms); err != nil {
		return fmt.Errorf("%w: %w", ErrHolderBinding, err)
	}

	if len(pOpts.holderKeys) == 0 {
		return fmt.Errorf("%w: no holder keys", ErrHolderBinding)
	}

	if _, err = token.VerifyWithAny(pOpts.holderKeys); err != nil {
		return fmt.Errorf("%w: %w", ErrHolderBinding, err)
	}

	var claims bindingClaims

	if err = token.DecodeClaims(&claims); err != nil {
		return fmt.Errorf("%w: %w", ErrHolderBinding, err)
	}

	if err = claims.ValidateWithLeeway(gojwt.Expected{Time: pOpts.now()}, defaultLeeway); err != nil {
		return fmt.Errorf("%w: failed to validate holder binding time values: %w", ErrHolderBinding, err)
	}

	if pOpts.expectedNonce != "" && claims.Nonce != pOpts.expectedNonce {
		return fmt.Errorf("%w: nonce value '%s' does not match expected nonce value '%s'",
			ErrHolderBinding, claims.Nonce, pOpts.expectedNonce)
	}

	if pOpts.expectedAudience != "" && !claims.Audience.Contains(pOpts.expectedAudience) {
		return fmt.Errorf("%w: audience value '%v' does not match expected audience value '%s'",
			ErrHolderBinding, []string(claims.Audience), pOpts.expectedAudience)
	}

	return nil
}
