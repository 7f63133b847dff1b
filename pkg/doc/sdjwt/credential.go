/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package sdjwt models SD-JWT credentials. The issuer, holder and verifier subpackages
// implement the respective roles.
package sdjwt

import (
	"fmt"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/holder"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// registered claims are not part of Claims().
var registeredClaims = map[string]bool{ //nolint:gochecknoglobals
	"iss": true, "sub": true, "aud": true, "exp": true, "nbf": true, "iat": true, "jti": true,
	"cnf": true, "vct": true, "status": true, common.SDAlgorithmKey: true,
}

// Credential is an SD-JWT credential in combined format for issuance.
type Credential struct {
	serialized string
	token      *jwt.JSONWebToken
	claims     []*holder.Claim
	disclosed  map[string]interface{}
}

// Parse decodes a combined format for issuance and checks every disclosure belongs to the SD-JWT.
// The issuer signature is checked only when verifier is not nil.
func Parse(combined string, verifier holder.SignatureVerifier) (*Credential, error) {
	var opts []holder.ParseOpt
	if verifier != nil {
		opts = append(opts, holder.WithSignatureVerifier(verifier))
	}

	claims, err := holder.Parse(combined, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verifiable.ErrInvalidCredential, err)
	}

	cfi := common.ParseCombinedFormatForIssuance(combined)

	token, err := jwt.Parse(cfi.SDJWT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verifiable.ErrInvalidCredential, err)
	}

	disclosed, err := common.DisclosedClaims(token.Payload, cfi.Disclosures)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verifiable.ErrInvalidCredential, err)
	}

	return &Credential{serialized: combined, token: token, claims: claims, disclosed: disclosed}, nil
}

// VerifierFor returns a signature verifier accepting any of pubs.
func VerifierFor(pubs []keys.PublicKey) holder.SignatureVerifier {
	return func(token *jwt.JSONWebToken) error {
		_, err := token.VerifyWithAny(pubs)

		return err
	}
}

// Serialize returns the combined format for issuance.
func (c *Credential) Serialize() string { return c.serialized }

// Token returns the issuer signed JWT.
func (c *Credential) Token() *jwt.JSONWebToken { return c.token }

// Document returns the payload with every disclosure applied.
func (c *Credential) Document() map[string]interface{} { return c.disclosed }

// DisclosableClaims returns the names of the selectively disclosable claims.
func (c *Credential) DisclosableClaims() []string {
	names := make([]string, 0, len(c.claims))
	for _, cl := range c.claims {
		names = append(names, cl.Name)
	}

	return names
}

// Present builds a presentation releasing only the named claims.
func (c *Credential) Present(claimNames []string, opts ...holder.Option) (string, error) {
	return holder.CreatePresentation(c.serialized, claimNames, opts...)
}

func (c *Credential) vc() map[string]interface{} {
	vc, _ := c.disclosed["vc"].(map[string]interface{}) //nolint:errcheck

	return vc
}

func (c *Credential) stringClaim(name string) string {
	s, _ := c.disclosed[name].(string) //nolint:errcheck

	return s
}

func (c *Credential) dateClaim(name string) *time.Time {
	f, ok := c.disclosed[name].(float64)
	if !ok {
		return nil
	}

	t := time.Unix(int64(f), 0)

	return &t
}

// ID returns jti.
func (c *Credential) ID() string { return c.stringClaim("jti") }

// Issuer returns iss.
func (c *Credential) Issuer() string { return c.stringClaim("iss") }

// Subject returns sub.
func (c *Credential) Subject() string { return c.stringClaim("sub") }

// Claims returns the disclosed claims. A vc claim, when present, contributes its credentialSubject.
func (c *Credential) Claims() map[string]interface{} {
	if vc := c.vc(); vc != nil {
		if subject, ok := vc["credentialSubject"].(map[string]interface{}); ok {
			return subject
		}
	}

	out := map[string]interface{}{}

	for k, v := range c.disclosed {
		if !registeredClaims[k] {
			out[k] = v
		}
	}

	return out
}

// IssuanceDate returns iat, falling back to nbf.
func (c *Credential) IssuanceDate() *time.Time {
	if t := c.dateClaim("iat"); t != nil {
		return t
	}

	return c.dateClaim("nbf")
}

// ExpirationDate returns exp.
func (c *Credential) ExpirationDate() *time.Time { return c.dateClaim("exp") }

// Type returns vct, or the vc types.
func (c *Credential) Type() []string {
	if vct := c.stringClaim("vct"); vct != "" {
		return []string{vct}
	}

	if vc := c.vc(); vc != nil {
		if types, ok := vc["type"].([]interface{}); ok {
			out := make([]string, 0, len(types))

			for _, t := range types {
				if s, ok := t.(string); ok {
					out = append(out, s)
				}
			}

			return out
		}
	}

	return nil
}

// Format returns FormatSDJWT.
func (c *Credential) Format() verifiable.Format { return verifiable.FormatSDJWT }

// StorableData returns the combined format for issuance.
func (c *Credential) StorableData() []byte { return []byte(c.serialized) }

// RestorationID returns SDJWTRestorationID.
func (c *Credential) RestorationID() string { return verifiable.SDJWTRestorationID }
