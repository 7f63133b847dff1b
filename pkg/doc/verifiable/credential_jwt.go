/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const verifiableCredentialKey = "vc"

// JWTCredClaims is JWT Claims extension by Verifiable Credential (with custom "vc" claim).
type JWTCredClaims struct {
	jwt.Claims

	Credential map[string]interface{} `json:"vc,omitempty"`
}

// JWTCredential is a credential carried as the vc claim of a signed JWT.
type JWTCredential struct {
	token  *jwt.JSONWebToken
	claims jwt.Claims
	vc     *W3CCredential
}

// ParseJWTCredential decodes a compact JWT credential without checking its signature.
func ParseJWTCredential(serialized string) (*JWTCredential, error) {
	token, err := jwt.Parse(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTCredential, err)
	}

	vcClaim, ok := token.Payload[verifiableCredentialKey].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: no %q claim", ErrInvalidJWTCredential, verifiableCredentialKey)
	}

	claims := jwt.Claims{}
	if err = token.DecodeClaims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTCredential, err)
	}

	vc, err := NewW3CCredential(vcClaim)
	if err != nil {
		return nil, err
	}

	return &JWTCredential{token: token, claims: claims, vc: vc}, nil
}

// NewJWTCredential signs vc as a JWT. iss, sub, jti, nbf and exp are taken from vc.
func NewJWTCredential(vc *W3CCredential, kid string, signer keys.Signer) (*JWTCredential, error) {
	doc, err := vc.ToMap()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims := &JWTCredClaims{
		Claims: jwt.Claims{
			Issuer:  vc.Issuer(),
			Subject: vc.Subject(),
			ID:      vc.ID(),
		},
		Credential: doc,
	}

	if vc.Issued != nil {
		claims.NotBefore = jwt.NewNumericDate(*vc.Issued)
	}

	if vc.Expired != nil {
		claims.Expiry = jwt.NewNumericDate(*vc.Expired)
	}

	token, err := jwt.NewSigned(claims, kid, signer)
	if err != nil {
		return nil, err
	}

	return ParseJWTCredential(token.Serialize())
}

// Token returns the parsed JWT.
func (c *JWTCredential) Token() *jwt.JSONWebToken { return c.token }

// Serialize returns the compact JWT.
func (c *JWTCredential) Serialize() string { return c.token.Serialize() }

// Payload returns the JWT claims, vc included.
func (c *JWTCredential) Payload() map[string]interface{} { return c.token.Payload }

// VC returns the embedded credential.
func (c *JWTCredential) VC() *W3CCredential { return c.vc }

// ID returns jti, falling back to the vc id.
func (c *JWTCredential) ID() string {
	if c.claims.ID != "" {
		return c.claims.ID
	}

	return c.vc.ID()
}

// Issuer returns iss, falling back to the vc issuer.
func (c *JWTCredential) Issuer() string {
	if c.claims.Issuer != "" {
		return c.claims.Issuer
	}

	return c.vc.Issuer()
}

// Subject returns sub, falling back to the credential subject id.
func (c *JWTCredential) Subject() string {
	if c.claims.Subject != "" {
		return c.claims.Subject
	}

	return c.vc.Subject()
}

// Claims returns the credential subject claims.
func (c *JWTCredential) Claims() map[string]interface{} { return c.vc.Claims() }

// IssuanceDate returns nbf, then iat, then the vc issuanceDate.
func (c *JWTCredential) IssuanceDate() *time.Time {
	switch {
	case c.claims.NotBefore != nil:
		t := c.claims.NotBefore.Time()
		return &t
	case c.claims.IssuedAt != nil:
		t := c.claims.IssuedAt.Time()
		return &t
	default:
		return c.vc.IssuanceDate()
	}
}

// ExpirationDate returns exp, falling back to the vc expirationDate.
func (c *JWTCredential) ExpirationDate() *time.Time {
	if c.claims.Expiry != nil {
		t := c.claims.Expiry.Time()
		return &t
	}

	return c.vc.ExpirationDate()
}

// Type returns the vc types.
func (c *JWTCredential) Type() []string { return c.vc.Type() }

// Format returns FormatJWT.
func (c *JWTCredential) Format() Format { return FormatJWT }

// Status returns the credentialStatus entry or nil.
func (c *JWTCredential) Status() *Status { return c.vc.Status() }

// StorableData returns the compact JWT.
func (c *JWTCredential) StorableData() []byte { return []byte(c.token.Serialize()) }

// RestorationID returns JWTRestorationID.
func (c *JWTCredential) RestorationID() string { return JWTRestorationID }

// VerifySignature accepts the credential if any of pubs verifies it.
func (c *JWTCredential) VerifySignature(pubs []keys.PublicKey) error {
	if _, err := c.token.VerifyWithAny(pubs); err != nil {
		return fmt.Errorf("%w: issuer %s: %w", ErrCannotVerifyCredential, c.Issuer(), err)
	}

	return nil
}
