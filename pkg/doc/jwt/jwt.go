/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwt signs and verifies compact JWS tokens with the agent's ES256K and EdDSA keys.
package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const (
	// TypeJWT defines JWT type.
	TypeJWT = "JWT"

	// AlgorithmNone used to indicate unsecured JWT.
	AlgorithmNone = "none"
)

var (
	// ErrInvalidJWT is returned when a string is not a compact JWS.
	ErrInvalidJWT = errors.New("invalid JWT")
	// ErrSignatureInvalid is returned when no supplied key verifies the token.
	ErrSignatureInvalid = errors.New("JWT signature invalid")
)

// Claims defines JSON Web Token Claims (https://tools.ietf.org/html/rfc7519#section-4)
type Claims = jwt.Claims

// NumericDate is seconds since epoch.
type NumericDate = jwt.NumericDate

// NewNumericDate constructs NumericDate from time.Time.
func NewNumericDate(t time.Time) *NumericDate {
	return jwt.NewNumericDate(t)
}

// JSONWebToken defines JSON Web Token (https://tools.ietf.org/html/rfc7519)
type JSONWebToken struct {
	Headers map[string]interface{}
	Payload map[string]interface{}

	serialized string
	token      *jwt.JSONWebToken
}

// Parse parses a compact JWT without verifying it.
func Parse(serialized string) (*JSONWebToken, error) {
	serialized = strings.TrimSpace(serialized)

	if !IsJWS(serialized) {
		return nil, fmt.Errorf("%w: JWT of compacted JWS form is supported only", ErrInvalidJWT)
	}

	token, err := jwt.ParseSigned(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWT, err)
	}

	payload := map[string]interface{}{}
	if err = token.UnsafeClaimsWithoutVerification(&payload); err != nil {
		return nil, fmt.Errorf("%w: read claims: %v", ErrInvalidJWT, err)
	}

	headers, err := decodeHeaders(serialized)
	if err != nil {
		return nil, err
	}

	return &JSONWebToken{Headers: headers, Payload: payload, serialized: serialized, token: token}, nil
}

// NewSigned signs claims with signer. kid, when not empty, is set in the protected header.
func NewSigned(claims interface{}, kid string, signer keys.Signer) (*JSONWebToken, error) {
	opaque := &opaqueSigner{signer: signer, kid: kid}

	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.SignatureAlgorithm(signer.Algorithm()), Key: opaque},
		(&jose.SignerOptions{}).WithType(TypeJWT))
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	serialized, err := jwt.Signed(sig).Claims(claims).CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("sign JWT: %w", err)
	}

	return Parse(serialized)
}

// Serialize returns the compact form.
func (j *JSONWebToken) Serialize() string {
	return j.serialized
}

// KeyID returns the kid header.
func (j *JSONWebToken) KeyID() string {
	return j.LookupStringHeader("kid")
}

// Algorithm returns the alg header.
func (j *JSONWebToken) Algorithm() string {
	return j.LookupStringHeader("alg")
}

// Verify checks the signature against pub.
func (j *JSONWebToken) Verify(pub keys.PublicKey) error {
	verifier, ok := pub.(keys.Verifier)
	if !ok {
		return fmt.Errorf("%w: %s key cannot verify", ErrSignatureInvalid, pub.Curve())
	}

	if verifier.Algorithm() != j.Algorithm() {
		return fmt.Errorf("%w: alg %s does not match %s key", ErrSignatureInvalid, j.Algorithm(), pub.Curve())
	}

	out := map[string]interface{}{}
	if err := j.token.Claims(&opaqueVerifier{verifier: verifier}, &out); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}

	return nil
}

// VerifyWithAny accepts the token if any of pubs verifies it and returns that key.
func (j *JSONWebToken) VerifyWithAny(pubs []keys.PublicKey) (keys.PublicKey, error) {
	var lastErr error = ErrSignatureInvalid

	for _, pub := range pubs {
		err := j.Verify(pub)
		if err == nil {
			return pub, nil
		}

		lastErr = err
	}

	return nil, lastErr
}

// DecodeClaims fills input c with claims of a token.
func (j *JSONWebToken) DecodeClaims(c interface{}) error {
	pBytes, err := json.Marshal(j.Payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(pBytes, c)
}

// LookupStringHeader makes look up of particular header with string value.
func (j *JSONWebToken) LookupStringHeader(name string) string {
	if headerValue, ok := j.Headers[name]; ok {
		if headerStrValue, ok := headerValue.(string); ok {
			return headerStrValue
		}
	}

	return ""
}

// LookupStringClaim returns a string claim or "".
func (j *JSONWebToken) LookupStringClaim(name string) string {
	if v, ok := j.Payload[name].(string); ok {
		return v
	}

	return ""
}

// IsJWS checks if JWT is a JWS of valid structure.
func IsJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == 3 &&
		isValidJSON(parts[0]) &&
		isValidJSON(parts[1]) &&
		parts[2] != ""
}

func isValidJSON(s string) bool {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return false
	}

	var j map[string]interface{}
	err = json.Unmarshal(b, &j)

	return err == nil
}

func decodeHeaders(serialized string) (map[string]interface{}, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.SplitN(serialized, ".", 2)[0])
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidJWT, err)
	}

	headers := map[string]interface{}{}
	if err = json.Unmarshal(b, &headers); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrInvalidJWT, err)
	}

	return headers, nil
}

// opaqueSigner lets go-jose sign with algorithms it does not implement itself (ES256K).
type opaqueSigner struct {
	signer keys.Signer
	kid    string
}

func (s *opaqueSigner) Public() *jose.JSONWebKey {
	return &jose.JSONWebKey{KeyID: s.kid}
}

func (s *opaqueSigner) Algs() []jose.SignatureAlgorithm {
	return []jose.SignatureAlgorithm{jose.SignatureAlgorithm(s.signer.Algorithm())}
}

func (s *opaqueSigner) SignPayload(payload []byte, _ jose.SignatureAlgorithm) ([]byte, error) {
	return s.signer.Sign(payload)
}

type opaqueVerifier struct {
	verifier keys.Verifier
}

func (v *opaqueVerifier) VerifyPayload(payload, signature []byte, alg jose.SignatureAlgorithm) error {
	if string(alg) != v.verifier.Algorithm() {
		return fmt.Errorf("unexpected alg %s", alg)
	}

	return v.verifier.Verify(payload, signature)
}
