/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk implements the RFC 7517 JSON Web Key encoding used for the agent's curves.
package jwk

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Key types.
const (
	KeyTypeEC  = "EC"
	KeyTypeOKP = "OKP"
)

// Curve names.
const (
	CurveSecp256k1 = "secp256k1"
	CurveEd25519   = "Ed25519"
	CurveX25519    = "X25519"
)

// ErrInvalidKey is returned when passed JWK is invalid.
var ErrInvalidKey = errors.New("invalid JWK")

// JWK (JSON Web Key) is a JSON data structure that represents a cryptographic key.
// Field order matches RFC 7517 examples.
type JWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv,omitempty"`
	Kid string `json:"kid,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	D   string `json:"d,omitempty"`
}

// EncodeSegment is base64url without padding.
func EncodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeSegment decodes base64url, tolerating padding.
func DecodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Parse decodes JSON into a JWK and checks the members required for its kty.
func Parse(data []byte) (*JWK, error) {
	key := &JWK{}

	if err := json.Unmarshal(data, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	if err := key.Validate(); err != nil {
		return nil, err
	}

	return key, nil
}

// Validate checks the members required for the key type.
func (j *JWK) Validate() error {
	switch j.Kty {
	case KeyTypeEC:
		if j.Crv == "" || j.X == "" || j.Y == "" {
			return fmt.Errorf("%w: EC key requires crv, x and y", ErrInvalidKey)
		}
	case KeyTypeOKP:
		if j.Crv == "" || j.X == "" {
			return fmt.Errorf("%w: OKP key requires crv and x", ErrInvalidKey)
		}
	default:
		return fmt.Errorf("%w: unsupported kty %q", ErrInvalidKey, j.Kty)
	}

	return nil
}

// IsPrivate reports whether the d member is present.
func (j *JWK) IsPrivate() bool {
	return j.D != ""
}

// Public returns a copy without the private member.
func (j *JWK) Public() *JWK {
	pub := *j
	pub.D = ""

	return &pub
}

// Bytes returns the JSON encoding.
func (j *JWK) Bytes() ([]byte, error) {
	return json.Marshal(j)
}

// Thumbprint computes the RFC 7638 SHA-256 thumbprint, base64url encoded.
func (j *JWK) Thumbprint() (string, error) {
	var canonical string

	switch j.Kty {
	case KeyTypeEC:
		canonical = fmt.Sprintf(`{"crv":%q,"kty":%q,"x":%q,"y":%q}`, j.Crv, j.Kty, j.X, j.Y)
	case KeyTypeOKP:
		canonical = fmt.Sprintf(`{"crv":%q,"kty":%q,"x":%q}`, j.Crv, j.Kty, j.X)
	default:
		return "", fmt.Errorf("%w: unsupported kty %q", ErrInvalidKey, j.Kty)
	}

	sum := sha256.Sum256([]byte(canonical))

	return EncodeSegment(sum[:]), nil
}
