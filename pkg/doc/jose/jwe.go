/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const compactParts = 5

var (
	errEmptyCiphertext = errors.New("ciphertext cannot be empty")
	// ErrInvalidCompactJWE is returned when the input is not five base64url segments.
	ErrInvalidCompactJWE = errors.New("invalid compact JWE")
)

// JSONWebEncryption represents a single recipient JWE as defined in https://tools.ietf.org/html/rfc7516.
type JSONWebEncryption struct {
	ProtectedHeaders Headers
	EncryptedKey     []byte
	IV               []byte
	Ciphertext       []byte
	Tag              []byte

	// protected is the encoded header exactly as received or produced; it is the AAD.
	protected string
}

// CompactSerialize returns header.encryptedKey.iv.ciphertext.tag.
func (e *JSONWebEncryption) CompactSerialize() (string, error) {
	if len(e.Ciphertext) == 0 {
		return "", errEmptyCiphertext
	}

	protected, err := e.encodedProtected()
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		protected,
		base64.RawURLEncoding.EncodeToString(e.EncryptedKey),
		base64.RawURLEncoding.EncodeToString(e.IV),
		base64.RawURLEncoding.EncodeToString(e.Ciphertext),
		base64.RawURLEncoding.EncodeToString(e.Tag),
	}, "."), nil
}

func (e *JSONWebEncryption) encodedProtected() (string, error) {
	if e.protected != "" {
		return e.protected, nil
	}

	headersJSON, err := json.Marshal(e.ProtectedHeaders)
	if err != nil {
		return "", fmt.Errorf("marshal protected headers: %w", err)
	}

	e.protected = base64.RawURLEncoding.EncodeToString(headersJSON)

	return e.protected, nil
}

// Deserialize parses a compact JWE.
func Deserialize(compact string) (*JSONWebEncryption, error) {
	parts := strings.Split(strings.TrimSpace(compact), ".")
	if len(parts) != compactParts {
		return nil, fmt.Errorf("%w: expected %d parts, got %d", ErrInvalidCompactJWE, compactParts, len(parts))
	}

	decoded := make([][]byte, compactParts)

	for i, part := range parts {
		b, err := base64.RawURLEncoding.DecodeString(part)
		if err != nil {
			return nil, fmt.Errorf("%w: segment %d: %v", ErrInvalidCompactJWE, i, err)
		}

		decoded[i] = b
	}

	headers := Headers{}
	if err := json.Unmarshal(decoded[0], &headers); err != nil {
		return nil, fmt.Errorf("%w: protected headers: %v", ErrInvalidCompactJWE, err)
	}

	if len(decoded[3]) == 0 {
		return nil, errEmptyCiphertext
	}

	return &JSONWebEncryption{
		ProtectedHeaders: headers,
		EncryptedKey:     decoded[1],
		IV:               decoded[2],
		Ciphertext:       decoded[3],
		Tag:              decoded[4],
		protected:        parts[0],
	}, nil
}
