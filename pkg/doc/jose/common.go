/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jose implements the compact JWE used for wallet backups.
package jose

import (
	"encoding/json"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
)

// Protected header names of the backup JWE (RFC 7516 section 4.1).
const (
	HeaderAlgorithm   = "alg"
	HeaderEncryption  = "enc"
	HeaderKeyID       = "kid"
	HeaderContentType = "cty"
	HeaderEPK         = "epk"
)

const (
	// ECDHESA256KWALG wraps the content key with AES-256 under an ECDH-ES agreed key.
	ECDHESA256KWALG = "ECDH-ES+A256KW"
	// A256CBCHS512ALG encrypts the content with AES-256-CBC and authenticates it with HMAC-SHA-512.
	A256CBCHS512ALG = "A256CBC-HS512"
)

// Headers are the decoded protected headers of a JWE.
type Headers map[string]interface{}

// KeyID returns the recipient key id.
func (h Headers) KeyID() (string, bool) { return h.str(HeaderKeyID) }

// Algorithm returns the key management algorithm.
func (h Headers) Algorithm() (string, bool) { return h.str(HeaderAlgorithm) }

// Encryption returns the content encryption algorithm.
func (h Headers) Encryption() (string, bool) { return h.str(HeaderEncryption) }

// ContentType returns the media type of the plaintext.
func (h Headers) ContentType() (string, bool) { return h.str(HeaderContentType) }

// EPK returns the ephemeral public key of the sender. Headers decoded from JSON hold it as a
// map, so it is re-encoded into a JWK.
func (h Headers) EPK() (*jwk.JWK, bool) {
	switch v := h[HeaderEPK].(type) {
	case nil:
		return nil, false
	case *jwk.JWK:
		return v, true
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}

		key := &jwk.JWK{}
		if err = json.Unmarshal(raw, key); err != nil {
			return nil, false
		}

		return key, true
	}
}

func (h Headers) str(name string) (string, bool) {
	s, ok := h[name].(string)

	return s, ok
}
