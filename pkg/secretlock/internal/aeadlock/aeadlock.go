/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package aeadlock is the AES-GCM lock the master locks share.
package aeadlock

import (
	"encoding/base64"
	"fmt"

	"github.com/google/tink/go/aead/subtle"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
)

// Lock seals secrets with AES-256-GCM. Ciphertexts are iv||ct||tag, base64url encoded.
type Lock struct {
	aead *subtle.AESGCM
}

// New returns a lock for the 32 byte masterKey.
func New(masterKey []byte) (*Lock, error) {
	aead, err := subtle.NewAESGCM(masterKey)
	if err != nil {
		return nil, fmt.Errorf("create AES-GCM: %w", err)
	}

	return &Lock{aead: aead}, nil
}

// Encrypt seals req.Plaintext. keyURI is ignored.
func (l *Lock) Encrypt(_ string, req *secretlock.EncryptRequest) (*secretlock.EncryptResponse, error) {
	ct, err := l.aead.Encrypt([]byte(req.Plaintext), []byte(req.AdditionalAuthenticatedData))
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	return &secretlock.EncryptResponse{Ciphertext: base64.RawURLEncoding.EncodeToString(ct)}, nil
}

// Decrypt opens req.Ciphertext. keyURI is ignored.
func (l *Lock) Decrypt(_ string, req *secretlock.DecryptRequest) (*secretlock.DecryptResponse, error) {
	ct, err := base64.RawURLEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", secretlock.ErrDecrypt, err)
	}

	pt, err := l.aead.Decrypt(ct, []byte(req.AdditionalAuthenticatedData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", secretlock.ErrDecrypt, err)
	}

	return &secretlock.DecryptResponse{Plaintext: string(pt)}, nil
}
