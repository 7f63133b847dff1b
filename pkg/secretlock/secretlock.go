/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package secretlock seals key material before it is written to storage.
package secretlock

import "errors"

// ErrDecrypt is returned when a ciphertext cannot be opened with the lock.
var ErrDecrypt = errors.New("secret lock: decryption failed")

// Service encrypts and decrypts secrets. keyURI names the key protecting them; local locks ignore it.
type Service interface {
	Encrypt(keyURI string, req *EncryptRequest) (*EncryptResponse, error)
	Decrypt(keyURI string, req *DecryptRequest) (*DecryptResponse, error)
}

// EncryptRequest for encrypting a secret.
type EncryptRequest struct {
	Plaintext                   string
	AdditionalAuthenticatedData string
}

// DecryptRequest for decrypting a secret.
type DecryptRequest struct {
	Ciphertext                  string
	AdditionalAuthenticatedData string
}

// EncryptResponse carries the base64url ciphertext.
type EncryptResponse struct {
	Ciphertext string
}

// DecryptResponse carries the plaintext.
type DecryptResponse struct {
	Plaintext string
}
