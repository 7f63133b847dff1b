/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package noop

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
)

// NoLock is a secret lock service that does no key wrapping (keys are not encrypted).
type NoLock struct{}

// Encrypt returns the plaintext as is.
func (s *NoLock) Encrypt(_ string, req *secretlock.EncryptRequest) (*secretlock.EncryptResponse, error) {
	return &secretlock.EncryptResponse{Ciphertext: req.Plaintext}, nil
}

// Decrypt returns the ciphertext as is.
func (s *NoLock) Decrypt(_ string, req *secretlock.DecryptRequest) (*secretlock.DecryptResponse, error) {
	return &secretlock.DecryptResponse{Plaintext: req.Ciphertext}, nil
}
