/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package pbkdf2 provides a secret lock keyed by a passphrase stretched with PBKDF2 (RFC 8018).
package pbkdf2

import (
	"crypto/sha256"
	"errors"
	"hash"

	"golang.org/x/crypto/pbkdf2"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock/internal/aeadlock"
)

// DefaultIterations is used when iterations is not positive.
const DefaultIterations = 600000

const keySize = 32

// NewMasterLock returns a lock keyed by PBKDF2(passphrase, salt, iterations, h).
func NewMasterLock(passphrase string, h func() hash.Hash, iterations int, salt []byte) (secretlock.Service, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is empty")
	}

	if h == nil {
		h = sha256.New
	}

	if iterations <= 0 {
		iterations = DefaultIterations
	}

	return aeadlock.New(pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, h))
}
