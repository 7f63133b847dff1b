/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package hkdf provides a secret lock whose key is expanded from a high entropy secret, such as the
// wallet seed, with HKDF.
package hkdf

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock/internal/aeadlock"
)

const keySize = 32

// info binds derived keys to their use.
var info = []byte("edge-agent secret lock") //nolint:gochecknoglobals

// NewMasterLock returns a lock keyed by HKDF(h, secret, salt). The salt is optional.
func NewMasterLock(secret []byte, h func() hash.Hash, salt []byte) (secretlock.Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret is empty")
	}

	if h == nil {
		h = sha256.New
	}

	masterKey := make([]byte, keySize)

	if _, err := io.ReadFull(hkdf.New(h, secret, salt, info), masterKey); err != nil {
		return nil, fmt.Errorf("expand master key: %w", err)
	}

	return aeadlock.New(masterKey)
}
