/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/derivation"
)

// keyOpts holds the parameters of CreatePrivateKey.
type keyOpts struct {
	seed    Seed
	path    *derivation.Path
	rawPath string
	raw     []byte
}

// KeyOpts are the create key option.
type KeyOpts func(opts *keyOpts)

// WithSeed derives the key from seed.
func WithSeed(seed Seed) KeyOpts {
	return func(opts *keyOpts) {
		opts.seed = seed
	}
}

// WithDerivationPath sets the HD path. It requires WithSeed.
func WithDerivationPath(path derivation.Path) KeyOpts {
	return func(opts *keyOpts) {
		opts.path = &path
	}
}

// WithDerivationPathString is WithDerivationPath for the m/... notation.
func WithDerivationPathString(path string) KeyOpts {
	return func(opts *keyOpts) {
		opts.rawPath = path
	}
}

// WithIndex sets the path to m/0'/0'/index'.
func WithIndex(index uint32) KeyOpts {
	return WithDerivationPath(derivation.ForIndex(index))
}

// WithRawKey imports existing key material instead of deriving or generating.
func WithRawKey(raw []byte) KeyOpts {
	return func(opts *keyOpts) {
		opts.raw = raw
	}
}
