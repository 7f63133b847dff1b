/*
 Copyright SecureKey Technologies Inc. All Rights Reserved.

 SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// KeyManager creates, restores and derives keys for the edge agent.
type KeyManager interface {
	// CreatePrivateKey creates a key on curve, derived from a seed when one is given.
	CreatePrivateKey(curve keys.Curve, opts ...KeyOpts) (keys.PrivateKey, error)
	// RestorePrivateKey rebuilds a key from stored material tagged with its restoration id.
	RestorePrivateKey(stored StoredKey) (keys.PrivateKey, error)
	// RestoreKey rebuilds a private or public key from a JWK.
	RestoreKey(key *jwk.JWK, index *uint32) (keys.Key, error)
	// CreateRandomMnemonics returns a fresh 24 word BIP39 phrase.
	CreateRandomMnemonics() ([]string, error)
	// CreateSeed turns a mnemonic into the 64 byte BIP39 seed.
	CreateSeed(mnemonics []string, passphrase string) (Seed, error)
	// CreateRandomSeed returns a seed and the mnemonic it came from.
	CreateRandomSeed(passphrase string) ([]string, Seed, error)
}

// Seed is raw wallet entropy. It never leaves the agent unencrypted.
type Seed []byte

// StoredKey is the persisted form of a private key.
type StoredKey struct {
	RestorationID string
	Data          []byte
	Index         *uint32
	Path          string
}

// Error codes of the key domain.
const (
	InvalidMnemonicWord = errcode.Code(iota + errcode.Keys)
	KeyCantBeExported
	MissingKeyParameters
	InvalidKeyCurve
	InvalidKeyType
	RestorationFailedNoIdentifierOrInvalid
	KeyNotSignable
	InvalidRawKey
)

var (
	// ErrInvalidMnemonicWord is returned when a mnemonic fails the BIP39 word list or checksum.
	ErrInvalidMnemonicWord = errcode.New(InvalidMnemonicWord, errcode.ValidationError, "invalid mnemonic word")
	// ErrKeyCantBeExported is returned when a key does not implement keys.Exportable.
	ErrKeyCantBeExported = errcode.New(KeyCantBeExported, errcode.ValidationError, "key cannot be exported")
	// ErrMissingKeyParameters is returned on inconsistent seed/path/raw key parameters.
	ErrMissingKeyParameters = errcode.New(MissingKeyParameters, errcode.ValidationError, "missing key parameters")
	// ErrInvalidKeyCurve is returned for unsupported curves.
	ErrInvalidKeyCurve = errcode.New(InvalidKeyCurve, errcode.ValidationError, "invalid key curve")
	// ErrInvalidKeyType is returned for unsupported key types.
	ErrInvalidKeyType = errcode.New(InvalidKeyType, errcode.ValidationError, "invalid key type")
	// ErrRestorationFailedNoIdentifierOrInvalid is returned for unknown restoration tags.
	ErrRestorationFailedNoIdentifierOrInvalid = errcode.New(RestorationFailedNoIdentifierOrInvalid,
		errcode.ValidationError, "restoration failed: no identifier or invalid")
	// ErrKeyNotSignable is returned when signing with a key agreement key.
	ErrKeyNotSignable = errcode.New(KeyNotSignable, errcode.ValidationError, "key is not signable")
	// ErrInvalidRawKey is returned when raw key material cannot be decoded.
	ErrInvalidRawKey = errcode.New(InvalidRawKey, errcode.ValidationError, "invalid raw key")
)
