/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package derivation

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
)

const (
	ed25519SeedKey = "ed25519 seed"

	minSeedLen = 16
	maxSeedLen = 64
	keyLen     = 32
)

var (
	// ErrInvalidSeed is returned when the seed length is outside 128..512 bits.
	ErrInvalidSeed = errors.New("seed must be between 16 and 64 bytes")
	// ErrInvalidChild is returned in the rare case a derived scalar is out of range.
	ErrInvalidChild = errors.New("derived key is invalid for this index")
	// ErrNonHardenedEd25519 is returned when a non hardened ed25519 child is requested.
	ErrNonHardenedEd25519 = errors.New("ed25519 only supports hardened derivation")
)

// ExtendedKey is a derived node: the private scalar (or ed25519 seed) and its chain code.
type ExtendedKey struct {
	Key       []byte
	ChainCode []byte
}

// Secp256k1 derives the BIP32 private key at path from seed.
func Secp256k1(seed []byte, path Path) (*ExtendedKey, error) {
	node, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, bip32Error(err)
	}

	for _, axis := range path.Axes {
		node, err = node.Derive(axis.Value())
		if err != nil {
			return nil, fmt.Errorf("derive %s: %w", axis, bip32Error(err))
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidChild, err)
	}

	return &ExtendedKey{Key: priv.Serialize(), ChainCode: node.ChainCode()}, nil
}

func bip32Error(err error) error {
	switch {
	case errors.Is(err, hdkeychain.ErrInvalidSeedLen):
		return ErrInvalidSeed
	case errors.Is(err, hdkeychain.ErrInvalidChild), errors.Is(err, hdkeychain.ErrUnusableSeed):
		return ErrInvalidChild
	default:
		return err
	}
}

// Ed25519 derives the SLIP-10 ed25519 seed at path from seed. Every axis must be hardened.
func Ed25519(seed []byte, path Path) (*ExtendedKey, error) {
	if !path.AllHardened() {
		return nil, ErrNonHardenedEd25519
	}

	node, err := master(ed25519SeedKey, seed)
	if err != nil {
		return nil, err
	}

	for _, axis := range path.Axes {
		data := make([]byte, 0, 1+keyLen+4)
		data = append(data, 0x00)
		data = append(data, node.Key...)
		data = appendUint32(data, axis.Value())

		node = split(hmacSHA512(node.ChainCode, data))
	}

	return node, nil
}

// master computes the SLIP-10 master node for the curve domain.
func master(domain string, seed []byte) (*ExtendedKey, error) {
	if len(seed) < minSeedLen || len(seed) > maxSeedLen {
		return nil, ErrInvalidSeed
	}

	return split(hmacSHA512([]byte(domain), seed)), nil
}

func hmacSHA512(key, data []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(data) //nolint:errcheck

	return mac.Sum(nil)
}

func split(i []byte) *ExtendedKey {
	return &ExtendedKey{Key: i[:keyLen], ChainCode: i[keyLen:]}
}

func appendUint32(b []byte, v uint32) []byte {
	var buf [4]byte

	binary.BigEndian.PutUint32(buf[:], v)

	return append(b, buf[:]...)
}
