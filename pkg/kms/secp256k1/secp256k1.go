/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package secp256k1 implements secp256k1 key pairs with BIP32 derivation and ES256K signatures.
package secp256k1

import (
	"crypto/sha256"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/google/uuid"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/derivation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// Algorithm is the JOSE algorithm for secp256k1 signatures.
const Algorithm = "ES256K"

const (
	privateKeySize = 32
	coordinateSize = 32
	signatureSize  = 64
)

var (
	// ErrInvalidKey is returned for malformed key material.
	ErrInvalidKey = errors.New("invalid secp256k1 key")
	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid ES256K signature")
)

// PrivateKey is a secp256k1 private key.
type PrivateKey struct {
	key  *btcec.PrivateKey
	path *derivation.Path
	ref  *keys.Ref
}

// NewPrivateKey wraps raw 32 byte key material.
func NewPrivateKey(raw []byte) (*PrivateKey, error) {
	if len(raw) != privateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes, got %d", ErrInvalidKey, privateKeySize, len(raw))
	}

	priv, _ := btcec.PrivKeyFromBytes(raw)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidKey)
	}

	return &PrivateKey{key: priv, ref: keys.NewRef(uuid.NewString())}, nil
}

// Derive derives the BIP32 key at path.
func Derive(seed []byte, path derivation.Path) (*PrivateKey, error) {
	node, err := derivation.Secp256k1(seed, path)
	if err != nil {
		return nil, err
	}

	priv, err := NewPrivateKey(node.Key)
	if err != nil {
		return nil, err
	}

	priv.path = &path

	return priv, nil
}

// Curve returns keys.Secp256k1.
func (p *PrivateKey) Curve() keys.Curve {
	return keys.Secp256k1
}

// Raw returns the 32 byte scalar.
func (p *PrivateKey) Raw() []byte {
	return p.key.Serialize()
}

// Ref returns the reference id cell.
func (p *PrivateKey) Ref() *keys.Ref {
	return p.ref
}

// PublicKey returns the matching public key.
func (p *PrivateKey) PublicKey() keys.PublicKey {
	return &PublicKey{key: p.key.PubKey(), ref: p.ref}
}

// Algorithm returns ES256K.
func (p *PrivateKey) Algorithm() string {
	return Algorithm
}

// Sign hashes message with SHA-256 and returns the 64 byte R||S deterministic signature.
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)

	compact := ecdsa.SignCompact(p.key, digest[:], true)

	// drop the recovery byte
	return compact[1:], nil
}

// SharedSecret computes the ECDH x coordinate with pub.
func (p *PrivateKey) SharedSecret(pub *PublicKey) []byte {
	return secp.GenerateSharedSecret(p.key, pub.key)
}

// PEM exports the raw scalar.
func (p *PrivateKey) PEM() (string, error) {
	return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: p.Raw()})), nil
}

// JWK exports kty=EC crv=secp256k1 with x, y and d.
func (p *PrivateKey) JWK() (*jwk.JWK, error) {
	pub, _ := p.PublicKey().(*PublicKey) //nolint:errcheck
	key := pub.jwk()
	key.D = jwk.EncodeSegment(p.Raw())

	return key, nil
}

// StorableData is the raw scalar.
func (p *PrivateKey) StorableData() []byte {
	return p.Raw()
}

// RestorationID tags stored data.
func (p *PrivateKey) RestorationID() string {
	return keys.Secp256k1PrivateRestorationID
}

// DerivationPath returns the path the key was derived from, if any.
func (p *PrivateKey) DerivationPath() (derivation.Path, bool) {
	if p.path == nil {
		return derivation.Path{}, false
	}

	return *p.path, true
}

// WithDerivationPath records the path of an imported derived key.
func (p *PrivateKey) WithDerivationPath(path derivation.Path) *PrivateKey {
	p.path = &path

	return p
}

// PublicKey is a secp256k1 public key.
type PublicKey struct {
	key *btcec.PublicKey
	ref *keys.Ref
}

// ParsePublicKey reads compressed (33 byte) or uncompressed (65 byte) encodings.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	key, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &PublicKey{key: key, ref: keys.NewRef(uuid.NewString())}, nil
}

// PublicKeyFromCoordinates builds a key from the JWK x and y members.
func PublicKeyFromCoordinates(x, y []byte) (*PublicKey, error) {
	if len(x) > coordinateSize || len(y) > coordinateSize {
		return nil, fmt.Errorf("%w: coordinate too long", ErrInvalidKey)
	}

	uncompressed := make([]byte, 1+2*coordinateSize)
	uncompressed[0] = 0x04
	copy(uncompressed[1+coordinateSize-len(x):1+coordinateSize], x)
	copy(uncompressed[1+2*coordinateSize-len(y):], y)

	return ParsePublicKey(uncompressed)
}

// Curve returns keys.Secp256k1.
func (k *PublicKey) Curve() keys.Curve {
	return keys.Secp256k1
}

// Raw returns the compressed encoding.
func (k *PublicKey) Raw() []byte {
	return k.key.SerializeCompressed()
}

// Uncompressed returns the 65 byte encoding.
func (k *PublicKey) Uncompressed() []byte {
	return k.key.SerializeUncompressed()
}

// Ref returns the reference id cell.
func (k *PublicKey) Ref() *keys.Ref {
	return k.ref
}

// Algorithm returns ES256K.
func (k *PublicKey) Algorithm() string {
	return Algorithm
}

// Verify checks a 64 byte R||S signature over SHA-256(message).
func (k *PublicKey) Verify(message, signature []byte) error {
	if len(signature) != signatureSize {
		return fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}

	var r, s secp.ModNScalar

	if overflow := r.SetByteSlice(signature[:32]); overflow {
		return fmt.Errorf("%w: r overflows", ErrInvalidSignature)
	}

	if overflow := s.SetByteSlice(signature[32:]); overflow {
		return fmt.Errorf("%w: s overflows", ErrInvalidSignature)
	}

	digest := sha256.Sum256(message)

	if !ecdsa.NewSignature(&r, &s).Verify(digest[:], k.key) {
		return ErrInvalidSignature
	}

	return nil
}

// PEM exports the compressed point.
func (k *PublicKey) PEM() (string, error) {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: k.Raw()})), nil
}

// JWK exports kty=EC crv=secp256k1 with x and y.
func (k *PublicKey) JWK() (*jwk.JWK, error) {
	return k.jwk(), nil
}

func (k *PublicKey) jwk() *jwk.JWK {
	u := k.Uncompressed()

	return &jwk.JWK{
		Kty: jwk.KeyTypeEC,
		Crv: jwk.CurveSecp256k1,
		X:   jwk.EncodeSegment(u[1 : 1+coordinateSize]),
		Y:   jwk.EncodeSegment(u[1+coordinateSize:]),
	}
}

// StorableData is the compressed point.
func (k *PublicKey) StorableData() []byte {
	return k.Raw()
}

// RestorationID tags stored data.
func (k *PublicKey) RestorationID() string {
	return keys.Secp256k1PublicRestorationID
}
