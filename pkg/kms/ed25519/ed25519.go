/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ed25519 implements Ed25519 key pairs with SLIP-10 derivation and EdDSA signatures.
package ed25519

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/derivation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// Algorithm is the JOSE algorithm for Ed25519 signatures.
const Algorithm = "EdDSA"

var (
	// ErrInvalidKey is returned for malformed key material.
	ErrInvalidKey = errors.New("invalid ed25519 key")
	// ErrInvalidSignature is returned when a signature does not verify.
	ErrInvalidSignature = errors.New("invalid EdDSA signature")
)

// PrivateKey is an Ed25519 private key. Raw is the 32 byte seed.
type PrivateKey struct {
	key  ed25519.PrivateKey
	path *derivation.Path
	ref  *keys.Ref
}

// NewPrivateKey accepts the 32 byte seed or the 64 byte expanded key.
func NewPrivateKey(raw []byte) (*PrivateKey, error) {
	var key ed25519.PrivateKey

	switch len(raw) {
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(raw)
	case ed25519.PrivateKeySize:
		key = ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	default:
		return nil, fmt.Errorf("%w: unexpected length %d", ErrInvalidKey, len(raw))
	}

	return &PrivateKey{key: key, ref: keys.NewRef(uuid.NewString())}, nil
}

// Generate returns a random key.
func Generate() (*PrivateKey, error) {
	seed := make([]byte, ed25519.SeedSize)

	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}

	return NewPrivateKey(seed)
}

// Derive derives the SLIP-10 key at path.
func Derive(seed []byte, path derivation.Path) (*PrivateKey, error) {
	node, err := derivation.Ed25519(seed, path)
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

// Curve returns keys.Ed25519.
func (p *PrivateKey) Curve() keys.Curve {
	return keys.Ed25519
}

// Raw returns the 32 byte seed.
func (p *PrivateKey) Raw() []byte {
	return p.key.Seed()
}

// Ref returns the reference id cell.
func (p *PrivateKey) Ref() *keys.Ref {
	return p.ref
}

// PublicKey returns the matching public key.
func (p *PrivateKey) PublicKey() keys.PublicKey {
	pub, _ := p.key.Public().(ed25519.PublicKey) //nolint:errcheck

	return &PublicKey{key: pub, ref: p.ref}
}

// Expanded returns the 64 byte form used by crypto/ed25519.
func (p *PrivateKey) Expanded() ed25519.PrivateKey {
	return p.key
}

// Algorithm returns EdDSA.
func (p *PrivateKey) Algorithm() string {
	return Algorithm
}

// Sign signs message.
func (p *PrivateKey) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(p.key, message), nil
}

// PEM exports the seed.
func (p *PrivateKey) PEM() (string, error) {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: p.Raw()})), nil
}

// JWK exports kty=OKP crv=Ed25519 with x and d.
func (p *PrivateKey) JWK() (*jwk.JWK, error) {
	pub, _ := p.PublicKey().(*PublicKey) //nolint:errcheck
	key := pub.jwk()
	key.D = jwk.EncodeSegment(p.Raw())

	return key, nil
}

// StorableData is the seed.
func (p *PrivateKey) StorableData() []byte {
	return p.Raw()
}

// RestorationID tags stored data.
func (p *PrivateKey) RestorationID() string {
	return keys.Ed25519PrivateRestorationID
}

// DerivationPath returns the path the key was derived from, if any.
func (p *PrivateKey) DerivationPath() (derivation.Path, bool) {
	if p.path == nil {
		return derivation.Path{}, false
	}

	return *p.path, true
}

// PublicKey is an Ed25519 public key.
type PublicKey struct {
	key ed25519.PublicKey
	ref *keys.Ref
}

// ParsePublicKey wraps the 32 byte point.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes", ErrInvalidKey, ed25519.PublicKeySize)
	}

	return &PublicKey{key: append(ed25519.PublicKey(nil), b...), ref: keys.NewRef(uuid.NewString())}, nil
}

// Curve returns keys.Ed25519.
func (k *PublicKey) Curve() keys.Curve {
	return keys.Ed25519
}

// Raw returns the point.
func (k *PublicKey) Raw() []byte {
	return k.key
}

// Ref returns the reference id cell.
func (k *PublicKey) Ref() *keys.Ref {
	return k.ref
}

// Algorithm returns EdDSA.
func (k *PublicKey) Algorithm() string {
	return Algorithm
}

// Verify checks signature over message.
func (k *PublicKey) Verify(message, signature []byte) error {
	if !ed25519.Verify(k.key, message, signature) {
		return ErrInvalidSignature
	}

	return nil
}

// PEM exports the point.
func (k *PublicKey) PEM() (string, error) {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: k.Raw()})), nil
}

// JWK exports kty=OKP crv=Ed25519 with x.
func (k *PublicKey) JWK() (*jwk.JWK, error) {
	return k.jwk(), nil
}

func (k *PublicKey) jwk() *jwk.JWK {
	return &jwk.JWK{Kty: jwk.KeyTypeOKP, Crv: jwk.CurveEd25519, X: jwk.EncodeSegment(k.key)}
}

// StorableData is the point.
func (k *PublicKey) StorableData() []byte {
	return k.Raw()
}

// RestorationID tags stored data.
func (k *PublicKey) RestorationID() string {
	return keys.Ed25519PublicRestorationID
}
