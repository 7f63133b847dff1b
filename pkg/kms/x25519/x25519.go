/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package x25519 implements X25519 key agreement keys.
package x25519

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/curve25519"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/derivation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

// KeySize is the scalar and point size.
const KeySize = curve25519.ScalarSize

// ErrInvalidKey is returned for malformed key material.
var ErrInvalidKey = errors.New("invalid x25519 key")

// PrivateKey is an X25519 scalar.
type PrivateKey struct {
	scalar []byte
	path   *derivation.Path
	ref    *keys.Ref
}

// NewPrivateKey wraps a 32 byte scalar.
func NewPrivateKey(raw []byte) (*PrivateKey, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: scalar must be %d bytes, got %d", ErrInvalidKey, KeySize, len(raw))
	}

	return &PrivateKey{scalar: append([]byte(nil), raw...), ref: keys.NewRef(uuid.NewString())}, nil
}

// Generate returns a random key.
func Generate() (*PrivateKey, error) {
	raw := make([]byte, KeySize)

	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}

	return NewPrivateKey(raw)
}

// Derive derives the SLIP-10 ed25519 node at path and converts it to an X25519 scalar the
// way an Ed25519 private key maps onto Curve25519 (SHA-512 of the seed, clamped).
func Derive(seed []byte, path derivation.Path) (*PrivateKey, error) {
	node, err := derivation.Ed25519(seed, path)
	if err != nil {
		return nil, err
	}

	priv, err := NewPrivateKey(FromEd25519Seed(node.Key))
	if err != nil {
		return nil, err
	}

	priv.path = &path

	return priv, nil
}

// FromEd25519Seed converts an Ed25519 seed into its X25519 scalar.
func FromEd25519Seed(seed []byte) []byte {
	h := sha512.Sum512(seed)

	s := h[:KeySize]
	s[0] &= 248
	s[31] &= 127
	s[31] |= 64

	return s
}

// Curve returns keys.X25519.
func (p *PrivateKey) Curve() keys.Curve {
	return keys.X25519
}

// Raw returns the scalar.
func (p *PrivateKey) Raw() []byte {
	return append([]byte(nil), p.scalar...)
}

// Ref returns the reference id cell.
func (p *PrivateKey) Ref() *keys.Ref {
	return p.ref
}

// PublicKey returns scalar * basepoint.
func (p *PrivateKey) PublicKey() keys.PublicKey {
	point, err := curve25519.X25519(p.scalar, curve25519.Basepoint)
	if err != nil {
		// only fails for low order points, which basepoint multiplication cannot produce
		panic(err)
	}

	return &PublicKey{point: point, ref: p.ref}
}

// SharedSecret runs X25519 with the peer public key.
func (p *PrivateKey) SharedSecret(pub *PublicKey) ([]byte, error) {
	return curve25519.X25519(p.scalar, pub.point)
}

// PEM exports the scalar.
func (p *PrivateKey) PEM() (string, error) {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: p.scalar})), nil
}

// JWK exports kty=OKP crv=X25519 with x and d.
func (p *PrivateKey) JWK() (*jwk.JWK, error) {
	pub, _ := p.PublicKey().(*PublicKey) //nolint:errcheck
	key := pub.jwk()
	key.D = jwk.EncodeSegment(p.scalar)

	return key, nil
}

// StorableData is the scalar.
func (p *PrivateKey) StorableData() []byte {
	return p.Raw()
}

// RestorationID tags stored data.
func (p *PrivateKey) RestorationID() string {
	return keys.X25519PrivateRestorationID
}

// DerivationPath returns the path the key was derived from, if any.
func (p *PrivateKey) DerivationPath() (derivation.Path, bool) {
	if p.path == nil {
		return derivation.Path{}, false
	}

	return *p.path, true
}

// PublicKey is an X25519 point.
type PublicKey struct {
	point []byte
	ref   *keys.Ref
}

// ParsePublicKey wraps a 32 byte point.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	if len(b) != KeySize {
		return nil, fmt.Errorf("%w: point must be %d bytes", ErrInvalidKey, KeySize)
	}

	return &PublicKey{point: append([]byte(nil), b...), ref: keys.NewRef(uuid.NewString())}, nil
}

// Curve returns keys.X25519.
func (k *PublicKey) Curve() keys.Curve {
	return keys.X25519
}

// Raw returns the point.
func (k *PublicKey) Raw() []byte {
	return append([]byte(nil), k.point...)
}

// Ref returns the reference id cell.
func (k *PublicKey) Ref() *keys.Ref {
	return k.ref
}

// PEM exports the point.
func (k *PublicKey) PEM() (string, error) {
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: k.point})), nil
}

// JWK exports kty=OKP crv=X25519 with x.
func (k *PublicKey) JWK() (*jwk.JWK, error) {
	return k.jwk(), nil
}

func (k *PublicKey) jwk() *jwk.JWK {
	return &jwk.JWK{Kty: jwk.KeyTypeOKP, Crv: jwk.CurveX25519, X: jwk.EncodeSegment(k.point)}
}

// StorableData is the point.
func (k *PublicKey) StorableData() []byte {
	return k.Raw()
}

// RestorationID tags stored data.
func (k *PublicKey) RestorationID() string {
	return keys.X25519PublicRestorationID
}
