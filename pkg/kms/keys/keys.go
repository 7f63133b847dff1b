/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keys defines the curve independent key capabilities.
package keys

import (
	"sync"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/derivation"
)

// Curve names a supported elliptic curve.
type Curve string

// Supported curves.
const (
	Secp256k1 Curve = "secp256k1"
	Ed25519   Curve = "Ed25519"
	X25519    Curve = "X25519"
)

// Restoration identifiers tag stored key material with the decoder able to rebuild it.
const (
	Secp256k1PrivateRestorationID = "secp256k1+priv"
	Ed25519PrivateRestorationID   = "ed25519+priv"
	X25519PrivateRestorationID    = "x25519+priv"
	Secp256k1PublicRestorationID  = "secp256k1+pub"
	Ed25519PublicRestorationID    = "ed25519+pub"
	X25519PublicRestorationID     = "x25519+pub"
)

// Key is the surface shared by private and public keys.
type Key interface {
	Curve() Curve
	Raw() []byte
	Ref() *Ref
}

// PrivateKey always yields exactly one public key.
type PrivateKey interface {
	Key
	PublicKey() PublicKey
}

// PublicKey is the public half of a key pair.
type PublicKey interface {
	Key
}

// Signer is implemented by keys able to sign.
type Signer interface {
	// Algorithm is the JOSE alg used for this key (ES256K, EdDSA).
	Algorithm() string
	Sign(message []byte) ([]byte, error)
}

// Verifier is implemented by public keys able to verify.
type Verifier interface {
	Algorithm() string
	Verify(message, signature []byte) error
}

// Exportable keys can be rendered as PEM and JWK.
type Exportable interface {
	PEM() (string, error)
	JWK() (*jwk.JWK, error)
}

// Storable keys can be persisted and restored.
type Storable interface {
	StorableData() []byte
	RestorationID() string
}

// Derivable keys remember the path they were derived from.
type Derivable interface {
	DerivationPath() (derivation.Path, bool)
}

// KeyPair groups a private key with its public key.
type KeyPair struct {
	Curve   Curve
	Private PrivateKey
	Public  PublicKey
}

// NewKeyPair builds a pair from a private key.
func NewKeyPair(priv PrivateKey) KeyPair {
	return KeyPair{Curve: priv.Curve(), Private: priv, Public: priv.PublicKey()}
}

// Ref is the display/reference id of a key. It is kept apart from the key material and
// can be assigned once, typically when the DID document fragment is known.
type Ref struct {
	mu  sync.RWMutex
	id  string
	set bool
}

// NewRef returns a reference with a provisional id.
func NewRef(provisional string) *Ref {
	return &Ref{id: provisional}
}

// ID returns the current id.
func (r *Ref) ID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.id
}

// SetID assigns the final id. Only the first call has an effect.
func (r *Ref) SetID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.set {
		return false
	}

	r.id = id
	r.set = true

	return true
}
