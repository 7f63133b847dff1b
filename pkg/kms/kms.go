/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/derivation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/ed25519"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/secp256k1"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/x25519"
)

const mnemonicEntropyBits = 256

var logger = log.New("edge-agent/kms")

// Manager is the local KeyManager. It holds no state: every key is a pure function of its inputs.
type Manager struct{}

// New returns a Manager.
func New() *Manager {
	return &Manager{}
}

// CreatePrivateKey creates a key on curve.
//
// secp256k1 keys are always derived and need WithSeed (path defaults to m/0'/0'/0').
// Ed25519 and X25519 keys are derived when a seed is given, random otherwise.
// WithRawKey imports existing material for any curve.
func (m *Manager) CreatePrivateKey(curve keys.Curve, opts ...KeyOpts) (keys.PrivateKey, error) {
	o := &keyOpts{}

	for _, opt := range opts {
		opt(o)
	}

	if o.rawPath != "" {
		p, err := derivation.Parse(o.rawPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingKeyParameters, err)
		}

		o.path = &p
	}

	if o.raw != nil {
		return m.importRaw(curve, o)
	}

	if o.path != nil && o.seed == nil {
		return nil, fmt.Errorf("%w: derivation path %s requires a seed", ErrMissingKeyParameters, o.path)
	}

	path := derivation.DefaultPath()
	if o.path != nil {
		path = *o.path
	}

	var (
		key keys.PrivateKey
		err error
	)

	switch curve {
	case keys.Secp256k1:
		if o.seed == nil {
			return nil, fmt.Errorf("%w: secp256k1 keys require a seed", ErrMissingKeyParameters)
		}

		key, err = secp256k1.Derive(o.seed, path)
	case keys.Ed25519:
		if o.seed == nil {
			key, err = ed25519.Generate()
		} else {
			key, err = ed25519.Derive(o.seed, path)
		}
	case keys.X25519:
		if o.seed == nil {
			key, err = x25519.Generate()
		} else {
			key, err = x25519.Derive(o.seed, path)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyCurve, curve)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingKeyParameters, err)
	}

	logger.Debugf("created %s key at %s", curve, path)

	return key, nil
}

func (m *Manager) importRaw(curve keys.Curve, o *keyOpts) (keys.PrivateKey, error) {
	var (
		key keys.PrivateKey
		err error
	)

	switch curve {
	case keys.Secp256k1:
		var k *secp256k1.PrivateKey

		k, err = secp256k1.NewPrivateKey(o.raw)
		if err == nil && o.path != nil {
			k.WithDerivationPath(*o.path)
		}

		key = k
	case keys.Ed25519:
		key, err = ed25519.NewPrivateKey(o.raw)
	case keys.X25519:
		key, err = x25519.NewPrivateKey(o.raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyCurve, curve)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRawKey, err)
	}

	return key, nil
}

// RestorePrivateKey dispatches on the restoration id of stored.
func (m *Manager) RestorePrivateKey(stored StoredKey) (keys.PrivateKey, error) {
	var curve keys.Curve

	switch stored.RestorationID {
	case keys.Secp256k1PrivateRestorationID:
		curve = keys.Secp256k1
	case keys.Ed25519PrivateRestorationID:
		curve = keys.Ed25519
	case keys.X25519PrivateRestorationID:
		curve = keys.X25519
	default:
		return nil, fmt.Errorf("%w: %q", ErrRestorationFailedNoIdentifierOrInvalid, stored.RestorationID)
	}

	opts := []KeyOpts{WithRawKey(stored.Data)}

	switch {
	case stored.Path != "":
		opts = append(opts, WithDerivationPathString(stored.Path))
	case stored.Index != nil:
		opts = append(opts, WithIndex(*stored.Index))
	}

	return m.CreatePrivateKey(curve, opts...)
}

// RestoreKey rebuilds a key from a JWK. A JWK with d yields a private key.
func (m *Manager) RestoreKey(key *jwk.JWK, index *uint32) (keys.Key, error) {
	if err := key.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRestorationFailedNoIdentifierOrInvalid, err)
	}

	curve, err := curveOf(key)
	if err != nil {
		return nil, err
	}

	if key.IsPrivate() {
		d, derr := jwk.DecodeSegment(key.D)
		if derr != nil {
			return nil, fmt.Errorf("%w: d: %v", ErrInvalidRawKey, derr)
		}

		opts := []KeyOpts{WithRawKey(d)}
		if index != nil {
			opts = append(opts, WithIndex(*index))
		}

		return m.CreatePrivateKey(curve, opts...)
	}

	x, err := jwk.DecodeSegment(key.X)
	if err != nil {
		return nil, fmt.Errorf("%w: x: %v", ErrInvalidRawKey, err)
	}

	var pub keys.PublicKey

	switch curve {
	case keys.Secp256k1:
		y, yerr := jwk.DecodeSegment(key.Y)
		if yerr != nil {
			return nil, fmt.Errorf("%w: y: %v", ErrInvalidRawKey, yerr)
		}

		pub, err = secp256k1.PublicKeyFromCoordinates(x, y)
	case keys.Ed25519:
		pub, err = ed25519.ParsePublicKey(x)
	default:
		pub, err = x25519.ParsePublicKey(x)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRawKey, err)
	}

	if key.Kid != "" {
		pub.Ref().SetID(key.Kid)
	}

	return pub, nil
}

// ParsePublicKey rebuilds a public key from its raw encoding.
func ParsePublicKey(curve keys.Curve, raw []byte) (keys.PublicKey, error) {
	var (
		pub keys.PublicKey
		err error
	)

	switch curve {
	case keys.Secp256k1:
		pub, err = secp256k1.ParsePublicKey(raw)
	case keys.Ed25519:
		pub, err = ed25519.ParsePublicKey(raw)
	case keys.X25519:
		pub, err = x25519.ParsePublicKey(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyCurve, curve)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRawKey, err)
	}

	return pub, nil
}

func curveOf(key *jwk.JWK) (keys.Curve, error) {
	switch {
	case key.Kty == jwk.KeyTypeEC && key.Crv == jwk.CurveSecp256k1:
		return keys.Secp256k1, nil
	case key.Kty == jwk.KeyTypeOKP && key.Crv == jwk.CurveEd25519:
		return keys.Ed25519, nil
	case key.Kty == jwk.KeyTypeOKP && key.Crv == jwk.CurveX25519:
		return keys.X25519, nil
	default:
		return "", fmt.Errorf("%w: kty=%s crv=%s", ErrInvalidKeyCurve, key.Kty, key.Crv)
	}
}

// CreateRandomMnemonics returns 24 words.
func (m *Manager) CreateRandomMnemonics() ([]string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return nil, err
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}

	return strings.Fields(phrase), nil
}

// CreateSeed validates the mnemonic and derives its seed.
func (m *Manager) CreateSeed(mnemonics []string, passphrase string) (Seed, error) {
	seed, err := bip39.NewSeedWithErrorChecking(strings.Join(mnemonics, " "), passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonicWord, err)
	}

	return seed, nil
}

// CreateRandomSeed returns a new mnemonic and its seed.
func (m *Manager) CreateRandomSeed(passphrase string) ([]string, Seed, error) {
	words, err := m.CreateRandomMnemonics()
	if err != nil {
		return nil, nil, err
	}

	seed, err := m.CreateSeed(words, passphrase)
	if err != nil {
		return nil, nil, err
	}

	return words, seed, nil
}

// Sign signs message with key, failing for keys that cannot sign.
func Sign(key keys.PrivateKey, message []byte) ([]byte, error) {
	signer, ok := key.(keys.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotSignable, key.Curve())
	}

	return signer.Sign(message)
}

// ExportJWK exports key, failing for keys that cannot be exported.
func ExportJWK(key keys.Key) (*jwk.JWK, error) {
	exp, ok := key.(keys.Exportable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyCantBeExported, key.Curve())
	}

	j, err := exp.JWK()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyCantBeExported, err)
	}

	j.Kid = key.Ref().ID()

	return j, nil
}

// ToStoredKey is the persisted form of key. Derived keys keep their path and HD index.
func ToStoredKey(key keys.PrivateKey) (StoredKey, error) {
	s, ok := key.(keys.Storable)
	if !ok {
		return StoredKey{}, fmt.Errorf("%w: %s", ErrKeyCantBeExported, key.Curve())
	}

	stored := StoredKey{RestorationID: s.RestorationID(), Data: s.StorableData()}

	if d, ok := key.(keys.Derivable); ok {
		if path, derived := d.DerivationPath(); derived {
			index := path.KeyIndex()
			stored.Path = path.String()
			stored.Index = &index
		}
	}

	return stored, nil
}

// Secret is the resolved key representation consumed by the messaging layer.
type Secret struct {
	ID             string         `json:"id"`
	Type           string         `json:"type"`
	SecretMaterial SecretMaterial `json:"secretMaterial"`
}

// SecretMaterial holds the JWK as a JSON string.
type SecretMaterial struct {
	JWK string `json:"jwk"`
}

// SecretTypeJSONWebKey2020 is the only secret type produced.
const SecretTypeJSONWebKey2020 = "JsonWebKey2020"

// NewSecret exports key as a JsonWebKey2020 secret identified by id (did#fragment).
func NewSecret(id string, key keys.PrivateKey) (*Secret, error) {
	j, err := ExportJWK(key)
	if err != nil {
		return nil, err
	}

	j.Kid = id

	b, err := j.Bytes()
	if err != nil {
		return nil, err
	}

	return &Secret{ID: id, Type: SecretTypeJSONWebKey2020, SecretMaterial: SecretMaterial{JWK: string(b)}}, nil
}
