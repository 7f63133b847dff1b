/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto"
	"crypto/aes"
	"encoding/binary"
	"fmt"
	"io"

	josecipher "github.com/go-jose/go-jose/v3/cipher"
	"github.com/google/tink/go/subtle/random"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/x25519"
)

const (
	cekSize     = 64 // A256CBC-HS512 uses a 512 bit CEK
	kekSize     = 32 // A256KW
	cbcIVSize   = 16
	hmacTagSize = 32
)

// Encrypter produces ECDH-ES+A256KW / A256CBC-HS512 JWEs for one X25519 recipient.
type Encrypter struct {
	recipient   *x25519.PublicKey
	kid         string
	contentType string
}

// EncOpt configures an Encrypter.
type EncOpt func(*Encrypter)

// WithKeyID sets the kid header.
func WithKeyID(kid string) EncOpt {
	return func(e *Encrypter) {
		e.kid = kid
	}
}

// WithContentType sets the cty header.
func WithContentType(cty string) EncOpt {
	return func(e *Encrypter) {
		e.contentType = cty
	}
}

// NewEncrypter returns an Encrypter for recipient.
func NewEncrypter(recipient *x25519.PublicKey, opts ...EncOpt) *Encrypter {
	e := &Encrypter{recipient: recipient}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Encrypt encrypts plaintext with a fresh ephemeral key and CEK.
func (e *Encrypter) Encrypt(plaintext []byte) (*JSONWebEncryption, error) {
	epk, err := x25519.Generate()
	if err != nil {
		return nil, fmt.Errorf("jwe encrypt: ephemeral key: %w", err)
	}

	z, err := epk.SharedSecret(e.recipient)
	if err != nil {
		return nil, fmt.Errorf("jwe encrypt: key agreement: %w", err)
	}

	kek, err := deriveKEK(z, nil, nil)
	if err != nil {
		return nil, err
	}

	cek := random.GetRandomBytes(cekSize)

	encryptedKey, err := wrapKey(kek, cek)
	if err != nil {
		return nil, err
	}

	epkJWK, err := epk.PublicKey().(*x25519.PublicKey).JWK()
	if err != nil {
		return nil, err
	}

	headers := Headers{
		HeaderAlgorithm:  ECDHESA256KWALG,
		HeaderEncryption: A256CBCHS512ALG,
		HeaderEPK:        epkJWK,
	}

	if e.kid != "" {
		headers[HeaderKeyID] = e.kid
	}

	if e.contentType != "" {
		headers[HeaderContentType] = e.contentType
	}

	jwe := &JSONWebEncryption{ProtectedHeaders: headers, EncryptedKey: encryptedKey}

	aad, err := jwe.encodedProtected()
	if err != nil {
		return nil, err
	}

	aead, err := josecipher.NewCBCHMAC(cek, aes.NewCipher)
	if err != nil {
		return nil, fmt.Errorf("jwe encrypt: content cipher: %w", err)
	}

	jwe.IV = random.GetRandomBytes(cbcIVSize)

	sealed := aead.Seal(nil, jwe.IV, plaintext, []byte(aad))
	jwe.Ciphertext = sealed[:len(sealed)-hmacTagSize]
	jwe.Tag = sealed[len(sealed)-hmacTagSize:]

	return jwe, nil
}

// deriveKEK runs the Concat KDF of RFC 7518 section 4.6.2 for ECDH-ES+A256KW.
func deriveKEK(z, apu, apv []byte) ([]byte, error) {
	supPubInfo := make([]byte, 4)
	binary.BigEndian.PutUint32(supPubInfo, uint32(kekSize)*8) //nolint:gomnd

	reader := josecipher.NewConcatKDF(crypto.SHA256, z,
		lengthPrefixed([]byte(ECDHESA256KWALG)), lengthPrefixed(apu), lengthPrefixed(apv), supPubInfo, []byte{})

	kek := make([]byte, kekSize)
	if _, err := io.ReadFull(reader, kek); err != nil {
		return nil, fmt.Errorf("jwe: concat kdf: %w", err)
	}

	return kek, nil
}

func wrapKey(kek, cek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("jwe: key wrap cipher: %w", err)
	}

	return josecipher.KeyWrap(block, cek)
}

func lengthPrefixed(data []byte) []byte {
	out := make([]byte, len(data)+4)
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)

	return out
}
