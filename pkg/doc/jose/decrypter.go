/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/aes"
	"errors"
	"fmt"

	josecipher "github.com/go-jose/go-jose/v3/cipher"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/x25519"
)

// ErrDecrypt is returned when the JWE cannot be decrypted with the given key.
var ErrDecrypt = errors.New("jwe decrypt failed")

// Decrypter opens JWEs produced by Encrypter.
type Decrypter struct {
	key *x25519.PrivateKey
}

// NewDecrypter returns a Decrypter for the recipient private key.
func NewDecrypter(key *x25519.PrivateKey) *Decrypter {
	return &Decrypter{key: key}
}

// Decrypt verifies and decrypts jwe.
func (d *Decrypter) Decrypt(jwe *JSONWebEncryption) ([]byte, error) {
	if alg, _ := jwe.ProtectedHeaders.Algorithm(); alg != ECDHESA256KWALG {
		return nil, fmt.Errorf("%w: unsupported alg %q", ErrDecrypt, alg)
	}

	if enc, _ := jwe.ProtectedHeaders.Encryption(); enc != A256CBCHS512ALG {
		return nil, fmt.Errorf("%w: unsupported enc %q", ErrDecrypt, enc)
	}

	if len(jwe.IV) != cbcIVSize || len(jwe.Tag) != hmacTagSize {
		return nil, fmt.Errorf("%w: invalid iv or tag length", ErrDecrypt)
	}

	epkJWK, ok := jwe.ProtectedHeaders.EPK()
	if !ok || epkJWK.Crv != jwk.CurveX25519 {
		return nil, fmt.Errorf("%w: missing or invalid epk", ErrDecrypt)
	}

	x, err := jwk.DecodeSegment(epkJWK.X)
	if err != nil {
		return nil, fmt.Errorf("%w: epk: %v", ErrDecrypt, err)
	}

	epk, err := x25519.ParsePublicKey(x)
	if err != nil {
		return nil, fmt.Errorf("%w: epk: %v", ErrDecrypt, err)
	}

	z, err := d.key.SharedSecret(epk)
	if err != nil {
		return nil, fmt.Errorf("%w: key agreement: %v", ErrDecrypt, err)
	}

	kek, err := deriveKEK(z, nil, nil)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	cek, err := josecipher.KeyUnwrap(block, jwe.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap: %v", ErrDecrypt, err)
	}

	if len(cek) != cekSize {
		return nil, fmt.Errorf("%w: unexpected cek size", ErrDecrypt)
	}

	aead, err := josecipher.NewCBCHMAC(cek, aes.NewCipher)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	aad, err := jwe.encodedProtected()
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte(nil), jwe.Ciphertext...), jwe.Tag...)

	plaintext, err := aead.Open(nil, jwe.IV, sealed, []byte(aad))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return plaintext, nil
}

// DecryptCompact parses and decrypts a compact JWE.
func (d *Decrypter) DecryptCompact(compact string) ([]byte, error) {
	jwe, err := Deserialize(compact)
	if err != nil {
		return nil, err
	}

	return d.Decrypt(jwe)
}
