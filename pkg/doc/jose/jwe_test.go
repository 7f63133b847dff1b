/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/x25519"
)

func TestEncryptDecryptCompact(t *testing.T) {
	recipient, err := x25519.Generate()
	require.NoError(t, err)

	plaintext := []byte(`{"keys":[],"dids":[]}`)

	jwe, err := NewEncrypter(recipient.PublicKey().(*x25519.PublicKey),
		WithKeyID("backup"), WithContentType("application/json")).Encrypt(plaintext)
	require.NoError(t, err)

	compact, err := jwe.CompactSerialize()
	require.NoError(t, err)

	parts := strings.Split(compact, ".")
	require.Len(t, parts, 5)

	for _, p := range parts {
		require.NotContains(t, p, "=")
	}

	header, err := base64.RawURLEncoding.DecodeString(parts[0])
	require.NoError(t, err)

	h := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(header, &h))
	require.Equal(t, "ECDH-ES+A256KW", h["alg"])
	require.Equal(t, "A256CBC-HS512", h["enc"])
	require.Equal(t, "X25519", h["epk"].(map[string]interface{})["crv"])

	got, err := NewDecrypter(recipient).DecryptCompact(compact)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)

	parsed, err := Deserialize(compact)
	require.NoError(t, err)

	kid, ok := parsed.ProtectedHeaders.KeyID()
	require.True(t, ok)
	require.Equal(t, "backup", kid)

	cty, _ := parsed.ProtectedHeaders.ContentType()
	require.Equal(t, "application/json", cty)

	again, err := parsed.CompactSerialize()
	require.NoError(t, err)
	require.Equal(t, compact, again)
}

func TestDecryptFailures(t *testing.T) {
	recipient, err := x25519.Generate()
	require.NoError(t, err)

	other, err := x25519.Generate()
	require.NoError(t, err)

	jwe, err := NewEncrypter(recipient.PublicKey().(*x25519.PublicKey)).Encrypt([]byte("secret"))
	require.NoError(t, err)

	compact, err := jwe.CompactSerialize()
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		_, err = NewDecrypter(other).DecryptCompact(compact)
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		parts := strings.Split(compact, ".")
		ct, _ := base64.RawURLEncoding.DecodeString(parts[3])
		ct[0] ^= 0x01
		parts[3] = base64.RawURLEncoding.EncodeToString(ct)

		_, err = NewDecrypter(recipient).DecryptCompact(strings.Join(parts, "."))
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("tampered header", func(t *testing.T) {
		parts := strings.Split(compact, ".")
		parts[0] = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"dir","enc":"A256CBC-HS512"}`))

		_, err = NewDecrypter(recipient).DecryptCompact(strings.Join(parts, "."))
		require.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("not compact", func(t *testing.T) {
		_, err = Deserialize("a.b.c")
		require.ErrorIs(t, err, ErrInvalidCompactJWE)

		_, err = Deserialize("!!.b.c.d.e")
		require.ErrorIs(t, err, ErrInvalidCompactJWE)
	})
}
