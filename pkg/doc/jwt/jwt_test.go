/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

func newKey(t *testing.T, curve keys.Curve) keys.PrivateKey {
	t.Helper()

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	key, err := kms.New().CreatePrivateKey(curve, kms.WithSeed(seed))
	require.NoError(t, err)

	return key
}

type customClaims struct {
	Claims
	Nonce string `json:"nonce"`
}

func TestSignAndVerify(t *testing.T) {
	for _, curve := range []keys.Curve{keys.Secp256k1, keys.Ed25519} {
		t.Run(string(curve), func(t *testing.T) {
			key := newKey(t, curve)

			claims := customClaims{
				Claims: Claims{
					Issuer:   "did:prism:issuer",
					Audience: []string{"verifier.example"},
					IssuedAt: jwtNow(),
				},
				Nonce: "n-0S6_WzA2Mj",
			}

			token, err := NewSigned(claims, "did:prism:issuer#key-1", key.(keys.Signer))
			require.NoError(t, err)
			require.True(t, IsJWS(token.Serialize()))
			require.Equal(t, "did:prism:issuer#key-1", token.KeyID())
			require.Equal(t, "JWT", token.LookupStringHeader("typ"))

			parsed, err := Parse(token.Serialize())
			require.NoError(t, err)
			require.Equal(t, "did:prism:issuer", parsed.LookupStringClaim("iss"))
			require.NoError(t, parsed.Verify(key.PublicKey()))

			var decoded customClaims
			require.NoError(t, parsed.DecodeClaims(&decoded))
			require.Equal(t, "n-0S6_WzA2Mj", decoded.Nonce)
		})
	}
}

func TestVerifyFailures(t *testing.T) {
	signer := newKey(t, keys.Secp256k1)
	ed := newKey(t, keys.Ed25519)

	token, err := NewSigned(map[string]interface{}{"iss": "a"}, "", signer.(keys.Signer))
	require.NoError(t, err)

	t.Run("alg mismatch", func(t *testing.T) {
		require.ErrorIs(t, token.Verify(ed.PublicKey()), ErrSignatureInvalid)
	})

	t.Run("mutated payload", func(t *testing.T) {
		parts := strings.Split(token.Serialize(), ".")
		payload, _ := json.Marshal(map[string]interface{}{"iss": "b"})
		parts[1] = base64.RawURLEncoding.EncodeToString(payload)

		mutated, err := Parse(strings.Join(parts, "."))
		require.NoError(t, err)
		require.ErrorIs(t, mutated.Verify(signer.PublicKey()), ErrSignatureInvalid)
	})

	t.Run("any key", func(t *testing.T) {
		other, err := kms.New().CreatePrivateKey(keys.Secp256k1, kms.WithSeed(make([]byte, 32)))
		require.NoError(t, err)

		matched, err := token.VerifyWithAny([]keys.PublicKey{ed.PublicKey(), other.PublicKey(), signer.PublicKey()})
		require.NoError(t, err)
		require.Equal(t, signer.PublicKey().Raw(), matched.Raw())

		_, err = token.VerifyWithAny([]keys.PublicKey{other.PublicKey()})
		require.ErrorIs(t, err, ErrSignatureInvalid)

		_, err = token.VerifyWithAny(nil)
		require.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("not a jws", func(t *testing.T) {
		_, err := Parse("abc.def")
		require.ErrorIs(t, err, ErrInvalidJWT)
	})
}

func jwtNow() *NumericDate {
	return NewNumericDate(time.Now())
}
