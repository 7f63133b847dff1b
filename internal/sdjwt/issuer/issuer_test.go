/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const testIssuer = "did:prism:issuer"

func TestNew(t *testing.T) {
	r := require.New(t)

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	claims := map[string]interface{}{
		"given_name": "Albert",
		"vct":        "IdentityCredential",
		"address":    map[string]interface{}{"country": "CH", "locality": "Bern"},
	}

	t.Run("flat", func(t *testing.T) {
		token, err := New(testIssuer, claims, key.(keys.Signer),
			WithExpiry(jwt.NewNumericDate(time.Now().Add(time.Hour))),
			WithAlwaysVisible("vct"), WithKeyID(testIssuer+"#key-1"))
		r.NoError(err)
		r.Len(token.Disclosures, 2)
		r.Equal("IdentityCredential", token.SignedJWT.Payload["vct"])
		r.Equal(testIssuer, token.SignedJWT.Payload["iss"])
		r.Equal("sha-256", token.SignedJWT.Payload[common.SDAlgorithmKey])
		r.NotContains(token.SignedJWT.Payload, "given_name")
		r.Equal(testIssuer+"#key-1", token.SignedJWT.KeyID())

		cfi := common.ParseCombinedFormatForIssuance(token.Serialize())
		r.Len(cfi.Disclosures, 2)
		r.NoError(common.VerifyDisclosuresInSDJWT(cfi.Disclosures, token.SignedJWT))
	})

	t.Run("structured with decoys", func(t *testing.T) {
		token, err := New(testIssuer, claims, key.(keys.Signer), WithStructuredClaims(true), WithDecoyDigests(true))
		r.NoError(err)
		r.Len(token.Disclosures, 4)

		address, ok := token.SignedJWT.Payload["address"].(map[string]interface{})
		r.True(ok)
		r.Contains(address, common.SDKey)

		r.NoError(common.VerifyDisclosuresInSDJWT(token.Disclosures, token.SignedJWT))

		disclosed, err := common.DisclosedClaims(token.SignedJWT.Payload, token.Disclosures)
		r.NoError(err)
		r.Equal(map[string]interface{}{"country": "CH", "locality": "Bern"}, disclosed["address"])
	})

	t.Run("salt error", func(t *testing.T) {
		_, err := New(testIssuer, claims, key.(keys.Signer), WithSaltFnc(func() (string, error) {
			return "", errTest
		}))
		r.ErrorIs(err, errTest)
	})
}

type testError string

func (e testError) Error() string { return string(e) }

const errTest = testError("salt error")
