/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package holder

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/internal/sdjwt/issuer"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/common"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const testIssuer = "https://example.com/issuer"

func TestParse(t *testing.T) {
	r := require.New(t)

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	token, err := issuer.New(testIssuer, map[string]interface{}{"given_name": "Albert"}, key.(keys.Signer))
	r.NoError(err)

	sdJWTSerialized := token.Serialize()

	verifier := func(t *jwt.JSONWebToken) error { return t.Verify(key.PublicKey()) }

	t.Run("success", func(t *testing.T) {
		claims, err := Parse(sdJWTSerialized, WithSignatureVerifier(verifier))
		r.NoError(err)
		r.Len(claims, 1)
		r.Equal("given_name", claims[0].Name)
		r.Equal("Albert", claims[0].Value)
	})

	t.Run("error - signature", func(t *testing.T) {
		_, err := Parse(sdJWTSerialized, WithSignatureVerifier(func(*jwt.JSONWebToken) error {
			return errors.New("bad signature")
		}))
		r.ErrorContains(err, "bad signature")
	})

	t.Run("error - foreign disclosure", func(t *testing.T) {
		other, err := issuer.New(testIssuer, map[string]interface{}{"family_name": "Einstein"}, key.(keys.Signer))
		r.NoError(err)

		_, err = Parse(sdJWTSerialized + other.Disclosures[0] + common.CombinedFormatSeparator)
		r.ErrorIs(err, common.ErrDisclosureNotFound)
	})

	t.Run("error - duplicate disclosure", func(t *testing.T) {
		_, err := Parse(sdJWTSerialized + token.Disclosures[0])
		r.ErrorContains(err, "duplicate")
	})
}

func TestCreatePresentation(t *testing.T) {
	r := require.New(t)

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	token, err := issuer.New(testIssuer, map[string]interface{}{
		"given_name":  "Albert",
		"family_name": "Einstein",
		"birthdate":   "1879-03-14",
	}, key.(keys.Signer))
	r.NoError(err)

	presentation, err := CreatePresentation(token.Serialize(), []string{"given_name", "birthdate"})
	r.NoError(err)
	r.True(strings.HasSuffix(presentation, common.CombinedFormatSeparator))

	cfp := common.ParseCombinedFormatForPresentation(presentation)
	r.Len(cfp.Disclosures, 2)

	claims, err := common.GetDisclosureClaims(cfp.Disclosures)
	r.NoError(err)

	names := []string{claims[0].Name, claims[1].Name}
	r.ElementsMatch([]string{"given_name", "birthdate"}, names)

	presentation, err = CreatePresentation(token.Serialize(), nil)
	r.NoError(err)
	r.Empty(common.ParseCombinedFormatForPresentation(presentation).Disclosures)
}

func TestCreatePresentationWithHolderBinding(t *testing.T) {
	r := require.New(t)

	issuerKey, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	holderKey, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	token, err := issuer.New(testIssuer, map[string]interface{}{"given_name": "Albert"}, issuerKey.(keys.Signer))
	r.NoError(err)

	presentation, err := CreatePresentation(token.Serialize(), []string{"given_name"},
		WithHolderBinding(&BindingInfo{
			Payload: BindingPayload{Nonce: "nonce", Audience: "https://verifier.example"},
			KeyID:   "did:peer:holder#key-1",
			Signer:  holderKey.(keys.Signer),
		}))
	r.NoError(err)

	cfp := common.ParseCombinedFormatForPresentation(presentation)
	r.Len(cfp.Disclosures, 1)
	r.NotEmpty(cfp.HolderBinding)

	binding, err := jwt.Parse(cfp.HolderBinding)
	r.NoError(err)
	r.NoError(binding.Verify(holderKey.PublicKey()))
	r.Equal("nonce", binding.LookupStringClaim("nonce"))
	r.Equal("https://verifier.example", binding.LookupStringClaim("aud"))
	r.Equal("did:peer:holder#key-1", binding.KeyID())

	_, err = CreatePresentation(token.Serialize(), nil, WithHolderBinding(&BindingInfo{}))
	r.ErrorContains(err, "missing holder binding signer")
}
