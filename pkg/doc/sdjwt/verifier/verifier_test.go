/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/internal/sdjwt/issuer"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/holder"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

func TestParse(t *testing.T) {
	r := require.New(t)

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	other, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	token, err := issuer.New("did:prism:issuer", map[string]interface{}{
		"given_name":  "Albert",
		"family_name": "Einstein",
	}, key.(keys.Signer), issuer.WithExpiry(jwt.NewNumericDate(time.Now().Add(time.Hour))))
	r.NoError(err)

	presentation, err := holder.CreatePresentation(token.Serialize(), []string{"given_name"})
	r.NoError(err)

	t.Run("success", func(t *testing.T) {
		claims, err := Parse(presentation, WithIssuerKeys([]keys.PublicKey{other.PublicKey(), key.PublicKey()}))
		r.NoError(err)
		r.Equal("Albert", claims["given_name"])
		r.NotContains(claims, "family_name")
		r.Equal("did:prism:issuer", claims["iss"])
	})

	t.Run("error - wrong key", func(t *testing.T) {
		_, err := Parse(presentation, WithIssuerKeys([]keys.PublicKey{other.PublicKey()}))
		r.ErrorIs(err, jwt.ErrSignatureInvalid)
	})

	t.Run("error - no keys", func(t *testing.T) {
		_, err := Parse(presentation)
		r.ErrorIs(err, jwt.ErrSignatureInvalid)
	})

	t.Run("error - expired", func(t *testing.T) {
		_, err := Parse(presentation, WithIssuerKeys([]keys.PublicKey{key.PublicKey()}),
			WithClock(func() time.Time { return time.Now().Add(2 * time.Hour) }))
		r.ErrorContains(err, "time values")
	})

	t.Run("error - algorithm not allowed", func(t *testing.T) {
		_, err := Parse(presentation, WithIssuerKeys([]keys.PublicKey{key.PublicKey()}),
			WithSigningAlgorithms([]string{"ES256K"}))
		r.ErrorContains(err, "not in the allowed list")
	})
}

func TestParseHolderBinding(t *testing.T) {
	r := require.New(t)

	issuerKey, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	holderKey, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	token, err := issuer.New("did:prism:issuer", map[string]interface{}{"given_name": "Albert"},
		issuerKey.(keys.Signer))
	r.NoError(err)

	present := func(payload holder.BindingPayload, signer keys.Signer) string {
		p, err := holder.CreatePresentation(token.Serialize(), []string{"given_name"},
			holder.WithHolderBinding(&holder.BindingInfo{Payload: payload, Signer: signer}))
		r.NoError(err)

		return p
	}

	bound := present(holder.BindingPayload{
		Nonce: "nonce", Audience: "https://verifier.example", IssuedAt: jwt.NewNumericDate(time.Now()),
	}, holderKey.(keys.Signer))

	opts := func(extra ...ParseOpt) []ParseOpt {
		return append([]ParseOpt{
			WithIssuerKeys([]keys.PublicKey{issuerKey.PublicKey()}),
			WithHolderKeys([]keys.PublicKey{holderKey.PublicKey()}),
			WithHolderBindingRequired(true),
		}, extra...)
	}

	t.Run("success", func(t *testing.T) {
		claims, err := Parse(bound, opts(WithExpectedNonceForHolderBinding("nonce"),
			WithExpectedAudienceForHolderBinding("https://verifier.example"))...)
		r.NoError(err)
		r.Equal("Albert", claims["given_name"])
	})

	t.Run("error - binding required", func(t *testing.T) {
		unbound, err := holder.CreatePresentation(token.Serialize(), []string{"given_name"})
		r.NoError(err)

		_, err = Parse(unbound, opts()...)
		r.ErrorIs(err, ErrHolderBinding)
		r.ErrorContains(err, "holder binding is required")

		_, err = Parse(unbound, WithIssuerKeys([]keys.PublicKey{issuerKey.PublicKey()}))
		r.NoError(err)
	})

	t.Run("error - nonce", func(t *testing.T) {
		_, err := Parse(bound, opts(WithExpectedNonceForHolderBinding("other"))...)
		r.ErrorIs(err, ErrHolderBinding)
		r.ErrorContains(err, "nonce")
	})

	t.Run("error - audience", func(t *testing.T) {
		_, err := Parse(bound, opts(WithExpectedAudienceForHolderBinding("https://other.example"))...)
		r.ErrorIs(err, ErrHolderBinding)
		r.ErrorContains(err, "audience")
	})

	t.Run("error - signed by another key", func(t *testing.T) {
		_, err := Parse(present(holder.BindingPayload{Nonce: "nonce"}, issuerKey.(keys.Signer)), opts()...)
		r.ErrorIs(err, ErrHolderBinding)
		r.ErrorIs(err, jwt.ErrSignatureInvalid)
	})

	t.Run("error - no holder keys", func(t *testing.T) {
		_, err := Parse(bound, WithIssuerKeys([]keys.PublicKey{issuerKey.PublicKey()}))
		r.ErrorIs(err, ErrHolderBinding)
		r.ErrorContains(err, "no holder keys")
	})

	t.Run("error - issued in the future", func(t *testing.T) {
		late := present(holder.BindingPayload{Nonce: "nonce", IssuedAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
			holderKey.(keys.Signer))

		_, err := Parse(late, opts()...)
		r.ErrorIs(err, ErrHolderBinding)
		r.ErrorContains(err, "time values")
	})
}
