/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package sdjwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/internal/sdjwt/issuer"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt/verifier"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

func TestCredential(t *testing.T) {
	r := require.New(t)

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	issued := time.Now().Truncate(time.Second)

	token, err := issuer.New("did:prism:issuer", map[string]interface{}{
		"given_name":  "Albert",
		"family_name": "Einstein",
		"vct":         "IdentityCredential",
	}, key.(keys.Signer),
		issuer.WithAlwaysVisible("vct"),
		issuer.WithSubject("did:peer:2.holder"),
		issuer.WithIssuedAt(jwt.NewNumericDate(issued)),
		issuer.WithJTI("cred-1"))
	r.NoError(err)

	cred, err := Parse(token.Serialize(), VerifierFor([]keys.PublicKey{key.PublicKey()}))
	r.NoError(err)

	var _ verifiable.StorableCredential = cred

	r.Equal("cred-1", cred.ID())
	r.Equal("did:prism:issuer", cred.Issuer())
	r.Equal("did:peer:2.holder", cred.Subject())
	r.Equal([]string{"IdentityCredential"}, cred.Type())
	r.Equal(issued.Unix(), cred.IssuanceDate().Unix())
	r.Nil(cred.ExpirationDate())
	r.Equal(verifiable.FormatSDJWT, cred.Format())
	r.Equal(verifiable.SDJWTRestorationID, cred.RestorationID())
	r.Equal(map[string]interface{}{"given_name": "Albert", "family_name": "Einstein"}, cred.Claims())
	r.ElementsMatch([]string{"given_name", "family_name"}, cred.DisclosableClaims())

	restored, err := Parse(string(cred.StorableData()), nil)
	r.NoError(err)
	r.Equal(cred.Claims(), restored.Claims())

	presentation, err := cred.Present([]string{"family_name"})
	r.NoError(err)

	claims, err := verifier.Parse(presentation, verifier.WithIssuerKeys([]keys.PublicKey{key.PublicKey()}))
	r.NoError(err)
	r.Equal("Einstein", claims["family_name"])
	r.NotContains(claims, "given_name")

	other, err := kms.New().CreatePrivateKey(keys.Ed25519)
	r.NoError(err)

	_, err = Parse(token.Serialize(), VerifierFor([]keys.PublicKey{other.PublicKey()}))
	r.ErrorIs(err, verifiable.ErrInvalidCredential)
}
