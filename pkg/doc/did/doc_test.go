/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

const docJSON = `{
  "@context": ["https://www.w3.org/ns/did/v1"],
  "id": "did:example:123",
  "verificationMethod": [
    {
      "id": "#key-1",
      "type": "Ed25519VerificationKey2018",
      "controller": "did:example:123",
      "publicKeyBase58": "H3C2AVvLMv6gmMNam3uVAjZpfkcJCwDwnZn6z3wXmqPV"
    },
    {
      "id": "did:example:123#key-2",
      "type": "JsonWebKey2020",
      "controller": "did:example:123",
      "publicKeyJwk": {"kty": "OKP", "crv": "X25519", "x": "hSDwCYkwp1R0i33ctD73Wg2_Og0mOBr066SpjqqbTmo"}
    }
  ],
  "authentication": ["#key-1", "#missing", {
    "id": "did:example:123#key-3",
    "type": "Ed25519VerificationKey2020",
    "publicKeyMultibase": "z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK"
  }],
  "keyAgreement": ["did:example:123#key-2"],
  "service": [{
    "id": "did:example:123#didcomm-1",
    "type": "DIDCommMessaging",
    "serviceEndpoint": {"uri": "https://mediator.example/didcomm", "accept": ["didcomm/v2"], "routingKeys": ["did:example:mediator#key-1"]}
  }],
  "alsoKnownAs": ["https://example.com/alice"],
  "customMember": {"a": 1}
}`

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(docJSON))
	require.NoError(t, err)
	require.Equal(t, New("example", "123"), doc.ID)
	require.Len(t, doc.VerificationMethods(), 2)
	require.Equal(t, "did:example:123#key-1", doc.VerificationMethods()[0].ID.String())

	t.Run("authentication drops unresolvable references", func(t *testing.T) {
		auth := doc.Authentication()
		require.Len(t, auth, 2)
		require.Equal(t, "did:example:123#key-3", auth[0].ID.String())
		require.Equal(t, "did:example:123#key-1", auth[1].ID.String())
	})

	t.Run("keys decode", func(t *testing.T) {
		authKeys, err := AuthenticationKeys(doc)
		require.NoError(t, err)
		require.Len(t, authKeys, 2)

		for _, k := range authKeys {
			require.Equal(t, keys.Ed25519, k.Curve())
		}

		require.Equal(t, "did:example:123#key-1", authKeys[1].Ref().ID())

		agreement, err := KeyAgreementKeys(doc)
		require.NoError(t, err)
		require.Len(t, agreement, 1)
		require.Equal(t, keys.X25519, agreement[0].Curve())
	})

	t.Run("service", func(t *testing.T) {
		ep, ok := LookupDIDCommEndpoint(doc)
		require.True(t, ok)
		require.Equal(t, "https://mediator.example/didcomm", ep.URI)
		require.Equal(t, []string{"did:example:mediator#key-1"}, ep.RoutingKeys)

		_, ok = LookupService(doc, "LinkedDomains")
		require.False(t, ok)
	})

	t.Run("unknown members survive a round trip", func(t *testing.T) {
		out, err := doc.JSONBytes()
		require.NoError(t, err)

		again, err := ParseDocument(out)
		require.NoError(t, err)
		require.Equal(t, doc, again)

		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(out, &m))
		require.Equal(t, map[string]interface{}{"a": float64(1)}, m["customMember"])
	})
}

func TestParseDocumentInvalid(t *testing.T) {
	for name, data := range map[string]string{
		"missing id":        `{"verificationMethod": []}`,
		"bad id":            `{"id": "example:123"}`,
		"vm without type":   `{"id": "did:example:1", "verificationMethod": [{"id": "#k"}]}`,
		"bad service":       `{"id": "did:example:1", "service": [{"id": "s"}]}`,
		"numeric reference": `{"id": "did:example:1", "authentication": [1]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument([]byte(data))
			require.ErrorIs(t, err, ErrInvalidDIDDocument)
		})
	}
}

func TestBuildDoc(t *testing.T) {
	key, err := kms.New().CreatePrivateKey(keys.Ed25519, kms.WithSeed(make([]byte, 32)))
	require.NoError(t, err)

	mb, err := EncodeMultibaseKey(key.PublicKey())
	require.NoError(t, err)

	id := New("example", "built")
	vmID, err := RelativeTo(id, "#key-1")
	require.NoError(t, err)

	doc := BuildDoc(id,
		WithVerificationMethod(VerificationMethod{ID: *vmID, Controller: id, Type: Ed25519VerificationKey2020,
			PublicKeyMultibase: mb}),
		WithAuthentication("#key-1"),
		WithService(Service{ID: "#didcomm-1", Type: []string{DIDCommMessagingServiceType},
			Endpoint: ServiceEndpoint{URI: "https://agent.example"}}),
	)

	authKeys, err := AuthenticationKeys(doc)
	require.NoError(t, err)
	require.Len(t, authKeys, 1)
	require.Equal(t, key.PublicKey().Raw(), authKeys[0].Raw())

	decoded, err := DecodeMultibaseKey(mb)
	require.NoError(t, err)
	require.Equal(t, key.PublicKey().Raw(), decoded.Raw())
	require.Equal(t, byte('z'), mb[0])

	_, err = DecodeMultibaseKey("zzzz")
	require.ErrorIs(t, err, ErrInvalidPublicKeyEncoding)
}
