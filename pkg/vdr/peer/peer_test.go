/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
)

func keyOf(t *testing.T, curve keys.Curve, fill byte) keys.PublicKey {
	t.Helper()

	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = fill
	}

	key, err := kms.New().CreatePrivateKey(curve, kms.WithSeed(seed))
	require.NoError(t, err)

	return key.PublicKey()
}

func mediatorService() did.Service {
	return did.Service{
		Type: []string{did.DIDCommMessagingServiceType},
		Endpoint: did.ServiceEndpoint{
			URI:         "https://mediator.example/didcomm",
			Accept:      []string{"didcomm/v2"},
			RoutingKeys: []string{"did:peer:2.Ez6LSmediator#key-1"},
		},
	}
}

func TestCreate(t *testing.T) {
	agreement := keyOf(t, keys.X25519, 1)
	auth := keyOf(t, keys.Ed25519, 2)

	id, err := Create([]keys.PublicKey{agreement}, []keys.PublicKey{auth}, []did.Service{mediatorService()})
	require.NoError(t, err)
	require.Equal(t, DIDMethod, id.Method)
	require.True(t, strings.HasPrefix(id.String(), "did:peer:2.Ez6LS"), id.String())
	require.Contains(t, id.String(), ".Vz6Mk")
	require.Contains(t, id.String(), ".S")

	again, err := Create([]keys.PublicKey{agreement}, []keys.PublicKey{auth}, []did.Service{mediatorService()})
	require.NoError(t, err)
	require.Equal(t, id, again)

	t.Run("wrong curves", func(t *testing.T) {
		_, err := Create([]keys.PublicKey{auth}, nil, nil)
		require.ErrorIs(t, err, did.ErrInvalidPeerDID)

		_, err = Create(nil, []keys.PublicKey{agreement}, nil)
		require.ErrorIs(t, err, did.ErrInvalidPeerDID)

		_, err = Create(nil, nil, nil)
		require.ErrorIs(t, err, did.ErrInvalidPeerDID)
	})
}

func TestRead(t *testing.T) {
	agreement := keyOf(t, keys.X25519, 3)
	auth := keyOf(t, keys.Ed25519, 4)

	id, err := Create([]keys.PublicKey{agreement}, []keys.PublicKey{auth}, []did.Service{mediatorService()})
	require.NoError(t, err)

	v := New()
	require.True(t, v.Accept("peer"))
	require.False(t, v.Accept("prism"))

	doc, err := v.Read(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, doc.ID)
	require.Len(t, doc.VerificationMethods(), 2)

	agreementKeys, err := did.KeyAgreementKeys(doc)
	require.NoError(t, err)
	require.Len(t, agreementKeys, 1)
	require.Equal(t, agreement.Raw(), agreementKeys[0].Raw())
	require.Equal(t, id.String()+"#key-1", agreementKeys[0].Ref().ID())

	authKeys, err := did.AuthenticationKeys(doc)
	require.NoError(t, err)
	require.Len(t, authKeys, 1)
	require.Equal(t, auth.Raw(), authKeys[0].Raw())

	svc, ok := did.LookupService(doc, did.DIDCommMessagingServiceType)
	require.True(t, ok)
	require.Equal(t, "#didcomm-1", svc.ID)
	require.Equal(t, mediatorService().Endpoint, svc.Endpoint)

	t.Run("document survives JSON", func(t *testing.T) {
		data, err := doc.JSONBytes()
		require.NoError(t, err)

		parsed, err := did.ParseDocument(data)
		require.NoError(t, err)
		require.Len(t, parsed.Authentication(), 1)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"did:peer:1zQmZ", "did:peer:2", "did:peer:2.X123", "did:peer:2.Ezzzz", "did:peer:2.S!!"} {
			_, err := v.Read(context.Background(), did.MustParse(s))
			require.ErrorIs(t, err, did.ErrInvalidPeerDID, s)
		}
	})
}
