/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

func TestForwardRoundTrip(t *testing.T) {
	alice := did.MustParse("did:peer:2.alice")
	bob := did.MustParse("did:peer:2.bob")
	routing := did.MustParse("did:peer:2.mediator")

	inner := message.New("https://didcomm.org/basicmessage/2.0/message",
		message.WithFrom(alice), message.WithTo(bob))
	require.NoError(t, inner.SetBody(map[string]string{"content": "hi"}))

	fwd, err := NewForward(inner, routing)
	require.NoError(t, err)
	require.Equal(t, bob.String(), fwd.Body.Next)

	msg, err := fwd.Message()
	require.NoError(t, err)
	require.Equal(t, routing, *msg.To)

	got, err := Unwrap(msg)
	require.NoError(t, err)
	require.Equal(t, inner.ID, got.ID)
	require.JSONEq(t, `{"content":"hi"}`, string(got.Body))

	_, err = Unwrap(inner)
	require.ErrorIs(t, err, protocol.ErrInvalidMessageType)

	_, err = NewForward(message.New("x", message.WithFrom(alice)), routing)
	require.ErrorIs(t, err, message.ErrNoRecipientDIDSet)
}
