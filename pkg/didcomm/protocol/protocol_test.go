/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

func TestFamilyOf(t *testing.T) {
	require.Equal(t, V2, FamilyOf("https://didcomm.org/issue-credential/2.0/offer-credential"))
	require.Equal(t, V3, FamilyOf("https://didcomm.org/present-proof/3.0/presentation"))
	require.Equal(t, UnknownFamily, FamilyOf("https://didcomm.org/basicmessage/1.0/message"))
	require.Equal(t, UnknownFamily, FamilyOf("offer"))
	require.Equal(t, "3.0", V3.String())
}

func TestCheckType(t *testing.T) {
	require.NoError(t, CheckType("a", "b", "a"))

	err := CheckType("x", "a", "b")
	require.ErrorIs(t, err, ErrInvalidMessageType)
	require.Contains(t, err.Error(), `"x" is not one of [a, b]`)
	require.Equal(t, InvalidMessageType, errcode.CodeOf(err))
}

func TestEnvelope(t *testing.T) {
	alice := did.MustParse("did:peer:2.alice")
	bob := did.MustParse("did:peer:2.bob")

	msg := message.New("t/2.0/x", message.WithFrom(alice), message.WithTo(bob))

	env, err := ParseEnvelope(msg, "t/2.0/x")
	require.NoError(t, err)
	require.Equal(t, msg.ID, env.ThreadID())

	reply := env.Reply("")
	require.NotEmpty(t, reply.ID)
	require.Equal(t, bob, reply.From)
	require.Equal(t, alice, reply.To)
	require.Equal(t, msg.ID, reply.Thid)

	out, err := reply.Message("t/2.0/y", map[string]string{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, reply.ID, out.ID)
	require.Equal(t, msg.ID, out.Thid)

	_, err = ParseEnvelope(message.New("t/2.0/x", message.WithFrom(alice)), "t/2.0/x")
	require.ErrorIs(t, err, message.ErrNoRecipientDIDSet)

	_, err = ParseEnvelope(msg, "t/2.0/y")
	require.ErrorIs(t, err, ErrInvalidMessageType)
}
