/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

var (
	prover   = did.MustParse("did:peer:2.prover")
	verifier = did.MustParse("did:peer:2.verifier")
)

func TestRequestOptions(t *testing.T) {
	t.Run("nested options win", func(t *testing.T) {
		att, err := message.NewJSONAttachment("", "prism/jwt", map[string]interface{}{
			"options":   map[string]string{"challenge": "c1", "domain": "d1"},
			"challenge": "ignored",
		})
		require.NoError(t, err)

		r := &RequestPresentationV3{Envelope: protocol.Envelope{Attachments: []message.Attachment{att}}}
		require.Equal(t, "c1", r.Challenge())
		require.Equal(t, "d1", r.Domain())
	})

	t.Run("top level fallback", func(t *testing.T) {
		att := message.NewBase64Attachment("", "application/json", "prism/jwt",
			[]byte(`{"challenge":"c2","domain":"d2"}`))

		r := &RequestPresentationV2{Envelope: protocol.Envelope{Attachments: []message.Attachment{att}}}
		require.Equal(t, "c2", r.Challenge())
		require.Equal(t, "d2", r.Domain())
	})

	t.Run("no attachment", func(t *testing.T) {
		r := &RequestPresentationV3{}
		require.Empty(t, r.Challenge())
		require.Empty(t, r.Domain())
	})
}

func TestFlowKeepsThread(t *testing.T) {
	propose := &ProposePresentationV2{
		Envelope: protocol.Envelope{ID: "p-1", From: prover, To: verifier},
		Body:     ProposePresentationV2Body{Formats: []Format{{AttachID: "x", Format: "prism/jwt"}}},
	}
	proposeMsg, err := propose.Message()
	require.NoError(t, err)

	requestMsg, err := MakeRequestFromProposal(proposeMsg)
	require.NoError(t, err)
	require.Equal(t, RequestPresentationMsgTypeV2, requestMsg.PIURI)
	require.Equal(t, "p-1", requestMsg.Thid)
	require.Equal(t, verifier, *requestMsg.From)

	presentationMsg, err := MakePresentationFromRequest(requestMsg)
	require.NoError(t, err)
	require.Equal(t, PresentationMsgTypeV2, presentationMsg.PIURI)
	require.Equal(t, "p-1", presentationMsg.Thid)
	require.Equal(t, verifier, *presentationMsg.To)

	presentation := &PresentationV2{}
	require.NoError(t, presentation.FromMessage(presentationMsg))
	require.Equal(t, propose.Body.Formats, presentation.Body.Formats)

	request := &RequestPresentationV3{Envelope: protocol.Envelope{From: verifier, To: prover}}
	requestMsg, err = request.Message()
	require.NoError(t, err)

	presentationMsg, err = MakePresentationFromRequest(requestMsg)
	require.NoError(t, err)
	require.Equal(t, PresentationMsgTypeV3, presentationMsg.PIURI)
	require.Equal(t, requestMsg.ID, presentationMsg.Thid)

	_, err = MakeRequestFromProposal(requestMsg)
	require.ErrorIs(t, err, protocol.ErrInvalidMessageType)
}

func TestNextState(t *testing.T) {
	state, err := NextState("", RequestPresentationMsgTypeV3, true)
	require.NoError(t, err)
	require.Equal(t, stateNameRequestSent, state)

	state, err = NextState(state, PresentationMsgTypeV3, false)
	require.NoError(t, err)
	require.Equal(t, stateNamePresentationReceived, state)

	state, err = NextState(state, AckMsgTypeV3, true)
	require.NoError(t, err)
	require.Equal(t, protocol.StateNameDone, state)

	_, err = NextState(state, RequestPresentationMsgTypeV3, false)
	require.ErrorIs(t, err, protocol.ErrInvalidStateTransition)

	_, err = NextState("", PresentationMsgTypeV2, true)
	require.ErrorIs(t, err, protocol.ErrInvalidStateTransition)
}
