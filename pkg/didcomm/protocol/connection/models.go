/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package connection implements the connections 1.0 request/accept exchange that follows an
// out-of-band invitation.
package connection

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/outofbandv2"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

const (
	// Spec defines the connections protocol.
	Spec = "https://atalaprism.io/mercury/connections/1.0/"
	// RequestMsgType defines the connection request message type.
	RequestMsgType = Spec + "request"
	// AcceptMsgType defines the connection response message type.
	AcceptMsgType = Spec + "response"
)

// Body of both connection messages.
type Body struct {
	GoalCode string   `json:"goal_code,omitempty"`
	Goal     string   `json:"goal,omitempty"`
	Accept   []string `json:"accept,omitempty"`
}

// Request asks the inviter to connect. The thread parent is the invitation.
type Request struct {
	protocol.Envelope
	Body Body
}

// RequestFromInvitation answers inv from the holder DID from.
func RequestFromInvitation(inv *outofbandv2.Invitation, from did.DID) *Request {
	return &Request{
		Envelope: protocol.Envelope{From: from, To: inv.From, Pthid: inv.ID},
		Body:     Body{GoalCode: inv.Body.GoalCode, Goal: inv.Body.Goal, Accept: inv.Body.Accept},
	}
}

// FromMessage reads a connection request.
func (r *Request) FromMessage(msg *message.Message) error {
	return decode(msg, RequestMsgType, &r.Envelope, &r.Body)
}

// Message converts r into a generic message.
func (r *Request) Message() (*message.Message, error) {
	return r.Envelope.Message(RequestMsgType, r.Body)
}

// Accept answers a connection request.
type Accept struct {
	protocol.Envelope
	Body Body
}

// AcceptRequest answers r on its thread.
func AcceptRequest(r *Request) *Accept {
	return &Accept{Envelope: r.Reply(""), Body: r.Body}
}

// FromMessage reads a connection response.
func (a *Accept) FromMessage(msg *message.Message) error {
	return decode(msg, AcceptMsgType, &a.Envelope, &a.Body)
}

// Message converts a into a generic message.
func (a *Accept) Message() (*message.Message, error) {
	return a.Envelope.Message(AcceptMsgType, a.Body)
}

func decode(msg *message.Message, piuri string, env *protocol.Envelope, body interface{}) error {
	e, err := protocol.ParseEnvelope(msg, piuri)
	if err != nil {
		return err
	}

	if err = msg.DecodeBody(body); err != nil {
		return err
	}

	*env = e

	return nil
}
