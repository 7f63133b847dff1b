/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package routing wraps messages for delivery through a mediator.
package routing

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// ForwardMsgType defines the routing forward message type.
const ForwardMsgType = "https://didcomm.org/routing/2.0/forward"

// ForwardBody names the final recipient.
type ForwardBody struct {
	Next string `json:"next"`
}

// Forward carries an inner message, as its single attachment, to a mediator.
type Forward struct {
	protocol.Envelope
	Body ForwardBody
}

// NewForward wraps inner for delivery through the mediator at routingDID.
func NewForward(inner *message.Message, routingDID did.DID) (*Forward, error) {
	to, err := inner.RequireTo()
	if err != nil {
		return nil, err
	}

	att, err := message.NewJSONAttachment("", "", inner)
	if err != nil {
		return nil, err
	}

	env := protocol.Envelope{To: routingDID, Attachments: []message.Attachment{att}}
	if inner.From != nil {
		env.From = *inner.From
	}

	return &Forward{Envelope: env, Body: ForwardBody{Next: to.String()}}, nil
}

// Message converts f into a generic message. The sender of a forward may be anonymous.
func (f *Forward) Message() (*message.Message, error) {
	opts := []message.Option{message.WithTo(f.To), message.WithAttachments(f.Attachments...)}
	if !f.From.IsZero() {
		opts = append(opts, message.WithFrom(f.From))
	}

	msg := message.New(ForwardMsgType, opts...)

	if err := msg.SetBody(f.Body); err != nil {
		return nil, err
	}

	return msg, nil
}

// Unwrap returns the message carried by a forward.
func Unwrap(msg *message.Message) (*message.Message, error) {
	if err := protocol.CheckType(msg.PIURI, ForwardMsgType); err != nil {
		return nil, err
	}

	att, ok := msg.FirstAttachment()
	if !ok {
		return nil, fmt.Errorf("%w: forward without attachment", message.ErrInvalidAttachment)
	}

	data, err := att.Bytes()
	if err != nil {
		return nil, err
	}

	inner := &message.Message{}
	if err = json.Unmarshal(data, inner); err != nil {
		return nil, err
	}

	return inner, nil
}
