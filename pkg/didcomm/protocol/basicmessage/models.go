/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package basicmessage is the basic message 2.0 protocol.
package basicmessage

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

// MessageMsgType defines the basic message type.
const MessageMsgType = "https://didcomm.org/basicmessage/2.0/message"

// Body carries the text.
type Body struct {
	Content string `json:"content"`
}

// BasicMessage is a human readable text message.
type BasicMessage struct {
	protocol.Envelope
	Body Body
}

// FromMessage reads a basic message.
func (b *BasicMessage) FromMessage(msg *message.Message) error {
	e, err := protocol.ParseEnvelope(msg, MessageMsgType)
	if err != nil {
		return err
	}

	if err = msg.DecodeBody(&b.Body); err != nil {
		return err
	}

	b.Envelope = e

	return nil
}

// Message converts b into a generic message.
func (b *BasicMessage) Message() (*message.Message, error) {
	return b.Envelope.Message(MessageMsgType, b.Body)
}
