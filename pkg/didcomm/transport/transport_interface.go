/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"context"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
)

// OutboundTransport interface definition for transport layer
// This is the client side of the agent.
type OutboundTransport interface {
	// Send sends the serialized message to url and returns the synchronous reply, if any.
	Send(ctx context.Context, data []byte, url string) ([]byte, error)

	// Accept url.
	Accept(url string) bool
}

// MessageSender delivers a message to the endpoint of its recipient.
type MessageSender interface {
	// SendMessage returns the message the recipient answered with on the same request, or nil.
	SendMessage(ctx context.Context, msg *message.Message) (*message.Message, error)
}

// InboundMessageHandler handles the inbound requests. The transport decodes the payload prior to the
// message handle invocation.
type InboundMessageHandler func(ctx context.Context, msg *message.Message) error

// Fetcher collects the messages held for the agent, typically by a mediator.
type Fetcher interface {
	// FetchMessages returns the messages waiting for the agent. Returned messages are not delivered again.
	FetchMessages(ctx context.Context) ([]*message.Message, error)
}
