/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/basicmessage"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/revocation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// SendMessage sends msg and records it as sent. A synchronous reply is recorded as received and
// returned.
func (a *Agent) SendMessage(ctx context.Context, msg *message.Message) (*message.Message, error) {
	msg.Direction = message.Sent

	reply, err := a.sender.SendMessage(ctx, msg)
	if err != nil {
		return nil, err
	}

	if err = a.pluto.StoreMessages(ctx, msg); err != nil {
		return nil, fmt.Errorf("store sent message %s: %w", msg.ID, err)
	}

	if reply == nil {
		return nil, nil
	}

	if err = a.HandleReceivedMessage(ctx, reply); err != nil {
		return nil, err
	}

	return reply, nil
}

// SendBasicMessage sends content as a basic message from one of the agent's DIDs to to.
func (a *Agent) SendBasicMessage(ctx context.Context, from, to did.DID, content string) (*message.Message, error) {
	b := &basicmessage.BasicMessage{
		Envelope: protocol.Envelope{From: from, To: to},
		Body:     basicmessage.Body{Content: content},
	}

	msg, err := b.Message()
	if err != nil {
		return nil, err
	}

	if _, err = a.SendMessage(ctx, msg); err != nil {
		return nil, err
	}

	return msg, nil
}

// HandleReceivedMessage records msg as received and passes it to the message handlers. Revocation
// notifications mark their credential revoked first; a notification that cannot be applied fails
// the call and the handlers do not see it.
func (a *Agent) HandleReceivedMessage(ctx context.Context, msg *message.Message) error {
	msg.Direction = message.Received

	if err := a.pluto.StoreMessages(ctx, msg); err != nil {
		return fmt.Errorf("store received message %s: %w", msg.ID, err)
	}

	if msg.PIURI == revocation.NotificationMsgType {
		if err := a.HandleRevocationNotification(ctx, msg); err != nil {
			return fmt.Errorf("handle revocation notification %s: %w", msg.ID, err)
		}
	}

	for _, h := range a.handlers {
		if err := h(ctx, msg); err != nil {
			return fmt.Errorf("handle message %s: %w", msg.ID, err)
		}
	}

	return nil
}
