/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package revocation reads issuer notifications that a credential was revoked.
package revocation

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

// NotificationMsgType defines the revocation notification message type.
const NotificationMsgType = "https://atalaprism.io/revocation_notification/1.0/revoke"

// NotificationBody names the issue-credential thread of the revoked credential.
type NotificationBody struct {
	IssueCredentialProtocolThreadID string `json:"issueCredentialProtocolThreadId"`
	Comment                         string `json:"comment,omitempty"`
}

// Notification tells the holder a credential was revoked.
type Notification struct {
	protocol.Envelope
	Body NotificationBody
}

// FromMessage reads a revocation notification.
func (n *Notification) FromMessage(msg *message.Message) error {
	e, err := protocol.ParseEnvelope(msg, NotificationMsgType)
	if err != nil {
		return err
	}

	if err = msg.DecodeBody(&n.Body); err != nil {
		return err
	}

	n.Envelope = e

	return nil
}

// Message converts n into a generic message.
func (n *Notification) Message() (*message.Message, error) {
	return n.Envelope.Message(NotificationMsgType, n.Body)
}
