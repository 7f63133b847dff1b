/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package messagepickup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

var logger = log.New("edge-agent/messagepickup")

const (
	// MessagePickup defines the protocol name.
	MessagePickup = "messagepickup"
	// Spec defines the protocol spec.
	Spec = "https://didcomm.org/messagepickup/3.0/"
	// StatusRequestMsgType defines the protocol status-request message type.
	StatusRequestMsgType = Spec + "status-request"
	// StatusMsgType defines the protocol status message type.
	StatusMsgType = Spec + "status"
	// DeliveryRequestMsgType defines the protocol delivery-request message type.
	DeliveryRequestMsgType = Spec + "delivery-request"
	// DeliveryMsgType defines the protocol delivery message type.
	DeliveryMsgType = Spec + "delivery"
	// MessagesReceivedMsgType defines the protocol messages-received message type.
	MessagesReceivedMsgType = Spec + "messages-received"
	// LiveDeliveryChangeMsgType defines the protocol live-delivery-change message type.
	LiveDeliveryChangeMsgType = Spec + "live-delivery-change"
)

// StatusRequestBody optionally narrows the status to one recipient DID.
type StatusRequestBody struct {
	RecipientDID string `json:"recipient_did,omitempty"`
}

// StatusRequest sent by the recipient to the message_holder to request a status message.
type StatusRequest struct {
	protocol.Envelope
	Body StatusRequestBody
}

// Message converts s into a generic message.
func (s *StatusRequest) Message() (*message.Message, error) {
	return s.Envelope.Message(StatusRequestMsgType, s.Body)
}

// StatusBody details about pending messages.
type StatusBody struct {
	RecipientDID         string `json:"recipient_did,omitempty"`
	MessageCount         int    `json:"message_count"`
	LongestWaitedSeconds int64  `json:"longest_waited_seconds,omitempty"`
	NewestReceivedTime   int64  `json:"newest_received_time,omitempty"`
	OldestReceivedTime   int64  `json:"oldest_received_time,omitempty"`
	TotalBytes           int64  `json:"total_bytes,omitempty"`
	LiveDelivery         bool   `json:"live_delivery,omitempty"`
}

// Status answers a StatusRequest.
type Status struct {
	protocol.Envelope
	Body StatusBody
}

// FromMessage reads a status.
func (s *Status) FromMessage(msg *message.Message) error {
	return decode(msg, StatusMsgType, &s.Envelope, &s.Body)
}

// NewestReceived returns the newest_received_time as a time.
func (s *Status) NewestReceived() time.Time {
	if s.Body.NewestReceivedTime == 0 {
		return time.Time{}
	}

	return time.Unix(s.Body.NewestReceivedTime, 0).UTC()
}

// DeliveryRequestBody asks for at most Limit messages.
type DeliveryRequestBody struct {
	Limit        int    `json:"limit"`
	RecipientDID string `json:"recipient_did,omitempty"`
}

// DeliveryRequest a request to have waiting messages sent inside a delivery message.
type DeliveryRequest struct {
	protocol.Envelope
	Body DeliveryRequestBody
}

// Message converts d into a generic message.
func (d *DeliveryRequest) Message() (*message.Message, error) {
	return d.Envelope.Message(DeliveryRequestMsgType, d.Body)
}

// DeliveryBody optionally names the recipient DID the messages were held for.
type DeliveryBody struct {
	RecipientDID string `json:"recipient_did,omitempty"`
}

// Delivery a message that contains multiple waiting messages, one per attachment.
// The attachment id is the id the mediator holds the message under.
type Delivery struct {
	protocol.Envelope
	Body DeliveryBody
}

// FromMessage reads a delivery.
func (d *Delivery) FromMessage(msg *message.Message) error {
	return decode(msg, DeliveryMsgType, &d.Envelope, &d.Body)
}

// Delivered is a message unpacked from a delivery together with its attachment id.
type Delivered struct {
	AttachmentID string
	Message      *message.Message
}

// Messages unpacks the delivered messages. Attachments that do not hold a DIDComm plaintext message
// are skipped but still reported in attachmentIDs, so that the mediator can drop them.
func (d *Delivery) Messages() (delivered []Delivered, attachmentIDs []string) {
	for i := range d.Attachments {
		a := &d.Attachments[i]
		attachmentIDs = append(attachmentIDs, a.ID)

		msg, err := unpack(a)
		if err != nil {
			logger.Warnf("skipping delivered attachment %s: %v", a.ID, err)

			continue
		}

		delivered = append(delivered, Delivered{AttachmentID: a.ID, Message: msg})
	}

	return delivered, attachmentIDs
}

func unpack(a *message.Attachment) (*message.Message, error) {
	data, err := a.Bytes()
	if err != nil {
		return nil, err
	}

	msg := &message.Message{Direction: message.Received}
	if err = json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("not a plaintext message: %w", err)
	}

	return msg, nil
}

// MessagesReceivedBody lists the ids of the processed messages.
type MessagesReceivedBody struct {
	MessageIDList []string `json:"message_id_list"`
}

// MessagesReceived tells the mediator which delivered messages it may delete.
type MessagesReceived struct {
	protocol.Envelope
	Body MessagesReceivedBody
}

// Message converts m into a generic message.
func (m *MessagesReceived) Message() (*message.Message, error) {
	return m.Envelope.Message(MessagesReceivedMsgType, m.Body)
}

// LiveDeliveryChangeBody toggles live delivery.
type LiveDeliveryChangeBody struct {
	LiveDelivery bool `json:"live_delivery"`
}

// LiveDeliveryChange asks the mediator to push messages over an open connection.
type LiveDeliveryChange struct {
	protocol.Envelope
	Body LiveDeliveryChangeBody
}

// Message converts l into a generic message.
func (l *LiveDeliveryChange) Message() (*message.Message, error) {
	return l.Envelope.Message(LiveDeliveryChangeMsgType, l.Body)
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
