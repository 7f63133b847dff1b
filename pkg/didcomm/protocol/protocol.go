/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package protocol holds what the typed DIDComm protocol messages share: the error
// set, the thread envelope and message type checks.
package protocol

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// Error codes of the protocol domain.
const (
	InvalidMessageType = errcode.Code(iota + errcode.Protocol)
	NoMediatorAvailable
	InvalidStateTransition
	InvalidInvitation
	MediationRequestFailed
)

var (
	// ErrInvalidMessageType is returned when a message is not of an expected type.
	ErrInvalidMessageType = errcode.New(InvalidMessageType, errcode.ValidationError, "invalid message type")
	// ErrNoMediatorAvailable is returned when an operation needs a mediator and none is registered.
	ErrNoMediatorAvailable = errcode.New(NoMediatorAvailable, errcode.ExecuteError, "no mediator available")
	// ErrInvalidStateTransition is returned when a message arrives in a state that cannot accept it.
	ErrInvalidStateTransition = errcode.New(InvalidStateTransition, errcode.ValidationError,
		"invalid state transition")
	// ErrInvalidInvitation is returned for malformed out-of-band invitations.
	ErrInvalidInvitation = errcode.New(InvalidInvitation, errcode.ValidationError, "invalid invitation")
	// ErrMediationRequestFailed is returned when the mediator denies or does not answer.
	ErrMediationRequestFailed = errcode.New(MediationRequestFailed, errcode.ExecuteError,
		"mediation request failed")
)

// Family is a protocol version line. Families never convert into each other.
type Family int

const (
	// UnknownFamily is any type outside the supported protocols.
	UnknownFamily Family = iota
	// V2 messages list formats in the body.
	V2
	// V3 messages carry the format on each attachment.
	V3
)

func (f Family) String() string {
	switch f {
	case V2:
		return "2.0"
	case V3:
		return "3.0"
	default:
		return "unknown"
	}
}

// FamilyOf reads the version segment of a protocol message type URI
// (https://didcomm.org/<protocol>/<version>/<name>).
func FamilyOf(piuri string) Family {
	parts := strings.Split(piuri, "/")

	const versionFromEnd = 2

	if len(parts) < versionFromEnd+1 {
		return UnknownFamily
	}

	switch parts[len(parts)-versionFromEnd] {
	case "2.0":
		return V2
	case "3.0":
		return V3
	default:
		return UnknownFamily
	}
}

// CheckType fails with ErrInvalidMessageType unless piuri is one of expected.
func CheckType(piuri string, expected ...string) error {
	for _, e := range expected {
		if piuri == e {
			return nil
		}
	}

	return fmt.Errorf("%w: %q is not one of [%s]", ErrInvalidMessageType, piuri, strings.Join(expected, ", "))
}

// Envelope is the part of a typed protocol message that lives outside the body.
type Envelope struct {
	ID          string
	From        did.DID
	To          did.DID
	Thid        string
	Pthid       string
	Attachments []message.Attachment
}

// ParseEnvelope checks the type of msg and that both parties are set.
func ParseEnvelope(msg *message.Message, expected ...string) (Envelope, error) {
	if err := CheckType(msg.PIURI, expected...); err != nil {
		return Envelope{}, err
	}

	from, err := msg.RequireFrom()
	if err != nil {
		return Envelope{}, err
	}

	to, err := msg.RequireTo()
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		ID:          msg.ID,
		From:        from,
		To:          to,
		Thid:        msg.Thid,
		Pthid:       msg.Pthid,
		Attachments: msg.Attachments,
	}, nil
}

// ThreadID returns thid, or the id when the message opens the thread.
func (e *Envelope) ThreadID() string {
	if e.Thid != "" {
		return e.Thid
	}

	return e.ID
}

// Reply returns the envelope of an answer: parties swapped, same thread, attachments copied.
// An empty id gets a generated one.
func (e *Envelope) Reply(id string) Envelope {
	if id == "" {
		id = uuid.New().String()
	}

	return Envelope{
		ID:          id,
		From:        e.To,
		To:          e.From,
		Thid:        e.ThreadID(),
		Pthid:       e.Pthid,
		Attachments: append([]message.Attachment(nil), e.Attachments...),
	}
}

// Message builds the generic message for piuri and body.
func (e *Envelope) Message(piuri string, body interface{}) (*message.Message, error) {
	opts := []message.Option{
		message.WithFrom(e.From),
		message.WithTo(e.To),
		message.WithThread(e.Thid, e.Pthid),
		message.WithAttachments(e.Attachments...),
	}

	if e.ID != "" {
		opts = append(opts, message.WithID(e.ID))
	}

	msg := message.New(piuri, opts...)

	if err := msg.SetBody(body); err != nil {
		return nil, err
	}

	return msg, nil
}
