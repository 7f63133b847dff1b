/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package outofbandv2

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

const (
	// Name of this protocol.
	Name = "out-of-band"

	// PIURI is the Out-of-Band protocol's protocol instance URI.
	PIURI = "https://didcomm.org/" + Name + "/2.0"

	// InvitationMsgType is the 'type' for the invitation message.
	InvitationMsgType = PIURI + "/invitation"

	// QueryParameter carries the encoded invitation in an invitation URL.
	QueryParameter = "_oob"
)

// InvitationBody contains invitation's goal and accept headers.
type InvitationBody struct {
	Goal     string   `json:"goal,omitempty"`
	GoalCode string   `json:"goal_code,omitempty"`
	Accept   []string `json:"accept,omitempty"`
}

// Invitation is this protocol's `invitation` message. It has no recipient.
type Invitation struct {
	ID          string
	From        did.DID
	Body        InvitationBody
	Attachments []message.Attachment
}

// FromMessage reads an invitation.
func (i *Invitation) FromMessage(msg *message.Message) error {
	if err := protocol.CheckType(msg.PIURI, InvitationMsgType); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrInvalidInvitation, err)
	}

	from, err := msg.RequireFrom()
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrInvalidInvitation, err)
	}

	var body InvitationBody
	if err = msg.DecodeBody(&body); err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrInvalidInvitation, err)
	}

	*i = Invitation{ID: msg.ID, From: from, Body: body, Attachments: msg.Attachments}

	return nil
}

// Message converts i into a generic message.
func (i *Invitation) Message() (*message.Message, error) {
	opts := []message.Option{message.WithFrom(i.From), message.WithAttachments(i.Attachments...)}
	if i.ID != "" {
		opts = append(opts, message.WithID(i.ID))
	}

	msg := message.New(InvitationMsgType, opts...)
	if err := msg.SetBody(i.Body); err != nil {
		return nil, err
	}

	return msg, nil
}

// URL encodes i into the _oob query parameter of base.
func (i *Invitation) URL(base string) (string, error) {
	msg, err := i.Message()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: base url: %v", protocol.ErrInvalidInvitation, err)
	}

	q := u.Query()
	q.Set(QueryParameter, base64.RawURLEncoding.EncodeToString(data))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ParseInvitationURL decodes the invitation carried in the _oob parameter of s.
func ParseInvitationURL(s string) (*Invitation, error) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidInvitation, err)
	}

	encoded := u.Query().Get(QueryParameter)
	if encoded == "" {
		return nil, fmt.Errorf("%w: no %s parameter", protocol.ErrInvalidInvitation, QueryParameter)
	}

	data, err := message.DecodeBase64URL(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", protocol.ErrInvalidInvitation, err)
	}

	return ParseInvitation(data)
}

// ParseInvitation decodes an invitation message.
func ParseInvitation(data []byte) (*Invitation, error) {
	msg := &message.Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", protocol.ErrInvalidInvitation, err)
	}

	inv := &Invitation{}
	if err := inv.FromMessage(msg); err != nil {
		return nil, err
	}

	return inv, nil
}
