/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message models the DIDComm v2 plaintext message and its attachments.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	jsonutil "github.com/hyperledger/edge-agent-sdk-go/pkg/doc/util/json"
)

// Error codes of the messaging domain.
const (
	NoRecipientDIDSet = errcode.Code(iota + errcode.Messaging)
	NoSenderDIDSet
	InvalidAttachment
	UnknownAttachmentData
	InvalidBody
	InvalidMessage
)

var (
	// ErrNoRecipientDIDSet is returned when a message needs a recipient and has none.
	ErrNoRecipientDIDSet = errcode.New(NoRecipientDIDSet, errcode.ValidationError, "no recipient DID set")
	// ErrNoSenderDIDSet is returned when a message needs a sender and has none.
	ErrNoSenderDIDSet = errcode.New(NoSenderDIDSet, errcode.ValidationError, "no sender DID set")
	// ErrInvalidAttachment is returned for malformed attachments.
	ErrInvalidAttachment = errcode.New(InvalidAttachment, errcode.ValidationError, "invalid attachment")
	// ErrUnknownAttachmentData is returned when an attachment has no inline bytes.
	ErrUnknownAttachmentData = errcode.New(UnknownAttachmentData, errcode.ValidationError,
		"unknown attachment data")
	// ErrInvalidBody is returned when the body does not match the protocol schema.
	ErrInvalidBody = errcode.New(InvalidBody, errcode.ValidationError, "invalid message body")
	// ErrInvalidMessage is returned for envelopes that cannot be decoded.
	ErrInvalidMessage = errcode.New(InvalidMessage, errcode.ValidationError, "invalid message")
)

// Direction tells whether a message was sent or received by this agent.
type Direction int

const (
	// Sent by this agent.
	Sent Direction = iota
	// Received by this agent.
	Received
)

func (d Direction) String() string {
	if d == Received {
		return "received"
	}

	return "sent"
}

// Message is the DIDComm v2 plaintext envelope.
type Message struct {
	ID              string
	PIURI           string
	From            *did.DID
	To              *did.DID
	FromPrior       string
	Body            json.RawMessage
	ExtraHeaders    map[string]string
	CreatedTime     time.Time
	ExpiresTimePlus time.Time
	Attachments     []Attachment
	Thid            string
	Pthid           string
	Ack             []string
	Direction       Direction
}

// Option configures a new message.
type Option func(m *Message)

// New creates a message with a fresh id and creation time.
func New(piuri string, opts ...Option) *Message {
	m := &Message{
		ID:          uuid.New().String(),
		PIURI:       piuri,
		Body:        json.RawMessage("{}"),
		CreatedTime: time.Now().UTC().Truncate(time.Second),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithID overrides the generated id.
func WithID(id string) Option {
	return func(m *Message) {
		m.ID = id
	}
}

// WithFrom sets the sender.
func WithFrom(from did.DID) Option {
	return func(m *Message) {
		m.From = &from
	}
}

// WithTo sets the recipient.
func WithTo(to did.DID) Option {
	return func(m *Message) {
		m.To = &to
	}
}

// WithThread sets thid and pthid.
func WithThread(thid, pthid string) Option {
	return func(m *Message) {
		m.Thid = thid
		m.Pthid = pthid
	}
}

// WithAttachments appends attachments.
func WithAttachments(a ...Attachment) Option {
	return func(m *Message) {
		m.Attachments = append(m.Attachments, a...)
	}
}

// WithDirection sets the direction.
func WithDirection(d Direction) Option {
	return func(m *Message) {
		m.Direction = d
	}
}

// SetBody encodes v as the body.
func (m *Message) SetBody(v interface{}) error {
	raw, err := jsonutil.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}

	m.Body = raw

	return nil
}

// DecodeBody decodes the body into v.
func (m *Message) DecodeBody(v interface{}) error {
	body := m.Body
	if len(bytes.TrimSpace(body)) == 0 {
		body = json.RawMessage("{}")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidBody, m.PIURI, err)
	}

	return nil
}

// Equal compares id, to, from, piuri and body.
func (m *Message) Equal(o *Message) bool {
	if m == nil || o == nil {
		return m == o
	}

	return m.ID == o.ID && m.PIURI == o.PIURI && sameDID(m.From, o.From) && sameDID(m.To, o.To) &&
		bytes.Equal(bytes.TrimSpace(m.Body), bytes.TrimSpace(o.Body))
}

func sameDID(a, b *did.DID) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

// ThreadID returns thid, or the id when the message starts a thread.
func (m *Message) ThreadID() string {
	if m.Thid != "" {
		return m.Thid
	}

	return m.ID
}

// FirstAttachment returns the first attachment.
func (m *Message) FirstAttachment() (*Attachment, bool) {
	if len(m.Attachments) == 0 {
		return nil, false
	}

	return &m.Attachments[0], true
}

// AttachmentByFormat returns the first attachment with the given format.
func (m *Message) AttachmentByFormat(format string) (*Attachment, bool) {
	for i := range m.Attachments {
		if m.Attachments[i].Format == format {
			return &m.Attachments[i], true
		}
	}

	return nil, false
}

// AttachmentByID returns the attachment with the given id.
func (m *Message) AttachmentByID(id string) (*Attachment, bool) {
	for i := range m.Attachments {
		if m.Attachments[i].ID == id {
			return &m.Attachments[i], true
		}
	}

	return nil, false
}

// RequireFrom returns the sender or ErrNoSenderDIDSet.
func (m *Message) RequireFrom() (did.DID, error) {
	if m.From == nil {
		return did.DID{}, fmt.Errorf("%w: %s", ErrNoSenderDIDSet, m.PIURI)
	}

	return *m.From, nil
}

// RequireTo returns the recipient or ErrNoRecipientDIDSet.
func (m *Message) RequireTo() (did.DID, error) {
	if m.To == nil {
		return did.DID{}, fmt.Errorf("%w: %s", ErrNoRecipientDIDSet, m.PIURI)
	}

	return *m.To, nil
}

var knownHeaders = []string{ //nolint:gochecknoglobals
	"id", "type", "from", "to", "thid", "pthid", "created_time", "expires_time",
	"from_prior", "body", "attachments", "ack",
}

type rawMessage struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	From        string          `json:"from,omitempty"`
	To          []string        `json:"to,omitempty"`
	Thid        string          `json:"thid,omitempty"`
	Pthid       string          `json:"pthid,omitempty"`
	CreatedTime int64           `json:"created_time,omitempty"`
	ExpiresTime int64           `json:"expires_time,omitempty"`
	FromPrior   string          `json:"from_prior,omitempty"`
	Body        json.RawMessage `json:"body"`
	Attachments []Attachment    `json:"attachments,omitempty"`
	Ack         []string        `json:"ack,omitempty"`
}

// MarshalJSON writes the DIDComm v2 plaintext form. Extra headers become top level members.
func (m Message) MarshalJSON() ([]byte, error) {
	raw := rawMessage{
		ID:          m.ID,
		Type:        m.PIURI,
		Thid:        m.Thid,
		Pthid:       m.Pthid,
		FromPrior:   m.FromPrior,
		Body:        m.Body,
		Attachments: m.Attachments,
		Ack:         m.Ack,
	}

	if len(bytes.TrimSpace(raw.Body)) == 0 {
		raw.Body = json.RawMessage("{}")
	}

	if m.From != nil {
		raw.From = m.From.String()
	}

	if m.To != nil {
		raw.To = []string{m.To.String()}
	}

	if !m.CreatedTime.IsZero() {
		raw.CreatedTime = m.CreatedTime.Unix()
	}

	if !m.ExpiresTimePlus.IsZero() {
		raw.ExpiresTime = m.ExpiresTimePlus.Unix()
	}

	if len(m.ExtraHeaders) == 0 {
		return json.Marshal(raw)
	}

	extra := make(map[string]interface{}, len(m.ExtraHeaders))
	for k, v := range m.ExtraHeaders {
		extra[k] = v
	}

	return jsonutil.MarshalWithExtra(raw, extra)
}

// UnmarshalJSON reads the DIDComm v2 plaintext form. Unknown string members become extra headers.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw rawMessage

	extra, err := jsonutil.SplitExtra(data, &raw, knownHeaders...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if raw.ID == "" || raw.Type == "" {
		return fmt.Errorf("%w: id and type are required", ErrInvalidMessage)
	}

	out := Message{
		ID:          raw.ID,
		PIURI:       raw.Type,
		Thid:        raw.Thid,
		Pthid:       raw.Pthid,
		FromPrior:   raw.FromPrior,
		Body:        raw.Body,
		Attachments: raw.Attachments,
		Ack:         raw.Ack,
		Direction:   m.Direction,
	}

	if raw.From != "" {
		from, perr := did.Parse(raw.From)
		if perr != nil {
			return fmt.Errorf("%w: from: %v", ErrInvalidMessage, perr)
		}

		out.From = &from
	}

	if len(raw.To) > 0 {
		to, perr := did.Parse(raw.To[0])
		if perr != nil {
			return fmt.Errorf("%w: to: %v", ErrInvalidMessage, perr)
		}

		out.To = &to
	}

	if raw.CreatedTime > 0 {
		out.CreatedTime = time.Unix(raw.CreatedTime, 0).UTC()
	}

	if raw.ExpiresTime > 0 {
		out.ExpiresTimePlus = time.Unix(raw.ExpiresTime, 0).UTC()
	}

	for k, v := range extra {
		var s string
		if json.Unmarshal(v, &s) == nil {
			if out.ExtraHeaders == nil {
				out.ExtraHeaders = map[string]string{}
			}

			out.ExtraHeaders[k] = s
		}
	}

	*m = out

	return nil
}
