/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

// Format contains the value of the attachment id and the verifiable credential format of the attachment.
type Format struct {
	AttachID string `json:"attach_id"`
	Format   string `json:"format"`
}

// Attribute describes an attribute for a Preview Credential.
type Attribute struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	MediaType string `json:"media_type,omitempty"`
}

// CredentialPreview is used to construct a preview of the data for the credential that is to be issued.
type CredentialPreview struct {
	Type       string      `json:"type,omitempty"`
	SchemaID   string      `json:"schema_id,omitempty"`
	Attributes []Attribute `json:"attributes"`
}

// ProposeCredentialV2Body is the body of a 2.0 propose-credential.
type ProposeCredentialV2Body struct {
	GoalCode          string             `json:"goal_code,omitempty"`
	Comment           string             `json:"comment,omitempty"`
	CredentialPreview *CredentialPreview `json:"credential_preview,omitempty"`
	// Formats contains an entry for each attachment, providing the attachment id and its format.
	Formats []Format `json:"formats"`
}

// ProposeCredentialV2 is an optional message sent by the potential Holder to the Issuer
// to initiate the protocol or in response to a offer-credential message when the Holder
// wants some adjustments made to the credential data offered by Issuer.
type ProposeCredentialV2 struct {
	protocol.Envelope
	Body ProposeCredentialV2Body
}

// FromMessage reads a 2.0 propose-credential.
func (p *ProposeCredentialV2) FromMessage(msg *message.Message) error {
	return decode(msg, ProposeCredentialMsgTypeV2, &p.Envelope, &p.Body)
}

// Message converts p into a generic message.
func (p *ProposeCredentialV2) Message() (*message.Message, error) {
	return p.Envelope.Message(ProposeCredentialMsgTypeV2, p.Body)
}

// ProposeCredentialV3Body represents body for ProposeCredentialV3.
type ProposeCredentialV3Body struct {
	GoalCode          string             `json:"goal_code,omitempty"`
	Comment           string             `json:"comment,omitempty"`
	CredentialPreview *CredentialPreview `json:"credential_preview,omitempty"`
}

// ProposeCredentialV3 is the 3.0 propose-credential. Attachments carry their format.
type ProposeCredentialV3 struct {
	protocol.Envelope
	Body ProposeCredentialV3Body
}

// FromMessage reads a 3.0 propose-credential.
func (p *ProposeCredentialV3) FromMessage(msg *message.Message) error {
	return decode(msg, ProposeCredentialMsgTypeV3, &p.Envelope, &p.Body)
}

// Message converts p into a generic message.
func (p *ProposeCredentialV3) Message() (*message.Message, error) {
	return p.Envelope.Message(ProposeCredentialMsgTypeV3, p.Body)
}

// OfferCredentialV2Body is the body of a 2.0 offer-credential.
type OfferCredentialV2Body struct {
	GoalCode          string             `json:"goal_code,omitempty"`
	Comment           string             `json:"comment,omitempty"`
	ReplacementID     string             `json:"replacement_id,omitempty"`
	MultipleAvailable string             `json:"multiple_available,omitempty"`
	CredentialPreview *CredentialPreview `json:"credential_preview,omitempty"`
	Formats           []Format           `json:"formats"`
}

// OfferCredentialV2 is a message sent by the Issuer to the potential Holder,
// describing the credential they intend to offer.
type OfferCredentialV2 struct {
	protocol.Envelope
	Body OfferCredentialV2Body
}

// FromMessage reads a 2.0 offer-credential.
func (o *OfferCredentialV2) FromMessage(msg *message.Message) error {
	return decode(msg, OfferCredentialMsgTypeV2, &o.Envelope, &o.Body)
}

// Message converts o into a generic message.
func (o *OfferCredentialV2) Message() (*message.Message, error) {
	return o.Envelope.Message(OfferCredentialMsgTypeV2, o.Body)
}

// OfferCredentialV3Body represents body for OfferCredentialV3.
type OfferCredentialV3Body struct {
	GoalCode          string             `json:"goal_code,omitempty"`
	Comment           string             `json:"comment,omitempty"`
	ReplacementID     string             `json:"replacement_id,omitempty"`
	MultipleAvailable string             `json:"multiple_available,omitempty"`
	CredentialPreview *CredentialPreview `json:"credential_preview,omitempty"`
}

// OfferCredentialV3 is the 3.0 offer-credential.
type OfferCredentialV3 struct {
	protocol.Envelope
	Body OfferCredentialV3Body
}

// FromMessage reads a 3.0 offer-credential.
func (o *OfferCredentialV3) FromMessage(msg *message.Message) error {
	return decode(msg, OfferCredentialMsgTypeV3, &o.Envelope, &o.Body)
}

// Message converts o into a generic message.
func (o *OfferCredentialV3) Message() (*message.Message, error) {
	return o.Envelope.Message(OfferCredentialMsgTypeV3, o.Body)
}

// RequestCredentialV2Body is the body of a 2.0 request-credential.
type RequestCredentialV2Body struct {
	GoalCode string   `json:"goal_code,omitempty"`
	Comment  string   `json:"comment,omitempty"`
	Formats  []Format `json:"formats"`
}

// RequestCredentialV2 is a message sent by the potential Holder to the Issuer,
// to request the issuance of a credential.
type RequestCredentialV2 struct {
	protocol.Envelope
	Body RequestCredentialV2Body
}

// FromMessage reads a 2.0 request-credential.
func (r *RequestCredentialV2) FromMessage(msg *message.Message) error {
	return decode(msg, RequestCredentialMsgTypeV2, &r.Envelope, &r.Body)
}

// Message converts r into a generic message.
func (r *RequestCredentialV2) Message() (*message.Message, error) {
	return r.Envelope.Message(RequestCredentialMsgTypeV2, r.Body)
}

// RequestCredentialV3Body represents body for RequestCredentialV3.
type RequestCredentialV3Body struct {
	GoalCode string `json:"goal_code,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// RequestCredentialV3 is the 3.0 request-credential.
type RequestCredentialV3 struct {
	protocol.Envelope
	Body RequestCredentialV3Body
}

// FromMessage reads a 3.0 request-credential.
func (r *RequestCredentialV3) FromMessage(msg *message.Message) error {
	return decode(msg, RequestCredentialMsgTypeV3, &r.Envelope, &r.Body)
}

// Message converts r into a generic message.
func (r *RequestCredentialV3) Message() (*message.Message, error) {
	return r.Envelope.Message(RequestCredentialMsgTypeV3, r.Body)
}

// IssueCredentialV2Body is the body of a 2.0 issue-credential.
type IssueCredentialV2Body struct {
	GoalCode      string   `json:"goal_code,omitempty"`
	Comment       string   `json:"comment,omitempty"`
	ReplacementID string   `json:"replacement_id,omitempty"`
	MoreAvailable string   `json:"more_available,omitempty"`
	Formats       []Format `json:"formats"`
}

// IssueCredentialV2 contains as attached payload the credentials being issued.
type IssueCredentialV2 struct {
	protocol.Envelope
	Body IssueCredentialV2Body
}

// FromMessage reads a 2.0 issue-credential.
func (i *IssueCredentialV2) FromMessage(msg *message.Message) error {
	return decode(msg, IssueCredentialMsgTypeV2, &i.Envelope, &i.Body)
}

// Message converts i into a generic message.
func (i *IssueCredentialV2) Message() (*message.Message, error) {
	return i.Envelope.Message(IssueCredentialMsgTypeV2, i.Body)
}

// IssueCredentialV3Body represents body for IssueCredentialV3.
type IssueCredentialV3Body struct {
	GoalCode      string `json:"goal_code,omitempty"`
	Comment       string `json:"comment,omitempty"`
	ReplacementID string `json:"replacement_id,omitempty"`
	MoreAvailable string `json:"more_available,omitempty"`
}

// IssueCredentialV3 is the 3.0 issue-credential.
type IssueCredentialV3 struct {
	protocol.Envelope
	Body IssueCredentialV3Body
}

// FromMessage reads a 3.0 issue-credential.
func (i *IssueCredentialV3) FromMessage(msg *message.Message) error {
	return decode(msg, IssueCredentialMsgTypeV3, &i.Envelope, &i.Body)
}

// Message converts i into a generic message.
func (i *IssueCredentialV3) Message() (*message.Message, error) {
	return i.Envelope.Message(IssueCredentialMsgTypeV3, i.Body)
}

// FormatOf returns the format of an attachment: the attachment's own for 3.0, the
// formats entry for 2.0.
func FormatOf(formats []Format, a *message.Attachment) string {
	if a.Format != "" {
		return a.Format
	}

	for _, f := range formats {
		if f.AttachID == a.ID {
			return f.Format
		}
	}

	return ""
}

// FormatsOf lists the formats of attachments carrying one, in attachment order.
func FormatsOf(attachments []message.Attachment) []Format {
	var formats []Format

	for i := range attachments {
		if attachments[i].Format != "" {
			formats = append(formats, Format{AttachID: attachments[i].ID, Format: attachments[i].Format})
		}
	}

	return formats
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
