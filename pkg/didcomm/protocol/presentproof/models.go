/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"encoding/json"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/issuecredential"
)

// Format pairs an attachment id with its presentation format.
type Format = issuecredential.Format

// ProposePresentationV2Body is the body of a 2.0 propose-presentation.
type ProposePresentationV2Body struct {
	GoalCode string `json:"goal_code,omitempty"`
	// Comment is a field that provides some human readable information about the proposed presentation.
	Comment string   `json:"comment,omitempty"`
	Formats []Format `json:"formats"`
}

// ProposePresentationV2 is an optional message sent by the Prover to the verifier to initiate a proof
// presentation process, or in response to a request-presentation message when the Prover wants to
// propose using a different presentation format.
type ProposePresentationV2 struct {
	protocol.Envelope
	Body ProposePresentationV2Body
}

// FromMessage reads a 2.0 propose-presentation.
func (p *ProposePresentationV2) FromMessage(msg *message.Message) error {
	return decode(msg, ProposePresentationMsgTypeV2, &p.Envelope, &p.Body)
}

// Message converts p into a generic message.
func (p *ProposePresentationV2) Message() (*message.Message, error) {
	return p.Envelope.Message(ProposePresentationMsgTypeV2, p.Body)
}

// ProposePresentationV3Body is the body of a 3.0 propose-presentation.
type ProposePresentationV3Body struct {
	GoalCode string `json:"goal_code,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// ProposePresentationV3 is the 3.0 propose-presentation.
type ProposePresentationV3 struct {
	protocol.Envelope
	Body ProposePresentationV3Body
}

// FromMessage reads a 3.0 propose-presentation.
func (p *ProposePresentationV3) FromMessage(msg *message.Message) error {
	return decode(msg, ProposePresentationMsgTypeV3, &p.Envelope, &p.Body)
}

// Message converts p into a generic message.
func (p *ProposePresentationV3) Message() (*message.Message, error) {
	return p.Envelope.Message(ProposePresentationMsgTypeV3, p.Body)
}

// RequestPresentationV2Body is the body of a 2.0 request-presentation.
type RequestPresentationV2Body struct {
	GoalCode    string   `json:"goal_code,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	WillConfirm bool     `json:"will_confirm,omitempty"`
	Formats     []Format `json:"formats"`
}

// RequestPresentationV2 describes values that need to be revealed and predicates that need to be fulfilled.
type RequestPresentationV2 struct {
	protocol.Envelope
	Body RequestPresentationV2Body
}

// FromMessage reads a 2.0 request-presentation.
func (r *RequestPresentationV2) FromMessage(msg *message.Message) error {
	return decode(msg, RequestPresentationMsgTypeV2, &r.Envelope, &r.Body)
}

// Message converts r into a generic message.
func (r *RequestPresentationV2) Message() (*message.Message, error) {
	return r.Envelope.Message(RequestPresentationMsgTypeV2, r.Body)
}

// Challenge returns the challenge of the request attachment.
func (r *RequestPresentationV2) Challenge() string {
	return RequestOptions(r.Attachments).Challenge
}

// Domain returns the domain of the request attachment.
func (r *RequestPresentationV2) Domain() string {
	return RequestOptions(r.Attachments).Domain
}

// RequestPresentationV3Body is the body of a 3.0 request-presentation.
type RequestPresentationV3Body struct {
	GoalCode    string `json:"goal_code,omitempty"`
	Comment     string `json:"comment,omitempty"`
	WillConfirm bool   `json:"will_confirm,omitempty"`
}

// RequestPresentationV3 is the 3.0 request-presentation.
type RequestPresentationV3 struct {
	protocol.Envelope
	Body RequestPresentationV3Body
}

// FromMessage reads a 3.0 request-presentation.
func (r *RequestPresentationV3) FromMessage(msg *message.Message) error {
	return decode(msg, RequestPresentationMsgTypeV3, &r.Envelope, &r.Body)
}

// Message converts r into a generic message.
func (r *RequestPresentationV3) Message() (*message.Message, error) {
	return r.Envelope.Message(RequestPresentationMsgTypeV3, r.Body)
}

// Challenge returns the challenge of the request attachment.
func (r *RequestPresentationV3) Challenge() string {
	return RequestOptions(r.Attachments).Challenge
}

// Domain returns the domain of the request attachment.
func (r *RequestPresentationV3) Domain() string {
	return RequestOptions(r.Attachments).Domain
}

// PresentationV2Body is the body of a 2.0 presentation.
type PresentationV2Body struct {
	GoalCode string   `json:"goal_code,omitempty"`
	Comment  string   `json:"comment,omitempty"`
	Formats  []Format `json:"formats"`
}

// PresentationV2 is a response to a RequestPresentationV2 message and contains signed presentations.
type PresentationV2 struct {
	protocol.Envelope
	Body PresentationV2Body
}

// FromMessage reads a 2.0 presentation.
func (p *PresentationV2) FromMessage(msg *message.Message) error {
	return decode(msg, PresentationMsgTypeV2, &p.Envelope, &p.Body)
}

// Message converts p into a generic message.
func (p *PresentationV2) Message() (*message.Message, error) {
	return p.Envelope.Message(PresentationMsgTypeV2, p.Body)
}

// PresentationV3Body is the body of a 3.0 presentation.
type PresentationV3Body struct {
	GoalCode string `json:"goal_code,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// PresentationV3 is the 3.0 presentation.
type PresentationV3 struct {
	protocol.Envelope
	Body PresentationV3Body
}

// FromMessage reads a 3.0 presentation.
func (p *PresentationV3) FromMessage(msg *message.Message) error {
	return decode(msg, PresentationMsgTypeV3, &p.Envelope, &p.Body)
}

// Message converts p into a generic message.
func (p *PresentationV3) Message() (*message.Message, error) {
	return p.Envelope.Message(PresentationMsgTypeV3, p.Body)
}

// Options is the options member of a request attachment.
type Options struct {
	Challenge string `json:"challenge,omitempty"`
	Domain    string `json:"domain,omitempty"`
}

type requestPayload struct {
	Options   *Options `json:"options,omitempty"`
	Challenge string   `json:"challenge,omitempty"`
	Domain    string   `json:"domain,omitempty"`
}

// RequestOptions reads options.challenge / options.domain of the first decodable
// attachment, falling back to top level challenge / domain.
func RequestOptions(attachments []message.Attachment) Options {
	for i := range attachments {
		data, err := attachments[i].Bytes()
		if err != nil {
			continue
		}

		var p requestPayload
		if err = json.Unmarshal(data, &p); err != nil {
			continue
		}

		o := Options{Challenge: p.Challenge, Domain: p.Domain}

		if p.Options != nil {
			if p.Options.Challenge != "" {
				o.Challenge = p.Options.Challenge
			}

			if p.Options.Domain != "" {
				o.Domain = p.Options.Domain
			}
		}

		return o
	}

	return Options{}
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
