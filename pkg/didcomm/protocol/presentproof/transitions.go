/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

// RequestV2FromProposal answers a 2.0 proposal with a request for the proposed formats.
func RequestV2FromProposal(p *ProposePresentationV2) *RequestPresentationV2 {
	return &RequestPresentationV2{
		Envelope: p.Reply(""),
		Body: RequestPresentationV2Body{
			GoalCode: p.Body.GoalCode,
			Comment:  p.Body.Comment,
			Formats:  append([]Format(nil), p.Body.Formats...),
		},
	}
}

// RequestV3FromProposal answers a 3.0 proposal.
func RequestV3FromProposal(p *ProposePresentationV3) *RequestPresentationV3 {
	return &RequestPresentationV3{
		Envelope: p.Reply(""),
		Body:     RequestPresentationV3Body{GoalCode: p.Body.GoalCode, Comment: p.Body.Comment},
	}
}

// PresentationV2FromRequest answers a 2.0 request. Callers replace the attachments
// with the actual presentation.
func PresentationV2FromRequest(r *RequestPresentationV2) *PresentationV2 {
	return &PresentationV2{
		Envelope: r.Reply(""),
		Body: PresentationV2Body{
			GoalCode: r.Body.GoalCode,
			Comment:  r.Body.Comment,
			Formats:  append([]Format(nil), r.Body.Formats...),
		},
	}
}

// PresentationV3FromRequest answers a 3.0 request.
func PresentationV3FromRequest(r *RequestPresentationV3) *PresentationV3 {
	return &PresentationV3{
		Envelope: r.Reply(""),
		Body:     PresentationV3Body{GoalCode: r.Body.GoalCode, Comment: r.Body.Comment},
	}
}

// MakeRequestFromProposal maps a propose-presentation of either family to a request of the same family.
func MakeRequestFromProposal(msg *message.Message) (*message.Message, error) {
	switch msg.PIURI {
	case ProposePresentationMsgTypeV2:
		p := &ProposePresentationV2{}
		if err := p.FromMessage(msg); err != nil {
			return nil, err
		}

		return RequestV2FromProposal(p).Message()
	case ProposePresentationMsgTypeV3:
		p := &ProposePresentationV3{}
		if err := p.FromMessage(msg); err != nil {
			return nil, err
		}

		return RequestV3FromProposal(p).Message()
	default:
		return nil, protocol.CheckType(msg.PIURI, ProposePresentationMsgTypeV2, ProposePresentationMsgTypeV3)
	}
}

// MakePresentationFromRequest maps a request-presentation of either family to a presentation of the same family.
func MakePresentationFromRequest(msg *message.Message) (*message.Message, error) {
	switch msg.PIURI {
	case RequestPresentationMsgTypeV2:
		r := &RequestPresentationV2{}
		if err := r.FromMessage(msg); err != nil {
			return nil, err
		}

		return PresentationV2FromRequest(r).Message()
	case RequestPresentationMsgTypeV3:
		r := &RequestPresentationV3{}
		if err := r.FromMessage(msg); err != nil {
			return nil, err
		}

		return PresentationV3FromRequest(r).Message()
	default:
		return nil, protocol.CheckType(msg.PIURI, RequestPresentationMsgTypeV2, RequestPresentationMsgTypeV3)
	}
}
