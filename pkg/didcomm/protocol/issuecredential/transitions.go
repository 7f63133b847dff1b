/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

// OfferV2FromProposal answers a 2.0 proposal with an offer of the proposed preview.
func OfferV2FromProposal(p *ProposeCredentialV2) *OfferCredentialV2 {
	return &OfferCredentialV2{
		Envelope: p.Reply(""),
		Body: OfferCredentialV2Body{
			GoalCode:          p.Body.GoalCode,
			Comment:           p.Body.Comment,
			CredentialPreview: p.Body.CredentialPreview,
			Formats:           append([]Format(nil), p.Body.Formats...),
		},
	}
}

// OfferV3FromProposal answers a 3.0 proposal with an offer of the proposed preview.
func OfferV3FromProposal(p *ProposeCredentialV3) *OfferCredentialV3 {
	return &OfferCredentialV3{
		Envelope: p.Reply(""),
		Body: OfferCredentialV3Body{
			GoalCode:          p.Body.GoalCode,
			Comment:           p.Body.Comment,
			CredentialPreview: p.Body.CredentialPreview,
		},
	}
}

// RequestV2FromOffer answers a 2.0 offer. The thread of the offer is kept.
func RequestV2FromOffer(o *OfferCredentialV2) *RequestCredentialV2 {
	return &RequestCredentialV2{
		Envelope: o.Reply(""),
		Body: RequestCredentialV2Body{
			GoalCode: o.Body.GoalCode,
			Comment:  o.Body.Comment,
			Formats:  append([]Format(nil), o.Body.Formats...),
		},
	}
}

// RequestV3FromOffer answers a 3.0 offer. The thread of the offer is kept.
func RequestV3FromOffer(o *OfferCredentialV3) *RequestCredentialV3 {
	return &RequestCredentialV3{
		Envelope: o.Reply(""),
		Body:     RequestCredentialV3Body{GoalCode: o.Body.GoalCode, Comment: o.Body.Comment},
	}
}

// IssueV2FromRequest answers a 2.0 request.
func IssueV2FromRequest(r *RequestCredentialV2) *IssueCredentialV2 {
	return &IssueCredentialV2{
		Envelope: r.Reply(""),
		Body: IssueCredentialV2Body{
			GoalCode: r.Body.GoalCode,
			Comment:  r.Body.Comment,
			Formats:  append([]Format(nil), r.Body.Formats...),
		},
	}
}

// IssueV3FromRequest answers a 3.0 request.
func IssueV3FromRequest(r *RequestCredentialV3) *IssueCredentialV3 {
	return &IssueCredentialV3{
		Envelope: r.Reply(""),
		Body:     IssueCredentialV3Body{GoalCode: r.Body.GoalCode, Comment: r.Body.Comment},
	}
}

// MakeOfferFromProposal maps a propose-credential of either family to an offer of the same family.
func MakeOfferFromProposal(msg *message.Message) (*message.Message, error) {
	switch msg.PIURI {
	case ProposeCredentialMsgTypeV2:
		p := &ProposeCredentialV2{}
		if err := p.FromMessage(msg); err != nil {
			return nil, err
		}

		return OfferV2FromProposal(p).Message()
	case ProposeCredentialMsgTypeV3:
		p := &ProposeCredentialV3{}
		if err := p.FromMessage(msg); err != nil {
			return nil, err
		}

		return OfferV3FromProposal(p).Message()
	default:
		return nil, protocol.CheckType(msg.PIURI, ProposeCredentialMsgTypeV2, ProposeCredentialMsgTypeV3)
	}
}

// MakeRequestFromOffer maps an offer-credential of either family to a request of the same family.
func MakeRequestFromOffer(msg *message.Message) (*message.Message, error) {
	switch msg.PIURI {
	case OfferCredentialMsgTypeV2:
		o := &OfferCredentialV2{}
		if err := o.FromMessage(msg); err != nil {
			return nil, err
		}

		return RequestV2FromOffer(o).Message()
	case OfferCredentialMsgTypeV3:
		o := &OfferCredentialV3{}
		if err := o.FromMessage(msg); err != nil {
			return nil, err
		}

		return RequestV3FromOffer(o).Message()
	default:
		return nil, protocol.CheckType(msg.PIURI, OfferCredentialMsgTypeV2, OfferCredentialMsgTypeV3)
	}
}

// MakeIssueFromRequest maps a request-credential of either family to an issue of the same family.
func MakeIssueFromRequest(msg *message.Message) (*message.Message, error) {
	switch msg.PIURI {
	case RequestCredentialMsgTypeV2:
		r := &RequestCredentialV2{}
		if err := r.FromMessage(msg); err != nil {
			return nil, err
		}

		return IssueV2FromRequest(r).Message()
	case RequestCredentialMsgTypeV3:
		r := &RequestCredentialV3{}
		if err := r.FromMessage(msg); err != nil {
			return nil, err
		}

		return IssueV3FromRequest(r).Message()
	default:
		return nil, protocol.CheckType(msg.PIURI, RequestCredentialMsgTypeV2, RequestCredentialMsgTypeV3)
	}
}
