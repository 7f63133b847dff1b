/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

import (
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

const (
	// states for Issuer
	stateNameProposalReceived = "proposal-received"
	stateNameOfferSent        = "offer-sent"
	stateNameRequestReceived  = "request-received"
	stateNameCredentialIssued = "credential-issued"

	// states for Holder
	stateNameProposalSent       = "proposal-sent"
	stateNameOfferReceived      = "offer-received"
	stateNameRequestSent        = "request-sent"
	stateNameCredentialReceived = "credential-received"
)

var transitions = protocol.Transitions{
	protocol.StateNameStart: {
		stateNameProposalSent, stateNameProposalReceived,
		stateNameOfferSent, stateNameOfferReceived,
		stateNameRequestSent, stateNameRequestReceived,
	},
	stateNameProposalSent:       {stateNameOfferReceived, protocol.StateNameAbandoning},
	stateNameProposalReceived:   {stateNameOfferSent, protocol.StateNameAbandoning},
	stateNameOfferSent:          {stateNameRequestReceived, stateNameProposalReceived, protocol.StateNameAbandoning},
	stateNameOfferReceived:      {stateNameRequestSent, stateNameProposalSent, protocol.StateNameAbandoning},
	stateNameRequestSent:        {stateNameCredentialReceived, protocol.StateNameAbandoning},
	stateNameRequestReceived:    {stateNameCredentialIssued, protocol.StateNameAbandoning},
	stateNameCredentialIssued:   {protocol.StateNameDone, protocol.StateNameAbandoning},
	stateNameCredentialReceived: {protocol.StateNameDone, protocol.StateNameAbandoning},
	protocol.StateNameAbandoning: {protocol.StateNameDone},
}

// stateFor names the state a message of piuri moves a thread into.
func stateFor(piuri string, outbound bool) (string, bool) {
	pick := func(sent, received string) string {
		if outbound {
			return sent
		}

		return received
	}

	switch piuri {
	case ProposeCredentialMsgTypeV2, ProposeCredentialMsgTypeV3:
		return pick(stateNameProposalSent, stateNameProposalReceived), true
	case OfferCredentialMsgTypeV2, OfferCredentialMsgTypeV3:
		return pick(stateNameOfferSent, stateNameOfferReceived), true
	case RequestCredentialMsgTypeV2, RequestCredentialMsgTypeV3:
		return pick(stateNameRequestSent, stateNameRequestReceived), true
	case IssueCredentialMsgTypeV2, IssueCredentialMsgTypeV3:
		return pick(stateNameCredentialIssued, stateNameCredentialReceived), true
	case AckMsgTypeV2, AckMsgTypeV3:
		return protocol.StateNameDone, true
	case ProblemReportMsgTypeV2, ProblemReportMsgTypeV3:
		return protocol.StateNameAbandoning, true
	default:
		return "", false
	}
}

// NextState returns the state a thread in current moves to on a message of piuri.
// outbound is true when this agent sends the message.
func NextState(current, piuri string, outbound bool) (string, error) {
	next, ok := stateFor(piuri, outbound)
	if !ok {
		return "", fmt.Errorf("%w: %q is not an %s message", protocol.ErrInvalidMessageType, piuri, Name)
	}

	if err := transitions.Check(current, next); err != nil {
		return "", err
	}

	return next, nil
}
