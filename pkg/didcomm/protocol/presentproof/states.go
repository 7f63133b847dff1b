/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

import (
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

const (
	// states for Verifier.
	stateNameRequestSent          = "request-sent"
	stateNamePresentationReceived = "presentation-received"
	stateNameProposalReceived     = "proposal-received"

	// states for Prover.
	stateNameRequestReceived  = "request-received"
	stateNamePresentationSent = "presentation-sent"
	stateNameProposalSent     = "proposal-sent"
)

var transitions = protocol.Transitions{
	protocol.StateNameStart: {
		stateNameRequestSent, stateNameRequestReceived,
		stateNameProposalSent, stateNameProposalReceived,
	},
	stateNameRequestSent: {
		stateNamePresentationReceived, stateNameProposalReceived, protocol.StateNameAbandoning,
	},
	stateNameRequestReceived: {
		stateNamePresentationSent, stateNameProposalSent, protocol.StateNameAbandoning,
	},
	stateNameProposalSent:         {stateNameRequestReceived, protocol.StateNameAbandoning},
	stateNameProposalReceived:     {stateNameRequestSent, protocol.StateNameAbandoning},
	stateNamePresentationSent:     {protocol.StateNameDone, protocol.StateNameAbandoning},
	stateNamePresentationReceived: {protocol.StateNameDone, protocol.StateNameAbandoning},
	protocol.StateNameAbandoning:  {protocol.StateNameDone},
}

func stateFor(piuri string, outbound bool) (string, bool) {
	pick := func(sent, received string) string {
		if outbound {
			return sent
		}

		return received
	}

	switch piuri {
	case ProposePresentationMsgTypeV2, ProposePresentationMsgTypeV3:
		return pick(stateNameProposalSent, stateNameProposalReceived), true
	case RequestPresentationMsgTypeV2, RequestPresentationMsgTypeV3:
		return pick(stateNameRequestSent, stateNameRequestReceived), true
	case PresentationMsgTypeV2, PresentationMsgTypeV3:
		return pick(stateNamePresentationSent, stateNamePresentationReceived), true
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
		return "", fmt.Errorf("%w: %q is not a %s message", protocol.ErrInvalidMessageType, piuri, Name)
	}

	if err := transitions.Check(current, next); err != nil {
		return "", err
	}

	return next, nil
}
