/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presentproof

// Present proof protocol message types.
const (
	// Name defines the protocol name.
	Name = "present-proof"

	specV2 = "https://didcomm.org/present-proof/2.0/"
	specV3 = "https://didcomm.org/present-proof/3.0/"

	ProposePresentationMsgTypeV2 = specV2 + "propose-presentation"
	RequestPresentationMsgTypeV2 = specV2 + "request-presentation"
	PresentationMsgTypeV2        = specV2 + "presentation"
	AckMsgTypeV2                 = specV2 + "ack"
	ProblemReportMsgTypeV2       = specV2 + "problem-report"

	ProposePresentationMsgTypeV3 = specV3 + "propose-presentation"
	RequestPresentationMsgTypeV3 = specV3 + "request-presentation"
	PresentationMsgTypeV3        = specV3 + "presentation"
	AckMsgTypeV3                 = specV3 + "ack"
	ProblemReportMsgTypeV3       = specV3 + "problem-report"
)
