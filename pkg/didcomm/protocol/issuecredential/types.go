/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package issuecredential

// Issue credential protocol message types.
const (
	// Name defines the protocol name.
	Name = "issue-credential"

	specV2 = "https://didcomm.org/issue-credential/2.0/"
	specV3 = "https://didcomm.org/issue-credential/3.0/"

	ProposeCredentialMsgTypeV2 = specV2 + "propose-credential"
	OfferCredentialMsgTypeV2   = specV2 + "offer-credential"
	RequestCredentialMsgTypeV2 = specV2 + "request-credential"
	IssueCredentialMsgTypeV2   = specV2 + "issue-credential"
	AckMsgTypeV2               = specV2 + "ack"
	ProblemReportMsgTypeV2     = specV2 + "problem-report"

	ProposeCredentialMsgTypeV3 = specV3 + "propose-credential"
	OfferCredentialMsgTypeV3   = specV3 + "offer-credential"
	RequestCredentialMsgTypeV3 = specV3 + "request-credential"
	IssueCredentialMsgTypeV3   = specV3 + "issue-credential"
	AckMsgTypeV3               = specV3 + "ack"
	ProblemReportMsgTypeV3     = specV3 + "problem-report"
)
