/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/issuecredential"
)

// Format is the family an attachment format string belongs to.
type Format int

// Attachment format families.
const (
	FormatUnknown Format = iota
	FormatJWT
	FormatSDJWT
	FormatAnonCreds
	FormatPresentationExchange
)

// Attachment format identifiers.
const (
	JWTFormat      = "jwt"
	PrismJWTFormat = "prism/jwt"
	SDJWTFormat    = "vc+sd-jwt"

	AnonCredsCredentialFormat   = "anoncreds/credential@v1.0"
	AnonCredsOfferFormat        = "anoncreds/credential-offer@v1.0"
	AnonCredsRequestFormat      = "anoncreds/credential-request@v1.0"
	AnonCredsProofRequestFormat = "anoncreds/proof-request@v1.0"
	AnonCredsProofFormat        = "anoncreds/proof@v1.0"

	DefinitionFormat = "dif/presentation-exchange/definitions@v1.0"
	SubmissionFormat = "dif/presentation-exchange/submission@v1.0"
)

func (f Format) String() string {
	switch f {
	case FormatJWT:
		return "jwt"
	case FormatSDJWT:
		return "sd-jwt"
	case FormatAnonCreds:
		return "anoncreds"
	case FormatPresentationExchange:
		return "presentation-exchange"
	default:
		return "unknown"
	}
}

// ParseFormat maps an attachment format identifier to its family.
func ParseFormat(s string) (Format, error) {
	switch s {
	case JWTFormat, PrismJWTFormat:
		return FormatJWT, nil
	case SDJWTFormat:
		return FormatSDJWT, nil
	case AnonCredsCredentialFormat, AnonCredsOfferFormat, AnonCredsRequestFormat,
		AnonCredsProofRequestFormat, AnonCredsProofFormat:
		return FormatAnonCreds, nil
	case DefinitionFormat, SubmissionFormat:
		return FormatPresentationExchange, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedCredentialFormat, s)
	}
}

type formatsBody struct {
	Formats []issuecredential.Format `json:"formats"`
}

// attachmentOf returns the first attachment of msg whose format is supported along with its format
// identifier. 2.0 messages name formats in the body, 3.0 messages on the attachment.
func attachmentOf(msg *message.Message) (*message.Attachment, string, error) {
	if msg == nil {
		return nil, "", fmt.Errorf("%w: no message", ErrInvalidAttachment)
	}

	var body formatsBody
	if len(msg.Body) != 0 {
		if err := msg.DecodeBody(&body); err != nil {
			logger.Debugf("message %s body has no formats: %v", msg.ID, err)
		}
	}

	var lastErr error

	for i := range msg.Attachments {
		a := &msg.Attachments[i]
		id := issuecredential.FormatOf(body.Formats, a)

		if _, err := ParseFormat(id); err != nil {
			lastErr = err

			continue
		}

		return a, id, nil
	}

	if lastErr != nil {
		return nil, "", lastErr
	}

	return nil, "", fmt.Errorf("%w: message %s has no credential attachment", ErrInvalidAttachment, msg.ID)
}
