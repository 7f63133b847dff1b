/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/presexch"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// Errors of the credential domain. The codes live in the verifiable package so the format packages
// can return them too.
var (
	ErrInvalidCredential                = verifiable.ErrInvalidCredential
	ErrInvalidJWTCredential             = verifiable.ErrInvalidJWTCredential
	ErrInvalidJWTPresentation           = verifiable.ErrInvalidJWTPresentation
	ErrUnsupportedCredentialFormat      = verifiable.ErrUnsupportedCredentialFormat
	ErrMissingAndIsRequiredForOperation = verifiable.ErrMissingAndIsRequiredForOperation
	ErrCannotVerifyPresentationInputs   = verifiable.ErrCannotVerifyPresentationInputs
	ErrCannotVerifyCredential           = verifiable.ErrCannotVerifyCredential
	ErrCredentialRevoked                = verifiable.ErrCredentialRevoked
	ErrCredentialSuspended              = verifiable.ErrCredentialSuspended
	ErrCredentialExpired                = verifiable.ErrCredentialExpired
	ErrInvalidChallenge                 = verifiable.ErrInvalidChallenge
	ErrMissingCredentialMetadata        = verifiable.ErrMissingCredentialMetadata
	ErrMissingClaim                     = verifiable.ErrMissingClaim
	ErrInvalidPresentationDefinition    = verifiable.ErrInvalidPresentationDefinition
	ErrInvalidPresentationSubmission    = verifiable.ErrInvalidPresentationSubmission
	ErrInvalidStatusList                = verifiable.ErrInvalidStatusList
	ErrInvalidAttachment                = verifiable.ErrInvalidAttachment
)

// MissingClaimError lists the claim paths a credential could not satisfy.
type MissingClaimError = presexch.MissingClaimError
