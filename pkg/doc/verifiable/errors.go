/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import "github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"

// Error codes of the credential domain.
const (
	InvalidCredential = errcode.Code(iota + errcode.Credential)
	InvalidJWTCredential
	InvalidJWTPresentation
	UnsupportedCredentialFormat
	MissingAndIsRequiredForOperation
	CannotVerifyPresentationInputs
	CannotVerifyCredential
	CredentialRevoked
	CredentialSuspended
	CredentialExpired
	InvalidChallenge
	MissingCredentialMetadata
	MissingClaim
	InvalidPresentationDefinition
	InvalidPresentationSubmission
	InvalidStatusList
	InvalidAttachment
)

var (
	// ErrInvalidCredential is returned for credentials that cannot be decoded.
	ErrInvalidCredential = errcode.New(InvalidCredential, errcode.ValidationError, "invalid credential")
	// ErrInvalidJWTCredential is returned when a JWT does not carry a vc claim.
	ErrInvalidJWTCredential = errcode.New(InvalidJWTCredential, errcode.ValidationError, "invalid JWT credential")
	// ErrInvalidJWTPresentation is returned when a JWT does not carry a vp claim.
	ErrInvalidJWTPresentation = errcode.New(InvalidJWTPresentation, errcode.ValidationError,
		"invalid JWT presentation")
	// ErrUnsupportedCredentialFormat is returned for unknown format identifiers.
	ErrUnsupportedCredentialFormat = errcode.New(UnsupportedCredentialFormat, errcode.ValidationError,
		"unsupported credential format")
	// ErrMissingAndIsRequiredForOperation is returned when a format needs an option the caller did not give.
	ErrMissingAndIsRequiredForOperation = errcode.New(MissingAndIsRequiredForOperation, errcode.ValidationError,
		"missing and is required for operation")
	// ErrCannotVerifyPresentationInputs aggregates the failures of a presentation.
	ErrCannotVerifyPresentationInputs = errcode.New(CannotVerifyPresentationInputs, errcode.ExecuteError,
		"cannot verify presentation inputs")
	// ErrCannotVerifyCredential is returned when no issuer key verifies a credential.
	ErrCannotVerifyCredential = errcode.New(CannotVerifyCredential, errcode.ExecuteError, "cannot verify credential")
	// ErrCredentialRevoked is returned when the status list marks the credential revoked.
	ErrCredentialRevoked = errcode.New(CredentialRevoked, errcode.ExecuteError, "credential revoked")
	// ErrCredentialSuspended is returned when the status list marks the credential suspended.
	ErrCredentialSuspended = errcode.New(CredentialSuspended, errcode.ExecuteError, "credential suspended")
	// ErrCredentialExpired is returned for credentials past their expiration date.
	ErrCredentialExpired = errcode.New(CredentialExpired, errcode.ValidationError, "credential expired")
	// ErrInvalidChallenge is returned when the presentation nonce or domain does not match the request.
	ErrInvalidChallenge = errcode.New(InvalidChallenge, errcode.ValidationError, "invalid challenge")
	// ErrMissingCredentialMetadata is returned when the request metadata of an AnonCreds thread is gone.
	ErrMissingCredentialMetadata = errcode.New(MissingCredentialMetadata, errcode.ExecuteError,
		"missing credential metadata")
	// ErrMissingClaim is the kind of MissingClaimError.
	ErrMissingClaim = errcode.New(MissingClaim, errcode.ValidationError, "credential is missing a required claim")
	// ErrInvalidPresentationDefinition is returned for malformed presentation definitions.
	ErrInvalidPresentationDefinition = errcode.New(InvalidPresentationDefinition, errcode.ValidationError,
		"invalid presentation definition")
	// ErrInvalidPresentationSubmission is returned when a submission does not satisfy its definition.
	ErrInvalidPresentationSubmission = errcode.New(InvalidPresentationSubmission, errcode.ValidationError,
		"invalid presentation submission")
	// ErrInvalidStatusList is returned for undecodable status list credentials.
	ErrInvalidStatusList = errcode.New(InvalidStatusList, errcode.ValidationError, "invalid status list")
	// ErrInvalidAttachment is returned when a protocol message lacks the expected credential attachment.
	ErrInvalidAttachment = errcode.New(InvalidAttachment, errcode.ValidationError, "invalid credential attachment")
)
