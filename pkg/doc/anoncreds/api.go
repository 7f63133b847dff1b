/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncreds holds the AnonCreds data model and the prover and verifier contracts. The zero
// knowledge math lives behind Prover and Verifier implementations supplied by the caller.
package anoncreds

import (
	"context"
	"time"
)

// Prover runs the holder side of the protocol.
type Prover interface {
	// CreateCredentialRequest blinds linkSecret for the offered credential definition.
	CreateCredentialRequest(offer *CredentialOffer, def *CredentialDefinition, linkSecret *LinkSecret,
		entropy string) (*CredentialRequest, *CredentialRequestMetadata, error)
	// ProcessCredential checks the issuer signature and unblinds the credential.
	ProcessCredential(cred *Credential, metadata *CredentialRequestMetadata, linkSecret *LinkSecret,
		def *CredentialDefinition) (*Credential, error)
	// CreatePresentation proves the selected referents of request over cred.
	CreatePresentation(request *PresentationRequest, cred *CredentialStack, selected *RequestedCredentials,
		linkSecret *LinkSecret) (*Presentation, error)
}

// Verifier checks presentations.
type Verifier interface {
	// VerifyPresentation reports whether presentation satisfies request. Schemas and definitions are
	// keyed by their identifiers.
	VerifyPresentation(presentation *Presentation, request *PresentationRequest,
		schemas map[string]*Schema, defs map[string]*CredentialDefinition) (bool, error)
}

// MetadataStore keeps request metadata per protocol thread until the credential arrives.
type MetadataStore interface {
	PutRequestMetadata(ctx context.Context, threadID string, md *CredentialRequestMetadata) error
	// GetRequestMetadata fails with verifiable.ErrMissingCredentialMetadata for unknown threads.
	GetRequestMetadata(ctx context.Context, threadID string) (*CredentialRequestMetadata, error)
	DeleteRequestMetadata(ctx context.Context, threadID string) error
	// DeleteStale removes metadata stored before olderThan and returns how many entries were dropped.
	DeleteStale(ctx context.Context, olderThan time.Time) (int, error)
}
