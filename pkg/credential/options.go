/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"fmt"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/downloader"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
)

// Options is the per call bag of the engine operations. Each format reads the members it needs and
// fails with ErrMissingAndIsRequiredForOperation when one is absent.
type Options struct {
	// Subject is the DID that requests or presents; it becomes iss of JWT proofs.
	Subject string
	// KeyID is the kid header of JWT proofs, usually a verification method of Subject.
	KeyID string
	// Signer signs JWT proofs.
	Signer keys.Signer
	// LinkSecret binds AnonCreds requests and proofs.
	LinkSecret *anoncreds.LinkSecret
	// Request is the request attachment a presentation answers, used on the verifier side.
	Request *message.Attachment
	// Claims are enforced when presenting and become the definition when requesting.
	Claims ClaimFilters
	// Challenge and Domain bind a presentation request; a random challenge is used when empty.
	Challenge string
	Domain    string
	// ThreadID overrides the thread of the message for AnonCreds metadata.
	ThreadID string
}

func missingOption(name string, format Format) error {
	return fmt.Errorf("%w: %s for %s", ErrMissingAndIsRequiredForOperation, name, format)
}

// Opt configures an Engine.
type Opt func(e *Engine)

// WithResolver sets the DID resolver used to find issuer and holder keys.
func WithResolver(r vdr.Resolver) Opt {
	return func(e *Engine) {
		e.resolver = r
	}
}

// WithDownloader sets the downloader of status lists, schemas and credential definitions.
func WithDownloader(d downloader.Downloader) Opt {
	return func(e *Engine) {
		e.downloader = d
	}
}

// WithAnonCreds enables the AnonCreds format.
func WithAnonCreds(prover anoncreds.Prover, verifier anoncreds.Verifier, metadata anoncreds.MetadataStore) Opt {
	return func(e *Engine) {
		e.prover = prover
		e.verifier = verifier
		e.metadata = metadata
	}
}

// WithMetadataTTL sets how long AnonCreds request metadata is kept for a thread.
func WithMetadataTTL(ttl time.Duration) Opt {
	return func(e *Engine) {
		e.metadataTTL = ttl
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Opt {
	return func(e *Engine) {
		e.now = now
	}
}
