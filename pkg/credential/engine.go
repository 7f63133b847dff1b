/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package credential turns credential protocol messages into credentials and presentations. It hides
// the differences between JWT, SD-JWT, AnonCreds and Presentation Exchange behind one Engine.
package credential

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/downloader"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/keyedmutex"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/presentproof"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/sdjwt"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr"
)

var logger = log.New("edge-agent/credential")

const defaultMetadataTTL = 24 * time.Hour

// RestorationIDs lists the restoration ids ImportCredential accepts.
var RestorationIDs = []string{ //nolint:gochecknoglobals
	verifiable.JWTRestorationID,
	verifiable.SDJWTRestorationID,
	verifiable.AnonCredsRestorationID,
	verifiable.W3CRestorationID,
}

// Engine implements the credential operations of holders and verifiers.
type Engine struct {
	resolver    vdr.Resolver
	downloader  downloader.Downloader
	prover      anoncreds.Prover
	verifier    anoncreds.Verifier
	metadata    anoncreds.MetadataStore
	metadataTTL time.Duration
	threads     *keyedmutex.Mutex
	now         func() time.Time
}

// New returns an Engine.
func New(opts ...Opt) *Engine {
	e := &Engine{
		metadataTTL: defaultMetadataTTL,
		threads:     keyedmutex.New(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ParseCredential reads the credential attached to an issue-credential message.
func (e *Engine) ParseCredential(ctx context.Context, issue *message.Message,
	opts Options) (verifiable.Credential, error) {
	a, id, err := attachmentOf(issue)
	if err != nil {
		return nil, err
	}

	data, err := a.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	format, err := ParseFormat(id)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJWT:
		return verifiable.ParseJWTCredential(strings.TrimSpace(string(data)))
	case FormatSDJWT:
		return sdjwt.Parse(strings.TrimSpace(string(data)), nil)
	case FormatAnonCreds:
		return e.parseAnonCredential(ctx, threadOf(issue, opts), data, opts)
	default:
		return nil, fmt.Errorf("%w: %s cannot carry an issued credential", ErrUnsupportedCredentialFormat, id)
	}
}

// ProcessCredentialRequest answers an offer-credential message with the request attachment.
func (e *Engine) ProcessCredentialRequest(ctx context.Context, offer *message.Message,
	opts Options) (*message.Attachment, error) {
	a, id, err := attachmentOf(offer)
	if err != nil {
		return nil, err
	}

	format, err := ParseFormat(id)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJWT, FormatSDJWT:
		return e.jwtCredentialRequest(a, id, format, opts)
	case FormatAnonCreds:
		return e.anonCredentialRequest(ctx, threadOf(offer, opts), a, opts)
	default:
		return nil, fmt.Errorf("%w: %s cannot carry an offer", ErrUnsupportedCredentialFormat, id)
	}
}

// jwtCredentialRequest proves control of the subject DID with a JWT bound to the offer challenge.
func (e *Engine) jwtCredentialRequest(offer *message.Attachment, id string, format Format,
	opts Options) (*message.Attachment, error) {
	if opts.Subject == "" {
		return nil, missingOption("subject DID", format)
	}

	if opts.Signer == nil {
		return nil, missingOption("signer", format)
	}

	o := presentproof.RequestOptions([]message.Attachment{*offer})

	vp, err := verifiable.NewJWTPresentation(opts.Subject, opts.KeyID, opts.Signer, nil,
		verifiable.WithNonce(o.Challenge), verifiable.WithAudience(o.Domain))
	if err != nil {
		return nil, err
	}

	a := message.NewBase64Attachment("", "application/jwt", id, []byte(vp.Serialize()))

	return &a, nil
}

// ImportCredential restores a credential persisted with StorableData.
func (e *Engine) ImportCredential(data []byte, restorationID string, _ Options) (verifiable.Credential, error) {
	switch restorationID {
	case verifiable.JWTRestorationID:
		return verifiable.ParseJWTCredential(string(data))
	case verifiable.SDJWTRestorationID:
		return sdjwt.Parse(string(data), nil)
	case verifiable.AnonCredsRestorationID:
		return anoncreds.ParseCredentialStack(data)
	case verifiable.W3CRestorationID:
		return verifiable.ParseW3CCredential(data)
	default:
		return nil, fmt.Errorf("%w: restoration id %q", ErrUnsupportedCredentialFormat, restorationID)
	}
}

// publicKeysOf resolves the verification keys of the DID in ref. A DID URL is reduced to its DID.
func (e *Engine) publicKeysOf(ctx context.Context, ref string) ([]keys.PublicKey, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: DID resolver", ErrMissingAndIsRequiredForOperation)
	}

	id := ref
	if i := strings.IndexAny(id, "#?/"); i > 0 && strings.HasPrefix(id, "did:") {
		id = id[:i]
	}

	doc, err := e.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	vms := doc.VerificationMethods()

	var pubs []keys.PublicKey

	for i := range vms {
		pub, err := vms[i].PublicKey()
		if err != nil {
			logger.Debugf("skip verification method %s: %v", vms[i].ID.String(), err)

			continue
		}

		pubs = append(pubs, pub)
	}

	if len(pubs) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable verification method", did.ErrInvalidDIDDocument, id)
	}

	return pubs, nil
}

func threadOf(msg *message.Message, opts Options) string {
	if opts.ThreadID != "" {
		return opts.ThreadID
	}

	return msg.ThreadID()
}
