/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package credential

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
)

// nonces are 80 bit decimal strings.
const nonceBits = 80

func (e *Engine) requireAnonCreds() error {
	if e.prover == nil || e.verifier == nil || e.metadata == nil {
		return missingOption("prover, verifier and metadata store", FormatAnonCreds)
	}

	if e.downloader == nil {
		return missingOption("downloader", FormatAnonCreds)
	}

	return nil
}

// anonCredentialRequest blinds the link secret for the offered definition and keeps the request
// metadata under the thread until the credential is issued.
func (e *Engine) anonCredentialRequest(ctx context.Context, thread string, a *message.Attachment,
	opts Options) (*message.Attachment, error) {
	if err := e.requireAnonCreds(); err != nil {
		return nil, err
	}

	if opts.LinkSecret == nil {
		return nil, missingOption("link secret", FormatAnonCreds)
	}

	offer := &anoncreds.CredentialOffer{}
	if err := decodeAttachment(a, offer); err != nil {
		return nil, err
	}

	def := &anoncreds.CredentialDefinition{}
	if err := e.downloadJSON(ctx, offer.CredDefID, def); err != nil {
		return nil, err
	}

	var out *message.Attachment

	err := e.threads.With(thread, func() error {
		req, md, err := e.prover.CreateCredentialRequest(offer, def, opts.LinkSecret, opts.Subject)
		if err != nil {
			return fmt.Errorf("create credential request: %w", err)
		}

		if err = e.metadata.PutRequestMetadata(ctx, thread, md); err != nil {
			return fmt.Errorf("store request metadata: %w", err)
		}

		attachment, err := message.NewJSONAttachment("", AnonCredsRequestFormat, req)
		if err != nil {
			return err
		}

		out = &attachment

		return nil
	})

	e.dropStaleMetadata(ctx)

	return out, err
}

// parseAnonCredential unblinds an issued credential with the metadata of its thread. The metadata is
// deleted once the credential is accepted.
func (e *Engine) parseAnonCredential(ctx context.Context, thread string, data []byte,
	opts Options) (*anoncreds.CredentialStack, error) {
	if err := e.requireAnonCreds(); err != nil {
		return nil, err
	}

	if opts.LinkSecret == nil {
		return nil, missingOption("link secret", FormatAnonCreds)
	}

	cred := &anoncreds.Credential{}
	if err := json.Unmarshal(data, cred); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	stack := &anoncreds.CredentialStack{Schema: &anoncreds.Schema{}, Definition: &anoncreds.CredentialDefinition{}}

	if err := e.downloadJSON(ctx, cred.SchemaID, stack.Schema); err != nil {
		return nil, err
	}

	if err := e.downloadJSON(ctx, cred.CredDefID, stack.Definition); err != nil {
		return nil, err
	}

	err := e.threads.With(thread, func() error {
		md, err := e.metadata.GetRequestMetadata(ctx, thread)
		if err != nil {
			if errors.Is(err, ErrMissingCredentialMetadata) {
				return err
			}

			return fmt.Errorf("%w: thread %s: %v", ErrMissingCredentialMetadata, thread, err)
		}

		processed, err := e.prover.ProcessCredential(cred, md, opts.LinkSecret, stack.Definition)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
		}

		stack.Credential = processed

		if err = e.metadata.DeleteRequestMetadata(ctx, thread); err != nil {
			logger.Warnf("delete request metadata of thread %s: %v", thread, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stack, nil
}

func (e *Engine) dropStaleMetadata(ctx context.Context) {
	n, err := e.metadata.DeleteStale(ctx, e.now().Add(-e.metadataTTL))
	if err != nil {
		logger.Warnf("drop stale request metadata: %v", err)

		return
	}

	if n > 0 {
		logger.Debugf("dropped %d stale request metadata entries", n)
	}
}

func (e *Engine) anonPresentationRequest(claims ClaimFilters, opts Options) (*message.Attachment, error) {
	nonce := opts.Challenge
	if nonce == "" {
		var err error

		if nonce, err = newNonce(); err != nil {
			return nil, err
		}
	}

	req := claims.AnonCredsRequest("proof-request", nonce)

	a, err := message.NewJSONAttachment("", AnonCredsProofRequestFormat, req)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (e *Engine) anonPresentation(request *message.Attachment, cred *anoncreds.CredentialStack,
	opts Options) (*message.Attachment, error) {
	if e.prover == nil {
		return nil, missingOption("prover", FormatAnonCreds)
	}

	if opts.LinkSecret == nil {
		return nil, missingOption("link secret", FormatAnonCreds)
	}

	req := &anoncreds.PresentationRequest{}
	if err := decodeAttachment(request, req); err != nil {
		return nil, err
	}

	selected, err := anoncreds.Select(req, cred)
	if err != nil {
		return nil, err
	}

	proof, err := e.prover.CreatePresentation(req, cred, selected, opts.LinkSecret)
	if err != nil {
		return nil, fmt.Errorf("create anoncreds presentation: %w", err)
	}

	a, err := message.NewJSONAttachment("", AnonCredsProofFormat, proof)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (e *Engine) verifyAnonPresentation(ctx context.Context, presentation *message.Attachment,
	opts Options) (bool, error) {
	if err := e.requireAnonCreds(); err != nil {
		return false, err
	}

	if opts.Request == nil {
		return false, missingOption("request", FormatAnonCreds)
	}

	req := &anoncreds.PresentationRequest{}
	if err := decodeAttachment(opts.Request, req); err != nil {
		return false, err
	}

	proof := &anoncreds.Presentation{}
	if err := decodeAttachment(presentation, proof); err != nil {
		return false, err
	}

	schemas := map[string]*anoncreds.Schema{}
	defs := map[string]*anoncreds.CredentialDefinition{}

	var errs []error

	for _, id := range proof.Identifiers {
		schema := &anoncreds.Schema{}
		if err := e.downloadJSON(ctx, id.SchemaID, schema); err != nil {
			errs = append(errs, err)
		} else {
			schemas[id.SchemaID] = schema
		}

		def := &anoncreds.CredentialDefinition{}
		if err := e.downloadJSON(ctx, id.CredDefID, def); err != nil {
			errs = append(errs, err)
		} else {
			defs[id.CredDefID] = def
		}
	}

	if len(errs) != 0 {
		return false, aggregate(errs)
	}

	ok, err := e.verifier.VerifyPresentation(proof, req, schemas, defs)
	if err != nil {
		return false, aggregate([]error{err})
	}

	if !ok {
		return false, aggregate([]error{fmt.Errorf("%w: anoncreds proof rejected", ErrCannotVerifyCredential)})
	}

	return true, nil
}

func (e *Engine) downloadJSON(ctx context.Context, url string, v interface{}) error {
	if e.downloader == nil {
		return fmt.Errorf("%w: downloader", ErrMissingAndIsRequiredForOperation)
	}

	data, err := e.downloader.Download(ctx, url)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}

	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}

	return nil
}

func decodeAttachment(a *message.Attachment, v interface{}) error {
	data, err := a.Bytes()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: attachment %s: %v", ErrInvalidAttachment, a.ID, err)
	}

	return nil
}

func newNonce() (string, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), nonceBits))
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	return n.String(), nil
}
