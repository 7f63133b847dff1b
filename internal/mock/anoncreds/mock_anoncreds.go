/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package anoncreds

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// MockProver mock implementation of anoncreds.Prover. Proofs are the revealed values in the clear.
type MockProver struct {
	RequestErr      error
	ProcessErr      error
	PresentationErr error
}

// CreateCredentialRequest returns a request echoing the offer nonce.
func (m *MockProver) CreateCredentialRequest(offer *anoncreds.CredentialOffer, def *anoncreds.CredentialDefinition,
	linkSecret *anoncreds.LinkSecret, entropy string) (*anoncreds.CredentialRequest,
	*anoncreds.CredentialRequestMetadata, error) {
	if m.RequestErr != nil {
		return nil, nil, m.RequestErr
	}

	if def == nil || linkSecret == nil {
		return nil, nil, errors.New("missing definition or link secret")
	}

	blinded, err := json.Marshal(linkSecret.ID)
	if err != nil {
		return nil, nil, err
	}

	return &anoncreds.CredentialRequest{
			Entropy:                   entropy,
			CredDefID:                 offer.CredDefID,
			BlindedMS:                 blinded,
			BlindedMSCorrectnessProof: json.RawMessage(`{}`),
			Nonce:                     offer.Nonce,
		}, &anoncreds.CredentialRequestMetadata{
			LinkSecretBlindingData: json.RawMessage(`{}`),
			Nonce:                  offer.Nonce,
			LinkSecretName:         linkSecret.ID,
		}, nil
}

// ProcessCredential returns cred unchanged.
func (m *MockProver) ProcessCredential(cred *anoncreds.Credential, metadata *anoncreds.CredentialRequestMetadata,
	linkSecret *anoncreds.LinkSecret, _ *anoncreds.CredentialDefinition) (*anoncreds.Credential, error) {
	if m.ProcessErr != nil {
		return nil, m.ProcessErr
	}

	if metadata.LinkSecretName != linkSecret.ID {
		return nil, errors.New("credential requested with another link secret")
	}

	return cred, nil
}

type requestedProof struct {
	Nonce      string            `json:"nonce"`
	Revealed   map[string]string `json:"revealed_attrs"`
	Predicates []string          `json:"predicates"`
}

// CreatePresentation reveals the selected attributes in the clear.
func (m *MockProver) CreatePresentation(request *anoncreds.PresentationRequest, cred *anoncreds.CredentialStack,
	selected *anoncreds.RequestedCredentials, _ *anoncreds.LinkSecret) (*anoncreds.Presentation, error) {
	if m.PresentationErr != nil {
		return nil, m.PresentationErr
	}

	proof := requestedProof{Nonce: request.Nonce, Revealed: map[string]string{}, Predicates: selected.Predicates}

	for referent := range selected.Attributes {
		proof.Revealed[referent] = cred.Credential.Values[request.RequestedAttributes[referent].Name].Raw
	}

	raw, err := json.Marshal(proof)
	if err != nil {
		return nil, err
	}

	return &anoncreds.Presentation{
		Proof:          json.RawMessage(`{}`),
		RequestedProof: raw,
		Identifiers:    []anoncreds.Identifier{{SchemaID: cred.Credential.SchemaID, CredDefID: cred.Credential.CredDefID}},
	}, nil
}

// MockVerifier mock implementation of anoncreds.Verifier.
type MockVerifier struct {
	VerifyErr error
}

// VerifyPresentation accepts proofs of MockProver that answer every referent of request.
func (m *MockVerifier) VerifyPresentation(p *anoncreds.Presentation, request *anoncreds.PresentationRequest,
	schemas map[string]*anoncreds.Schema, defs map[string]*anoncreds.CredentialDefinition) (bool, error) {
	if m.VerifyErr != nil {
		return false, m.VerifyErr
	}

	for _, id := range p.Identifiers {
		if schemas[id.SchemaID] == nil || defs[id.CredDefID] == nil {
			return false, errors.New("unknown schema or credential definition")
		}
	}

	var proof requestedProof

	if err := json.Unmarshal(p.RequestedProof, &proof); err != nil {
		return false, err
	}

	if proof.Nonce != request.Nonce {
		return false, nil
	}

	return len(proof.Revealed) == len(request.RequestedAttributes) &&
		len(proof.Predicates) == len(request.RequestedPredicates), nil
}

// MockMetadataStore in memory anoncreds.MetadataStore.
type MockMetadataStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

type entry struct {
	md      *anoncreds.CredentialRequestMetadata
	created time.Time
}

// PutRequestMetadata stores md under threadID.
func (m *MockMetadataStore) PutRequestMetadata(_ context.Context, threadID string,
	md *anoncreds.CredentialRequestMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.entries == nil {
		m.entries = map[string]entry{}
	}

	m.entries[threadID] = entry{md: md, created: time.Now()}

	return nil
}

// GetRequestMetadata returns the metadata of threadID.
func (m *MockMetadataStore) GetRequestMetadata(_ context.Context,
	threadID string) (*anoncreds.CredentialRequestMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[threadID]
	if !ok {
		return nil, verifiable.ErrMissingCredentialMetadata
	}

	return e.md, nil
}

// DeleteRequestMetadata removes the metadata of threadID.
func (m *MockMetadataStore) DeleteRequestMetadata(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, threadID)

	return nil
}

// DeleteStale removes entries created before olderThan.
func (m *MockMetadataStore) DeleteStale(_ context.Context, olderThan time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0

	for id, e := range m.entries {
		if e.created.Before(olderThan) {
			delete(m.entries, id)
			n++
		}
	}

	return n, nil
}
