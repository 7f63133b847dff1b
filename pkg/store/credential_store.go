/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const (
	credentialTag  = "credential"
	restorationTag = "restoration"
	revokedTag     = "revoked"
)

// CredentialRecord is a stored credential: the opaque data and the id restoring it.
type CredentialRecord struct {
	ID            string `json:"id"`
	RestorationID string `json:"recovery_id"`
	Data          []byte `json:"data"`
	Revoked       bool   `json:"revoked,omitempty"`
	// ThreadID is the issue-credential thread the credential arrived on, when known.
	ThreadID string `json:"thid,omitempty"`
}

// NewCredentialRecord builds the record of cred. Credentials without an id are named by their data.
func NewCredentialRecord(cred verifiable.StorableCredential) CredentialRecord {
	data := cred.StorableData()

	id := cred.ID()
	if id == "" {
		id = CredentialID(cred.RestorationID(), data)
	}

	return CredentialRecord{ID: id, RestorationID: cred.RestorationID(), Data: data}
}

// CredentialID names a credential without an id of its own.
func CredentialID(restorationID string, data []byte) string {
	return digest([]byte(restorationID), data)
}

// StoreCredential saves record. A credential of the same id fails with ErrDuplicateID.
func (p *Pluto) StoreCredential(ctx context.Context, record CredentialRecord) error {
	if record.ID == "" || record.RestorationID == "" || len(record.Data) == 0 {
		return fmt.Errorf("%w: id, restoration id and data", ErrMissingRequiredFields)
	}

	return p.insertJSON(ctx, p.credentials, record.ID, record, credentialTags(record)...)
}

// Credential returns the credential stored under id.
func (p *Pluto) Credential(ctx context.Context, id string) (*CredentialRecord, error) {
	var r CredentialRecord
	if err := getJSON(ctx, p.credentials, id, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

// Credentials returns every stored credential.
func (p *Pluto) Credentials(ctx context.Context) ([]CredentialRecord, error) {
	return p.queryCredentials(ctx, credentialTag)
}

// CredentialsOfThread returns the credentials issued on the issue-credential thread thid.
func (p *Pluto) CredentialsOfThread(ctx context.Context, thid string) ([]CredentialRecord, error) {
	return p.queryCredentials(ctx, threadTag+":"+tagValue(thid))
}

// RevokedCredentials returns the credentials marked revoked.
func (p *Pluto) RevokedCredentials(ctx context.Context) ([]CredentialRecord, error) {
	return p.queryCredentials(ctx, revokedTag)
}

// RevokeCredential marks the credential of id revoked.
func (p *Pluto) RevokeCredential(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := p.Credential(ctx, id)
	if err != nil {
		return err
	}

	r.Revoked = true

	return putJSON(ctx, p.credentials, id, r, credentialTags(*r)...)
}

// DeleteCredential removes the credential of id.
func (p *Pluto) DeleteCredential(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.credentials.Delete(id)
}

func (p *Pluto) queryCredentials(ctx context.Context, expression string) ([]CredentialRecord, error) {
	var records []CredentialRecord

	err := queryJSON(ctx, p.credentials, expression, func(_ string, data []byte) error {
		var r CredentialRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}

		records = append(records, r)

		return nil
	})

	return records, err
}

func credentialTags(r CredentialRecord) []storage.Tag {
	tags := []storage.Tag{{Name: credentialTag}, {Name: restorationTag, Value: tagValue(r.RestorationID)}}
	if r.Revoked {
		tags = append(tags, storage.Tag{Name: revokedTag})
	}

	if r.ThreadID != "" {
		tags = append(tags, storage.Tag{Name: threadTag, Value: tagValue(r.ThreadID)})
	}

	return tags
}
