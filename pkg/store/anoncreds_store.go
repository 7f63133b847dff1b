/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const (
	linkSecretKey = "link_secret"
	metadataTag   = "request_metadata"
)

type sealedLinkSecret struct {
	ID     string `json:"id"`
	Sealed string `json:"sealed"`
}

type metadataRecord struct {
	Metadata *anoncreds.CredentialRequestMetadata `json:"metadata"`
	Created  time.Time                            `json:"created"`
}

// StoreLinkSecret saves the wallet link secret, sealed with the secret lock. There is one link
// secret per wallet; storing another fails with ErrDuplicateID.
func (p *Pluto) StoreLinkSecret(ctx context.Context, secret *anoncreds.LinkSecret) error {
	if secret == nil || secret.ID == "" || secret.Secret == "" {
		return fmt.Errorf("%w: link secret id and value", ErrMissingRequiredFields)
	}

	sealed, err := p.seal([]byte(secret.Secret), secret.ID)
	if err != nil {
		return err
	}

	return p.insertJSON(ctx, p.secrets, linkSecretKey, sealedLinkSecret{ID: secret.ID, Sealed: sealed})
}

// LinkSecret returns the wallet link secret or ErrNotFound.
func (p *Pluto) LinkSecret(ctx context.Context) (*anoncreds.LinkSecret, error) {
	var s sealedLinkSecret
	if err := getJSON(ctx, p.secrets, linkSecretKey, &s); err != nil {
		return nil, err
	}

	secret, err := p.open(s.Sealed, s.ID)
	if err != nil {
		return nil, fmt.Errorf("open link secret: %w", err)
	}

	return &anoncreds.LinkSecret{ID: s.ID, Secret: string(secret)}, nil
}

// PutRequestMetadata keeps md until the credential of threadID is issued.
func (p *Pluto) PutRequestMetadata(ctx context.Context, threadID string,
	md *anoncreds.CredentialRequestMetadata) error {
	if threadID == "" || md == nil {
		return fmt.Errorf("%w: thread id and metadata", ErrMissingRequiredFields)
	}

	return putJSON(ctx, p.anoncreds, threadID, metadataRecord{Metadata: md, Created: p.now().UTC()},
		storage.Tag{Name: metadataTag})
}

// GetRequestMetadata returns the metadata of threadID or verifiable.ErrMissingCredentialMetadata.
func (p *Pluto) GetRequestMetadata(ctx context.Context, threadID string) (*anoncreds.CredentialRequestMetadata,
	error) {
	var r metadataRecord

	err := getJSON(ctx, p.anoncreds, threadID, &r)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: thread %s", verifiable.ErrMissingCredentialMetadata, threadID)
	}

	if err != nil {
		return nil, err
	}

	return r.Metadata, nil
}

// DeleteRequestMetadata drops the metadata of threadID.
func (p *Pluto) DeleteRequestMetadata(ctx context.Context, threadID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.anoncreds.Delete(threadID)
}

// DeleteStale drops metadata stored before olderThan.
func (p *Pluto) DeleteStale(ctx context.Context, olderThan time.Time) (int, error) {
	var stale []string

	err := queryJSON(ctx, p.anoncreds, metadataTag, func(key string, data []byte) error {
		var r metadataRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}

		if r.Created.Before(olderThan) {
			stale = append(stale, key)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, key := range stale {
		if err = p.anoncreds.Delete(key); err != nil {
			return 0, fmt.Errorf("delete stale metadata %s: %w", key, err)
		}
	}

	if len(stale) > 0 {
		logger.Infof("dropped %d stale credential request metadata entries", len(stale))
	}

	return len(stale), nil
}
