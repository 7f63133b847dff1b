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
	"strconv"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const (
	keyTag       = "key"
	ownerTag     = "owner"
	lastIndexKey = "last_key_path_index"
)

// KeyRecord is a private key with the DID owning it, if any.
type KeyRecord struct {
	ID  string
	DID did.DID
	Key kms.StoredKey
}

type sealedKey struct {
	DID           did.DID `json:"did,omitempty"`
	RestorationID string  `json:"restoration_id"`
	Index         *uint32 `json:"index,omitempty"`
	Path          string  `json:"path,omitempty"`
	Sealed        string  `json:"sealed"`
}

// KeyID is the identifier Pluto stores key under. It only depends on the key itself.
func KeyID(key kms.StoredKey) string {
	return digest([]byte("key"), []byte(key.RestorationID), key.Data)
}

// StorePrivateKey saves key for owner; owner can be the zero DID. The key material is sealed with
// the owner as additional data. A key carrying an HD index moves the last used index forward.
func (p *Pluto) StorePrivateKey(ctx context.Context, owner did.DID, key kms.StoredKey) (string, error) {
	if key.RestorationID == "" || len(key.Data) == 0 {
		return "", fmt.Errorf("%w: restoration id and key data", ErrMissingRequiredFields)
	}

	sealed, err := p.seal(key.Data, ownerAAD(owner))
	if err != nil {
		return "", err
	}

	id := KeyID(key)

	tags := []storage.Tag{{Name: keyTag}}
	if !owner.IsZero() {
		tags = append(tags, storage.Tag{Name: ownerTag, Value: tagValue(owner.String())})
	}

	err = p.insertJSON(ctx, p.keys, id, sealedKey{
		DID:           owner,
		RestorationID: key.RestorationID,
		Index:         key.Index,
		Path:          key.Path,
		Sealed:        sealed,
	}, tags...)
	if err != nil {
		return "", err
	}

	if key.Index != nil {
		if err = p.advanceKeyPathIndex(ctx, *key.Index); err != nil {
			return "", err
		}
	}

	return id, nil
}

// PrivateKey returns the key stored under id.
func (p *Pluto) PrivateKey(ctx context.Context, id string) (*KeyRecord, error) {
	var sk sealedKey
	if err := getJSON(ctx, p.keys, id, &sk); err != nil {
		return nil, err
	}

	return p.openKey(id, &sk)
}

// PrivateKeys returns every stored key.
func (p *Pluto) PrivateKeys(ctx context.Context) ([]KeyRecord, error) {
	return p.queryKeys(ctx, keyTag)
}

// PrivateKeysOf returns the keys owned by owner.
func (p *Pluto) PrivateKeysOf(ctx context.Context, owner did.DID) ([]KeyRecord, error) {
	return p.queryKeys(ctx, ownerTag+":"+tagValue(owner.String()))
}

func (p *Pluto) queryKeys(ctx context.Context, expression string) ([]KeyRecord, error) {
	var records []KeyRecord

	err := queryJSON(ctx, p.keys, expression, func(id string, data []byte) error {
		var sk sealedKey
		if err := json.Unmarshal(data, &sk); err != nil {
			return err
		}

		r, err := p.openKey(id, &sk)
		if err != nil {
			return err
		}

		records = append(records, *r)

		return nil
	})

	return records, err
}

func (p *Pluto) openKey(id string, sk *sealedKey) (*KeyRecord, error) {
	data, err := p.open(sk.Sealed, ownerAAD(sk.DID))
	if err != nil {
		return nil, fmt.Errorf("open key %s: %w", id, err)
	}

	return &KeyRecord{
		ID:  id,
		DID: sk.DID,
		Key: kms.StoredKey{RestorationID: sk.RestorationID, Data: data, Index: sk.Index, Path: sk.Path},
	}, nil
}

func ownerAAD(owner did.DID) string {
	if owner.IsZero() {
		return ""
	}

	return owner.String()
}

// LastKeyPathIndex returns the highest HD index used so far, 0 when none was.
func (p *Pluto) LastKeyPathIndex(ctx context.Context) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := p.secrets.Get(lastIndexKey)
	if errors.Is(err, storage.ErrDataNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("get last key path index: %w", err)
	}

	index, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse last key path index: %w", err)
	}

	return uint32(index), nil
}

// StoreLastKeyPathIndex records index as used. Lower values than the stored one are ignored.
func (p *Pluto) StoreLastKeyPathIndex(ctx context.Context, index uint32) error {
	return p.advanceKeyPathIndex(ctx, index)
}

func (p *Pluto) advanceKeyPathIndex(ctx context.Context, index uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, err := p.LastKeyPathIndex(ctx)
	if err != nil {
		return err
	}

	if index <= last {
		return nil
	}

	if err = p.secrets.Put(lastIndexKey, []byte(strconv.FormatUint(uint64(index), 10))); err != nil {
		return fmt.Errorf("put last key path index: %w", err)
	}

	logger.Debugf("last key path index moved to %d", index)

	return nil
}
