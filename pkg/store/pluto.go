/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package store is Pluto, the typed wallet store of the agent. It keeps DIDs, private keys, DID
// pairs, credentials, messages, mediators and AnonCreds secrets on top of a storage.Provider.
// Private keys and the link secret are sealed with a secretlock.Service before they are written.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/secretlock/noop"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

// Name spaces of the Pluto stores.
const (
	DIDNameSpace        = "pluto_dids"
	KeyNameSpace        = "pluto_keys"
	PairNameSpace       = "pluto_did_pairs"
	CredentialNameSpace = "pluto_credentials"
	MessageNameSpace    = "pluto_messages"
	MediatorNameSpace   = "pluto_mediators"
	SecretNameSpace     = "pluto_secrets"
	AnonCredsNameSpace  = "pluto_anoncreds"
)

const keyURI = "local-lock://pluto"

var logger = log.New("edge-agent/store")

// Pluto is the agent wallet store. It is safe for concurrent use.
type Pluto struct {
	dids        storage.Store
	keys        storage.Store
	pairs       storage.Store
	credentials storage.Store
	messages    storage.Store
	mediators   storage.Store
	secrets     storage.Store
	anoncreds   storage.Store

	lock secretlock.Service
	now  func() time.Time

	// mu serializes read-modify-write sequences such as duplicate checks.
	mu sync.Mutex
}

// Opt configures Pluto.
type Opt func(p *Pluto)

// WithSecretLock seals key material with lock. Without it secrets are stored as given.
func WithSecretLock(lock secretlock.Service) Opt {
	return func(p *Pluto) {
		p.lock = lock
	}
}

// WithClock overrides the clock stamping AnonCreds request metadata.
func WithClock(now func() time.Time) Opt {
	return func(p *Pluto) {
		p.now = now
	}
}

// New opens the Pluto stores in provider.
func New(provider storage.Provider, opts ...Opt) (*Pluto, error) {
	p := &Pluto{lock: &noop.NoLock{}, now: time.Now}

	for _, opt := range opts {
		opt(p)
	}

	stores := []struct {
		name string
		dst  *storage.Store
	}{
		{DIDNameSpace, &p.dids},
		{KeyNameSpace, &p.keys},
		{PairNameSpace, &p.pairs},
		{CredentialNameSpace, &p.credentials},
		{MessageNameSpace, &p.messages},
		{MediatorNameSpace, &p.mediators},
		{SecretNameSpace, &p.secrets},
		{AnonCredsNameSpace, &p.anoncreds},
	}

	for _, s := range stores {
		opened, err := provider.OpenStore(s.name)
		if err != nil {
			return nil, fmt.Errorf("failed to open store %s: %w", s.name, err)
		}

		*s.dst = opened
	}

	return p, nil
}

// Close closes the Pluto stores. The provider stays open.
func (p *Pluto) Close() error {
	var errs []error

	for _, s := range []storage.Store{
		p.dids, p.keys, p.pairs, p.credentials, p.messages, p.mediators, p.secrets, p.anoncreds,
	} {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func putJSON(ctx context.Context, s storage.Store, key string, v interface{}, tags ...storage.Tag) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", key, err)
	}

	if err = s.Put(key, data, tags...); err != nil {
		return fmt.Errorf("put record %s: %w", key, err)
	}

	return nil
}

// insertJSON stores v unless key is already present.
func (p *Pluto) insertJSON(ctx context.Context, s storage.Store, key string, v interface{}, tags ...storage.Tag) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := s.Get(key)

	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrDuplicateID, key)
	case !errors.Is(err, storage.ErrDataNotFound):
		return fmt.Errorf("lookup record %s: %w", key, err)
	}

	return putJSON(ctx, s, key, v, tags...)
}

func getJSON(ctx context.Context, s storage.Store, key string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.Get(key)
	if errors.Is(err, storage.ErrDataNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}

	if err != nil {
		return fmt.Errorf("get record %s: %w", key, err)
	}

	if err = json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal record %s: %w", key, err)
	}

	return nil
}

// queryJSON decodes every record matching expression with decode.
func queryJSON(ctx context.Context, s storage.Store, expression string, decode func(key string, data []byte) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	it, err := s.Query(expression)
	if err != nil {
		return fmt.Errorf("query %s: %w", expression, err)
	}

	records, err := storage.Collect(it)
	if err != nil {
		return fmt.Errorf("iterate %s: %w", expression, err)
	}

	for _, r := range records {
		if err = decode(r.Key, r.Value); err != nil {
			return fmt.Errorf("decode record %s: %w", r.Key, err)
		}
	}

	return nil
}

// tagValue encodes s for use as a tag value, which cannot contain ':'.
func tagValue(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func digest(parts ...[]byte) string {
	h := sha256.New()

	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil))
}

func (p *Pluto) seal(plaintext []byte, aad string) (string, error) {
	resp, err := p.lock.Encrypt(keyURI, &secretlock.EncryptRequest{
		Plaintext:                   base64.RawURLEncoding.EncodeToString(plaintext),
		AdditionalAuthenticatedData: aad,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealFailed, err)
	}

	return resp.Ciphertext, nil
}

func (p *Pluto) open(ciphertext, aad string) ([]byte, error) {
	resp, err := p.lock.Decrypt(keyURI, &secretlock.DecryptRequest{
		Ciphertext:                  ciphertext,
		AdditionalAuthenticatedData: aad,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSealFailed, err)
	}

	plaintext, err := base64.RawURLEncoding.DecodeString(resp.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("%w: decode plaintext: %v", ErrSealFailed, err)
	}

	return plaintext, nil
}
