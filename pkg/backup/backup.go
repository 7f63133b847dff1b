/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package backup exports the wallet as a JWE and restores it. The JWE is encrypted to an X25519
// key derived from the wallet seed, so only a wallet holding the same seed can recover it.
package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose/jwk"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/x25519"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
)

// MasterKeyPath is the derivation path of the backup key.
const MasterKeyPath = "m'/0'/0'/0'"

const contentType = "application/json"

// Error codes of backup and recovery.
const (
	DecryptionFailed = errcode.Code(iota + errcode.Backup)
	EncryptionFailed
	MissingSeed
)

var (
	// ErrDecryptionFailed is returned when a backup cannot be opened or decoded. Nothing is written then.
	ErrDecryptionFailed = errcode.New(DecryptionFailed, errcode.ExecuteError, "backup decryption failed")
	// ErrEncryptionFailed is returned when the wallet cannot be exported.
	ErrEncryptionFailed = errcode.New(EncryptionFailed, errcode.ExecuteError, "backup encryption failed")
	// ErrMissingSeed is returned when the service has no seed to derive the backup key from.
	ErrMissingSeed = errcode.New(MissingSeed, errcode.ValidationError, "missing wallet seed")
)

var logger = log.New("edge-agent/backup")

// Store is the part of Pluto a backup reads and a recovery writes.
type Store interface {
	PrivateKeys(ctx context.Context) ([]store.KeyRecord, error)
	StorePrivateKey(ctx context.Context, owner did.DID, key kms.StoredKey) (string, error)
	LinkSecret(ctx context.Context) (*anoncreds.LinkSecret, error)
	StoreLinkSecret(ctx context.Context, secret *anoncreds.LinkSecret) error
	DIDs(ctx context.Context) ([]store.DIDRecord, error)
	StoreDID(ctx context.Context, d did.DID, alias string) error
	DIDPairs(ctx context.Context) ([]store.DIDPair, error)
	StoreDIDPair(ctx context.Context, pair store.DIDPair) error
	Credentials(ctx context.Context) ([]store.CredentialRecord, error)
	StoreCredential(ctx context.Context, record store.CredentialRecord) error
	Messages(ctx context.Context) ([]*message.Message, error)
	InsertMessage(ctx context.Context, msg *message.Message) error
	Mediators(ctx context.Context) ([]*mediator.Config, error)
	AddMediator(ctx context.Context, cfg *mediator.Config) error
}

// ImportFunc restores a credential from its storable data.
type ImportFunc func(data []byte, restorationID string) (verifiable.Credential, error)

// Service backs up and recovers one wallet.
type Service struct {
	km       kms.KeyManager
	seed     kms.Seed
	store    Store
	importer ImportFunc
}

// Opt configures a Service.
type Opt func(s *Service)

// WithImporter parses recovered credentials with importer, so they are validated and stored
// under their own id. Without it credentials are stored as found in the backup.
func WithImporter(importer ImportFunc) Opt {
	return func(s *Service) {
		s.importer = importer
	}
}

// New returns a Service for the wallet of seed.
func New(km kms.KeyManager, seed kms.Seed, s Store, opts ...Opt) *Service {
	svc := &Service{km: km, seed: seed, store: s}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (s *Service) masterKey() (*x25519.PrivateKey, error) {
	if len(s.seed) == 0 {
		return nil, ErrMissingSeed
	}

	key, err := s.km.CreatePrivateKey(keys.X25519, kms.WithSeed(s.seed), kms.WithDerivationPathString(MasterKeyPath))
	if err != nil {
		return nil, fmt.Errorf("derive backup key: %w", err)
	}

	master, ok := key.(*x25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("derive backup key: unexpected key type %T", key)
	}

	return master, nil
}

// Backup exports the wallet as a compact JWE.
func (s *Service) Backup(ctx context.Context) (string, error) {
	master, err := s.masterKey()
	if err != nil {
		return "", err
	}

	w, err := s.export(ctx)
	if err != nil {
		return "", err
	}

	plaintext, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	pub, ok := master.PublicKey().(*x25519.PublicKey)
	if !ok {
		return "", fmt.Errorf("%w: unexpected public key type", ErrEncryptionFailed)
	}

	jwe, err := jose.NewEncrypter(pub, jose.WithContentType(contentType)).Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	compact, err := jwe.CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	logger.Infof("wallet backup: %d keys, %d dids, %d pairs, %d credentials, %d messages, %d mediators",
		len(w.Keys), len(w.DIDs), len(w.DIDPairs), len(w.Credentials), len(w.Messages), len(w.Mediators))

	return compact, nil
}

// Recover decrypts a backup of Backup and inserts every record. Records already stored are
// kept, so recovering twice changes nothing. The backup is fully decoded before the first write.
func (s *Service) Recover(ctx context.Context, compact string) error {
	master, err := s.masterKey()
	if err != nil {
		return err
	}

	plaintext, err := jose.NewDecrypter(master).DecryptCompact(compact)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	w := &Wallet{}
	if err = json.Unmarshal(plaintext, w); err != nil {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	c, err := s.decode(w)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	return s.insert(ctx, c)
}

func (s *Service) export(ctx context.Context) (*Wallet, error) {
	w := &Wallet{}

	records, err := s.store.PrivateKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}

	for i := range records {
		k, kerr := s.exportKey(&records[i])
		if kerr != nil {
			return nil, kerr
		}

		w.Keys = append(w.Keys, *k)
	}

	secret, err := s.store.LinkSecret(ctx)

	switch {
	case err == nil:
		w.LinkSecret = secret.Secret
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("read link secret: %w", err)
	}

	dids, err := s.store.DIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("read dids: %w", err)
	}

	for _, d := range dids {
		w.DIDs = append(w.DIDs, DID{DID: d.DID.String(), Alias: d.Alias})
	}

	pairs, err := s.store.DIDPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("read did pairs: %w", err)
	}

	for _, p := range pairs {
		w.DIDPairs = append(w.DIDPairs, DIDPair{
			Holder: p.Holder.String(), Recipient: p.Recipient.String(), Alias: p.Alias,
		})
	}

	creds, err := s.store.Credentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	for _, c := range creds {
		w.Credentials = append(w.Credentials, Credential{
			Data: base64.RawURLEncoding.EncodeToString(c.Data), RecoveryID: c.RestorationID,
		})
	}

	msgs, err := s.store.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}

	for _, m := range msgs {
		data, merr := json.Marshal(m)
		if merr != nil {
			return nil, fmt.Errorf("%w: message %s: %v", ErrEncryptionFailed, m.ID, merr)
		}

		w.Messages = append(w.Messages, base64.RawURLEncoding.EncodeToString(data))
	}

	mediators, err := s.store.Mediators(ctx)
	if err != nil {
		return nil, fmt.Errorf("read mediators: %w", err)
	}

	for _, m := range mediators {
		w.Mediators = append(w.Mediators, Mediator{
			MediatorDID: m.MediatorDID.String(), HolderDID: m.HolderDID.String(), RoutingDID: m.RoutingDID.String(),
		})
	}

	return w, nil
}

func (s *Service) exportKey(r *store.KeyRecord) (*Key, error) {
	priv, err := s.km.RestorePrivateKey(r.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: restore key %s: %v", ErrEncryptionFailed, r.ID, err)
	}

	j, err := kms.ExportJWK(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: export key %s: %v", ErrEncryptionFailed, r.ID, err)
	}

	data, err := j.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: encode key %s: %v", ErrEncryptionFailed, r.ID, err)
	}

	k := &Key{
		Key:        base64.RawURLEncoding.EncodeToString(data),
		Index:      r.Key.Index,
		RecoveryID: r.Key.RestorationID,
	}

	if !r.DID.IsZero() {
		k.DID = r.DID.String()
	}

	return k, nil
}

// contents is a decoded backup, ready to be written.
type contents struct {
	keys        []ownedKey
	linkSecret  *anoncreds.LinkSecret
	dids        []store.DIDRecord
	pairs       []store.DIDPair
	credentials []store.CredentialRecord
	messages    []*message.Message
	mediators   []*mediator.Config
}

type ownedKey struct {
	owner did.DID
	key   kms.StoredKey
}

func (s *Service) decode(w *Wallet) (*contents, error) { //nolint:gocyclo
	c := &contents{}

	for i, k := range w.Keys {
		owned, err := s.decodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}

		c.keys = append(c.keys, *owned)
	}

	if w.LinkSecret != "" {
		c.linkSecret = &anoncreds.LinkSecret{ID: anoncreds.DefaultLinkSecretID, Secret: w.LinkSecret}
	}

	owned := map[did.DID]struct{}{}

	for _, d := range w.DIDs {
		id, err := did.Parse(d.DID)
		if err != nil {
			return nil, fmt.Errorf("did %q: %w", d.DID, err)
		}

		owned[id] = struct{}{}

		c.dids = append(c.dids, store.DIDRecord{DID: id, Alias: d.Alias})
	}

	for _, p := range w.DIDPairs {
		holder, err := did.Parse(p.Holder)
		if err != nil {
			return nil, fmt.Errorf("did pair holder %q: %w", p.Holder, err)
		}

		recipient, err := did.Parse(p.Recipient)
		if err != nil {
			return nil, fmt.Errorf("did pair recipient %q: %w", p.Recipient, err)
		}

		c.pairs = append(c.pairs, store.DIDPair{Holder: holder, Recipient: recipient, Alias: p.Alias})
	}

	for i, cred := range w.Credentials {
		data, err := base64.RawURLEncoding.DecodeString(cred.Data)
		if err != nil {
			return nil, fmt.Errorf("credential %d: %w", i, err)
		}

		record, err := s.decodeCredential(data, cred.RecoveryID)
		if err != nil {
			return nil, fmt.Errorf("credential %d: %w", i, err)
		}

		c.credentials = append(c.credentials, record)
	}

	for i, encoded := range w.Messages {
		msg, err := decodeMessage(encoded, owned)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}

		c.messages = append(c.messages, msg)
	}

	for _, m := range w.Mediators {
		cfg, err := decodeMediator(m)
		if err != nil {
			return nil, err
		}

		c.mediators = append(c.mediators, cfg)
	}

	return c, nil
}

func (s *Service) decodeKey(k Key) (*ownedKey, error) {
	data, err := base64.RawURLEncoding.DecodeString(k.Key)
	if err != nil {
		return nil, err
	}

	j := &jwk.JWK{}
	if err = json.Unmarshal(data, j); err != nil {
		return nil, err
	}

	restored, err := s.km.RestoreKey(j, k.Index)
	if err != nil {
		return nil, err
	}

	priv, ok := restored.(keys.PrivateKey)
	if !ok || !j.IsPrivate() {
		return nil, errors.New("not a private key")
	}

	stored, err := kms.ToStoredKey(priv)
	if err != nil {
		return nil, err
	}

	stored.Index = k.Index

	if k.RecoveryID != "" && k.RecoveryID != stored.RestorationID {
		return nil, fmt.Errorf("recovery id %q does not match the %s key", k.RecoveryID, priv.Curve())
	}

	owned := &ownedKey{key: stored}

	if k.DID != "" {
		if owned.owner, err = did.Parse(k.DID); err != nil {
			return nil, err
		}
	}

	return owned, nil
}

func (s *Service) decodeCredential(data []byte, restorationID string) (store.CredentialRecord, error) {
	if s.importer == nil {
		return store.CredentialRecord{
			ID: store.CredentialID(restorationID, data), RestorationID: restorationID, Data: data,
		}, nil
	}

	cred, err := s.importer(data, restorationID)
	if err != nil {
		return store.CredentialRecord{}, err
	}

	storable, ok := cred.(verifiable.StorableCredential)
	if !ok {
		return store.CredentialRecord{}, fmt.Errorf("%s credential cannot be stored", restorationID)
	}

	return store.NewCredentialRecord(storable), nil
}

// decodeMessage restores the direction from the sender: messages from a wallet DID were sent.
func decodeMessage(encoded string, owned map[did.DID]struct{}) (*message.Message, error) {
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}

	msg := &message.Message{}
	if err = json.Unmarshal(data, msg); err != nil {
		return nil, err
	}

	msg.Direction = message.Received

	if msg.From != nil {
		if _, ok := owned[*msg.From]; ok {
			msg.Direction = message.Sent
		}
	}

	return msg, nil
}

func decodeMediator(m Mediator) (*mediator.Config, error) {
	ids := make([]did.DID, 0, 3) //nolint:gomnd

	for _, s := range []string{m.MediatorDID, m.HolderDID, m.RoutingDID} {
		id, err := did.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("mediator %q: %w", s, err)
		}

		ids = append(ids, id)
	}

	return mediator.NewConfig(ids[0], ids[1], ids[2]), nil
}

// insert writes c. Duplicates are skipped; other failures stop the recovery.
func (s *Service) insert(ctx context.Context, c *contents) error {
	skipped := 0

	write := func(what string, err error) error {
		if errors.Is(err, store.ErrDuplicateID) {
			skipped++

			return nil
		}

		if err != nil {
			return fmt.Errorf("recover %s: %w", what, err)
		}

		return nil
	}

	for _, d := range c.dids {
		if err := write("did", s.store.StoreDID(ctx, d.DID, d.Alias)); err != nil {
			return err
		}
	}

	for _, k := range c.keys {
		_, err := s.store.StorePrivateKey(ctx, k.owner, k.key)
		if err = write("key", err); err != nil {
			return err
		}
	}

	if c.linkSecret != nil {
		if err := write("link secret", s.store.StoreLinkSecret(ctx, c.linkSecret)); err != nil {
			return err
		}
	}

	for _, p := range c.pairs {
		if err := write("did pair", s.store.StoreDIDPair(ctx, p)); err != nil {
			return err
		}
	}

	for _, cred := range c.credentials {
		if err := write("credential", s.store.StoreCredential(ctx, cred)); err != nil {
			return err
		}
	}

	for _, m := range c.messages {
		if err := write("message", s.store.InsertMessage(ctx, m)); err != nil {
			return err
		}
	}

	for _, m := range c.mediators {
		if err := write("mediator", s.store.AddMediator(ctx, m)); err != nil {
			return err
		}
	}

	logger.Infof("wallet recovered: %d keys, %d dids, %d credentials, %d records already present",
		len(c.keys), len(c.dids), len(c.credentials), skipped)

	return nil
}
