/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package leveldb is a storage.Provider persisting to LevelDB. Each store is its own database under
// the provider path.
package leveldb

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const pathPattern = "%s-%s"

var logger = log.New("edge-agent/storage/leveldb")

// Provider leveldb implementation of storage.Provider interface.
type Provider struct {
	dbPath string
	dbs    map[string]*store
	lock   sync.RWMutex
}

type dbEntry struct {
	Value []byte        `json:"value,omitempty"`
	Tags  []storage.Tag `json:"tags,omitempty"`
}

// NewProvider instantiates Provider. Stores are opened at <dbPath>-<name>.
func NewProvider(dbPath string) *Provider {
	return &Provider{dbs: make(map[string]*store), dbPath: dbPath}
}

// OpenStore opens and returns a store for given name space.
func (p *Provider) OpenStore(name string) (storage.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be blank")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	if s, ok := p.dbs[name]; ok {
		return s, nil
	}

	db, err := leveldb.OpenFile(fmt.Sprintf(pathPattern, p.dbPath, name), nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb store %s: %w", name, err)
	}

	s := &store{db: db, name: name, close: p.removeStore}
	p.dbs[name] = s

	return s, nil
}

// Close closes all stores created under this store provider.
func (p *Provider) Close() error {
	p.lock.RLock()

	open := make([]*store, 0, len(p.dbs))
	for _, s := range p.dbs {
		open = append(open, s)
	}

	p.lock.RUnlock()

	for _, s := range open {
		if err := s.Close(); err != nil {
			return fmt.Errorf(`failed to close open store with name "%s": %w`, s.name, err)
		}
	}

	return nil
}

func (p *Provider) removeStore(name string) {
	p.lock.Lock()
	defer p.lock.Unlock()

	delete(p.dbs, name)
}

type store struct {
	db    *leveldb.DB
	name  string
	close func(name string)
}

func (s *store) Put(key string, value []byte, tags ...storage.Tag) error {
	if err := storage.ValidateRecord(key, value, tags); err != nil {
		return err
	}

	entryBytes, err := json.Marshal(dbEntry{Value: value, Tags: tags})
	if err != nil {
		return fmt.Errorf("failed to marshal new DB entry: %w", err)
	}

	return translate(s.db.Put([]byte(key), entryBytes, nil))
}

func (s *store) Get(key string) ([]byte, error) {
	entry, err := s.getDBEntry(key)
	if err != nil {
		return nil, err
	}

	if entry.Value == nil {
		return []byte{}, nil
	}

	return entry.Value, nil
}

func (s *store) GetTags(key string) ([]storage.Tag, error) {
	entry, err := s.getDBEntry(key)
	if err != nil {
		return nil, err
	}

	return entry.Tags, nil
}

// Query scans the database. Stores are small enough that a tag index is not worth maintaining.
func (s *store) Query(expression string) (storage.Iterator, error) {
	q, err := storage.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	it := s.db.NewIterator(nil, nil)
	defer it.Release()

	var records []storage.Record

	for it.Next() {
		var entry dbEntry
		if err = json.Unmarshal(it.Value(), &entry); err != nil {
			logger.Warnf("skip undecodable entry %s in store %s: %v", it.Key(), s.name, err)

			continue
		}

		if !q.Matches(entry.Tags) {
			continue
		}

		value := entry.Value
		if value == nil {
			value = []byte{}
		}

		records = append(records, storage.Record{Key: string(it.Key()), Value: value, Tags: entry.Tags})
	}

	if err = it.Error(); err != nil {
		return nil, translate(err)
	}

	return storage.NewIterator(records), nil
}

func (s *store) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be blank")
	}

	return translate(s.db.Delete([]byte(key), nil))
}

func (s *store) Close() error {
	s.close(s.name)

	if err := s.db.Close(); err != nil && !errors.Is(err, leveldb.ErrClosed) {
		return err
	}

	return nil
}

func (s *store) getDBEntry(key string) (dbEntry, error) {
	if key == "" {
		return dbEntry{}, errors.New("key cannot be blank")
	}

	raw, err := s.db.Get([]byte(key), nil)
	if err != nil {
		return dbEntry{}, translate(err)
	}

	var entry dbEntry
	if err = json.Unmarshal(raw, &entry); err != nil {
		return dbEntry{}, fmt.Errorf("failed to unmarshal retrieved DB entry: %w", err)
	}

	return entry, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return storage.ErrDataNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return fmt.Errorf("%w: %v", storage.ErrStoreClosed, err)
	default:
		return err
	}
}
