/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem is an in-memory storage.Provider.
package mem

import (
	"errors"
	"strings"
	"sync"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

// Provider in-memory implementation of storage.Provider interface.
type Provider struct {
	dbs  map[string]*memStore
	lock sync.RWMutex
}

// NewProvider instantiates Provider.
func NewProvider() *Provider {
	return &Provider{dbs: make(map[string]*memStore)}
}

// OpenStore opens and returns a store for given name space.
func (p *Provider) OpenStore(name string) (storage.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be blank")
	}

	name = strings.ToLower(name)

	p.lock.Lock()
	defer p.lock.Unlock()

	store, ok := p.dbs[name]
	if !ok {
		store = &memStore{db: make(map[string]storage.Record)}
		p.dbs[name] = store
	}

	return store, nil
}

// Close discards all stores created under this store provider.
func (p *Provider) Close() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.dbs = make(map[string]*memStore)

	return nil
}

type memStore struct {
	db map[string]storage.Record
	sync.RWMutex
}

func (s *memStore) Put(key string, value []byte, tags ...storage.Tag) error {
	if err := storage.ValidateRecord(key, value, tags); err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()

	s.db[key] = storage.Record{
		Key:   key,
		Value: append([]byte(nil), value...),
		Tags:  append([]storage.Tag(nil), tags...),
	}

	return nil
}

func (s *memStore) get(key string) (storage.Record, error) {
	if key == "" {
		return storage.Record{}, errors.New("key cannot be blank")
	}

	s.RLock()
	defer s.RUnlock()

	r, ok := s.db[key]
	if !ok {
		return storage.Record{}, storage.ErrDataNotFound
	}

	return r, nil
}

func (s *memStore) Get(key string) ([]byte, error) {
	r, err := s.get(key)
	if err != nil {
		return nil, err
	}

	return append([]byte(nil), r.Value...), nil
}

func (s *memStore) GetTags(key string) ([]storage.Tag, error) {
	r, err := s.get(key)
	if err != nil {
		return nil, err
	}

	return append([]storage.Tag(nil), r.Tags...), nil
}

func (s *memStore) Query(expression string) (storage.Iterator, error) {
	q, err := storage.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	s.RLock()
	defer s.RUnlock()

	var records []storage.Record

	for _, r := range s.db {
		if q.Matches(r.Tags) {
			records = append(records, r)
		}
	}

	return storage.NewIterator(records), nil
}

func (s *memStore) Delete(key string) error {
	if key == "" {
		return errors.New("key cannot be blank")
	}

	s.Lock()
	delete(s.db, key)
	s.Unlock()

	return nil
}

func (s *memStore) Close() error {
	return nil
}
