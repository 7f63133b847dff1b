/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"
	"errors"
	"fmt"

	"github.com/bluele/gcache"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

const defaultCacheSize = 100

var logger = log.New("edge-agent/vdr") //nolint:gochecknoglobals

// Option is a vdr instance option.
type Option func(opts *Registry)

// Registry vdr registry.
type Registry struct {
	vdr       []VDR
	cacheSize int
	cache     gcache.Cache
}

// New return new instance of vdr.
func New(opts ...Option) *Registry {
	r := &Registry{cacheSize: defaultCacheSize}

	// Apply options
	for _, opt := range opts {
		opt(r)
	}

	if r.cacheSize > 0 {
		r.cache = gcache.New(r.cacheSize).LRU().Build()
	}

	return r
}

// Resolve did document.
func (r *Registry) Resolve(ctx context.Context, id string) (*did.Doc, error) {
	parsed, err := did.Parse(id)
	if err != nil {
		return nil, err
	}

	return r.ResolveDID(ctx, parsed)
}

// ResolveDID resolves a parsed DID. Successful resolutions are cached by DID string.
func (r *Registry) ResolveDID(ctx context.Context, id did.DID) (*did.Doc, error) {
	key := id.String()

	if r.cache != nil {
		if cached, err := r.cache.Get(key); err == nil {
			return cached.(*did.Doc), nil //nolint:forcetypeassert
		}
	}

	// resolve did method
	method, err := r.resolveVDR(id.Method)
	if err != nil {
		return nil, err
	}

	doc, err := method.Read(ctx, id)
	if err != nil {
		if errors.Is(err, did.ErrInitialStateOfDIDChanged) || errors.Is(err, did.ErrUnresolvable) {
			return nil, err
		}

		return nil, fmt.Errorf("did method read failed: %w", err)
	}

	if r.cache != nil {
		if err = r.cache.Set(key, doc); err != nil {
			logger.Warnf("cache DID document %s: %s", key, err)
		}
	}

	return doc, nil
}

// Close frees resources being maintained by vdr.
func (r *Registry) Close() error {
	if r.cache != nil {
		r.cache.Purge()
	}

	for _, v := range r.vdr {
		if err := v.Close(); err != nil {
			return fmt.Errorf("close vdr: %w", err)
		}
	}

	return nil
}

func (r *Registry) resolveVDR(method string) (VDR, error) {
	for _, v := range r.vdr {
		if v.Accept(method) {
			return v, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", did.ErrNoResolversAvailableForDIDMethod, method)
}

// WithVDR adds did method implementation for store.
func WithVDR(method VDR) Option {
	return func(opts *Registry) {
		opts.vdr = append(opts.vdr, method)
	}
}

// WithCacheSize sets the number of resolved documents kept. Zero disables the cache.
func WithCacheSize(size int) Option {
	return func(opts *Registry) {
		opts.cacheSize = size
	}
}
