/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"
	"sync"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// MockResolver mock implementation of vdr.Resolver
// to be used only for unit tests.
type MockResolver struct {
	ResolveErr error

	mu   sync.RWMutex
	docs map[string]*did.Doc
}

// Store makes doc resolvable.
func (m *MockResolver) Store(doc *did.Doc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.docs == nil {
		m.docs = map[string]*did.Doc{}
	}

	m.docs[doc.ID.String()] = doc
}

// Resolve did document.
func (m *MockResolver) Resolve(_ context.Context, id string) (*did.Doc, error) {
	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return nil, did.ErrUnresolvable
	}

	return doc, nil
}
