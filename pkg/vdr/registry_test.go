/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

type countingVDR struct {
	method string
	reads  int
	err    error
}

func (v *countingVDR) Accept(method string) bool { return method == v.method }

func (v *countingVDR) Read(_ context.Context, id did.DID) (*did.Doc, error) {
	v.reads++

	if v.err != nil {
		return nil, v.err
	}

	return did.BuildDoc(id), nil
}

func (v *countingVDR) Close() error { return nil }

func TestRegistryResolve(t *testing.T) {
	peer := &countingVDR{method: "peer"}
	r := New(WithVDR(peer))

	doc, err := r.Resolve(context.Background(), "did:peer:2.Ez6LS")
	require.NoError(t, err)
	require.Equal(t, did.New("peer", "2.Ez6LS"), doc.ID)

	_, err = r.Resolve(context.Background(), "did:peer:2.Ez6LS")
	require.NoError(t, err)
	require.Equal(t, 1, peer.reads, "second resolution is served from cache")

	t.Run("unknown method", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "did:web:example.com")
		require.ErrorIs(t, err, did.ErrNoResolversAvailableForDIDMethod)
	})

	t.Run("invalid DID", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), "peer:2")
		require.ErrorIs(t, err, did.ErrInvalidDIDString)
	})

	t.Run("read errors are not cached", func(t *testing.T) {
		failing := &countingVDR{method: "prism", err: errors.New("node down")}
		r := New(WithVDR(failing))

		_, err := r.Resolve(context.Background(), "did:prism:abc")
		require.EqualError(t, err, "did method read failed: node down")

		_, err = r.Resolve(context.Background(), "did:prism:abc")
		require.Error(t, err)
		require.Equal(t, 2, failing.reads)
	})

	t.Run("cache disabled", func(t *testing.T) {
		v := &countingVDR{method: "peer"}
		r := New(WithVDR(v), WithCacheSize(0))

		for i := 0; i < 3; i++ {
			_, err := r.Resolve(context.Background(), "did:peer:2.Ez6LS")
			require.NoError(t, err)
		}

		require.Equal(t, 3, v.reads)
		require.NoError(t, r.Close())
	})
}
