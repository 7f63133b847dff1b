/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package leveldb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage/storagetest"
)

func TestCommon(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "db"))
	defer func() { require.NoError(t, p.Close()) }()

	storagetest.TestAll(t, p)
}

func TestPersistence(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "db")

	p := NewProvider(path)

	store, err := p.OpenStore("messages")
	r.NoError(err)
	r.NoError(store.Put("m-1", []byte(`{"id":"m-1"}`), storage.Tag{Name: "direction", Value: "received"}))
	r.NoError(p.Close())

	_, err = store.Get("m-1")
	r.ErrorIs(err, storage.ErrStoreClosed)

	p = NewProvider(path)
	defer func() { r.NoError(p.Close()) }()

	store, err = p.OpenStore("messages")
	r.NoError(err)

	value, err := store.Get("m-1")
	r.NoError(err)
	r.JSONEq(`{"id":"m-1"}`, string(value))

	tags, err := store.GetTags("m-1")
	r.NoError(err)
	r.Equal([]storage.Tag{{Name: "direction", Value: "received"}}, tags)
}

func TestOpenStoreOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "leveldb.txt")
	require.NoError(t, os.WriteFile(file+"-dids", []byte("not a database"), 0o600))

	_, err := NewProvider(file).OpenStore("dids")
	require.Error(t, err)
}
