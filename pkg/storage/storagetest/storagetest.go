/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storagetest holds the behavior every storage.Provider must show.
package storagetest

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

// TestAll runs all tests against provider.
func TestAll(t *testing.T, provider storage.Provider) {
	t.Run("put get", func(t *testing.T) { TestPutGet(t, provider) })
	t.Run("tags", func(t *testing.T) { TestStoreGetTags(t, provider) })
	t.Run("delete", func(t *testing.T) { TestStoreDelete(t, provider) })
	t.Run("query", func(t *testing.T) { TestStoreQuery(t, provider) })
	t.Run("reopen", func(t *testing.T) { TestStoreReopen(t, provider) })
}

// TestPutGet stores, updates and reads values.
func TestPutGet(t *testing.T, provider storage.Provider) {
	r := require.New(t)

	store, err := provider.OpenStore(randomStoreName())
	r.NoError(err)

	const key = "did:example:123"

	r.NoError(store.Put(key, []byte("value")))

	value, err := store.Get(key)
	r.NoError(err)
	r.Equal([]byte("value"), value)

	r.NoError(store.Put(key, []byte("updated")))

	value, err = store.Get(key)
	r.NoError(err)
	r.Equal([]byte("updated"), value)

	_, err = store.Get("did:example:789")
	r.ErrorIs(err, storage.ErrDataNotFound)

	_, err = store.Get("")
	r.Error(err)

	r.Error(store.Put("", []byte("value")))
	r.Error(store.Put(key, nil))
	r.Error(store.Put(key, []byte("value"), storage.Tag{Name: "bad:name"}))
	r.Error(store.Put(key, []byte("value"), storage.Tag{Name: "name", Value: "bad:value"}))
}

// TestStoreGetTags reads back the tags of a record; a Put replaces them.
func TestStoreGetTags(t *testing.T, provider storage.Provider) {
	r := require.New(t)

	store, err := provider.OpenStore(randomStoreName())
	r.NoError(err)

	tags := []storage.Tag{{Name: "type", Value: "peer"}, {Name: "alias"}}

	r.NoError(store.Put("k", []byte("v"), tags...))

	got, err := store.GetTags("k")
	r.NoError(err)
	r.Equal(tags, got)

	r.NoError(store.Put("k", []byte("v")))

	got, err = store.GetTags("k")
	r.NoError(err)
	r.Empty(got)

	_, err = store.GetTags("missing")
	r.ErrorIs(err, storage.ErrDataNotFound)
}

// TestStoreDelete removes records; missing keys are ignored.
func TestStoreDelete(t *testing.T, provider storage.Provider) {
	r := require.New(t)

	store, err := provider.OpenStore(randomStoreName())
	r.NoError(err)

	r.NoError(store.Put("k", []byte("v"), storage.Tag{Name: "t"}))
	r.NoError(store.Delete("k"))

	_, err = store.Get("k")
	r.ErrorIs(err, storage.ErrDataNotFound)

	records, err := storage.Collect(mustQuery(t, store, "t"))
	r.NoError(err)
	r.Empty(records)

	r.NoError(store.Delete("k"))
	r.Error(store.Delete(""))
}

// TestStoreQuery selects by tag name or by name and value, in key order.
func TestStoreQuery(t *testing.T, provider storage.Provider) {
	r := require.New(t)

	store, err := provider.OpenStore(randomStoreName())
	r.NoError(err)

	r.NoError(store.Put("c", []byte("3"), storage.Tag{Name: "direction", Value: "received"}))
	r.NoError(store.Put("a", []byte("1"), storage.Tag{Name: "direction", Value: "sent"}))
	r.NoError(store.Put("b", []byte("2"), storage.Tag{Name: "direction", Value: "received"}))
	r.NoError(store.Put("d", []byte("4")))

	records, err := storage.Collect(mustQuery(t, store, "direction"))
	r.NoError(err)
	r.Len(records, 3)
	r.Equal([]string{"a", "b", "c"}, keysOf(records))

	records, err = storage.Collect(mustQuery(t, store, "direction:received"))
	r.NoError(err)
	r.Equal([]string{"b", "c"}, keysOf(records))
	r.Equal([]byte("2"), records[0].Value)
	r.Equal([]storage.Tag{{Name: "direction", Value: "received"}}, records[0].Tags)

	records, err = storage.Collect(mustQuery(t, store, "direction:none"))
	r.NoError(err)
	r.Empty(records)

	_, err = store.Query("")
	r.ErrorIs(err, storage.ErrInvalidQuery)

	_, err = store.Query("a:b:c")
	r.ErrorIs(err, storage.ErrInvalidQuery)
}

// TestStoreReopen keeps data across Close and OpenStore, with case insensitive names.
func TestStoreReopen(t *testing.T, provider storage.Provider) {
	r := require.New(t)

	name := randomStoreName()

	store, err := provider.OpenStore(name)
	r.NoError(err)
	r.NoError(store.Put("k", []byte("v")))
	r.NoError(store.Close())

	store, err = provider.OpenStore(strings.ToUpper(name))
	r.NoError(err)

	value, err := store.Get("k")
	r.NoError(err)
	r.Equal([]byte("v"), value)

	_, err = provider.OpenStore("")
	r.Error(err)
}

func mustQuery(t *testing.T, store storage.Store, expression string) storage.Iterator {
	t.Helper()

	it, err := store.Query(expression)
	require.NoError(t, err)

	return it
}

func keysOf(records []storage.Record) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		keys = append(keys, r.Key)
	}

	return keys
}

func randomStoreName() string {
	return "store-" + uuid.New().String()
}
