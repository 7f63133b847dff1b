/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package storage defines the key value contract Pluto persists through. Values can carry tags, and
// stores can be queried by tag name or by tag name and value.
package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDataNotFound is returned when data not found.
	ErrDataNotFound = errors.New("data not found")
	// ErrStoreClosed is returned when a closed store or provider is used.
	ErrStoreClosed = errors.New("store closed")
	// ErrInvalidQuery is returned for expressions not in TagName or TagName:TagValue form.
	ErrInvalidQuery = errors.New("invalid query expression, it must be TagName or TagName:TagValue")
)

// Tag is a name and optional value attached to a record for queries.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// Provider storage provider interface.
type Provider interface {
	// OpenStore opens a store with given name space and returns the handle. Names are case insensitive.
	OpenStore(name string) (Store, error)

	// Close closes all stores created under this store provider.
	Close() error
}

// Store is the storage interface.
type Store interface {
	// Put stores the key and the record, replacing any previous tags.
	Put(key string, value []byte, tags ...Tag) error

	// Get fetches the record based on key.
	Get(key string) ([]byte, error)

	// GetTags fetches the tags stored with key.
	GetTags(key string) ([]Tag, error)

	// Query returns the records matching expression, TagName or TagName:TagValue, ordered by key.
	Query(expression string) (Iterator, error)

	// Delete removes the record of key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close closes this store. The data stays and the store can be opened again.
	Close() error
}

// Iterator walks query results.
type Iterator interface {
	// Next moves to the next record and reports whether there is one.
	Next() (bool, error)

	Key() (string, error)

	Value() ([]byte, error)

	Tags() ([]Tag, error)

	// Release frees the resources of the iterator.
	Release() error
}

// Record is one key value pair with its tags.
type Record struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
	Tags  []Tag  `json:"tags,omitempty"`
}

// ValidateRecord checks the arguments of Put.
func ValidateRecord(key string, value []byte, tags []Tag) error {
	if key == "" {
		return errors.New("key cannot be blank")
	}

	if value == nil {
		return errors.New("value cannot be nil")
	}

	for _, tag := range tags {
		if strings.Contains(tag.Name, ":") {
			return fmt.Errorf(`"%s" is an invalid tag name since it contains one or more ':' characters`, tag.Name)
		}

		if strings.Contains(tag.Value, ":") {
			return fmt.Errorf(`"%s" is an invalid tag value since it contains one or more ':' characters`, tag.Value)
		}
	}

	return nil
}

// Query is a parsed query expression.
type Query struct {
	TagName  string
	TagValue string
}

// ParseQuery parses TagName or TagName:TagValue.
func ParseQuery(expression string) (Query, error) {
	if expression == "" {
		return Query{}, ErrInvalidQuery
	}

	parts := strings.Split(expression, ":")

	switch len(parts) {
	case 1:
		return Query{TagName: parts[0]}, nil
	case 2: //nolint:gomnd
		return Query{TagName: parts[0], TagValue: parts[1]}, nil
	default:
		return Query{}, fmt.Errorf("%w: %q", ErrInvalidQuery, expression)
	}
}

// Matches reports whether tags satisfy q. Without a value any tag of the name matches.
func (q Query) Matches(tags []Tag) bool {
	for _, tag := range tags {
		if tag.Name == q.TagName && (q.TagValue == "" || tag.Value == q.TagValue) {
			return true
		}
	}

	return false
}

// NewIterator iterates a snapshot of records, sorted by key.
func NewIterator(records []Record) Iterator {
	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	return &sliceIterator{records: records, current: -1}
}

type sliceIterator struct {
	records []Record
	current int
}

func (i *sliceIterator) Next() (bool, error) {
	if i.current+1 >= len(i.records) {
		return false, nil
	}

	i.current++

	return true, nil
}

func (i *sliceIterator) record() (*Record, error) {
	if i.current < 0 || i.current >= len(i.records) {
		return nil, errors.New("iterator is not positioned on a record")
	}

	return &i.records[i.current], nil
}

func (i *sliceIterator) Key() (string, error) {
	r, err := i.record()
	if err != nil {
		return "", err
	}

	return r.Key, nil
}

func (i *sliceIterator) Value() ([]byte, error) {
	r, err := i.record()
	if err != nil {
		return nil, err
	}

	return r.Value, nil
}

func (i *sliceIterator) Tags() ([]Tag, error) {
	r, err := i.record()
	if err != nil {
		return nil, err
	}

	return r.Tags, nil
}

func (i *sliceIterator) Release() error {
	i.records = nil

	return nil
}

// Collect drains it into records and releases it.
func Collect(it Iterator) ([]Record, error) {
	defer func() {
		_ = it.Release() //nolint:errcheck
	}()

	var records []Record

	for {
		ok, err := it.Next()
		if err != nil {
			return nil, err
		}

		if !ok {
			return records, nil
		}

		key, err := it.Key()
		if err != nil {
			return nil, err
		}

		value, err := it.Value()
		if err != nil {
			return nil, err
		}

		tags, err := it.Tags()
		if err != nil {
			return nil, err
		}

		records = append(records, Record{Key: key, Value: value, Tags: tags})
	}
}
