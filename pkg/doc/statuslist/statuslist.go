/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuslist reads and writes StatusList2021 bitstrings.
// See https://www.w3.org/TR/vc-status-list/.
package statuslist

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

// Entry and list types plus the purposes a list can serve.
const (
	EntryType = "StatusList2021Entry"
	ListType  = "StatusList2021"

	PurposeRevocation = "revocation"
	PurposeSuspension = "suspension"

	encodedListKey = "encodedList"
	purposeKey     = "statusPurpose"

	// minimum list length recommended for herd privacy.
	minimumBits = 131072
	bitsPerByte = 8
)

// BitString is an uncompressed status list. Bit 0 is the most significant bit of the first byte.
type BitString struct {
	bits []byte
}

// New returns a list that can hold at least n statuses.
func New(n int) *BitString {
	if n < minimumBits {
		n = minimumBits
	}

	return &BitString{bits: make([]byte, (n+bitsPerByte-1)/bitsPerByte)}
}

// Len returns the number of statuses the list holds.
func (b *BitString) Len() int {
	return len(b.bits) * bitsPerByte
}

// Get returns the bit at index.
func (b *BitString) Get(index int) (bool, error) {
	if index < 0 || index >= b.Len() {
		return false, fmt.Errorf("%w: index %d out of range [0, %d)", verifiable.ErrInvalidStatusList, index, b.Len())
	}

	mask := byte(1) << (bitsPerByte - 1 - index%bitsPerByte)

	return b.bits[index/bitsPerByte]&mask != 0, nil
}

// Set sets the bit at index.
func (b *BitString) Set(index int, value bool) error {
	if index < 0 || index >= b.Len() {
		return fmt.Errorf("%w: index %d out of range [0, %d)", verifiable.ErrInvalidStatusList, index, b.Len())
	}

	mask := byte(1) << (bitsPerByte - 1 - index%bitsPerByte)

	if value {
		b.bits[index/bitsPerByte] |= mask
	} else {
		b.bits[index/bitsPerByte] &^= mask
	}

	return nil
}

// Encode gzips and base64url encodes the list.
func (b *BitString) Encode() (string, error) {
	buf := &bytes.Buffer{}

	w := gzip.NewWriter(buf)

	if _, err := w.Write(b.bits); err != nil {
		return "", fmt.Errorf("compress status list: %w", err)
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("compress status list: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Padded base64url is accepted too.
func Decode(encodedList string) (*BitString, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encodedList, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: encodedList: %v", verifiable.ErrInvalidStatusList, err)
	}

	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: encodedList: %v", verifiable.ErrInvalidStatusList, err)
	}

	defer r.Close() //nolint:errcheck

	bits, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: encodedList: %v", verifiable.ErrInvalidStatusList, err)
	}

	return &BitString{bits: bits}, nil
}

// Check reads the bit of entry from the credential subject of the status list credential.
// A set bit yields ErrCredentialRevoked or ErrCredentialSuspended depending on the purpose.
func Check(entry *verifiable.Status, listSubject map[string]interface{}) error {
	if entry == nil {
		return nil
	}

	if entry.Type != EntryType {
		return fmt.Errorf("%w: unsupported status type %q", verifiable.ErrInvalidStatusList, entry.Type)
	}

	index, err := strconv.Atoi(entry.StatusListIndex)
	if err != nil {
		return fmt.Errorf("%w: statusListIndex %q", verifiable.ErrInvalidStatusList, entry.StatusListIndex)
	}

	purpose := entry.StatusPurpose
	if listPurpose, ok := listSubject[purposeKey].(string); ok && purpose != "" && listPurpose != purpose {
		return fmt.Errorf("%w: entry purpose %q does not match list purpose %q",
			verifiable.ErrInvalidStatusList, purpose, listPurpose)
	}

	encoded, ok := listSubject[encodedListKey].(string)
	if !ok {
		return fmt.Errorf("%w: no %s", verifiable.ErrInvalidStatusList, encodedListKey)
	}

	list, err := Decode(encoded)
	if err != nil {
		return err
	}

	set, err := list.Get(index)
	if err != nil {
		return err
	}

	if !set {
		return nil
	}

	switch purpose {
	case PurposeSuspension:
		return fmt.Errorf("%w: index %d of %s", verifiable.ErrCredentialSuspended, index, entry.StatusListCredential)
	default:
		return fmt.Errorf("%w: index %d of %s", verifiable.ErrCredentialRevoked, index, entry.StatusListCredential)
	}
}
