/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package statuslist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
)

func TestBitString(t *testing.T) {
	r := require.New(t)

	list := New(16)
	r.Equal(minimumBits, list.Len())

	r.NoError(list.Set(0, true))
	r.NoError(list.Set(9, true))
	r.Equal(byte(0x80), list.bits[0])
	r.Equal(byte(0x40), list.bits[1])

	encoded, err := list.Encode()
	r.NoError(err)

	decoded, err := Decode(encoded)
	r.NoError(err)

	for i, want := range map[int]bool{0: true, 1: false, 8: false, 9: true} {
		got, err := decoded.Get(i)
		r.NoError(err)
		r.Equal(want, got, "bit %d", i)
	}

	r.NoError(decoded.Set(9, false))
	got, err := decoded.Get(9)
	r.NoError(err)
	r.False(got)

	_, err = decoded.Get(decoded.Len())
	r.ErrorIs(err, verifiable.ErrInvalidStatusList)

	_, err = Decode("not gzip")
	r.ErrorIs(err, verifiable.ErrInvalidStatusList)
}

func TestCheck(t *testing.T) {
	r := require.New(t)

	list := New(0)
	r.NoError(list.Set(94567, true))

	encoded, err := list.Encode()
	r.NoError(err)

	subject := func(purpose string) map[string]interface{} {
		return map[string]interface{}{"type": ListType, "statusPurpose": purpose, "encodedList": encoded}
	}

	entry := &verifiable.Status{
		Type:                 EntryType,
		StatusPurpose:        PurposeRevocation,
		StatusListIndex:      "94567",
		StatusListCredential: "https://status.example/1",
	}

	r.ErrorIs(Check(entry, subject(PurposeRevocation)), verifiable.ErrCredentialRevoked)

	suspended := *entry
	suspended.StatusPurpose = PurposeSuspension
	r.ErrorIs(Check(&suspended, subject(PurposeSuspension)), verifiable.ErrCredentialSuspended)

	valid := *entry
	valid.StatusListIndex = "1"
	r.NoError(Check(&valid, subject(PurposeRevocation)))

	r.ErrorIs(Check(entry, subject(PurposeSuspension)), verifiable.ErrInvalidStatusList)

	bad := *entry
	bad.StatusListIndex = "x"
	r.ErrorIs(Check(&bad, subject(PurposeRevocation)), verifiable.ErrInvalidStatusList)

	r.NoError(Check(nil, nil))
}
