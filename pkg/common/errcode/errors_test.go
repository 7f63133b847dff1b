/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodedErrors(t *testing.T) {
	sentinel := New(Code(Keys)+2, ValidationError, "bad curve")

	t.Run("wrapped sentinel keeps code", func(t *testing.T) {
		err := Wrapf(sentinel, "curve %q", "p-521")
		require.True(t, errors.Is(err, sentinel))
		require.Equal(t, Code(1002), CodeOf(err))
		require.Contains(t, err.Error(), "p-521")
	})

	t.Run("execute error exposes cause", func(t *testing.T) {
		cause := errors.New("io")
		err := NewExecuteError(Code(Store)+1, cause)
		require.Equal(t, ExecuteError, err.Type())
		require.True(t, errors.Is(err, cause))
		require.Equal(t, Store, GroupOf(err.Code()))
	})

	t.Run("unknown", func(t *testing.T) {
		require.Equal(t, UnknownStatus, CodeOf(fmt.Errorf("plain")))
	})
}

func TestAggregate(t *testing.T) {
	kind := New(Code(Credential)+9, ExecuteError, "cannot verify presentation inputs")
	first := errors.New("first")
	second := errors.New("second")

	require.NoError(t, Aggregate(kind, nil))

	err := Aggregate(kind, []error{first, second})
	require.True(t, errors.Is(err, kind))
	require.True(t, errors.Is(err, second))
	require.Equal(t, Code(5009), CodeOf(err))
	require.Contains(t, err.Error(), "first; second")
}

func TestGroupsDoNotOverlap(t *testing.T) {
	groups := []Group{Keys, DID, Messaging, Protocol, Credential, Store, Agent, Backup}
	seen := map[Group]bool{}

	for _, g := range groups {
		require.False(t, seen[g])
		require.Equal(t, g, GroupOf(Code(g)+999))
		seen[g] = true
	}
}
