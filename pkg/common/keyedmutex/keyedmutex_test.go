/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyedmutex

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutexSerializesPerKey(t *testing.T) {
	km := New()

	var (
		inside  int32
		maxSeen int32
		wg      sync.WaitGroup
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			require.NoError(t, km.With("thread-1", func() error {
				n := atomic.AddInt32(&inside, 1)
				if n > atomic.LoadInt32(&maxSeen) {
					atomic.StoreInt32(&maxSeen, n)
				}

				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)

				return nil
			}))
		}()
	}

	wg.Wait()
	require.EqualValues(t, 1, maxSeen)
}

func TestMutexKeysAreIndependent(t *testing.T) {
	km := New()
	km.Lock("a")

	done := make(chan struct{})

	go func() {
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked by a")
	}

	km.Unlock("a")
}
