/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyedmutex serializes work per key, e.g. per protocol thread.
package keyedmutex

import "sync"

// Mutex locks by unique key. The zero value is not usable; use New.
type Mutex struct {
	c *sync.Cond
	l sync.Locker
	s map[string]struct{}
}

// New returns an unlocked Mutex.
func New() *Mutex {
	l := sync.Mutex{}

	return &Mutex{c: sync.NewCond(&l), l: &l, s: make(map[string]struct{})}
}

func (km *Mutex) locked(key string) (ok bool) { _, ok = km.s[key]; return }

// Unlock by unique ID.
func (km *Mutex) Unlock(key string) {
	km.l.Lock()
	defer km.l.Unlock()

	delete(km.s, key)
	km.c.Broadcast()
}

// Lock by unique ID. It blocks while another holder has key.
func (km *Mutex) Lock(key string) {
	km.l.Lock()
	defer km.l.Unlock()

	for km.locked(key) {
		km.c.Wait()
	}

	km.s[key] = struct{}{}
}

// With runs fn holding key.
func (km *Mutex) With(key string, fn func() error) error {
	km.Lock(key)
	defer km.Unlock(key)

	return fn()
}
