/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package lookup reads typed values out of a config.Backend.
package lookup

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/config"
)

// ConfigLookup wraps a backend with typed getters. Missing or malformed values read as the zero
// value of the type.
type ConfigLookup struct {
	backend config.Backend
}

// New wraps backend.
func New(backend config.Backend) *ConfigLookup {
	return &ConfigLookup{backend: backend}
}

// Lookup returns the raw value of key.
func (c *ConfigLookup) Lookup(key string) (interface{}, bool) {
	return c.backend.Lookup(key)
}

// GetBool returns the bool value of key.
func (c *ConfigLookup) GetBool(key string) bool {
	value, ok := c.Lookup(key)
	if !ok {
		return false
	}

	return cast.ToBool(value)
}

// GetString returns the string value of key.
func (c *ConfigLookup) GetString(key string) string {
	value, ok := c.Lookup(key)
	if !ok {
		return ""
	}

	return cast.ToString(value)
}

// GetStringSlice returns the list value of key. A plain string, as set through the environment,
// is split on commas.
func (c *ConfigLookup) GetStringSlice(key string) []string {
	value, ok := c.Lookup(key)
	if !ok {
		return nil
	}

	if s, isString := value.(string); isString {
		if s == "" {
			return nil
		}

		return strings.Split(s, ",")
	}

	return cast.ToStringSlice(value)
}

// GetDuration returns the duration value of key; strings like "30s" are parsed.
func (c *ConfigLookup) GetDuration(key string) time.Duration {
	value, ok := c.Lookup(key)
	if !ok {
		return 0
	}

	return cast.ToDuration(value)
}
