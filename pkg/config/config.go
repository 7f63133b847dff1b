/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads agent settings from a YAML or JSON document and the EDGE_AGENT_*
// environment. Environment variables win over the document.
package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
)

const defaultEnvPrefix = "EDGE_AGENT"

// Backend looks up configuration values. Keys are dotted paths, e.g. "mediator.did".
type Backend interface {
	Lookup(key string) (interface{}, bool)
}

type settings struct {
	envPrefix string
}

// Option customizes a Backend.
type Option func(s *settings)

// WithEnvPrefix replaces the EDGE_AGENT prefix of the environment variables.
func WithEnvPrefix(prefix string) Option {
	return func(s *settings) {
		s.envPrefix = prefix
	}
}

// FromReader reads a document of configType ("json" or "yaml") from in.
func FromReader(in io.Reader, configType string, opts ...Option) (Backend, error) {
	if configType == "" {
		return nil, errors.New("empty config type")
	}

	b := newBackend(opts)
	b.v.SetConfigType(configType)

	if err := b.v.MergeConfig(in); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return b, nil
}

// FromFile reads the named file; its extension gives the format.
func FromFile(name string, opts ...Option) (Backend, error) {
	if name == "" {
		return nil, errors.New("filename is required")
	}

	b := newBackend(opts)
	b.v.SetConfigFile(name)

	if err := b.v.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("loading config file failed: %w", err)
	}

	return b, nil
}

// FromEnv returns a backend over the environment alone.
func FromEnv(opts ...Option) Backend {
	return newBackend(opts)
}

type viperBackend struct {
	v *viper.Viper
}

func newBackend(opts []Option) *viperBackend {
	s := settings{envPrefix: defaultEnvPrefix}

	for _, opt := range opts {
		opt(&s)
	}

	v := viper.New()
	v.SetEnvPrefix(s.envPrefix)
	// mediator.did and fetch-interval map to EDGE_AGENT_MEDIATOR_DID and EDGE_AGENT_FETCH_INTERVAL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &viperBackend{v: v}
}

// Lookup returns the value of key, or false when it is not set.
func (b *viperBackend) Lookup(key string) (interface{}, bool) {
	value := b.v.Get(key)

	return value, value != nil
}
