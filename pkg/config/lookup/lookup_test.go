/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lookup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/config"
)

const yamlConfig = `
mediator:
  did: did:peer:2.mediator
fetch:
  interval: 30s
http:
  cors: true
resolvers:
  - https://resolver.example/1.0/identifiers/
  - https://backup.example/identifiers/
`

func TestConfigLookup(t *testing.T) {
	backend, err := config.FromReader(strings.NewReader(yamlConfig), "yaml")
	require.NoError(t, err)

	c := New(backend)

	t.Run("found", func(t *testing.T) {
		require.Equal(t, "did:peer:2.mediator", c.GetString("mediator.did"))
		require.Equal(t, 30*time.Second, c.GetDuration("fetch.interval"))
		require.True(t, c.GetBool("http.cors"))
		require.Len(t, c.GetStringSlice("resolvers"), 2)
	})

	t.Run("not found", func(t *testing.T) {
		require.Empty(t, c.GetString("mediator.endpoint"))
		require.Zero(t, c.GetDuration("fetch.timeout"))
		require.False(t, c.GetBool("http.tls"))
		require.Nil(t, c.GetStringSlice("outbound"))
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("EDGE_AGENT_OUTBOUND", "http,ws")
		t.Setenv("EDGE_AGENT_MEDIATOR_DID", "did:peer:2.other")

		require.Equal(t, []string{"http", "ws"}, c.GetStringSlice("outbound"))
		require.Equal(t, "did:peer:2.other", c.GetString("mediator.did"))
	})
}

func TestFromReaderErrors(t *testing.T) {
	_, err := config.FromReader(strings.NewReader(yamlConfig), "")
	require.EqualError(t, err, "empty config type")

	_, err = config.FromReader(strings.NewReader("{"), "json")
	require.ErrorContains(t, err, "read config")

	_, err = config.FromFile("")
	require.EqualError(t, err, "filename is required")

	_, err = config.FromFile("/does/not/exist.yaml")
	require.ErrorContains(t, err, "loading config file failed")
}
