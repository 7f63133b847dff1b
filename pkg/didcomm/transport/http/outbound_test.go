/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
)

func TestOutboundHTTPTransport(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		ot := NewOutbound()
		require.True(t, ot.Accept("https://agent.example.com"))
		require.True(t, ot.Accept("http://localhost:8080"))
		require.False(t, ot.Accept("ws://localhost:8080"))
	})

	t.Run("success returns reply body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, transport.MediaTypePlaintext, r.Header.Get("Content-Type"))

			b, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.Equal(t, "ping", string(b))

			_, err = w.Write([]byte("pong"))
			require.NoError(t, err)
		}))
		defer srv.Close()

		resp, err := NewOutbound().Send(context.Background(), []byte("ping"), srv.URL)
		require.NoError(t, err)
		require.Equal(t, "pong", string(resp))
	})

	t.Run("non success status is not retried", func(t *testing.T) {
		var calls int32

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := NewOutbound(WithRetries(2)).Send(context.Background(), []byte("ping"), srv.URL)
		require.ErrorIs(t, err, ErrNonSuccessStatus)
		require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("connection failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewOutbound(WithRetries(0)).Send(context.Background(), []byte("ping"), url)
		require.Error(t, err)
		require.Contains(t, err.Error(), "post to")
	})
}
