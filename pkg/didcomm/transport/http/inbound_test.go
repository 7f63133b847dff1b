/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
)

func TestInboundHandler(t *testing.T) {
	_, err := NewInboundHandler("/", nil)
	require.Error(t, err)

	var got *message.Message

	handler, err := NewInboundHandler("/didcomm", func(_ context.Context, msg *message.Message) error {
		if msg.PIURI == "fail" {
			return errors.New("boom")
		}

		got = msg

		return nil
	})
	require.NoError(t, err)

	post := func(ct, body string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/didcomm", strings.NewReader(body))
		req.Header.Set("Content-Type", ct)
		handler.ServeHTTP(rec, req)

		return rec.Code
	}

	require.Equal(t, http.StatusAccepted, post(transport.MediaTypePlaintext,
		`{"id":"1","type":"https://didcomm.org/basicmessage/2.0/message","body":{"content":"hi"}}`))
	require.Equal(t, "1", got.ID)
	require.Equal(t, message.Received, got.Direction)

	require.Equal(t, http.StatusUnsupportedMediaType, post("text/plain", `{}`))
	require.Equal(t, http.StatusBadRequest, post(transport.MediaTypePlaintext, ``))
	require.Equal(t, http.StatusBadRequest, post(transport.MediaTypePlaintext, `not json`))
	require.Equal(t, http.StatusInternalServerError, post(transport.MediaTypePlaintext, `{"id":"2","type":"fail"}`))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/didcomm", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
