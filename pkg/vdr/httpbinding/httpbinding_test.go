/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

const webDoc = `{"@context":["https://www.w3.org/ns/did/v1"],"id":"did:web:example.com"}`

func TestRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tk", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/1.0/identifiers/did:web:example.com":
			w.Header().Set("Content-type", didLDJson)
			fmt.Fprint(w, webDoc)
		case "/1.0/identifiers/did:web:wrapped.com":
			fmt.Fprintf(w, `{"didDocument":{"id":"did:web:wrapped.com"},"didDocumentMetadata":{}}`)
		case "/1.0/identifiers/did:web:broken.com":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	v, err := New(srv.URL+"/1.0/identifiers", WithResolveAuthToken("tk"),
		WithAccept(func(method string) bool { return method == "web" }))
	require.NoError(t, err)
	require.True(t, v.Accept("web"))
	require.False(t, v.Accept("peer"))

	doc, err := v.Read(context.Background(), did.MustParse("did:web:example.com"))
	require.NoError(t, err)
	require.Equal(t, "did:web:example.com", doc.ID.String())

	doc, err = v.Read(context.Background(), did.MustParse("did:web:wrapped.com"))
	require.NoError(t, err)
	require.Equal(t, "did:web:wrapped.com", doc.ID.String())

	_, err = v.Read(context.Background(), did.MustParse("did:web:missing.com"))
	require.ErrorIs(t, err, did.ErrUnresolvable)

	_, err = v.Read(context.Background(), did.MustParse("did:web:broken.com"))
	require.Error(t, err)
	require.NoError(t, v.Close())

	_, err = New("not a url")
	require.Error(t, err)
}
