/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
)

const maxPayloadSize = 10 << 20

// NewInboundHandler will create a new handler to enforce Did-Comm HTTP transport specs
// then routes processing to the mandatory 'msgHandler' argument.
//
// Arguments:
//   - 'path' is the route the handler listens on, e.g. "/didcomm".
//   - 'msgHandler' is the handler function that will be executed with the inbound message.
func NewInboundHandler(path string, msgHandler transport.InboundMessageHandler) (http.Handler, error) {
	if msgHandler == nil {
		logger.Errorf("Error creating a new inbound handler: message handler function is nil")

		return nil, errors.New("failed to create NewInboundHandler")
	}

	router := mux.NewRouter()
	router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		processPOSTRequest(w, r, msgHandler)
	}).Methods(http.MethodPost)

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		},
	).Handler(router), nil
}

func processPOSTRequest(w http.ResponseWriter, r *http.Request, messageHandler transport.InboundMessageHandler) {
	if valid := validateContentType(w, r); !valid {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		logger.Errorf("Error reading request body: %s - returning Code: %d", err, http.StatusInternalServerError)
		http.Error(w, "Failed to read payload", http.StatusInternalServerError)

		return
	}

	if len(body) == 0 {
		http.Error(w, "Empty payload", http.StatusBadRequest)

		return
	}

	msg := &message.Message{}
	if err = json.Unmarshal(body, msg); err != nil {
		logger.Warnf("rejecting inbound payload: %v", err)
		http.Error(w, "Invalid message", http.StatusBadRequest)

		return
	}

	msg.Direction = message.Received

	if err = messageHandler(r.Context(), msg); err != nil {
		logger.Errorf("failed to handle inbound message %s: %v", msg.ID, err)
		http.Error(w, "Failed to process the message", http.StatusInternalServerError)

		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// validateContentType validate content-type.
func validateContentType(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-type")
	if !transport.IsPlaintext(ct) {
		http.Error(w, fmt.Sprintf("Unsupported Content-type \"%s\"", ct), http.StatusUnsupportedMediaType)

		return false
	}

	return true
}
