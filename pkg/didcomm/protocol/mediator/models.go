/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mediator

import (
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// constants for coordinate mediation spec types.
const (
	// Coordination coordinate mediation protocol.
	Coordination = "coordinate-mediation"

	// CoordinationSpec defines the coordinate mediation spec.
	CoordinationSpec = "https://didcomm.org/coordinate-mediation/2.0/"

	// RequestMsgType defines the mediation request message type.
	RequestMsgType = CoordinationSpec + "mediate-request"

	// GrantMsgType defines the mediation grant message type.
	GrantMsgType = CoordinationSpec + "mediate-grant"

	// DenyMsgType defines the mediation deny message type.
	DenyMsgType = CoordinationSpec + "mediate-deny"

	// KeylistUpdateMsgType defines the key list update message type.
	KeylistUpdateMsgType = CoordinationSpec + "keylist-update"

	// KeylistUpdateResponseMsgType defines the key list update response message type.
	KeylistUpdateResponseMsgType = CoordinationSpec + "keylist-update-response"

	// KeylistQueryMsgType defines the key list query message type.
	KeylistQueryMsgType = CoordinationSpec + "keylist-query"

	// KeylistMsgType defines the key list message type.
	KeylistMsgType = CoordinationSpec + "keylist"
)

// constants for key list update processing.
const (
	// ActionAdd adds a recipient DID to the mediator.
	ActionAdd = "add"

	// ActionRemove removes a recipient DID from the mediator.
	ActionRemove = "remove"

	// ResultSuccess key update success.
	ResultSuccess = "success"

	// ResultNoChange key already in the requested state.
	ResultNoChange = "no_change"

	// ResultServerError server error while storing the key.
	ResultServerError = "server_error"

	// ResultClientError invalid update.
	ResultClientError = "client_error"
)

// Request is the mediate-request. It has an empty body.
type Request struct {
	protocol.Envelope
}

// FromMessage reads a mediate-request.
func (r *Request) FromMessage(msg *message.Message) error {
	return decode(msg, RequestMsgType, &r.Envelope, nil)
}

// Message converts r into a generic message.
func (r *Request) Message() (*message.Message, error) {
	return r.Envelope.Message(RequestMsgType, struct{}{})
}

// GrantBody carries the DID senders must route through.
type GrantBody struct {
	RoutingDID string `json:"routing_did"`
}

// Grant is the mediate-grant.
type Grant struct {
	protocol.Envelope
	Body GrantBody
}

// FromMessage reads a mediate-grant.
func (g *Grant) FromMessage(msg *message.Message) error {
	return decode(msg, GrantMsgType, &g.Envelope, &g.Body)
}

// Message converts g into a generic message.
func (g *Grant) Message() (*message.Message, error) {
	return g.Envelope.Message(GrantMsgType, g.Body)
}

// RoutingDID parses the granted routing DID.
func (g *Grant) RoutingDID() (did.DID, error) {
	return did.Parse(g.Body.RoutingDID)
}

// Deny is the mediate-deny.
type Deny struct {
	protocol.Envelope
}

// FromMessage reads a mediate-deny.
func (d *Deny) FromMessage(msg *message.Message) error {
	return decode(msg, DenyMsgType, &d.Envelope, nil)
}

// Message converts d into a generic message.
func (d *Deny) Message() (*message.Message, error) {
	return d.Envelope.Message(DenyMsgType, struct{}{})
}

// Update is one keylist change.
type Update struct {
	RecipientDID string `json:"recipient_did"`
	Action       string `json:"action"`
}

// KeylistUpdateBody lists the changes.
type KeylistUpdateBody struct {
	Updates []Update `json:"updates"`
}

// KeylistUpdate adds or removes recipient DIDs routed by the mediator.
type KeylistUpdate struct {
	protocol.Envelope
	Body KeylistUpdateBody
}

// NewKeylistUpdate builds an update applying action to every DID.
func NewKeylistUpdate(env protocol.Envelope, action string, dids ...did.DID) *KeylistUpdate {
	u := &KeylistUpdate{Envelope: env}

	for _, d := range dids {
		u.Body.Updates = append(u.Body.Updates, Update{RecipientDID: d.String(), Action: action})
	}

	return u
}

// FromMessage reads a keylist-update.
func (k *KeylistUpdate) FromMessage(msg *message.Message) error {
	return decode(msg, KeylistUpdateMsgType, &k.Envelope, &k.Body)
}

// Message converts k into a generic message.
func (k *KeylistUpdate) Message() (*message.Message, error) {
	return k.Envelope.Message(KeylistUpdateMsgType, k.Body)
}

// UpdateResponse is the outcome of one keylist change.
type UpdateResponse struct {
	RecipientDID string `json:"recipient_did"`
	Action       string `json:"action"`
	Result       string `json:"result"`
}

// KeylistUpdateResponseBody lists the outcomes.
type KeylistUpdateResponseBody struct {
	Updated []UpdateResponse `json:"updated"`
}

// KeylistUpdateResponse answers a KeylistUpdate.
type KeylistUpdateResponse struct {
	protocol.Envelope
	Body KeylistUpdateResponseBody
}

// FromMessage reads a keylist-update-response.
func (k *KeylistUpdateResponse) FromMessage(msg *message.Message) error {
	return decode(msg, KeylistUpdateResponseMsgType, &k.Envelope, &k.Body)
}

// Message converts k into a generic message.
func (k *KeylistUpdateResponse) Message() (*message.Message, error) {
	return k.Envelope.Message(KeylistUpdateResponseMsgType, k.Body)
}

// Failed returns the updates the mediator did not apply.
func (k *KeylistUpdateResponse) Failed() []UpdateResponse {
	var failed []UpdateResponse

	for _, u := range k.Body.Updated {
		if u.Result != ResultSuccess && u.Result != ResultNoChange {
			failed = append(failed, u)
		}
	}

	return failed
}

// Paginate selects a window of the keylist.
type Paginate struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// KeylistQueryBody optionally paginates the query.
type KeylistQueryBody struct {
	Paginate *Paginate `json:"paginate,omitempty"`
}

// KeylistQuery asks the mediator for the routed DIDs.
type KeylistQuery struct {
	protocol.Envelope
	Body KeylistQueryBody
}

// FromMessage reads a keylist-query.
func (k *KeylistQuery) FromMessage(msg *message.Message) error {
	return decode(msg, KeylistQueryMsgType, &k.Envelope, &k.Body)
}

// Message converts k into a generic message.
func (k *KeylistQuery) Message() (*message.Message, error) {
	return k.Envelope.Message(KeylistQueryMsgType, k.Body)
}

// Key is one routed DID.
type Key struct {
	RecipientDID string `json:"recipient_did"`
}

// Pagination describes the window returned in a Keylist.
type Pagination struct {
	Count     int `json:"count"`
	Offset    int `json:"offset"`
	Remaining int `json:"remaining"`
}

// KeylistBody lists the routed DIDs.
type KeylistBody struct {
	Keys       []Key       `json:"keys"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Keylist answers a KeylistQuery.
type Keylist struct {
	protocol.Envelope
	Body KeylistBody
}

// FromMessage reads a keylist.
func (k *Keylist) FromMessage(msg *message.Message) error {
	return decode(msg, KeylistMsgType, &k.Envelope, &k.Body)
}

// Message converts k into a generic message.
func (k *Keylist) Message() (*message.Message, error) {
	return k.Envelope.Message(KeylistMsgType, k.Body)
}

func decode(msg *message.Message, piuri string, env *protocol.Envelope, body interface{}) error {
	e, err := protocol.ParseEnvelope(msg, piuri)
	if err != nil {
		return err
	}

	if body != nil {
		if err = msg.DecodeBody(body); err != nil {
			return err
		}
	}

	*env = e

	return nil
}
