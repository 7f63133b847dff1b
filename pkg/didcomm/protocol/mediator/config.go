/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mediator

import "github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"

// Config is an established mediation: who mediates for which holder DID, and the
// DID senders route through.
type Config struct {
	MediatorDID did.DID `json:"mediator_did"`
	HolderDID   did.DID `json:"holder_did"`
	RoutingDID  did.DID `json:"routing_did"`
}

// NewConfig creates new config instance.
func NewConfig(mediatorDID, holderDID, routingDID did.DID) *Config {
	return &Config{
		MediatorDID: mediatorDID,
		HolderDID:   holderDID,
		RoutingDID:  routingDID,
	}
}

// Endpoint returns the DIDComm service a peer DID should advertise so that senders reach
// the holder through the mediator.
func (c *Config) Endpoint() did.ServiceEndpoint {
	return did.ServiceEndpoint{URI: c.RoutingDID.String(), Accept: []string{"didcomm/v2"}}
}
