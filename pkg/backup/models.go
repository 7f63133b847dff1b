/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package backup

// Wallet is the plaintext of a backup.
type Wallet struct {
	Keys        []Key        `json:"keys"`
	LinkSecret  string       `json:"link_secret,omitempty"`
	DIDs        []DID        `json:"dids"`
	DIDPairs    []DIDPair    `json:"did_pairs"`
	Credentials []Credential `json:"credentials"`
	// Messages are base64url encoded DIDComm plaintext messages.
	Messages  []string   `json:"messages"`
	Mediators []Mediator `json:"mediators"`
}

// Key is a private key. Key holds the base64url encoded JWK.
type Key struct {
	Key        string  `json:"key"`
	DID        string  `json:"did,omitempty"`
	Index      *uint32 `json:"index,omitempty"`
	RecoveryID string  `json:"recovery_id"`
}

// DID is a wallet DID with its alias.
type DID struct {
	DID   string `json:"did"`
	Alias string `json:"alias,omitempty"`
}

// DIDPair is a connection.
type DIDPair struct {
	Holder    string `json:"holder"`
	Recipient string `json:"recipient"`
	Alias     string `json:"alias"`
}

// Credential holds the base64url encoded storable data of a credential.
type Credential struct {
	Data       string `json:"data"`
	RecoveryID string `json:"recovery_id"`
}

// Mediator is an established mediation.
type Mediator struct {
	MediatorDID string `json:"mediator_did"`
	HolderDID   string `json:"holder_did"`
	RoutingDID  string `json:"routing_did"`
}
