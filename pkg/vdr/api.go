/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vdr resolves DIDs by dispatching to method specific verifiable data registries.
package vdr

import (
	"context"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

// VDR resolves the DIDs of one or more methods.
type VDR interface {
	Accept(method string) bool
	Read(ctx context.Context, id did.DID) (*did.Doc, error)
	Close() error
}

// Resolver is the read side of the registry consumed by the rest of the agent.
type Resolver interface {
	Resolve(ctx context.Context, id string) (*did.Doc, error)
}
