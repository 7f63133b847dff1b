/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/errcode"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
)

// Error codes of the agent domain.
const (
	NoMediatorAvailable = errcode.Code(iota + errcode.Agent)
	InvalidMessageType
	CannotFindDIDKeyPair
	AgentNotStarted
	InvalidConfiguration
	ThreadNotFound
)

var (
	// ErrNoMediatorAvailable is returned when an operation needs a mediation and none is established.
	ErrNoMediatorAvailable = errcode.New(NoMediatorAvailable, errcode.ExecuteError, "no mediator available")
	// ErrInvalidMessageType is returned when a message handed to the agent is not of the expected protocol.
	ErrInvalidMessageType = errcode.New(InvalidMessageType, errcode.ValidationError, "invalid message type")
	// ErrCannotFindDIDKeyPair is returned when no private key of a DID is stored.
	ErrCannotFindDIDKeyPair = errcode.New(CannotFindDIDKeyPair, errcode.ExecuteError,
		"cannot find private key of DID")
	// ErrAgentNotStarted is returned by operations called before Start.
	ErrAgentNotStarted = errcode.New(AgentNotStarted, errcode.ExecuteError, "agent not started")
	// ErrInvalidConfiguration is returned by New for unusable configurations.
	ErrInvalidConfiguration = errcode.New(InvalidConfiguration, errcode.ValidationError, "invalid configuration")
	// ErrThreadNotFound is returned when a message answers a thread the agent has no record of.
	ErrThreadNotFound = errcode.New(ThreadNotFound, errcode.ExecuteError, "thread not found")
)

// requireType fails with ErrInvalidMessageType, joined with the protocol error, unless msg is one of piuris.
func requireType(msg *message.Message, piuris ...string) error {
	if msg == nil {
		return fmt.Errorf("%w: no message", ErrInvalidMessageType)
	}

	if err := protocol.CheckType(msg.PIURI, piuris...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessageType, err)
	}

	return nil
}
