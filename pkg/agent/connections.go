/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/connection"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/outofbandv2"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
)

// ParseOOBInvitation reads an out-of-band invitation, given as an invitation URL or as the
// invitation message JSON.
func (a *Agent) ParseOOBInvitation(invitation string) (*outofbandv2.Invitation, error) {
	s := strings.TrimSpace(invitation)
	if strings.HasPrefix(s, "{") {
		return outofbandv2.ParseInvitation([]byte(s))
	}

	return outofbandv2.ParseInvitationURL(s)
}

// AcceptOOBInvitation answers inv with a connection request from a new peer DID and stores the
// pair. The peer DID is routed through the mediator when there is one. The pair alias is the
// invitation goal.
func (a *Agent) AcceptOOBInvitation(ctx context.Context, inv *outofbandv2.Invitation) (*store.DIDPair, error) {
	if inv == nil || inv.From.IsZero() {
		return nil, fmt.Errorf("%w: no inviter", ErrInvalidMessageType)
	}

	_, mediated := a.mediator.Config()

	holder, err := a.CreateNewPeerDID(ctx, nil, mediated)
	if err != nil {
		return nil, err
	}

	request, err := connection.RequestFromInvitation(inv, holder).Message()
	if err != nil {
		return nil, err
	}

	reply, err := a.SendMessage(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("send connection request: %w", err)
	}

	if reply != nil {
		if err = requireType(reply, connection.AcceptMsgType); err != nil {
			return nil, err
		}
	}

	pair := store.DIDPair{Holder: holder, Recipient: inv.From, Alias: inv.Body.Goal}

	if err = a.pluto.StoreDIDPair(ctx, pair); err != nil && !errors.Is(err, store.ErrDuplicateID) {
		return nil, err
	}

	a.logger.Infof("connected %s with %s", holder, inv.From)

	return &pair, nil
}
