/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
)

// Start establishes mediation with the configured mediator: a mediation stored by an earlier run
// is reused, otherwise a new holder peer DID requests it and is added to the keylist. Calling Start
// on a started agent does nothing. Without a configured mediator the agent starts unmediated.
func (a *Agent) Start(ctx context.Context) error {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	if a.started {
		return nil
	}

	if !a.cfg.MediatorDID.IsZero() {
		if err := a.startMediation(ctx); err != nil {
			return err
		}
	}

	a.started = true
	a.logger.Infof("agent started")

	return nil
}

func (a *Agent) startMediation(ctx context.Context) error {
	cfg, ok, err := a.mediator.Bootstrap(ctx, a.cfg.MediatorDID)
	if err != nil {
		return err
	}

	if ok {
		a.logger.Infof("mediation with %s restored, routing through %s", cfg.MediatorDID, cfg.RoutingDID)

		return nil
	}

	holder, err := a.CreateNewPeerDID(ctx, nil, false)
	if err != nil {
		return fmt.Errorf("create mediation holder DID: %w", err)
	}

	if _, err = a.mediator.AchieveMediation(ctx, holder, a.cfg.MediatorDID); err != nil {
		return err
	}

	return a.mediator.UpdateKeyList(ctx, mediator.ActionAdd, holder)
}

// requireMediation returns the established mediation or ErrNoMediatorAvailable.
func (a *Agent) requireMediation() (*mediator.Config, error) {
	cfg, ok := a.mediator.Config()
	if !ok {
		return nil, ErrNoMediatorAvailable
	}

	return cfg, nil
}

func (a *Agent) isStarted() bool {
	a.startMu.Lock()
	defer a.startMu.Unlock()

	return a.started
}
