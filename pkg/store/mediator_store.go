/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const mediatorTag = "mediator"

// AddMediator saves cfg. A later grant for the same mediator and holder replaces it.
func (p *Pluto) AddMediator(ctx context.Context, cfg *mediator.Config) error {
	if cfg == nil || cfg.MediatorDID.IsZero() || cfg.HolderDID.IsZero() || cfg.RoutingDID.IsZero() {
		return fmt.Errorf("%w: mediator, holder and routing DIDs", ErrMissingRequiredFields)
	}

	return putJSON(ctx, p.mediators, pairKey(cfg.MediatorDID, cfg.HolderDID), cfg, storage.Tag{Name: mediatorTag})
}

// Mediators returns every stored mediation.
func (p *Pluto) Mediators(ctx context.Context) ([]*mediator.Config, error) {
	var configs []*mediator.Config

	err := queryJSON(ctx, p.mediators, mediatorTag, func(_ string, data []byte) error {
		cfg := &mediator.Config{}
		if err := json.Unmarshal(data, cfg); err != nil {
			return err
		}

		configs = append(configs, cfg)

		return nil
	})

	return configs, err
}
