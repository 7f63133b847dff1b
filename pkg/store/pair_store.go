/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const (
	pairTag      = "pair"
	holderTag    = "holder"
	recipientTag = "recipient"
)

// DIDPair is a connection: a DID of the wallet and the DID of the other party.
type DIDPair struct {
	Holder    did.DID `json:"holder"`
	Recipient did.DID `json:"recipient"`
	Alias     string  `json:"alias,omitempty"`
}

// StoreDIDPair saves pair. A pair of the same DIDs fails with ErrDuplicateID.
func (p *Pluto) StoreDIDPair(ctx context.Context, pair DIDPair) error {
	if pair.Holder.IsZero() || pair.Recipient.IsZero() {
		return fmt.Errorf("%w: holder and recipient", ErrMissingRequiredFields)
	}

	return p.insertJSON(ctx, p.pairs, pairKey(pair.Holder, pair.Recipient), pair,
		storage.Tag{Name: pairTag},
		storage.Tag{Name: holderTag, Value: tagValue(pair.Holder.String())},
		storage.Tag{Name: recipientTag, Value: tagValue(pair.Recipient.String())},
	)
}

// DIDPairs returns every stored pair.
func (p *Pluto) DIDPairs(ctx context.Context) ([]DIDPair, error) {
	return p.queryPairs(ctx, pairTag)
}

// DIDPairsOf returns the pairs where d is the holder or the recipient.
func (p *Pluto) DIDPairsOf(ctx context.Context, d did.DID) ([]DIDPair, error) {
	held, err := p.queryPairs(ctx, holderTag+":"+tagValue(d.String()))
	if err != nil {
		return nil, err
	}

	received, err := p.queryPairs(ctx, recipientTag+":"+tagValue(d.String()))
	if err != nil {
		return nil, err
	}

	return append(held, received...), nil
}

func (p *Pluto) queryPairs(ctx context.Context, expression string) ([]DIDPair, error) {
	var pairs []DIDPair

	err := queryJSON(ctx, p.pairs, expression, func(_ string, data []byte) error {
		var pair DIDPair
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}

		pairs = append(pairs, pair)

		return nil
	})

	return pairs, err
}

func pairKey(holder, recipient did.DID) string {
	return holder.String() + "|" + recipient.String()
}
