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
	didTag    = "did"
	aliasTag  = "alias"
	methodTag = "method"
)

// DIDRecord is a DID owned by the wallet with its optional alias.
type DIDRecord struct {
	DID   did.DID `json:"did"`
	Alias string  `json:"alias,omitempty"`
}

// StoreDID saves d with alias. Storing a DID twice fails with ErrDuplicateID.
func (p *Pluto) StoreDID(ctx context.Context, d did.DID, alias string) error {
	if d.IsZero() {
		return fmt.Errorf("%w: did", ErrMissingRequiredFields)
	}

	tags := []storage.Tag{{Name: didTag}, {Name: methodTag, Value: tagValue(d.Method)}}
	if alias != "" {
		tags = append(tags, storage.Tag{Name: aliasTag, Value: tagValue(alias)})
	}

	return p.insertJSON(ctx, p.dids, d.String(), DIDRecord{DID: d, Alias: alias}, tags...)
}

// DID returns the record of id.
func (p *Pluto) DID(ctx context.Context, id string) (*DIDRecord, error) {
	var r DIDRecord
	if err := getJSON(ctx, p.dids, id, &r); err != nil {
		return nil, err
	}

	return &r, nil
}

// DIDs returns every stored DID ordered by DID string.
func (p *Pluto) DIDs(ctx context.Context) ([]DIDRecord, error) {
	return p.queryDIDs(ctx, didTag)
}

// DIDsByAlias returns the DIDs stored with alias.
func (p *Pluto) DIDsByAlias(ctx context.Context, alias string) ([]DIDRecord, error) {
	return p.queryDIDs(ctx, aliasTag+":"+tagValue(alias))
}

// DIDsByMethod returns the DIDs of method, for instance "peer" or "prism".
func (p *Pluto) DIDsByMethod(ctx context.Context, method string) ([]DIDRecord, error) {
	return p.queryDIDs(ctx, methodTag+":"+tagValue(method))
}

func (p *Pluto) queryDIDs(ctx context.Context, expression string) ([]DIDRecord, error) {
	var records []DIDRecord

	err := queryJSON(ctx, p.dids, expression, func(_ string, data []byte) error {
		var r DIDRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}

		records = append(records, r)

		return nil
	})

	return records, err
}
