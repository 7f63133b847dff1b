/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/peer"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/prism"
)

const mediatedServiceID = "#didcomm-1"

// CreateNewPeerDID creates a did:peer:2 with an X25519 key agreement key and an Ed25519
// authentication key, derived at the next two HD indexes. With updateMediator the DID advertises
// the mediator routing DID and is added to the mediator keylist.
func (a *Agent) CreateNewPeerDID(ctx context.Context, services []did.Service, updateMediator bool) (did.DID, error) {
	if updateMediator {
		cfg, err := a.requireMediation()
		if err != nil {
			return did.DID{}, err
		}

		services = append(services, did.Service{
			ID:       mediatedServiceID,
			Type:     []string{did.DIDCommMessagingServiceType},
			Endpoint: cfg.Endpoint(),
		})
	}

	id, err := a.createPeerDID(ctx, services)
	if err != nil {
		return did.DID{}, err
	}

	if updateMediator {
		if err = a.mediator.UpdateKeyList(ctx, mediator.ActionAdd, id); err != nil {
			return did.DID{}, fmt.Errorf("add %s to mediator keylist: %w", id, err)
		}
	}

	return id, nil
}

func (a *Agent) createPeerDID(ctx context.Context, services []did.Service) (did.DID, error) {
	a.keyMu.Lock()
	defer a.keyMu.Unlock()

	last, err := a.pluto.LastKeyPathIndex(ctx)
	if err != nil {
		return did.DID{}, err
	}

	agreement, err := a.km.CreatePrivateKey(keys.X25519, kms.WithSeed(a.cfg.Seed), kms.WithIndex(last+1))
	if err != nil {
		return did.DID{}, err
	}

	authentication, err := a.km.CreatePrivateKey(keys.Ed25519, kms.WithSeed(a.cfg.Seed), kms.WithIndex(last+2)) //nolint:gomnd
	if err != nil {
		return did.DID{}, err
	}

	id, err := peer.Create([]keys.PublicKey{agreement.PublicKey()}, []keys.PublicKey{authentication.PublicKey()},
		services)
	if err != nil {
		return did.DID{}, err
	}

	if err = a.storeDID(ctx, id, agreement, authentication); err != nil {
		return did.DID{}, err
	}

	a.logger.Debugf("created peer DID %s", id)

	return id, nil
}

// CreateNewPrismDID creates a long form did:prism whose master key is derived at keyPathIndex, or
// at the next HD index when keyPathIndex is nil. The same index always gives the same DID.
func (a *Agent) CreateNewPrismDID(ctx context.Context, keyPathIndex *uint32, services []did.Service) (did.DID, error) {
	a.keyMu.Lock()
	defer a.keyMu.Unlock()

	var index uint32

	if keyPathIndex != nil {
		index = *keyPathIndex
	} else {
		last, err := a.pluto.LastKeyPathIndex(ctx)
		if err != nil {
			return did.DID{}, err
		}

		index = last + 1
	}

	master, err := a.km.CreatePrivateKey(keys.Secp256k1, kms.WithSeed(a.cfg.Seed), kms.WithIndex(index))
	if err != nil {
		return did.DID{}, err
	}

	id, err := prism.Create(master.PublicKey(), services)
	if err != nil {
		return did.DID{}, err
	}

	if err = a.storeDID(ctx, id, master); err != nil {
		return did.DID{}, err
	}

	a.logger.Debugf("created prism DID %s at index %d", prism.ShortForm(id), index)

	return id, nil
}

// storeDID saves id and its keys. A DID already in the wallet is kept as it is: derivation is
// deterministic, so the stored keys are the same.
func (a *Agent) storeDID(ctx context.Context, id did.DID, privs ...keys.PrivateKey) error {
	if err := a.pluto.StoreDID(ctx, id, ""); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			return nil
		}

		return err
	}

	for _, priv := range privs {
		stored, err := kms.ToStoredKey(priv)
		if err != nil {
			return err
		}

		if _, err = a.pluto.StorePrivateKey(ctx, id, stored); err != nil && !errors.Is(err, store.ErrDuplicateID) {
			return err
		}
	}

	return nil
}

// ResolveDID resolves id through the peer, prism and configured methods.
func (a *Agent) ResolveDID(ctx context.Context, id did.DID) (*did.Doc, error) {
	return a.registry.ResolveDID(ctx, id)
}

// SignWith signs payload with the signing key of a DID of the wallet.
func (a *Agent) SignWith(ctx context.Context, id did.DID, payload []byte) ([]byte, error) {
	key, _, err := a.signingKey(ctx, id)
	if err != nil {
		return nil, err
	}

	return kms.Sign(key, payload)
}

// signingKey returns the first stored key of id able to sign, along with the verification method
// of the DID document holding its public key. The method id is empty when the document does not
// list the key.
func (a *Agent) signingKey(ctx context.Context, id did.DID) (keys.PrivateKey, string, error) {
	records, err := a.pluto.PrivateKeysOf(ctx, id)
	if err != nil {
		return nil, "", err
	}

	var key keys.PrivateKey

	for _, r := range records {
		priv, err := a.km.RestorePrivateKey(r.Key)
		if err != nil {
			return nil, "", fmt.Errorf("restore key %s: %w", r.ID, err)
		}

		if _, ok := priv.(keys.Signer); ok {
			key = priv

			break
		}
	}

	if key == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrCannotFindDIDKeyPair, id)
	}

	doc, err := a.ResolveDID(ctx, id)
	if err != nil {
		a.logger.Debugf("resolve %s for the key id: %v", id, err)

		return key, "", nil
	}

	raw := key.PublicKey().Raw()
	vms := doc.VerificationMethods()

	for i := range vms {
		pub, err := vms[i].PublicKey()
		if err == nil && pub.Curve() == key.Curve() && bytes.Equal(pub.Raw(), raw) {
			return key, vms[i].ID.String(), nil
		}
	}

	return key, "", nil
}
