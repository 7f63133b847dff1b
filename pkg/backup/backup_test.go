/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package backup

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/anoncreds"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/jose"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/x25519"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage/mem"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
)

var (
	holder    = did.New("peer", "2.Ez6LSholder")
	issuer    = did.New("peer", "2.Ez6LSissuer")
	routing   = did.New("peer", "2.Ez6LSrouting")
	prismDID  = did.New("prism", "0f1a2b")
	mediatorD = did.New("peer", "2.Ez6LSmediator")
)

func seedOf(b byte) kms.Seed {
	seed := make(kms.Seed, 64)
	for i := range seed {
		seed[i] = b + byte(i)
	}

	return seed
}

func newStore(t *testing.T) *store.Pluto {
	t.Helper()

	p, err := store.New(mem.NewProvider())
	require.NoError(t, err)

	return p
}

type fixture struct {
	sent     *message.Message
	received *message.Message
	cred     store.CredentialRecord
}

func populate(t *testing.T, ctx context.Context, p *store.Pluto, seed kms.Seed) *fixture {
	t.Helper()

	km := kms.New()

	require.NoError(t, p.StoreDID(ctx, holder, "alice"))
	require.NoError(t, p.StoreDID(ctx, prismDID, ""))

	prismKey, err := km.CreatePrivateKey(keys.Secp256k1, kms.WithSeed(seed), kms.WithIndex(3))
	require.NoError(t, err)

	stored, err := kms.ToStoredKey(prismKey)
	require.NoError(t, err)

	_, err = p.StorePrivateKey(ctx, prismDID, stored)
	require.NoError(t, err)

	agreement, err := km.CreatePrivateKey(keys.X25519)
	require.NoError(t, err)

	stored, err = kms.ToStoredKey(agreement)
	require.NoError(t, err)

	// owned by a DID the wallet does not list
	_, err = p.StorePrivateKey(ctx, did.New("peer", "2.Ez6LSunknown"), stored)
	require.NoError(t, err)

	require.NoError(t, p.StoreLinkSecret(ctx, &anoncreds.LinkSecret{ID: anoncreds.DefaultLinkSecretID, Secret: "42"}))
	require.NoError(t, p.StoreDIDPair(ctx, store.DIDPair{Holder: holder, Recipient: issuer, Alias: "issuer"}))

	vc := &verifiable.W3CCredential{
		Context:           []string{"https://www.w3.org/2018/credentials/v1"},
		CredID:            "urn:uuid:1234",
		Types:             []string{"VerifiableCredential"},
		CredIssuer:        verifiable.Issuer{ID: issuer.String()},
		CredentialSubject: map[string]interface{}{"id": holder.String()},
	}

	f := &fixture{cred: store.NewCredentialRecord(vc)}
	require.NoError(t, p.StoreCredential(ctx, f.cred))

	f.sent = message.New("https://didcomm.org/basicmessage/2.0/message",
		message.WithFrom(holder), message.WithTo(issuer))
	f.received = message.New("https://didcomm.org/basicmessage/2.0/message",
		message.WithFrom(issuer), message.WithTo(holder), message.WithDirection(message.Received))
	require.NoError(t, p.StoreMessages(ctx, f.sent, f.received))

	require.NoError(t, p.AddMediator(ctx, mediator.NewConfig(mediatorD, holder, routing)))

	return f
}

func TestBackupAndRecover(t *testing.T) {
	ctx := context.Background()
	seed := seedOf(1)

	source := newStore(t)
	f := populate(t, ctx, source, seed)

	jwe, err := New(kms.New(), seed, source).Backup(ctx)
	require.NoError(t, err)
	require.Len(t, strings.Split(jwe, "."), 5)

	target := newStore(t)

	importer := func(data []byte, restorationID string) (verifiable.Credential, error) {
		require.Equal(t, verifiable.W3CRestorationID, restorationID)

		return verifiable.ParseW3CCredential(data)
	}

	svc := New(kms.New(), seed, target, WithImporter(importer))
	require.NoError(t, svc.Recover(ctx, jwe))

	t.Run("records match", func(t *testing.T) {
		requireSameDIDs(t, ctx, source, target)

		srcKeys, err := source.PrivateKeys(ctx)
		require.NoError(t, err)

		dstKeys, err := target.PrivateKeys(ctx)
		require.NoError(t, err)
		require.Equal(t, keyIDs(srcKeys), keyIDs(dstKeys))

		for _, k := range dstKeys {
			if k.DID == prismDID {
				require.NotNil(t, k.Key.Index)
				require.Equal(t, uint32(3), *k.Key.Index)
			}
		}

		last, err := target.LastKeyPathIndex(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(3), last)

		secret, err := target.LinkSecret(ctx)
		require.NoError(t, err)
		require.Equal(t, "42", secret.Secret)

		pairs, err := target.DIDPairs(ctx)
		require.NoError(t, err)
		require.Equal(t, []store.DIDPair{{Holder: holder, Recipient: issuer, Alias: "issuer"}}, pairs)

		creds, err := target.Credentials(ctx)
		require.NoError(t, err)
		require.Len(t, creds, 1)
		require.Equal(t, f.cred.ID, creds[0].ID)
		require.Equal(t, f.cred.RestorationID, creds[0].RestorationID)

		restored, err := verifiable.ParseW3CCredential(creds[0].Data)
		require.NoError(t, err)
		require.Equal(t, issuer.String(), restored.Issuer())

		sent, err := target.MessagesByDirection(ctx, message.Sent)
		require.NoError(t, err)
		require.Len(t, sent, 1)
		require.Equal(t, f.sent.ID, sent[0].ID)

		received, err := target.MessagesByDirection(ctx, message.Received)
		require.NoError(t, err)
		require.Len(t, received, 1)
		require.Equal(t, f.received.ID, received[0].ID)

		mediators, err := target.Mediators(ctx)
		require.NoError(t, err)
		require.Equal(t, []*mediator.Config{mediator.NewConfig(mediatorD, holder, routing)}, mediators)
	})

	t.Run("recovery is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Recover(ctx, jwe))

		dids, err := target.DIDs(ctx)
		require.NoError(t, err)
		require.Len(t, dids, 2)

		msgs, err := target.Messages(ctx)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
	})

	t.Run("recovery is additive", func(t *testing.T) {
		existing := newStore(t)
		other := did.New("peer", "2.Ez6LSexisting")
		require.NoError(t, existing.StoreDID(ctx, other, ""))

		require.NoError(t, New(kms.New(), seed, existing).Recover(ctx, jwe))

		dids, err := existing.DIDs(ctx)
		require.NoError(t, err)
		require.Len(t, dids, 3)
	})

	t.Run("recovery keeps stored messages", func(t *testing.T) {
		existing := newStore(t)
		local := message.New("https://didcomm.org/issue-credential/3.0/offer-credential",
			message.WithID(f.sent.ID), message.WithDirection(message.Received))
		require.NoError(t, existing.InsertMessage(ctx, local))

		require.NoError(t, New(kms.New(), seed, existing).Recover(ctx, jwe))

		got, err := existing.Message(ctx, f.sent.ID)
		require.NoError(t, err)
		require.Equal(t, local.PIURI, got.PIURI)
		require.Equal(t, message.Received, got.Direction)

		msgs, err := existing.Messages(ctx)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
	})
}

func TestRecoverFailuresWriteNothing(t *testing.T) {
	ctx := context.Background()
	seed := seedOf(1)

	source := newStore(t)
	populate(t, ctx, source, seed)

	jwe, err := New(kms.New(), seed, source).Backup(ctx)
	require.NoError(t, err)

	parts := strings.Split(jwe, ".")
	tampered := strings.Join(append(parts[:3:3], strings.Repeat("A", len(parts[3])), parts[4]), ".")

	tests := []struct {
		name string
		seed kms.Seed
		jwe  string
	}{
		{name: "wrong seed", seed: seedOf(9), jwe: jwe},
		{name: "tampered ciphertext", seed: seed, jwe: tampered},
		{name: "not a jwe", seed: seed, jwe: "a.b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			target := newStore(t)

			err := New(kms.New(), tc.seed, target).Recover(ctx, tc.jwe)
			require.ErrorIs(t, err, ErrDecryptionFailed)

			dids, err := target.DIDs(ctx)
			require.NoError(t, err)
			require.Empty(t, dids)

			creds, err := target.Credentials(ctx)
			require.NoError(t, err)
			require.Empty(t, creds)
		})
	}
}

func TestRecoverKeepsDecodeCause(t *testing.T) {
	seed := seedOf(3)
	svc := New(kms.New(), seed, newStore(t))

	master, err := svc.masterKey()
	require.NoError(t, err)

	pub, ok := master.PublicKey().(*x25519.PublicKey)
	require.True(t, ok)

	jwe, err := jose.NewEncrypter(pub, jose.WithContentType(contentType)).Encrypt([]byte("not a wallet"))
	require.NoError(t, err)

	notJSON, err := jwe.CompactSerialize()
	require.NoError(t, err)

	err = svc.Recover(context.Background(), notJSON)
	require.ErrorIs(t, err, ErrDecryptionFailed)

	var syntaxErr *json.SyntaxError

	require.ErrorAs(t, err, &syntaxErr)
}

func TestEmptyWallet(t *testing.T) {
	ctx := context.Background()
	seed := seedOf(4)

	jwe, err := New(kms.New(), seed, newStore(t)).Backup(ctx)
	require.NoError(t, err)

	require.NoError(t, New(kms.New(), seed, newStore(t)).Recover(ctx, jwe))

	_, err = New(kms.New(), nil, newStore(t)).Backup(ctx)
	require.ErrorIs(t, err, ErrMissingSeed)
}

func requireSameDIDs(t *testing.T, ctx context.Context, a, b *store.Pluto) {
	t.Helper()

	want, err := a.DIDs(ctx)
	require.NoError(t, err)

	got, err := b.DIDs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, want, got)
}

func keyIDs(records []store.KeyRecord) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}

	sort.Strings(ids)

	return ids
}
