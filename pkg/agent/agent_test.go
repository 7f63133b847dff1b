/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	mocktransport "github.com/hyperledger/edge-agent-sdk-go/internal/mock/transport"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/credential"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/basicmessage"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/connection"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/issuecredential"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/mediator"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/outofbandv2"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/revocation"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/verifiable"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/kms/keys"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage/mem"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/store"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/vdr/peer"
)

var (
	mediatorDID = did.MustParse("did:peer:2.mediator")
	routingDID  = did.MustParse("did:peer:2.routing")
)

func newSeed(t *testing.T) kms.Seed {
	t.Helper()

	_, seed, err := kms.New().CreateRandomSeed("")
	require.NoError(t, err)

	return seed
}

func newAgent(t *testing.T, cfg Config, opts ...Option) *Agent {
	t.Helper()

	if cfg.Seed == nil {
		cfg.Seed = newSeed(t)
	}

	a, err := New(cfg, append([]Option{WithStoreProvider(mem.NewProvider())}, opts...)...)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, a.Close()) })

	return a
}

func reply(t *testing.T, to *message.Message, piuri string, body interface{}) *message.Message {
	t.Helper()

	env, err := protocol.ParseEnvelope(to, to.PIURI)
	require.NoError(t, err)

	r := env.Reply("")
	out, err := r.Message(piuri, body)
	require.NoError(t, err)

	return out
}

func fakeMediator(t *testing.T) *mocktransport.MockSender {
	return &mocktransport.MockSender{ReplyFunc: func(msg *message.Message) (*message.Message, error) {
		switch msg.PIURI {
		case mediator.RequestMsgType:
			return reply(t, msg, mediator.GrantMsgType, mediator.GrantBody{RoutingDID: routingDID.String()}), nil
		case mediator.KeylistUpdateMsgType:
			u := &mediator.KeylistUpdate{}
			require.NoError(t, u.FromMessage(msg))

			var body mediator.KeylistUpdateResponseBody
			for _, up := range u.Body.Updates {
				body.Updated = append(body.Updated, mediator.UpdateResponse{RecipientDID: up.RecipientDID,
					Action: up.Action, Result: mediator.ResultSuccess})
			}

			return reply(t, msg, mediator.KeylistUpdateResponseMsgType, body), nil
		default:
			return nil, nil
		}
	}}
}

func sentOfType(sender *mocktransport.MockSender, piuri string) []*message.Message {
	var out []*message.Message

	for _, msg := range sender.Sent() {
		if msg.PIURI == piuri {
			out = append(out, msg)
		}
	}

	return out
}

type party struct {
	id     did.DID
	signer keys.Signer
}

func newParty(t *testing.T) *party {
	t.Helper()

	key, err := kms.New().CreatePrivateKey(keys.Ed25519)
	require.NoError(t, err)

	id, err := peer.Create(nil, []keys.PublicKey{key.PublicKey()}, nil)
	require.NoError(t, err)

	return &party{id: id, signer: key.(keys.Signer)}
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	held  []*message.Message
	err   error
}

func (f *fakeFetcher) FetchMessages(context.Context) ([]*message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	held := f.held
	f.held = nil

	return held, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func TestNew(t *testing.T) {
	t.Run("requires a seed", func(t *testing.T) {
		_, err := New(Config{}, WithStoreProvider(mem.NewProvider()))
		require.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("failing option", func(t *testing.T) {
		_, err := New(Config{Seed: newSeed(t)}, func(*Agent) error { return errors.New("option error") })
		require.ErrorContains(t, err, "option error")
	})

	require.Equal(t, MinFetchInterval, fetchInterval(time.Second))
	require.Equal(t, time.Minute, fetchInterval(time.Minute))
}

func TestStartMediation(t *testing.T) {
	ctx := context.Background()
	sender := fakeMediator(t)
	prov := mem.NewProvider()
	seed := newSeed(t)
	cfg := Config{MediatorDID: mediatorDID, Seed: seed}

	a := newAgent(t, cfg, WithStoreProvider(prov), WithMessageSender(sender))

	_, ok := a.Mediation()
	require.False(t, ok)

	require.NoError(t, a.Start(ctx))

	m, ok := a.Mediation()
	require.True(t, ok)
	require.Equal(t, routingDID, m.RoutingDID)
	require.Equal(t, mediatorDID, m.MediatorDID)

	require.Len(t, sentOfType(sender, mediator.RequestMsgType), 1)
	require.Len(t, sentOfType(sender, mediator.KeylistUpdateMsgType), 1)

	sent := len(sender.Sent())

	require.NoError(t, a.Start(ctx))
	require.Len(t, sender.Sent(), sent)

	t.Run("restart restores the mediation", func(t *testing.T) {
		other := &mocktransport.MockSender{}

		b, err := New(cfg, WithStoreProvider(prov), WithMessageSender(other))
		require.NoError(t, err)

		require.NoError(t, b.Start(ctx))

		restored, ok := b.Mediation()
		require.True(t, ok)
		require.Equal(t, routingDID, restored.RoutingDID)
		require.Empty(t, other.Sent())
	})

	t.Run("denied", func(t *testing.T) {
		denying := &mocktransport.MockSender{ReplyFunc: func(msg *message.Message) (*message.Message, error) {
			return reply(t, msg, mediator.DenyMsgType, struct{}{}), nil
		}}

		c := newAgent(t, cfg, WithMessageSender(denying))

		require.Error(t, c.Start(ctx))
		require.False(t, c.isStarted())
	})
}

func TestCreateNewPeerDID(t *testing.T) {
	ctx := context.Background()

	t.Run("unmediated", func(t *testing.T) {
		a := newAgent(t, Config{})
		require.NoError(t, a.Start(ctx))

		_, err := a.CreateNewPeerDID(ctx, nil, true)
		require.ErrorIs(t, err, ErrNoMediatorAvailable)

		id, err := a.CreateNewPeerDID(ctx, nil, false)
		require.NoError(t, err)
		require.Equal(t, "peer", id.Method)

		records, err := a.Store().PrivateKeysOf(ctx, id)
		require.NoError(t, err)
		require.Len(t, records, 2)

		last, err := a.Store().LastKeyPathIndex(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(2), last)

		doc, err := a.ResolveDID(ctx, id)
		require.NoError(t, err)
		require.Empty(t, doc.Services())
	})

	t.Run("mediated", func(t *testing.T) {
		sender := fakeMediator(t)
		a := newAgent(t, Config{MediatorDID: mediatorDID}, WithMessageSender(sender))
		require.NoError(t, a.Start(ctx))

		id, err := a.CreateNewPeerDID(ctx, nil, true)
		require.NoError(t, err)

		doc, err := a.ResolveDID(ctx, id)
		require.NoError(t, err)
		services := doc.Services()
		require.Len(t, services, 1)
		require.True(t, services[0].HasType(did.DIDCommMessagingServiceType))
		require.Equal(t, routingDID.String(), services[0].Endpoint.URI)

		updates := sentOfType(sender, mediator.KeylistUpdateMsgType)
		require.Len(t, updates, 2)

		u := &mediator.KeylistUpdate{}
		require.NoError(t, u.FromMessage(updates[1]))
		require.Equal(t, id.String(), u.Body.Updates[0].RecipientDID)
	})
}

func TestCreateNewPrismDID(t *testing.T) {
	ctx := context.Background()
	a := newAgent(t, Config{})

	first, err := a.CreateNewPrismDID(ctx, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "prism", first.Method)

	second, err := a.CreateNewPrismDID(ctx, nil, nil)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	index := uint32(7)

	fixed, err := a.CreateNewPrismDID(ctx, &index, nil)
	require.NoError(t, err)

	again, err := a.CreateNewPrismDID(ctx, &index, nil)
	require.NoError(t, err)
	require.Equal(t, fixed, again)

	last, err := a.Store().LastKeyPathIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, index, last)

	prisms, err := a.Store().DIDsByMethod(ctx, "prism")
	require.NoError(t, err)
	require.Len(t, prisms, 3)

	t.Run("same seed, same DIDs", func(t *testing.T) {
		b := newAgent(t, Config{Seed: a.cfg.Seed})

		id, err := b.CreateNewPrismDID(ctx, &index, nil)
		require.NoError(t, err)
		require.Equal(t, fixed, id)
	})
}

func TestSignWith(t *testing.T) {
	ctx := context.Background()
	a := newAgent(t, Config{})

	id, err := a.CreateNewPeerDID(ctx, nil, false)
	require.NoError(t, err)

	payload := []byte("payload")

	sig, err := a.SignWith(ctx, id, payload)
	require.NoError(t, err)

	doc, err := a.ResolveDID(ctx, id)
	require.NoError(t, err)

	verified := false

	for _, vm := range doc.VerificationMethods() {
		pub, err := vm.PublicKey()
		require.NoError(t, err)

		if v, ok := pub.(keys.Verifier); ok && pub.Curve() == keys.Ed25519 {
			require.NoError(t, v.Verify(payload, sig))

			verified = true
		}
	}

	require.True(t, verified)

	_, err = a.SignWith(ctx, newParty(t).id, payload)
	require.ErrorIs(t, err, ErrCannotFindDIDKeyPair)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	answer := message.New("https://didcomm.org/basicmessage/2.0/message", message.WithThread("thread-1", ""))
	sender := &mocktransport.MockSender{ReplyFunc: func(*message.Message) (*message.Message, error) {
		return answer, nil
	}}

	var handled []string

	a := newAgent(t, Config{}, WithMessageSender(sender), WithMessageHandler(
		func(_ context.Context, msg *message.Message) error {
			handled = append(handled, msg.ID)

			return nil
		}))

	msg := message.New("https://didcomm.org/basicmessage/2.0/message", message.WithThread("thread-1", ""))

	got, err := a.SendMessage(ctx, msg)
	require.NoError(t, err)
	require.Equal(t, answer.ID, got.ID)
	require.Equal(t, []string{answer.ID}, handled)

	sent, err := a.Store().MessagesByDirection(ctx, message.Sent)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, msg.ID, sent[0].ID)

	received, err := a.Store().MessagesByDirection(ctx, message.Received)
	require.NoError(t, err)
	require.Len(t, received, 1)

	thread, err := a.Store().MessagesOfThread(ctx, "thread-1")
	require.NoError(t, err)
	require.Len(t, thread, 2)

	t.Run("send failure stores nothing", func(t *testing.T) {
		failing := &mocktransport.MockSender{SendErr: errors.New("unreachable")}
		b := newAgent(t, Config{}, WithMessageSender(failing))

		_, err := b.SendMessage(ctx, message.New("https://didcomm.org/basicmessage/2.0/message"))
		require.EqualError(t, err, "unreachable")

		all, err := b.Store().Messages(ctx)
		require.NoError(t, err)
		require.Empty(t, all)
	})
}

func TestSendBasicMessage(t *testing.T) {
	ctx := context.Background()
	sender := &mocktransport.MockSender{}
	a := newAgent(t, Config{}, WithMessageSender(sender))

	from, err := a.CreateNewPeerDID(ctx, nil, false)
	require.NoError(t, err)

	to := newParty(t).id

	msg, err := a.SendBasicMessage(ctx, from, to, "hello")
	require.NoError(t, err)
	require.Equal(t, basicmessage.MessageMsgType, msg.PIURI)
	require.Equal(t, msg.ID, sender.LastSent().ID)

	stored, err := a.Store().Message(ctx, msg.ID)
	require.NoError(t, err)
	require.Equal(t, message.Sent, stored.Direction)

	b := &basicmessage.BasicMessage{}
	require.NoError(t, b.FromMessage(stored))
	require.Equal(t, "hello", b.Body.Content)
	require.Equal(t, from.String(), b.From.String())
	require.Equal(t, to.String(), b.To.String())

	failing := newAgent(t, Config{}, WithMessageSender(&mocktransport.MockSender{SendErr: errors.New("unreachable")}))

	_, err = failing.SendBasicMessage(ctx, from, to, "hello")
	require.EqualError(t, err, "unreachable")
}

func TestHandleMalformedRevocationNotification(t *testing.T) {
	ctx := context.Background()

	var handled int

	a := newAgent(t, Config{}, WithMessageHandler(func(context.Context, *message.Message) error {
		handled++

		return nil
	}))

	// no sender
	notification := message.New(revocation.NotificationMsgType, message.WithTo(newParty(t).id))

	err := a.HandleReceivedMessage(ctx, notification)
	require.ErrorIs(t, err, message.ErrNoSenderDIDSet)
	require.ErrorContains(t, err, "handle revocation notification")
	require.Zero(t, handled)

	n := &revocation.Notification{Body: revocation.NotificationBody{IssueCredentialProtocolThreadID: "unknown"}}
	n.From, n.To = newParty(t).id, newParty(t).id

	unknown, err := n.Message()
	require.NoError(t, err)

	require.ErrorIs(t, a.HandleReceivedMessage(ctx, unknown), ErrThreadNotFound)
	require.Zero(t, handled)

	// the notification is kept even though it could not be applied
	_, err = a.Store().Message(ctx, unknown.ID)
	require.NoError(t, err)
}

// issuance runs a JWT issue-credential 3.0 exchange between issuer and the holder agent.
func issuance(t *testing.T, holder *Agent, issuer *party) (verifiable.Credential, *message.Message) {
	t.Helper()

	ctx := context.Background()

	holderDID, err := holder.CreateNewPeerDID(ctx, nil, false)
	require.NoError(t, err)

	options, err := message.NewJSONAttachment("", credential.JWTFormat, map[string]interface{}{
		"options": map[string]string{"challenge": "challenge-1", "domain": "issuer.example"},
	})
	require.NoError(t, err)

	offer := &issuecredential.OfferCredentialV3{Body: issuecredential.OfferCredentialV3Body{GoalCode: "issue-vc"}}
	offer.ID, offer.From, offer.To = "offer-1", issuer.id, holderDID
	offer.Attachments = []message.Attachment{options}

	offerMsg, err := offer.Message()
	require.NoError(t, err)

	requestMsg, err := holder.PrepareRequestCredentialWithIssuer(ctx, offerMsg)
	require.NoError(t, err)
	require.Equal(t, issuecredential.RequestCredentialMsgTypeV3, requestMsg.PIURI)
	require.Equal(t, offer.ID, requestMsg.ThreadID())
	require.Equal(t, issuer.id, *requestMsg.To)

	a, ok := requestMsg.FirstAttachment()
	require.True(t, ok)
	require.Equal(t, credential.JWTFormat, a.Format)

	prisms, err := holder.Store().DIDsByMethod(ctx, "prism")
	require.NoError(t, err)
	require.NotEmpty(t, prisms)

	subject := prisms[len(prisms)-1].DID

	vc, err := verifiable.NewJWTCredential(&verifiable.W3CCredential{
		Context:    []string{"https://www.w3.org/2018/credentials/v1"},
		CredID:     "urn:uuid:cred-1",
		Types:      []string{"VerifiableCredential", "PassportCredential"},
		CredIssuer: verifiable.Issuer{ID: issuer.id.String()},
		CredentialSubject: map[string]interface{}{
			"id":   subject.String(),
			"name": "Alice",
		},
	}, "", issuer.signer)
	require.NoError(t, err)

	r := &issuecredential.RequestCredentialV3{}
	require.NoError(t, r.FromMessage(requestMsg))

	issue := issuecredential.IssueV3FromRequest(r)
	issue.Attachments = []message.Attachment{
		message.NewBase64Attachment("", "application/jwt", credential.JWTFormat, []byte(vc.Serialize())),
	}

	issueMsg, err := issue.Message()
	require.NoError(t, err)

	cred, err := holder.ProcessIssuedCredentialMessage(ctx, issueMsg)
	require.NoError(t, err)

	return cred, issueMsg
}

func TestCredentialIssuance(t *testing.T) {
	ctx := context.Background()
	holder := newAgent(t, Config{})
	issuer := newParty(t)

	cred, issueMsg := issuance(t, holder, issuer)
	require.Equal(t, verifiable.FormatJWT, cred.Format())
	require.Equal(t, "Alice", cred.Claims()["name"])

	stored, err := holder.Store().CredentialsOfThread(ctx, "offer-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "urn:uuid:cred-1", stored[0].ID)

	msg, err := holder.Store().Message(ctx, issueMsg.ID)
	require.NoError(t, err)
	require.Equal(t, message.Received, msg.Direction)

	t.Run("issued twice", func(t *testing.T) {
		_, err := holder.ProcessIssuedCredentialMessage(ctx, issueMsg)
		require.NoError(t, err)

		all, err := holder.Store().Credentials(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
	})

	t.Run("revocation", func(t *testing.T) {
		n := &revocation.Notification{Body: revocation.NotificationBody{IssueCredentialProtocolThreadID: "offer-1"}}
		n.From, n.To = issuer.id, *issueMsg.To

		notification, err := n.Message()
		require.NoError(t, err)

		require.NoError(t, holder.HandleReceivedMessage(ctx, notification))

		revoked, err := holder.Store().RevokedCredentials(ctx)
		require.NoError(t, err)
		require.Len(t, revoked, 1)
		require.Equal(t, "urn:uuid:cred-1", revoked[0].ID)
	})
}

func TestRevocationOfRestoredCredential(t *testing.T) {
	ctx := context.Background()
	holder := newAgent(t, Config{})
	issuer := newParty(t)

	_, issueMsg := issuance(t, holder, issuer)

	// a record restored from a backup has no thread
	record, err := holder.Store().Credential(ctx, "urn:uuid:cred-1")
	require.NoError(t, err)
	require.NoError(t, holder.Store().DeleteCredential(ctx, record.ID))

	record.ThreadID = ""
	require.NoError(t, holder.Store().StoreCredential(ctx, *record))

	n := &revocation.Notification{Body: revocation.NotificationBody{IssueCredentialProtocolThreadID: issueMsg.ThreadID()}}
	n.From, n.To = issuer.id, *issueMsg.To

	notification, err := n.Message()
	require.NoError(t, err)

	require.NoError(t, holder.HandleRevocationNotification(ctx, notification))

	got, err := holder.Store().Credential(ctx, record.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)

	t.Run("unknown thread", func(t *testing.T) {
		n.Body.IssueCredentialProtocolThreadID = "unknown"

		unknown, err := n.Message()
		require.NoError(t, err)

		require.ErrorIs(t, holder.HandleRevocationNotification(ctx, unknown), ErrThreadNotFound)
	})
}

func TestPresentationExchange(t *testing.T) {
	ctx := context.Background()
	holder := newAgent(t, Config{})
	verifierSender := &mocktransport.MockSender{}
	verifier := newAgent(t, Config{}, WithMessageSender(verifierSender))

	cred, issueMsg := issuance(t, holder, newParty(t))
	holderDID := *issueMsg.To

	claims := credential.ClaimFilters{{Paths: []string{"$.vc.credentialSubject.name"}, Pattern: "^Al", Required: true}}

	request, err := verifier.InitiatePresentationRequest(ctx, credential.FormatJWT, holderDID, claims)
	require.NoError(t, err)
	require.Equal(t, request.ID, verifierSender.LastSent().ID)

	sent, err := verifier.Store().MessagesByDirection(ctx, message.Sent)
	require.NoError(t, err)
	require.Len(t, sent, 1)

	presentation, err := holder.CreatePresentationForRequestProof(ctx, request, cred)
	require.NoError(t, err)
	require.Equal(t, request.ID, presentation.ThreadID())
	require.Equal(t, *request.From, *presentation.To)

	ok, err := verifier.HandlePresentation(ctx, presentation)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("unknown thread", func(t *testing.T) {
		other := message.New(presentation.PIURI, message.WithThread("unknown", ""),
			message.WithAttachments(presentation.Attachments...))

		_, err := verifier.HandlePresentation(ctx, other)
		require.ErrorIs(t, err, ErrThreadNotFound)
	})

	t.Run("wrong message type", func(t *testing.T) {
		_, err := holder.CreatePresentationForRequestProof(ctx, presentation, cred)
		require.ErrorIs(t, err, ErrInvalidMessageType)
		require.ErrorIs(t, err, protocol.ErrInvalidMessageType)

		_, err = holder.ProcessIssuedCredentialMessage(ctx, request)
		require.ErrorIs(t, err, ErrInvalidMessageType)

		_, err = holder.PrepareRequestCredentialWithIssuer(ctx, request)
		require.ErrorIs(t, err, ErrInvalidMessageType)
	})
}

func TestFetchMessages(t *testing.T) {
	ctx := context.Background()

	held := message.New("https://didcomm.org/basicmessage/2.0/message")
	fetcher := &fakeFetcher{held: []*message.Message{held}}
	a := newAgent(t, Config{}, WithFetcher(fetcher))

	require.ErrorIs(t, a.StartFetchingMessages(ctx, 0), ErrAgentNotStarted)

	require.NoError(t, a.Start(ctx))
	require.NoError(t, a.StartFetchingMessages(ctx, time.Millisecond))
	require.NoError(t, a.StartFetchingMessages(ctx, time.Millisecond))
	require.True(t, a.IsFetching())

	require.Eventually(t, func() bool {
		_, err := a.Store().Message(ctx, held.ID)

		return err == nil
	}, time.Second, 10*time.Millisecond)

	require.Equal(t, 1, fetcher.Calls())

	a.Stop()
	require.False(t, a.IsFetching())

	a.Stop()

	t.Run("failed pickups keep the loop", func(t *testing.T) {
		failing := &fakeFetcher{err: errors.New("mediator down")}
		b := newAgent(t, Config{}, WithFetcher(failing))

		require.NoError(t, b.Start(ctx))
		require.NoError(t, b.StartFetchingMessages(ctx, 0))

		require.Eventually(t, func() bool { return failing.Calls() > 0 }, time.Second, 10*time.Millisecond)
		require.True(t, b.IsFetching())

		b.Stop()
	})

	t.Run("cancelled context ends the loop", func(t *testing.T) {
		c := newAgent(t, Config{}, WithFetcher(&fakeFetcher{}))
		require.NoError(t, c.Start(ctx))

		loopCtx, cancel := context.WithCancel(ctx)
		require.NoError(t, c.StartFetchingMessages(loopCtx, 0))

		cancel()

		require.Eventually(t, func() bool { return !c.IsFetching() }, time.Second, 10*time.Millisecond)
	})

	t.Run("mediator pickup needs a mediation", func(t *testing.T) {
		d := newAgent(t, Config{})
		require.NoError(t, d.Start(ctx))

		require.ErrorIs(t, d.StartFetchingMessages(ctx, 0), ErrNoMediatorAvailable)
	})
}

func TestAcceptOOBInvitation(t *testing.T) {
	ctx := context.Background()
	sender := &mocktransport.MockSender{ReplyFunc: func(msg *message.Message) (*message.Message, error) {
		r := &connection.Request{}
		if err := r.FromMessage(msg); err != nil {
			return nil, err
		}

		return connection.AcceptRequest(r).Message()
	}}
	a := newAgent(t, Config{}, WithMessageSender(sender))
	inviter := newParty(t)

	inv := &outofbandv2.Invitation{ID: "invitation-1", From: inviter.id,
		Body: outofbandv2.InvitationBody{GoalCode: "connect", Goal: "Connect with the issuer"}}

	url, err := inv.URL("https://inviter.example")
	require.NoError(t, err)

	parsed, err := a.ParseOOBInvitation(url)
	require.NoError(t, err)
	require.Equal(t, inv.ID, parsed.ID)

	pair, err := a.AcceptOOBInvitation(ctx, parsed)
	require.NoError(t, err)
	require.Equal(t, inviter.id, pair.Recipient)
	require.Equal(t, "Connect with the issuer", pair.Alias)

	request := sender.LastSent()
	require.Equal(t, connection.RequestMsgType, request.PIURI)
	require.Equal(t, inv.ID, request.Pthid)

	pairs, err := a.Store().DIDPairsOf(ctx, inviter.id)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, pair.Holder, pairs[0].Holder)

	t.Run("no inviter", func(t *testing.T) {
		_, err := a.AcceptOOBInvitation(ctx, &outofbandv2.Invitation{ID: "invitation-2"})
		require.ErrorIs(t, err, ErrInvalidMessageType)
	})
}

func TestBackupAndRecoverWallet(t *testing.T) {
	ctx := context.Background()
	seed := newSeed(t)
	a := newAgent(t, Config{Seed: seed})

	_, _ = issuance(t, a, newParty(t))

	jwe, err := a.BackupWallet(ctx)
	require.NoError(t, err)

	b := newAgent(t, Config{Seed: seed})
	require.NoError(t, b.RecoverWallet(ctx, jwe))

	for _, s := range []*store.Pluto{a.Store(), b.Store()} {
		creds, err := s.Credentials(ctx)
		require.NoError(t, err)
		require.Len(t, creds, 1)
	}

	want, err := a.Store().DIDs(ctx)
	require.NoError(t, err)

	got, err := b.Store().DIDs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, want, got)

	t.Run("another seed", func(t *testing.T) {
		c := newAgent(t, Config{})
		require.Error(t, c.RecoverWallet(ctx, jwe))
	})
}

func TestClose(t *testing.T) {
	a, err := New(Config{Seed: newSeed(t)}, WithStoreProvider(mem.NewProvider()))
	require.NoError(t, err)

	a.Stop()
	require.NoError(t, a.Close())
}
