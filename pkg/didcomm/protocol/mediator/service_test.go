/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mediator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	mocktransport "github.com/hyperledger/edge-agent-sdk-go/internal/mock/transport"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/messagepickup"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

var (
	holder    = did.MustParse("did:peer:2.holder")
	mediatorD = did.MustParse("did:peer:2.mediator")
	routingD  = did.MustParse("did:peer:2.routing")
)

type memStore struct {
	configs []*Config
	err     error
}

func (s *memStore) AddMediator(_ context.Context, cfg *Config) error {
	if s.err != nil {
		return s.err
	}

	s.configs = append(s.configs, cfg)

	return nil
}

func (s *memStore) Mediators(context.Context) ([]*Config, error) {
	return s.configs, s.err
}

func reply(t *testing.T, to *message.Message, piuri string, body interface{}, atts ...message.Attachment) *message.Message {
	t.Helper()

	env, err := protocol.ParseEnvelope(to, to.PIURI)
	require.NoError(t, err)

	r := env.Reply("")
	r.Attachments = atts

	out, err := r.Message(piuri, body)
	require.NoError(t, err)

	return out
}

func fakeMediator(t *testing.T) *mocktransport.MockSender {
	return &mocktransport.MockSender{ReplyFunc: func(msg *message.Message) (*message.Message, error) {
		switch msg.PIURI {
		case RequestMsgType:
			return reply(t, msg, GrantMsgType, GrantBody{RoutingDID: routingD.String()}), nil
		case KeylistUpdateMsgType:
			u := &KeylistUpdate{}
			require.NoError(t, u.FromMessage(msg))

			var body KeylistUpdateResponseBody
			for _, up := range u.Body.Updates {
				body.Updated = append(body.Updated, UpdateResponse{RecipientDID: up.RecipientDID,
					Action: up.Action, Result: ResultSuccess})
			}

			return reply(t, msg, KeylistUpdateResponseMsgType, body), nil
		case KeylistQueryMsgType:
			return reply(t, msg, KeylistMsgType, KeylistBody{Keys: []Key{{RecipientDID: holder.String()}}}), nil
		case messagepickup.DeliveryRequestMsgType:
			inner := message.New("https://didcomm.org/basicmessage/2.0/message",
				message.WithFrom(mediatorD), message.WithTo(holder))
			att, err := message.NewJSONAttachment("held-1", "", inner)
			require.NoError(t, err)

			return reply(t, msg, messagepickup.DeliveryMsgType, struct{}{}, att), nil
		default:
			return nil, nil
		}
	}}
}

func TestClientMediation(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	sender := fakeMediator(t)
	c := New(sender, store)

	_, ok := c.Config()
	require.False(t, ok)
	require.ErrorIs(t, c.UpdateKeyList(ctx, ActionAdd, holder), protocol.ErrNoMediatorAvailable)

	cfg, err := c.AchieveMediation(ctx, holder, mediatorD)
	require.NoError(t, err)
	require.Equal(t, routingD, cfg.RoutingDID)
	require.Equal(t, routingD.String(), cfg.Endpoint().URI)
	require.Len(t, store.configs, 1)

	require.NoError(t, c.UpdateKeyList(ctx, ActionAdd, holder))

	dids, err := c.QueryKeylist(ctx)
	require.NoError(t, err)
	require.Equal(t, []did.DID{holder}, dids)

	delivered, ids, err := c.PickupUnread(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"held-1"}, ids)
	require.Len(t, delivered, 1)

	require.NoError(t, c.MarkAsRead(ctx, ids))

	last := sender.LastSent()
	require.Equal(t, messagepickup.MessagesReceivedMsgType, last.PIURI)
	require.JSONEq(t, `{"message_id_list":["held-1"]}`, string(last.Body))

	restarted := New(sender, store)
	got, found, err := restarted.Bootstrap(ctx, mediatorD)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, cfg, got)
}

func TestFetchMessages(t *testing.T) {
	ctx := context.Background()
	sender := fakeMediator(t)
	c := New(sender, &memStore{}, WithPickupLimit(5))

	_, err := c.FetchMessages(ctx)
	require.ErrorIs(t, err, protocol.ErrNoMediatorAvailable)

	_, err = c.AchieveMediation(ctx, holder, mediatorD)
	require.NoError(t, err)

	msgs, err := c.FetchMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, message.Received, msgs[0].Direction)
	require.Equal(t, "https://didcomm.org/basicmessage/2.0/message", msgs[0].PIURI)

	sent := sender.Sent()
	require.Equal(t, messagepickup.DeliveryRequestMsgType, sent[len(sent)-2].PIURI)
	require.JSONEq(t, `{"limit":5}`, string(sent[len(sent)-2].Body))
	require.Equal(t, messagepickup.MessagesReceivedMsgType, sent[len(sent)-1].PIURI)
}

func TestClientMediationFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("deny", func(t *testing.T) {
		sender := &mocktransport.MockSender{ReplyFunc: func(msg *message.Message) (*message.Message, error) {
			return reply(t, msg, DenyMsgType, struct{}{}), nil
		}}

		_, err := New(sender, &memStore{}).AchieveMediation(ctx, holder, mediatorD)
		require.ErrorIs(t, err, protocol.ErrMediationRequestFailed)
	})

	t.Run("no answer", func(t *testing.T) {
		_, err := New(&mocktransport.MockSender{}, &memStore{}).AchieveMediation(ctx, holder, mediatorD)
		require.ErrorIs(t, err, protocol.ErrMediationRequestFailed)
	})

	t.Run("send error", func(t *testing.T) {
		boom := errors.New("boom")

		_, err := New(&mocktransport.MockSender{SendErr: boom}, &memStore{}).AchieveMediation(ctx, holder, mediatorD)
		require.ErrorIs(t, err, boom)
	})

	t.Run("rejected key", func(t *testing.T) {
		sender := &mocktransport.MockSender{ReplyFunc: func(msg *message.Message) (*message.Message, error) {
			if msg.PIURI == RequestMsgType {
				return reply(t, msg, GrantMsgType, GrantBody{RoutingDID: routingD.String()}), nil
			}

			return reply(t, msg, KeylistUpdateResponseMsgType, KeylistUpdateResponseBody{
				Updated: []UpdateResponse{{RecipientDID: holder.String(), Action: ActionAdd, Result: ResultServerError}},
			}), nil
		}}

		c := New(sender, &memStore{})
		_, err := c.AchieveMediation(ctx, holder, mediatorD)
		require.NoError(t, err)

		err = c.UpdateKeyList(ctx, ActionAdd, holder)
		require.Error(t, err)
		require.Contains(t, err.Error(), ResultServerError)
	})
}
