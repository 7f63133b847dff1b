/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mediator

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/common/log"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/protocol/messagepickup"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/transport"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/doc/did"
)

var logger = log.New("edge-agent/mediator")

// Store persists established mediations.
type Store interface {
	AddMediator(ctx context.Context, cfg *Config) error
	Mediators(ctx context.Context) ([]*Config, error)
}

// ClientOption configures a Client.
type ClientOption func(c *Client)

// WithLogger replaces the package logger.
func WithLogger(l *log.Log) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithPickupLimit caps how many messages a FetchMessages call asks for.
func WithPickupLimit(limit int) ClientOption {
	return func(c *Client) {
		c.pickupLimit = limit
	}
}

// DefaultPickupLimit is the delivery request limit of FetchMessages.
const DefaultPickupLimit = 25

// Client is the holder side of coordinate-mediation and pickup. The mediator is expected to
// answer requests on the same connection.
type Client struct {
	sender      transport.MessageSender
	store       Store
	logger      *log.Log
	pickupLimit int

	mu     sync.RWMutex
	config *Config
}

// New returns a Client with no mediation established.
func New(sender transport.MessageSender, store Store, opts ...ClientOption) *Client {
	c := &Client{sender: sender, store: store, logger: logger, pickupLimit: DefaultPickupLimit}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Config returns the established mediation.
func (c *Client) Config() (*Config, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.config, c.config != nil
}

func (c *Client) requireConfig() (*Config, error) {
	cfg, ok := c.Config()
	if !ok {
		return nil, protocol.ErrNoMediatorAvailable
	}

	return cfg, nil
}

// Bootstrap loads a previously stored mediation for mediatorDID.
func (c *Client) Bootstrap(ctx context.Context, mediatorDID did.DID) (*Config, bool, error) {
	configs, err := c.store.Mediators(ctx)
	if err != nil {
		return nil, false, errors.Wrap(err, "load mediators")
	}

	for _, cfg := range configs {
		if cfg.MediatorDID == mediatorDID {
			c.mu.Lock()
			c.config = cfg
			c.mu.Unlock()

			c.logger.Debugf("using stored mediation with %s routing %s", cfg.MediatorDID, cfg.RoutingDID)

			return cfg, true, nil
		}
	}

	return nil, false, nil
}

// AchieveMediation asks mediatorDID to mediate for holderDID and stores the grant.
func (c *Client) AchieveMediation(ctx context.Context, holderDID, mediatorDID did.DID) (*Config, error) {
	req, err := (&Request{Envelope: protocol.Envelope{From: holderDID, To: mediatorDID}}).Message()
	if err != nil {
		return nil, err
	}

	reply, err := c.sender.SendMessage(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "send mediation request")
	}

	if reply == nil {
		return nil, errors.WithMessage(protocol.ErrMediationRequestFailed, "mediator did not answer")
	}

	switch reply.PIURI {
	case GrantMsgType:
	case DenyMsgType:
		return nil, errors.WithMessage(protocol.ErrMediationRequestFailed, "mediation denied")
	default:
		return nil, protocol.CheckType(reply.PIURI, GrantMsgType, DenyMsgType)
	}

	grant := &Grant{}
	if err = grant.FromMessage(reply); err != nil {
		return nil, err
	}

	routingDID, err := grant.RoutingDID()
	if err != nil {
		return nil, errors.Wrap(err, "grant routing_did")
	}

	cfg := NewConfig(mediatorDID, holderDID, routingDID)

	if err = c.store.AddMediator(ctx, cfg); err != nil {
		return nil, errors.Wrap(err, "store mediator")
	}

	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()

	c.logger.Infof("mediation granted by %s, routing through %s", mediatorDID, routingDID)

	return cfg, nil
}

// UpdateKeyList adds (ActionAdd) or removes (ActionRemove) recipient DIDs at the mediator.
func (c *Client) UpdateKeyList(ctx context.Context, action string, dids ...did.DID) error {
	cfg, err := c.requireConfig()
	if err != nil {
		return err
	}

	update := NewKeylistUpdate(protocol.Envelope{From: cfg.HolderDID, To: cfg.MediatorDID}, action, dids...)

	msg, err := update.Message()
	if err != nil {
		return err
	}

	reply, err := c.sender.SendMessage(ctx, msg)
	if err != nil {
		return errors.Wrap(err, "send keylist update")
	}

	if reply == nil {
		return nil
	}

	resp := &KeylistUpdateResponse{}
	if err = resp.FromMessage(reply); err != nil {
		return err
	}

	if failed := resp.Failed(); len(failed) > 0 {
		return errors.Errorf("failed to update the recipient key with the mediator: %s %s: %s",
			failed[0].Action, failed[0].RecipientDID, failed[0].Result)
	}

	return nil
}

// QueryKeylist returns the DIDs the mediator routes for the holder.
func (c *Client) QueryKeylist(ctx context.Context) ([]did.DID, error) {
	cfg, err := c.requireConfig()
	if err != nil {
		return nil, err
	}

	reply, err := c.request(ctx, &KeylistQuery{Envelope: protocol.Envelope{From: cfg.HolderDID, To: cfg.MediatorDID}})
	if err != nil {
		return nil, err
	}

	list := &Keylist{}
	if err = list.FromMessage(reply); err != nil {
		return nil, err
	}

	dids := make([]did.DID, 0, len(list.Body.Keys))

	for _, k := range list.Body.Keys {
		d, perr := did.Parse(k.RecipientDID)
		if perr != nil {
			return nil, perr
		}

		dids = append(dids, d)
	}

	return dids, nil
}

// PickupUnread asks for at most limit held messages. It returns the unpacked messages and the ids to
// acknowledge with MarkAsRead.
func (c *Client) PickupUnread(ctx context.Context, limit int) ([]messagepickup.Delivered, []string, error) {
	cfg, err := c.requireConfig()
	if err != nil {
		return nil, nil, err
	}

	reply, err := c.request(ctx, &messagepickup.DeliveryRequest{
		Envelope: protocol.Envelope{From: cfg.HolderDID, To: cfg.MediatorDID},
		Body:     messagepickup.DeliveryRequestBody{Limit: limit},
	})
	if err != nil {
		return nil, nil, err
	}

	switch reply.PIURI {
	case messagepickup.StatusMsgType:
		return nil, nil, nil
	case messagepickup.DeliveryMsgType:
	default:
		return nil, nil, protocol.CheckType(reply.PIURI, messagepickup.DeliveryMsgType, messagepickup.StatusMsgType)
	}

	delivery := &messagepickup.Delivery{}
	if err = delivery.FromMessage(reply); err != nil {
		return nil, nil, err
	}

	delivered, ids := delivery.Messages()

	return delivered, ids, nil
}

// MarkAsRead lets the mediator delete the delivered messages.
func (c *Client) MarkAsRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	cfg, err := c.requireConfig()
	if err != nil {
		return err
	}

	msg, err := (&messagepickup.MessagesReceived{
		Envelope: protocol.Envelope{From: cfg.HolderDID, To: cfg.MediatorDID},
		Body:     messagepickup.MessagesReceivedBody{MessageIDList: ids},
	}).Message()
	if err != nil {
		return err
	}

	if _, err = c.sender.SendMessage(ctx, msg); err != nil {
		return errors.Wrap(err, "send messages-received")
	}

	return nil
}

// FetchMessages picks up the held messages and acknowledges them. It implements transport.Fetcher.
func (c *Client) FetchMessages(ctx context.Context) ([]*message.Message, error) {
	delivered, ids, err := c.PickupUnread(ctx, c.pickupLimit)
	if err != nil {
		return nil, err
	}

	msgs := make([]*message.Message, 0, len(delivered))

	for _, d := range delivered {
		d.Message.Direction = message.Received
		msgs = append(msgs, d.Message)
	}

	if err = c.MarkAsRead(ctx, ids); err != nil {
		return nil, err
	}

	return msgs, nil
}

type outbound interface {
	Message() (*message.Message, error)
}

func (c *Client) request(ctx context.Context, o outbound) (*message.Message, error) {
	msg, err := o.Message()
	if err != nil {
		return nil, err
	}

	reply, err := c.sender.SendMessage(ctx, msg)
	if err != nil {
		return nil, errors.Wrapf(err, "send %s", msg.PIURI)
	}

	if reply == nil {
		return nil, errors.Errorf("no reply from mediator to %s", msg.PIURI)
	}

	return reply, nil
}
