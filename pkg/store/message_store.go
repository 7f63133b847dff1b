/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
	"github.com/hyperledger/edge-agent-sdk-go/pkg/storage"
)

const (
	messageTag   = "message"
	directionTag = "direction"
	threadTag    = "thid"
	typeTag      = "piuri"
)

type messageRecord struct {
	Direction message.Direction `json:"direction"`
	Message   *message.Message  `json:"message"`
}

// StoreMessages saves msgs. A message id already stored is overwritten, so redelivered
// messages are kept once.
func (p *Pluto) StoreMessages(ctx context.Context, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if msg == nil || msg.ID == "" {
			return fmt.Errorf("%w: message id", ErrMissingRequiredFields)
		}

		err := putJSON(ctx, p.messages, msg.ID, messageRecord{Direction: msg.Direction, Message: msg},
			messageTags(msg)...)
		if err != nil {
			return err
		}
	}

	return nil
}

// InsertMessage saves msg unless its id is already stored, in which case it fails with ErrDuplicateID
// and the stored message is left as is.
func (p *Pluto) InsertMessage(ctx context.Context, msg *message.Message) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("%w: message id", ErrMissingRequiredFields)
	}

	return p.insertJSON(ctx, p.messages, msg.ID, messageRecord{Direction: msg.Direction, Message: msg},
		messageTags(msg)...)
}

func messageTags(msg *message.Message) []storage.Tag {
	return []storage.Tag{
		{Name: messageTag},
		{Name: directionTag, Value: msg.Direction.String()},
		{Name: typeTag, Value: tagValue(msg.PIURI)},
		{Name: threadTag, Value: tagValue(msg.ThreadID())},
	}
}

// Message returns the message of id.
func (p *Pluto) Message(ctx context.Context, id string) (*message.Message, error) {
	var r messageRecord
	if err := getJSON(ctx, p.messages, id, &r); err != nil {
		return nil, err
	}

	r.Message.Direction = r.Direction

	return r.Message, nil
}

// Messages returns every stored message.
func (p *Pluto) Messages(ctx context.Context) ([]*message.Message, error) {
	return p.queryMessages(ctx, messageTag)
}

// MessagesByDirection returns the messages sent or received by the agent.
func (p *Pluto) MessagesByDirection(ctx context.Context, d message.Direction) ([]*message.Message, error) {
	return p.queryMessages(ctx, directionTag+":"+d.String())
}

// MessagesOfThread returns the messages of thread thid, including the message opening it.
func (p *Pluto) MessagesOfThread(ctx context.Context, thid string) ([]*message.Message, error) {
	return p.queryMessages(ctx, threadTag+":"+tagValue(thid))
}

// MessagesOfType returns the messages of piuri.
func (p *Pluto) MessagesOfType(ctx context.Context, piuri string) ([]*message.Message, error) {
	return p.queryMessages(ctx, typeTag+":"+tagValue(piuri))
}

func (p *Pluto) queryMessages(ctx context.Context, expression string) ([]*message.Message, error) {
	var msgs []*message.Message

	err := queryJSON(ctx, p.messages, expression, func(_ string, data []byte) error {
		var r messageRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}

		r.Message.Direction = r.Direction
		msgs = append(msgs, r.Message)

		return nil
	})

	return msgs, err
}
