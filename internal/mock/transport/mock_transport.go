/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package transport

import (
	"context"
	"sync"

	"github.com/hyperledger/edge-agent-sdk-go/pkg/didcomm/message"
)

// MockSender mock implementation of transport.MessageSender
// to be used only for unit tests.
type MockSender struct {
	// ReplyFunc answers a sent message. Nil answers nothing.
	ReplyFunc func(msg *message.Message) (*message.Message, error)
	SendErr   error

	mu   sync.Mutex
	sent []*message.Message
}

// SendMessage records msg and answers with ReplyFunc.
func (m *MockSender) SendMessage(_ context.Context, msg *message.Message) (*message.Message, error) {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	if m.SendErr != nil {
		return nil, m.SendErr
	}

	if m.ReplyFunc == nil {
		return nil, nil
	}

	return m.ReplyFunc(msg)
}

// Sent returns the messages sent so far.
func (m *MockSender) Sent() []*message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*message.Message(nil), m.sent...)
}

// LastSent returns the latest sent message, or nil.
func (m *MockSender) LastSent() *message.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sent) == 0 {
		return nil
	}

	return m.sent[len(m.sent)-1]
}
