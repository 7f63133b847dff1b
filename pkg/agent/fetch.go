/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package agent

import (
	"context"
	"time"
)

// StartFetchingMessages picks up the messages held by the mediator every interval, in one
// background goroutine, until Stop or the cancellation of ctx. Intervals under MinFetchInterval
// are raised to it; zero uses the configured interval. A failed pickup is logged and retried on the
// next tick. Calling it while fetching does nothing.
func (a *Agent) StartFetchingMessages(ctx context.Context, interval time.Duration) error {
	if !a.isStarted() {
		return ErrAgentNotStarted
	}

	if _, err := a.requireMediation(); err != nil && a.fetcher == a.mediator {
		return err
	}

	if interval == 0 {
		interval = a.cfg.FetchInterval
	}

	interval = fetchInterval(interval)

	a.fetchMu.Lock()
	defer a.fetchMu.Unlock()

	if a.fetching {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	a.fetching, a.cancel, a.done = true, cancel, done

	go a.fetchLoop(loopCtx, interval, done)

	a.logger.Infof("fetching messages every %s", interval)

	return nil
}

// Stop ends the fetch loop and waits for it. A pickup in flight completes first.
func (a *Agent) Stop() {
	a.fetchMu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.fetchMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// IsFetching reports whether the fetch loop runs.
func (a *Agent) IsFetching() bool {
	a.fetchMu.Lock()
	defer a.fetchMu.Unlock()

	return a.fetching
}

func (a *Agent) fetchLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	defer func() {
		a.fetchMu.Lock()
		a.fetching = false
		a.fetchMu.Unlock()
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		// the pickup outlives Stop so acknowledged messages are always stored
		if err := a.fetchOnce(context.WithoutCancel(ctx)); err != nil {
			a.logger.Errorf("fetch messages: %v", err)
		}

		timer.Reset(interval)
	}
}

func (a *Agent) fetchOnce(ctx context.Context) error {
	msgs, err := a.fetcher.FetchMessages(ctx)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		if err = a.HandleReceivedMessage(ctx, msg); err != nil {
			a.logger.Errorf("%v", err)
		}
	}

	if len(msgs) > 0 {
		a.logger.Debugf("fetched %d messages", len(msgs))
	}

	return nil
}
