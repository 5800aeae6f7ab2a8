// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gossipledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"
)

const (
	DefaultRetryAttempts       = 5
	DefaultRetryInitialBackoff = 1 * time.Second
	DefaultRetryMaxBackoff     = 5 * time.Second
	DefaultDialTimeout         = 10 * time.Second
)

// ErrConnectFailed is returned when all connection attempts to a peer failed
var ErrConnectFailed = errors.New("failed to connect to peer")

// RetryPolicy controls outbound connection attempts. The delay between
// attempts starts at InitialBackoff and doubles after each failure, up to
// MaxBackoff
type RetryPolicy struct {
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	DialTimeout    time.Duration
}

// DefaultRetryPolicy returns the retry policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       DefaultRetryAttempts,
		InitialBackoff: DefaultRetryInitialBackoff,
		MaxBackoff:     DefaultRetryMaxBackoff,
		DialTimeout:    DefaultDialTimeout,
	}
}

// Backoff returns the delay after the given failed attempt, starting at 1.
// Without a MaxBackoff the delay keeps doubling until it saturates at the
// largest time.Duration
func (r RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := max(r.InitialBackoff, 0)
	for i := 1; i < attempt; i++ {
		if backoff > math.MaxInt64/2 {
			backoff = math.MaxInt64
			break
		}
		backoff *= 2
		if r.MaxBackoff > 0 && backoff >= r.MaxBackoff {
			return r.MaxBackoff
		}
	}
	if r.MaxBackoff > 0 && backoff > r.MaxBackoff {
		return r.MaxBackoff
	}
	return backoff
}

func (r RetryPolicy) attempts() int {
	// At least one attempt is always made
	if r.Attempts < 1 {
		return 1
	}
	return r.Attempts
}

// dialFunc opens a transport connection to address
type dialFunc func(ctx context.Context, address string) (net.Conn, error)

func (r RetryPolicy) dialer() dialFunc {
	return func(ctx context.Context, address string) (net.Conn, error) {
		d := net.Dialer{Timeout: r.DialTimeout}
		return d.DialContext(ctx, "tcp", address)
	}
}

// dialWithRetry calls dial until it succeeds, the attempts are used up or ctx is done
func (r RetryPolicy) dialWithRetry(
	ctx context.Context,
	address string,
	dial dialFunc,
	onFailure func(attempt int, err error),
) (net.Conn, error) {
	attempts := r.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := dial(ctx, address)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if onFailure != nil {
			onFailure(attempt, err)
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(r.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %w", ErrConnectFailed, address, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf(
		"%w: %s after %d attempts: %w",
		ErrConnectFailed,
		address,
		attempts,
		lastErr,
	)
}
