// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by search, validation and
// the LLM client.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pdiddy/refresolve/pkg/types"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// RetryLog receives one line per retry. Commands point it at stderr when
// verbose output is requested.
var RetryLog io.Writer = io.Discard

// MaxRetries is the retry count used when a caller passes 0.
var MaxRetries = 2

// Configure applies cfg to the package defaults. Zero fields are left alone.
func Configure(cfg types.RetryConfig) {
	if cfg.Attempts > 0 {
		MaxRetries = cfg.Attempts - 1
	}
	if cfg.BaseDelay > 0 {
		RetryBaseDelay = cfg.BaseDelay
	}
}

// Retryable reports whether a response status is worth retrying: rate
// limiting and server errors.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Backoff returns the wait before retry number attempt (zero based):
// RetryBaseDelay, then doubling.
func Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
}

// DoWithRetry executes an HTTP request and retries transport errors, HTTP
// 429 and 5xx responses with exponential backoff.
//
// When maxRetries is 0, MaxRetries is used (2 by default, so three
// attempts). On a retryable response the body is drained and closed before
// sleeping. If the context is cancelled during a backoff wait the function
// returns ctx.Err().
// After exhausting retries the last response (or transport error) is
// returned so the caller can inspect it. Non-retryable statuses such as 404
// return immediately.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = MaxRetries
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if attempt >= maxRetries {
				return nil, err
			}
			fmt.Fprintf(RetryLog, "request to %s failed (%v), retrying in %v (attempt %d/%d)\n",
				req.URL.Host, err, Backoff(attempt), attempt+1, maxRetries)
		} else {
			if !Retryable(resp.StatusCode) || attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			fmt.Fprintf(RetryLog, "%s returned HTTP %d, retrying in %v (attempt %d/%d)\n",
				req.URL.Host, resp.StatusCode, Backoff(attempt), attempt+1, maxRetries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(Backoff(attempt)):
		}
	}
}
