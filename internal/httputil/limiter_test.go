// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiter_SpacesSameHost(t *testing.T) {
	l := NewHostLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://example.org/a"))
	require.NoError(t, l.Wait(ctx, "https://example.org/b"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHostLimiter_HostsIndependent(t *testing.T) {
	l := NewHostLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://a.example/x"))
	require.NoError(t, l.Wait(ctx, "https://b.example/x"))
}

func TestHostLimiter_ContextCancelled(t *testing.T) {
	l := NewHostLimiter(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://a.example/x"))
	assert.Error(t, l.Wait(ctx, "https://a.example/y"))
}

func TestHostLimiter_Disabled(t *testing.T) {
	var nilLimiter *HostLimiter
	assert.NoError(t, nilLimiter.Wait(context.Background(), "https://a.example"))
	assert.NoError(t, NewHostLimiter(0).Wait(context.Background(), "https://a.example"))
}
