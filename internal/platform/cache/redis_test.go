package cache

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectReachable(t *testing.T) {
	srv := miniredis.RunT(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	client := Connect(context.Background(), srv.Addr(), logger)
	defer Close(client, logger)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := srv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Empty(t, buf.String())
}

func TestConnectUnreachableLogs(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	client := Connect(context.Background(), addr, logger)
	defer Close(client, logger)

	require.NotNil(t, client)
	assert.Contains(t, buf.String(), "redis ping")
}
