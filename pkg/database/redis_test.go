package database

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{
		Host:        mr.Host(),
		Port:        atoiPort(t, mr.Port()),
		DialTimeout: time.Second,
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := atoiPort(t, mr.Port())
	mr.Close()

	_, err := NewRedisClient(context.Background(), RedisConfig{
		Host:        "127.0.0.1",
		Port:        port,
		DialTimeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func atoiPort(t *testing.T, s string) int {
	t.Helper()
	port, err := strconv.Atoi(s)
	require.NoError(t, err)
	return port
}
