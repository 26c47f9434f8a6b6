package redisstore

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_HostPort(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNew_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb, err := New(context.Background(), "redis://"+mr.Addr()+"/0", "", 0)
	require.NoError(t, err)
	defer rdb.Close()

	require.NoError(t, mr.Set("greeting", "hello"))
	got, err := rdb.Get(context.Background(), "greeting").Result()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestNew_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := New(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
