package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	c := NewJSON(client, time.Minute)
	ctx := context.Background()
	key := KeyProduct("", "kaos")
	require.Equal(t, "default:product:kaos", key)

	var got payload
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Set(ctx, key, payload{Name: "Kaos", Price: "10.50"}))
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "Kaos", got.Name)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	require.False(t, hit)

	require.NoError(t, c.Set(ctx, KeySettings("s1"), payload{Name: "Store"}))
	require.NoError(t, c.Delete(ctx, KeySettings("s1")))
	require.False(t, mr.Exists("s1:settings"))
}

func TestJSONDisabled(t *testing.T) {
	var c *JSON
	hit, err := c.Get(context.Background(), "k", &payload{})
	require.NoError(t, err)
	require.False(t, hit)
	require.NoError(t, c.Set(context.Background(), "k", payload{}))
	require.NoError(t, NewJSON(nil, time.Minute).Delete(context.Background(), "k"))
}
