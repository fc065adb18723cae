package gateway

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"botdeck/internal/config"
	"botdeck/internal/models"
	"botdeck/internal/redis"
	"botdeck/internal/store"
)

func TestListChannelsServedFromRedisCache(t *testing.T) {
	client, cleanup := newRedisCacheClient(t)
	defer cleanup()

	session := newFakeSession()
	recordStore := store.New(filepath.Join(t.TempDir(), "messages.json"))
	gw := New(session, recordStore, client, time.Minute)
	ctx := context.Background()

	first, err := gw.ListChannels(ctx)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("unexpected guilds: %+v", first)
	}

	// A guild cache change within the TTL is not visible.
	session.guilds = append(session.guilds, models.GuildChannels{GuildID: "G2", GuildName: "Second"})
	cached, err := gw.ListChannels(ctx)
	if err != nil {
		t.Fatalf("list channels from cache: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("expected cached projection, got %+v", cached)
	}

	// Dropping the key falls through to the live session again.
	if err := client.Del(ctx, channelCacheKey); err != nil {
		t.Fatalf("del cache key: %v", err)
	}
	fresh, err := gw.ListChannels(ctx)
	if err != nil {
		t.Fatalf("list channels after invalidation: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("expected fresh projection with 2 guilds, got %+v", fresh)
	}
}

func newRedisCacheClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed cache tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("atoi port: %v", err)
	}
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Host: host,
			Port: port,
		},
	}
	client, err := redis.NewClient(cfg)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Del(ctx, channelCacheKey); err != nil {
		t.Fatalf("clear cache key: %v", err)
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup
}
