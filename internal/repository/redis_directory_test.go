package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redis tests need a live server: set REDIS_TEST_ADDR to run them.
func testRedis(t *testing.T) Directory {
	return testRedisDirectory(t)
}

func testRedisDirectory(t *testing.T) *redisDirectory {
	t.Helper()

	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	prefix := "test:" + uuid.NewString() + ":"
	t.Cleanup(func() {
		ctx := context.Background()
		iter := client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	})
	return &redisDirectory{client: client, prefix: prefix}
}

func TestRedisDirectory(t *testing.T) {
	runDirectoryContract(t, testRedis)
}

func TestRedisDirectory_ConcurrentGrantsAllLand(t *testing.T) {
	dir := testRedisDirectory(t)
	ctx := context.Background()

	account := newAccount("grants@x.com", "USER")
	require.NoError(t, dir.Create(ctx, account))

	const grants = 16
	var wg sync.WaitGroup
	for i := 0; i < grants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, dir.AssignRoles(ctx, account.ID, fmt.Sprintf("ROLE_%02d", i)))
		}(i)
	}
	wg.Wait()

	identity, err := dir.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Len(t, identity.Roles, grants+1)
	assert.Contains(t, identity.Roles, "USER")
}

func TestRedisDirectory_CorruptCreatedAtFails(t *testing.T) {
	dir := testRedisDirectory(t)
	ctx := context.Background()

	account := newAccount("corrupt@x.com", "USER")
	require.NoError(t, dir.Create(ctx, account))
	require.NoError(t, dir.client.HSet(ctx, dir.idKey(account.ID), "created_at", "yesterday").Err())

	_, err := dir.FindByID(ctx, account.ID)
	var parseErr *time.ParseError
	require.ErrorAs(t, err, &parseErr)
}
