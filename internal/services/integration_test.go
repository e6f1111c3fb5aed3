package services

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"forum/internal/models"
	"forum/internal/utils"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDatabase 连接 TEST_MYSQL_DSN 指向的库，需预先执行 scripts/schema.sql
func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("mysql unreachable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewDatabaseFromDB(db, 5*time.Second)
}

// uniqueSubject 每次运行使用独立学科，避免与历史数据冲突
func uniqueSubject(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func TestMySQL_TagDuplicateEntry(t *testing.T) {
	db := openTestDatabase(t)
	repo := NewTagRepository(db)
	ctx := context.Background()
	subject := uniqueSubject("it")

	tag := &models.Tag{Subject: subject, Name: "graphs", Slug: "graphs", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.CreateTag(ctx, tag))
	require.NotZero(t, tag.ID)

	dup := &models.Tag{Subject: subject, Name: "graphs", Slug: "graphs", CreatedAt: time.Now().UTC()}
	assert.ErrorIs(t, repo.CreateTag(ctx, dup), utils.ErrDuplicateEntry)

	found, err := repo.FindTagByName(ctx, subject, "graphs")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tag.ID, found.ID)

	// 大小写和重音不同的名称是不同的标签
	for _, name := range []string{"Graphs", "gráphs"} {
		variant := &models.Tag{Subject: subject, Name: name, Slug: "graphs", CreatedAt: time.Now().UTC()}
		require.NoError(t, repo.CreateTag(ctx, variant), name)
		found, err := repo.FindTagByName(ctx, subject, name)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, variant.ID, found.ID)
		assert.Equal(t, name, found.Name)
	}

	missing, err := repo.FindTagByName(ctx, subject, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMySQL_ConcurrentCreateOrGet(t *testing.T) {
	db := openTestDatabase(t)
	tags := NewTagService(NewTagRepository(db))
	subject := uniqueSubject("race")

	const workers = 8
	ids := make([]uint, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := tags.CreateOrGet(context.Background(), subject, "dp")
			if assert.NoError(t, err) {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestMySQL_HealthCheck(t *testing.T) {
	db := openTestDatabase(t)
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestRedisCacheStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	store := NewRedisCacheStore(client)
	key := uniqueSubject("forum-test:daily_problem")

	_, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, key, `{"day":"2024-01-01"}`, time.Minute))
	v, ok, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"day":"2024-01-01"}`, v)

	require.NoError(t, store.Delete(ctx, key))
	_, ok, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
