package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := getDefaultConfig()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 20, cfg.Pagination.DefaultPageSize)
	assert.Equal(t, 100, cfg.Pagination.MaxPageSize)
	assert.ElementsMatch(t, []string{"ADMIN", "MODERATOR"}, cfg.Moderation.ModeratorRoles)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: "9090"
database:
  database: forum_test
  query_timeout: 3s
redis:
  enabled: true
  ttl: 1m
moderation:
  moderator_roles: [ADMIN, MOD]
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg := getDefaultConfig()
	require.NoError(t, loadFromFile(cfg, file))

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "forum_test", cfg.Database.Database)
	assert.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
	assert.Equal(t, []string{"ADMIN", "MOD"}, cfg.Moderation.ModeratorRoles)
	// 未出现在文件中的字段保留默认值
	assert.Equal(t, "utf8mb4", cfg.Database.Charset)
}

func TestOverrideWithEnvVars(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("JWT_EXPIRE_HOURS", "48")
	t.Setenv("REDIS_ENABLED", "1")
	t.Setenv("ADMIN_USERNAMES", "alice, bob ,,")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg := getDefaultConfig()
	overrideWithEnvVars(cfg)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 48, cfg.JWT.ExpireHours)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Admin.Usernames)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     "3306",
		Username: "u",
		Password: "p",
		Database: "forum",
		Charset:  "utf8mb4",
	}
	assert.Equal(t, "u:p@tcp(127.0.0.1:3306)/forum?charset=utf8mb4&parseTime=True&loc=UTC", d.DSN())
}
