package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUniqueUints(t *testing.T) {
	assert.Equal(t, []uint{3, 1, 2}, UniqueUints([]uint{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueUints(nil))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "abc", TruncateText("abc", 5))
	assert.Equal(t, "数学题", TruncateText("数学题目列表", 3))
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"alice@example.com", "al***@example.com"},
		{"ab@example.com", "**@example.com"},
		{"broken", "***@***"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizeEmail(tt.email), tt.email)
	}
}

func TestSanitizeAuthHeader(t *testing.T) {
	assert.Equal(t, "", SanitizeAuthHeader(""))
	assert.Equal(t, "Bearer ***", SanitizeAuthHeader("Bearer abc"))
	assert.Equal(t, "Bearer ...wxyz", SanitizeAuthHeader("Bearer 0123456789abcdefwxyz"))
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold([]string{"ADMIN", "MODERATOR"}, "admin"))
	assert.False(t, ContainsFold([]string{"ADMIN"}, "user"))
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(0)
	defer cache.Stop()

	cache.Set("a", "1", time.Minute)
	cache.items["b"] = &cacheEntry{value: "2", expireAt: time.Now().Add(-time.Second)}

	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = cache.Get("b")
	assert.False(t, ok, "expired entries are not returned")
	cache.cleanup()
	assert.Equal(t, 1, cache.Size())

	cache.Delete("a")
	_, ok = cache.Get("a")
	assert.False(t, ok)
}
