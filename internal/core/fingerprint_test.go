package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Fingerprint("hello world"), Fingerprint("hello world"))
	})

	t.Run("fixed length", func(t *testing.T) {
		assert.Len(t, Fingerprint(""), 16)
		assert.Len(t, Fingerprint(strings.Repeat("x", 100000)), 16)
	})

	t.Run("body change produces a different fingerprint", func(t *testing.T) {
		assert.NotEqual(t, Fingerprint("hello world"), Fingerprint("hello world!"))
	})

	t.Run("lowercase hex", func(t *testing.T) {
		fp := Fingerprint("hello world")
		assert.Equal(t, strings.ToLower(fp), fp)
		for _, c := range fp {
			assert.Contains(t, "0123456789abcdef", string(c))
		}
	})
}

func TestCacheKey(t *testing.T) {
	tests := []struct {
		name      string
		provider  Provider
		messageID string
		body      string
	}{
		{"gmail message", ProviderGmail, "msg-123", "meeting at noon"},
		{"outlook message", ProviderOutlook, "AAMkAD=", "meeting at noon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := CacheKey(tt.provider, tt.messageID, tt.body)
			assert.Equal(t, CacheKey(tt.provider, tt.messageID, tt.body), key)

			parts := strings.Split(key, ":")
			assert.Equal(t, string(tt.provider), parts[0])
			assert.Equal(t, tt.messageID, parts[1])
			assert.Equal(t, Fingerprint(tt.body), parts[len(parts)-1])
		})
	}

	t.Run("same message id on different providers never collides", func(t *testing.T) {
		assert.NotEqual(t,
			CacheKey(ProviderGmail, "id-1", "body"),
			CacheKey(ProviderOutlook, "id-1", "body"))
	})

	t.Run("edited body maps to a new key", func(t *testing.T) {
		assert.NotEqual(t,
			CacheKey(ProviderGmail, "id-1", "v1"),
			CacheKey(ProviderGmail, "id-1", "v2"))
	})
}
