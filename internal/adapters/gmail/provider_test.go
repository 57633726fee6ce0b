package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gmail "google.golang.org/api/gmail/v1"

	"github.com/mikey/inbox-digest/internal/core"
)

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func textPart(mimeType, content string) *gmail.MessagePart {
	return &gmail.MessagePart{
		MimeType: mimeType,
		Body:     &gmail.MessagePartBody{Data: encodeBody(content)},
	}
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name     string
		part     *gmail.MessagePart
		expected string
	}{
		{
			name:     "nil payload",
			part:     nil,
			expected: "",
		},
		{
			name:     "single text/plain part",
			part:     textPart("text/plain", "hello there"),
			expected: "hello there",
		},
		{
			name: "multipart prefers text/plain over text/html",
			part: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					textPart("text/html", "<p>hello <b>there</b></p>"),
					textPart("text/plain", "hello there"),
				},
			},
			expected: "hello there",
		},
		{
			name:     "html-only message is converted to text",
			part:     textPart("text/html", "<html><body><p>hello there</p></body></html>"),
			expected: "hello there",
		},
		{
			name: "nested multipart",
			part: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "multipart/alternative",
						Parts: []*gmail.MessagePart{
							textPart("text/plain", "nested body"),
						},
					},
					textPart("application/pdf", "binary"),
				},
			},
			expected: "nested body",
		},
		{
			name: "no text parts at all",
			part: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					textPart("application/pdf", "binary"),
				},
			},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractBody(tt.part))
		})
	}
}

func TestNormalize(t *testing.T) {
	provider := NewGmailProvider("client-id", "client-secret", 25, zap.NewNop())
	account := &core.Account{ID: "a1", Email: "work@gmail.example.com", Provider: core.ProviderGmail}

	t.Run("plain personal email", func(t *testing.T) {
		msg := &gmail.Message{
			Id:           "msg-1",
			InternalDate: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).UnixMilli(),
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers: []*gmail.MessagePartHeader{
					{Name: "From", Value: "alice@example.com"},
					{Name: "Subject", Value: "Lunch tomorrow"},
					{Name: "Date", Value: "Sun, 01 Jun 2025 11:00:00 +0200"},
				},
				Body: &gmail.MessagePartBody{Data: encodeBody("Want to grab lunch?")},
			},
		}

		email, isMarketing := provider.normalize(msg, account)
		assert.False(t, isMarketing)
		assert.Equal(t, core.ProviderGmail, email.Provider)
		assert.Equal(t, "msg-1", email.MessageID)
		assert.Equal(t, "alice@example.com", email.From)
		assert.Equal(t, "Lunch tomorrow", email.Subject)
		assert.Equal(t, "Want to grab lunch?", email.Body)
		assert.Equal(t, "work@gmail.example.com", email.AccountEmail)
		// Date header wins over the internal timestamp
		assert.True(t, email.Date.Equal(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	})

	t.Run("list-unsubscribe header marks marketing", func(t *testing.T) {
		msg := &gmail.Message{
			Id: "msg-2",
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers: []*gmail.MessagePartHeader{
					{Name: "From", Value: "digest@forum.example.com"},
					{Name: "Subject", Value: "Weekly roundup"},
					{Name: "List-Unsubscribe", Value: "<mailto:leave@forum.example.com>"},
				},
				Body: &gmail.MessagePartBody{Data: encodeBody("This week in the forum.")},
			},
		}

		_, isMarketing := provider.normalize(msg, account)
		assert.True(t, isMarketing)
	})

	t.Run("unparseable date falls back to internal timestamp", func(t *testing.T) {
		internal := time.Date(2025, 5, 30, 12, 0, 0, 0, time.UTC)
		msg := &gmail.Message{
			Id:           "msg-3",
			InternalDate: internal.UnixMilli(),
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers: []*gmail.MessagePartHeader{
					{Name: "From", Value: "bob@example.com"},
					{Name: "Subject", Value: "No date header"},
				},
				Body: &gmail.MessagePartBody{Data: encodeBody("Hello.")},
			},
		}

		email, _ := provider.normalize(msg, account)
		assert.True(t, email.Date.Equal(internal))
	})

	t.Run("missing payload yields empty fields", func(t *testing.T) {
		email, isMarketing := provider.normalize(&gmail.Message{Id: "msg-4"}, account)
		assert.False(t, isMarketing)
		assert.Empty(t, email.From)
		assert.Empty(t, email.Body)
	})
}
