package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/jaytaylor/html2text"
	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/marketing"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// unreadQuery selects unread inbox mail, excluding the bulk categories
// Gmail can filter server-side. The marketing filter runs as a second pass.
const unreadQuery = "is:unread in:inbox -category:promotions -category:social -category:forums"

// GmailProvider implements core.MailProvider for Gmail
type GmailProvider struct {
	oauthConfig *oauth2.Config
	pageSize    int64
	logger      *zap.Logger
	cb          *gobreaker.CircuitBreaker
}

// NewGmailProvider creates a new Gmail provider adapter
func NewGmailProvider(clientID, clientSecret string, pageSize int, logger *zap.Logger) *GmailProvider {
	oauthConfig := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes: []string{
			gmail.GmailReadonlyScope,
			gmail.GmailModifyScope,
		},
		Endpoint: google.Endpoint,
	}

	cbSettings := gobreaker.Settings{
		Name:     "gmail-api",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &GmailProvider{
		oauthConfig: oauthConfig,
		pageSize:    int64(pageSize),
		logger:      logger,
		cb:          gobreaker.NewCircuitBreaker(cbSettings),
	}
}

// getService builds a Gmail API client from the account's stored oauth2
// token. Token refresh is handled by the token source; how the token got
// there is the auth layer's business.
func (p *GmailProvider) getService(ctx context.Context, account *core.Account) (*gmail.Service, error) {
	var token oauth2.Token
	if err := json.Unmarshal(account.Credentials, &token); err != nil {
		return nil, fmt.Errorf("failed to decode stored credentials: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(
		p.oauthConfig.TokenSource(ctx, &token),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return svc, nil
}

// FetchUnread returns the account's unread inbox messages, most recent
// first, normalized and with marketing mail filtered out
func (p *GmailProvider) FetchUnread(ctx context.Context, account *core.Account) ([]*core.Email, error) {
	svc, err := p.getService(ctx, account)
	if err != nil {
		return nil, err
	}

	listResp, err := p.cb.Execute(func() (interface{}, error) {
		return svc.Users.Messages.List("me").
			Q(unreadQuery).
			MaxResults(p.pageSize).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	emails := make([]*core.Email, 0)
	for _, ref := range listResp.(*gmail.ListMessagesResponse).Messages {
		msgResp, err := p.cb.Execute(func() (interface{}, error) {
			return svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		})
		if err != nil {
			// One unreadable message should not cost the whole account
			p.logger.Error("Failed to fetch message",
				zap.String("account", account.Email),
				zap.String("message_id", ref.Id),
				zap.Error(err))
			continue
		}

		email, isMarketing := p.normalize(msgResp.(*gmail.Message), account)
		if isMarketing {
			p.logger.Debug("Skipping marketing email",
				zap.String("account", account.Email),
				zap.String("message_id", ref.Id))
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// normalize converts a raw Gmail message into the common Email record and
// reports whether the marketing filter classified it as bulk mail
func (p *GmailProvider) normalize(msg *gmail.Message, account *core.Account) (*core.Email, bool) {
	var from, subject, dateHeader string
	hasListUnsubscribe := false

	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				from = h.Value
			case "Subject":
				subject = h.Value
			case "Date":
				dateHeader = h.Value
			case "List-Unsubscribe":
				hasListUnsubscribe = true
			}
		}
	}

	body := extractBody(msg.Payload)

	date := time.UnixMilli(msg.InternalDate)
	if parsed, err := mail.ParseDate(dateHeader); err == nil {
		date = parsed
	}

	email := &core.Email{
		Provider:     core.ProviderGmail,
		MessageID:    msg.Id,
		From:         from,
		Subject:      subject,
		Date:         date,
		Body:         body,
		AccountEmail: account.Email,
	}

	isMarketing := marketing.IsMarketing(marketing.Signals{
		FromAddress:        from,
		Subject:            subject,
		Body:               body,
		HasListUnsubscribe: hasListUnsubscribe,
	})

	return email, isMarketing
}

// extractBody walks the MIME part tree and returns the message body as
// plain text, stripping markup from HTML-only messages
func extractBody(part *gmail.MessagePart) string {
	plain, html := collectParts(part)
	if plain != "" {
		return plain
	}
	if html != "" {
		if text, err := html2text.FromString(html, html2text.Options{TextOnly: true}); err == nil {
			return text
		}
	}
	return ""
}

// collectParts gathers the first text/plain and text/html payloads in the tree
func collectParts(part *gmail.MessagePart) (plain, html string) {
	if part == nil {
		return "", ""
	}

	if part.Body != nil && part.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(part.Body.Data); err == nil {
			switch part.MimeType {
			case "text/plain":
				plain = string(data)
			case "text/html":
				html = string(data)
			}
		}
	}

	for _, sub := range part.Parts {
		subPlain, subHTML := collectParts(sub)
		if plain == "" {
			plain = subPlain
		}
		if html == "" {
			html = subHTML
		}
	}
	return plain, html
}

// Archive removes the INBOX and UNREAD labels, Gmail's idiom for archiving.
// It returns false on any failure; the message stays visible.
func (p *GmailProvider) Archive(ctx context.Context, account *core.Account, messageID string) bool {
	svc, err := p.getService(ctx, account)
	if err != nil {
		p.logger.Error("Failed to create Gmail service for archive",
			zap.String("account", account.Email),
			zap.Error(err))
		return false
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return svc.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
			RemoveLabelIds: []string{"INBOX", "UNREAD"},
		}).Context(ctx).Do()
	})
	if err != nil {
		p.logger.Error("Failed to archive message",
			zap.String("account", account.Email),
			zap.String("message_id", messageID),
			zap.Error(err))
		return false
	}

	return true
}
