package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jaytaylor/html2text"
	"github.com/mikey/inbox-digest/internal/core"
	"github.com/mikey/inbox-digest/internal/marketing"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// OutlookProvider implements core.MailProvider against the Microsoft Graph
// REST API. Graph has no promotions-style server-side category, so bulk
// mail exclusion relies entirely on the marketing filter second pass.
type OutlookProvider struct {
	baseURL       string
	pageSize      int
	archiveFolder string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewOutlookProvider creates a new Outlook provider adapter
func NewOutlookProvider(baseURL string, pageSize int, archiveFolder string, logger *zap.Logger) *OutlookProvider {
	return &OutlookProvider{
		baseURL:       baseURL,
		pageSize:      pageSize,
		archiveFolder: archiveFolder,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

type graphMessage struct {
	ID   string `json:"id"`
	From struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	Subject          string `json:"subject"`
	ReceivedDateTime string `json:"receivedDateTime"`
	Body             struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
}

type graphMessageList struct {
	Value []graphMessage `json:"value"`
}

type graphFolderList struct {
	Value []struct {
		ID          string `json:"id"`
		DisplayName string `json:"displayName"`
	} `json:"value"`
}

// doGraph issues one authenticated Graph request and decodes the response
// into out (when out is non-nil)
func (p *OutlookProvider) doGraph(ctx context.Context, account *core.Account, method, path string, body, out interface{}) error {
	var token oauth2.Token
	if err := json.Unmarshal(account.Credentials, &token); err != nil {
		return fmt.Errorf("failed to decode stored credentials: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build Graph request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("Graph API error %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode Graph response: %w", err)
		}
	}
	return nil
}

// FetchUnread returns the account's unread inbox messages, most recent
// first, normalized and with marketing mail filtered out
func (p *OutlookProvider) FetchUnread(ctx context.Context, account *core.Account) ([]*core.Email, error) {
	query := url.Values{}
	query.Set("$filter", "isRead eq false")
	query.Set("$orderby", "receivedDateTime desc")
	query.Set("$top", strconv.Itoa(p.pageSize))
	query.Set("$select", "id,from,subject,receivedDateTime,body")

	var list graphMessageList
	if err := p.doGraph(ctx, account, http.MethodGet, "/me/mailFolders/inbox/messages?"+query.Encode(), nil, &list); err != nil {
		return nil, fmt.Errorf("failed to list unread messages: %w", err)
	}

	emails := make([]*core.Email, 0, len(list.Value))
	for i := range list.Value {
		email, isMarketing := p.normalize(&list.Value[i], account)
		if isMarketing {
			p.logger.Debug("Skipping marketing email",
				zap.String("account", account.Email),
				zap.String("message_id", email.MessageID))
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// normalize converts a Graph message into the common Email record and
// reports whether the marketing filter classified it as bulk mail
func (p *OutlookProvider) normalize(msg *graphMessage, account *core.Account) (*core.Email, bool) {
	body := msg.Body.Content
	if msg.Body.ContentType == "html" {
		if text, err := html2text.FromString(body, html2text.Options{TextOnly: true}); err == nil {
			body = text
		}
	}

	date, err := time.Parse(time.RFC3339, msg.ReceivedDateTime)
	if err != nil {
		date = time.Time{}
	}

	email := &core.Email{
		Provider:     core.ProviderOutlook,
		MessageID:    msg.ID,
		From:         msg.From.EmailAddress.Address,
		Subject:      msg.Subject,
		Date:         date,
		Body:         body,
		AccountEmail: account.Email,
	}

	isMarketing := marketing.IsMarketing(marketing.Signals{
		FromAddress: email.From,
		Subject:     email.Subject,
		Body:        body,
	})

	return email, isMarketing
}

// Archive resolves the archive folder's id and moves the message into it.
// Any failure, including the folder not existing, returns false.
func (p *OutlookProvider) Archive(ctx context.Context, account *core.Account, messageID string) bool {
	folderID, err := p.resolveFolderID(ctx, account, p.archiveFolder)
	if err != nil {
		p.logger.Error("Failed to resolve archive folder",
			zap.String("account", account.Email),
			zap.String("folder", p.archiveFolder),
			zap.Error(err))
		return false
	}

	move := map[string]string{"destinationId": folderID}
	if err := p.doGraph(ctx, account, http.MethodPost, "/me/messages/"+messageID+"/move", move, nil); err != nil {
		p.logger.Error("Failed to move message to archive",
			zap.String("account", account.Email),
			zap.String("message_id", messageID),
			zap.Error(err))
		return false
	}

	return true
}

// resolveFolderID looks up a mail folder by display name
func (p *OutlookProvider) resolveFolderID(ctx context.Context, account *core.Account, name string) (string, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("displayName eq '%s'", name))

	var folders graphFolderList
	if err := p.doGraph(ctx, account, http.MethodGet, "/me/mailFolders?"+query.Encode(), nil, &folders); err != nil {
		return "", err
	}
	if len(folders.Value) == 0 {
		return "", fmt.Errorf("folder %q not found", name)
	}
	return folders.Value[0].ID, nil
}
