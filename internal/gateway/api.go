package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ragline/ragline/internal/models"
)

// VerifyResult is the verification-endpoint payload.
type VerifyResult struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user"`
}

// Verify reports whether the current session cookies identify a user.
func (c *Client) Verify(ctx context.Context) (VerifyResult, error) {
	var res VerifyResult
	err := c.do(ctx, &request{method: http.MethodGet, path: "/auth/verify"}, &res)
	return res, err
}

// LoginURL asks the backend for the OAuth authorization URL that starts
// the external login round trip.
func (c *Client) LoginURL(ctx context.Context) (string, error) {
	var res struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/auth/login"}, &res); err != nil {
		return "", err
	}
	if res.AuthorizationURL == "" {
		return "", fmt.Errorf("gateway: login: empty authorization_url")
	}
	return res.AuthorizationURL, nil
}

// CompleteLogin exchanges the authorization code from the OAuth redirect;
// the backend answers by setting session cookies on this client.
func (c *Client) CompleteLogin(ctx context.Context, code string) error {
	q := url.Values{"code": {code}}
	return c.do(ctx, &request{method: http.MethodGet, path: "/auth/callback", query: q}, nil)
}

// Refresh rotates the access token using the refresh-token cookie. It
// deliberately bypasses the retry policy: a failed refresh is terminal.
func (c *Client) Refresh(ctx context.Context) error {
	httpReq, err := c.build(ctx, &request{method: http.MethodPost, path: "/auth/refresh"})
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("gateway: POST /auth/refresh: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: decodeDetail(resp)}
	}
	c.persistCookies()
	return nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, &request{method: http.MethodPost, path: "/auth/logout"}, nil)
}

// Ask sends a question to the agentic RAG pipeline. A zero conversationID
// lets the backend open a new conversation.
func (c *Client) Ask(ctx context.Context, question string, conversationID int64) (models.ChatAnswer, error) {
	body := struct {
		Question       string `json:"question"`
		ConversationID int64  `json:"conversation_id,omitempty"`
	}{Question: question, ConversationID: conversationID}
	var res models.ChatAnswer
	err := c.do(ctx, &request{method: http.MethodPost, path: "/chat/ask", body: body}, &res)
	return res, err
}

// ListConversations fetches the server-ordered conversation list.
func (c *Client) ListConversations(ctx context.Context) ([]models.Conversation, error) {
	var res models.ConversationList
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/conversations"}, &res); err != nil {
		return nil, err
	}
	return res.Conversations, nil
}

// GetConversation fetches one conversation and its full transcript.
func (c *Client) GetConversation(ctx context.Context, id int64) (models.ConversationHistory, error) {
	var res models.ConversationHistory
	err := c.do(ctx, &request{method: http.MethodGet, path: "/conversations/" + strconv.FormatInt(id, 10)}, &res)
	return res, err
}

// CreateConversation creates an empty conversation with the given title.
func (c *Client) CreateConversation(ctx context.Context, title string) (models.Conversation, error) {
	body := struct {
		Title string `json:"title"`
	}{Title: title}
	var res models.Conversation
	err := c.do(ctx, &request{method: http.MethodPost, path: "/conversations", body: body}, &res)
	return res, err
}

// DeleteConversation removes a conversation server-side.
func (c *Client) DeleteConversation(ctx context.Context, id int64) error {
	return c.do(ctx, &request{method: http.MethodDelete, path: "/conversations/" + strconv.FormatInt(id, 10)}, nil)
}
