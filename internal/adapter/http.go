package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/ametov/bookline/internal/config"
	"github.com/ametov/bookline/internal/logger"
	"github.com/ametov/bookline/internal/utils"
	"github.com/ametov/bookline/models"
)

type httpServerAdapter struct {
	client *utils.HTTPClient

	mu          sync.RWMutex
	token       string
	refreshHook RefreshHook

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// apiCfg.Address and configures the underlying HTTP client with the
// resolved base URL and request timeout.
//
// Returns an error if apiCfg.Address is empty or cannot be parsed as a
// valid URL.
func NewHTTPServerAdapter(apiCfg config.ClientAPI, logger *logger.Logger) (ServerAdapter, error) {
	client := utils.NewHTTPClient()
	baseURL, err := normalizeBaseURL(apiCfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid api address: %w", err)
	}

	client.
		SetBaseURL(baseURL).
		SetTimeout(apiCfg.RequestTimeout)

	return &httpServerAdapter{client: client, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// SetRefreshHook implements [ServerAdapter].
func (h *httpServerAdapter) SetRefreshHook(hook RefreshHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refreshHook = hook
}

func (h *httpServerAdapter) hook() RefreshHook {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.refreshHook
}

// Login implements [ServerAdapter].
func (h *httpServerAdapter) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	var auth models.AuthResponse
	if err := h.postJSON(ctx, "/api/auth/login", req, &auth); err != nil {
		return models.AuthResponse{}, fmt.Errorf("login request: %w", err)
	}
	return auth, nil
}

// Register implements [ServerAdapter].
func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.AuthResponse, error) {
	var auth models.AuthResponse
	if err := h.postJSON(ctx, "/api/auth/register", req, &auth); err != nil {
		return models.AuthResponse{}, fmt.Errorf("register request: %w", err)
	}
	return auth, nil
}

// Refresh implements [ServerAdapter]. It deliberately bypasses the refresh
// hook: a 401 here means the refresh token itself is dead and the session
// is over.
func (h *httpServerAdapter) Refresh(ctx context.Context, refreshToken string) (models.AuthResponse, error) {
	var auth models.AuthResponse
	if err := h.postJSON(ctx, "/api/auth/refresh", models.RefreshRequest{RefreshToken: refreshToken}, &auth); err != nil {
		return models.AuthResponse{}, fmt.Errorf("refresh request: %w", err)
	}
	return auth, nil
}

// Logout implements [ServerAdapter]. The server-side revocation is fired
// with whatever token is at hand; an expired token is not worth a refresh
// round-trip when the whole point is to end the session.
func (h *httpServerAdapter) Logout(ctx context.Context) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+h.Token()).
		Post("/api/auth/logout")
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}

	return mapHTTPError(resp)
}

// ForgotPassword implements [ServerAdapter].
func (h *httpServerAdapter) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	if err := h.postJSON(ctx, "/api/auth/forgot-password", req, nil); err != nil {
		return fmt.Errorf("forgot password request: %w", err)
	}
	return nil
}

// ResetPassword implements [ServerAdapter].
func (h *httpServerAdapter) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := h.postJSON(ctx, "/api/auth/reset-password", req, nil); err != nil {
		return fmt.Errorf("reset password request: %w", err)
	}
	return nil
}

// Me implements [ServerAdapter].
func (h *httpServerAdapter) Me(ctx context.Context) (models.User, error) {
	var user models.User
	if err := h.authedJSON(ctx, resty.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return models.User{}, fmt.Errorf("me request: %w", err)
	}
	return user, nil
}

// Conversations implements [ServerAdapter].
func (h *httpServerAdapter) Conversations(ctx context.Context) (models.ConversationsPage, error) {
	var page models.ConversationsPage
	if err := h.authedJSON(ctx, resty.MethodGet, "/api/messages/conversations", nil, &page); err != nil {
		return models.ConversationsPage{}, fmt.Errorf("conversations request: %w", err)
	}
	return page, nil
}

// Messages implements [ServerAdapter].
func (h *httpServerAdapter) Messages(ctx context.Context, conversationID string) (models.MessagesPage, error) {
	var page models.MessagesPage
	path := "/api/messages/" + url.PathEscape(conversationID)
	if err := h.authedJSON(ctx, resty.MethodGet, path, nil, &page); err != nil {
		return models.MessagesPage{}, fmt.Errorf("messages request: %w", err)
	}
	return page, nil
}

// SendMessage implements [ServerAdapter].
func (h *httpServerAdapter) SendMessage(ctx context.Context, req models.SendMessageRequest) (models.SendMessageResponse, error) {
	var sent models.SendMessageResponse
	if err := h.authedJSON(ctx, resty.MethodPost, "/api/messages/send", req, &sent); err != nil {
		return models.SendMessageResponse{}, fmt.Errorf("send message request: %w", err)
	}
	return sent, nil
}

// MarkRead implements [ServerAdapter].
func (h *httpServerAdapter) MarkRead(ctx context.Context, conversationID string) error {
	path := "/api/messages/" + url.PathEscape(conversationID) + "/read"
	if err := h.authedJSON(ctx, resty.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("mark read request: %w", err)
	}
	return nil
}

// DeleteConversation implements [ServerAdapter].
func (h *httpServerAdapter) DeleteConversation(ctx context.Context, conversationID string) error {
	path := "/api/messages/" + url.PathEscape(conversationID)
	if err := h.authedJSON(ctx, resty.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete conversation request: %w", err)
	}
	return nil
}

// UnreadCount implements [ServerAdapter].
func (h *httpServerAdapter) UnreadCount(ctx context.Context) (int, error) {
	var count models.UnreadCountResponse
	if err := h.authedJSON(ctx, resty.MethodGet, "/api/messages/unread-count", nil, &count); err != nil {
		return 0, fmt.Errorf("unread count request: %w", err)
	}
	return count.Total, nil
}

// SearchConversations implements [ServerAdapter].
func (h *httpServerAdapter) SearchConversations(ctx context.Context, query string) (models.ConversationsPage, error) {
	var page models.ConversationsPage
	path := "/api/messages/search?q=" + url.QueryEscape(query)
	if err := h.authedJSON(ctx, resty.MethodGet, path, nil, &page); err != nil {
		return models.ConversationsPage{}, fmt.Errorf("search request: %w", err)
	}
	return page, nil
}

// postJSON fires an unauthenticated POST and unwraps the response envelope
// into out. Auth endpoints go through here so they never recurse into the
// refresh hook.
func (h *httpServerAdapter) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return err
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	return decodeEnvelope(resp.Body(), out)
}

// authedJSON fires an authenticated request and unwraps the envelope into
// out. On a 401 it invokes the refresh hook once and retries with the
// token the hook installed; a second 401 is final.
func (h *httpServerAdapter) authedJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := h.execute(ctx, method, path, body)
	if err != nil {
		return err
	}

	if mapped := mapHTTPError(resp); mapped != nil {
		if !errors.Is(mapped, ErrUnauthorized) {
			return mapped
		}

		hook := h.hook()
		if hook == nil {
			return mapped
		}
		if err = hook(ctx); err != nil {
			h.logger.Err(err).
				Str("func", "httpServerAdapter.authedJSON").
				Str("path", path).
				Msg("refresh hook failed, surfacing original 401")
			return mapped
		}

		resp, err = h.execute(ctx, method, path, body)
		if err != nil {
			return err
		}
		if mapped = mapHTTPError(resp); mapped != nil {
			return mapped
		}
	}

	return decodeEnvelope(resp.Body(), out)
}

func (h *httpServerAdapter) execute(ctx context.Context, method, path string, body any) (*resty.Response, error) {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	return req.Execute(method, path)
}

func decodeEnvelope(body []byte, out any) error {
	if out == nil {
		return nil
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response envelope: %w", err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("decode response envelope: missing data field")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}

	return nil
}
