// Package apiclient talks to the marketplace backend on behalf of the admin.
//
// Every call carries the admin bearer token. A 401/403 triggers one refresh-token
// exchange and one retry; if that does not help the stored credentials are cleared
// and the caller gets an *apperr.AuthError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"rental-admin-console/internal/apperr"
	"rental-admin-console/internal/auth"

	"go.uber.org/zap"
)

const refreshPath = "/v1/auth/update_refresh_token"

type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialStore
	logger  *zap.Logger

	// refreshMu serializes refreshes so concurrent 401s do not burn the same refresh token twice.
	refreshMu sync.Mutex
}

func New(baseURL string, httpClient *http.Client, creds CredentialStore, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		creds:   creds,
		logger:  logger,
	}
}

// Call sends body as JSON to path and decodes the JSON response into out (when non-nil).
func (c *Client) Call(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	creds, err := c.creds.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return &apperr.AuthError{Reason: "no access token"}
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return &apperr.AuthError{Reason: "no access token"}
	}

	status, respBody, err := c.do(ctx, method, path, payload, creds.AccessToken)
	if err != nil {
		return err
	}

	if isAuthStatus(status) {
		c.logger.Info("backend rejected access token, refreshing",
			zap.String("method", method), zap.String("path", path), zap.Int("status", status))

		token, err := c.refresh(ctx, creds.AccessToken)
		if err != nil {
			c.invalidate(ctx)
			return &apperr.AuthError{Reason: "refresh failed", Err: err}
		}

		status, respBody, err = c.do(ctx, method, path, payload, token)
		if err != nil {
			return err
		}
		if isAuthStatus(status) {
			c.invalidate(ctx)
			return &apperr.AuthError{Reason: fmt.Sprintf("backend still returned %d after refresh", status)}
		}
	}

	if status < 200 || status > 299 {
		return &apperr.APIError{Method: method, Path: path, Status: status, Body: string(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}
	return resp.StatusCode, respBody, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// The backend answers with accessToken/AccessToken; json matching is case-insensitive.
type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// refresh exchanges the stored refresh token and persists the result. If another call
// already rotated the token since `rejected` was read, the stored token is reused.
func (c *Client) refresh(ctx context.Context, rejected string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	creds, err := c.creds.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to reload credentials: %w", err)
	}
	if creds.AccessToken != "" && creds.AccessToken != rejected {
		return creds.AccessToken, nil
	}
	if creds.RefreshToken == "" {
		return "", errors.New("no refresh token")
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: creds.RefreshToken})
	if err != nil {
		return "", err
	}
	status, body, err := c.do(ctx, http.MethodPost, refreshPath, payload, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &apperr.APIError{Method: http.MethodPost, Path: refreshPath, Status: status, Body: string(body)}
	}

	var res refreshResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return "", fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if res.AccessToken == "" {
		return "", errors.New("refresh response carried no access token")
	}

	creds.AccessToken = res.AccessToken
	if res.RefreshToken != "" {
		creds.RefreshToken = res.RefreshToken
	}
	if claims, err := auth.InspectToken(res.AccessToken); err == nil {
		creds.UserAttributes = claims.Attributes()
	}
	creds.UpdatedAt = time.Now().UTC()

	if err := c.creds.Save(ctx, creds); err != nil {
		return "", fmt.Errorf("failed to save refreshed credentials: %w", err)
	}
	c.logger.Info("access token refreshed", zap.String("username", creds.Username))
	return res.AccessToken, nil
}

func (c *Client) invalidate(ctx context.Context) {
	if err := c.creds.Clear(ctx); err != nil {
		c.logger.Error("failed to clear credentials", zap.Error(err))
		return
	}
	c.logger.Warn("admin credentials cleared, re-login required")
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
