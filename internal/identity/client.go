// Package identity wraps the external identity provider's HTTP API.
// Credential storage, password verification and session issuance all
// happen inside the provider; this client only relays requests and
// normalizes responses.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to a GoTrue-compatible identity endpoint.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// User is the provider's view of an account. ConfirmedAt is nil until the
// account's email address has been verified.
type User struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	ConfirmedAt *time.Time     `json:"confirmed_at,omitempty"`
	Metadata    map[string]any `json:"user_metadata,omitempty"`
}

// Session is returned by a successful password grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// ProviderError carries the provider's own failure message so callers can
// surface it verbatim.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 8 * time.Second,
		},
	}
}

// SignUp creates an account. When the provider requires email
// confirmation the returned user has a nil ConfirmedAt and no session
// exists yet.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (User, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}
	if name != "" {
		body["data"] = map[string]any{"name": name}
	}

	var u User
	if err := c.do(ctx, http.MethodPost, "/signup", body, "", &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// SignInWithPassword performs the password grant and returns the
// provider-issued session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
	}

	var s Session
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", body, "", &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, accessToken, nil)
}

// GetUser resolves the user behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/user", nil, accessToken, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, accessToken string, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &ProviderError{
			Status:  resp.StatusCode,
			Message: decodeErrorMessage(resp),
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeErrorMessage pulls a human-readable message out of the provider's
// error payload, which uses either {"msg": ...} or
// {"error": ..., "error_description": ...}.
func decodeErrorMessage(resp *http.Response) string {
	var payload struct {
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		switch {
		case payload.Msg != "":
			return payload.Msg
		case payload.ErrorDescription != "":
			return payload.ErrorDescription
		case payload.Error != "":
			return payload.Error
		}
	}
	return fmt.Sprintf("identity provider error (status %d)", resp.StatusCode)
}
