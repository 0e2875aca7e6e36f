// internal/app/system/idp/client.go

// Package idp talks to the identity provider's admin API. MentorHub does
// not store credentials itself; account lifecycle (create, delete,
// password reset) is delegated here and the provider's subject becomes
// the user's ID.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// Account is the provider-side record for a user.
type Account struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
}

// Manager is the slice of the admin API the backend needs.
type Manager interface {
	CreateAccount(ctx context.Context, email, name, password string) (Account, error)
	DeleteAccount(ctx context.Context, subject string) error
	SetPassword(ctx context.Context, subject, password string) error
}

// Client calls the admin API with machine credentials. The token source
// caches and refreshes the access token across calls.
type Client struct {
	baseURL string
	http    *http.Client
}

// Config carries the admin API location and the client credentials
// grant used to authenticate against it.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("idp base URL is required")
	}
	cc := clientcredentials.Config{
		TokenURL:     cfg.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
	httpClient := cc.Client(ctx)
	httpClient.Timeout = 15 * time.Second
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}, nil
}

func (c *Client) CreateAccount(ctx context.Context, email, name, password string) (Account, error) {
	body := map[string]string{"email": email, "name": name, "password": password}
	var acct Account
	if err := c.do(ctx, http.MethodPost, "/admin/accounts", body, &acct); err != nil {
		return Account{}, fmt.Errorf("create account: %w", err)
	}
	if acct.Subject == "" {
		return Account{}, fmt.Errorf("create account: provider returned no subject")
	}
	return acct, nil
}

func (c *Client) DeleteAccount(ctx context.Context, subject string) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/accounts/"+subject, nil, nil); err != nil {
		return fmt.Errorf("delete account %s: %w", subject, err)
	}
	return nil
}

func (c *Client) SetPassword(ctx context.Context, subject, password string) error {
	body := map[string]string{"password": password}
	if err := c.do(ctx, http.MethodPut, "/admin/accounts/"+subject+"/password", body, nil); err != nil {
		return fmt.Errorf("set password for %s: %w", subject, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
