package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropDatabas3/sesamo/internal/domain/repository"
)

// HTTPClient talks to the Users service REST API. A 404 maps to
// repository.ErrNotFound; everything else surfaces as an error. No retry
// logic here: the orchestrator treats every failure as fatal for the
// in-flight login.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client with the given base URL and timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetByID(ctx context.Context, id string) (*User, error) {
	return c.getUser(ctx, c.baseURL+"/v1/users/"+url.PathEscape(id))
}

func (c *HTTPClient) GetByEmail(ctx context.Context, email string) (*User, error) {
	return c.getUser(ctx, c.baseURL+"/v1/users?email="+url.QueryEscape(email))
}

func (c *HTTPClient) getUser(ctx context.Context, endpoint string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users api: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, repository.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, apiError(resp)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("users api: decode user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("users api: user without id")
	}
	return &u, nil
}

func (c *HTTPClient) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/users", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("users api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("users api: decode created user: %w", err)
	}
	if u.ID == "" {
		return nil, fmt.Errorf("users api: created user without id")
	}
	return &u, nil
}

func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("users api: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
