// Package client implements the command-line client of the farm inventory
// API: an HTTP wrapper, a persisted login session and interactive prompts.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/cerevyn/internal/apperr"
	"github.com/atinyakov/cerevyn/internal/models"
)

const (
	apiRegister  = "/api/v1/identity/register"
	apiLogin     = "/api/v1/identity/login"
	apiInventory = "/api/v1/inventory"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []apperr.FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, strings.Join(msgs, "; "))
}

// Unauthorized reports whether the server rejected the session token.
func (e *APIError) Unauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register payload.
type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FarmName string `json:"farmName,omitempty"`
}

// AuthResponse is what register and login return.
type AuthResponse struct {
	Token string `json:"token"`
	Data  struct {
		User models.User `json:"user"`
	} `json:"data"`
}

// Inventory is the list endpoint response.
type Inventory struct {
	Results int            `json:"results"`
	Summary models.Summary `json:"summary"`
	Data    struct {
		Items []models.InventoryItem `json:"items"`
	} `json:"data"`
}

type itemResponse struct {
	Data struct {
		Item models.InventoryItem `json:"item"`
	} `json:"data"`
}

// Client talks to the API on behalf of one session.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Token   string
}

// New returns a Client for baseURL with a 10 second request timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithCA returns a Client that trusts only the CA certificate at caPath.
func NewWithCA(baseURL, caPath string) (*Client, error) {
	caCert, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}

	c := New(baseURL)
	c.HTTP.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{RootCAs: caPool, MinVersion: tls.VersionTLS12},
	}
	return c, nil
}

// Register creates an account and stores the returned token on c.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, apiRegister, reg, &out); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// Login exchanges credentials for a token and stores it on c.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, apiLogin, creds, &out); err != nil {
		return nil, err
	}
	c.Token = out.Token
	return &out, nil
}

// ListItems fetches the caller's inventory and summary.
func (c *Client) ListItems(ctx context.Context) (*Inventory, error) {
	var out Inventory
	if err := c.do(ctx, http.MethodGet, apiInventory, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateItem adds a new item.
func (c *Client) CreateItem(ctx context.Context, in models.ItemInput) (*models.InventoryItem, error) {
	var out itemResponse
	if err := c.do(ctx, http.MethodPost, apiInventory, in, &out); err != nil {
		return nil, err
	}
	return &out.Data.Item, nil
}

// UpdateItem applies a partial update to item id.
func (c *Client) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.InventoryItem, error) {
	var out itemResponse
	if err := c.do(ctx, http.MethodPatch, apiInventory+"/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out.Data.Item, nil
}

// DeleteItem removes item id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, apiInventory+"/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Message string              `json:"message"`
		Errors  []apperr.FieldError `json:"errors"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Fields = body.Errors
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
