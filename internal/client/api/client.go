// Package api is a thin HTTP client for the account server. It speaks the
// same wire payloads the server exposes and surfaces server-side business
// errors as *ServerError values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dmpavlov/userkeeper/internal/common"
	"github.com/dmpavlov/userkeeper/internal/server/httpapi"
)

// ServerError is a non-2xx response decoded from the server's error payload.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken stores the session token sent with subsequent requests.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Register(ctx context.Context, req *httpapi.CreateUserRequest) (*httpapi.UserResponse, error) {
	var user httpapi.UserResponse
	if err := c.do(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	c.token = user.Token
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*httpapi.UserResponse, error) {
	var user httpapi.UserResponse
	req := &httpapi.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/users/login", req, &user); err != nil {
		return nil, err
	}
	c.token = user.Token
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context, page, size int) (*httpapi.PagedResponse, error) {
	var paged httpapi.PagedResponse
	path := "/users?page=" + strconv.Itoa(page) + "&size=" + strconv.Itoa(size)
	if err := c.do(ctx, http.MethodGet, path, nil, &paged); err != nil {
		return nil, err
	}
	return &paged, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*httpapi.UserResponse, error) {
	var user httpapi.UserResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+id, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req *httpapi.UpdateUserRequest) (*httpapi.UserResponse, error) {
	var user httpapi.UserResponse
	if err := c.do(ctx, http.MethodPatch, "/users/"+id, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		serverErr := &ServerError{StatusCode: resp.StatusCode}
		var payload httpapi.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			serverErr.Code = payload.Code
			serverErr.Message = payload.Message
		}
		return serverErr
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
