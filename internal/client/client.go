// Package client ContentFlow REST API 的 Go 客户端，登录态由 session.State 显式持有
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ContentFlow/internal/model"
	"ContentFlow/internal/session"
)

// APIError 服务端返回的 {message}
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contentflow: %d %s", e.Status, e.Message)
}

var ErrNotLoggedIn = errors.New("contentflow: not logged in")

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	state session.State
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithSession 使用已保存的登录态
func WithSession(s session.State) Option {
	return func(c *Client) { c.state = s }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		state:   session.New(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Session() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

type authResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

func (c *Client) Signup(ctx context.Context, email, password string) (session.State, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (session.State, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (session.State, error) {
	c.mu.Lock()
	next, err := session.Begin(session.Logout(c.state))
	if err != nil {
		c.mu.Unlock()
		return c.Session(), err
	}
	c.state = next
	c.mu.Unlock()

	var res authResponse
	reqErr := c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email, "password": password}, &res)

	c.mu.Lock()
	defer c.mu.Unlock()
	if reqErr != nil {
		c.state, _ = session.Fail(c.state, messageOf(reqErr))
		return c.state, reqErr
	}
	next, err = session.Succeed(c.state, res.Token, res.User)
	if err != nil {
		c.state, _ = session.Fail(c.state, "Malformed authentication response")
		return c.state, err
	}
	c.state = next
	return c.state, nil
}

// Logout 服务端失败时本地状态同样清空
func (c *Client) Logout(ctx context.Context) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	err = c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)

	c.mu.Lock()
	c.state = session.Logout(c.state)
	c.mu.Unlock()
	return err
}

func (c *Client) Me(ctx context.Context) (*model.PublicUser, error) {
	var res struct {
		User model.PublicUser `json:"user"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

type ListOptions struct {
	Page    int
	Limit   int
	Status  model.Status
	Keyword string
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Status != "" {
		v.Set("status", string(o.Status))
	}
	if o.Keyword != "" {
		v.Set("keyword", o.Keyword)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) List(ctx context.Context, opts ListOptions) (*model.ContentPage, error) {
	var page model.ContentPage
	if err := c.authed(ctx, http.MethodGet, "/api/content"+opts.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type contentResponse struct {
	Message string            `json:"message"`
	Content model.ContentView `json:"content"`
}

func (c *Client) Submit(ctx context.Context, title, description string) (*model.ContentView, error) {
	var res contentResponse
	body := map[string]string{"title": title, "description": description}
	if err := c.authed(ctx, http.MethodPost, "/api/content", body, &res); err != nil {
		return nil, err
	}
	return &res.Content, nil
}

func (c *Client) Approve(ctx context.Context, id string) (*model.ContentView, error) {
	return c.decide(ctx, id, "approve")
}

func (c *Client) Reject(ctx context.Context, id string) (*model.ContentView, error) {
	return c.decide(ctx, id, "reject")
}

func (c *Client) decide(ctx context.Context, id, action string) (*model.ContentView, error) {
	var res contentResponse
	path := "/api/content/" + url.PathEscape(id) + "/" + action
	if err := c.authed(ctx, http.MethodPut, path, nil, &res); err != nil {
		return nil, err
	}
	return &res.Content, nil
}

func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.authed(ctx, http.MethodGet, "/api/content/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) Recent(ctx context.Context) ([]model.ContentView, error) {
	var list []model.ContentView
	if err := c.authed(ctx, http.MethodGet, "/api/content/recent", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) token() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase != session.Authenticated {
		return "", ErrNotLoggedIn
	}
	return c.state.Token, nil
}

// authed 带 token 的请求；401 说明登录态已失效，本地回到 anonymous
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	token, err := c.token()
	if err != nil {
		return err
	}
	err = c.do(ctx, method, path, token, body, out)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		c.mu.Lock()
		if c.state.Token == token {
			c.state = session.Logout(c.state)
		}
		c.mu.Unlock()
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func messageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
