// ABOUTME: Typed wrappers for the auth and posts endpoints
// ABOUTME: Each wrapper goes through Request so credentials and errors stay uniform

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrPostNotFound is returned when a post id is not in the feed
var ErrPostNotFound = errors.New("post not found")

const (
	// DefaultPageSize matches the feed page size of the web client
	DefaultPageSize = 5
	// lookupPageSize is how many posts are scanned to find one by id
	lookupPageSize = 100
)

// Me calls GET /auth/me. A nil user with nil error means nobody is logged in.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login calls POST /auth/login
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register calls POST /auth/register
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	req := RegisterRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout calls POST /auth/logout and returns the server message. Local
// credentials are left alone; call ClearCredentials once the logout
// is known to be the latest word on the session.
func (c *Client) Logout(ctx context.Context) (string, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GoogleAuthURL returns the address that starts the Google OAuth flow.
// It is opened in a browser, not requested by this client.
func (c *Client) GoogleAuthURL(redirect string) string {
	u := c.baseURL + "/auth/google"
	if redirect != "" {
		u += "?redirect=" + url.QueryEscape(redirect)
	}
	return u
}

// ListPosts calls GET /posts?page&limit&search
func (c *Client) ListPosts(ctx context.Context, params ListPostsParams) (*PostList, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = DefaultPageSize
	}

	path := fmt.Sprintf("/posts?page=%d&limit=%d&search=%s", params.Page, params.Limit, url.QueryEscape(params.Search))

	var list PostList
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}

	if list.Posts == nil {
		list.Posts = []Post{}
	}
	if list.TotalPages < 1 {
		list.TotalPages = 1
	}
	if list.CurrentPage < 1 {
		list.CurrentPage = params.Page
	}
	return &list, nil
}

// GetPost finds a post by id. The API has no single-post endpoint, so the
// first page of lookupPageSize posts is scanned.
func (c *Client) GetPost(ctx context.Context, id ID) (*Post, error) {
	list, err := c.ListPosts(ctx, ListPostsParams{Page: 1, Limit: lookupPageSize})
	if err != nil {
		return nil, err
	}
	for i := range list.Posts {
		if list.Posts[i].ID == id {
			return &list.Posts[i], nil
		}
	}
	return nil, ErrPostNotFound
}

// CreatePost calls POST /posts
func (c *Client) CreatePost(ctx context.Context, input PostInput) (*Post, error) {
	raw, err := c.Request(ctx, http.MethodPost, "/posts", input)
	if err != nil {
		return nil, err
	}
	return decodePost(raw)
}

// UpdatePost calls PUT /posts/:id
func (c *Client) UpdatePost(ctx context.Context, id ID, input PostInput) (*Post, error) {
	raw, err := c.Request(ctx, http.MethodPut, "/posts/"+url.PathEscape(id.String()), input)
	if err != nil {
		return nil, err
	}
	return decodePost(raw)
}

// DeletePost calls DELETE /posts/:id and returns the server message
func (c *Client) DeletePost(ctx context.Context, id ID) (string, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/posts/"+url.PathEscape(id.String()), nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func decodePost(raw json.RawMessage) (*Post, error) {
	var env postEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if env.Post != nil {
		return env.Post, nil
	}
	var post Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &post, nil
}
