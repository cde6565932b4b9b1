// ABOUTME: Request and response models for the Samar Blogs API
// ABOUTME: Normalizes optional and loosely typed fields at the client boundary

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a resource identifier. The backend sends numbers, but string ids
// are accepted too so callers never care which.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid id %s", b)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is missing
func (id ID) IsZero() bool {
	return id == ""
}

// User is the authenticated identity
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginRequest represents credentials for authentication
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a new account
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register. User is nil when the
// backend answered without an identity.
type AuthResponse struct {
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// MessageResponse is the shape of logout and delete responses
type MessageResponse struct {
	Message string `json:"message"`
}

// meResponse covers {user}, {user: null} and a missing user field
type meResponse struct {
	User *User `json:"user"`
}

// Post is a blog post
type Post struct {
	ID        ID     `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	UserID    ID     `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
	// Author is joined in by the backend on some responses
	Author *PostAuthor `json:"Users,omitempty"`
}

// PostAuthor is the author summary embedded in a post
type PostAuthor struct {
	Name string `json:"name"`
}

// PostInput is the body of create and update calls
type PostInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PostList is one page of the post feed
type PostList struct {
	Posts       []Post `json:"posts"`
	TotalPosts  int    `json:"totalPosts"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}

// ListPostsParams selects a page of the feed
type ListPostsParams struct {
	Page   int
	Limit  int
	Search string
}

// postEnvelope accepts either {post: {...}} or a bare post object
type postEnvelope struct {
	Post    *Post  `json:"post"`
	Message string `json:"message"`
}
