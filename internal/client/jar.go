// ABOUTME: Cookie jar that keeps the backend session cookie across CLI runs
// ABOUTME: Wraps net/http/cookiejar and mirrors cookies to a 0600 JSON file

package client

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type savedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// sessionJar only ever talks to one backend, so cookies are tracked by
// name. path == "" keeps everything in memory.
type sessionJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	base    *url.URL
	path    string
	cookies map[string]savedCookie
}

func newSessionJar(baseURL, path string) (*sessionJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &sessionJar{
		jar:     jar,
		base:    base,
		path:    path,
		cookies: make(map[string]savedCookie),
	}
	if err := j.load(); err != nil {
		slog.Warn("Ignoring unreadable cookie file", "path", path, "error", err)
	}
	return j, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.jar.SetCookies(u, cookies)

	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.cookies, c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[c.Name] = savedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	j.saveLocked()
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar.Cookies(u)
}

// Reset forgets every cookie, in memory and on disk
func (j *sessionJar) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()

	jar, _ := cookiejar.New(nil)
	j.jar = jar
	j.cookies = make(map[string]savedCookie)
	if j.path != "" {
		if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove cookie file", "error", err)
		}
	}
}

func (j *sessionJar) load() error {
	if j.path == "" {
		return nil
	}
	data, err := os.ReadFile(j.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("parsing cookie file: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		if !s.Expires.IsZero() && s.Expires.Before(now) {
			continue
		}
		j.cookies[s.Name] = s
		cookies = append(cookies, &http.Cookie{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
		})
	}
	j.jar.SetCookies(j.base, cookies)
	return nil
}

func (j *sessionJar) saveLocked() {
	if j.path == "" {
		return
	}
	if len(j.cookies) == 0 {
		if err := os.Remove(j.path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove cookie file", "error", err)
		}
		return
	}

	saved := make([]savedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		saved = append(saved, c)
	}
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		slog.Warn("Failed to encode cookies", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0700); err != nil {
		slog.Warn("Failed to create cookie dir", "error", err)
		return
	}
	if err := os.WriteFile(j.path, data, 0600); err != nil {
		slog.Warn("Failed to save cookies", "error", err)
	}
}
