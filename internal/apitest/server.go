// ABOUTME: In-process fake of the Samar Blogs backend for tests
// ABOUTME: Implements auth and posts routes with cookie and bearer sessions on a chi router

package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionCookie is the cookie name the fake backend sets on login
const SessionCookie = "token"

// User is the fake backend's view of an account
type User struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`

	password string
}

// Post is the fake backend's post record
type Post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"user_id"`

	CreatedAt string `json:"created_at"`
}

// Recorded is one request as the backend saw it
type Recorded struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	Cookie        string
	RequestID     string
	Body          string
}

type failure struct {
	status int
	body   string
}

// Server is a running fake backend. All state is guarded by mu.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	users    []*User
	posts    []*Post
	sessions map[string]int // cookie value -> user id
	tokens   map[string]int // bearer token -> user id
	failures map[string]failure
	requests []Recorded
	nextPost int
}

// New starts a fake backend. Callers must Close it.
func New() *Server {
	s := &Server{
		sessions: make(map[string]int),
		tokens:   make(map[string]int),
		failures: make(map[string]failure),
		nextPost: 1,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.inject)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/me", s.handleMe)
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/logout", s.handleLogout)
		r.Get("/google", s.handleGoogle)
	})

	r.Route("/posts", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleListPosts)
		r.Post("/", s.handleCreatePost)
		r.Put("/{id}", s.handleUpdatePost)
		r.Delete("/{id}", s.handleDeletePost)
	})

	return r
}

// AddUser creates an account and returns its id
func (s *Server) AddUser(name, email, password string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password).ID
}

func (s *Server) addUserLocked(name, email, password string) *User {
	u := &User{ID: len(s.users) + 1, Name: name, Email: email, password: password}
	s.users = append(s.users, u)
	return u
}

// AddPost stores a post owned by userID and returns its id
func (s *Server) AddPost(title, body string, userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &Post{
		ID:        s.nextPost,
		Title:     title,
		Body:      body,
		UserID:    userID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	s.nextPost++
	s.posts = append(s.posts, p)
	return p.ID
}

// IssueToken mints a bearer token for userID, as the OAuth callback would
func (s *Server) IssueToken(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.New().String()
	s.tokens[token] = userID
	return token
}

// Fail makes the next request to method+path answer with status and body
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Requests returns every request received so far
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request
func (s *Server) LastRequest() Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Recorded{}
	}
	return s.requests[len(s.requests)-1]
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			Cookie:        r.Header.Get("Cookie"),
			RequestID:     r.Header.Get("X-Request-ID"),
			Body:          string(body),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()
		if ok {
			w.WriteHeader(f.status)
			w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identify resolves the caller from the session cookie or bearer token.
// badToken is true when a bearer token was sent but is unknown.
func (s *Server) identify(r *http.Request) (user *User, badToken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, ok := s.sessions[c.Value]; ok {
			return s.userLocked(id), false
		}
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, ok := s.tokens[strings.TrimPrefix(auth, "Bearer ")]; ok {
			return s.userLocked(id), false
		}
		return nil, true
	}
	return nil, false
}

func (s *Server) userLocked(id int) *User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, _ := s.identify(r); user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, badToken := s.identify(r)
	if badToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) startSession(w http.ResponseWriter, userID int) {
	value := uuid.New().String()
	s.mu.Lock()
	s.sessions[value] = userID
	s.mu.Unlock()
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: value, Path: "/", HttpOnly: true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	var found *User
	for _, u := range s.users {
		if u.Email == req.Email && u.password == req.Password {
			found = u
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	s.startSession(w, found.ID)
	writeJSON(w, http.StatusOK, map[string]any{"user": found, "message": "Login successful"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Name, email and password are required"})
		return
	}

	s.mu.Lock()
	for _, u := range s.users {
		if u.Email == req.Email {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User already exists"})
			return
		}
	}
	user := s.addUserLocked(req.Name, req.Email, req.Password)
	s.mu.Unlock()

	s.startSession(w, user.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "message": "User registered successfully"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// handleGoogle skips the provider and redirects straight back with a
// bearer token for the first account, like a completed consent screen.
func (s *Server) handleGoogle(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	if redirect == "" {
		http.Error(w, "missing redirect", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if len(s.users) == 0 {
		s.addUserLocked("Google User", "google@example.com", "")
	}
	userID := s.users[0].ID
	s.mu.Unlock()

	token := s.IssueToken(userID)
	http.Redirect(w, r, redirect+"?token="+url.QueryEscape(token), http.StatusFound)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	search := strings.ToLower(q.Get("search"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	s.mu.Lock()
	matched := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		if search == "" || strings.Contains(strings.ToLower(p.Title), search) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	totalPages := (len(matched) + limit - 1) / limit
	start := (page - 1) * limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":       matched[start:end],
		"totalPosts":  len(matched),
		"totalPages":  totalPages,
		"currentPage": page,
	})
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	user, _ := s.identify(r)
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title and body are required"})
		return
	}
	id := s.AddPost(req.Title, req.Body, user.ID)
	writeJSON(w, http.StatusCreated, s.post(id))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	var found *Post
	for _, p := range s.posts {
		if p.ID == id {
			p.Title, p.Body = req.Title, req.Body
			found = p
		}
	}
	s.mu.Unlock()

	if found == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Post updated", "post": s.post(id)})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	s.mu.Lock()
	kept := s.posts[:0]
	deleted := false
	for _, p := range s.posts {
		if p.ID == id {
			deleted = true
			continue
		}
		kept = append(kept, p)
	}
	s.posts = kept
	s.mu.Unlock()

	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Post not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted"})
}

func (s *Server) post(id int) Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			return *p
		}
	}
	return Post{}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
