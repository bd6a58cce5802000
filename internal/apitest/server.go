// Package apitest is an in-memory fake of the remote session API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Error codes returned in the "code" field of 4xx bodies.
const (
	CodeInvalidCredentials  = "credentials.invalid"
	CodeMissingCredentials  = "credentials.missing"
	CodeTokenMissing        = "token.missing"
	CodeTokenExpired        = "token.expired"
	CodeTokenInvalid        = "token.invalid"
	CodeRefreshTokenInvalid = "refresh_token.invalid"
)

// Account is a user known to the fake API.
type Account struct {
	Email       string   `json:"email"`
	Password    string   `json:"-"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

type session struct {
	email   string
	expired bool
}

// Server serves POST /sessions, GET /me, POST /refresh and a protected
// GET /resources/{id} that echoes the token it was called with.
type Server struct {
	URL string

	mu            sync.Mutex
	accounts      map[string]Account
	sessions      map[string]*session
	refreshTokens map[string]string
	failRefresh   bool
	meStatus      int
	beforeRefresh func()

	signInCalls   atomic.Int32
	meCalls       atomic.Int32
	refreshCalls  atomic.Int32
	resourceCalls atomic.Int32

	router chi.Router
}

// New builds a server without starting it.
func New(accounts ...Account) *Server {
	s := &Server{
		accounts:      make(map[string]Account),
		sessions:      make(map[string]*session),
		refreshTokens: make(map[string]string),
	}
	for _, a := range accounts {
		s.accounts[a.Email] = a
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/sessions", s.handleSignIn)
	r.Get("/me", s.handleMe)
	r.Post("/refresh", s.handleRefresh)
	r.Get("/resources/{id}", s.handleResource)
	s.router = r

	return s
}

// Start runs the server on a local port until the test ends.
func Start(t testing.TB, accounts ...Account) *Server {
	t.Helper()
	s := New(accounts...)
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// IssueSession creates a token pair for email as if it had signed in.
func (s *Server) IssueSession(email string) (token, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(email)
}

// ExpireAll marks every issued session token as expired.
func (s *Server) ExpireAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.expired = true
	}
}

// RevokeAll forgets every session and refresh token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*session)
	s.refreshTokens = make(map[string]string)
}

// FailRefresh makes every refresh call fail with a 401.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	s.failRefresh = fail
	s.mu.Unlock()
}

// FailMe makes GET /me answer with status. Zero restores normal behaviour.
func (s *Server) FailMe(status int) {
	s.mu.Lock()
	s.meStatus = status
	s.mu.Unlock()
}

// BeforeRefresh installs a hook run at the start of every refresh call.
// Tests use it to hold a refresh in flight.
func (s *Server) BeforeRefresh(fn func()) {
	s.mu.Lock()
	s.beforeRefresh = fn
	s.mu.Unlock()
}

func (s *Server) SignInCalls() int   { return int(s.signInCalls.Load()) }
func (s *Server) MeCalls() int       { return int(s.meCalls.Load()) }
func (s *Server) RefreshCalls() int  { return int(s.refreshCalls.Load()) }
func (s *Server) ResourceCalls() int { return int(s.resourceCalls.Load()) }

func (s *Server) issueLocked(email string) (string, string) {
	token := "tok_" + uuid.NewString()
	refreshToken := "ref_" + uuid.NewString()
	s.sessions[token] = &session{email: email}
	s.refreshTokens[refreshToken] = email
	return token, refreshToken
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Permissions  []string `json:"permissions"`
	Roles        []string `json:"roles"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	s.signInCalls.Add(1)

	var in signInRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, CodeMissingCredentials, "email and password are required")
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[in.Email]
	if !ok || acc.Password != in.Password {
		s.mu.Unlock()
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid email or password")
		return
	}
	token, refreshToken := s.issueLocked(acc.Email)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, signInResponse{
		Token:        token,
		RefreshToken: refreshToken,
		Permissions:  acc.Permissions,
		Roles:        acc.Roles,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.meCalls.Add(1)

	s.mu.Lock()
	status := s.meStatus
	s.mu.Unlock()
	if status != 0 {
		writeError(w, status, "", http.StatusText(status))
		return
	}

	acc, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.mu.Lock()
	hook := s.beforeRefresh
	s.mu.Unlock()
	if hook != nil {
		hook()
	}

	var in refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&in)

	s.mu.Lock()
	defer s.mu.Unlock()

	email, ok := s.refreshTokens[in.RefreshToken]
	if s.failRefresh || !ok {
		writeError(w, http.StatusUnauthorized, CodeRefreshTokenInvalid, "refresh token is invalid")
		return
	}
	delete(s.refreshTokens, in.RefreshToken)
	token, refreshToken := s.issueLocked(email)

	writeJSON(w, http.StatusOK, refreshResponse{Token: token, RefreshToken: refreshToken})
}

type resourceResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	s.resourceCalls.Add(1)

	acc, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, resourceResponse{
		ID:    chi.URLParam(r, "id"),
		Email: acc.Email,
		Token: bearer(r),
	})
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (Account, bool) {
	token := bearer(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, CodeTokenMissing, "authorization required")
		return Account{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	switch {
	case !ok:
		writeError(w, http.StatusUnauthorized, CodeTokenInvalid, "token is invalid")
		return Account{}, false
	case sess.expired:
		writeError(w, http.StatusUnauthorized, CodeTokenExpired, "token has expired")
		return Account{}, false
	}
	acc, ok := s.accounts[sess.email]
	if !ok {
		acc = Account{Email: sess.email}
	}
	return acc, true
}

func bearer(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	body := map[string]string{"message": message}
	if code != "" {
		body["code"] = code
	}
	writeJSON(w, status, body)
}
