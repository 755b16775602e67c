// Package testutil provides the in-memory stores and request helpers
// the handler and service tests run against.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sirreidlos/e-form/internal/config"
	"github.com/sirreidlos/e-form/internal/eform/entity"
	"github.com/sirreidlos/e-form/internal/eform/repository"
	"github.com/sirreidlos/e-form/internal/middleware"
)

const JWTSecret = "e-form-test-jwt-secret"

// TestConfig returns a config suitable for hermetic tests.
func TestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             JWTSecret,
			AccessTokenExpire:  2 * time.Hour,
			RefreshTokenExpire: 7 * 24 * time.Hour,
			Issuer:             "e-form",
		},
	}
}

// SetupRouter creates a gin test router.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates a route group behind JWT auth.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// OptionalAuthGroup creates a route group that resolves an identity when
// a token is present but admits anonymous requests.
func OptionalAuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.OptionalJWTAuth(JWTSecret))
}

// GenerateTestToken creates a valid access token.
func GenerateTestToken(userID, username, email string) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"email":    email,
		"username": username,
		"iss":      "e-form",
		"iat":      now.Unix(),
		"exp":      now.Add(2 * time.Hour).Unix(),
	}
	tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(JWTSecret))
	return tokenString
}

// DefaultTestToken returns a token for a default test user.
func DefaultTestToken() string {
	return GenerateTestToken("test-user-001", "Test User", "test@example.com")
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse parses the JSON response body into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// MemoryFormStore is an in-memory FormStore.
type MemoryFormStore struct {
	mu    sync.RWMutex
	forms map[string]entity.Form
}

func NewMemoryFormStore() *MemoryFormStore {
	return &MemoryFormStore{forms: make(map[string]entity.Form)}
}

func (s *MemoryFormStore) FindByID(_ context.Context, id string) (*entity.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &form, nil
}

func (s *MemoryFormStore) ListByOwner(_ context.Context, owner string) ([]entity.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Form
	for _, form := range s.forms {
		if form.Owner == owner {
			out = append(out, form)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryFormStore) Create(_ context.Context, form *entity.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if form.CreatedAt.IsZero() {
		form.CreatedAt = time.Now()
	}
	form.UpdatedAt = time.Now()
	s.forms[form.ID] = *form
	return nil
}

func (s *MemoryFormStore) Update(_ context.Context, form *entity.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.forms[form.ID]; !ok {
		return repository.ErrNotFound
	}
	form.UpdatedAt = time.Now()
	s.forms[form.ID] = *form
	return nil
}

func (s *MemoryFormStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, id)
	return nil
}

// MemoryResponseStore is an in-memory ResponseStore.
type MemoryResponseStore struct {
	mu        sync.RWMutex
	responses map[string]entity.Response
}

func NewMemoryResponseStore() *MemoryResponseStore {
	return &MemoryResponseStore{responses: make(map[string]entity.Response)}
}

func (s *MemoryResponseStore) FindByID(_ context.Context, id string) (*entity.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &resp, nil
}

func (s *MemoryResponseStore) ListByForm(_ context.Context, formID string) ([]entity.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []entity.Response
	for _, resp := range s.responses {
		if resp.FormID == formID {
			out = append(out, resp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryResponseStore) Create(_ context.Context, response *entity.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now()
	}
	s.responses[response.ID] = *response
	return nil
}

func (s *MemoryResponseStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.responses, id)
	return nil
}

func (s *MemoryResponseStore) DeleteByForm(_ context.Context, formID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, resp := range s.responses {
		if resp.FormID == formID {
			delete(s.responses, id)
		}
	}
	return nil
}

// MemoryUserStore is an in-memory UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]entity.User)}
}

func (s *MemoryUserStore) FindByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *MemoryUserStore) Create(_ context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = *user
	return nil
}

// SeedForm stores a form directly.
func SeedForm(store *MemoryFormStore, id, owner string, state entity.FormState, questions []entity.Question) *entity.Form {
	form := &entity.Form{
		ID:        id,
		Owner:     owner,
		Title:     "Test Form " + id,
		State:     state,
		Questions: questions,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	store.Create(context.Background(), form)
	return form
}
