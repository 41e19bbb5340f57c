package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"github.com/stretchr/testify/require"
)

const testPassword = "password123"

// stubPredictor returns canned results per command and records every call
type stubPredictor struct {
	mu      sync.Mutex
	results map[string]any
	err     error
	calls   []prediction.Request
}

func (s *stubPredictor) Run(_ context.Context, req prediction.Request) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[req.Command]; ok {
		return r, nil
	}
	return map[string]any{}, nil
}

func (s *stubPredictor) lastCall(t *testing.T) prediction.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.calls, "predictor was not called")
	return s.calls[len(s.calls)-1]
}

func (s *stubPredictor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type testEnv struct {
	t         *testing.T
	store     *store.Memory
	predictor *stubPredictor
	jwt       *auth.JWTManager
	handler   *Handler
	router    *gin.Engine
	clock     time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jm, err := auth.NewJWTManager("test-secret-key-for-testing-purposes-only")
	require.NoError(t, err)

	env := &testEnv{
		t:         t,
		store:     store.NewMemory(),
		predictor: &stubPredictor{results: map[string]any{}},
		jwt:       jm,
		clock:     time.Now().UTC(),
	}
	env.handler = NewHandler(Options{
		Store:      env.store,
		Predictor:  env.predictor,
		JWTManager: jm,
		Rand:       rand.New(rand.NewSource(1)),
		Now:        func() time.Time { return env.clock },
	})
	env.router = NewRouter(env.handler, RouterOptions{})
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

// user creates a verified account with testPassword
func (e *testEnv) user(role, email string, mutate ...func(*models.User)) *models.User {
	e.t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(e.t, err)

	u := &models.User{Name: email, Email: email, Role: role, IsVerified: true, HashedPassword: hash}
	for _, fn := range mutate {
		fn(u)
	}
	require.NoError(e.t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) token(u *models.User) string {
	e.t.Helper()
	token, err := e.jwt.GenerateToken(context.Background(), u.ID, u.Email, u.Role, time.Hour)
	require.NoError(e.t, err)
	return token
}

// do sends body as JSON; a string body is sent verbatim
func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	return decode[models.ErrorResponse](t, w)
}
