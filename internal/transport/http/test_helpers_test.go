package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/studyroomhq/studyroom-server/internal/auth"
	"github.com/studyroomhq/studyroom-server/internal/config"
	"github.com/studyroomhq/studyroom-server/internal/core"
	"github.com/studyroomhq/studyroom-server/internal/store"
	"github.com/studyroomhq/studyroom-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	store *sqlite.SQLiteStore
	auth  *auth.Service
	coord *core.Coordinator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	logger := zerolog.Nop()
	coord := core.NewCoordinator(st, &logger)

	server := NewServer(coord, authService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, coord: coord}
}

// registerUser creates an account directly through the auth service and
// returns a valid bearer token with the stored user.
func (e *testEnv) registerUser(t *testing.T, username string) (string, *store.User) {
	t.Helper()

	token, user, err := e.auth.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token, user
}

// doJSON performs an authenticated JSON request against the test server.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *stdhttp.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := stdhttp.NewRequest(method, e.ts.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// decodeBody reads and decodes a JSON response body into out.
func decodeBody(t *testing.T, resp *stdhttp.Response, out any) {
	t.Helper()

	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func seedCatalog(t *testing.T, e *testEnv) {
	t.Helper()

	err := e.store.SeedPredefinedMessages(context.Background(), []store.PredefinedMessage{
		{Key: "hello", Content: "Hello everyone!"},
		{Key: "keep_going", Content: "Keep going, you can do it!"},
	})
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
}
