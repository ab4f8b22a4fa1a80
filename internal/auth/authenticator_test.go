package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brain-io/agent/internal/common"
	"github.com/brain-io/agent/internal/credentials"
	"github.com/brain-io/agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	presented []models.Challenge
	retries   []models.Challenge
	retryErr  error
}

func (r *countingResolver) Present(ctx context.Context, challenge models.Challenge) error {
	r.presented = append(r.presented, challenge)
	return nil
}

func (r *countingResolver) Retry(ctx context.Context, challenge models.Challenge) error {
	r.retries = append(r.retries, challenge)
	return r.retryErr
}

type fixedSource struct {
	credential  models.Credential
	invalidated int
}

func (f *fixedSource) GetCredentials(ctx context.Context) (models.Credential, error) {
	return f.credential, nil
}

func (f *fixedSource) Invalidate(ctx context.Context) error {
	f.invalidated++
	return nil
}

type stubPrompter struct {
	credential models.Credential
	calls      int
}

func (s *stubPrompter) PromptCredentials(ctx context.Context, previous models.Credential) (models.Credential, error) {
	s.calls++
	return s.credential, nil
}

var testCredential = models.Credential{Identifier: "analyst@example.com", Secret: "hunter2"}

func newTestAuthenticator(server *httptest.Server, source CredentialSource, resolver ChallengeResolver) *Authenticator {
	return NewAuthenticator(
		common.NewPlatformClient(server.URL, 5*time.Second),
		source,
		resolver,
		Options{AuthenticationPath: "/authentication", SessionTimeout: time.Hour},
	)
}

func TestAuthenticate_Success(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/authentication", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "analyst@example.com", user)
		assert.Equal(t, "hunter2", pass)

		http.SetCookie(w, &http.Cookie{Name: "t", Value: "session-token"})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"user":{"id":"AB12345"},"token":{"expiry":14400.0}}`))
	}))
	defer server.Close()

	source := &fixedSource{credential: testCredential}
	session, err := newTestAuthenticator(server, source, &countingResolver{}).Authenticate(context.Background(), testCredential)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "analyst@example.com", session.Identifier)
	assert.Equal(t, server.URL, session.Endpoint)
	assert.Equal(t, time.Hour, session.Timeout)
	require.Len(t, session.Cookies, 1)
	assert.Equal(t, "session-token", session.Cookies[0].Value)
	assert.Equal(t, session.CreatedAt.Add(4*time.Hour), session.ExpiresAt)
	assert.False(t, session.TimedOut(time.Now()))
	assert.Equal(t, 0, source.invalidated)
}

func TestAuthenticate_BiometricLoop(t *testing.T) {
	var challengeCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/authentication", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrf", Value: "abc"})
		w.Header().Set("WWW-Authenticate", "persona")
		w.Header().Set("Location", "/authentication/persona?inquiry=inq_123")
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/authentication/persona", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&challengeCalls, 1)

		assert.Equal(t, "inq_123", r.URL.Query().Get("inquiry"))
		cookie, err := r.Cookie("csrf")
		if assert.NoError(t, err) {
			assert.Equal(t, "abc", cookie.Value)
		}

		if n < 3 {
			w.WriteHeader(http.StatusOK)
			return
		}

		http.SetCookie(w, &http.Cookie{Name: "t", Value: "verified"})
		w.WriteHeader(http.StatusCreated)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := &countingResolver{}
	source := &fixedSource{credential: testCredential}

	session, err := newTestAuthenticator(server, source, resolver).Authenticate(context.Background(), testCredential)
	require.NoError(t, err)

	assert.Equal(t, int32(3), atomic.LoadInt32(&challengeCalls))
	require.Len(t, resolver.presented, 1)
	assert.Equal(t, server.URL+"/authentication/persona?inquiry=inq_123", resolver.presented[0].URL)
	assert.Len(t, resolver.retries, 2)
	assert.Equal(t, 0, source.invalidated)

	names := map[string]string{}
	for _, c := range session.Cookies {
		names[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"csrf": "abc", "t": "verified"}, names)
}

func TestAuthenticate_BiometricTransportErrorIsRetried(t *testing.T) {
	var challengeCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/authentication", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", "persona")
		w.Header().Set("Location", "/authentication/persona")
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/authentication/persona", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&challengeCalls, 1) == 1 {
			// drop the connection without a response
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
				}
			}
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := &countingResolver{}
	_, err := newTestAuthenticator(server, &fixedSource{credential: testCredential}, resolver).Authenticate(context.Background(), testCredential)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&challengeCalls))
	assert.Len(t, resolver.retries, 1)
}

func TestAuthenticate_BiometricCancelled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", "persona")
		w.Header().Set("Location", "/authentication/persona")
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/authentication/persona", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	resolver := &countingResolver{retryErr: context.Canceled}
	_, err := newTestAuthenticator(server, &fixedSource{credential: testCredential}, resolver).Authenticate(context.Background(), testCredential)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, resolver.retries, 1)
}

func TestAuthenticate_BadCredentials(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		user, pass, _ := r.BasicAuth()
		if user == "new@example.com" && pass == "fresh" {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	t.Setenv(credentials.EnvCredentialEmail, "")
	t.Setenv(credentials.EnvCredentialPassword, "")

	path := filepath.Join(t.TempDir(), "platform-brain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"email":"analyst@example.com","password":"stale"}`), 0600))

	prompter := &stubPrompter{credential: models.Credential{Identifier: "new@example.com", Secret: "fresh"}}
	provider := credentials.NewProvider(credentials.NewFileStore(path, nil), prompter)

	stale, err := provider.GetCredentials(context.Background())
	require.NoError(t, err)

	session, err := newTestAuthenticator(server, provider, &countingResolver{}).Authenticate(context.Background(), stale)
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", session.Identifier)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Equal(t, 1, prompter.calls, "stale credentials must not be reused after a rejection")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"new@example.com","password":"fresh"}`, string(data))
}

func TestAuthenticate_BadCredentialsClearsStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	t.Setenv(credentials.EnvCredentialEmail, "")
	t.Setenv(credentials.EnvCredentialPassword, "")

	path := filepath.Join(t.TempDir(), "platform-brain.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"email":"analyst@example.com","password":"stale"}`), 0600))

	// No prompter: after invalidation nothing else can supply credentials
	provider := credentials.NewProvider(credentials.NewFileStore(path, nil), nil)

	_, err := newTestAuthenticator(server, provider, &countingResolver{}).Authenticate(context.Background(), testCredential)
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.ErrorIs(t, err, credentials.ErrNonInteractive)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestAuthenticate_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	source := &fixedSource{credential: testCredential}
	_, err := newTestAuthenticator(server, source, &countingResolver{}).Authenticate(context.Background(), testCredential)
	require.Error(t, err)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "login", authErr.Op)
	assert.Equal(t, 0, authErr.Status)
	assert.Equal(t, 0, source.invalidated)
}

func TestAuthenticate_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestAuthenticator(server, &fixedSource{credential: testCredential}, &countingResolver{}).Authenticate(context.Background(), testCredential)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusServiceUnavailable, authErr.Status)
}

func TestAuthenticate_PersonaWithoutLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", "persona")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	resolver := &countingResolver{}
	_, err := newTestAuthenticator(server, &fixedSource{credential: testCredential}, resolver).Authenticate(context.Background(), testCredential)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "biometric", authErr.Op)
	assert.Empty(t, resolver.presented)
}

func TestPollingResolver(t *testing.T) {
	var waits []time.Duration

	resolver := NewPollingResolver(30 * time.Second)
	resolver.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	challenge := models.Challenge{URL: "https://platform.test/persona", Attempt: 1}
	require.NoError(t, resolver.Present(context.Background(), challenge))
	require.NoError(t, resolver.Retry(context.Background(), challenge))
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, waits)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
