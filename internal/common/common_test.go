package common

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/analyst")

	tests := map[string]string{
		"~/secrets/platform-brain.json": "/home/analyst/secrets/platform-brain.json",
		"~":                             "/home/analyst",
		"/etc/brain/session.yaml":       "/etc/brain/session.yaml",
		"relative/session.yaml":         "relative/session.yaml",
		"~other/file":                   "~other/file",
	}

	for in, want := range tests {
		got, err := ExpandPath(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestWriteFileSecure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "secret.json")

	require.NoError(t, WriteFileSecure(path, []byte(`{"a":1}`)))
	require.NoError(t, WriteFileSecure(path, []byte(`{}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(http.StatusOK))
	assert.True(t, IsSuccess(http.StatusCreated))
	assert.False(t, IsSuccess(http.StatusFound))
	assert.False(t, IsSuccess(http.StatusUnauthorized))
}

func TestGetBuildIdentifier(t *testing.T) {
	assert.NotEmpty(t, GetBuildIdentifier())
}

func TestWithInterrupt_Cleanup(t *testing.T) {
	ctx, cleanup := WithInterrupt(context.Background())
	assert.NoError(t, ctx.Err())
	cleanup()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestResolveLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/authentication/relative":
			w.Header().Set("Location", "persona?inquiry=abc")
		case "/authentication/absolute":
			w.Header().Set("Location", "https://verify.example.com/check")
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewPlatformClient(server.URL+"/", time.Second)

	resp, err := client.R().Post("/authentication/relative")
	require.NoError(t, err)
	location, err := ResolveLocation(resp)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/authentication/persona?inquiry=abc", location)

	resp, err = client.R().Post("/authentication/absolute")
	require.NoError(t, err)
	location, err = ResolveLocation(resp)
	require.NoError(t, err)
	assert.Equal(t, "https://verify.example.com/check", location)

	resp, err = client.R().Post("/authentication/none")
	require.NoError(t, err)
	_, err = ResolveLocation(resp)
	assert.Error(t, err)
}

func TestNewPlatformClient_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Contains(t, r.Header.Get("User-Agent"), "brain-agent/")
		http.SetCookie(w, &http.Cookie{Name: "t", Value: "abc"})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewPlatformClient(server.URL, time.Second)
	assert.Nil(t, client.GetClient().Jar)

	resp, err := client.R().Get("/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
}
