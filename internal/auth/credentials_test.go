package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/tenant-1/oauth2/token", r.URL.Path)
		_ = r.ParseForm()

		if r.PostForm.Get("client_secret") != "good" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
			return
		}

		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "app-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "https://management.core.windows.net/", r.PostForm.Get("resource"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-abc","token_type":"Bearer","expires_in":3600}`))
	}))
}

func TestClientCredentials_AcquireToken(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)
	defer server.Close()

	provider := NewClientCredentials(server.URL, "tenant-1", "app-1", "good",
		"https://management.core.windows.net/", WithHTTPClient(server.Client()))

	token, err := provider.AcquireToken(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)
}

func TestClientCredentials_NoCaching(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)
	defer server.Close()

	provider := NewClientCredentials(server.URL, "tenant-1", "app-1", "good",
		"https://management.core.windows.net/")

	_, err := provider.AcquireToken(context.Background())
	require.NoError(t, err)
	_, err = provider.AcquireToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClientCredentials_Rejected(t *testing.T) {
	var calls int32
	server := newTokenServer(t, &calls)
	defer server.Close()

	provider := NewClientCredentials(server.URL, "tenant-1", "app-1", "bad",
		"https://management.core.windows.net/")

	token, err := provider.AcquireToken(context.Background())

	assert.Empty(t, token)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestClientCredentials_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	provider := NewClientCredentials(url, "tenant-1", "app-1", "good", "res")

	_, err := provider.AcquireToken(context.Background())

	assert.ErrorIs(t, err, ErrAuthentication)
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t, "https://login.microsoftonline.com/t1/oauth2/token",
		TokenURL("https://login.microsoftonline.com/", "t1"))
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken("abc").AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = StaticToken("").AcquireToken(context.Background())
	assert.ErrorIs(t, err, ErrAuthentication)
}
