package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Invalid(t *testing.T) {
	assert.Nil(t, NewClient("", "key"))
	assert.Nil(t, NewClient("https://example.test", ""))
	assert.Nil(t, NewClient("not a url", "key"))
	assert.NotNil(t, NewClient("https://example.test/", "key"))
}

func TestSignUp_ReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))

		var req SignUpRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@example.com", req.Email)
		assert.Equal(t, "Ana", req.Data["name"])

		_, _ = w.Write([]byte(`{"id":"u-1","email":"ana@example.com"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "anon")
	u, err := c.SignUp(context.Background(), SignUpRequest{
		Email:    "ana@example.com",
		Password: "s3cret-pass",
		Data:     map[string]any{"name": "Ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
}

func TestSignUp_SessionShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token":"tok","user":{"id":"u-2","email":"b@example.com"}}`))
	}))
	defer srv.Close()

	u, err := NewClient(srv.URL, "anon").SignUp(context.Background(), SignUpRequest{Email: "b@example.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "u-2", u.ID)
}

func TestSignUp_AlreadyRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"msg":"User already registered"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "anon").SignUp(context.Background(), SignUpRequest{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestSignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600,"user":{"id":"u-1"}}`))
	}))
	defer srv.Close()

	s, err := NewClient(srv.URL, "anon").SignIn(context.Background(), "ana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, 3600, s.ExpiresIn)
	assert.Equal(t, "u-1", s.User.ID)
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
		}))
		err := NewClient(srv.URL, "anon").RPC(context.Background(), "noop", nil, nil)
		srv.Close()
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
}

func TestRPC_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"function failed"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "anon").RPC(context.Background(), "boom", nil, nil)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "function failed", apiErr.Message)
}

func TestInvoke_ForwardsAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/create-checkout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		_, _ = w.Write([]byte(`{"url":"https://pay.example/abc"}`))
	}))
	defer srv.Close()

	var out struct {
		URL string `json:"url"`
	}
	err := NewClient(srv.URL, "anon").Invoke(context.Background(), "create-checkout", "user-token", map[string]any{"amount": 100}, &out)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/abc", out.URL)
}

func TestCheck_PartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/health" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	st := NewClient(srv.URL, "anon").Check(context.Background())
	assert.True(t, st.AuthOK)
	assert.False(t, st.RestOK)
	assert.ErrorIs(t, st.Error, ErrUnauthorized)
}
