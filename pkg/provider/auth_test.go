package provider

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityofaustin/atd-mds-go/pkg/config"
)

func TestAuthenticatorBearer(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Method: config.AuthBearer, Token: "abc"}, nil)
	h, err := a.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", h["Authorization"])
}

func TestAuthenticatorBasic(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{Method: config.AuthBasic, Username: "u", Password: "p"}, nil)
	h, err := a.Headers(context.Background())
	require.NoError(t, err)
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("u:p"))
	assert.Equal(t, want, h["Authorization"])
}

func TestAuthenticatorOAuthExchangesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "cid", r.FormValue("client_id"))
		_, _ = w.Write([]byte(`{"access_token":"tok123"}`))
	}))
	defer srv.Close()

	a := NewAuthenticator(config.AuthConfig{
		Method: config.AuthOAuth, TokenURL: srv.URL, ClientID: "cid", ClientSecret: "secret",
	}, nil)
	h, err := a.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", h["Authorization"])
}

func TestAuthenticatorCustomJWT(t *testing.T) {
	a := NewAuthenticator(config.AuthConfig{
		Method: config.AuthCustom, JWTSigningKey: "key", JWTIssuer: "atd-mds", JWTAudience: "sample-co",
	}, nil)
	h, err := a.Headers(context.Background())
	require.NoError(t, err)

	raw := h["Authorization"][len("Bearer "):]
	token, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return []byte("key"), nil })
	require.NoError(t, err)
	assert.True(t, token.Valid)
}
