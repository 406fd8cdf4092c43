package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExchangeCode_Success(t *testing.T) {
	userInfoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer provider-token" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"sub": "g-123", "email": "ada@example.com", "name": "Ada",
		})
	}))
	defer userInfoSrv.Close()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if r.Form.Get("code") != "auth-code" || r.Form.Get("grant_type") != "authorization_code" {
			t.Fatalf("unexpected form: %v", r.Form)
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "provider-token", "expires_in": 3600})
	}))
	defer tokenSrv.Close()

	p := NewGoogleProvider(GoogleConfig{
		ClientID:    "cid",
		TokenURL:    tokenSrv.URL,
		UserInfoURL: userInfoSrv.URL,
	})

	profile, err := p.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode error: %v", err)
	}
	if profile.Email != "ada@example.com" || profile.ProviderUserID != "g-123" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad code", http.StatusBadRequest)
	}))
	defer tokenSrv.Close()

	p := NewGoogleProvider(GoogleConfig{TokenURL: tokenSrv.URL, UserInfoURL: tokenSrv.URL})
	if _, err := p.ExchangeCode(context.Background(), "bad"); err == nil {
		t.Fatalf("expected error from token endpoint")
	}
}
