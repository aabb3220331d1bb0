package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
)

func TestNewGoogleOAuthDisabledWithoutClientID(t *testing.T) {
	if p := NewGoogleOAuth("", "secret", "http://localhost/cb"); p != nil {
		t.Fatal("expected nil provider without a client id")
	}
}

func TestLoginURLCarriesState(t *testing.T) {
	p := NewGoogleOAuth("client-1", "secret", "http://localhost/cb")
	state := NewState()
	u, err := url.Parse(p.LoginURL(state))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if q.Get("state") != state || q.Get("client_id") != "client-1" || q.Get("redirect_uri") != "http://localhost/cb" {
		t.Errorf("unexpected login URL query: %v", q)
	}
	if NewState() == state {
		t.Error("states should not repeat")
	}
}

func TestExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"at","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			http.Error(w, "no token", http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":"g-1","email":"a@example.com","name":"Alice","picture":"p"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewGoogleOAuth("client-1", "secret", "http://localhost/cb")
	p.config.Endpoint = oauth2.Endpoint{TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	p.userInfoURL = srv.URL + "/userinfo"

	info, err := p.Exchange(context.Background(), "code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if info.ID != "g-1" || info.Name != "Alice" {
		t.Errorf("unexpected profile: %+v", info)
	}
}
