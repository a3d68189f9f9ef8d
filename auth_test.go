package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

func newTestGoogleApp() (*App, *GoogleAuth) {
	cfg := testConfig()
	cfg.GoogleClientID = "client-id"
	cfg.GoogleClientSecret = "client-secret"

	sessions := NewMemoryTokenStore()
	google := NewGoogleAuth(cfg)
	app := &App{
		Config:   cfg,
		Pipeline: &Pipeline{Primary: &fakePrimary{}},
		Sessions: sessions,
		Google:   google,
		Drive:    NewDriveExporter(google, sessions),
	}
	return app, google
}

func TestStateTokenRoundtrip(t *testing.T) {
	_, google := newTestGoogleApp()

	state, err := google.GenerateStateToken("session-abc")
	if err != nil {
		t.Fatalf("GenerateStateToken() error = %v", err)
	}

	sid, err := google.ParseStateToken(state)
	if err != nil {
		t.Fatalf("ParseStateToken() error = %v", err)
	}
	if sid != "session-abc" {
		t.Errorf("sid = %q, want %q", sid, "session-abc")
	}
}

func TestStateTokenWrongSecret(t *testing.T) {
	_, google := newTestGoogleApp()

	other := &GoogleAuth{oauth: google.oauth, stateSecret: "other-secret"}
	state, err := other.GenerateStateToken("session-abc")
	if err != nil {
		t.Fatalf("GenerateStateToken() error = %v", err)
	}

	if _, err := google.ParseStateToken(state); err == nil {
		t.Fatal("ParseStateToken() accepted a token signed with another secret")
	}
}

func TestStateTokenExpired(t *testing.T) {
	_, google := newTestGoogleApp()

	claims := jwt.MapClaims{
		"sid": "session-abc",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(google.stateSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := google.ParseStateToken(state); err == nil {
		t.Fatal("ParseStateToken() accepted an expired token")
	}
}

func TestStateTokenMissingSession(t *testing.T) {
	_, google := newTestGoogleApp()

	claims := jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(google.stateSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := google.ParseStateToken(state); err == nil {
		t.Fatal("ParseStateToken() accepted a token without a session id")
	}
}

func TestGoogleAuthURLBindsSession(t *testing.T) {
	app, google := newTestGoogleApp()
	r := newTestRouter(app)

	w := doJSON(t, r, http.MethodGet, "/api/auth/google/url", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	var sid string
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			sid = c.Value
		}
	}
	if sid == "" {
		t.Fatal("no session cookie assigned")
	}

	resp := decodeBody(t, w)
	authURL, _ := resp["url"].(string)
	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("url not parsable: %v", err)
	}
	if got := parsed.Query().Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q", got)
	}

	stateSID, err := google.ParseStateToken(parsed.Query().Get("state"))
	if err != nil {
		t.Fatalf("state not parsable: %v", err)
	}
	if stateSID != sid {
		t.Errorf("state session = %q, cookie session = %q", stateSID, sid)
	}
}

func TestGoogleAuthURLUnconfigured(t *testing.T) {
	r := newTestRouter(newTestApp(&fakePrimary{}, nil, nil))

	w := doJSON(t, r, http.MethodGet, "/api/auth/google/url", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestGoogleCallbackStoresToken(t *testing.T) {
	app, google := newTestGoogleApp()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.FormValue("code"); got != "authcode" {
			t.Errorf("exchanged code = %q, want %q", got, "authcode")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fake-token","token_type":"Bearer","expires_in":3600,"refresh_token":"fake-refresh"}`)
	}))
	defer tokenServer.Close()
	google.oauth.Endpoint = oauth2.Endpoint{
		AuthURL:  tokenServer.URL + "/auth",
		TokenURL: tokenServer.URL + "/token",
	}

	state, err := google.GenerateStateToken("session-abc")
	if err != nil {
		t.Fatalf("GenerateStateToken() error = %v", err)
	}

	r := newTestRouter(app)
	w := doJSON(t, r, http.MethodGet, "/auth/google/callback?code=authcode&state="+url.QueryEscape(state), "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "success: true") {
		t.Errorf("callback page missing success message: %s", w.Body.String())
	}

	tok, ok := app.Sessions.Get("session-abc")
	if !ok {
		t.Fatal("token not stored for session")
	}
	if tok.AccessToken != "fake-token" {
		t.Errorf("AccessToken = %q, want %q", tok.AccessToken, "fake-token")
	}
}

func TestGoogleCallbackBadState(t *testing.T) {
	app, _ := newTestGoogleApp()
	r := newTestRouter(app)

	w := doJSON(t, r, http.MethodGet, "/auth/google/callback?code=authcode&state=garbage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (popup must still close)", w.Code)
	}
	if !strings.Contains(w.Body.String(), "success: false") {
		t.Errorf("callback page missing failure message: %s", w.Body.String())
	}
	if _, ok := app.Sessions.Get("session-abc"); ok {
		t.Error("token stored despite bad state")
	}
}

func TestGoogleCallbackUserRefused(t *testing.T) {
	app, _ := newTestGoogleApp()
	r := newTestRouter(app)

	w := doJSON(t, r, http.MethodGet, "/auth/google/callback?error=access_denied", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "success: false") {
		t.Errorf("callback page missing failure message: %s", w.Body.String())
	}
}

func TestGoogleStatus(t *testing.T) {
	app, _ := newTestGoogleApp()
	r := newTestRouter(app)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "fixed-sid"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if decodeBody(t, w)["connected"] != false {
		t.Error("connected = true before any authorization")
	}

	app.Sessions.Set("fixed-sid", &oauth2.Token{AccessToken: "x"})

	req = httptest.NewRequest(http.MethodGet, "/api/auth/google/status", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "fixed-sid"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if decodeBody(t, w)["connected"] != true {
		t.Error("connected = false after token stored")
	}
}

func TestGoogleStatusUnconfigured(t *testing.T) {
	r := newTestRouter(newTestApp(&fakePrimary{}, nil, nil))

	w := doJSON(t, r, http.MethodGet, "/api/auth/google/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if decodeBody(t, w)["connected"] != false {
		t.Error("connected should be false when integration is off")
	}
}
