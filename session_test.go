package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()

	if _, ok := store.Get("nope"); ok {
		t.Fatal("Get() found a token in an empty store")
	}

	tok := &oauth2.Token{AccessToken: "abc"}
	store.Set("sid-1", tok)

	got, ok := store.Get("sid-1")
	if !ok {
		t.Fatal("Get() did not find stored token")
	}
	if got.AccessToken != "abc" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "abc")
	}

	store.Clear("sid-1")
	if _, ok := store.Get("sid-1"); ok {
		t.Fatal("Get() found a cleared token")
	}
}

func TestSessionMiddlewareKeepsExistingID(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())

	var seen string
	r.GET("/probe", func(c *gin.Context) {
		seen = sessionID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "existing-sid"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "existing-sid" {
		t.Errorf("sessionID = %q, want the cookie value", seen)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			t.Error("middleware reissued cookie for a request that already had one")
		}
	}
}

func TestSessionMiddlewareAssignsID(t *testing.T) {
	r := gin.New()
	r.Use(SessionMiddleware())

	var seen string
	r.GET("/probe", func(c *gin.Context) {
		seen = sessionID(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	if seen == "" {
		t.Fatal("no session id assigned")
	}

	var cookie string
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookieName {
			cookie = c.Value
		}
	}
	if cookie != seen {
		t.Errorf("cookie = %q, context id = %q", cookie, seen)
	}
}
