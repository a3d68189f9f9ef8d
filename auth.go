package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// GoogleAuth owns the OAuth config for the Drive connection. The state
// parameter is a short-lived signed token carrying the browser session id, so
// the callback can bind the Google token to the right session without any
// server-side state.
type GoogleAuth struct {
	oauth       *oauth2.Config
	stateSecret string
}

func NewGoogleAuth(cfg Config) *GoogleAuth {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{drive.DriveFileScope},
			Endpoint:     google.Endpoint,
		},
		stateSecret: cfg.StateSecret,
	}
}

func (g *GoogleAuth) GenerateStateToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"exp": time.Now().Add(10 * time.Minute).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(g.stateSecret))
}

func (g *GoogleAuth) ParseStateToken(state string) (string, error) {
	token, err := jwt.Parse(state, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(g.stateSecret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid state claims")
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", fmt.Errorf("state token missing session id")
	}
	return sid, nil
}

// ========================
// GOOGLE AUTH HANDLERS
// ========================

func GoogleAuthURL(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.Google == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google Drive integration is not configured"})
			return
		}

		state, err := app.Google.GenerateStateToken(sessionID(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create state token: " + err.Error()})
			return
		}

		// offline + consent so we always get a refresh token back
		url := app.Google.oauth.AuthCodeURL(state,
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "consent"))

		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

// GoogleCallback lands in the popup the frontend opened. Whatever happens,
// it answers with a page that tells the opener the outcome and closes itself.
func GoogleCallback(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if app.Google == nil {
			callbackPage(c, false)
			return
		}

		// User refused the consent screen
		if c.Query("error") != "" {
			callbackPage(c, false)
			return
		}

		sid, err := app.Google.ParseStateToken(c.Query("state"))
		if err != nil {
			callbackPage(c, false)
			return
		}

		code := c.Query("code")
		if code == "" {
			callbackPage(c, false)
			return
		}

		token, err := app.Google.oauth.Exchange(c.Request.Context(), code)
		if err != nil {
			fmt.Println("❌ Google token exchange failed:", err)
			callbackPage(c, false)
			return
		}

		app.Sessions.Set(sid, token)
		callbackPage(c, true)
	}
}

func callbackPage(c *gin.Context, success bool) {
	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
<script>
  if (window.opener) {
    window.opener.postMessage({ type: "google-drive-auth", success: %t }, "*");
  }
  window.close();
</script>
<p>You can close this window.</p>
</body>
</html>`, success)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func GoogleStatus(app *App) gin.HandlerFunc {
	return func(c *gin.Context) {
		connected := false
		if app.Google != nil {
			_, connected = app.Sessions.Get(sessionID(c))
		}
		c.JSON(http.StatusOK, gin.H{"connected": connected})
	}
}
