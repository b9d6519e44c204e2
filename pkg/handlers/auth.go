package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v74/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Auth is the GitHub OAuth login for the admin API. Only listed logins get
// a session.
type Auth struct {
	conf    *oauth2.Config
	apiURL  string
	allowed map[string]bool
}

// NewAuth looks up logins against apiURL, or api.github.com when empty.
func NewAuth(conf *oauth2.Config, apiURL string, allowed []string) *Auth {
	a := &Auth{conf: conf, apiURL: apiURL, allowed: map[string]bool{}}
	for _, login := range allowed {
		a.allowed[strings.ToLower(login)] = true
	}
	return a
}

func (a *Auth) login(ctx context.Context, token *oauth2.Token) (string, error) {
	client := github.NewClient(a.conf.Client(ctx, token))
	if a.apiURL != "" {
		base, err := url.Parse(strings.TrimRight(a.apiURL, "/") + "/")
		if err != nil {
			return "", err
		}
		client.BaseURL = base
	}
	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", err
	}
	return user.GetLogin(), nil
}

func (a *Auth) AuthRequired(c *gin.Context) {
	session := sessions.Default(c)
	token := session.Get("access_token")
	if token == nil {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		} else {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
		}
		return
	}
	c.Next()
}

func (a *Auth) GithubLogin(c *gin.Context) {
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session save failed"})
		return
	}
	url := a.conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

func (a *Auth) AuthCallback(c *gin.Context) {
	session := sessions.Default(c)
	want, _ := session.Get("oauth_state").(string)
	if want == "" || c.Query("state") != want {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}

	token, err := a.conf.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OAuth Exchange Failed"})
		return
	}

	login, err := a.login(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "GitHub user lookup failed"})
		return
	}
	session.Delete("oauth_state")
	if !a.allowed[strings.ToLower(login)] {
		session.Save()
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not allowed"})
		return
	}

	session.Set("access_token", token.AccessToken)
	session.Set("login", login)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (a *Auth) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/login")
}
