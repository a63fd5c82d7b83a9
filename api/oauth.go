package api

import (
	"net/http"
	"net/url"
	"strings"

	"flexgen/auth-api/internal/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const stateCookie = "oauth_state"

// Env vars a provider needs, shown when it isn't configured
var providerEnv = map[string][2]string{
	"google":   {"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"},
	"facebook": {"FACEBOOK_APP_ID", "FACEBOOK_APP_SECRET"},
}

// OAuthStart redirects the browser to the provider's consent page
func (a *API) OAuthStart(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := a.Providers[name]
		if !ok {
			env := providerEnv[name]

			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":     displayName(name) + " OAuth is not configured",
				"message":   "Please set " + env[0] + " and " + env[1] + " in your environment variables",
				"requestID": c.GetString("requestID"),
			})
			return
		}

		state, err := a.States.New(name)
		if err != nil {
			internalError(c, "Failed to create OAuth state", err)
			return
		}

		a.setStateCookie(c, name, state, int(auth.StateTTL.Seconds()))
		c.Redirect(http.StatusTemporaryRedirect, p.AuthURL(state))
	}
}

// OAuthCallback finishes the handshake and sends the browser to the
// frontend, with a token on success or an error code otherwise
func (a *API) OAuthCallback(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")
		failure := a.Config.FrontendURL + "/login?error=" + name + "_auth_failed"

		p, ok := a.Providers[name]
		if !ok {
			c.Redirect(http.StatusFound, failure)
			return
		}

		cookie, _ := c.Cookie(stateCookie)
		a.setStateCookie(c, name, "", -1)

		if e := c.Query("error"); e != "" {
			zap.L().Info("OAuth handshake declined", zap.String("provider", name), zap.String("reason", e), zap.String("requestID", requestID))

			c.Redirect(http.StatusFound, failure)
			return
		}

		if err := a.States.Verify(c.Query("state"), cookie, name); err != nil {
			zap.L().Warn("Rejected OAuth state", zap.String("provider", name), zap.String("requestID", requestID))

			c.Redirect(http.StatusFound, failure)
			return
		}

		profile, err := p.Exchange(c.Request.Context(), c.Query("code"))
		if err != nil {
			zap.L().Error("OAuth exchange failed", zap.Error(err), zap.String("provider", name), zap.String("requestID", requestID))

			c.Redirect(http.StatusFound, failure)
			return
		}

		user, err := a.Auth.Federate(c.Request.Context(), profile)
		if err != nil {
			zap.L().Error("Failed to sign in federated user", zap.Error(err), zap.String("provider", name), zap.String("requestID", requestID))

			c.Redirect(http.StatusFound, failure)
			return
		}

		token, err := a.issueToken(c, user.ID)
		if err != nil {
			zap.L().Error("Failed to generate auth token", zap.Error(err), zap.String("requestID", requestID))

			c.Redirect(http.StatusFound, failure)
			return
		}

		c.Set("userID", user.ID)
		c.Redirect(http.StatusFound, a.Config.FrontendURL+"/dashboard?token="+url.QueryEscape(token))
	}
}

// ProvidersFetch lists the OAuth providers that can be used to sign in
func (a *API) ProvidersFetch(c *gin.Context) {
	providers := []gin.H{}

	for _, name := range a.Providers.Names() {
		providers = append(providers, gin.H{
			"name":        name,
			"displayName": a.Providers[name].DisplayName,
			"url":         "/auth/" + name,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"providers": providers,
	})
}

func (a *API) setStateCookie(c *gin.Context, provider, value string, maxAge int) {
	secure := a.Config.Production || a.Config.SSL.Enabled

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, value, maxAge, "/auth/"+provider, "", secure, true)
}

func displayName(name string) string {
	if name == "" {
		return name
	}

	return strings.ToUpper(name[:1]) + name[1:]
}
