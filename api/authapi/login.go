package authapi

import (
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/internal/metrics"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// registerLogin mounts the OAuth2 password grant style token endpoint
func registerLogin(r fiber.Router, deps Deps) {
	r.Post(
		"/login/access-token", func(c *fiber.Ctx) error {
			if grantType := c.FormValue("grant_type"); grantType != "" && grantType != "password" {
				return auth.Validation("unsupported grant_type '%s'", grantType)
			}
			username := c.FormValue("username")
			password := c.FormValue("password")
			if username == "" || password == "" {
				return auth.Validation("username and password are required")
			}
			logger := log.WithFields(
				log.Fields{
					"username":   username,
					"ip":         c.IP(),
					"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
				},
			)

			u, err := deps.Authenticator.Authenticate(c.UserContext(), username, password)
			if err != nil {
				if auth.KindOf(err) == auth.KindInvalidCredentials {
					logger.Warn("failed login attempt")
					observeLogin(deps.Metrics, metrics.LoginFailed)
				} else {
					observeLogin(deps.Metrics, metrics.LoginError)
				}
				return err
			}
			if err = auth.RequireActive(u); err != nil {
				logger.Warn("login attempt by inactive user")
				observeLogin(deps.Metrics, metrics.LoginInactive)
				return err
			}

			token, exp, err := deps.Tokens.Issue(u.Username, deps.Tokens.Lifetime())
			if err != nil {
				observeLogin(deps.Metrics, metrics.LoginError)
				return err
			}
			logger.Info("successful login")
			observeLogin(deps.Metrics, metrics.LoginSuccess)

			c.Set(fiber.HeaderCacheControl, "no-store")
			return c.JSON(
				tokenResponse{
					AccessToken: token,
					TokenType:   "bearer",
					ExpiresIn:   int64(time.Until(exp).Round(time.Second).Seconds()),
				},
			)
		},
	)
}

func observeLogin(m *metrics.Metrics, outcome string) {
	if m != nil {
		m.ObserveLogin(outcome)
	}
}
