// Package authapi mounts the login and user account routes.
package authapi

import (
	"embed"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/go-oidfed/gatehouse/accounts"
	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/internal/metrics"
)

//go:embed swagger.html openapi.yaml
var assets embed.FS

// Deps are the components the routes operate on
type Deps struct {
	Accounts      *accounts.Service
	Authenticator *auth.Authenticator
	Resolver      *auth.SessionResolver
	Tokens        *auth.TokenCodec
	Metrics       *metrics.Metrics
}

// Options controls optional features of the API registration.
type Options struct {
	// ServerURL is announced as server in the OpenAPI document
	ServerURL string
	// Docs mounts /openapi.yaml and /docs
	Docs bool
}

// Register mounts all routes on the provided router.
func Register(r fiber.Router, deps Deps, opts Options) error {
	if opts.Docs {
		if err := registerDocs(r, opts.ServerURL); err != nil {
			return err
		}
	}
	registerLogin(r, deps)
	registerUsers(r, deps)
	return nil
}

func registerDocs(r fiber.Router, serverURL string) error {
	openapiRaw, err := assets.ReadFile("openapi.yaml")
	if err != nil {
		return errors.Wrap(err, "authapi: failed to read openapi.yaml")
	}
	openapiData := ensureBearerAuthSecurity(updateOpenAPIServers(openapiRaw, serverURL))
	swaggerHTML, err := assets.ReadFile("swagger.html")
	if err != nil {
		return errors.Wrap(err, "authapi: failed to read swagger.html")
	}

	r.Get(
		"/openapi.yaml", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, "application/yaml")
			return c.Send(openapiData)
		},
	)
	r.Get(
		"/docs", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTML)
			return c.Send(swaggerHTML)
		},
	)
	return nil
}

func updateOpenAPIServers(doc []byte, serverURL string) []byte {
	if serverURL == "" {
		return doc
	}
	return rewriteOpenAPI(
		doc, func(full map[string]any) {
			full["servers"] = []map[string]any{
				{
					"url":         serverURL,
					"description": "This instance",
				},
			}
		},
	)
}

// ensureBearerAuthSecurity injects the bearer token security scheme and makes
// it the default security requirement, unless already present.
func ensureBearerAuthSecurity(doc []byte) []byte {
	return rewriteOpenAPI(
		doc, func(full map[string]any) {
			components, _ := full["components"].(map[string]any)
			if components == nil {
				components = map[string]any{}
				full["components"] = components
			}
			schemes, _ := components["securitySchemes"].(map[string]any)
			if schemes == nil {
				schemes = map[string]any{}
				components["securitySchemes"] = schemes
			}
			if _, exists := schemes["bearerAuth"]; !exists {
				schemes["bearerAuth"] = map[string]any{
					"type":         "http",
					"scheme":       "bearer",
					"bearerFormat": "JWT",
				}
			}
			if _, exists := full["security"]; !exists {
				full["security"] = []map[string]any{{"bearerAuth": []any{}}}
			}
		},
	)
}

// rewriteOpenAPI applies edit to the parsed document; on any parsing error
// the document is returned unchanged
func rewriteOpenAPI(doc []byte, edit func(full map[string]any)) []byte {
	var full map[string]any
	if err := yaml.Unmarshal(doc, &full); err != nil || full == nil {
		return doc
	}
	edit(full)
	res, err := yaml.Marshal(full)
	if err != nil {
		return doc
	}
	return res
}
