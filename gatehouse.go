// Package gatehouse wires the account service, token handling and the http
// routes into a fiber server.
package gatehouse

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/go-oidfed/gatehouse/accounts"
	"github.com/go-oidfed/gatehouse/api/authapi"
	"github.com/go-oidfed/gatehouse/auth"
	"github.com/go-oidfed/gatehouse/internal/metrics"
	"github.com/go-oidfed/gatehouse/internal/version"
	"github.com/go-oidfed/gatehouse/storage/model"
)

// HeaderProcessTime carries the handling time of a request in milliseconds
const HeaderProcessTime = "X-Process-Time-ms"

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	Network:        "tcp",
}

// Options configures a Gatehouse
type Options struct {
	// Secret signs the access tokens
	Secret []byte
	// Algorithm is the HMAC signing algorithm, HS256 if empty
	Algorithm string
	// TokenLifetime is the access token lifetime, 30 minutes if zero
	TokenLifetime time.Duration
	// PasswordHashing are the argon2id parameters for new hashes
	PasswordHashing auth.Argon2idParams
	// PublicURL is announced in the OpenAPI document
	PublicURL string
	// Docs serves the OpenAPI document and docs page
	Docs bool
	// Metrics serves prometheus metrics at /metrics
	Metrics bool
	// Registerer receives the metric collectors; the default registry if nil
	Registerer prometheus.Registerer
	// AccessLog receives one line per request; stdout if nil
	AccessLog io.Writer
}

// Gatehouse is the user account service
type Gatehouse struct {
	Accounts *accounts.Service

	server     *fiber.App
	serverConf ServerConf
	metrics    *metrics.Metrics
}

// NewGatehouse creates a new Gatehouse serving the users in the passed store
func NewGatehouse(serverConf ServerConf, users model.UserStore, opts Options) (*Gatehouse, error) {
	hasher, err := auth.NewArgon2idHasher(opts.PasswordHashing)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenCodec(opts.Secret, opts.Algorithm, opts.TokenLifetime)
	if err != nil {
		return nil, err
	}
	authenticator, err := auth.NewAuthenticator(users, hasher)
	if err != nil {
		return nil, err
	}
	m := metrics.New("gatehouse", opts.Registerer)

	fiberConf := FiberServerConfig
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		fiberConf.TrustedProxies = tps
		fiberConf.EnableTrustedProxyCheck = true
	}
	fiberConf.ProxyHeader = serverConf.ForwardedIPHeader
	fiberConf.ErrorHandler = authapi.ErrorHandler(m)
	server := fiber.New(fiberConf)

	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}
	server.Use(recover.New())
	server.Use(requestid.New())
	server.Use(logger.New(logger.Config{Output: accessLog}))
	server.Use(processTime(m))
	server.Use(compress.New())

	g := &Gatehouse{
		Accounts:   accounts.NewService(users, hasher),
		server:     server,
		serverConf: serverConf,
		metrics:    m,
	}

	server.Get(
		"/health", func(c *fiber.Ctx) error {
			return c.JSON(
				fiber.Map{
					"status":  "ok",
					"version": version.VERSION,
				},
			)
		},
	)
	if opts.Metrics {
		server.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}
	if err = authapi.Register(
		server, authapi.Deps{
			Accounts:      g.Accounts,
			Authenticator: authenticator,
			Resolver:      auth.NewSessionResolver(tokens, users),
			Tokens:        tokens,
			Metrics:       m,
		}, authapi.Options{
			ServerURL: opts.PublicURL,
			Docs:      opts.Docs,
		},
	); err != nil {
		return nil, err
	}
	return g, nil
}

// processTime measures the handling time of each request, exposes it in the
// X-Process-Time-ms header and records it in the request duration metric.
// Errors are resolved through the app's error handler first, so the final
// status is known.
func processTime(m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		elapsed := time.Since(start)
		c.Set(HeaderProcessTime, strconv.FormatInt(elapsed.Milliseconds(), 10))
		log.Debugf("%s %s took %d ms", c.Method(), c.Path(), elapsed.Milliseconds())
		m.ObserveRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), elapsed)
		return nil
	}
}

// App returns the underlying fiber.App
func (g *Gatehouse) App() *fiber.App {
	return g.server
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (g *Gatehouse) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(g.server)
}

// Listen starts an http server at the specific address
func (g *Gatehouse) Listen(addr string) error {
	return g.server.Listen(addr)
}

// Shutdown gracefully stops the server
func (g *Gatehouse) Shutdown() error {
	return g.server.Shutdown()
}

// Start starts the server as configured in the ServerConf; it blocks until
// the server stops
func (g *Gatehouse) Start() error {
	conf := g.serverConf
	if !conf.TLS.Enabled {
		addr := fmt.Sprintf("%s:%d", conf.IPListen, conf.Port)
		log.WithField("addr", addr).Info("TLS is disabled starting http server")
		return g.server.Listen(addr)
	}
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(fmt.Sprintf("%s:80", conf.IPListen))).Error("redirect server stopped")
		}()
	}
	port := conf.Port
	if port == 0 {
		port = 443
	}
	addr := fmt.Sprintf("%s:%d", conf.IPListen, port)
	log.WithField("addr", addr).Info("TLS enabled, starting https server")
	return g.server.ListenTLS(addr, conf.TLS.Cert, conf.TLS.Key)
}
