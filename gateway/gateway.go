// Package gateway is the web surface administrators configure their communities with and members
// check their credits on. Callers are identified by the session token the authentication layer
// issued them (see the session package)
package gateway

import (
	"context"
	"github.com/alexandre-normand/steward"
	"github.com/alexandre-normand/steward/community"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/session"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"io/ioutil"
	"log"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// SettingsStore is what the gateway needs from the configuration store. *community.Store
// implements it
type SettingsStore interface {
	GetSettings(communityID string) (settings community.Settings, err error)
	PutSettings(communityID string, settings community.Settings) (err error)
	GetCredits(memberID string) (total int64, err error)
}

// Membership tells which communities the bot is a member of. *steward.Steward implements it
type Membership interface {
	IsMember(communityID string) bool
}

// Verifier verifies session tokens. *session.Verifier implements it
type Verifier interface {
	Verify(token string) (id session.Identity, err error)
}

// Gateway is the configuration gateway http server
type Gateway struct {
	name           string
	listenAddress  string
	sessionCookie  string
	store          SettingsStore
	membership     Membership
	verifier       Verifier
	log            steward.SLogger
	metricsHandler http.Handler
	engine         *gin.Engine
}

// Option defines an option for a Gateway
type Option func(*Gateway)

// OptionLogger sets the logger the gateway logs requests and failures with
func OptionLogger(logger steward.SLogger) func(*Gateway) {
	return func(g *Gateway) {
		g.log = logger
	}
}

// OptionMetricsHandler serves handler on /metrics
func OptionMetricsHandler(handler http.Handler) func(*Gateway) {
	return func(g *Gateway) {
		g.metricsHandler = handler
	}
}

// New creates a new gateway named name. The listen address and session cookie name come
// from v
func New(name string, v *viper.Viper, store SettingsStore, membership Membership, verifier Verifier, options ...Option) (g *Gateway, err error) {
	if store == nil || membership == nil || verifier == nil {
		return nil, errors.New("gateway requires a settings store, a membership and a session verifier")
	}

	g = new(Gateway)
	g.name = name
	g.listenAddress = v.GetString(config.GatewayListenAddressKey)
	g.sessionCookie = v.GetString(config.GatewaySessionCookieKey)
	g.store = store
	g.membership = membership
	g.verifier = verifier
	g.log = steward.NewSLogger(log.New(ioutil.Discard, "", 0), false)

	for _, opt := range options {
		opt(g)
	}

	g.engine = g.routes()

	return g, nil
}

// Handler returns the http handler of the gateway
func (g *Gateway) Handler() http.Handler {
	return g.engine
}

func (g *Gateway) routes() (r *gin.Engine) {
	r = gin.New()
	r.Use(gin.Recovery(), otelgin.Middleware(g.name), requestLogger(g.log))

	r.GET("/healthz", g.health)
	if g.metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(g.metricsHandler))
	}

	api := r.Group("/api", g.identify(abortUnauthenticated))
	{
		api.GET("/communities/:communityID/settings", requireAdmin(abortForbidden), g.getSettings)
		api.PUT("/communities/:communityID/settings", requireAdmin(abortForbidden), g.putSettings)
		api.GET("/members/:memberID/credits", g.getMemberCredits)
		api.GET("/me/credits", g.getOwnCredits)
		api.GET("/dashboard", g.dashboard)
	}

	pages := r.Group("/communities", g.identify(redirectTo("/")))
	{
		pages.GET("/:communityID/settings", requireAdmin(abortForbidden), g.getSettings)
		pages.POST("/:communityID/settings", requireAdmin(redirectTo("/dashboard")), g.postSettingsForm)
	}

	return r
}

// Run serves the gateway until ctx is done and then shuts the server down, letting in-flight
// requests complete
func (g *Gateway) Run(ctx context.Context) (err error) {
	srv := &http.Server{Addr: g.listenAddress, Handler: g.engine, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		g.log.Printf("Configuration gateway listening on [%s]\n", g.listenAddress)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err = <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return errors.Wrapf(err, "serving on [%s]", g.listenAddress)

	case <-ctx.Done():
		g.log.Printf("Shutting down configuration gateway\n")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}
