// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	accountsfeature "github.com/teachdrive/teachdrive/internal/app/features/accounts"
	drivefeature "github.com/teachdrive/teachdrive/internal/app/features/drive"
	healthfeature "github.com/teachdrive/teachdrive/internal/app/features/health"
	sharingfeature "github.com/teachdrive/teachdrive/internal/app/features/sharing"
	"github.com/teachdrive/teachdrive/internal/app/system/auth"
	"github.com/teachdrive/teachdrive/internal/app/system/jsonutil"
	"github.com/teachdrive/teachdrive/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The route surface has three bands:
//   - open endpoints: /health, /api/accounts (register/login), /shared
//   - session-protected endpoints: /api/drive, /api/sharing
//   - root probes for load balancers: /ready, /readyz, /livez
//
// The /shared band is anonymous on purpose. Anyone holding an owner's
// public identifier can browse that owner's shared tree and download shared
// files without an account, so those routes sit outside the session
// middleware's Require* guards and carry permissive CORS instead.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Set up the UserFetcher so LoadSessionUser fetches fresh user data on
	// each request. A renamed folder segment or deleted account takes effect
	// on the next request instead of lingering until the cookie expires.
	sessionMgr.SetUserFetcher(accountsfeature.NewFetcher(deps.MongoDatabase))

	// Core drive service and the sharing manager layered on top of it.
	driveSvc := drivefeature.NewService(deps.MongoDatabase, deps.Blobs, logger)
	sharingMgr := sharingfeature.NewManager(deps.MongoDatabase, driveSvc, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	// Uses the long operation budget because subtree renames and confirmed
	// deletes touch many rows plus the physical tree.
	r.Use(chimw.Timeout(timeouts.Long()))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if signed in.
	// Anonymous /shared requests simply have no session, which is fine.
	r.Use(sessionMgr.LoadSessionUser)

	// ─────────────────────────────────────────────────────────────────────────
	// Open routes (no session required)
	// ─────────────────────────────────────────────────────────────────────────

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Blobs, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Account lifecycle: register, login, logout, current user.
	accountsHandler := accountsfeature.NewHandler(deps.MongoDatabase, driveSvc, sessionMgr, logger)
	r.Mount("/api/accounts", accountsfeature.Routes(accountsHandler))

	// Anonymous shared-tree browsing and downloads, keyed by the owner's
	// public identifier.
	sharingHandler := sharingfeature.NewHandler(sharingMgr, logger)
	r.Mount("/shared", sharingfeature.PublicRoutes(sharingHandler))

	// ─────────────────────────────────────────────────────────────────────────
	// Session-protected routes
	// ─────────────────────────────────────────────────────────────────────────

	driveHandler := drivefeature.NewHandler(driveSvc, logger)
	r.Group(func(r chi.Router) {
		r.Use(sessionMgr.RequireSignedIn)
		r.Mount("/api/drive", drivefeature.Routes(driveHandler))
		r.Mount("/api/sharing", sharingfeature.Routes(sharingHandler))
	})

	// JSON 404 for everything else. This is an API service, so unmatched
	// paths get a JSON body rather than the default plain-text response.
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.NotFound(w, "not found")
	})

	logger.Info("HTTP handler built",
		zap.String("env", coreCfg.Env),
		zap.Bool("secure_cookies", secure))

	return r, nil
}
