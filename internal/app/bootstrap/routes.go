// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	healthfeature "github.com/jackson-sweet/opsapp-sub003/internal/app/features/health"
	subscriptionfeature "github.com/jackson-sweet/opsapp-sub003/internal/app/features/subscription"
	syncrunfeature "github.com/jackson-sweet/opsapp-sub003/internal/app/features/syncrun"
	companystore "github.com/jackson-sweet/opsapp-sub003/internal/app/store/companies"
	preferencestore "github.com/jackson-sweet/opsapp-sub003/internal/app/store/preferences"
	projectstore "github.com/jackson-sweet/opsapp-sub003/internal/app/store/projects"
	userstore "github.com/jackson-sweet/opsapp-sub003/internal/app/store/users"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/access"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/auth"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/directory"
	systemhealth "github.com/jackson-sweet/opsapp-sub003/internal/app/system/health"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/notify"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/reconcile"
	"github.com/jackson-sweet/opsapp-sub003/internal/app/system/syncpass"
	"go.uber.org/zap"
)

// batchSource adapts the collector registry to the sync runner's
// per-user batch lookup.
type batchSource struct {
	reg *notify.Registry
}

func (s batchSource) For(userID string) syncpass.Batch {
	return s.reg.For(userID)
}

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and any Startup hooks have completed. Every service is constructed
// here and injected explicitly; there is no package-level shared state.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Session manager for the device cookie. Secure cookies in prod.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Upstream directory client.
	dir, err := directory.New(directory.Config{
		BaseURL:    appCfg.DirectoryBaseURL,
		Token:      appCfg.DirectoryToken,
		Timeout:    appCfg.DirectoryTimeout,
		MaxRetries: appCfg.DirectoryMaxRetries,
		RetryDelay: appCfg.DirectoryRetryDelay,
	}, logger)
	if err != nil {
		logger.Error("directory client init failed", zap.Error(err))
		return nil, err
	}

	// Per-collection stores over the local cache.
	users := userstore.New(deps.MongoDatabase)
	projects := projectstore.New(deps.MongoDatabase)
	companies := companystore.New(deps.MongoDatabase)
	preferences := preferencestore.New(deps.MongoDatabase)

	// Notification delivery: push gateway when configured, log-only in dev.
	var sched notify.Scheduler
	if appCfg.PushGatewayURL != "" {
		sched = notify.NewPushGateway(appCfg.PushGatewayURL, appCfg.PushGatewayToken, appCfg.DirectoryTimeout, logger)
	} else {
		sched = &notify.LogScheduler{Log: logger}
	}
	collectors := notify.NewRegistry(preferences, sched, logger)

	// Access gate over the company store and the directory's seat API.
	gate := access.NewGate(companies, dir, logger)

	// Sync engine + health monitor.
	engine := syncpass.NewEngine(deps.MongoClient, logger)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := engine.Attach(ctx); err != nil {
			// Not fatal: the health monitor's reinitialize action retries.
			logger.Warn("initial sync engine attach failed", zap.Error(err))
		}
	}
	monitor := systemhealth.NewMonitor(systemhealth.Config{
		Users:      users,
		Companies:  companies,
		Directory:  dir,
		Engine:     engine,
		Reattach:   engine.Attach,
		GraceDelay: appCfg.SyncGraceDelay,
	}, logger)

	// Sync pass runner; each pass gets a reconciler bound to the
	// pass's event sink.
	factory := func(sink reconcile.EventSink) *reconcile.Reconciler {
		return reconcile.New(users, projects, dir, sink, deps.MongoClient, logger)
	}
	runner := syncpass.NewRunner(monitor, batchSource{reg: collectors}, dir, users, projects, companies, gate, factory, logger)

	r := chi.NewRouter()

	// Global middleware: decode the device session into request context.
	r.Use(sessionMgr.LoadDeviceSession)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, monitor, sessionMgr, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	subscriptionHandler := subscriptionfeature.NewHandler(gate, logger)
	r.Mount("/subscription", subscriptionfeature.Routes(subscriptionHandler))

	syncHandler := syncrunfeature.NewHandler(runner, logger)
	r.Mount("/sync", syncrunfeature.Routes(syncHandler))

	return r, nil
}
