// Package mamapanic is the public API for embedding the Mamá Respira server.
//
// Consumers import this package to construct and run the server without
// forking it:
//
//	app, err := mamapanic.New(
//	    mamapanic.WithVersion(version),
//	    mamapanic.WithLogger(logger),
//	)
//	if err != nil { ... }
//	if err := app.Run(ctx); err != nil { ... }
//
// The import graph enforces a strict no-cycle rule: mamapanic (root)
// imports internal/*, but internal/* never imports mamapanic (root).
// Public types (PromptMessage, CompanionProvider) are standalone with no
// internal imports; the adapter that bridges them to internal/companion
// lives here because this is the only file that sees both sides of the
// boundary.
package mamapanic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/Inova117/mamapanic/internal/audit"
	"github.com/Inova117/mamapanic/internal/auth"
	"github.com/Inova117/mamapanic/internal/companion"
	"github.com/Inova117/mamapanic/internal/config"
	"github.com/Inova117/mamapanic/internal/debuglog"
	"github.com/Inova117/mamapanic/internal/model"
	"github.com/Inova117/mamapanic/internal/pipeline"
	"github.com/Inova117/mamapanic/internal/ratelimit"
	"github.com/Inova117/mamapanic/internal/server"
	"github.com/Inova117/mamapanic/internal/storage"
	"github.com/Inova117/mamapanic/internal/telemetry"
	"github.com/Inova117/mamapanic/migrations"
)

// Retention pruning cadence for the audit log and rate-limit event
// tables. The retention windows themselves come from config.
const (
	auditPruneInterval     = time.Hour
	rateLimitPruneInterval = 15 * time.Minute
)

// App is the Mamá Respira server lifecycle. Construct with New(), run
// with Run(). App has no public fields — use New() options to configure it.
type App struct {
	cfg          config.Config
	db           *storage.DB
	srv          *server.Server
	auditor      *audit.Logger
	broker       *server.Broker // nil when no notify connection
	otelShutdown func(context.Context) error
	logger       *slog.Logger
	version      string
}

// New initialises the Respira server. It connects to the database, runs
// migrations, wires all subsystems, and returns a ready-to-run App.
// It does NOT start any goroutines or accept HTTP connections — call Run().
func New(opts ...Option) (*App, error) {
	// Apply options.
	o := resolvedOptions{}
	for _, fn := range opts {
		fn(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Load .env file if present (non-fatal; production won't have one).
	_ = godotenv.Load()

	// Load configuration (env vars), then apply option overrides.
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.notifyURL != "" {
		cfg.NotifyURL = o.notifyURL
	}
	version := o.version
	if version == "" {
		version = "dev"
	}

	logger.Info("respira starting", "version", version, "port", cfg.Port)

	// Initialize OpenTelemetry.
	otelShutdown, err := telemetry.Init(context.Background(), cfg.OTELEndpoint, cfg.ServiceName, version, cfg.OTELInsecure)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	// Connect to database.
	db, err := storage.New(context.Background(), cfg.DatabaseURL, cfg.NotifyURL, logger)
	if err != nil {
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("storage: %w", err)
	}

	// Run embedded migrations, then any extra migrations supplied via options.
	if err := db.RunMigrations(context.Background(), migrations.FS); err != nil {
		db.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("migrations: %w", err)
	}
	for i, extraFS := range o.extraMigrations {
		if err := db.RunMigrations(context.Background(), extraFS); err != nil {
			db.Close(context.Background())
			_ = otelShutdown(context.Background())
			return nil, fmt.Errorf("extra migrations[%d]: %w", i, err)
		}
	}

	// Verify critical tables exist after migration.
	var schemaOK bool
	if err := db.Pool().QueryRow(context.Background(),
		`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'profiles')`,
	).Scan(&schemaOK); err != nil {
		db.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("schema verification: %w", err)
	}
	if !schemaOK {
		db.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("critical table 'profiles' does not exist after migration")
	}

	// Seed the default validation card deck (idempotent).
	if err := db.SeedValidationCards(context.Background()); err != nil {
		db.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("validation card seed: %w", err)
	}

	// Create JWT manager.
	jwtMgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration)
	if err != nil {
		db.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("auth: %w", err)
	}

	// Create companion provider — external override takes priority over auto-detect.
	var provider companion.Provider
	if o.companionProvider != nil {
		provider = &companionProviderAdapter{p: o.companionProvider}
	} else {
		provider = newCompanionProvider(cfg, logger)
	}
	comp := companion.New(provider, logger)

	// Audit logger, rate-limit guard, in-memory debug log.
	auditor := audit.NewLogger(db, logger)
	guard := ratelimit.NewGuard(db, logger)
	debug := debuglog.NewBuffer(logger)

	// Message pipeline (sanitize → rate limit → persist → audit).
	pipe := pipeline.New(db, guard, auditor, comp, debug, logger)

	// SSE broker.
	var broker *server.Broker
	if db.HasNotifyConn() {
		broker = server.NewBroker(db, logger)
	} else {
		logger.Info("SSE broker: disabled (no notify connection)")
	}

	// Create HTTP server.
	srv := server.New(server.ServerConfig{
		DB:                  db,
		JWTMgr:              jwtMgr,
		Pipeline:            pipe,
		Companion:           comp,
		Guard:               guard,
		Auditor:             auditor,
		Logger:              logger,
		Broker:              broker,
		Debug:               debug,
		Port:                cfg.Port,
		ReadTimeout:         cfg.ReadTimeout,
		WriteTimeout:        cfg.WriteTimeout,
		Version:             version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
	})

	// Seed admin profile.
	if err := seedAdmin(context.Background(), db, cfg, logger); err != nil {
		db.Close(context.Background())
		_ = otelShutdown(context.Background())
		return nil, fmt.Errorf("admin seed: %w", err)
	}

	return &App{
		cfg:          cfg,
		db:           db,
		srv:          srv,
		auditor:      auditor,
		broker:       broker,
		otelShutdown: otelShutdown,
		logger:       logger,
		version:      version,
	}, nil
}

// Run starts all background goroutines and the HTTP server, then blocks until
// ctx is cancelled or a fatal server error occurs. On return, Shutdown is called
// automatically — callers should not call Shutdown separately.
func (a *App) Run(ctx context.Context) error {
	// Background services.
	if a.broker != nil {
		go a.broker.Start(ctx)
	}
	go a.auditPruneLoop(ctx)
	go a.rateLimitPruneLoop(ctx)

	// Start HTTP server.
	errCh := make(chan error, 1)
	go func() {
		if err := a.srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Block until signal or server error.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	return a.Shutdown(context.Background())
}

// Shutdown performs a graceful shutdown: stop accepting HTTP requests
// and drain in-flight, then drain the audit queue to Postgres. It then
// closes the database pool and OTEL provider.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("respira shutting down")

	// Phase 1: HTTP drain.
	httpCtx, httpCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := a.srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("http shutdown error", "error", err)
	}
	httpCancel()

	// Phase 2: audit queue drain.
	auditCtx, auditCancel := context.WithTimeout(ctx, 5*time.Second)
	a.auditor.Close(auditCtx)
	auditCancel()

	// Cleanup.
	_ = a.otelShutdown(context.Background())
	a.db.Close(context.Background())

	a.logger.Info("respira stopped")
	return nil
}

// ── Background loops ───────────────────────────────────────────────────────────

func (a *App) auditPruneLoop(ctx context.Context) {
	ticker := time.NewTicker(auditPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			deleted, err := a.db.PruneAuditLog(opCtx, a.cfg.AuditRetention)
			cancel()
			if err != nil {
				a.logger.Warn("audit prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				a.logger.Info("audit prune deleted rows", "deleted", deleted)
			}
		}
	}
}

func (a *App) rateLimitPruneLoop(ctx context.Context) {
	ticker := time.NewTicker(rateLimitPruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			opCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			deleted, err := a.db.PruneRateLimitEvents(opCtx, a.cfg.RateLimitRetention)
			cancel()
			if err != nil {
				a.logger.Warn("rate-limit prune failed", "error", err)
				continue
			}
			if deleted > 0 {
				a.logger.Info("rate-limit prune deleted rows", "deleted", deleted)
			}
		}
	}
}

// ── Wiring helpers ─────────────────────────────────────────────────────────────

// newCompanionProvider picks the AI companion backend from config.
// "auto" uses Groq when GROQ_API_KEY is set and falls back to canned
// responses otherwise.
func newCompanionProvider(cfg config.Config, logger *slog.Logger) companion.Provider {
	switch cfg.CompanionProvider {
	case "groq":
		if cfg.GroqAPIKey == "" {
			logger.Error("GROQ_API_KEY required when RESPIRA_COMPANION_PROVIDER=groq")
			return companion.NoopProvider{}
		}
		logger.Info("companion provider: groq", "model", cfg.GroqModel)
		return companion.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
	case "noop":
		logger.Info("companion provider: noop (canned responses)")
		return companion.NoopProvider{}
	default: // "auto", validated in config.Load
		if cfg.GroqAPIKey != "" {
			logger.Info("companion provider: groq (auto-detected)", "model", cfg.GroqModel)
			return companion.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
		}
		logger.Info("companion provider: noop (no GROQ_API_KEY)")
		return companion.NoopProvider{}
	}
}

// seedAdmin creates the initial admin profile from config. A no-op when
// the credentials are unset or the profile already exists.
func seedAdmin(ctx context.Context, db *storage.DB, cfg config.Config, logger *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Info("admin seed: skipped (RESPIRA_ADMIN_EMAIL not set)")
		return nil
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	profile, err := db.CreateProfile(ctx, cfg.AdminEmail, "Equipo Respira", hash, model.RoleAdmin)
	if errors.Is(err, storage.ErrDuplicate) {
		logger.Info("admin seed: profile already exists", "email", cfg.AdminEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin profile: %w", err)
	}

	logger.Info("admin seed: profile created", "id", profile.ID, "email", cfg.AdminEmail)
	return nil
}

// ── Adapters (defined here because this file imports both sides) ───────────────

// companionProviderAdapter wraps a public CompanionProvider to satisfy
// companion.Provider. It converts prompt messages at the boundary.
type companionProviderAdapter struct {
	p CompanionProvider
}

func (a *companionProviderAdapter) Complete(ctx context.Context, messages []companion.Message, maxTokens int) (string, error) {
	pub := make([]PromptMessage, len(messages))
	for i, m := range messages {
		pub[i] = PromptMessage{Role: MessageRole(m.Role), Content: m.Content}
	}
	return a.p.Complete(ctx, pub, maxTokens)
}

func (a *companionProviderAdapter) Name() string {
	return a.p.Name()
}
