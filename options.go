package mamapanic

import (
	"io/fs"
	"log/slog"
)

// Option configures an App.
type Option func(*resolvedOptions)

// resolvedOptions holds all extension points after applying defaults.
// Unexported — callers use the With* functions.
type resolvedOptions struct {
	port              int
	databaseURL       string
	notifyURL         string
	logger            *slog.Logger
	version           string
	companionProvider CompanionProvider
	extraMigrations   []fs.FS
}

// WithPort overrides the TCP port from config (RESPIRA_PORT env var).
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides the database connection string from config (DATABASE_URL env var).
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithNotifyURL overrides the direct Postgres URL used for LISTEN/NOTIFY (NOTIFY_URL env var).
// Set this when using a connection pooler (e.g. PgBouncer) for queries — LISTEN/NOTIFY
// requires a direct (non-pooled) connection.
func WithNotifyURL(url string) Option {
	return func(o *resolvedOptions) { o.notifyURL = url }
}

// WithLogger sets the structured logger for the App.
// If not set, the default slog logger is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported in the health endpoint and logs.
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithCompanionProvider replaces the auto-detected AI companion backend
// (Groq or canned responses). The provided implementation must satisfy
// the CompanionProvider interface. Only the last call wins.
func WithCompanionProvider(p CompanionProvider) Option {
	return func(o *resolvedOptions) { o.companionProvider = p }
}

// WithExtraMigrations appends migration filesystems applied after the
// embedded ones, in registration order. Each fs.FS must contain .sql
// files named NNN_description.sql.
func WithExtraMigrations(migrationFS ...fs.FS) Option {
	return func(o *resolvedOptions) { o.extraMigrations = append(o.extraMigrations, migrationFS...) }
}
