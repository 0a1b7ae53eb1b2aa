package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tunemerge/tunemerge/internal/auth"
	"github.com/tunemerge/tunemerge/internal/repositories"
	"github.com/tunemerge/tunemerge/internal/services"
	"github.com/tunemerge/tunemerge/internal/shared"
	"github.com/tunemerge/tunemerge/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The database, credential manager, and sync engine are opened lazily so
// commands that never touch persistence (version, help) stay cheap.
type Runner struct {
	config     *shared.Config
	configPath string
	providers  map[string]services.Service
	exchangers map[string]*services.ProviderExchanger
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	userID     string

	db      *sql.DB
	manager *auth.Manager
	engine  tasks.SyncEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Providers  map[string]services.Service
	Exchangers map[string]*services.ProviderExchanger
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	UserID     string

	// Test seams, normally left nil and built from config on demand
	DB      *sql.DB
	Manager *auth.Manager
	Engine  tasks.SyncEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Providers == nil {
		opts.Providers = map[string]services.Service{}
	}
	if opts.Exchangers == nil {
		opts.Exchangers = map[string]*services.ProviderExchanger{}
	}
	if opts.UserID == "" {
		opts.UserID = "default"
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		providers:  opts.Providers,
		exchangers: opts.Exchangers,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		userID:     opts.UserID,
		db:         opts.DB,
		manager:    opts.Manager,
		engine:     opts.Engine,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, syncCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger, used when the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database handle if one was opened.
func (r *Runner) Close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

// database opens (once) and returns the configured SQLite handle.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db = db
	return db, nil
}

// authManager builds (once) the credential manager backed by the database.
func (r *Runner) authManager() (*auth.Manager, error) {
	if r.manager != nil {
		return r.manager, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}

	exchangers := map[string]auth.TokenExchanger{}
	for provider, exchanger := range r.exchangers {
		exchangers[provider] = exchanger
	}

	r.manager = auth.NewManager(auth.ManagerOpts{
		Store:      repositories.NewCredentialRepository(db),
		Exchangers: exchangers,
		Grace:      time.Duration(r.config.Sync.ExpiryGraceSeconds) * time.Second,
		Logger:     r.logger,
	})
	return r.manager, nil
}

// syncEngine builds (once) the sync engine with the match cache wired in.
func (r *Runner) syncEngine() (tasks.SyncEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, err
	}
	manager, err := r.authManager()
	if err != nil {
		return nil, err
	}

	r.engine = tasks.NewEngine(tasks.EngineOpts{
		Providers: r.providers,
		Auth:      manager,
		Sync:      r.config.Sync,
		Cache:     repositories.NewTrackCacheAdapter(repositories.NewTrackRepository(db)),
		Logger:    r.logger,
	})
	return r.engine, nil
}

// resolveProvider resolves a provider name to its corresponding Service instance.
func (r *Runner) resolveProvider(name string) (services.Service, error) {
	svc, ok := r.providers[name]
	if !ok || svc == nil {
		return nil, fmt.Errorf("%w: %q (must be 'spotify' or 'youtube')", shared.ErrUnknownProvider, name)
	}
	return svc, nil
}

// exchanger resolves a provider name to its OAuth exchanger, failing when the
// provider's client credentials are not configured.
func (r *Runner) exchanger(name string) (*services.ProviderExchanger, error) {
	exchanger, ok := r.exchangers[name]
	if !ok || exchanger == nil {
		return nil, fmt.Errorf("%w: no OAuth client configured for %q, set credentials.%s in config.toml", shared.ErrMissingCredentials, name, name)
	}
	return exchanger, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
