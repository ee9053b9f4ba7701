package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/repositories"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
	"github.com/desertthunder/curator/internal/ui"
)

const defaultConfigPath = "~/.curator/config.toml"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	creds      *shared.CredentialStore
	store      *repositories.Store
	engine     tasks.SyncEngine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	mu         sync.Mutex
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Engine     tasks.SyncEngine
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		creds:      shared.NewCredentialStore(opts.Config.DataDir()),
		engine:     opts.Engine,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "curator",
		Usage:    "Keep catalog lists filled with model recommendations from your watch history",
		Version:  "0.3.0",
		Flags:    r.globalFlags(),
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
		Writer:   r.output,
	}
}

func (r *Runner) globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file (defaults to ./config.toml, then " + defaultConfigPath + ")",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Override [log] level (debug, info, warn, error)",
		},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, listsCommand, updateCommand, syncCommand, watchCommand, historyCommand, unlockCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// resolveConfigPath prefers the flag, then ./config.toml, then the profile default.
func resolveConfigPath(flag string) string {
	if flag != "" {
		return shared.ExpandPath(flag)
	}
	if _, err := os.Stat("config.toml"); err == nil {
		return "config.toml"
	}
	return shared.ExpandPath(defaultConfigPath)
}

// Before loads configuration and applies the log level for every command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = resolveConfigPath(cmd.String("config"))

	config, err := shared.LoadConfig(r.configPath)
	switch {
	case err == nil:
		r.setConfig(config)
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		r.setConfig(shared.DefaultConfig())
	default:
		return ctx, err
	}

	level := r.config.Log.Level
	if flag := cmd.String("log-level"); flag != "" {
		level = flag
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(level))
	return ctx, nil
}

// After closes the local store if a command opened it.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

func (r *Runner) setConfig(config *shared.Config) {
	r.config = config
	r.creds = shared.NewCredentialStore(config.DataDir())
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// credentials loads every stored token. The recommender falls back to the configured key.
func (r *Runner) credentials() models.Credentials {
	load := func(p models.Provider) models.Credential {
		token, err := r.creds.Load(string(p))
		if err != nil {
			r.logger.Debug("credential not available", "provider", p, "error", err)
		}
		return models.Credential{Provider: p, Token: token}
	}

	c := models.Credentials{
		Recommender: load(models.ProviderRecommender),
		Catalog:     load(models.ProviderCatalog),
		Tracker:     load(models.ProviderTracker),
	}
	if !c.Recommender.Present() {
		c.Recommender.Token = r.config.Credentials.Recommender.APIKey
	}
	return c
}

// saveToken writes token to the credential file and records it in user_info.
func (r *Runner) saveToken(provider models.Provider, infoKey, token string) error {
	if err := r.creds.Save(string(provider), token); err != nil {
		return err
	}
	if infoKey == "" {
		return nil
	}
	store, err := r.openStore()
	if err != nil {
		return err
	}
	return store.UserInfo.Put(infoKey, token)
}

func (r *Runner) openStore() (*repositories.Store, error) {
	if r.store != nil {
		return r.store, nil
	}
	db, err := shared.OpenStore(r.config)
	if err != nil {
		return nil, err
	}
	r.store = repositories.NewStore(db)
	return r.store, nil
}

func (r *Runner) listRepository() *repositories.ListRepository {
	return repositories.NewListRepository(r.config.ListsPath())
}

func (r *Runner) trackerService(user models.Credential) *services.TraktService {
	c := r.config
	return services.NewTraktService(services.TraktOptions{
		BaseURL:      c.Credentials.Tracker.BaseURL,
		ClientID:     c.Credentials.Tracker.ClientID,
		ClientSecret: c.Credentials.Tracker.ClientSecret,
		User:         user,
		PageSize:     c.Sync.TrackerPageSize,
		Backoff:      c.TrackerBackoff(),
		Client:       r.httpClient,
		Logger:       shared.WithLogger(r.logger, "service", "tracker"),
	})
}

func (r *Runner) recommenderService(key models.Credential) *services.GeminiService {
	c := r.config.Credentials.Recommender
	return services.NewGeminiService(c.BaseURL, c.Model, key, r.httpClient)
}

func (r *Runner) catalogService(user models.Credential) *services.TMDBService {
	c := r.config.Credentials.Catalog
	return services.NewTMDBService(services.TMDBOptions{
		BaseURL:    c.BaseURL,
		ApproveURL: c.ApproveURL,
		AppToken:   c.APIKey,
		User:       user,
		Pacer:      shared.NewPacer(r.config.CatalogInterval()),
		Client:     r.httpClient,
		Logger:     shared.WithLogger(r.logger, "service", "catalog"),
	})
}

// syncEngine returns the injected engine or builds one from configuration.
func (r *Runner) syncEngine() (tasks.SyncEngine, error) {
	if r.engine != nil {
		return r.engine, nil
	}

	store, err := r.openStore()
	if err != nil {
		return nil, err
	}
	creds := r.credentials()
	r.engine = tasks.NewEngine(tasks.EngineOptions{
		Store:       store,
		Lists:       r.listRepository(),
		Tracker:     r.trackerService(creds.Tracker),
		Recommender: r.recommenderService(creds.Recommender),
		Publisher:   r.catalogService(creds.Catalog),
		Credentials: creds,
		LockPath:    r.config.LockPath(),
		Pacer:       shared.NewPacer(r.config.RecommenderInterval()),
		Logger:      r.logger,
		Notifier:    r.notifier(),
	})
	return r.engine, nil
}

// notifier prints user-facing status lines unless [notifications] disabled is set.
func (r *Runner) notifier() tasks.Notifier {
	return tasks.NotifierFunc(func(title, message string) {
		r.logger.Debug("notification", "title", title, "message", message)
		if r.config.Notifications.Disabled {
			return
		}
		r.writePlain("%s %s\n", ui.Styles().OK(title+":"), message)
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

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
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain("\n%s\n", fmt.Sprintf(format, args...))
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
