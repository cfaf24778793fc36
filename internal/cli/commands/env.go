package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
	"github.com/shiftdesk/shiftdesk/internal/cli/session"
	"github.com/shiftdesk/shiftdesk/internal/cli/userconfig"
	"github.com/shiftdesk/shiftdesk/internal/cli/views"
	"github.com/shiftdesk/shiftdesk/internal/logger"
)

const (
	// APIURLEnv overrides the API root from the config file
	APIURLEnv = "SHIFTDESK_API_URL"

	// PasswordEnv supplies the password in non-interactive runs
	PasswordEnv = "SHIFTDESK_PASSWORD"

	defaultCacheBytes = 8 << 20
)

// Options are the global flags
type Options struct {
	APIURL  string
	Storage string
	Cache   bool
	Verbose bool
}

// Env holds the objects shared by every command. It is built once per run
// from the global flags, the environment and the user config file.
type Env struct {
	Store  *session.Store
	Client *client.Client
	Router *router.Router
	App    *views.App
	Logger zerolog.Logger

	out     io.Writer
	backend session.Backend
	answers *answerPrompter
	loadCfg func() (*userconfig.UserConfig, error)
}

// NewEnv returns an Env that renders to out
func NewEnv(out io.Writer) *Env {
	return &Env{out: out, loadCfg: userconfig.Load}
}

// Setup wires the session store, API client and router
func (e *Env) Setup(opts Options) error {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logger.InitWithWriter(os.Stderr, level, "console")
	e.Logger = logger.GetLogger().With().Str("component", "cli").Logger()

	cfg, err := e.loadCfg()
	if err != nil {
		return err
	}

	storage := opts.Storage
	if storage == "" {
		storage = cfg.ResolveStorage()
	}
	backend := e.backend
	if backend == nil {
		if backend, err = newBackend(storage); err != nil {
			return err
		}
	}
	e.Store = session.Open(backend, e.Logger)

	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = cfg.ResolveAPIURL(os.Getenv(APIURLEnv), client.DefaultBaseURL)
	}
	clientOpts := []client.Option{client.WithLogger(e.Logger)}
	if opts.Cache || cfg.Cache {
		clientOpts = append(clientOpts, client.WithCache(defaultCacheBytes))
	}
	e.Client = client.New(apiURL, e.Store, clientOpts...)

	e.answers = &answerPrompter{answers: map[string]string{}, next: views.NewTerminalPrompter()}
	e.App = &views.App{
		Client: e.Client,
		Store:  e.Store,
		Prompt: e.answers,
		Logger: e.Logger,
	}

	e.Router, err = router.New(views.Routes(e.App), e.Store, e.out)
	if err != nil {
		return err
	}
	e.App.Bind(e.Router)

	e.Router.AfterEach(func(requested router.Route, d router.Decision) {
		e.Logger.Debug().
			Str("route", requested.Name).
			Str("action", d.Action.String()).
			Str("to", d.To).
			Str("from", d.RedirectFrom).
			Msg("Navigation")
	})

	e.Logger.Debug().Str("api_url", e.Client.BaseURL()).Str("storage", storage).Msg("CLI ready")
	return nil
}

// Navigate renders path through the router
func (e *Env) Navigate(ctx context.Context, path string) error {
	_, err := e.Router.Navigate(ctx, path)
	return err
}

// Answer pre-fills a prompt so it is not asked interactively
func (e *Env) Answer(label, value string) {
	if value != "" {
		e.answers.answers[label] = value
	}
}

func newBackend(storage string) (session.Backend, error) {
	switch storage {
	case userconfig.StorageFile:
		return session.NewFileBackend(session.DefaultDir()), nil
	case userconfig.StorageKeyring:
		return session.NewKeyringBackend(), nil
	case userconfig.StorageMemory:
		return session.NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown storage %q (use file, keyring or memory)", storage)
}

// answerPrompter answers from flags first and falls back to the terminal
type answerPrompter struct {
	answers map[string]string
	next    views.Prompter
}

func (p *answerPrompter) Input(label, def string) (string, error) {
	if v, ok := p.answers[label]; ok {
		return v, nil
	}
	if p.next == nil {
		if def != "" {
			return def, nil
		}
		return "", fmt.Errorf("%s: %w", label, views.ErrInputRequired)
	}
	return p.next.Input(label, def)
}

func (p *answerPrompter) Password(label string) (string, error) {
	if v, ok := p.answers[label]; ok {
		return v, nil
	}
	if p.next == nil {
		return "", fmt.Errorf("%s is required in non-interactive mode (use --password or %s): %w", label, PasswordEnv, views.ErrInputRequired)
	}
	return p.next.Password(label)
}

func (p *answerPrompter) Select(label string, items []string) (int, error) {
	if p.next == nil {
		return -1, fmt.Errorf("%s: %w", label, views.ErrInputRequired)
	}
	return p.next.Select(label, items)
}
