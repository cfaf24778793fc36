// Package views renders the CLI screens behind each route.
package views

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
	"github.com/shiftdesk/shiftdesk/internal/cli/session"
)

// InputTimeLayout is how event times are typed in and printed
const InputTimeLayout = "2006-01-02 15:04"

var (
	// ErrInputRequired is returned when a value is missing and nobody can be prompted
	ErrInputRequired = errors.New("input required")

	// ErrSignInRequired is returned by actions that need a session
	ErrSignInRequired = errors.New("sign in first: shiftdesk login")

	// ErrUnknownAction is returned for an unsupported action query value
	ErrUnknownAction = errors.New("unknown action")
)

// Navigator moves to another route after a view finishes
type Navigator interface {
	Navigate(ctx context.Context, path string) (router.Decision, error)
}

// App holds what every view needs
type App struct {
	Client *client.Client
	Store  *session.Store
	// Prompt may be nil in non-interactive runs
	Prompt Prompter
	Logger zerolog.Logger

	nav Navigator
}

// Bind sets the navigator used for post-login redirects
func (a *App) Bind(nav Navigator) {
	a.nav = nav
}

// Routes returns the route table. Only the entry screens are built eagerly.
func Routes(app *App) []router.Route {
	event := func() router.View { return &eventView{app: app} }

	return []router.Route{
		{Path: "/", Name: "home", View: &homeView{app: app}},
		{Path: "/login", Name: "login", View: &loginView{app: app}},
		{Path: "/register", Name: "register", View: &registerView{app: app}},
		{Path: "/events", Name: "events", Lazy: func() router.View { return &eventsView{app: app} }},
		{Path: "/events/:id", Name: "event", Lazy: event},
		{Path: "/event/:id", Name: "event-legacy", Lazy: event},
		{Path: "/shifts", Name: "shifts", Lazy: func() router.View { return &shiftsView{app: app} }},
		{Path: "/profile", Name: "profile", Lazy: func() router.View { return &profileView{app: app} }, Meta: router.Meta{RequiresAuth: true}},
		{Path: "/admin", Name: "admin", Lazy: func() router.View { return &adminView{app: app} }, Meta: router.Meta{RequiresAdmin: true}},
		{Path: "/publish", Name: "publish", Lazy: func() router.View { return &publishView{app: app} }, Meta: router.Meta{RequiresAdmin: true}},
	}
}

// ask returns the query value for key, or prompts for it
func (a *App) ask(req router.Request, key, label, def string) (string, error) {
	if v := strings.TrimSpace(req.Query.Get(key)); v != "" {
		return v, nil
	}
	if a.Prompt == nil {
		if def != "" {
			return def, nil
		}
		return "", fmt.Errorf("%s: %w", label, ErrInputRequired)
	}
	v, err := a.Prompt.Input(label, def)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// askOptional is ask for values that may stay empty
func (a *App) askOptional(req router.Request, key, label string) (string, error) {
	if v := strings.TrimSpace(req.Query.Get(key)); v != "" || a.Prompt == nil {
		return v, nil
	}
	v, err := a.Prompt.Input(label, "")
	if errors.Is(err, ErrInputRequired) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (a *App) askInt(req router.Request, key, label string, def int) (int, error) {
	d := ""
	if def != 0 {
		d = strconv.Itoa(def)
	}
	raw, err := a.ask(req, key, label, d)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %q", label, raw)
	}
	return n, nil
}

// askOptionalInt returns 0 when the answer is left blank
func (a *App) askOptionalInt(req router.Request, key, label string) (int, error) {
	raw, err := a.askOptional(req, key, label)
	if err != nil || raw == "" {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %q", label, raw)
	}
	return n, nil
}

func (a *App) askTime(req router.Request, key, label string, def time.Time) (time.Time, error) {
	d := ""
	if !def.IsZero() {
		d = def.Format(InputTimeLayout)
	}
	raw, err := a.ask(req, key, label, d)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(InputTimeLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must look like %s: %q", label, InputTimeLayout, raw)
	}
	return t, nil
}

func (a *App) password() (string, error) {
	if a.Prompt == nil {
		return "", fmt.Errorf("%s: %w", LabelPassword, ErrInputRequired)
	}
	return a.Prompt.Password(LabelPassword)
}

func (a *App) requireSession() (session.Session, error) {
	s, ok := a.Store.Current()
	if !ok {
		return session.Session{}, ErrSignInRequired
	}
	return s, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(InputTimeLayout)
}

func weekdayName(day int) string {
	return time.Weekday(day % 7).String()
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func line(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, format+"\n", args...)
}
