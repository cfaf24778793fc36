package views

import (
	"context"
	"fmt"
	"io"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
)

type loginView struct {
	app *App
}

func (v *loginView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	if req.From != "" {
		line(w, "Sign in to continue to %s.", req.From)
	}

	phone, err := v.app.ask(req, "phone", LabelPhone, "")
	if err != nil {
		return err
	}
	password, err := v.app.password()
	if err != nil {
		return err
	}

	resp, err := v.app.Client.Login(ctx, phone, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return v.app.signIn(ctx, w, resp, req.From)
}

type registerView struct {
	app *App
}

func (v *registerView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	name, err := v.app.ask(req, "name", LabelName, "")
	if err != nil {
		return err
	}
	phone, err := v.app.ask(req, "phone", LabelPhone, "")
	if err != nil {
		return err
	}
	password, err := v.app.password()
	if err != nil {
		return err
	}

	body := client.RegisterRequest{Name: name, Phone: phone, Password: password}
	if body.EnrollmentYear, err = v.app.askOptionalInt(req, "year", LabelEnrollmentYear); err != nil {
		return err
	}
	if body.ClassNumber, err = v.app.askOptionalInt(req, "class", LabelClassNumber); err != nil {
		return err
	}

	resp, err := v.app.Client.Register(ctx, body)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return v.app.signIn(ctx, w, resp, req.From)
}

// signIn stores the session and returns to the page that asked for it
func (a *App) signIn(ctx context.Context, w io.Writer, resp *client.AuthResponse, from string) error {
	if err := a.Store.Login(resp.User.Session(resp.Token)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	a.Logger.Debug().Str("user_id", resp.User.ID).Bool("admin", resp.User.IsAdmin).Msg("Session stored")

	line(w, "✓ Signed in as %s", resp.User.Name)
	if resp.User.IsAdmin {
		line(w, "  Role: Admin")
	}

	if from == "" || a.nav == nil {
		return nil
	}
	line(w, "")
	_, err := a.nav.Navigate(ctx, from)
	return err
}
