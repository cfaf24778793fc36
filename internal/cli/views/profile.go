package views

import (
	"context"
	"fmt"
	"io"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
	"github.com/shiftdesk/shiftdesk/internal/cli/session"
)

type profileView struct {
	app *App
}

func (v *profileView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	var (
		update  client.ProfileUpdate
		changed bool
	)
	if name := req.Query.Get("name"); name != "" {
		update.Name = &name
		changed = true
	}
	if phone := req.Query.Get("phone"); phone != "" {
		update.Phone = &phone
		changed = true
	}

	var (
		user *client.User
		err  error
	)
	if changed {
		user, err = v.app.Client.UpdateMe(ctx, update)
		if err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
	} else {
		user, err = v.app.Client.Me(ctx)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
	}

	// Keep the stored session in step with the server copy
	if err := v.app.Store.UpdateUser(session.Update{
		Name:           &user.Name,
		Phone:          &user.Phone,
		IsAdmin:        &user.IsAdmin,
		EnrollmentYear: &user.EnrollmentYear,
		ClassNumber:    &user.ClassNumber,
		TotalHours:     &user.TotalHours,
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if changed {
		line(w, "✓ Profile updated.\n")
	}
	line(w, "Name:            %s", user.Name)
	line(w, "Phone:           %s", user.Phone)
	if user.EnrollmentYear != 0 {
		line(w, "Enrollment year: %d", user.EnrollmentYear)
	}
	if user.ClassNumber != 0 {
		line(w, "Class:           %d", user.ClassNumber)
	}
	line(w, "Hours:           %s", formatHours(user.TotalHours))
	if user.IsAdmin {
		line(w, "Role:            admin")
	}
	return nil
}
