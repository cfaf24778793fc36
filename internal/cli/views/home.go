package views

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
)

const homeEventLimit = 5

type homeView struct {
	app *App
}

func (v *homeView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	if req.From != "" {
		line(w, "You don't have access to %s.\n", req.From)
	}

	if s, ok := v.app.Store.Current(); ok {
		role := "student"
		if s.IsAdmin {
			role = "admin"
		}
		line(w, "Signed in as %s (%s), %s hours volunteered.", s.Name, role, formatHours(s.TotalHours))
	} else {
		line(w, "Not signed in. Run 'shiftdesk login' or 'shiftdesk register'.")
	}

	events, err := v.app.Client.ListEvents(ctx, client.ListEventsParams{Status: "recruiting", Upcoming: true})
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	if len(events) == 0 {
		line(w, "\nNo events are recruiting right now.")
		line(w, "Weekly shifts: shiftdesk shifts")
		return nil
	}

	line(w, "\nRecruiting now:\n")
	if len(events) > homeEventLimit {
		events = events[:homeEventLimit]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTARTS\tSPOTS LEFT")
	fmt.Fprintln(tw, "──\t─────\t──────\t──────────")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", e.ID, e.Title, formatTime(e.StartTime), e.RequiredVolunteers-e.CurrentVolunteers)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	line(w, "\nDetails: shiftdesk events <id>")
	return nil
}
