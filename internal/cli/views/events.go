package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
)

type eventsView struct {
	app *App
}

func (v *eventsView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	params := client.ListEventsParams{Status: req.Query.Get("status")}
	if upcoming, err := strconv.ParseBool(req.Query.Get("upcoming")); err == nil {
		params.Upcoming = upcoming
	}

	events, err := v.app.Client.ListEvents(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	if len(events) == 0 {
		line(w, "No events found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTARTS\tLOCATION\tVOLUNTEERS\tSTATUS")
	fmt.Fprintln(tw, "──\t─────\t──────\t────────\t──────────\t──────")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			e.ID,
			e.Title,
			formatTime(e.StartTime),
			e.Location,
			e.CurrentVolunteers,
			e.RequiredVolunteers,
			e.Status,
		)
	}
	return tw.Flush()
}

type eventView struct {
	app *App
}

func (v *eventView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	id := req.Params["id"]

	var (
		event *client.Event
		err   error
	)
	switch action := req.Query.Get("action"); action {
	case "":
		event, err = v.app.Client.GetEvent(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load event: %w", err)
		}
	case "join", "leave":
		if _, err := v.app.requireSession(); err != nil {
			return err
		}
		if action == "join" {
			event, err = v.app.Client.JoinEvent(ctx, id)
		} else {
			event, err = v.app.Client.LeaveEvent(ctx, id)
		}
		if err != nil {
			return fmt.Errorf("failed to %s event: %w", action, err)
		}
		if action == "join" {
			line(w, "✓ You're signed up.\n")
		} else {
			line(w, "✓ You've left this event.\n")
		}
	default:
		return fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}

	printEvent(w, event)

	if req.Query.Get("action") == "" && v.app.Store.IsAuthenticated() {
		line(w, "\nJoin: shiftdesk events %s --join", event.ID)
		line(w, "Leave: shiftdesk events %s --leave", event.ID)
	}
	return nil
}

func printEvent(w io.Writer, e *client.Event) {
	line(w, "%s", e.Title)
	line(w, "  Status:       %s", e.Status)
	line(w, "  When:         %s to %s", formatTime(e.StartTime), formatTime(e.EndTime))
	line(w, "  Where:        %s", e.Location)
	line(w, "  Volunteers:   %d/%d", e.CurrentVolunteers, e.RequiredVolunteers)
	line(w, "  Sign up by:   %s", formatTime(e.RegistrationDeadline))
	if e.LeaderName != "" {
		line(w, "  Leader:       %s %s", e.LeaderName, e.LeaderContact)
	}
	if e.Description != "" {
		line(w, "\n%s", e.Description)
	}
}
