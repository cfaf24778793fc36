package views

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
)

type adminView struct {
	app *App
}

func (v *adminView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	if err := v.act(ctx, w, req); err != nil {
		return err
	}

	students, err := v.app.Client.AdminListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}

	line(w, "Students (%d):\n", len(students))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPHONE\tYEAR\tCLASS\tHOURS\tROLE")
	fmt.Fprintln(tw, "────\t─────\t────\t─────\t─────\t────")
	for _, s := range students {
		role := "student"
		if s.IsAdmin {
			role = "admin"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Name, s.Phone, optional(s.EnrollmentYear), optional(s.ClassNumber), formatHours(s.TotalHours), role)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	events, err := v.app.Client.ListEvents(ctx, client.ListEventsParams{})
	if err != nil {
		return fmt.Errorf("failed to load events: %w", err)
	}

	counts := map[string]int{}
	for _, e := range events {
		counts[e.Status]++
	}
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)

	line(w, "\nEvents (%d):", len(events))
	for _, status := range statuses {
		line(w, "  %-12s %d", status, counts[status])
	}
	return nil
}

// act runs the requested admin action before the overview is printed
func (v *adminView) act(ctx context.Context, w io.Writer, req router.Request) error {
	switch action := req.Query.Get("action"); action {
	case "":
		return nil
	case "status":
		id, status := req.Query.Get("event"), req.Query.Get("status")
		if id == "" || status == "" {
			return fmt.Errorf("event and status: %w", ErrInputRequired)
		}
		event, err := v.app.Client.AdminUpdateEvent(ctx, id, client.EventPatch{Status: &status})
		if err != nil {
			return fmt.Errorf("failed to update event: %w", err)
		}
		line(w, "✓ %s is now %s\n", event.Title, event.Status)
	case "delete":
		id := req.Query.Get("event")
		if id == "" {
			return fmt.Errorf("event: %w", ErrInputRequired)
		}
		if err := v.app.Client.AdminDeleteEvent(ctx, id); err != nil {
			return fmt.Errorf("failed to delete event: %w", err)
		}
		line(w, "✓ Event %s deleted\n", id)
	case "add-shift":
		input, err := shiftInput(req)
		if err != nil {
			return err
		}
		shift, err := v.app.Client.AdminCreateShift(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to add shift: %w", err)
		}
		line(w, "✓ Added %s on %s %s-%s\n", shift.Name, weekdayName(shift.DayOfWeek), shift.StartTime, shift.EndTime)
	case "system":
		info, err := v.app.Client.AdminSystemInfo(ctx)
		if err != nil {
			return fmt.Errorf("failed to load system info: %w", err)
		}
		printSystemInfo(w, info)
	default:
		return fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}
	return nil
}

func shiftInput(req router.Request) (client.ShiftInput, error) {
	q := req.Query
	input := client.ShiftInput{
		Name:        q.Get("name"),
		StartTime:   q.Get("start"),
		EndTime:     q.Get("end"),
		Description: q.Get("description"),
		Capacity:    1,
	}
	if input.Name == "" || input.StartTime == "" || input.EndTime == "" {
		return input, fmt.Errorf("name, start and end: %w", ErrInputRequired)
	}

	day, err := strconv.Atoi(q.Get("day"))
	if err != nil {
		return input, fmt.Errorf("day must be 1 (Monday) to 7 (Sunday): %q", q.Get("day"))
	}
	input.DayOfWeek = day

	if raw := q.Get("capacity"); raw != "" {
		if input.Capacity, err = strconv.Atoi(raw); err != nil {
			return input, fmt.Errorf("capacity must be a number: %q", raw)
		}
	}
	if raw := q.Get("hours"); raw != "" {
		if input.HoursValue, err = strconv.ParseFloat(raw, 64); err != nil {
			return input, fmt.Errorf("hours must be a number: %q", raw)
		}
	}
	return input, nil
}

func optional(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

const (
	defaultEventLength  = 2 * time.Hour
	defaultDeadlineLead = 24 * time.Hour
)

type publishView struct {
	app *App
}

func (v *publishView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	a := v.app
	var (
		input client.EventInput
		err   error
	)

	if input.Title, err = a.ask(req, "title", LabelTitle, ""); err != nil {
		return err
	}
	if input.Description, err = a.askOptional(req, "description", LabelDescription); err != nil {
		return err
	}
	if input.Location, err = a.ask(req, "location", LabelLocation, ""); err != nil {
		return err
	}
	if input.StartTime, err = a.askTime(req, "start", LabelStart, time.Time{}); err != nil {
		return err
	}
	if input.EndTime, err = a.askTime(req, "end", LabelEnd, input.StartTime.Add(defaultEventLength)); err != nil {
		return err
	}
	if input.RegistrationDeadline, err = a.askTime(req, "deadline", LabelDeadline, input.StartTime.Add(-defaultDeadlineLead)); err != nil {
		return err
	}
	if input.RequiredVolunteers, err = a.askInt(req, "volunteers", LabelVolunteers, 0); err != nil {
		return err
	}
	if input.LeaderName, err = a.askOptional(req, "leader", LabelLeader); err != nil {
		return err
	}
	if input.LeaderContact, err = a.askOptional(req, "contact", LabelLeaderContact); err != nil {
		return err
	}

	event, err := a.Client.AdminCreateEvent(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	line(w, "✓ Published %s\n", event.ID)
	printEvent(w, event)
	return nil
}

func printSystemInfo(w io.Writer, info *client.SystemInfo) {
	h := info.Host
	line(w, "System")
	line(w, "  API version:  %s", info.Version)
	line(w, "  CPUs:         %d (%d goroutines)", h.CPUCount, h.Goroutines)
	if h.MemoryTotalGB > 0 {
		line(w, "  Memory:       %.1f / %.1f GB", h.MemoryUsedGB, h.MemoryTotalGB)
	}
	if h.DiskTotalGB > 0 {
		line(w, "  Disk:         %.0f%% of %.1f GB", h.DiskUsedPercent, h.DiskTotalGB)
	}
	if h.DatabaseSizeMB > 0 {
		line(w, "  Database:     %.1f MB", h.DatabaseSizeMB)
	}
	st := info.Store
	line(w, "  Rows:         %d students, %d event signups, %d shifts, %d shift bookings\n",
		st.Students, st.EventSignups, st.RecurringShifts, st.ShiftSignups)
}
