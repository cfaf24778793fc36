package views

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shiftdesk/shiftdesk/internal/cli/client"
	"github.com/shiftdesk/shiftdesk/internal/cli/router"
)

type shiftsView struct {
	app *App
}

func (v *shiftsView) Render(ctx context.Context, w io.Writer, req router.Request) error {
	shifts, err := v.app.Client.ListShifts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load shifts: %w", err)
	}

	action := req.Query.Get("action")
	switch action {
	case "":
	case "signup":
		if err := v.signUp(ctx, w, req, shifts); err != nil {
			return err
		}
	case "cancel":
		if _, err := v.app.requireSession(); err != nil {
			return err
		}
		signupID, err := v.app.ask(req, "signup", "Booking ID", "")
		if err != nil {
			return err
		}
		if err := v.app.Client.CancelShiftSignup(ctx, signupID); err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}
		line(w, "✓ Booking cancelled.\n")
	default:
		return fmt.Errorf("%q: %w", action, ErrUnknownAction)
	}

	if action != "" {
		// Refresh the taken counts
		if shifts, err = v.app.Client.ListShifts(ctx); err != nil {
			return fmt.Errorf("failed to load shifts: %w", err)
		}
	}

	if err := printTimetable(w, shifts); err != nil {
		return err
	}

	if !v.app.Store.IsAuthenticated() {
		return nil
	}
	return v.printBookings(ctx, w)
}

func (v *shiftsView) signUp(ctx context.Context, w io.Writer, req router.Request, shifts []client.Shift) error {
	if _, err := v.app.requireSession(); err != nil {
		return err
	}
	if len(shifts) == 0 {
		return fmt.Errorf("no shifts to sign up for")
	}

	shift, err := v.pick(req, shifts)
	if err != nil {
		return err
	}

	date := req.Query.Get("date")
	if date == "" {
		date = shift.NextDate
	}

	signup, err := v.app.Client.SignUpShift(ctx, shift.ID, date)
	if err != nil {
		return fmt.Errorf("failed to sign up: %w", err)
	}
	line(w, "✓ Booked %s on %s %s-%s (booking %s)\n", shift.Name, signup.Date, shift.StartTime, shift.EndTime, signup.ID)
	return nil
}

// pick resolves the shift from the query or shows the picker
func (v *shiftsView) pick(req router.Request, shifts []client.Shift) (client.Shift, error) {
	if id := req.Query.Get("shift"); id != "" {
		for _, s := range shifts {
			if s.ID == id {
				return s, nil
			}
		}
		return client.Shift{}, fmt.Errorf("shift %s not found", id)
	}

	if v.app.Prompt == nil {
		return client.Shift{}, fmt.Errorf("shift: %w", ErrInputRequired)
	}

	items := make([]string, len(shifts))
	for i, s := range shifts {
		items[i] = fmt.Sprintf("%s %s %s-%s  %s  (%d/%d taken)",
			weekdayName(s.DayOfWeek)[:3], s.NextDate, s.StartTime, s.EndTime, s.Name, s.Taken, s.Capacity)
	}
	index, err := v.app.Prompt.Select(LabelShift, items)
	if err != nil {
		return client.Shift{}, err
	}
	if index < 0 || index >= len(shifts) {
		return client.Shift{}, fmt.Errorf("invalid selection %d", index)
	}
	return shifts[index], nil
}

func (v *shiftsView) printBookings(ctx context.Context, w io.Writer) error {
	mine, err := v.app.Client.MyShifts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	line(w, "\nMy bookings:\n")
	if len(mine) == 0 {
		line(w, "None yet. Book one with: shiftdesk shifts --signup")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BOOKING\tDATE\tTIME\tSHIFT")
	fmt.Fprintln(tw, "───────\t────\t────\t─────")
	for _, b := range mine {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\n", b.ID, b.Date, b.Shift.StartTime, b.Shift.EndTime, b.Shift.Name)
	}
	return tw.Flush()
}

func printTimetable(w io.Writer, shifts []client.Shift) error {
	if len(shifts) == 0 {
		line(w, "No weekly shifts yet.")
		return nil
	}

	line(w, "Weekly shifts:\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAY\tTIME\tNAME\tNEXT\tTAKEN\tHOURS")
	fmt.Fprintln(tw, "──\t───\t────\t────\t────\t─────\t─────")
	for _, s := range shifts {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%d/%d\t%s\n",
			s.ID,
			weekdayName(s.DayOfWeek),
			s.StartTime,
			s.EndTime,
			s.Name,
			s.NextDate,
			s.Taken,
			s.Capacity,
			formatHours(s.HoursValue),
		)
	}
	return tw.Flush()
}
