package commands

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// NewEventsCmd creates the events command
func NewEventsCmd(env *Env) *cobra.Command {
	var (
		join, leave, upcoming bool
		status                string
	)

	cmd := &cobra.Command{
		Use:   "events [id]",
		Short: "List events, or show one and join or leave it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if join || leave {
					return errors.New("--join and --leave need an event id")
				}
				query := url.Values{"status": {status}}
				if upcoming {
					query.Set("upcoming", strconv.FormatBool(true))
				}
				return env.Navigate(cmd.Context(), withQuery("/events", query))
			}

			if join && leave {
				return errors.New("use either --join or --leave")
			}
			query := url.Values{}
			if join {
				query.Set("action", "join")
			}
			if leave {
				query.Set("action", "leave")
			}
			return env.Navigate(cmd.Context(), withQuery("/events/"+url.PathEscape(args[0]), query))
		},
	}

	cmd.Flags().BoolVar(&join, "join", false, "Sign up for the event")
	cmd.Flags().BoolVar(&leave, "leave", false, "Withdraw from the event")
	cmd.Flags().StringVar(&status, "status", "", "Only events with this status (recruiting, full, closed, finished)")
	cmd.Flags().BoolVar(&upcoming, "upcoming", false, "Only events that have not ended")

	return cmd
}

// NewShiftsCmd creates the shifts command
func NewShiftsCmd(env *Env) *cobra.Command {
	var (
		signup                bool
		shiftID, date, cancel string
	)

	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "Show the weekly timetable and your bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			switch {
			case signup && cancel != "":
				return errors.New("use either --signup or --cancel")
			case signup:
				query.Set("action", "signup")
				query.Set("shift", shiftID)
				query.Set("date", date)
			case cancel != "":
				query.Set("action", "cancel")
				query.Set("signup", cancel)
			case shiftID != "" || date != "":
				return errors.New("--shift and --date need --signup")
			}
			return env.Navigate(cmd.Context(), withQuery("/shifts", query))
		},
	}

	cmd.Flags().BoolVar(&signup, "signup", false, "Book a shift (shows a picker unless --shift is set)")
	cmd.Flags().StringVar(&shiftID, "shift", "", "Shift ID to book")
	cmd.Flags().StringVar(&date, "date", "", "Date to book (YYYY-MM-DD), defaults to the next occurrence")
	cmd.Flags().StringVar(&cancel, "cancel", "", "Cancel the booking with this ID")

	return cmd
}

// NewProfileCmd creates the profile command and its set subcommand
func NewProfileCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Navigate(cmd.Context(), "/profile")
		},
	}

	var name, phone string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change your name or phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && phone == "" {
				return errors.New("nothing to change: use --name or --phone")
			}
			return env.Navigate(cmd.Context(), withQuery("/profile", url.Values{"name": {name}, "phone": {phone}}))
		},
	}
	setCmd.Flags().StringVar(&name, "name", "", "New name")
	setCmd.Flags().StringVar(&phone, "phone", "", "New phone number")

	cmd.AddCommand(setCmd)
	return cmd
}
