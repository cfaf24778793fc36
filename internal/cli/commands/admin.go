package commands

import (
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// NewAdminCmd creates the admin command and its subcommands
func NewAdminCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Students and event overview (admins only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Navigate(cmd.Context(), "/admin")
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <event-id> <status>",
		Short: "Set an event's status (recruiting, full, closed, finished)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"action": {"status"}, "event": {args[0]}, "status": {args[1]}}
			return env.Navigate(cmd.Context(), withQuery("/admin", query))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event and its signups",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"action": {"delete"}, "event": {args[0]}}
			return env.Navigate(cmd.Context(), withQuery("/admin", query))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "system",
		Short: "Show API host metrics and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Navigate(cmd.Context(), withQuery("/admin", url.Values{"action": {"system"}}))
		},
	})

	cmd.AddCommand(newAddShiftCmd(env))
	return cmd
}

func newAddShiftCmd(env *Env) *cobra.Command {
	var (
		name, start, end, description string
		day, capacity                 int
		hours                         float64
	)

	cmd := &cobra.Command{
		Use:   "add-shift",
		Short: "Add a weekly shift to the timetable",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{
				"action":      {"add-shift"},
				"name":        {name},
				"day":         {strconv.Itoa(day)},
				"start":       {start},
				"end":         {end},
				"capacity":    {strconv.Itoa(capacity)},
				"hours":       {strconv.FormatFloat(hours, 'f', -1, 64)},
				"description": {description},
			}
			return env.Navigate(cmd.Context(), withQuery("/admin", query))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Shift name")
	cmd.Flags().IntVar(&day, "day", 0, "Day of week, 1 (Monday) to 7 (Sunday)")
	cmd.Flags().StringVar(&start, "start", "", "Start time HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "End time HH:MM")
	cmd.Flags().IntVar(&capacity, "capacity", 1, "Volunteers per occurrence")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Hours credited per occurrence")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// NewPublishCmd creates the publish command
func NewPublishCmd(env *Env) *cobra.Command {
	var (
		title, description, location string
		start, end, deadline         string
		leader, contact              string
		volunteers                   int
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a new event (admins only)",
		Long: `Publish a new event. Missing values are prompted for.
Times use the form "YYYY-MM-DD HH:MM" in local time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{
				"title":       {title},
				"description": {description},
				"location":    {location},
				"start":       {start},
				"end":         {end},
				"deadline":    {deadline},
				"leader":      {leader},
				"contact":     {contact},
			}
			if volunteers != 0 {
				query.Set("volunteers", strconv.Itoa(volunteers))
			}
			return env.Navigate(cmd.Context(), withQuery("/publish", query))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&start, "start", "", "Start time")
	cmd.Flags().StringVar(&end, "end", "", "End time (defaults to two hours after start)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Registration deadline (defaults to one day before start)")
	cmd.Flags().IntVar(&volunteers, "volunteers", 0, "Volunteers needed")
	cmd.Flags().StringVar(&leader, "leader", "", "Leader name")
	cmd.Flags().StringVar(&contact, "contact", "", "Leader contact")

	return cmd
}
