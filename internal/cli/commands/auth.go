package commands

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shiftdesk/shiftdesk/internal/cli/views"
)

// NewOpenCmd creates the open command
func NewOpenCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Open a screen by path, e.g. /events or /events/<id>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Navigate(cmd.Context(), args[0])
		},
	}
}

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Check for environment variables (useful for scripts)
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}
			env.Answer(views.LabelPassword, password)
			return env.Navigate(cmd.Context(), withQuery("/login", url.Values{"phone": {phone}}))
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set "+PasswordEnv+", will prompt if not provided)")

	return cmd
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.Store.Logout(); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
			return nil
		},
	}
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(env *Env) *cobra.Command {
	var (
		name, phone, password string
		year, class           int
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a student account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv(PasswordEnv)
			}
			env.Answer(views.LabelPassword, password)

			query := url.Values{"name": {name}, "phone": {phone}}
			if year != 0 {
				query.Set("year", strconv.Itoa(year))
			}
			if class != 0 {
				query.Set("class", strconv.Itoa(class))
			}
			return env.Navigate(cmd.Context(), withQuery("/register", query))
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set "+PasswordEnv+")")
	cmd.Flags().IntVar(&year, "year", 0, "Enrollment year")
	cmd.Flags().IntVar(&class, "class", 0, "Class number")

	return cmd
}

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			s, ok := env.Store.Current()
			if !ok {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}

			fmt.Fprintf(out, "%s (%s)\n", s.Name, s.Phone)
			if s.IsAdmin {
				fmt.Fprintln(out, "Role: admin")
			}
			fmt.Fprintf(out, "Hours: %s\n", strconv.FormatFloat(s.TotalHours, 'f', -1, 64))
			fmt.Fprintf(out, "API: %s\n", env.Client.BaseURL())
			return nil
		},
	}
}

// withQuery appends the non-empty values in query to path
func withQuery(path string, query url.Values) string {
	clean := url.Values{}
	for key, values := range query {
		for _, v := range values {
			if v != "" {
				clean.Add(key, v)
			}
		}
	}
	if len(clean) == 0 {
		return path
	}
	return path + "?" + clean.Encode()
}
