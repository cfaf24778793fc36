package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the shiftdesk command tree rendering to out
func NewRootCmd(version string, out io.Writer) *cobra.Command {
	return newRootCmd(version, NewEnv(out))
}

func newRootCmd(version string, env *Env) *cobra.Command {
	var opts Options

	rootCmd := &cobra.Command{
		Use:   "shiftdesk",
		Short: "shiftdesk - volunteer events and weekly shifts",
		Long: `shiftdesk CLI - Browse volunteer events, book weekly shifts and manage
your profile. Admins can publish events and review students.

Every screen is a route: 'shiftdesk open /events' is the same as 'shiftdesk events'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return env.Setup(opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.APIURL, "api-url", "", "API root (or set "+APIURLEnv+")")
	flags.StringVar(&opts.Storage, "storage", "", "Session storage: file, keyring or memory")
	flags.BoolVar(&opts.Cache, "cache", false, "Cache public API responses in memory")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shiftdesk version %s\n", version)
		},
	})

	rootCmd.AddCommand(NewOpenCmd(env))
	rootCmd.AddCommand(NewLoginCmd(env))
	rootCmd.AddCommand(NewLogoutCmd(env))
	rootCmd.AddCommand(NewRegisterCmd(env))
	rootCmd.AddCommand(NewWhoamiCmd(env))
	rootCmd.AddCommand(NewEventsCmd(env))
	rootCmd.AddCommand(NewShiftsCmd(env))
	rootCmd.AddCommand(NewProfileCmd(env))
	rootCmd.AddCommand(NewAdminCmd(env))
	rootCmd.AddCommand(NewPublishCmd(env))

	return rootCmd
}
