package main

import (
	"log"
	"os"
	"time"

	"github.com/samuelfneumann/gymclient/environment/envconfig"
	"github.com/samuelfneumann/gymclient/environment/gym"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every subcommand
type rootOptions struct {
	server  string
	timeout time.Duration
	verbose bool
}

// NewRootCommand returns the gymclient command with all subcommands
// attached. The default server is taken from GYM_SERVER_URL when set.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	server := os.Getenv(envconfig.ServerURLVar)
	if server == "" {
		server = envconfig.DefaultServerURL
	}

	rootCommand := &cobra.Command{
		Use:           "gymclient",
		Short:         "gymclient runs agents on environments served by a gym HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.PersistentFlags().StringVar(&opts.server, "server", server,
		"Address of the gym server")
	rootCommand.PersistentFlags().DurationVar(&opts.timeout, "timeout",
		30*time.Second, "Timeout of each request to the server, 0 for none")
	rootCommand.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v",
		false, "Log every request made to the server")

	rootCommand.AddCommand(RunCommand(opts))
	rootCommand.AddCommand(SpacesCommand(opts))
	rootCommand.AddCommand(ListCommand(opts))
	rootCommand.AddCommand(PlotCommand())
	rootCommand.AddCommand(UploadCommand(opts))
	rootCommand.AddCommand(ShutdownCommand(opts))
	return rootCommand
}

// clientOptions returns the gym.ClientOptions described by the root
// flags. Request logs are written to the command's error stream.
func (o *rootOptions) clientOptions(cmd *cobra.Command) []gym.ClientOption {
	var opts []gym.ClientOption
	if o.timeout > 0 {
		opts = append(opts, gym.WithTimeout(o.timeout))
	}
	if o.verbose {
		logger := log.New(cmd.ErrOrStderr(), "gymclient: ", log.LstdFlags)
		opts = append(opts, gym.WithLogger(logger))
	}
	return opts
}

func (o *rootOptions) client(cmd *cobra.Command) (*gym.Client, error) {
	return gym.NewClient(o.server, o.clientOptions(cmd)...)
}
