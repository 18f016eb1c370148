package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/samuelfneumann/gymclient/environment/gym"
	"github.com/samuelfneumann/gymclient/experiment/trackers"
	"github.com/samuelfneumann/gymclient/space"
	"github.com/spf13/cobra"
)

// APIKeyVar is read for the upload API key when --api-key is not given
const APIKeyVar = "OPENAI_GYM_API_KEY"

// SpacesCommand creates an environment and prints its spaces along with
// samples of its action space
func SpacesCommand(opts *rootOptions) *cobra.Command {
	var samples int
	var seed uint64

	cmd := &cobra.Command{
		Use:   "spaces ENV_ID",
		Short: "Print the observation and action spaces of an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			session, err := client.Make(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "instance:          %v\n", session.InstanceID())
			fmt.Fprintf(out, "observation space: %v\n",
				session.ObservationSpace())
			fmt.Fprintf(out, "action space:      %v\n", session.ActionSpace())

			sampler := space.NewSampler(seed)
			for i := 0; i < samples; i++ {
				action, err := sampler.Sample(session.ActionSpace())
				if err != nil {
					return fmt.Errorf("could not sample action: %w", err)
				}
				fmt.Fprintf(out, "sample %d: %v\n", i, action)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 0,
		"Number of action samples to print")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed of the action sampler")
	return cmd
}

// ListCommand prints every environment instance on the server
func ListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the environment instances on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			envs, err := client.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(envs))
			for id := range envs {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(cmd.OutOrStdout(), "%v\t%v\n", id, envs[id])
			}
			return nil
		},
	}
}

// PlotCommand plots a returns file saved by the run command
func PlotCommand() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "plot RETURNS_FILE OUT.png",
		Short: "Plot the episodic returns saved by run --returns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			returns, err := trackers.LoadData(args[0])
			if err != nil {
				return err
			}
			return trackers.PlotReturns(returns, args[1], title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "Episodic Return", "Plot title")
	return cmd
}

// UploadCommand uploads monitor results to the scoreboard through the
// server
func UploadCommand(opts *rootOptions) *cobra.Command {
	params := gym.UploadParams{}

	cmd := &cobra.Command{
		Use:   "upload TRAINING_DIR",
		Short: "Upload the monitor results in TRAINING_DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.TrainingDir = args[0]
			if params.APIKey == "" {
				params.APIKey = os.Getenv(APIKeyVar)
			}
			if params.APIKey == "" {
				return fmt.Errorf("an API key is required, set --api-key "+
					"or %v", APIKeyVar)
			}

			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			return client.Upload(cmd.Context(), params)
		},
	}
	cmd.Flags().StringVar(&params.APIKey, "api-key", "", "Gym API key")
	cmd.Flags().StringVar(&params.AlgorithmID, "algorithm-id", "",
		"Algorithm id to upload results under")
	cmd.Flags().StringVar(&params.Writeup, "writeup", "",
		"Link to a writeup of the algorithm")
	cmd.Flags().BoolVar(&params.IgnoreOpenMonitors, "ignore-open-monitors",
		false, "Upload even if monitors are still open")
	return cmd
}

// ShutdownCommand asks the server to stop
func ShutdownCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Shut down the gym server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			return client.Shutdown(cmd.Context())
		},
	}
}
