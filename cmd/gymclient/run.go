package main

import (
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	"github.com/samuelfneumann/gymclient/agent/random"
	"github.com/samuelfneumann/gymclient/environment/envconfig"
	"github.com/samuelfneumann/gymclient/environment/gym"
	"github.com/samuelfneumann/gymclient/experiment"
	"github.com/samuelfneumann/gymclient/experiment/trackers"
	"github.com/samuelfneumann/gymclient/utils/progressbar"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type runOptions struct {
	configFile string

	envID    string
	steps    uint
	cutoff   uint
	discount float64
	seed     uint64
	render   bool

	monitor string
	force   bool
	resume  bool

	returnsFile string
	lengthsFile string
	plotFile    string
	redisAddr   string
	redisKey    string
}

// RunCommand runs a random agent on an environment for a number of
// steps, tracking the return and length of each episode
func RunCommand(opts *rootOptions) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a random agent on an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := o.envConfig(cmd, opts)
			if err != nil {
				return err
			}
			return o.run(cmd, opts, c)
		},
	}

	cmd.Flags().StringVar(&o.configFile, "config", "",
		"JSON environment configuration, overridden by any flags given")
	cmd.Flags().StringVar(&o.envID, "env", string(gym.CartPoleV1),
		"Id of the environment to run")
	cmd.Flags().UintVar(&o.steps, "steps", 1000, "Number of steps to run")
	cmd.Flags().UintVar(&o.cutoff, "cutoff", 0,
		"Maximum steps per episode, 0 for no limit")
	cmd.Flags().Float64Var(&o.discount, "discount", 1.0, "Discount factor")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "Seed of the agent")
	cmd.Flags().BoolVar(&o.render, "render", false,
		"Render every step on the server")

	cmd.Flags().StringVar(&o.monitor, "monitor", "",
		"Record episodes to this directory on the server")
	cmd.Flags().BoolVar(&o.force, "force", false,
		"Clear existing monitor files")
	cmd.Flags().BoolVar(&o.resume, "resume", false,
		"Keep existing monitor files")

	cmd.Flags().StringVar(&o.returnsFile, "returns", "",
		"Save episodic returns to this file")
	cmd.Flags().StringVar(&o.lengthsFile, "lengths", "",
		"Save episode lengths to this file")
	cmd.Flags().StringVar(&o.plotFile, "plot", "",
		"Plot episodic returns to this PNG file")
	cmd.Flags().StringVar(&o.redisAddr, "redis", "",
		"Push episodic returns to the Redis server at this address")
	cmd.Flags().StringVar(&o.redisKey, "redis-key", "",
		"Redis list to push returns onto (default gymclient:returns:ENV_ID)")
	return cmd
}

// envConfig builds the environment configuration from --config and
// every flag explicitly set
func (o *runOptions) envConfig(cmd *cobra.Command,
	opts *rootOptions) (envconfig.Config, error) {
	c := envconfig.NewConfig(gym.EnvironmentID(o.envID), o.cutoff,
		o.discount)
	c.ServerURL = opts.server
	c.Timeout = envconfig.Duration(opts.timeout)
	c.Render = o.render
	c.Seed = o.seed
	c.Monitor = envconfig.Monitor{
		Directory: o.monitor,
		Force:     o.force,
		Resume:    o.resume,
	}
	if o.configFile == "" {
		return c, c.Validate()
	}

	loaded, err := envconfig.Load(o.configFile)
	if err != nil {
		return envconfig.Config{}, err
	}

	changed := func(name string) bool {
		return cmd.Flags().Changed(name)
	}
	if changed("server") {
		loaded.ServerURL = c.ServerURL
	}
	if changed("timeout") {
		loaded.Timeout = c.Timeout
	}
	if changed("env") {
		loaded.EnvID = c.EnvID
	}
	if changed("cutoff") {
		loaded.EpisodeCutoff = c.EpisodeCutoff
	}
	if changed("discount") {
		loaded.Discount = c.Discount
	}
	if changed("seed") {
		loaded.Seed = c.Seed
	}
	if changed("render") {
		loaded.Render = c.Render
	}
	if changed("monitor") {
		loaded.Monitor.Directory = c.Monitor.Directory
	}
	if changed("force") {
		loaded.Monitor.Force = c.Monitor.Force
	}
	if changed("resume") {
		loaded.Monitor.Resume = c.Monitor.Resume
	}
	return loaded, loaded.Validate()
}

func (o *runOptions) run(cmd *cobra.Command, opts *rootOptions,
	c envconfig.Config) error {
	if o.steps == 0 {
		return fmt.Errorf("run: --steps must be positive")
	}
	ctx := cmd.Context()

	env, _, err := c.Create(ctx, opts.clientOptions(cmd)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.Close(); err != nil {
			log.Printf("run: %v", err)
		}
	}()

	agent, err := random.New(env.Session().ActionSpace(), c.Seed)
	if err != nil {
		return err
	}

	returns := trackers.NewReturn(o.returnsFile)
	t := []trackers.Tracker{returns}
	if o.lengthsFile != "" {
		t = append(t, trackers.NewEpisodeLength(o.lengthsFile))
	}
	if o.plotFile != "" {
		t = append(t, trackers.NewPlot(o.plotFile, string(c.EnvID)))
	}
	if o.redisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: o.redisAddr})
		defer client.Close()

		key := o.redisKey
		if key == "" {
			key = "gymclient:returns:" + string(c.EnvID)
		}
		t = append(t, trackers.NewRedis(ctx, client, key))
	}

	exp := experiment.NewOnline(env, agent, o.steps, t...)
	bar := progressbar.New(cmd.ErrOrStderr(), 40, int(o.steps))
	exp.SetProgress(bar)

	log.Printf("running %v on %v (instance %v) for %d steps", c.EnvID,
		c.ServerURL, env.Session().InstanceID(), o.steps)
	for ended := false; !ended; {
		ended, err = exp.RunEpisode()
		bar.Display()
		if err != nil {
			bar.Close()
			return err
		}
	}
	bar.Close()

	if err := exp.Save(); err != nil {
		return err
	}

	r := returns.Returns()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "steps:    %d\n", exp.Steps())
	fmt.Fprintf(out, "episodes: %d\n", agent.Episodes())
	if len(r) > 0 {
		fmt.Fprintf(out, "return:   mean %.2f  min %.2f  max %.2f\n",
			stat.Mean(r, nil), floats.Min(r), floats.Max(r))
	}
	return nil
}
