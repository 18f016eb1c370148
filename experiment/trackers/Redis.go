package trackers

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	ts "github.com/samuelfneumann/gymclient/timestep"
)

// Redis tracks episodic returns like Return, but instead of saving them
// to a file it appends the return of each finished episode to a Redis
// list as soon as the episode ends, so that running experiments can be
// watched from elsewhere.
type Redis struct {
	ctx     context.Context
	client  redis.Cmdable
	key     string
	episode episodeReturn
	pushed  int
}

// NewRedis returns a new Redis Tracker which pushes returns onto the
// list at key using client
func NewRedis(ctx context.Context, client redis.Cmdable, key string) *Redis {
	return &Redis{
		ctx:     ctx,
		client:  client,
		key:     key,
		episode: newEpisodeReturn(),
	}
}

// Track accumulates the reward of step, pushing the episodic return
// when step is the last of its episode
func (r *Redis) Track(step ts.TimeStep) error {
	ret, done := r.episode.add(step)
	if !done {
		return nil
	}

	if err := r.client.RPush(r.ctx, r.key, ret).Err(); err != nil {
		return fmt.Errorf("track: could not push return to %v: %w", r.key,
			err)
	}
	r.pushed++
	return nil
}

// Pushed returns the number of returns pushed so far
func (r *Redis) Pushed() int {
	return r.pushed
}

// Save checks that the list holds at least every return pushed by the
// Tracker
func (r *Redis) Save() error {
	n, err := r.client.LLen(r.ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("save: could not read %v: %w", r.key, err)
	}
	if n < int64(r.pushed) {
		return fmt.Errorf("save: list %v holds %d returns, expected at "+
			"least %d", r.key, n, r.pushed)
	}
	return nil
}

// LoadRedis reads back the returns stored at key
func LoadRedis(ctx context.Context, client redis.Cmdable,
	key string) ([]float64, error) {
	values, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("loadRedis: could not read %v: %w", key, err)
	}

	returns := make([]float64, len(values))
	for i, v := range values {
		if _, err := fmt.Sscan(v, &returns[i]); err != nil {
			return nil, fmt.Errorf("loadRedis: element %d of %v: %w", i, key,
				err)
		}
	}
	return returns, nil
}
