package gym

import (
	"encoding/json"
	"fmt"
)

// State is the result of taking a single step in a remote environment.
// Info is the auxiliary info returned by the server, passed through
// without being interpreted.
type State struct {
	Observation []float64
	Reward      float64
	Done        bool
	Info        json.RawMessage
}

func (s State) String() string {
	return fmt.Sprintf("State | Observation: %v  |  Reward: %v  |  Done: %v",
		s.Observation, s.Reward, s.Done)
}
