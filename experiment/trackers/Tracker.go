// Package trackers implements Trackers, which track and save data in an
// experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	ts "github.com/samuelfneumann/gymclient/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep) error
	Save() error
}

// LoadData loads and returns the data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %w", err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %w", err)
	}
	return data, nil
}

// save gob-encodes data to filename. Data tracked with an empty
// filename stays in memory.
func save(filename string, data []float64) error {
	if filename == "" {
		return nil
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %w", err)
	}
	return file.Close()
}

// episodeReturn accumulates rewards over an episode
type episodeReturn struct {
	lastTimeStep  int
	currentReturn float64
}

func newEpisodeReturn() episodeReturn {
	return episodeReturn{lastTimeStep: -1}
}

// add adds the reward of step to the current episode and returns the
// return of the episode and whether step ends it. A First timestep
// always starts a new episode, discarding the return of an episode that
// was cut off.
//
// add panics if it is called for non-sequential timesteps
func (e *episodeReturn) add(step ts.TimeStep) (float64, bool) {
	if step.First() {
		e.lastTimeStep = -1
		e.currentReturn = 0
	}

	if e.lastTimeStep+1 != step.Number {
		panic(fmt.Sprintf("add: last two timesteps tracked are not "+
			"sequential: timestep %v --> timestep %v were tracked",
			e.lastTimeStep, step.Number))
	}

	e.currentReturn += step.Reward
	if !step.Last() {
		e.lastTimeStep = step.Number
		return e.currentReturn, false
	}

	ret := e.currentReturn
	e.currentReturn = 0.0
	e.lastTimeStep = -1
	return ret, true
}
