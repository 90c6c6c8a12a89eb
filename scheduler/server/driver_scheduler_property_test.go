package server

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"github.com/drydocklab/drydock/persist"
	"github.com/drydocklab/drydock/scheduler/domain"
)

func Test_QueueOrderMatchesSubmissionOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("after N submits the queue equals the call order and all ids are fresh", prop.ForAll(
		func(numDrivers int) bool {
			s, err := NewDriverScheduler(persist.MakeInMemory(), nil, SchedulerConfig{DebugMode: true}, nil)
			require.NoError(t, err)

			seen := map[string]bool{}
			var order []string
			for i := 0; i < numDrivers; i++ {
				result := s.Submit(domain.GenDescription("prop"))
				if !result.Success || seen[result.SubmissionID] {
					return false
				}
				seen[result.SubmissionID] = true
				order = append(order, result.SubmissionID)
			}

			queued := s.QueuedDrivers()
			if len(queued) != numDrivers {
				return false
			}
			for i, st := range queued {
				if st.ID != order[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 25),
	))

	properties.Property("queue order survives a restart", prop.ForAll(
		func(numDrivers int) bool {
			engine := persist.MakeInMemory()
			s, err := NewDriverScheduler(engine, nil, SchedulerConfig{DebugMode: true}, nil)
			require.NoError(t, err)

			var order []string
			for i := 0; i < numDrivers; i++ {
				result := s.Submit(domain.GenDescription("prop"))
				if !result.Success {
					return false
				}
				order = append(order, result.SubmissionID)
			}

			restarted, err := NewDriverScheduler(engine, nil, SchedulerConfig{DebugMode: true}, nil)
			require.NoError(t, err)

			queued := restarted.QueuedDrivers()
			if len(queued) != numDrivers {
				return false
			}
			for i, st := range queued {
				if st.ID != order[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 15),
	))

	properties.TestingRun(t)
}
