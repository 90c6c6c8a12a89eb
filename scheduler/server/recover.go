package server

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/drydocklab/drydock/scheduler/domain"
)

// recoverDrivers replays every persisted driver into the in-memory
// collections. Queued and retrying drivers are enqueued in persisted
// submission order. Launched drivers are requeued for re-matching, since
// execution handles are not assumed to survive a restart. Terminal drivers
// repopulate the bounded history. Called once, before the scheduler serves
// any request.
func (s *driverScheduler) recoverDrivers() error {
	all, err := s.engine.ReadAll()
	if err != nil {
		return errors.Wrap(err, "reading persisted drivers")
	}
	if len(all) == 0 {
		return nil
	}
	log.Infof("Recovering %d persisted drivers", len(all))

	states := make([]*driverState, 0, len(all))
	for _, asBytes := range all {
		decoded, err := domain.DeserializeDriverState(asBytes)
		if err != nil {
			// a corrupt record should not keep the scheduler down
			log.Errorf("Skipping undecodable driver record: %v", err)
			s.stat.Counter("recoverySkippedCounter").Inc(1)
			continue
		}
		states = append(states, &driverState{DriverState: *decoded})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Seq < states[j].Seq })

	for _, st := range states {
		if st.Seq >= s.seq {
			s.seq = st.Seq + 1
		}

		switch {
		case st.Status.Terminal():
			s.retained.Add(st.ID, st)

		case st.Status == domain.Retrying:
			// resume the backoff wait from scratch
			st.retryBackoff = s.newBackoff()
			st.next = time.Now().Add(st.retryBackoff.NextBackOff())
			s.retrying[st.ID] = st
			s.byID[st.ID] = st

		case st.Status == domain.Launched:
			if err := s.transition(st, func(next *domain.DriverState) {
				next.Status = domain.Queued
				next.Handles = nil
			}); err != nil {
				return errors.Wrapf(err, "requeueing launched driver %s", st.ID)
			}
			s.queued = append(s.queued, st)
			s.byID[st.ID] = st
			log.WithFields(log.Fields{"submissionID": st.ID}).Info("Requeued previously launched driver for re-matching")

		default:
			s.queued = append(s.queued, st)
			s.byID[st.ID] = st
		}
	}

	s.updateGauges()
	log.Infof("Recovery complete: %d queued, %d retrying, %d retained",
		len(s.queued), len(s.retrying), s.retained.Len())
	return nil
}
