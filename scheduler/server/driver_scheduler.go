package server

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	lru "github.com/hashicorp/golang-lru"
	uuid "github.com/nu7hatch/gouuid"
	log "github.com/sirupsen/logrus"

	"github.com/drydocklab/drydock/common/stats"
	"github.com/drydocklab/drydock/persist"
	"github.com/drydocklab/drydock/scheduler/domain"
)

// driverState is the registry's working record for one driver: the persisted
// DriverState plus in-memory retry bookkeeping that need not survive a
// restart.
type driverState struct {
	domain.DriverState

	// next is the earliest time a Retrying driver may be requeued.
	next time.Time

	// retryBackoff computes the growing delay between relaunch attempts.
	retryBackoff *backoff.ExponentialBackOff
}

// driverScheduler owns the lifecycle collections and drives every state
// transition. Every transition is persisted before it is visible to callers,
// so the in-memory view never gets ahead of the durable one.
//
// Concurrency: all mutating operations serialize on one mutex. Persistence
// I/O happens while the mutex is held; a slow store back-pressures new
// submissions and kills but cannot corrupt consistency. Status copies under
// the mutex and performs no I/O.
type driverScheduler struct {
	engine     persist.Engine
	terminator Terminator
	config     SchedulerConfig
	stat       stats.StatsReceiver

	mutex    sync.Mutex
	instance string
	seq      uint64
	queued   []*driverState
	launched map[string]*driverState
	retrying map[string]*driverState
	byID     map[string]*driverState
	retained *lru.Cache
}

// NewDriverScheduler builds a scheduler on the given persistence engine,
// replaying previously persisted drivers before returning: queued and
// retrying drivers are requeued in persisted submission order, launched
// drivers are requeued for re-matching, and terminated drivers repopulate
// the bounded history. Once NewDriverScheduler returns the scheduler is
// ready to serve.
func NewDriverScheduler(
	engine persist.Engine,
	terminator Terminator,
	config SchedulerConfig,
	stat stats.StatsReceiver,
) (Scheduler, error) {
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}

	s := &driverScheduler{
		engine:     engine,
		terminator: terminator,
		config:     config.withDefaults(),
		stat:       stat,
		instance:   newInstanceID(),
		launched:   make(map[string]*driverState),
		retrying:   make(map[string]*driverState),
		byID:       make(map[string]*driverState),
	}

	retained, err := lru.NewWithEvict(s.config.RetainedDrivers, s.onRetainedEvicted)
	if err != nil {
		return nil, err
	}
	s.retained = retained

	if err := s.recoverDrivers(); err != nil {
		return nil, err
	}

	if !s.config.DebugMode {
		go s.loop()
	}

	return s, nil
}

// newInstanceID generates the per-scheduler-instance discriminator embedded
// in every submission id it issues.
func newInstanceID() string {
	// uuid.NewV4 uses rand.Read, which never actually returns an error.
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()[:8]
		}
	}
}

// nextID derives a fresh submission id. The timestamp plus per-instance
// sequence keeps ids unique and sorted by issue order.
func (s *driverScheduler) nextID(submitTime time.Time) string {
	return fmt.Sprintf("driver-%s-%d-%04d", s.instance, submitTime.UnixMilli(), s.seq)
}

func (s *driverScheduler) Submit(desc domain.DriverDescription) domain.SubmissionResult {
	defer s.stat.Latency("submitLatency_ms").Time().Stop()
	s.stat.Counter("submitRequestsCounter").Inc(1)

	if err := domain.ValidateDescription(desc); err != nil {
		return domain.SubmissionResult{Success: false, Message: err.Error()}
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if desc.SubmitTime.IsZero() {
		desc.SubmitTime = time.Now()
	}

	st := &driverState{
		DriverState: domain.DriverState{
			ID:     s.nextID(desc.SubmitTime),
			Desc:   desc,
			Status: domain.Queued,
			Seq:    s.seq,
		},
	}

	// durability precedes acknowledgment: nothing is visible unless the
	// record made it to the engine
	if err := s.persistState(&st.DriverState); err != nil {
		log.WithFields(log.Fields{"submissionID": st.ID}).Errorf("Failed to persist submission: %v", err)
		return domain.SubmissionResult{Success: false, Message: err.Error()}
	}

	s.seq++
	s.queued = append(s.queued, st)
	s.byID[st.ID] = st
	s.updateGauges()

	s.stat.Counter("submitAcceptedCounter").Inc(1)
	log.WithFields(log.Fields{
		"submissionID": st.ID,
		"app":          desc.AppName,
	}).Infof("Queued new driver (%d queued)", len(s.queued))

	return domain.SubmissionResult{Success: true, SubmissionID: st.ID}
}

func (s *driverScheduler) Kill(submissionID string) domain.KillResult {
	s.stat.Counter("killRequestsCounter").Inc(1)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	st, ok := s.byID[submissionID]
	if !ok {
		return s.killTerminated(submissionID)
	}

	switch st.Status {
	case domain.Queued, domain.Retrying:
		if err := s.transition(st, func(next *domain.DriverState) {
			next.Status = domain.Killed
		}); err != nil {
			return domain.KillResult{Success: false, Message: err.Error()}
		}
		s.removeLive(st)
		s.retain(st)
		s.updateGauges()
		log.WithFields(log.Fields{"submissionID": submissionID}).Info("Killed driver before launch")
		return domain.KillResult{Success: true, Message: "driver removed from queue"}

	case domain.Launched:
		if st.KillRequested {
			// termination already in flight
			return domain.KillResult{Success: true, Message: "kill already requested"}
		}
		if err := s.transition(st, func(next *domain.DriverState) {
			next.KillRequested = true
		}); err != nil {
			return domain.KillResult{Success: false, Message: err.Error()}
		}
		log.WithFields(log.Fields{"submissionID": submissionID}).Info("Requesting termination of launched driver")
		if s.terminator != nil {
			// signal outside the registry's critical path
			go s.terminator.Terminate(st.ID, st.Handles)
		}
		return domain.KillResult{Success: true, Message: "termination requested"}

	default:
		return domain.KillResult{Success: false,
			Message: fmt.Sprintf("driver %s is %s and cannot be killed", submissionID, st.Status)}
	}
}

// killTerminated resolves kill requests for ids that are not live: killing an
// already-killed driver is a no-op success, anything else is reported back
// to the caller with no mutation.
func (s *driverScheduler) killTerminated(submissionID string) domain.KillResult {
	if entry, ok := s.retained.Peek(submissionID); ok {
		st := entry.(*driverState)
		if st.Status == domain.Killed {
			return domain.KillResult{Success: true,
				Message: fmt.Sprintf("driver %s was already killed", submissionID)}
		}
		return domain.KillResult{Success: false,
			Message: fmt.Sprintf("driver %s has already terminated (%s)", submissionID, st.Status)}
	}
	return domain.KillResult{Success: false,
		Message: fmt.Sprintf("driver %s not found. Check the submission id and resubmit the kill request", submissionID)}
}

func (s *driverScheduler) Status() SchedulerState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	state := SchedulerState{
		Queued:   make([]domain.DriverState, 0, len(s.queued)),
		Launched: sortedStates(s.launched),
		Retrying: sortedStates(s.retrying),
		Retained: make([]domain.DriverState, 0, s.retained.Len()),
	}
	for _, st := range s.queued {
		state.Queued = append(state.Queued, st.DriverState)
	}
	// oldest first, matching eviction order
	for _, key := range s.retained.Keys() {
		if entry, ok := s.retained.Peek(key); ok {
			state.Retained = append(state.Retained, entry.(*driverState).DriverState)
		}
	}
	return state
}

func (s *driverScheduler) QueuedDrivers() []domain.DriverState {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	queued := make([]domain.DriverState, 0, len(s.queued))
	for _, st := range s.queued {
		queued = append(queued, st.DriverState)
	}
	return queued
}

func (s *driverScheduler) OnOfferAccepted(submissionID string, handles map[string]string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st, ok := s.byID[submissionID]
	if !ok {
		return fmt.Errorf("driver %s not found", submissionID)
	}
	if st.Status != domain.Queued {
		return fmt.Errorf("driver %s is %s, only queued drivers can be launched", submissionID, st.Status)
	}

	if err := s.transition(st, func(next *domain.DriverState) {
		next.Status = domain.Launched
		next.Handles = handles
	}); err != nil {
		return err
	}

	s.removeQueued(st.ID)
	s.launched[st.ID] = st
	s.updateGauges()
	s.stat.Counter("launchedCounter").Inc(1)
	log.WithFields(log.Fields{"submissionID": st.ID, "app": st.Desc.AppName}).Info("Driver launched")
	return nil
}

func (s *driverScheduler) OnTerminated(submissionID string, outcome domain.Outcome) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	st, ok := s.launched[submissionID]
	if !ok {
		return fmt.Errorf("driver %s is not launched", submissionID)
	}
	if !outcome.Status.Terminal() {
		return fmt.Errorf("invalid termination outcome %s for driver %s", outcome.Status, submissionID)
	}

	if s.shouldRetry(st, outcome) {
		return s.scheduleRetry(st, outcome)
	}

	final := outcome.Status
	if st.KillRequested {
		// the execution layer confirmed a requested termination
		final = domain.Killed
	}

	if err := s.transition(st, func(next *domain.DriverState) {
		next.Status = final
		next.FailureReason = s.failureReason(st, outcome)
	}); err != nil {
		return err
	}

	delete(s.launched, st.ID)
	delete(s.byID, st.ID)
	s.retain(st)
	s.updateGauges()
	s.stat.Counter("terminatedCounter").Inc(1)
	log.WithFields(log.Fields{
		"submissionID": st.ID,
		"status":       final.String(),
		"retries":      st.RetryCount,
	}).Info("Driver terminated")
	return nil
}

// shouldRetry applies the supervision policy: only genuine failures of
// supervised drivers with budget left and no pending kill are relaunched.
func (s *driverScheduler) shouldRetry(st *driverState, outcome domain.Outcome) bool {
	return outcome.Status == domain.Failed &&
		st.Desc.Supervise &&
		!st.KillRequested &&
		st.RetryCount < s.config.MaxRetries
}

func (s *driverScheduler) scheduleRetry(st *driverState, outcome domain.Outcome) error {
	if err := s.transition(st, func(next *domain.DriverState) {
		next.Status = domain.Retrying
		next.RetryCount = st.RetryCount + 1
		next.FailureReason = outcome.Message
		next.Handles = nil
	}); err != nil {
		return err
	}

	if st.retryBackoff == nil {
		st.retryBackoff = s.newBackoff()
	}
	delay := st.retryBackoff.NextBackOff()
	st.next = time.Now().Add(delay)

	delete(s.launched, st.ID)
	s.retrying[st.ID] = st
	s.updateGauges()
	s.stat.Counter("retriesCounter").Inc(1)
	log.WithFields(log.Fields{
		"submissionID": st.ID,
		"retry":        st.RetryCount,
		"maxRetries":   s.config.MaxRetries,
		"delay":        delay.String(),
	}).Infof("Supervised driver failed, will requeue: %s", outcome.Message)
	return nil
}

func (s *driverScheduler) newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.InitialInterval
	b.MaxInterval = s.config.MaxInterval
	b.Multiplier = s.config.Multiplier
	b.MaxElapsedTime = 0 // the retry budget, not elapsed time, bounds retries
	b.Reset()
	return b
}

// loop periodically requeues retrying drivers whose backoff has elapsed.
func (s *driverScheduler) loop() {
	ticker := time.NewTicker(s.config.TickRate)
	defer ticker.Stop()
	for range ticker.C {
		s.step()
	}
}

// step runs one requeue pass. Exposed on the struct so DebugMode tests can
// advance the scheduler manually.
func (s *driverScheduler) step() {
	s.requeueDue(time.Now())
}

func (s *driverScheduler) requeueDue(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var due []*driverState
	for _, st := range s.retrying {
		if !st.next.After(now) {
			due = append(due, st)
		}
	}
	// requeue in original submission order
	sort.Slice(due, func(i, j int) bool { return due[i].Seq < due[j].Seq })

	for _, st := range due {
		if err := s.transition(st, func(next *domain.DriverState) {
			next.Status = domain.Queued
			next.Seq = s.seq
		}); err != nil {
			// leave it in retrying, the next tick tries again
			log.WithFields(log.Fields{"submissionID": st.ID}).Errorf("Failed to requeue driver: %v", err)
			continue
		}
		s.seq++
		delete(s.retrying, st.ID)
		s.queued = append(s.queued, st)
		log.WithFields(log.Fields{"submissionID": st.ID, "retry": st.RetryCount}).Info("Requeued supervised driver")
	}
	if len(due) > 0 {
		s.updateGauges()
	}
}

// transition persists a mutated copy of the driver's state and commits it in
// memory only if the write succeeded, rolling back to the pre-transition
// value otherwise.
func (s *driverScheduler) transition(st *driverState, mutate func(*domain.DriverState)) error {
	next := st.DriverState
	mutate(&next)
	if err := s.persistState(&next); err != nil {
		return err
	}
	st.DriverState = next
	return nil
}

func (s *driverScheduler) persistState(state *domain.DriverState) error {
	asBytes, err := state.Serialize()
	if err != nil {
		return err
	}
	return s.engine.Persist(state.ID, asBytes)
}

// retain moves a terminal driver into the bounded history. The LRU's
// eviction callback expunges whatever falls off the end, so durable state
// never outgrows the retention policy.
func (s *driverScheduler) retain(st *driverState) {
	s.retained.Add(st.ID, st)
}

func (s *driverScheduler) onRetainedEvicted(key interface{}, value interface{}) {
	id := key.(string)
	if err := s.engine.Expunge(id); err != nil {
		// best effort, the record is already out of the history
		log.WithFields(log.Fields{"submissionID": id}).Errorf("Failed to expunge evicted driver: %v", err)
	}
}

// removeLive takes a driver out of whichever live collection holds it.
func (s *driverScheduler) removeLive(st *driverState) {
	if _, ok := s.retrying[st.ID]; ok {
		delete(s.retrying, st.ID)
	} else {
		s.removeQueued(st.ID)
	}
	delete(s.byID, st.ID)
}

// removeQueued removes one id from the queued slice, preserving the order of
// the remaining entries.
func (s *driverScheduler) removeQueued(id string) {
	for i, st := range s.queued {
		if st.ID == id {
			s.queued = append(s.queued[:i], s.queued[i+1:]...)
			return
		}
	}
}

func (s *driverScheduler) updateGauges() {
	s.stat.Gauge("queuedGauge").Update(int64(len(s.queued)))
	s.stat.Gauge("launchedGauge").Update(int64(len(s.launched)))
	s.stat.Gauge("retryingGauge").Update(int64(len(s.retrying)))
	s.stat.Gauge("retainedGauge").Update(int64(s.retained.Len()))
}

func sortedStates(m map[string]*driverState) []domain.DriverState {
	states := make([]domain.DriverState, 0, len(m))
	for _, st := range m {
		states = append(states, st.DriverState)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Seq < states[j].Seq })
	return states
}

// failureReason surfaces retry budget exhaustion in the retained record so
// status queries can tell it apart from a plain failure.
func (s *driverScheduler) failureReason(st *driverState, outcome domain.Outcome) string {
	if outcome.Status == domain.Failed && st.Desc.Supervise && !st.KillRequested &&
		st.RetryCount >= s.config.MaxRetries {
		return fmt.Sprintf("retry budget exhausted after %d attempts: %s", st.RetryCount, outcome.Message)
	}
	return outcome.Message
}
