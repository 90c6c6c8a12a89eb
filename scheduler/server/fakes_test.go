package server

import (
	"sync"

	"github.com/drydocklab/drydock/persist"
)

// failingEngine wraps an InMemory engine and fails on demand, for exercising
// rollback on storage failure.
type failingEngine struct {
	inner       *persist.InMemory
	failPersist bool
	failExpunge bool
}

func makeFailingEngine() *failingEngine {
	return &failingEngine{inner: persist.MakeInMemory()}
}

func (e *failingEngine) Persist(id string, state []byte) error {
	if e.failPersist {
		return persist.NewStorageFailure("persist", errAlwaysFail)
	}
	return e.inner.Persist(id, state)
}

func (e *failingEngine) Read(id string) ([]byte, error) {
	return e.inner.Read(id)
}

func (e *failingEngine) ReadAll() ([][]byte, error) {
	return e.inner.ReadAll()
}

func (e *failingEngine) Expunge(id string) error {
	if e.failExpunge {
		return persist.NewStorageFailure("expunge", errAlwaysFail)
	}
	return e.inner.Expunge(id)
}

var errAlwaysFail = &alwaysFailError{}

type alwaysFailError struct{}

func (*alwaysFailError) Error() string { return "engine configured to fail" }

// fakeTerminator records termination signals from the scheduler.
type fakeTerminator struct {
	mutex sync.Mutex
	calls []string
	done  chan string
}

func makeFakeTerminator() *fakeTerminator {
	return &fakeTerminator{done: make(chan string, 16)}
}

func (t *fakeTerminator) Terminate(submissionID string, handles map[string]string) {
	t.mutex.Lock()
	t.calls = append(t.calls, submissionID)
	t.mutex.Unlock()
	t.done <- submissionID
}
