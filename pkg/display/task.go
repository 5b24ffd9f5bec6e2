package display

import (
	"context"
	"sync"

	"github.com/looplab/fsm"

	"github.com/menta2k/creature-card/pkg/types"
)

// Task lifecycle states
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

const (
	eventStart    = "start"
	eventComplete = "complete"
	eventFail     = "fail"
	eventCancel   = "cancel"
)

// Task is one fetch-then-trim pipeline run
type Task struct {
	ID         string
	Generation uint64
	RecordID   int

	fsm    *fsm.FSM
	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	card types.Card
	err  error
}

func newTask(id string, generation uint64, recordID int, cancel context.CancelFunc, onChange func(t *Task, src, dst string)) *Task {
	t := &Task{
		ID:         id,
		Generation: generation,
		RecordID:   recordID,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	t.fsm = fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: eventStart, Src: []string{StatePending}, Dst: StateRunning},
			{Name: eventComplete, Src: []string{StateRunning}, Dst: StateCompleted},
			{Name: eventFail, Src: []string{StateRunning}, Dst: StateFailed},
			{Name: eventCancel, Src: []string{StatePending, StateRunning}, Dst: StateCancelled},
		},
		fsm.Callbacks{
			"after_event": func(e *fsm.Event) {
				if onChange != nil && e.Src != e.Dst {
					onChange(t, e.Src, e.Dst)
				}
			},
		},
	)
	return t
}

// State reports the current lifecycle state
func (t *Task) State() string {
	return t.fsm.Current()
}

// Done is closed once the task reaches a terminal state
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its outcome
func (t *Task) Wait() (types.Card, error) {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.card, t.err
}

// Cancel aborts a pending or running task. It is a no-op once finished.
func (t *Task) Cancel() {
	if t.fsm.Can(eventCancel) {
		t.fsm.Event(eventCancel)
	}
	t.cancel()
}

func (t *Task) event(name string) error {
	err := t.fsm.Event(name)
	if _, ok := err.(fsm.NoTransitionError); ok {
		return nil
	}
	return err
}

func (t *Task) finish(card types.Card, err error) {
	t.mu.Lock()
	t.card, t.err = card, err
	t.mu.Unlock()
	t.cancel()
	close(t.done)
}
