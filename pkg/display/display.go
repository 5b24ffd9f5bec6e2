// Package display holds the single displayed card and the refresh pipeline
// that replaces it. Only the most recently started refresh may publish its
// result; older in-flight refreshes are cancelled and discarded.
package display

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/menta2k/creature-card/internal/logger"
	"github.com/menta2k/creature-card/pkg/client"
	"github.com/menta2k/creature-card/pkg/trimmer"
	"github.com/menta2k/creature-card/pkg/types"
)

// ErrSuperseded is returned by a refresh that lost to a newer one
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// Store holds the currently displayed card
type Store struct {
	mu      sync.RWMutex
	card    types.Card
	present bool
}

// Current returns the displayed card; ok is false until the first refresh
// completes
func (s *Store) Current() (card types.Card, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.card, s.present
}

func (s *Store) set(card types.Card) {
	s.mu.Lock()
	s.card, s.present = card, true
	s.mu.Unlock()
}

// Status summarises the latest refresh task
type Status struct {
	TaskID     string `json:"task_id,omitempty"`
	Generation uint64 `json:"generation"`
	RecordID   int    `json:"record_id,omitempty"`
	State      string `json:"state"`
	Error      string `json:"error,omitempty"`
}

// Refresher runs fetch-then-trim pipelines and publishes their results to a
// Store
type Refresher struct {
	source  client.RecordSource
	trimmer client.SpriteTrimmer
	store   *Store

	mu         sync.Mutex
	generation uint64
	current    *Task
}

// NewRefresher creates a refresher writing into store
func NewRefresher(source client.RecordSource, trimmer client.SpriteTrimmer, store *Store) *Refresher {
	return &Refresher{
		source:  source,
		trimmer: trimmer,
		store:   store,
	}
}

// Store returns the store this refresher publishes to
func (r *Refresher) Store() *Store {
	return r.store
}

// Refresh displays a randomly chosen record
func (r *Refresher) Refresh(ctx context.Context) (types.Card, error) {
	return r.RefreshID(ctx, r.source.RandomID())
}

// RefreshID displays the record with the given identifier
func (r *Refresher) RefreshID(ctx context.Context, id int) (types.Card, error) {
	return r.Start(ctx, id).Wait()
}

// StartRandom launches a background refresh of a randomly chosen record
func (r *Refresher) StartRandom(ctx context.Context) *Task {
	return r.Start(ctx, r.source.RandomID())
}

// Start launches a refresh in the background and cancels any refresh still
// in flight
func (r *Refresher) Start(ctx context.Context, id int) *Task {
	r.mu.Lock()
	r.generation++
	previous := r.current

	taskID := uuid.NewString()
	taskCtx, cancel := context.WithCancel(ctx)
	log := logger.Entry(ctx).WithFields(logrus.Fields{
		"task":       taskID,
		"generation": r.generation,
		"id":         id,
	})
	task := newTask(taskID, r.generation, id, cancel, func(t *Task, src, dst string) {
		log.Debugf("task [%s -> %s]", src, dst)
	})
	r.current = task
	r.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}

	go r.run(logger.WithLogEntry(taskCtx, log), task)
	return task
}

// Status reports on the most recently started task
func (r *Refresher) Status() Status {
	r.mu.Lock()
	task := r.current
	r.mu.Unlock()

	if task == nil {
		return Status{State: StatePending}
	}

	st := Status{
		TaskID:     task.ID,
		Generation: task.Generation,
		RecordID:   task.RecordID,
		State:      task.State(),
	}
	select {
	case <-task.Done():
		if _, err := task.Wait(); err != nil {
			st.Error = err.Error()
		}
	default:
	}
	return st
}

func (r *Refresher) run(ctx context.Context, task *Task) {
	log := logger.Entry(ctx)

	if err := task.event(eventStart); err != nil {
		// Cancelled before it got going.
		task.finish(types.Card{}, r.staleOr(task, errors.Wrap(context.Canceled, "refresh cancelled")))
		return
	}

	card, err := r.pipeline(ctx, task)
	if err == nil {
		err = r.commit(task, card)
	}

	switch {
	case err == nil:
		log.WithField("name", card.Record.Name).Info("card refreshed")
	case errors.Is(err, ErrSuperseded):
		task.event(eventCancel)
		log.Debug("discarding superseded refresh")
	case ctx.Err() != nil:
		task.event(eventCancel)
		err = errors.Wrap(ctx.Err(), "refresh cancelled")
		log.WithError(err).Info("refresh cancelled")
	default:
		task.event(eventFail)
		log.WithError(err).Warn("refresh failed")
	}

	task.finish(card, err)
}

func (r *Refresher) pipeline(ctx context.Context, task *Task) (types.Card, error) {
	rec, err := r.source.FetchRecord(ctx, task.RecordID)
	if err != nil {
		return types.Card{}, r.staleOr(task, errors.Wrap(err, "fetch record"))
	}

	trimmed := true
	sprite, err := r.trimmer.TrimTransparentBorder(ctx, rec.Sprite)
	switch {
	case errors.Is(err, trimmer.ErrEmptyImage):
		logger.Entry(ctx).Warn("sprite fully transparent, showing it untrimmed")
		sprite, trimmed = rec.Sprite, false
	case err != nil:
		return types.Card{}, r.staleOr(task, errors.Wrap(err, "trim sprite"))
	}

	return types.Card{
		Record:  rec.WithSprite(sprite),
		Trimmed: trimmed,
		TaskID:  task.ID,
	}, nil
}

// commit publishes card unless a newer task has started
func (r *Refresher) commit(task *Task, card types.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.Generation != r.generation {
		return ErrSuperseded
	}
	if err := task.event(eventComplete); err != nil {
		return ErrSuperseded
	}
	r.store.set(card)
	return nil
}

// staleOr maps errors from superseded tasks to ErrSuperseded
func (r *Refresher) staleOr(task *Task, err error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.Generation != r.generation {
		return ErrSuperseded
	}
	return err
}
