package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"compilestrength/internal/agent"
	"compilestrength/internal/logger"
	"compilestrength/internal/routine"
	"compilestrength/internal/tools"
)

const saveTimeout = 30 * time.Second

// Persister saves a finished routine on the server and returns the program id.
type Persister interface {
	SaveRoutine(ctx context.Context, r routine.Routine) (int, error)
}

// SaveResult reports the outcome of one background save.
type SaveResult struct {
	Key       routine.Key
	ProgramID int
	Err       error
}

// Syncer applies streamed tool results to a Store. A created routine is
// persisted in the background at most once per (routine id, name) for the
// lifetime of the Syncer.
type Syncer struct {
	store   *Store
	persist Persister
	onSave  func(SaveResult)

	mu   sync.Mutex
	seen map[routine.Key]struct{}
	wg   sync.WaitGroup
}

type SyncerOption func(*Syncer)

// OnSave registers a callback invoked from the save goroutine.
func OnSave(fn func(SaveResult)) SyncerOption {
	return func(s *Syncer) { s.onSave = fn }
}

func NewSyncer(store *Store, persist Persister, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store:   store,
		persist: persist,
		seen:    map[routine.Key]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Consume handles events until the channel closes or ctx is done.
func (s *Syncer) Consume(ctx context.Context, events <-chan agent.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.Handle(ev); err != nil {
				return err
			}
		}
	}
}

// Handle applies one stream event. Edits that no longer match the loaded
// routine are logged and skipped.
func (s *Syncer) Handle(ev agent.Event) error {
	switch ev.Type {
	case agent.EventToolCall:
		if tools.Name(ev.ToolName) == tools.CreateWorkoutRoutine {
			return s.store.SetGenerating(true)
		}
		return nil
	case agent.EventToolResult:
		return s.applyResult(ev)
	case agent.EventToolError:
		if tools.Name(ev.ToolName) == tools.CreateWorkoutRoutine {
			return s.store.SetGenerating(false)
		}
		return nil
	case agent.EventFinish, agent.EventError:
		return s.store.SetGenerating(false)
	default:
		return nil
	}
}

func (s *Syncer) applyResult(ev agent.Event) error {
	switch tools.Name(ev.ToolName) {
	case tools.UpdateUserProfile:
		var res tools.ProfileResult
		if err := decode(ev, &res); err != nil {
			return err
		}
		return s.store.SetUserProfile(res.Profile)

	case tools.CreateWorkoutRoutine:
		var res tools.RoutineResult
		if err := decode(ev, &res); err != nil {
			return err
		}
		if err := s.store.SetRoutine(res.Routine); err != nil {
			return err
		}
		if err := s.store.SetGenerating(false); err != nil {
			return err
		}
		s.persistOnce(res.Routine)
		return nil

	case tools.AddWorkoutDay:
		var res tools.DayResult
		if err := decode(ev, &res); err != nil {
			return err
		}
		return s.skipStale(s.store.AddDay(res.RoutineID, res.Day), ev)

	case tools.AddExercise:
		var res tools.ExerciseResult
		if err := decode(ev, &res); err != nil {
			return err
		}
		return s.skipStale(s.store.AddExercise(res.RoutineID, res.DayID, res.Exercise), ev)

	case tools.SetGenerationProgress:
		var res tools.Progress
		if err := decode(ev, &res); err != nil {
			return err
		}
		return s.store.SetProgress(res.Steps)

	default:
		return nil
	}
}

func (s *Syncer) skipStale(err error, ev agent.Event) error {
	switch {
	case errors.Is(err, ErrNoRoutine), errors.Is(err, ErrRoutineChanged), errors.Is(err, routine.ErrDayNotFound):
		logger.Warn("skipping routine edit", "tool", ev.ToolName, "tool_call_id", ev.ToolCallID, "reason", err)
		return nil
	default:
		return err
	}
}

func decode(ev agent.Event, v any) error {
	if err := json.Unmarshal(ev.Output, v); err != nil {
		return fmt.Errorf("decode %s result: %w", ev.ToolName, err)
	}
	return nil
}

func (s *Syncer) persistOnce(r routine.Routine) {
	if s.persist == nil {
		return
	}

	key := r.Key()
	s.mu.Lock()
	if _, done := s.seen[key]; done {
		s.mu.Unlock()
		return
	}
	s.seen[key] = struct{}{}
	s.mu.Unlock()

	r = r.Clone()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		id, err := s.persist.SaveRoutine(ctx, r)
		if err != nil {
			logger.Error("failed to save routine", "routine_id", key.ID, "name", key.Name, "error", err)
		} else {
			logger.Info("routine saved", "routine_id", key.ID, "program_id", id)
		}
		if s.onSave != nil {
			s.onSave(SaveResult{Key: key, ProgramID: id, Err: err})
		}
	}()
}

// Wait blocks until background saves have finished.
func (s *Syncer) Wait() {
	s.wg.Wait()
}
