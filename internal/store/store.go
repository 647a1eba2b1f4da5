package store

import (
	"errors"
	"time"

	"compilestrength/internal/routine"
)

var (
	ErrClosed         = errors.New("store closed")
	ErrNoRoutine      = errors.New("no routine loaded")
	ErrRoutineChanged = errors.New("edit targets a different routine")
)

// State is what the UI renders. Snapshots never share memory with the store.
type State struct {
	Routine            *routine.Routine       `json:"routine"`
	UserProfile        *routine.Profile       `json:"userProfile"`
	IsGenerating       bool                   `json:"isGenerating"`
	GenerationProgress []routine.ProgressStep `json:"generationProgress"`
}

func (s State) clone() State {
	out := State{IsGenerating: s.IsGenerating}
	if s.Routine != nil {
		r := s.Routine.Clone()
		out.Routine = &r
	}
	if s.UserProfile != nil {
		p := cloneProfile(*s.UserProfile)
		out.UserProfile = &p
	}
	if s.GenerationProgress != nil {
		out.GenerationProgress = append([]routine.ProgressStep(nil), s.GenerationProgress...)
	}
	return out
}

func cloneProfile(p routine.Profile) routine.Profile {
	p.Goals = append([]string(nil), p.Goals...)
	p.AvailableEquipment = append([]string(nil), p.AvailableEquipment...)
	p.Injuries = append([]string(nil), p.Injuries...)
	p.Preferences = append([]string(nil), p.Preferences...)
	return p
}

type mutation struct {
	apply func(*State) error
	done  chan error
}

type subscriber struct {
	id int
	ch chan State
}

// Store owns the client state on a single goroutine. Every change goes
// through the mutation channel; readers get copies.
type Store struct {
	mutations   chan mutation
	snapshots   chan chan State
	subscribe   chan chan subscriber
	unsubscribe chan int
	quit        chan struct{}
	stopped     chan struct{}
	now         func() time.Time
}

func New() *Store {
	s := &Store{
		mutations:   make(chan mutation),
		snapshots:   make(chan chan State),
		subscribe:   make(chan chan subscriber),
		unsubscribe: make(chan int),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
		now:         time.Now,
	}
	go s.run()
	return s
}

func (s *Store) run() {
	defer close(s.stopped)

	var state State
	subs := map[int]chan State{}
	nextID := 0

	for {
		select {
		case m := <-s.mutations:
			err := m.apply(&state)
			m.done <- err
			if err != nil {
				continue
			}
			for _, ch := range subs {
				publish(ch, state.clone())
			}

		case reply := <-s.snapshots:
			reply <- state.clone()

		case reply := <-s.subscribe:
			nextID++
			ch := make(chan State, 1)
			ch <- state.clone()
			subs[nextID] = ch
			reply <- subscriber{id: nextID, ch: ch}

		case id := <-s.unsubscribe:
			if ch, ok := subs[id]; ok {
				close(ch)
				delete(subs, id)
			}

		case <-s.quit:
			for _, ch := range subs {
				close(ch)
			}
			return
		}
	}
}

// publish replaces any unread state so slow subscribers only see the latest.
func publish(ch chan State, st State) {
	select {
	case ch <- st:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (s *Store) mutate(apply func(*State) error) error {
	m := mutation{apply: apply, done: make(chan error, 1)}
	select {
	case s.mutations <- m:
		return <-m.done
	case <-s.stopped:
		return ErrClosed
	}
}

func (s *Store) Snapshot() State {
	reply := make(chan State, 1)
	select {
	case s.snapshots <- reply:
		return <-reply
	case <-s.stopped:
		return State{}
	}
}

// Subscribe returns a channel that receives the current state immediately
// and then every subsequent change. Call cancel to stop receiving.
func (s *Store) Subscribe() (<-chan State, func()) {
	reply := make(chan subscriber, 1)
	select {
	case s.subscribe <- reply:
	case <-s.stopped:
		ch := make(chan State)
		close(ch)
		return ch, func() {}
	}

	sub := <-reply
	cancel := func() {
		select {
		case s.unsubscribe <- sub.id:
		case <-s.stopped:
		}
	}
	return sub.ch, cancel
}

// Close stops the owner goroutine and closes all subscriber channels.
func (s *Store) Close() {
	select {
	case <-s.stopped:
		return
	default:
	}
	select {
	case s.quit <- struct{}{}:
	case <-s.stopped:
	}
	<-s.stopped
}

func (s *Store) SetUserProfile(p routine.Profile) error {
	p = cloneProfile(p)
	return s.mutate(func(st *State) error {
		st.UserProfile = &p
		return nil
	})
}

func (s *Store) SetRoutine(r routine.Routine) error {
	r = r.Clone()
	return s.mutate(func(st *State) error {
		st.Routine = &r
		return nil
	})
}

func (s *Store) AddDay(routineID string, day routine.Day) error {
	return s.mutate(func(st *State) error {
		if st.Routine == nil {
			return ErrNoRoutine
		}
		if st.Routine.ID != routineID {
			return ErrRoutineChanged
		}
		r := st.Routine.WithDay(day, s.now())
		st.Routine = &r
		return nil
	})
}

func (s *Store) AddExercise(routineID, dayID string, ex routine.Exercise) error {
	return s.mutate(func(st *State) error {
		if st.Routine == nil {
			return ErrNoRoutine
		}
		if st.Routine.ID != routineID {
			return ErrRoutineChanged
		}
		r, err := st.Routine.WithExercise(dayID, ex, s.now())
		if err != nil {
			return err
		}
		st.Routine = &r
		return nil
	})
}

func (s *Store) SetGenerating(v bool) error {
	return s.mutate(func(st *State) error {
		st.IsGenerating = v
		return nil
	})
}

func (s *Store) SetProgress(steps []routine.ProgressStep) error {
	steps = append([]routine.ProgressStep(nil), steps...)
	return s.mutate(func(st *State) error {
		st.GenerationProgress = steps
		return nil
	})
}

func (s *Store) Reset() error {
	return s.mutate(func(st *State) error {
		*st = State{}
		return nil
	})
}
