package agent

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"compilestrength/internal/routine"
	"compilestrength/internal/tools"
	"compilestrength/internal/usage"
)

// scriptedModel replays one delta list per turn. Turns past the script
// end with plain text.
type scriptedModel struct {
	mu       sync.Mutex
	turns    [][]Delta
	openErr  error
	requests []Request
}

func (m *scriptedModel) Stream(_ context.Context, req Request) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.openErr != nil {
		return nil, m.openErr
	}

	turn := len(m.requests) - 1
	if turn >= len(m.turns) {
		return &sliceStream{deltas: []Delta{{Text: "done"}}}, nil
	}
	return &sliceStream{deltas: m.turns[turn]}, nil
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type sliceStream struct {
	deltas []Delta
	i      int
	closed bool
}

func (s *sliceStream) Recv() (Delta, error) {
	if s.i >= len(s.deltas) {
		return Delta{}, io.EOF
	}
	d := s.deltas[s.i]
	s.i++
	return d, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

type fakeMeter struct {
	mu     sync.Mutex
	used   map[usage.Kind]int
	limits map[usage.Kind]int
	err    error
}

func newFakeMeter(limits map[usage.Kind]int) *fakeMeter {
	return &fakeMeter{used: map[usage.Kind]int{}, limits: limits}
}

func (m *fakeMeter) IncrementForUser(_ context.Context, kind usage.Kind, _ int) (*usage.Quota, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	limit, ok := m.limits[kind]
	if !ok {
		limit = 100
	}
	if m.used[kind] >= limit {
		return nil, &usage.QuotaExceededError{Quota: &usage.Quota{Kind: kind, Used: m.used[kind], Limit: limit}}
	}
	m.used[kind]++
	return &usage.Quota{Kind: kind, Allowed: m.used[kind] < limit, Used: m.used[kind], Limit: limit}, nil
}

func (m *fakeMeter) count(kind usage.Kind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[kind]
}

func testRegistry() *tools.Registry {
	n := 0
	return tools.NewRegistry(&routine.Stamper{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC) },
	})
}

func toolCall(index int, id, name, args string) Delta {
	return Delta{ToolCalls: []ToolCallDelta{{Index: index, ID: id, Name: name, Arguments: args}}}
}

const profileArgs = `{"experience":"beginner","goals":["muscle_gain"],"availableEquipment":["dumbbell"],"timeConstraints":{"daysPerWeek":3,"minutesPerSession":45}}`

const routineArgs = `{"name":"Beginner Full Body","frequency":3,"duration":8,"difficulty":"beginner","goals":["muscle_gain"],"days":[` +
	`{"name":"Day A","exercises":[{"name":"Goblet Squat","muscleGroups":["quads"],"equipment":"dumbbell","sets":3,"reps":"10-12","restSeconds":90},` +
	`{"name":"Dumbbell Press","muscleGroups":["chest"],"equipment":"dumbbell","sets":3,"reps":"8-12","restSeconds":90}]},` +
	`{"name":"Day B","exercises":[{"name":"Romanian Deadlift","muscleGroups":["hamstrings"],"equipment":"dumbbell","sets":3,"reps":"10","restSeconds":90}]}]}`
