package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"compilestrength/internal/agent"
	"compilestrength/internal/client"
	"compilestrength/internal/store"
)

func newChatCmd(newClient func() *client.Client) *cobra.Command {
	var agentType string

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message to the coach and stream the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			msg := strings.Join(args, " ")
			return runChat(ctx, newClient(), agentType, msg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&agentType, "agent", agent.AgentBodybuilding, "coach persona")
	return cmd
}

func runChat(ctx context.Context, c *client.Client, agentType, message string, w io.Writer) error {
	out := &lockedWriter{w: w}
	st := store.New()
	states, unsubscribe := st.Subscribe()
	defer unsubscribe()

	syncer := store.NewSyncer(st, c, store.OnSave(func(res store.SaveResult) {
		if res.Err != nil {
			fmt.Fprintf(out, "\n! could not save %q: %v\n", res.Key.Name, res.Err)
			return
		}
		fmt.Fprintf(out, "\n* saved %q as program %d\n", res.Key.Name, res.ProgramID)
	}))

	var g errgroup.Group
	g.Go(func() error {
		watch(states, out)
		return nil
	})

	history := []agent.Message{{Role: agent.RoleUser, Content: message}}
	chatErr := c.Chat(ctx, history, agentType, func(ev agent.Event) error {
		switch ev.Type {
		case agent.EventText:
			fmt.Fprint(out, ev.Text)
		case agent.EventError:
			fmt.Fprintf(out, "\n! %s\n", ev.Message)
		case agent.EventToolError:
			if ev.Error != nil {
				fmt.Fprintf(out, "\n! %s: %s\n", ev.ToolName, ev.Error.Message)
			}
		}
		return syncer.Handle(ev)
	})

	syncer.Wait()
	st.Close()
	_ = g.Wait()
	fmt.Fprintln(out)

	if errors.Is(chatErr, client.ErrQuotaExceeded) {
		return fmt.Errorf("usage limit reached for this period: %w", chatErr)
	}
	if ctx.Err() != nil {
		return nil
	}
	return chatErr
}

// watch prints a line for every visible change until the store closes.
func watch(states <-chan store.State, out io.Writer) {
	var prev store.State
	for cur := range states {
		for _, line := range describe(prev, cur) {
			fmt.Fprintf(out, "\n* %s\n", line)
		}
		prev = cur
	}
}

func describe(prev, cur store.State) []string {
	var lines []string

	if cur.UserProfile != nil && prev.UserProfile == nil {
		p := cur.UserProfile
		lines = append(lines, fmt.Sprintf("profile: %s, %d days/week, %d min, goals %s",
			p.Experience, p.TimeConstraints.DaysPerWeek, p.TimeConstraints.MinutesPerSession, strings.Join(p.Goals, ", ")))
	}

	if cur.IsGenerating && !prev.IsGenerating {
		lines = append(lines, "generating routine...")
	}

	if n := len(cur.GenerationProgress); n > 0 {
		done := completed(cur)
		if done != completed(prev) || n != len(prev.GenerationProgress) {
			lines = append(lines, fmt.Sprintf("progress %d/%d", done, n))
		}
	}

	if r := cur.Routine; r != nil {
		switch {
		case prev.Routine == nil || prev.Routine.ID != r.ID:
			lines = append(lines, fmt.Sprintf("routine %q: %d days, %d weeks, %s", r.Name, len(r.Days), r.Duration, r.Difficulty))
			for _, d := range r.Days {
				lines = append(lines, fmt.Sprintf("  %d. %s (%d exercises)", d.Order+1, d.Name, len(d.Exercises)))
			}
		case !r.UpdatedAt.Equal(prev.Routine.UpdatedAt):
			lines = append(lines, fmt.Sprintf("routine %q updated: %d days", r.Name, len(r.Days)))
		}
	}

	return lines
}

func completed(s store.State) int {
	n := 0
	for _, step := range s.GenerationProgress {
		if step.Completed {
			n++
		}
	}
	return n
}

// lockedWriter serializes output from the stream, the store watcher and
// background saves.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
