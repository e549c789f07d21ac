package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
)

// ErrFetchFailed is returned by RunOnce when at least one card failed.
var ErrFetchFailed = errors.New("tui: fetch failed")

// RunOnce fetches both cards concurrently, writes a single frame to w and
// returns. It drives the same hooks the interactive program does, without a
// terminal.
func (a *App) RunOnce(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer a.Close()
	if err := ctx.Err(); err != nil {
		return err
	}
	a.logInfo("once · %s · %s", a.pokemonURL(), a.characterURL())

	cmds := a.observeAll()
	msgs := make([]tea.Msg, len(cmds))
	var g errgroup.Group
	for i, cmd := range cmds {
		if cmd == nil {
			continue
		}
		i, cmd := i, cmd
		g.Go(func() error {
			msgs[i] = cmd()
			return nil
		})
	}
	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// Close cancels the hooks' requests; the commands then return
		// promptly and their messages are dropped.
		a.Close()
		<-done
		return ctx.Err()
	}

	for _, msg := range msgs {
		if msg != nil {
			a.Update(msg)
		}
	}
	if _, err := fmt.Fprintln(w, a.staticView()); err != nil {
		return fmt.Errorf("tui: write frame: %w", err)
	}
	if a.Failed() {
		return ErrFetchFailed
	}
	return nil
}

// staticView renders a frame without the interactive parts.
func (a *App) staticView() string {
	width := a.width
	if width <= 0 {
		width = defaultWidth
	}
	out := a.renderHeader() + "\n" + a.renderCards(width)
	if details := a.renderDetails(width); details != "" {
		out += "\n" + details
	}
	return out
}
