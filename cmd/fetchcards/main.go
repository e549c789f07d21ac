// cmd/fetchcards/main.go
//
// This is the entry point for the fetchcards CLI.
//
// Flow:
// 1. Resolve the project directory and create .fetchcards/ in it
// 2. Load config.yaml and open the fetch logbook
// 3. Either print one frame (--once) or launch the TUI

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/fetchcards/internal/config"
	"github.com/kingrea/fetchcards/internal/logbook"
	"github.com/kingrea/fetchcards/internal/tui"
)

func main() {
	projectDir := flag.String("dir", "", "directory holding .fetchcards/ (defaults to cwd)")
	once := flag.Bool("once", false, "fetch both cards, print them and exit")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			die("determine working directory: %v", err)
		}
	}
	absoluteProject, err := filepath.Abs(project)
	if err != nil {
		die("resolve project dir: %v", err)
	}
	if err := config.InitDir(absoluteProject); err != nil {
		die("init %s: %v", config.Dir, err)
	}
	cfg, err := config.NewConfig(absoluteProject)
	if err != nil {
		die("load config: %v", err)
	}
	book, err := logbook.New(cfg.LogPath())
	if err != nil {
		die("open log: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app := tui.NewApp(cfg, tui.WithLogbook(book), tui.WithContext(ctx))
	code := run(ctx, app, book, *once)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// run drives the app until it finishes and returns the process exit code.
func run(ctx context.Context, app *tui.App, book *logbook.Logbook, once bool) int {
	if once {
		err := app.RunOnce(ctx, os.Stdout)
		switch {
		case errors.Is(err, tui.ErrFetchFailed):
			return 1
		case err != nil:
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	// Run blocks until the user quits
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, runErr := p.Run()
	app.Close()
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		fmt.Fprintf(os.Stderr, "run TUI: %v\n", runErr)
		return 1
	}
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (see %s)\n", err, book.Path())
	}
	return 0
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
