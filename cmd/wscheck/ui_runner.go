package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"wscheck/internal/driver"
	"wscheck/internal/ui"
)

type dirOutcome struct {
	result *driver.DirResult
	err    error
}

// runDirWithUI runs DiagnoseDir while a progress view renders its events.
func runDirWithUI(ctx context.Context, title, root string, opts driver.Options) (*driver.DirResult, error) {
	dirs, err := driver.ListPackages(root)
	if err != nil {
		return nil, err
	}
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan dirOutcome, 1)

	go func() {
		runOpts := opts
		runOpts.OnEvent = func(ev driver.Event) { events <- ev }
		res, err := driver.DiagnoseDir(ctx, root, runOpts)
		outcomeCh <- dirOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, dirs, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the view may quit early (ctrl+c); keep the workers unblocked
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
