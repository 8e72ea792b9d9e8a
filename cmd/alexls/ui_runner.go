package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"alexls/internal/ui"
)

// runWithUI runs work while a progress view renders its events. work must
// report every file it finishes through sink; the channel is closed when
// work returns.
func runWithUI(title string, files []string, work func(sink ui.ChannelSink)) error {
	events := make(chan ui.Event, 256)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(events)
		work(ui.ChannelSink{Ch: events})
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// the view may quit early; keep work from blocking on a full channel
	for range events {
	}
	<-done
	return uiErr
}
