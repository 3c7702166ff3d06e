// Package bubbletea provides the Bubble Tea TUI for the counsel client.
//
// The Controller reports progress through typed notifications; this
// package bridges them onto the Bubble Tea message loop via a channel,
// and drives playback by scheduling the Controller's drain tick.
package bubbletea

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/counsel-cli/counsel"
)

// Run creates and runs the Bubble Tea TUI program. It blocks until the
// program exits. Cancelling the context quits the program.
func Run(ctx context.Context, m Model) (Model, error) {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	fm, err := p.Run()
	final, ok := fm.(Model)
	if !ok {
		return m, err
	}
	return final, err
}

// NewNotifier returns a notification handler for the Controller and the
// channel the Model reads from. The send never blocks a controller
// goroutine: if the UI falls behind, notifications are dropped. The Model
// re-reads controller state on every render, so drops lose nothing.
func NewNotifier() (func(counsel.Notification), <-chan counsel.Notification) {
	ch := make(chan counsel.Notification, 128)
	notify := func(n counsel.Notification) {
		select {
		case ch <- n:
		default:
		}
	}
	return notify, ch
}

// NoteMsg wraps a controller notification for delivery to the Model.
type NoteMsg struct {
	Note counsel.Notification
}

// submitDoneMsg reports the synchronous outcome of a Submit.
type submitDoneMsg struct {
	err error
}

// titleSavedMsg reports the outcome of a title update.
type titleSavedMsg struct {
	err error
}

// deleteDoneMsg reports the outcome of a message deletion.
type deleteDoneMsg struct {
	err error
}

// playbackTickMsg drives one playback drain step.
type playbackTickMsg time.Time

// listenForNote waits for the next controller notification.
func listenForNote(ch <-chan counsel.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return NoteMsg{Note: n}
	}
}

// playbackTick schedules the next drain step.
func playbackTick() tea.Cmd {
	return tea.Tick(counsel.DefaultTickInterval, func(t time.Time) tea.Msg {
		return playbackTickMsg(t)
	})
}
