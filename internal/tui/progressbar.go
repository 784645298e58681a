// Package tui renders the pipeline's progress events as a terminal progress
// bar. The core only emits abstract events; everything visual lives here.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var counterStyle = lipgloss.NewStyle().Faint(true)

type announceMsg int

type completedMsg struct{}

type model struct {
	bar   progress.Model
	total int
	done  int
}

func newModel() model {
	return model{bar: progress.New(progress.WithDefaultGradient())}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case announceMsg:
		m.total = int(msg)
		if m.total == 0 {
			return m, tea.Quit
		}
		return m, m.bar.SetPercent(0)

	case completedMsg:
		m.done++
		cmd := m.bar.SetPercent(float64(m.done) / float64(m.total))
		if m.done >= m.total {
			return m, tea.Sequence(cmd, tea.Quit)
		}
		return m, cmd

	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Interrupt
		}
	}
	return m, nil
}

func (m model) View() string {
	if m.total == 0 {
		return ""
	}
	counter := counterStyle.Render(fmt.Sprintf(" %d/%d files", m.done, m.total))
	return m.bar.View() + counter + "\n"
}

// Progress drives a progress bar from pool events. It implements
// rank.Reporter; events may arrive from any goroutine.
type Progress struct {
	program *tea.Program
	done    chan struct{}
}

// NewProgress starts the progress bar program rendering to w (normally
// stderr, keeping stdout clean for the ranked table).
func NewProgress(w io.Writer) *Progress {
	p := &Progress{
		program: tea.NewProgram(newModel(), tea.WithOutput(w), tea.WithoutSignalHandler()),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(p.done)
		_, _ = p.program.Run()
	}()
	return p
}

// Announce sets the total number of work units.
func (p *Progress) Announce(total int) {
	p.program.Send(announceMsg(total))
}

// Completed signals one finished work unit.
func (p *Progress) Completed() {
	p.program.Send(completedMsg{})
}

// Close tears the bar down and waits for the terminal to be restored.
func (p *Progress) Close() {
	p.program.Quit()
	<-p.done
}
