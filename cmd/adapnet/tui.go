package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/adapnet/pkg/pubsub"
	"github.com/dd0wney/adapnet/pkg/results"
	"github.com/dd0wney/adapnet/pkg/simulation"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

const sparkWidth = 60

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "cancel run"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

type eventMsg pubsub.Event

type runDoneMsg struct {
	err error
}

// progressModel renders live progress from the event stream.
type progressModel struct {
	events <-chan pubsub.Event
	cancel context.CancelFunc

	bar     progress.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	runID      string
	total      int
	step       int
	prevalence float64
	infectious int
	edges      int
	generation int
	shares     []float64
	history    []float64
	reseeds    int
	swaps      int

	done bool
	err  error
}

func newProgressModel(events <-chan pubsub.Event, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF"))

	return progressModel{
		events:  events,
		cancel:  cancel,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(sparkWidth)),
		spinner: s,
		help:    help.New(),
		keys:    keys,
	}
}

func waitForEvent(ch <-chan pubsub.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case eventMsg:
		m.apply(pubsub.Event(msg))
		return m, waitForEvent(m.events)

	case runDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) apply(ev pubsub.Event) {
	if ev.RunID != "" {
		m.runID = ev.RunID
	}
	if ev.TotalSteps > 0 {
		m.total = ev.TotalSteps
	}
	switch ev.Kind {
	case pubsub.KindRunStarted:
		m.prevalence = ev.Prevalence
		m.infectious = ev.Infectious
		m.edges = ev.Edges
		m.shares = ev.Shares
		m.history = append(m.history, ev.Prevalence)
	case pubsub.KindStep:
		m.step = ev.Step
		m.prevalence = ev.Prevalence
		m.infectious = ev.Infectious
		m.edges = ev.Edges
		if ev.Reseeded {
			m.reseeds++
		}
		if ev.Swapped {
			m.swaps++
		}
		m.history = append(m.history, ev.Prevalence)
	case pubsub.KindGeneration:
		m.generation = ev.Generation
		m.shares = ev.Shares
	case pubsub.KindRunFinished:
		m.step = ev.Step
	}
}

// percent is the fraction of steps executed; step 0 is the initial state.
func (m progressModel) percent() float64 {
	if m.total <= 1 {
		return 0
	}
	return float64(m.step) / float64(m.total-1)
}

func (m progressModel) View() string {
	var b strings.Builder

	status := m.spinner.View() + " running"
	if m.done {
		status = "done"
	}
	b.WriteString(titleStyle.Render("adapnet") + "  " + helpStyle.Render(m.runID) + "\n\n")
	b.WriteString(status + "  " + m.bar.ViewAs(m.percent()) + "\n")
	b.WriteString(fmt.Sprintf("step %d/%d  generation %d  infectious %d  edges %d  reseeds %d  swaps %d\n\n",
		m.step, max(m.total-1, 0), m.generation, m.infectious, m.edges, m.reseeds, m.swaps))

	b.WriteString(labelStyle.Render("prevalence") + fmt.Sprintf("%.4f\n", m.prevalence))
	b.WriteString(labelStyle.Render("") + sparkline(m.history, sparkWidth) + "\n\n")

	if len(m.shares) == strategy.Count {
		var shares [strategy.Count]float64
		copy(shares[:], m.shares)
		best := 0
		for k, v := range shares {
			if v > shares[best] {
				best = k
			}
		}
		b.WriteString(renderShares(shares, strategy.Strategy(best)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys) + "\n")
	return b.String()
}

// sparkline renders the last width values scaled to their maximum.
func sparkline(values []float64, width int) string {
	if len(values) > width {
		values = values[len(values)-width:]
	}
	peak := 0.0
	for _, v := range values {
		peak = max(peak, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if peak > 0 {
			idx = int(v / peak * float64(len(sparkRunes)-1))
		}
		out[i] = sparkRunes[idx]
	}
	return string(out)
}

// runWithTUI executes the runner while a bubbletea program renders the
// subscription. Quitting the view cancels the run.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, runner *simulation.Runner, sub *pubsub.Subscription) (*results.Series, error) {
	defer sub.Unsubscribe()

	p := tea.NewProgram(newProgressModel(sub.Channel(), cancel))

	var (
		series *results.Series
		runErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		series, runErr = runner.Run(ctx)
		p.Send(runDoneMsg{err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("progress view: %w", err)
	}
	<-done
	return series, runErr
}
