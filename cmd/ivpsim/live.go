package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/experiment"
	"github.com/san-kum/ivpsim/internal/sim"
)

const (
	liveFrame    = time.Second / 30
	liveBarWidth = 40
)

type progressMsg struct {
	t           float64
	outputs     int
	rejected    int
	evaluations int
	norm        float64
}

type doneMsg struct {
	result *sim.Result
	err    error
}

// liveModel renders run progress until the run reports back. Stopping only
// cancels the run; the view quits once the partial result arrives.
type liveModel struct {
	title      string
	t0, tFinal float64
	progress   progressMsg
	start      time.Time
	cancel     context.CancelFunc
	stopping   bool
	finished   bool
}

func (m liveModel) Init() tea.Cmd { return nil }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.stopping {
				m.stopping = true
				m.cancel()
			}
		}
	case progressMsg:
		m.progress = msg
	case doneMsg:
		m.finished = true
		if r := msg.result; r != nil && len(r.Times) > 0 {
			m.progress.t = r.Times[len(r.Times)-1]
			m.progress.outputs = len(r.Times)
			m.progress.rejected = r.Rejected
			m.progress.evaluations = r.Evaluations
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m liveModel) View() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(m.title) + "\n\n")

	frac := 0.0
	if span := m.tFinal - m.t0; span > 0 {
		frac = min(max((m.progress.t-m.t0)/span, 0), 1)
	}
	filled := int(frac * liveBarWidth)
	fmt.Fprintf(&sb, "  %s%s %5.1f%%\n\n",
		OKStyle.Render(strings.Repeat("█", filled)),
		Subtle.Render(strings.Repeat("░", liveBarWidth-filled)),
		100*frac)

	kv(&sb, "t", fmt.Sprintf("%.4g / %.4g", m.progress.t, m.tFinal))
	kv(&sb, "outputs", m.progress.outputs)
	kv(&sb, "rejected", m.progress.rejected)
	kv(&sb, "evaluations", m.progress.evaluations)
	kv(&sb, "|u|", fmt.Sprintf("%.6g", m.progress.norm))
	kv(&sb, "elapsed", time.Since(m.start).Round(time.Millisecond))
	sb.WriteString("\n")

	switch {
	case m.finished:
	case m.stopping:
		sb.WriteString(WarnStyle.Render("  stopping...") + "\n")
	default:
		sb.WriteString(Subtle.Render("  q to stop") + "\n")
	}
	return sb.String()
}

// liveRun drives a bubbletea progress view from the run's observer. OnStep
// runs on the stepping goroutine, so reading the stepper and the evaluation
// counter there does not race with the integration.
type liveRun struct {
	model    liveModel
	exp      *experiment.Experiment
	prog     *tea.Program
	outputs  int
	lastSend time.Time
}

var _ sim.Observer = (*liveRun)(nil)

func newLiveRun(t0, tFinal float64, cancel context.CancelFunc) *liveRun {
	return &liveRun{model: liveModel{t0: t0, tFinal: tFinal, cancel: cancel}}
}

func (l *liveRun) OnStep(t float64, u dynamo.State) {
	l.outputs++
	if time.Since(l.lastSend) < liveFrame {
		return
	}
	l.lastSend = time.Now()

	msg := progressMsg{
		t:           t,
		outputs:     l.outputs,
		evaluations: l.exp.Problem().Counter().Total(),
		norm:        u.Norm(),
	}
	if r, ok := l.exp.Stepper().(interface{ Rejected() int }); ok {
		msg.rejected = r.Rejected()
	}
	l.prog.Send(msg)
}

// run integrates exp in the background while the view runs in the
// foreground, and returns the run's own result and error.
func (l *liveRun) run(ctx context.Context, exp *experiment.Experiment) (*sim.Result, error) {
	l.exp = exp
	l.model.title = fmt.Sprintf("%s / %s", exp.Config().Model, exp.Stepper().Name())
	l.model.start = time.Now()
	l.prog = tea.NewProgram(l.model)

	results := make(chan doneMsg, 1)
	go func() {
		result, err := exp.Run(ctx)
		msg := doneMsg{result: result, err: err}
		results <- msg
		l.prog.Send(msg)
	}()

	if _, err := l.prog.Run(); err != nil {
		l.model.cancel()
		done := <-results
		return done.result, fmt.Errorf("live view: %w", err)
	}
	done := <-results
	return done.result, done.err
}
