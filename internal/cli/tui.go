package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/hypercut/pkg/partition"
	"github.com/matzehuels/hypercut/pkg/pipeline"
)

// =============================================================================
// TrialModel - Live trial table for partition --interactive
// =============================================================================

type (
	trialMsg pipeline.Trial
	doneMsg  struct {
		res *pipeline.Result
		err error
	}
	tickMsg time.Time
)

// TrialModel is the bubbletea model that shows trials as they finish.
type TrialModel struct {
	Name   string
	Total  int
	Limit  float64
	Trials []pipeline.Trial
	Best   int // index into Trials, -1 until the first trial arrives
	Height int

	Result *pipeline.Result
	Err    error

	frame  int
	start  time.Time
	cancel context.CancelFunc
}

// NewTrialModel creates a model for a run of total trials. cancel is
// called when the user quits early.
func NewTrialModel(name string, total int, limit float64, cancel context.CancelFunc) TrialModel {
	return TrialModel{
		Name:   name,
		Total:  total,
		Limit:  limit,
		Best:   -1,
		Height: 15,
		start:  time.Now(),
		cancel: cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m TrialModel) Init() tea.Cmd {
	return tick()
}

func (m TrialModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-10, 5)
	case tickMsg:
		m.frame++
		return m, tick()
	case trialMsg:
		t := pipeline.Trial(msg)
		m.Trials = append(m.Trials, t)
		if m.Best < 0 || m.better(t, m.Trials[m.Best]) {
			m.Best = len(m.Trials) - 1
		}
	case doneMsg:
		m.Result, m.Err = msg.res, msg.err
		return m, tea.Quit
	}
	return m, nil
}

// better orders trials the way the runner picks its winner.
func (m TrialModel) better(a, b pipeline.Trial) bool {
	if partition.Better(a.Evaluation, b.Evaluation, m.Limit) {
		return true
	}
	return !partition.Better(b.Evaluation, a.Evaluation, m.Limit) && a.Index < b.Index
}

func (m TrialModel) View() string {
	var b strings.Builder

	title := "Partitioning"
	if m.Name != "" {
		title += " " + m.Name
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")

	status := fmt.Sprintf("%s %d/%d trials  %s",
		spinnerFrames[m.frame%len(spinnerFrames)],
		len(m.Trials), m.Total,
		time.Since(m.start).Round(100*time.Millisecond))
	if m.Result != nil || m.Err != nil {
		status = fmt.Sprintf("%s %d/%d trials", iconSuccess, len(m.Trials), m.Total)
	}
	b.WriteString(StyleDim.Render(status + "  q quit"))
	b.WriteString("\n\n")

	if len(m.Trials) == 0 {
		return b.String()
	}

	// Most recent trials, keeping the current best visible.
	shown := m.Trials[max(0, len(m.Trials)-m.Height):]
	best := m.Trials[m.Best]
	if !containsTrial(shown, best.Index) {
		shown = append([]pipeline.Trial{best}, shown[1:]...)
	}
	b.WriteString(trialTable(shown, best.Index, m.Limit))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  best %s cut %s imbalance %s / %s\n",
		StyleNumber.Render(fmt.Sprintf("#%d", best.Index)),
		StyleValue.Render(formatFloat(best.Evaluation.CutWeight)),
		StyleValue.Render(formatFloat(best.Evaluation.Imbalance)),
		formatFloat(m.Limit)))
	return b.String()
}

func containsTrial(trials []pipeline.Trial, index int) bool {
	for _, t := range trials {
		if t.Index == index {
			return true
		}
	}
	return false
}
