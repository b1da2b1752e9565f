package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/hypercut/pkg/hypergraph"
	"github.com/matzehuels/hypercut/pkg/pipeline"
)

func trial(index int, cut, imbalance float64) trialMsg {
	return trialMsg(pipeline.Trial{
		Index:      index,
		Seed:       uint64(100 + index),
		Evaluation: hypergraph.Evaluation{CutWeight: cut, Imbalance: imbalance},
	})
}

func update(m TrialModel, msg tea.Msg) TrialModel {
	next, _ := m.Update(msg)
	return next.(TrialModel)
}

func TestTrialModelTracksBest(t *testing.T) {
	m := NewTrialModel("ring", 4, 10, nil)

	m = update(m, trial(2, 5, 9))
	if m.Best != 0 {
		t.Fatalf("Best = %d after first trial", m.Best)
	}
	m = update(m, trial(0, 3, 10))
	if m.Trials[m.Best].Index != 0 {
		t.Errorf("lower cut should win, best = trial %d", m.Trials[m.Best].Index)
	}
	m = update(m, trial(1, 1, 12))
	if m.Trials[m.Best].Index != 0 {
		t.Errorf("infeasible trial must not win, best = trial %d", m.Trials[m.Best].Index)
	}
	m = update(m, trial(3, 3, 8))
	if m.Trials[m.Best].Index != 0 {
		t.Errorf("ties go to the lower index, best = trial %d", m.Trials[m.Best].Index)
	}

	view := m.View()
	if !strings.Contains(view, "Partitioning ring") || !strings.Contains(view, "4/4 trials") {
		t.Errorf("view missing header:\n%s", view)
	}
}

func TestTrialModelDone(t *testing.T) {
	m := NewTrialModel("", 1, 1, nil)
	res := &pipeline.Result{ID: "x"}
	next, cmd := m.Update(doneMsg{res: res})
	if cmd == nil {
		t.Fatal("done should quit the program")
	}
	if got := next.(TrialModel); got.Result != res || got.Err != nil {
		t.Errorf("Result = %v, Err = %v", got.Result, got.Err)
	}

	failure := errors.New("boom")
	next, _ = m.Update(doneMsg{err: failure})
	if next.(TrialModel).Err != failure {
		t.Error("error not recorded")
	}
}

func TestTrialModelQuitCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewTrialModel("", 8, 1, cancel)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if ctx.Err() == nil {
		t.Error("q should cancel the run")
	}
}

func TestTrialModelKeepsBestVisible(t *testing.T) {
	m := NewTrialModel("", 40, 100, nil)
	m = update(m, tea.WindowSizeMsg{Height: 15})
	m = update(m, trial(0, 1, 50))
	for i := 1; i < 40; i++ {
		m = update(m, trial(i, float64(10+i), 50))
	}
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}
	if !strings.Contains(m.View(), "#0") {
		t.Error("best trial should stay visible")
	}
}
