package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/hypercut/pkg/pipeline"
	"github.com/matzehuels/hypercut/pkg/store"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader   = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBest     = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleInfeas   = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Run Output
// =============================================================================

// printStats prints the instance size and cache status on one line.
func printStats(pins, nets int, cached bool) {
	status, statusStyle := iconFresh, styleComputed
	if cached {
		status, statusStyle = iconCached, styleCached
	}
	sep := StyleDim.Render(" · ")
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf("%d pins", pins)) + sep +
		StyleDim.Render(fmt.Sprintf("%d nets", nets)) + sep + statusStyle.Render(status))
}

// printResult prints the winning evaluation of a run.
func printResult(res *pipeline.Result) {
	if res.Feasible() {
		printSuccess("Cut weight %s", StyleNumber.Render(formatFloat(res.Evaluation.CutWeight)))
	} else {
		printWarning("Cut weight %s, balance limit exceeded", formatFloat(res.Evaluation.CutWeight))
	}
	printStats(res.Stats.Pins, res.Stats.Nets, res.CacheHit)
	printKeyValue("imbalance", fmt.Sprintf("%s / %s", formatFloat(res.Evaluation.Imbalance), formatFloat(res.Limit)))
	printKeyValue("best trial", fmt.Sprintf("%d of %d (seed %d)", res.BestTrial, len(res.Trials), res.Trials[res.BestTrial].Seed))
	if len(res.Trials) > 1 {
		printKeyValue("cut range", fmt.Sprintf("%s .. %s (mean %s ± %s)",
			formatFloat(res.Stats.MinCut), formatFloat(res.Stats.MaxCut),
			formatFloat(res.Stats.MeanCut), formatFloat(res.Stats.StdDevCut)))
	}
	if !res.CacheHit {
		printKeyValue("time", fmt.Sprintf("%s wall, %s cpu",
			res.Stats.Duration.Round(time.Millisecond), res.Stats.CPUTime.Round(time.Millisecond)))
	}
}

// trialTable renders trials as a bordered table with the winner highlighted.
func trialTable(trials []pipeline.Trial, best int, limit float64) string {
	rows := make([][]string, len(trials))
	for i, t := range trials {
		rows[i] = []string{
			strconv.Itoa(t.Index),
			strconv.FormatUint(t.Seed, 10),
			formatFloat(t.Evaluation.CutWeight),
			formatFloat(t.Evaluation.Imbalance),
			t.Duration.Round(time.Millisecond).String(),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Trial", "Seed", "Cut", "Imbalance", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case row < 0 || row >= len(trials):
				return base
			case trials[row].Index == best:
				return styleBest.Padding(0, 1)
			case trials[row].Evaluation.Imbalance > limit:
				return styleInfeas.Padding(0, 1)
			}
			return base
		}).
		Render()
}

// runTable renders stored run summaries.
func runTable(recs []*store.Record) string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		name := r.Name
		if name == "" {
			name = "—"
		}
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			name,
			strconv.Itoa(r.Pins),
			formatFloat(r.Epsilon),
			formatFloat(r.CutWeight),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Name", "Pins", "Epsilon", "Cut").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// formatFloat prints integral values without a fraction.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}
