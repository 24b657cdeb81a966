// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/obraflow/site-progress/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxRowsToShow is the default number of per-activity rows to display
	maxRowsToShow = 8
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSchedule outputs a human-readable summary of a registered schedule.
func (p *Printer) PrintSchedule(sched *types.ScheduleDefinition) {
	if sched == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Project:  %s\n", sched.ProjectID))
	sb.WriteString(fmt.Sprintf("Revision: %d\n", sched.RevisionID))
	sb.WriteString(fmt.Sprintf("Weight:   %.1f total\n\n", sched.TotalWeight()))

	count := min(len(sched.Activities), maxRowsToShow)
	for i := 0; i < count; i++ {
		a := sched.Activities[i]
		sb.WriteString(fmt.Sprintf("• %s  w=%.1f  %s +%dd\n", a.Name, a.WeightPercent, a.StartDate, a.DurationDays))
	}
	if len(sched.Activities) > maxRowsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more activities\n", len(sched.Activities)-maxRowsToShow))
	}

	p.printBox("REGISTERED SCHEDULE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSnapshot outputs the reconciled progress snapshot with per-activity rows.
func (p *Printer) PrintSnapshot(snapshot *types.ProgressSnapshot) {
	if snapshot == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Reference: %s\n", snapshot.ReferenceDate))
	sb.WriteString(fmt.Sprintf("Expected:  %.2f%%\n", snapshot.ExpectedPercent))
	sb.WriteString(fmt.Sprintf("Actual:    %.2f%%\n", snapshot.ActualPercent))
	sb.WriteString(fmt.Sprintf("Variance:  %+.2f%%  [%s]\n", snapshot.VariancePercent, strings.ToUpper(string(snapshot.Health))))
	if snapshot.DegenerateWeights {
		sb.WriteString("⚠ schedule weights sum to zero\n")
	}
	sb.WriteString("\n")

	count := min(len(snapshot.PerActivity), maxRowsToShow)
	for i := 0; i < count; i++ {
		row := snapshot.PerActivity[i]
		name := row.Name
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		sb.WriteString(fmt.Sprintf("%-20s %6.1f%% / %6.1f%%  %s\n", name, row.ActualPercent, row.ExpectedPercent, row.Status))
	}
	if len(snapshot.PerActivity) > maxRowsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more activities\n", len(snapshot.PerActivity)-maxRowsToShow))
	}

	p.printBox("PROGRESS SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRejection outputs why an observation was excluded from the aggregate.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRejection(activityNameRaw string, reason types.RejectReason) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Observation for %q was not applied.\n\n", activityNameRaw))

	switch reason {
	case types.RejectNotInSchedule:
		sb.WriteString("The activity is not in the schedule. Detected\n")
		sb.WriteString("work is reported but never tracked implicitly;\n")
		sb.WriteString("register the activity or add an alias.")
	case types.RejectLowConfidence:
		sb.WriteString("Detector confidence is below the configured\n")
		sb.WriteString("minimum. Raise the source quality or lower\n")
		sb.WriteString("min_confidence.")
	case types.RejectRegressionBlocked:
		sb.WriteString("Reported progress is lower than the last\n")
		sb.WriteString("accepted value and regressions are disabled\n")
		sb.WriteString("(allow_progress_regression=false).")
	default:
		sb.WriteString(fmt.Sprintf("Reason: %s", reason))
	}

	p.printBox("OBSERVATION REJECTED: "+string(reason), sb.String())
}
