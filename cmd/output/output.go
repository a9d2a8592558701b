// Package output provides functions to print messages with optional color formatting
package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/kjanat/livedash-deploy/domain"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

const durationPrecision = time.Millisecond

const (
	Plain   = color.FgWhite
	Success = color.FgGreen
	Warning = color.FgYellow
	Error   = color.FgRed
)

var maybeColorize func(kind color.Attribute, tmpl string, a ...any) string

// InitColors sets up color functions based on environment
func InitColors(isColorDisabled bool) {
	// Check if colors should be enabled
	if color.NoColor || isColorDisabled {
		// Fallback to plain formatting if colors are not supported
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return fmt.Sprintf(tmpl, a...)
		}
	} else {
		// Enable colors
		maybeColorize = func(kind color.Attribute, tmpl string, a ...any) string {
			return color.New(kind).SprintfFunc()(tmpl, a...)
		}
	}
}

// PrintMessage formats a message with color (if enabled) and prints it
func PrintMessage(kind color.Attribute, tmpl string, a ...any) string {
	if maybeColorize == nil || kind == Plain {
		return fmt.Sprintf(tmpl+"\n", a...)
	} else {
		// TODO: Print warnings and errors to stderr?
		return fmt.Sprintln(maybeColorize(kind, tmpl, a...))
	}
}

func PrintTable(header []string, data [][]string) (string, error) {
	buf := strings.Builder{}

	table := tablewriter.NewTable(
		&buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines: tw.Lines{
					ShowHeaderLine: tw.Off,
				},
				Separators: tw.Separators{
					BetweenColumns: tw.Off,
				},
			},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: []tw.Align{tw.AlignRight, tw.AlignLeft}},
			},
		}))

	if len(header) > 0 {
		table.Header(header)
	}

	if err := table.Bulk(data); err != nil {
		return "", fmt.Errorf("bulk adding data to table: %w", err)
	}

	if err := table.Render(); err != nil {
		return "", fmt.Errorf("rendering table: %w", err)
	}

	return buf.String(), nil
}

// PrintDeploymentResult renders the summary of a finished deployment run.
func PrintDeploymentResult(result domain.ExecutionResult) (string, error) {
	data := [][]string{
		{"Run ID", result.RunID.String()},
		{"Service", result.Service},
		{"Result", resultLabel(result.Success)},
		{"Completed Phases", strings.Join(result.CompletedPhases, "\n")},
		{"Attempted Phases", strings.Join(result.AttemptedPhases, "\n")},
	}
	if result.FailedPhase != "" {
		data = append(data, []string{"Failed Phase", result.FailedPhase})
	}
	data = append(data,
		[]string{"Duration", result.TotalDuration.Round(durationPrecision).String()},
		[]string{"Downtime", result.Downtime.Round(durationPrecision).String()},
	)
	if result.SnapshotRef != "" {
		data = append(data, []string{"Snapshot", result.SnapshotRef})
	}
	if result.Err != nil {
		data = append(data, []string{"Error", result.Err.Error()})
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing deployment result table: %w", err)
	}
	return table, nil
}

// PrintRollbackResult renders the summary of a finished rollback run.
func PrintRollbackResult(result domain.RollbackResult) (string, error) {
	data := [][]string{
		{"Run ID", result.RunID.String()},
		{"Result", resultLabel(result.Success)},
		{"Completed Steps", strings.Join(result.CompletedSteps, "\n")},
	}
	if result.FailedStep != "" {
		data = append(data, []string{"Failed Step", result.FailedStep})
	}
	data = append(data, []string{"Duration", result.TotalDuration.Round(durationPrecision).String()})
	if result.Err != nil {
		data = append(data, []string{"Error", result.Err.Error()})
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing rollback result table: %w", err)
	}
	return table, nil
}

// PrintSnapshotDetails renders one snapshot with its captured content listing.
func PrintSnapshotDetails(snap *domain.Snapshot) (string, error) {
	configFiles := make([]string, 0, len(snap.ConfigFiles))
	for path := range snap.ConfigFiles {
		configFiles = append(configFiles, path)
	}

	data := [][]string{
		{"ID", snap.ID.String()},
		{"Service", snap.Service},
		{"Captured At", snap.Timestamp.Format("2006-01-02 15:04:05")},
		{"Revision", snap.RevisionID},
		{"Config Files", strings.Join(configFiles, "\n")},
		{"Dependency Manifest", manifestLabel(snap.DependencyManifest)},
	}

	table, err := PrintTable([]string{}, data)
	if err != nil {
		return "", fmt.Errorf("printing snapshot details table: %w", err)
	}
	return table, nil
}

// PrintSnapshotList renders the snapshot index, newest first.
func PrintSnapshotList(records []*domain.SnapshotRecord) (string, error) {
	if len(records) == 0 {
		return PrintMessage(Plain, "No snapshots found."), nil
	}

	header := []string{"ID", "Service", "Revision", "Created At"}
	var data [][]string
	for _, record := range records {
		data = append(data, []string{
			record.ID.String(),
			record.Service,
			shortRevision(record.RevisionID),
			record.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing snapshot list table: %w", err)
	}
	return table, nil
}

// PrintDeploymentRunList renders the deployment run history, newest first.
func PrintDeploymentRunList(runs []*domain.DeploymentRun) (string, error) {
	if len(runs) == 0 {
		return PrintMessage(Plain, "No deployment runs found."), nil
	}

	header := []string{"ID", "Service", "Status", "Failed Phase", "Duration", "Created At"}
	var data [][]string
	for _, run := range runs {
		data = append(data, []string{
			run.ID.String(),
			run.Service,
			run.Status.String(),
			run.FailedPhase,
			run.Duration.Round(durationPrecision).String(),
			run.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing deployment run list table: %w", err)
	}
	return table, nil
}

// PrintRollbackRunList renders the rollback run history, newest first.
func PrintRollbackRunList(runs []*domain.RollbackRun) (string, error) {
	if len(runs) == 0 {
		return PrintMessage(Plain, "No rollback runs found."), nil
	}

	header := []string{"ID", "Status", "Failed Step", "Snapshot", "Duration", "Created At"}
	var data [][]string
	for _, run := range runs {
		data = append(data, []string{
			run.ID.String(),
			run.Status.String(),
			run.FailedStep,
			run.SnapshotRef,
			run.Duration.Round(durationPrecision).String(),
			run.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	table, err := PrintTable(header, data)
	if err != nil {
		return "", fmt.Errorf("printing rollback run list table: %w", err)
	}
	return table, nil
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func manifestLabel(manifest string) string {
	if manifest == "" {
		return "(not captured)"
	}
	return fmt.Sprintf("%d bytes", len(manifest))
}

func shortRevision(revision string) string {
	if len(revision) > 12 {
		return revision[:12]
	}
	return revision
}

// CLI flag for disabling color output

// NoColor is a flag that can be used to disable colored output in the CLI.
var NoColor = &noColorFlag{set: false}

type noColorFlag struct {
	set bool
}

func (f *noColorFlag) Set(value string) error {
	// This is a boolean flag, so we ignore the value and just mark it as set
	f.set = true
	return nil
}

func (f *noColorFlag) String() string {
	if f.set {
		return "true"
	}
	return "false"
}

func (f *noColorFlag) Type() string {
	return "bool"
}

// IsSet returns true if the --no-color flag was explicitly set
func (f *noColorFlag) IsSet() bool {
	return f.set
}

// IsBoolFlag tells pflag this is a boolean flag (no argument required)
func (f *noColorFlag) IsBoolFlag() bool {
	return true
}
