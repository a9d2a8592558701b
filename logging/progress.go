package logging

import (
	"log/slog"
	"time"
)

// ProgressLogger brackets the phases or steps of a single run and tracks
// percentage progress. One instance covers exactly one run; it is opened at
// construction and closed once at the end. Events are append-only.
type ProgressLogger struct {
	logger  *slog.Logger
	run     string
	total   int
	done    int
	started time.Time
	current time.Time
}

// NewProgressLogger opens a run-scoped progress logger. run labels the run
// (e.g. "deployment", "rollback") and total is the number of phases or steps
// the run will attempt.
func NewProgressLogger(run string, total int) *ProgressLogger {
	p := &ProgressLogger{
		logger:  slog.Default().With("run", run),
		run:     run,
		total:   total,
		started: time.Now(),
	}
	p.logger.Info("Run started", "total_phases", total)
	return p
}

// PhaseStart emits the opening bracket for a phase.
func (p *ProgressLogger) PhaseStart(name, description string) {
	p.current = time.Now()
	p.logger.Info("Phase started",
		"phase", name,
		"description", description,
		"progress_pct", p.percent())
}

// PhaseComplete emits the closing bracket for a successful phase and advances
// the progress counter.
func (p *ProgressLogger) PhaseComplete(name string) {
	p.done++
	p.logger.Info("Phase completed",
		"phase", name,
		"elapsed", time.Since(p.current),
		"progress_pct", p.percent())
}

// PhaseFailed records a phase failure. Tolerated failures still advance the
// attempt counter so the percentage keeps moving.
func (p *ProgressLogger) PhaseFailed(name string, err error, tolerated bool) {
	if tolerated {
		p.done++
		p.logger.Warn("Phase failed, continuing",
			"phase", name,
			"elapsed", time.Since(p.current),
			"error", err,
			"progress_pct", p.percent())
		return
	}
	p.logger.Error("Phase failed",
		"phase", name,
		"elapsed", time.Since(p.current),
		"error", err,
		"progress_pct", p.percent())
}

// Warn records a tolerated problem that is not tied to a single phase.
func (p *ProgressLogger) Warn(msg string, args ...any) {
	p.logger.Warn(msg, args...)
}

// Close emits the final event for the run. The logger must not be used after
// Close.
func (p *ProgressLogger) Close(success bool) {
	if success {
		p.logger.Info("Run completed",
			"elapsed", time.Since(p.started),
			"progress_pct", p.percent())
		return
	}
	p.logger.Error("Run failed",
		"elapsed", time.Since(p.started),
		"progress_pct", p.percent())
}

// Percent returns the completed share of the run as a whole number 0-100.
func (p *ProgressLogger) Percent() int {
	return p.percent()
}

func (p *ProgressLogger) percent() int {
	if p.total == 0 {
		return 100
	}
	pct := p.done * 100 / p.total
	if pct > 100 {
		pct = 100
	}
	return pct
}
