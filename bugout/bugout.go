// Package bugout orchestrates the issue-to-patch pipeline: it fetches a
// GitHub issue, distills bug reports into a requirements document, asks a
// reasoning model for an edit list against a clone of the repository, applies
// the edits and bundles the artifacts for human review.
package bugout

import (
	"fmt"
	"runtime/debug"

	"github.com/bugout-ai/bugout/cli"
	"github.com/bugout-ai/bugout/internal/config"
	"github.com/bugout-ai/bugout/model"
)

// Step identifies one pipeline stage for progress reporting.
type Step int

const (
	StepFetch Step = iota
	StepExtract
	StepReport
	StepPropose
	StepReviewers
	StepClone
	StepReason
	StepApply
	StepBundle
)

func (s Step) String() string {
	switch s {
	case StepFetch:
		return "Fetching issue"
	case StepExtract:
		return "Extracting bug features"
	case StepReport:
		return "Generating requirements document"
	case StepPropose:
		return "Proposing fix"
	case StepReviewers:
		return "Scouting reviewers"
	case StepClone:
		return "Cloning repository"
	case StepReason:
		return "Reasoning over the clone"
	case StepApply:
		return "Applying edits"
	case StepBundle:
		return "Bundling patch folder"
	default:
		return "Working"
	}
}

// ProgressUpdate is a callback function to report per-step progress.
// current/total describe sub-items within the step and may both be zero when
// the step has no measurable sub-items.
type ProgressUpdate func(step Step, current, total int)

// App orchestrates the entire application logic.
type App struct {
	cfg              *cli.Config
	conf             *config.Config
	progressCallback ProgressUpdate
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &App{cfg: cfg, conf: conf}, nil
}

// SetProgressCallback sets a function to be called for progress updates.
func (a *App) SetProgressCallback(cb ProgressUpdate) {
	a.progressCallback = cb
}

func (a *App) progress(step Step, current, total int) {
	if a.progressCallback != nil {
		a.progressCallback(step, current, total)
	}
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.History:
		return a.listHistory()
	case a.cfg.ApplyOnly:
		return a.applyFromSource()
	default:
		return a.runPipeline()
	}
}
