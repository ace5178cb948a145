package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bugout-ai/bugout/bugout"
	"github.com/bugout-ai/bugout/cli"
	"github.com/bugout-ai/bugout/internal/tui"
	"github.com/bugout-ai/bugout/internal/ui"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := bugout.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	// Modes that print to stdout should not run the TUI.
	if cfg.NoAnimation || cfg.DryRun || cfg.History {
		runPlain(app)
		return
	}

	model := tui.New(app)
	p := tea.NewProgram(model)
	model.SetProgram(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// runPlain executes without the TUI, logging one line per step.
func runPlain(app *bugout.App) {
	app.SetProgressCallback(func(step bugout.Step, current, total int) {
		if total > 0 && current > 0 {
			return
		}
		ui.Info("%s...", step)
	})

	summary, err := app.Execute()
	if err != nil {
		if e, ok := err.(*bugout.DetailedError); ok {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", e.Stack)
		}
		ui.Error("%v", err)
		os.Exit(1)
	}

	if summary.Message != "" {
		ui.Header("%s", summary.Message)
	}
	printFiles := func(label string, files []string) {
		if len(files) == 0 {
			return
		}
		ui.Success("%s:", label)
		for _, f := range files {
			ui.Path("%s", f)
		}
	}
	printFiles("Created", summary.Created)
	printFiles("Modified", summary.Modified)
	printFiles("Deleted", summary.Deleted)
	if len(summary.Failed) > 0 {
		ui.Warning("Failed:")
		for _, f := range summary.Failed {
			ui.Path("%s", f)
		}
		os.Exit(1)
	}
}
