package cli

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Config holds all the command-line flag values.
type Config struct {
	Repo        string
	Issue       string
	OutputDir   string
	ConfigPath  string
	EditsPath   string
	WorkingTree string

	ApplyOnly     bool
	DryRun        bool
	WaitReviewers bool
	NoAnimation   bool
	History       bool
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}

	pflag.StringVarP(&cfg.Repo, "repo", "r", "", "Target repository in owner/repo form.")
	pflag.StringVarP(&cfg.Issue, "issue", "i", "", "Issue number to process.")
	pflag.StringVarP(&cfg.OutputDir, "output", "o", "", "Run output directory (default: <output_root>/<repo>/<issue>).")
	pflag.StringVarP(&cfg.ConfigPath, "config", "c", "", "Path to the YAML config file.")
	pflag.StringVarP(&cfg.EditsPath, "edits", "e", "", "Apply a prepared edit-list JSON instead of running the full pipeline (reads stdin or clipboard when empty).")
	pflag.StringVarP(&cfg.WorkingTree, "working-tree", "w", "", "Existing working tree to apply edits against (required with --apply-only).")

	pflag.BoolVar(&cfg.ApplyOnly, "apply-only", false, "Skip the upstream stages and only run the patch applier/emitter.")
	pflag.BoolVar(&cfg.DryRun, "dry-run", false, "Emit the synthetic diff without touching the working tree.")
	pflag.BoolVar(&cfg.WaitReviewers, "wait-reviewers", false, "Block until reviewer research completes (bounded).")
	pflag.BoolVar(&cfg.NoAnimation, "no-animation", false, "Disable the progress TUI; log plain lines instead.")
	pflag.BoolVar(&cfg.History, "history", false, "Print recent runs for the repository and exit.")

	pflag.Usage = func() {
		fmt.Println("Usage: bugout [flags]")
		fmt.Println("\nTurn a GitHub issue into a candidate patch plus a reviewer recommendation.")
		fmt.Println("\nExamples:")
		fmt.Println("  bugout -r owner/repo -i 12345")
		fmt.Println("  bugout --apply-only -w ./clone -e edits.json")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if cfg.ApplyOnly {
		if cfg.WorkingTree == "" {
			return nil, fmt.Errorf("error: --apply-only requires --working-tree")
		}
	} else if !cfg.History {
		if cfg.Repo == "" || cfg.Issue == "" {
			return nil, fmt.Errorf("error: --repo and --issue are required")
		}
	}
	if cfg.History && cfg.Repo == "" {
		return nil, fmt.Errorf("error: --history requires --repo")
	}

	return cfg, nil
}
